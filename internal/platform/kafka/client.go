// Package kafka wraps the franz-go client behind the small surface the
// message bridge needs: subscribe-and-poll, publish, health.
package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Config captures the connection settings for one broker client.
type Config struct {
	Seeds    []string
	GroupID  string
	ClientID string

	// Topics to consume. Leave empty for a produce-only client.
	Topics []string
}

// Message is one consumed record, reduced to what handlers need.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// Client is a connected broker client. It is safe for concurrent use.
type Client struct {
	kc *kgo.Client
}

// New builds and connects a client. The returned client is verified with a
// broker round trip so a bad seed list fails fast.
func New(ctx context.Context, cfg Config) (*Client, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Seeds...),
		kgo.AllowAutoTopicCreation(),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}
	if len(cfg.Topics) > 0 {
		opts = append(opts,
			kgo.ConsumerGroup(cfg.GroupID),
			kgo.ConsumeTopics(cfg.Topics...),
		)
	}

	kc, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("new broker client: %w", err)
	}
	if err := kc.Ping(ctx); err != nil {
		kc.Close()
		return nil, fmt.Errorf("broker ping failed: %w", err)
	}
	return &Client{kc: kc}, nil
}

// Publish produces one record synchronously.
func (c *Client) Publish(ctx context.Context, topic string, value []byte) error {
	rec := &kgo.Record{Topic: topic, Value: value}
	if err := c.kc.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Poll blocks until records arrive, the context is cancelled, or the
// connection fails. Partial fetches are returned along with the first
// fetch error so the caller can process what arrived before reconnecting.
func (c *Client) Poll(ctx context.Context) ([]Message, error) {
	fetches := c.kc.PollFetches(ctx)
	if fetches.IsClientClosed() {
		return nil, errors.New("broker client closed")
	}

	var msgs []Message
	fetches.EachRecord(func(rec *kgo.Record) {
		msgs = append(msgs, Message{Topic: rec.Topic, Key: rec.Key, Value: rec.Value})
	})

	var pollErr error
	fetches.EachError(func(_ string, _ int32, err error) {
		if pollErr == nil {
			pollErr = err
		}
	})
	if pollErr != nil {
		return msgs, fmt.Errorf("poll: %w", pollErr)
	}
	return msgs, ctx.Err()
}

// Ping verifies broker connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.kc.Ping(ctx)
}

// Close tears the connection down.
func (c *Client) Close() {
	c.kc.Close()
}

// EnsureTopics creates the given topics if they do not exist yet. Existing
// topics are not an error.
func EnsureTopics(ctx context.Context, seeds []string, topics ...string) error {
	kc, err := kgo.NewClient(kgo.SeedBrokers(seeds...))
	if err != nil {
		return fmt.Errorf("new admin client: %w", err)
	}
	defer kc.Close()

	adm := kadm.NewClient(kc)
	resps, err := adm.CreateTopics(ctx, 1, 1, nil, topics...)
	if err != nil {
		return fmt.Errorf("create topics: %w", err)
	}
	for _, resp := range resps.Sorted() {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}
