// Package bridge maintains the long-lived connection to the pub/sub broker.
// It consumes inbound scan messages, forwards them to the ingestion engine,
// and publishes correlated error replies. Silence on the reply topic
// signals success.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"rollcall/internal/ingest"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/kafka"
	dErrors "rollcall/pkg/domain-errors"
)

// State tracks the bridge's connection lifecycle.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateSubscribed
	StateReconnecting
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// Processor handles one inbound scan message. The ingestion engine
// satisfies this.
type Processor interface {
	ProcessScan(ctx context.Context, msg ingest.ScanMessage) ingest.Result
}

// Client is the broker connection surface the bridge drives. The platform
// kafka client satisfies this; tests inject fakes.
type Client interface {
	Publish(ctx context.Context, topic string, value []byte) error
	Poll(ctx context.Context) ([]kafka.Message, error)
	Close()
}

// Dialer establishes one broker connection.
type Dialer func(ctx context.Context) (Client, error)

// reply is one queued error message awaiting correlation with its topic.
type reply struct {
	topic   string
	message string
}

// Bridge is safe for concurrent use: Run owns the poll loop while
// PublishMessage may be called from request-handling goroutines.
type Bridge struct {
	cfg  config.Broker
	dial Dialer
	log  *slog.Logger

	// pending holds replies queued for correlation. Both the arrival
	// handler and engine-triggered notifications touch it; treat as a
	// critical section.
	mu      sync.Mutex
	pending []reply

	connMu sync.RWMutex
	client Client
	state  State
}

type Option func(*Bridge)

// WithDialer overrides how the bridge reaches the broker. Tests use this to
// drive the state machine without a real broker.
func WithDialer(dial Dialer) Option {
	return func(b *Bridge) { b.dial = dial }
}

func New(cfg config.Broker, log *slog.Logger, opts ...Option) *Bridge {
	b := &Bridge{cfg: cfg, log: log}
	b.dial = func(ctx context.Context) (Client, error) {
		if err := kafka.EnsureTopics(ctx, cfg.Seeds, cfg.ScanTopic, cfg.ResponseTopic); err != nil {
			return nil, err
		}
		clientID := cfg.ClientID
		if clientID == "" {
			clientID = "rollcall-bridge-" + uuid.NewString()
		}
		return kafka.New(ctx, kafka.Config{
			Seeds:    cfg.Seeds,
			GroupID:  cfg.GroupID,
			ClientID: clientID,
			Topics:   []string{cfg.ScanTopic},
		})
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State reports the current connection state.
func (b *Bridge) State() State {
	b.connMu.RLock()
	defer b.connMu.RUnlock()
	return b.state
}

// Run connects and consumes until the context is cancelled or the
// reconnect budget is exhausted. After the configured attempts fail the
// bridge stays disconnected and requires external intervention; no further
// background retries are scheduled.
func (b *Bridge) Run(ctx context.Context, proc Processor) error {
	if err := b.connect(ctx); err != nil {
		b.setConn(nil, StateDisconnected)
		return fmt.Errorf("bridge connect: %w", err)
	}

	for {
		msgs, err := b.currentClient().Poll(ctx)
		for _, msg := range msgs {
			b.handleMessage(ctx, proc, msg)
		}
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			b.teardown()
			return ctx.Err()
		}

		b.log.Warn("broker connection lost", "error", err)
		if rerr := b.reconnect(ctx); rerr != nil {
			return rerr
		}
	}
}

// PublishMessage is the direct, synchronous-best-effort publish used for
// engine-triggered notifications. A disconnected bridge is a logged no-op;
// an actual publish failure is logged and returned for the caller to treat
// as fatal.
func (b *Bridge) PublishMessage(ctx context.Context, message, topic string) error {
	client, state := b.conn()
	if client == nil || state != StateSubscribed {
		b.log.Warn("cannot publish message: broker not connected", "topic", topic)
		return nil
	}
	if err := client.Publish(ctx, topic, []byte(message)); err != nil {
		b.log.Error("failed to publish message", "topic", topic, "error", err)
		return err
	}
	b.log.Info("published message", "topic", topic)
	return nil
}

// handleMessage parses one inbound payload, forwards it to the processor,
// queues a correlated reply on failure, and then makes the single delivery
// attempt for whatever is queued on this message's reply topic.
func (b *Bridge) handleMessage(ctx context.Context, proc Processor, msg kafka.Message) {
	var scan ingest.ScanMessage
	// A garbage payload decodes to an empty struct and is rejected below;
	// its reply topic is whatever the payload carried, not validated.
	_ = json.Unmarshal(msg.Value, &scan)

	if scan.Time != "" && scan.Date != "" && scan.FingerprintID != "" {
		result := proc.ProcessScan(ctx, scan)
		b.log.Info("processed scan message",
			"fingerprint_id", scan.FingerprintID,
			"success", result.Success,
		)
		if !result.Success {
			b.queueReply(result.Message, result.Topic)
		}
	} else {
		b.log.Warn("invalid scan message received", "payload", string(msg.Value))
		b.queueReply("Error: Invalid message format", scan.Topic)
	}

	b.deliverReplies(ctx, scan.Topic)
}

// queueReply stages an error message for the given reply topic.
func (b *Bridge) queueReply(message, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending = append(b.pending, reply{topic: topic, message: message})
}

// deliverReplies makes at most one delivery attempt per queued reply for
// the topic and discards the entries regardless of the publish outcome.
func (b *Bridge) deliverReplies(ctx context.Context, topic string) {
	staged := b.takeReplies(topic)
	if len(staged) == 0 {
		return
	}

	client, state := b.conn()
	if client == nil || state != StateSubscribed {
		b.log.Warn("dropping queued replies: broker not connected", "topic", topic, "count", len(staged))
		return
	}
	for _, r := range staged {
		if err := client.Publish(ctx, r.topic, []byte(r.message)); err != nil {
			b.log.Error("failed to publish reply", "topic", r.topic, "error", err)
			continue
		}
		b.log.Info("published reply", "topic", r.topic)
	}
}

func (b *Bridge) takeReplies(topic string) []reply {
	b.mu.Lock()
	defer b.mu.Unlock()

	var taken, kept []reply
	for _, r := range b.pending {
		if r.topic == topic {
			taken = append(taken, r)
		} else {
			kept = append(kept, r)
		}
	}
	b.pending = kept
	return taken
}

func (b *Bridge) connect(ctx context.Context) error {
	b.setConn(nil, StateConnecting)
	client, err := b.dial(ctx)
	if err != nil {
		return err
	}
	b.setConn(client, StateSubscribed)
	b.log.Info("connected to broker and subscribed", "topic", b.cfg.ScanTopic)
	return nil
}

// reconnect retries the connection a fixed number of times with a fixed
// wait in between. It blocks its own goroutine only.
func (b *Bridge) reconnect(ctx context.Context) error {
	b.teardown()
	b.setConn(nil, StateReconnecting)

	for attempt := 1; attempt <= b.cfg.ReconnectAttempts; attempt++ {
		b.log.Info("attempting to reconnect to broker",
			"attempt", attempt,
			"max_attempts", b.cfg.ReconnectAttempts,
		)
		client, err := b.dial(ctx)
		if err == nil {
			b.setConn(client, StateSubscribed)
			b.log.Info("reconnected to broker and resubscribed", "topic", b.cfg.ScanTopic)
			return nil
		}
		b.log.Warn("reconnection failed", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			b.setConn(nil, StateDisconnected)
			return ctx.Err()
		case <-time.After(b.cfg.ReconnectInterval):
		}
	}

	b.setConn(nil, StateDisconnected)
	return dErrors.New(dErrors.CodeUnavailable,
		fmt.Sprintf("failed to reconnect to broker after %d attempts", b.cfg.ReconnectAttempts))
}

func (b *Bridge) teardown() {
	b.connMu.Lock()
	if b.client != nil {
		b.client.Close()
		b.client = nil
	}
	b.state = StateDisconnected
	b.connMu.Unlock()
}

func (b *Bridge) conn() (Client, State) {
	b.connMu.RLock()
	defer b.connMu.RUnlock()
	return b.client, b.state
}

func (b *Bridge) currentClient() Client {
	client, _ := b.conn()
	return client
}

func (b *Bridge) setConn(client Client, state State) {
	b.connMu.Lock()
	b.client = client
	b.state = state
	b.connMu.Unlock()
}
