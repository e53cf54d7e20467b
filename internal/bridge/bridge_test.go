package bridge

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rollcall/internal/ingest"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/kafka"
	dErrors "rollcall/pkg/domain-errors"
)

// =============================================================================
// Bridge Test Suite
// =============================================================================
// Justification for unit tests: the reply-correlation queue, the invalid
// message rejection, and the bounded reconnect policy are connection-state
// machinery that integration tests cover only on the happy path.

type BridgeSuite struct {
	suite.Suite
	log *slog.Logger
}

func TestBridgeSuite(t *testing.T) {
	suite.Run(t, new(BridgeSuite))
}

func (s *BridgeSuite) SetupTest() {
	s.log = slog.New(slog.DiscardHandler)
}

func (s *BridgeSuite) brokerConfig() config.Broker {
	return config.Broker{
		Seeds:             []string{"localhost:9092"},
		GroupID:           "rollcall",
		ScanTopic:         "attendance",
		ResponseTopic:     "response",
		ReconnectAttempts: 3,
		ReconnectInterval: time.Millisecond,
	}
}

func (s *BridgeSuite) connected(client *fakeClient) *Bridge {
	b := New(s.brokerConfig(), s.log, WithDialer(func(context.Context) (Client, error) {
		return client, nil
	}))
	s.Require().NoError(b.connect(context.Background()))
	return b
}

// =============================================================================
// Message Handling
// =============================================================================

func (s *BridgeSuite) TestHandleMessage() {
	ctx := context.Background()

	s.Run("successful scan publishes nothing", func() {
		client := &fakeClient{}
		b := s.connected(client)
		proc := processorFunc(func(_ context.Context, msg ingest.ScanMessage) ingest.Result {
			return ingest.Result{Success: true, Message: "recorded", Topic: msg.Topic}
		})

		b.handleMessage(ctx, proc, kafka.Message{
			Value: []byte(`{"fingerprintId":"fp-1","time":"09:15:00","date":"2026-03-02","topic":"t1"}`),
		})

		s.Empty(client.Published())
	})

	s.Run("failed scan publishes the reply on the message topic", func() {
		client := &fakeClient{}
		b := s.connected(client)
		proc := processorFunc(func(_ context.Context, msg ingest.ScanMessage) ingest.Result {
			return ingest.Result{
				Message: "Error: Ada Lovelace has already recorded attendance for today",
				Topic:   msg.Topic,
			}
		})

		b.handleMessage(ctx, proc, kafka.Message{
			Value: []byte(`{"fingerprintId":"fp-1","time":"09:15:00","date":"2026-03-02","topic":"t1"}`),
		})

		published := client.Published()
		s.Require().Len(published, 1)
		s.Equal("t1", published[0].Topic)
		s.Equal("Error: Ada Lovelace has already recorded attendance for today", string(published[0].Value))
	})

	s.Run("missing fields reject without reaching the processor", func() {
		client := &fakeClient{}
		b := s.connected(client)
		proc := processorFunc(func(context.Context, ingest.ScanMessage) ingest.Result {
			s.Fail("processor must not run for an invalid message")
			return ingest.Result{}
		})

		b.handleMessage(ctx, proc, kafka.Message{
			Value: []byte(`{"fingerprintId":"fp-1","topic":"t1"}`),
		})

		published := client.Published()
		s.Require().Len(published, 1)
		s.Equal("t1", published[0].Topic)
		s.Equal("Error: Invalid message format", string(published[0].Value))
	})

	s.Run("garbage payload rejects on an empty topic", func() {
		client := &fakeClient{}
		b := s.connected(client)
		proc := processorFunc(func(context.Context, ingest.ScanMessage) ingest.Result {
			s.Fail("processor must not run for garbage")
			return ingest.Result{}
		})

		b.handleMessage(ctx, proc, kafka.Message{Value: []byte(`not json`)})

		published := client.Published()
		s.Require().Len(published, 1)
		s.Equal("", published[0].Topic)
		s.Equal("Error: Invalid message format", string(published[0].Value))
	})

	s.Run("publish failure drops the reply without retrying", func() {
		client := &fakeClient{publishErr: errors.New("broker gone")}
		b := s.connected(client)
		proc := processorFunc(func(_ context.Context, msg ingest.ScanMessage) ingest.Result {
			return ingest.Result{Message: "Error: boom", Topic: msg.Topic}
		})

		b.handleMessage(ctx, proc, kafka.Message{
			Value: []byte(`{"fingerprintId":"fp-1","time":"09:15:00","date":"2026-03-02","topic":"t1"}`),
		})

		b.mu.Lock()
		pending := len(b.pending)
		b.mu.Unlock()
		s.Zero(pending)
	})
}

// =============================================================================
// Direct Publishing
// =============================================================================

func (s *BridgeSuite) TestPublishMessage() {
	ctx := context.Background()

	s.Run("disconnected bridge is a no-op", func() {
		b := New(s.brokerConfig(), s.log)
		s.NoError(b.PublishMessage(ctx, "Error: boom", "response"))
	})

	s.Run("connected bridge publishes", func() {
		client := &fakeClient{}
		b := s.connected(client)

		s.Require().NoError(b.PublishMessage(ctx, "Error: boom", "response"))
		published := client.Published()
		s.Require().Len(published, 1)
		s.Equal("response", published[0].Topic)
		s.Equal("Error: boom", string(published[0].Value))
	})

	s.Run("publish failure is returned", func() {
		client := &fakeClient{publishErr: errors.New("broker gone")}
		b := s.connected(client)

		err := b.PublishMessage(ctx, "Error: boom", "response")
		s.ErrorContains(err, "broker gone")
	})
}

// =============================================================================
// Connection Lifecycle
// =============================================================================

func (s *BridgeSuite) TestRunReconnectExhaustion() {
	dialErr := errors.New("connection refused")
	var dials int
	b := New(s.brokerConfig(), s.log, WithDialer(func(context.Context) (Client, error) {
		dials++
		if dials == 1 {
			return &fakeClient{pollErr: errors.New("broken pipe")}, nil
		}
		return nil, dialErr
	}))

	err := b.Run(context.Background(), processorFunc(func(context.Context, ingest.ScanMessage) ingest.Result {
		return ingest.Result{Success: true}
	}))

	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	s.Contains(err.Error(), "failed to reconnect to broker after 3 attempts")
	s.Equal(4, dials)
	s.Equal(StateDisconnected, b.State())
}

func (s *BridgeSuite) TestRunReconnectRecovers() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dials atomic.Int32
	b := New(s.brokerConfig(), s.log, WithDialer(func(context.Context) (Client, error) {
		if dials.Add(1) == 1 {
			return &fakeClient{pollErr: errors.New("broken pipe")}, nil
		}
		return &fakeClient{}, nil
	}))

	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx, processorFunc(func(context.Context, ingest.ScanMessage) ingest.Result {
			return ingest.Result{Success: true}
		}))
	}()

	s.Eventually(func() bool {
		return dials.Load() >= 2 && b.State() == StateSubscribed
	}, time.Second, time.Millisecond)

	cancel()
	s.ErrorIs(<-done, context.Canceled)
}

func (s *BridgeSuite) TestRunDeliversMessages() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := &fakeClient{
		inbound: []kafka.Message{{
			Topic: "attendance",
			Value: []byte(`{"fingerprintId":"fp-1","time":"09:15:00","date":"2026-03-02","topic":"t1"}`),
		}},
	}
	b := New(s.brokerConfig(), s.log, WithDialer(func(context.Context) (Client, error) {
		return client, nil
	}))

	var mu sync.Mutex
	var seen []string
	done := make(chan error, 1)
	go func() {
		done <- b.Run(ctx, processorFunc(func(_ context.Context, msg ingest.ScanMessage) ingest.Result {
			mu.Lock()
			seen = append(seen, msg.FingerprintID)
			mu.Unlock()
			return ingest.Result{Success: true, Topic: msg.Topic}
		}))
	}()

	s.Eventually(func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1 && seen[0] == "fp-1"
	}, time.Second, time.Millisecond)

	cancel()
	s.ErrorIs(<-done, context.Canceled)
}

// =============================================================================
// Fakes
// =============================================================================

type processorFunc func(ctx context.Context, msg ingest.ScanMessage) ingest.Result

func (f processorFunc) ProcessScan(ctx context.Context, msg ingest.ScanMessage) ingest.Result {
	return f(ctx, msg)
}

// fakeClient serves a fixed inbound batch on the first poll, then blocks
// until cancellation. pollErr makes every poll fail instead.
type fakeClient struct {
	inbound    []kafka.Message
	pollErr    error
	publishErr error

	mu        sync.Mutex
	published []kafka.Message
	delivered bool
	closed    bool
}

func (c *fakeClient) Publish(_ context.Context, topic string, value []byte) error {
	if c.publishErr != nil {
		return c.publishErr
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, kafka.Message{Topic: topic, Value: value})
	return nil
}

func (c *fakeClient) Poll(ctx context.Context) ([]kafka.Message, error) {
	if c.pollErr != nil {
		return nil, c.pollErr
	}
	c.mu.Lock()
	first := !c.delivered
	c.delivered = true
	c.mu.Unlock()
	if first && len(c.inbound) > 0 {
		return c.inbound, nil
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (c *fakeClient) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeClient) Published() []kafka.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]kafka.Message, len(c.published))
	copy(out, c.published)
	return out
}
