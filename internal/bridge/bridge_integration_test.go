//go:build integration

package bridge_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rollcall/internal/bridge"
	"rollcall/internal/directory"
	"rollcall/internal/ingest"
	"rollcall/internal/ledger"
	"rollcall/internal/platform/config"
	"rollcall/internal/platform/kafka"
	"rollcall/pkg/testutil/containers"
)

// End-to-end over a real broker: scans published on the ingestion topic
// flow through the engine, and failures come back on the message's reply
// topic.

type BridgeIntegrationSuite struct {
	suite.Suite
	redpanda *containers.RedpandaContainer
	persons  *directory.InMemoryStore
	events   *ledger.InMemoryStore
	bridge   *bridge.Bridge
	cancel   context.CancelFunc
	done     chan error
}

func TestBridgeIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(BridgeIntegrationSuite))
}

func (s *BridgeIntegrationSuite) SetupSuite() {
	s.redpanda = containers.NewRedpandaContainer(s.T())
}

func (s *BridgeIntegrationSuite) SetupTest() {
	log := slog.New(slog.DiscardHandler)
	s.persons = directory.NewInMemoryStore()
	s.events = ledger.NewInMemoryStore()

	cfg := config.Broker{
		Seeds:             []string{s.redpanda.Seed},
		GroupID:           "rollcall-test",
		ScanTopic:         "attendance",
		ResponseTopic:     "response",
		ReconnectAttempts: 3,
		ReconnectInterval: time.Second,
	}
	s.bridge = bridge.New(cfg, log)

	dir, err := directory.NewService(s.persons,
		directory.WithNotifier(s.bridge), directory.WithLogger(log))
	s.Require().NoError(err)

	engine, err := ingest.NewService(dir, s.events, s.bridge, ingest.WithLogger(log))
	s.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan error, 1)
	go func() { s.done <- s.bridge.Run(ctx, engine) }()

	s.Eventually(func() bool {
		return s.bridge.State() == bridge.StateSubscribed
	}, 30*time.Second, 100*time.Millisecond)
}

func (s *BridgeIntegrationSuite) TearDownTest() {
	s.cancel()
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.Fail("bridge did not stop")
	}
}

func (s *BridgeIntegrationSuite) enrollAda() {
	s.Require().NoError(s.persons.Save(context.Background(), directory.Person{
		FingerprintID: "fp-1",
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         "ada@example.com",
		Cohort:        "alpha",
	}))
}

func (s *BridgeIntegrationSuite) publishScan(fingerprintID, date, timeOfDay, topic string) {
	ctx := context.Background()

	producer, err := kafka.New(ctx, kafka.Config{
		Seeds:    []string{s.redpanda.Seed},
		ClientID: "test-producer",
	})
	s.Require().NoError(err)
	defer producer.Close()

	payload, err := json.Marshal(map[string]string{
		"fingerprintId": fingerprintID,
		"time":          timeOfDay,
		"date":          date,
		"topic":         topic,
	})
	s.Require().NoError(err)
	s.Require().NoError(producer.Publish(ctx, "attendance", payload))
}

// awaitReply consumes the reply topic until one message arrives.
func (s *BridgeIntegrationSuite) awaitReply(topic string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	consumer, err := kafka.New(ctx, kafka.Config{
		Seeds:   []string{s.redpanda.Seed},
		GroupID: "test-consumer-" + topic,
		Topics:  []string{topic},
	})
	s.Require().NoError(err)
	defer consumer.Close()

	for {
		msgs, err := consumer.Poll(ctx)
		s.Require().NoError(err)
		if len(msgs) > 0 {
			return string(msgs[0].Value)
		}
	}
}

func (s *BridgeIntegrationSuite) TestScanRecordsAttendance() {
	s.enrollAda()
	s.publishScan("fp-1", "2026-03-02", "09:15:00", "t1")

	s.Eventually(func() bool {
		events, err := s.events.FindByPerson(context.Background(), "fp-1")
		s.Require().NoError(err)
		return len(events) == 1
	}, 30*time.Second, 100*time.Millisecond)
}

func (s *BridgeIntegrationSuite) TestUnknownPersonGetsReply() {
	s.publishScan("fp-9", "2026-03-02", "09:15:00", "t2")

	reply := s.awaitReply("t2")
	s.Equal("Error: no person found for fingerprint ID: fp-9", reply)
}

func (s *BridgeIntegrationSuite) TestDuplicateDayGetsReply() {
	s.enrollAda()
	s.publishScan("fp-1", "2026-03-02", "09:15:00", "t3")

	s.Eventually(func() bool {
		events, err := s.events.FindByPerson(context.Background(), "fp-1")
		s.Require().NoError(err)
		return len(events) == 1
	}, 30*time.Second, 100*time.Millisecond)

	s.publishScan("fp-1", "2026-03-02", "17:00:00", "t3")
	reply := s.awaitReply("t3")
	s.Equal("Error: Ada Lovelace has already recorded attendance for today", reply)
}
