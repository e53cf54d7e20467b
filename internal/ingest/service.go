// Package ingest records one scan event at a time, enforcing the
// once-per-day attendance invariant and translating domain failures into
// result values the message bridge can correlate back to scanners.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"rollcall/internal/directory"
	"rollcall/internal/ingest/metrics"
	"rollcall/internal/ledger"
	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/sentinel"
)

// responseTopic is the fixed reply topic for engine-triggered error
// notifications.
const responseTopic = "response"

// Notifier publishes best-effort error notifications on the reply channel.
type Notifier interface {
	PublishMessage(ctx context.Context, message, topic string) error
}

// PersonResolver resolves a fingerprint ID to an enrolled person. The
// directory service satisfies this.
type PersonResolver interface {
	FindByFingerprint(ctx context.Context, fingerprintID string) (directory.Person, error)
}

// RecordRequest carries one attendance recording, from either the
// administrative path or the message path.
type RecordRequest struct {
	FingerprintID string
	PersonName    string

	// Timestamp is the combined date and time of day, 2006-01-02T15:04:05.
	Timestamp string

	// TimeOfDay repeats the time portion for display fidelity.
	TimeOfDay string

	// Status defaults to "Present" when blank.
	Status string
}

// ScanMessage is the payload scanners publish on the ingestion topic. It
// exists only for the duration of one ingestion attempt.
type ScanMessage struct {
	FingerprintID string `json:"fingerprintId"`
	Time          string `json:"time"`
	Date          string `json:"date"`

	// Topic is the reply-correlation tag; error replies for this message
	// are published there.
	Topic string `json:"topic"`
}

// Result crosses the message boundary instead of an error: the bridge
// publishes a correlated reply only when Success is false.
type Result struct {
	Success bool
	Message string
	Topic   string
}

// Service is the ingestion engine.
type Service struct {
	resolver PersonResolver
	store    ledger.Store
	notifier Notifier
	log      *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(resolver PersonResolver, store ledger.Store, notifier Notifier, opts ...Option) (*Service, error) {
	if resolver == nil {
		return nil, fmt.Errorf("person resolver is required")
	}
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if notifier == nil {
		return nil, fmt.Errorf("notifier is required")
	}
	svc := &Service{
		resolver: resolver,
		store:    store,
		notifier: notifier,
		log:      slog.Default(),
		tracer:   otel.Tracer("rollcall/ingest"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Record validates and persists one attendance event. It returns the
// success message for the caller to surface.
//
// Domain errors trigger a best-effort notification on the response topic
// before returning. Timestamp parse failures propagate raw and bypass the
// notification step: callers must not expect a notification for malformed
// input.
func (s *Service) Record(ctx context.Context, req RecordRequest) (string, error) {
	ctx, span := s.tracer.Start(ctx, "ingest.Record")
	defer span.End()
	start := time.Now()
	defer func() { s.metrics.ObserveRecordDuration(time.Since(start)) }()

	switch {
	case req.FingerprintID == "":
		s.metrics.IncrementOutcome("invalid")
		return "", s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "Fingerprint ID field is empty"))
	case req.PersonName == "":
		s.metrics.IncrementOutcome("invalid")
		return "", s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "Person name field is empty"))
	case req.Timestamp == "":
		s.metrics.IncrementOutcome("invalid")
		return "", s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "Attendance date field is empty"))
	case req.TimeOfDay == "":
		s.metrics.IncrementOutcome("invalid")
		return "", s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "Attendance time field is empty"))
	}

	// NotFound propagates unchanged; the directory already notified.
	if _, err := s.resolver.FindByFingerprint(ctx, req.FingerprintID); err != nil {
		s.metrics.IncrementOutcome("not_found")
		return "", err
	}

	recordedAt, err := time.Parse(ledger.TimestampLayout, req.Timestamp)
	if err != nil {
		s.metrics.IncrementOutcome("invalid")
		return "", err
	}

	existing, err := s.store.FindByPerson(ctx, req.FingerprintID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attendance history")
	}
	for _, event := range existing {
		if event.SameDay(recordedAt) {
			s.metrics.IncrementOutcome("duplicate")
			return "", s.fail(ctx, s.duplicateErr(req.PersonName))
		}
	}

	status := req.Status
	if status == "" {
		status = ledger.StatusPresent
	}

	_, err = s.store.Append(ctx, ledger.Event{
		FingerprintID: req.FingerprintID,
		PersonName:    req.PersonName,
		Status:        status,
		RecordedAt:    recordedAt,
		TimeOfDay:     req.TimeOfDay,
	})
	if err != nil {
		// The store's uniqueness guard closes the read-then-append race:
		// a concurrent insert for the same day surfaces here.
		if errors.Is(err, sentinel.ErrConflict) {
			s.metrics.IncrementOutcome("duplicate")
			return "", s.fail(ctx, s.duplicateErr(req.PersonName))
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to record attendance")
	}

	s.metrics.IncrementOutcome("recorded")
	s.log.Info("attendance recorded",
		"fingerprint_id", req.FingerprintID,
		"date", recordedAt.Format(ledger.DateLayout),
	)
	return "Attendance recorded successfully for " + req.PersonName, nil
}

// ProcessScan handles one inbound scanner message. It never returns an
// error: every failure, including malformed timestamps, becomes a failed
// Result tagged with the message's reply topic.
func (s *Service) ProcessScan(ctx context.Context, msg ScanMessage) Result {
	ctx, span := s.tracer.Start(ctx, "ingest.ProcessScan")
	defer span.End()

	person, err := s.resolver.FindByFingerprint(ctx, msg.FingerprintID)
	if err != nil {
		return Result{Message: "Error: " + err.Error(), Topic: msg.Topic}
	}

	message, err := s.Record(ctx, RecordRequest{
		FingerprintID: msg.FingerprintID,
		PersonName:    person.DisplayName(),
		Timestamp:     msg.Date + "T" + msg.Time,
		TimeOfDay:     msg.Time,
	})
	if err != nil {
		return Result{Message: "Error: " + err.Error(), Topic: msg.Topic}
	}
	return Result{Success: true, Message: message, Topic: msg.Topic}
}

func (s *Service) duplicateErr(personName string) error {
	return dErrors.New(dErrors.CodeDuplicateDay, personName+" has already recorded attendance for today")
}

// fail emits a best-effort notification for a domain error before returning
// it. Notification failures accompany the original error; they are never
// swallowed.
func (s *Service) fail(ctx context.Context, err error) error {
	var de *dErrors.Error
	if !errors.As(err, &de) {
		return err
	}
	if nerr := s.notifier.PublishMessage(ctx, "Error: "+de.Message, responseTopic); nerr != nil {
		return errors.Join(err, nerr)
	}
	return err
}
