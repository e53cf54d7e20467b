// Package query implements the administrative reporting operations over
// the attendance ledger: range, cohort and person filtering, counting, and
// the working-day percentage computation.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"rollcall/internal/directory"
	"rollcall/internal/ledger"
	dErrors "rollcall/pkg/domain-errors"
)

const responseTopic = "response"

// Notifier publishes best-effort error notifications on the reply channel.
type Notifier interface {
	PublishMessage(ctx context.Context, message, topic string) error
}

// Directory is the slice of the directory service the reporting engine
// needs.
type Directory interface {
	FindByFingerprint(ctx context.Context, fingerprintID string) (directory.Person, error)
	ListByCohort(ctx context.Context, cohort string) ([]directory.Person, error)
}

// Service answers the reporting queries. All range filters are inclusive on
// both ends; a record at exactly start or exactly end matches.
type Service struct {
	directory Directory
	store     ledger.Store
	notifier  Notifier
	log       *slog.Logger
	tracer    trace.Tracer
}

type Option func(*Service)

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(dir Directory, store ledger.Store, opts ...Option) (*Service, error) {
	if dir == nil {
		return nil, fmt.Errorf("directory is required")
	}
	if store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	svc := &Service{
		directory: dir,
		store:     store,
		log:       slog.Default(),
		tracer:    otel.Tracer("rollcall/query"),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// AllAttendance returns every event in the ledger.
func (s *Service) AllAttendance(ctx context.Context) ([]AttendanceRecord, error) {
	ctx, span := s.tracer.Start(ctx, "query.AllAttendance")
	defer span.End()

	events, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attendance")
	}
	if len(events) == 0 {
		return nil, s.fail(ctx, dErrors.New(dErrors.CodeEmpty, "No attendance records found"))
	}
	return toRecords(events), nil
}

// AllAttendanceByTime filters the full ledger to [start, end] inclusive.
func (s *Service) AllAttendanceByTime(ctx context.Context, startDate, endDate string) ([]AttendanceRecord, error) {
	ctx, span := s.tracer.Start(ctx, "query.AllAttendanceByTime")
	defer span.End()

	start, end, err := s.parseRange(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	all, err := s.AllAttendance(ctx)
	if err != nil {
		return nil, err
	}

	var out []AttendanceRecord
	for _, record := range all {
		ts, perr := time.Parse(ledger.TimestampLayout, record.AttendanceDate)
		if perr != nil {
			return nil, perr
		}
		if inRange(ts, start, end) {
			out = append(out, record)
		}
	}
	if len(out) == 0 {
		return nil, s.fail(ctx, dErrors.New(dErrors.CodeEmpty,
			"No attendance records found between "+startDate+" and "+endDate))
	}
	return out, nil
}

// CohortAttendance unions the histories of every cohort member.
func (s *Service) CohortAttendance(ctx context.Context, cohort string) ([]AttendanceRecord, error) {
	ctx, span := s.tracer.Start(ctx, "query.CohortAttendance")
	defer span.End()

	events, err := s.cohortEvents(ctx, cohort)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, s.fail(ctx, dErrors.New(dErrors.CodeEmpty,
			"No attendance records found for cohort: "+cohort))
	}
	return toRecords(events), nil
}

// CohortAttendanceByTime is CohortAttendance filtered to [start, end].
func (s *Service) CohortAttendanceByTime(ctx context.Context, cohort, startDate, endDate string) ([]AttendanceRecord, error) {
	ctx, span := s.tracer.Start(ctx, "query.CohortAttendanceByTime")
	defer span.End()

	events, err := s.cohortEvents(ctx, cohort)
	if err != nil {
		return nil, err
	}

	start, end, err := s.parseRange(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	var matched []ledger.Event
	for _, event := range events {
		if inRange(event.RecordedAt, start, end) {
			matched = append(matched, event)
		}
	}
	if len(matched) == 0 {
		return nil, s.fail(ctx, dErrors.New(dErrors.CodeEmpty,
			"No attendance records found for cohort "+cohort+" between "+startDate+" and "+endDate))
	}
	return toRecords(matched), nil
}

// PersonAttendance returns one person's full history.
func (s *Service) PersonAttendance(ctx context.Context, fingerprintID string) ([]AttendanceRecord, error) {
	ctx, span := s.tracer.Start(ctx, "query.PersonAttendance")
	defer span.End()

	if fingerprintID == "" {
		return nil, s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "Fingerprint ID cannot be empty"))
	}

	events, err := s.store.FindByPerson(ctx, fingerprintID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attendance")
	}
	if len(events) == 0 {
		return nil, s.fail(ctx, dErrors.New(dErrors.CodeEmpty,
			"No attendance records found for person with fingerprint ID: "+fingerprintID))
	}
	return toRecords(events), nil
}

// PersonAttendanceByTime returns one person's history within [start, end].
// The person must exist; an unknown fingerprint ID is NotFound, not Empty.
func (s *Service) PersonAttendanceByTime(ctx context.Context, fingerprintID, startDate, endDate string) ([]AttendanceRecord, error) {
	ctx, span := s.tracer.Start(ctx, "query.PersonAttendanceByTime")
	defer span.End()

	// The directory notifies and rejects blank or unknown IDs.
	if _, err := s.directory.FindByFingerprint(ctx, fingerprintID); err != nil {
		return nil, err
	}

	start, end, err := s.parseRange(ctx, startDate, endDate)
	if err != nil {
		return nil, err
	}

	events, err := s.store.FindByPerson(ctx, fingerprintID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attendance")
	}

	var matched []ledger.Event
	for _, event := range events {
		if inRange(event.RecordedAt, start, end) {
			matched = append(matched, event)
		}
	}
	if len(matched) == 0 {
		return nil, s.fail(ctx, dErrors.New(dErrors.CodeEmpty,
			"No attendance records found for person with fingerprint ID: "+fingerprintID+
				" between "+startDate+" and "+endDate))
	}
	return toRecords(matched), nil
}

// AttendanceCount counts a person's events within [start, end]. Unlike the
// list-returning queries, zero is a valid result here, not an error.
func (s *Service) AttendanceCount(ctx context.Context, fingerprintID, startDate, endDate string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "query.AttendanceCount")
	defer span.End()

	if _, err := s.directory.FindByFingerprint(ctx, fingerprintID); err != nil {
		return 0, err
	}

	start, end, err := s.parseRange(ctx, startDate, endDate)
	if err != nil {
		return 0, err
	}

	events, err := s.store.FindByPerson(ctx, fingerprintID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attendance")
	}

	count := 0
	for _, event := range events {
		if inRange(event.RecordedAt, start, end) {
			count++
		}
	}
	return count, nil
}

// AttendancePercentage reports attendance as a percentage of the working
// days (Monday through Friday) in the window, rounded to two decimals.
func (s *Service) AttendancePercentage(ctx context.Context, fingerprintID, startDate, endDate string) (float64, error) {
	ctx, span := s.tracer.Start(ctx, "query.AttendancePercentage")
	defer span.End()

	if fingerprintID == "" {
		return 0, s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "Fingerprint ID cannot be empty"))
	}

	start, end, err := s.parseRange(ctx, startDate, endDate)
	if err != nil {
		return 0, err
	}

	working := workingDays(start, end)
	if working == 0 {
		return 0, s.fail(ctx, dErrors.New(dErrors.CodeNoWorkingDays,
			"No working days in the specified date range"))
	}

	actual, err := s.AttendanceCount(ctx, fingerprintID, startDate, endDate)
	if err != nil {
		return 0, err
	}
	return round2(float64(actual) / float64(working) * 100), nil
}

// cohortEvents resolves cohort members and unions their histories.
func (s *Service) cohortEvents(ctx context.Context, cohort string) ([]ledger.Event, error) {
	if cohort == "" {
		return nil, s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "Cohort name cannot be empty"))
	}

	members, err := s.directory.ListByCohort(ctx, cohort)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, s.fail(ctx, dErrors.New(dErrors.CodeNotFound,
			"no persons found for cohort: "+cohort))
	}

	var events []ledger.Event
	for _, member := range members {
		memberEvents, err := s.store.FindByPerson(ctx, member.FingerprintID)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load attendance")
		}
		events = append(events, memberEvents...)
	}
	return events, nil
}

// parseRange validates and parses both bounds. Blank bounds and inverted
// ranges are domain errors; malformed timestamps propagate raw.
func (s *Service) parseRange(ctx context.Context, startDate, endDate string) (time.Time, time.Time, error) {
	if startDate == "" {
		return time.Time{}, time.Time{}, s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "Start date cannot be empty"))
	}
	if endDate == "" {
		return time.Time{}, time.Time{}, s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "End date cannot be empty"))
	}

	start, err := time.Parse(ledger.TimestampLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := time.Parse(ledger.TimestampLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, s.fail(ctx, dErrors.New(dErrors.CodeInvalidRange,
			"Start date cannot be after end date"))
	}
	return start, end, nil
}

// inRange is inclusive on both ends.
func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// fail emits a best-effort notification for a domain error before returning
// it. Non-domain errors pass through untouched: malformed timestamps never
// produce a notification.
func (s *Service) fail(ctx context.Context, err error) error {
	if s.notifier == nil {
		return err
	}
	var de *dErrors.Error
	if !errors.As(err, &de) {
		return err
	}
	if nerr := s.notifier.PublishMessage(ctx, "Error: "+de.Message, responseTopic); nerr != nil {
		return errors.Join(err, nerr)
	}
	return err
}
