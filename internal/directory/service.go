package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	dErrors "rollcall/pkg/domain-errors"
	"rollcall/pkg/sentinel"
)

// responseTopic is the fixed reply topic for engine-triggered error
// notifications. Message-correlated replies are the bridge's business.
const responseTopic = "response"

// Notifier publishes best-effort error notifications on the reply channel.
// The message bridge satisfies this; tests swap in mocks.
type Notifier interface {
	PublishMessage(ctx context.Context, message, topic string) error
}

// Service owns enrollment and person lookups.
type Service struct {
	store    Store
	notifier Notifier
	log      *slog.Logger
}

type Option func(*Service)

func WithNotifier(notifier Notifier) Option {
	return func(s *Service) { s.notifier = notifier }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func NewService(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("directory store is required")
	}
	svc := &Service{store: store, log: slog.Default()}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RegisterRequest carries one enrollment. All fields are required.
type RegisterRequest struct {
	FingerprintID string
	FirstName     string
	LastName      string
	Email         string
	Cohort        string
}

// Register enrolls a new person. An existing fingerprint ID is a rejection,
// never an overwrite.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (Person, error) {
	switch {
	case req.FingerprintID == "":
		return Person{}, s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "Fingerprint ID cannot be empty"))
	case req.FirstName == "":
		return Person{}, s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "First name cannot be empty"))
	case req.LastName == "":
		return Person{}, s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "Last name cannot be empty"))
	case req.Email == "":
		return Person{}, s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "Email cannot be empty"))
	case req.Cohort == "":
		return Person{}, s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "Cohort cannot be empty"))
	}

	person := Person{
		FingerprintID: req.FingerprintID,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		Cohort:        req.Cohort,
		CreatedAt:     time.Now(),
	}

	if err := s.store.Save(ctx, person); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return Person{}, s.fail(ctx, dErrors.New(dErrors.CodeAlreadyExists,
				"person with fingerprint ID "+req.FingerprintID+" already exists"))
		}
		return Person{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to register person")
	}

	s.log.Info("person registered", "fingerprint_id", person.FingerprintID, "cohort", person.Cohort)
	return person, nil
}

// FindByFingerprint resolves a scanner identifier to an enrolled person.
func (s *Service) FindByFingerprint(ctx context.Context, fingerprintID string) (Person, error) {
	if fingerprintID == "" {
		return Person{}, s.fail(ctx, dErrors.New(dErrors.CodeMissingField, "Fingerprint ID cannot be empty"))
	}

	person, err := s.store.FindByFingerprint(ctx, fingerprintID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Person{}, s.fail(ctx, dErrors.New(dErrors.CodeNotFound,
				"no person found for fingerprint ID: "+fingerprintID))
		}
		return Person{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up person")
	}
	return person, nil
}

// ListByCohort returns every member of a cohort. Empty is not an error at
// this layer; callers decide what an empty cohort means.
func (s *Service) ListByCohort(ctx context.Context, cohort string) ([]Person, error) {
	persons, err := s.store.ListByCohort(ctx, cohort)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list cohort members")
	}
	return persons, nil
}

// fail emits a best-effort notification for a domain error before returning
// it. Notification failures are never swallowed; they accompany the original
// error as a fatal condition for the caller.
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
