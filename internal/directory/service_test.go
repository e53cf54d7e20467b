package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	dErrors "rollcall/pkg/domain-errors"
)

type DirectoryServiceSuite struct {
	suite.Suite
	store    *InMemoryStore
	notifier *notifierRecorder
	service  *Service
}

func TestDirectoryServiceSuite(t *testing.T) {
	suite.Run(t, new(DirectoryServiceSuite))
}

func (s *DirectoryServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.notifier = &notifierRecorder{}

	var err error
	s.service, err = NewService(s.store, WithNotifier(s.notifier))
	s.Require().NoError(err)
}

func (s *DirectoryServiceSuite) validRequest() RegisterRequest {
	return RegisterRequest{
		FingerprintID: "fp-1",
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         "ada@example.com",
		Cohort:        "alpha",
	}
}

func (s *DirectoryServiceSuite) TestNewService() {
	s.Run("nil store returns error", func() {
		_, err := NewService(nil)
		s.Error(err)
		s.Contains(err.Error(), "directory store is required")
	})
}

func (s *DirectoryServiceSuite) TestRegister() {
	ctx := context.Background()

	s.Run("registers a valid person", func() {
		person, err := s.service.Register(ctx, s.validRequest())
		s.Require().NoError(err)
		s.Equal("Ada Lovelace", person.DisplayName())
		s.False(person.CreatedAt.IsZero())
	})

	s.Run("duplicate fingerprint ID rejected and notified", func() {
		_, err := s.service.Register(ctx, s.validRequest())
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeAlreadyExists))
		s.Contains(s.notifier.messages,
			"Error: person with fingerprint ID fp-1 already exists")
	})

	s.Run("blank fields rejected", func() {
		cases := []struct {
			mutate  func(*RegisterRequest)
			message string
		}{
			{func(r *RegisterRequest) { r.FingerprintID = "" }, "Fingerprint ID cannot be empty"},
			{func(r *RegisterRequest) { r.FirstName = "" }, "First name cannot be empty"},
			{func(r *RegisterRequest) { r.LastName = "" }, "Last name cannot be empty"},
			{func(r *RegisterRequest) { r.Email = "" }, "Email cannot be empty"},
			{func(r *RegisterRequest) { r.Cohort = "" }, "Cohort cannot be empty"},
		}
		for _, tc := range cases {
			req := s.validRequest()
			tc.mutate(&req)

			_, err := s.service.Register(ctx, req)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeMissingField))
			s.Contains(err.Error(), tc.message)
		}
	})
}

func (s *DirectoryServiceSuite) TestFindByFingerprint() {
	ctx := context.Background()
	_, err := s.service.Register(ctx, s.validRequest())
	s.Require().NoError(err)

	s.Run("resolves an enrolled person", func() {
		person, err := s.service.FindByFingerprint(ctx, "fp-1")
		s.Require().NoError(err)
		s.Equal("alpha", person.Cohort)
	})

	s.Run("unknown fingerprint ID is not found and notified", func() {
		_, err := s.service.FindByFingerprint(ctx, "fp-9")
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Contains(s.notifier.messages, "Error: no person found for fingerprint ID: fp-9")
	})

	s.Run("blank fingerprint ID rejected", func() {
		_, err := s.service.FindByFingerprint(ctx, "")
		s.True(dErrors.HasCode(err, dErrors.CodeMissingField))
	})
}

type notifierRecorder struct {
	messages []string
}

func (n *notifierRecorder) PublishMessage(_ context.Context, message, _ string) error {
	n.messages = append(n.messages, message)
	return nil
}
