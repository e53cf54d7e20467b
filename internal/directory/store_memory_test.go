package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"rollcall/pkg/sentinel"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
}

func (s *InMemoryStoreSuite) person(fingerprintID, cohort string) Person {
	return Person{
		FingerprintID: fingerprintID,
		FirstName:     "Ada",
		LastName:      "Lovelace",
		Email:         "ada@example.com",
		Cohort:        cohort,
	}
}

func (s *InMemoryStoreSuite) TestSave() {
	ctx := context.Background()

	s.Run("saves a new person", func() {
		s.NoError(s.store.Save(ctx, s.person("fp-1", "alpha")))
	})

	s.Run("rejects a duplicate fingerprint ID", func() {
		err := s.store.Save(ctx, s.person("fp-1", "beta"))
		s.ErrorIs(err, sentinel.ErrConflict)
	})
}

func (s *InMemoryStoreSuite) TestFindByFingerprint() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, s.person("fp-1", "alpha")))

	s.Run("returns the saved person", func() {
		person, err := s.store.FindByFingerprint(ctx, "fp-1")
		s.Require().NoError(err)
		s.Equal("Ada", person.FirstName)
	})

	s.Run("unknown fingerprint ID is not found", func() {
		_, err := s.store.FindByFingerprint(ctx, "fp-9")
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *InMemoryStoreSuite) TestListByCohort() {
	ctx := context.Background()
	s.Require().NoError(s.store.Save(ctx, s.person("fp-1", "alpha")))
	s.Require().NoError(s.store.Save(ctx, s.person("fp-2", "alpha")))
	s.Require().NoError(s.store.Save(ctx, s.person("fp-3", "beta")))

	s.Run("returns cohort members only", func() {
		persons, err := s.store.ListByCohort(ctx, "alpha")
		s.Require().NoError(err)
		s.Len(persons, 2)
	})

	s.Run("unknown cohort is empty, not an error", func() {
		persons, err := s.store.ListByCohort(ctx, "gamma")
		s.NoError(err)
		s.Empty(persons)
	})
}
