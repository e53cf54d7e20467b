package directory

import (
	"context"
	"sync"

	"rollcall/pkg/sentinel"
)

// InMemoryStore keeps enrolled persons in process memory. It intentionally
// favors clarity over performance.
type InMemoryStore struct {
	mu      sync.RWMutex
	persons map[string]Person
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{persons: make(map[string]Person)}
}

func (s *InMemoryStore) Save(_ context.Context, person Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.persons[person.FingerprintID]; ok {
		return sentinel.ErrConflict
	}
	s.persons[person.FingerprintID] = person
	return nil
}

func (s *InMemoryStore) FindByFingerprint(_ context.Context, fingerprintID string) (Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if person, ok := s.persons[fingerprintID]; ok {
		return person, nil
	}
	return Person{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListByCohort(_ context.Context, cohort string) ([]Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Person
	for _, person := range s.persons {
		if person.Cohort == cohort {
			out = append(out, person)
		}
	}
	return out, nil
}
