package ledger

import (
	"context"
	"sync"

	"rollcall/pkg/sentinel"
)

// InMemoryStore keeps the ledger in process memory. It intentionally favors
// clarity over performance and mirrors the PostgreSQL store's uniqueness
// behavior so tests exercise the same contract.
type InMemoryStore struct {
	mu     sync.RWMutex
	nextID int64
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) (Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.events {
		if existing.FingerprintID == event.FingerprintID && existing.SameDay(event.RecordedAt) {
			return Event{}, sentinel.ErrConflict
		}
	}

	event.ID = s.nextID
	s.nextID++
	s.events = append(s.events, event)
	return event, nil
}

func (s *InMemoryStore) FindByPerson(_ context.Context, fingerprintID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Event
	for _, event := range s.events {
		if event.FingerprintID == fingerprintID {
			out = append(out, event)
		}
	}
	return out, nil
}

func (s *InMemoryStore) FindAll(_ context.Context) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out, nil
}
