// Package cache provides a Redis read-through cache in front of a directory
// store. Fingerprint lookups happen on every scan, so keeping hot persons in
// Redis spares the primary store. Cache failures degrade to the inner store,
// never to the caller.
package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"rollcall/internal/directory"
)

const keyPrefix = "rollcall:person:"

// Store decorates a directory.Store with Redis caching for fingerprint
// lookups. Saves and cohort listings pass through.
type Store struct {
	inner  directory.Store
	client *redis.Client
	ttl    time.Duration
	log    *slog.Logger
}

func New(inner directory.Store, client *redis.Client, ttl time.Duration, log *slog.Logger) *Store {
	return &Store{inner: inner, client: client, ttl: ttl, log: log}
}

func (s *Store) Save(ctx context.Context, person directory.Person) error {
	if err := s.inner.Save(ctx, person); err != nil {
		return err
	}
	// Registration is append-only, so the entry cannot be stale; prime it.
	s.put(ctx, person)
	return nil
}

func (s *Store) FindByFingerprint(ctx context.Context, fingerprintID string) (directory.Person, error) {
	if cached, ok := s.get(ctx, fingerprintID); ok {
		return cached, nil
	}

	person, err := s.inner.FindByFingerprint(ctx, fingerprintID)
	if err != nil {
		return directory.Person{}, err
	}
	s.put(ctx, person)
	return person, nil
}

func (s *Store) ListByCohort(ctx context.Context, cohort string) ([]directory.Person, error) {
	return s.inner.ListByCohort(ctx, cohort)
}

func (s *Store) get(ctx context.Context, fingerprintID string) (directory.Person, bool) {
	payload, err := s.client.Get(ctx, keyPrefix+fingerprintID).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.log.Warn("person cache read failed", "fingerprint_id", fingerprintID, "error", err)
		}
		return directory.Person{}, false
	}

	var person directory.Person
	if err := json.Unmarshal(payload, &person); err != nil {
		s.log.Warn("person cache entry corrupt, dropping", "fingerprint_id", fingerprintID)
		s.client.Del(ctx, keyPrefix+fingerprintID)
		return directory.Person{}, false
	}
	return person, true
}

func (s *Store) put(ctx context.Context, person directory.Person) {
	payload, err := json.Marshal(person)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, keyPrefix+person.FingerprintID, payload, s.ttl).Err(); err != nil {
		s.log.Warn("person cache write failed", "fingerprint_id", person.FingerprintID, "error", err)
	}
}
