package directory

import "context"

// Store is interface-driven so the in-memory, PostgreSQL and Redis-cached
// implementations stay interchangeable.
//
// Save returns sentinel.ErrConflict when the fingerprint ID is already
// registered; enrollment is append-only, never an overwrite.
// FindByFingerprint returns sentinel.ErrNotFound for unknown IDs.
// ListByCohort may return an empty slice; that is not an error at this
// layer, callers decide.
type Store interface {
	Save(ctx context.Context, person Person) error
	FindByFingerprint(ctx context.Context, fingerprintID string) (Person, error)
	ListByCohort(ctx context.Context, cohort string) ([]Person, error)
}
