package ledger

import "context"

// Store is interface-driven to keep the domain logic testable and to allow
// swapping in-memory and PostgreSQL persistence without rewiring business
// code.
//
// Append assigns the event a fresh ID. Implementations enforce the
// once-per-day uniqueness of (fingerprint ID, calendar day) and return
// sentinel.ErrConflict when a second event for the same day is inserted;
// the ingestion engine additionally pre-checks so the common duplicate
// path never reaches the store.
type Store interface {
	Append(ctx context.Context, event Event) (Event, error)
	FindByPerson(ctx context.Context, fingerprintID string) ([]Event, error)
	FindAll(ctx context.Context) ([]Event, error)
}
