package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rollcall/pkg/sentinel"
)

// PostgresStore persists attendance events in PostgreSQL. The
// attendance_once_per_day_idx unique index is the authoritative guard for
// the once-per-day invariant; violations surface as sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, event Event) (Event, error) {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO attendance_events (fingerprint_id, person_name, status, recorded_at, time_of_day)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING attendance_id
	`, event.FingerprintID, event.PersonName, event.Status, event.RecordedAt, event.TimeOfDay).Scan(&event.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return Event{}, sentinel.ErrConflict
		}
		return Event{}, fmt.Errorf("append attendance event: %w", err)
	}
	return event, nil
}

func (s *PostgresStore) FindByPerson(ctx context.Context, fingerprintID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT attendance_id, fingerprint_id, person_name, status, recorded_at, time_of_day
		FROM attendance_events
		WHERE fingerprint_id = $1
	`, fingerprintID)
	if err != nil {
		return nil, fmt.Errorf("find attendance by person: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *PostgresStore) FindAll(ctx context.Context) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT attendance_id, fingerprint_id, person_name, status, recorded_at, time_of_day
		FROM attendance_events
	`)
	if err != nil {
		return nil, fmt.Errorf("find all attendance: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var out []Event
	for rows.Next() {
		var event Event
		if err := rows.Scan(
			&event.ID,
			&event.FingerprintID,
			&event.PersonName,
			&event.Status,
			&event.RecordedAt,
			&event.TimeOfDay,
		); err != nil {
			return nil, fmt.Errorf("scan attendance event: %w", err)
		}
		out = append(out, event)
	}
	return out, rows.Err()
}
