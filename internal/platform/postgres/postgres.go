// Package postgres owns the database handle and schema for the service.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	return db, nil
}

// schema is applied idempotently at startup and by integration tests.
//
// The unique index on (fingerprint_id, calendar day) enforces the
// once-per-day attendance invariant at the storage level, so two
// overlapping ingestions cannot both insert for the same day.
const schema = `
CREATE TABLE IF NOT EXISTS persons (
    fingerprint_id TEXT PRIMARY KEY,
    first_name     TEXT NOT NULL,
    last_name      TEXT NOT NULL,
    email          TEXT NOT NULL,
    cohort         TEXT NOT NULL,
    created_at     TIMESTAMP NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS persons_cohort_idx ON persons (cohort);

CREATE TABLE IF NOT EXISTS attendance_events (
    attendance_id  BIGSERIAL PRIMARY KEY,
    fingerprint_id TEXT NOT NULL,
    person_name    TEXT NOT NULL,
    status         TEXT NOT NULL DEFAULT 'Present',
    recorded_at    TIMESTAMP NOT NULL,
    time_of_day    TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS attendance_once_per_day_idx
    ON attendance_events (fingerprint_id, ((recorded_at)::date));

CREATE INDEX IF NOT EXISTS attendance_person_idx
    ON attendance_events (fingerprint_id);
`

// Migrate applies the schema. Safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
