package directory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rollcall/pkg/sentinel"
)

// PostgresStore persists enrolled persons in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, person Person) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO persons (fingerprint_id, first_name, last_name, email, cohort, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, person.FingerprintID, person.FirstName, person.LastName, person.Email, person.Cohort, person.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save person: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByFingerprint(ctx context.Context, fingerprintID string) (Person, error) {
	var person Person
	err := s.db.QueryRowContext(ctx, `
		SELECT fingerprint_id, first_name, last_name, email, cohort, created_at
		FROM persons
		WHERE fingerprint_id = $1
	`, fingerprintID).Scan(
		&person.FingerprintID,
		&person.FirstName,
		&person.LastName,
		&person.Email,
		&person.Cohort,
		&person.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Person{}, sentinel.ErrNotFound
		}
		return Person{}, fmt.Errorf("find person by fingerprint: %w", err)
	}
	return person, nil
}

func (s *PostgresStore) ListByCohort(ctx context.Context, cohort string) ([]Person, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint_id, first_name, last_name, email, cohort, created_at
		FROM persons
		WHERE cohort = $1
	`, cohort)
	if err != nil {
		return nil, fmt.Errorf("list persons by cohort: %w", err)
	}
	defer rows.Close()

	var out []Person
	for rows.Next() {
		var person Person
		if err := rows.Scan(
			&person.FingerprintID,
			&person.FirstName,
			&person.LastName,
			&person.Email,
			&person.Cohort,
			&person.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		out = append(out, person)
	}
	return out, rows.Err()
}
