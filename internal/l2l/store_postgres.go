package l2l

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"caseflow/pkg/sentinel"
)

// PostgresStore persists processes in Postgres; the twelve week slots are
// a text array column so the row stays one-per-process.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the processes table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS l2l_processes (
			id          TEXT PRIMARY KEY,
			client_name TEXT NOT NULL,
			phone       TEXT NOT NULL DEFAULT '',
			lead_source TEXT NOT NULL DEFAULT '',
			weeks       TEXT[] NOT NULL,
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)
	`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("ensure l2l schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, process Process) error {
	query := `
		INSERT INTO l2l_processes (id, client_name, phone, lead_source, weeks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		process.ID,
		process.ClientName,
		process.Phone,
		process.LeadSource,
		pq.Array(weeksToStrings(process.Weeks)),
		process.CreatedAt,
		process.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert process: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Process, error) {
	query := `
		SELECT id, client_name, phone, lead_source, weeks, created_at, updated_at
		FROM l2l_processes WHERE id = $1
	`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresStore) Update(ctx context.Context, process Process) error {
	query := `
		UPDATE l2l_processes
		SET client_name = $2, phone = $3, lead_source = $4, weeks = $5, updated_at = $6
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		process.ID,
		process.ClientName,
		process.Phone,
		process.LeadSource,
		pq.Array(weeksToStrings(process.Weeks)),
		process.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update process: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update process: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Process, error) {
	query := `
		SELECT id, client_name, phone, lead_source, weeks, created_at, updated_at
		FROM l2l_processes ORDER BY created_at, id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	defer rows.Close()

	var out []Process
	for rows.Next() {
		process, err := s.scanOne(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, process)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *PostgresStore) scanOne(row rowScanner) (Process, error) {
	var process Process
	var weeks []string
	err := row.Scan(
		&process.ID,
		&process.ClientName,
		&process.Phone,
		&process.LeadSource,
		pq.Array(&weeks),
		&process.CreatedAt,
		&process.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Process{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Process{}, fmt.Errorf("scan process: %w", err)
	}
	for i := 0; i < WeeksPerProcess && i < len(weeks); i++ {
		process.Weeks[i] = WeekStatus(weeks[i])
	}
	return process, nil
}

func weeksToStrings(weeks [WeeksPerProcess]WeekStatus) []string {
	out := make([]string, WeeksPerProcess)
	for i, w := range weeks {
		out[i] = string(w)
	}
	return out
}
