package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aidanHorne978/Automated-Cypress-Testing/internal/model"
)

// PostgresStore persists generation records in Postgres. Test cases are
// stored as a JSONB blob: they are only ever read back whole.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS generations (
		id BIGINT PRIMARY KEY,
		url TEXT NOT NULL,
		user_description TEXT,
		summary TEXT NOT NULL DEFAULT '',
		tests JSONB NOT NULL DEFAULT '[]',
		has_error BOOLEAN NOT NULL DEFAULT FALSE,
		model TEXT NOT NULL DEFAULT '',
		duration_ms BIGINT NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS generations_created_at_idx
		ON generations (created_at DESC)`,
}

// EnsureSchema creates the generations table when it does not exist yet.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, rec *model.GenerationRecord) error {
	tests, err := json.Marshal(rec.Tests)
	if err != nil {
		return fmt.Errorf("marshaling tests: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO generations
			(id, url, user_description, summary, tests, has_error, model, duration_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.URL, rec.UserDescription, rec.Summary, tests,
		rec.Error, rec.Model, rec.DurationMs, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting generation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (*model.GenerationRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, url, user_description, summary, tests, has_error, model, duration_ms, created_at
		FROM generations WHERE id = $1`, id)

	rec, err := scanGeneration(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("fetching generation: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int32) ([]model.GenerationRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, url, user_description, summary, tests, has_error, model, duration_ms, created_at
		FROM generations ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing generations: %w", err)
	}
	defer rows.Close()

	var records []model.GenerationRecord
	for rows.Next() {
		rec, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning generation: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func scanGeneration(row pgx.Row) (*model.GenerationRecord, error) {
	var rec model.GenerationRecord
	var tests []byte

	err := row.Scan(&rec.ID, &rec.URL, &rec.UserDescription, &rec.Summary,
		&tests, &rec.Error, &rec.Model, &rec.DurationMs, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	rec.Tests = []model.TestCase{}
	if len(tests) > 0 {
		if err := json.Unmarshal(tests, &rec.Tests); err != nil {
			return nil, fmt.Errorf("unmarshaling tests: %w", err)
		}
	}
	return &rec, nil
}
