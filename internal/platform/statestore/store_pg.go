package statestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore persists envelopes in a single Postgres table, for deployments
// that want the quality aggregate to survive process restarts.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a Postgres-backed store and ensures its table exists.
func NewPGStore(ctx context.Context, pool *pgxpool.Pool) (*PGStore, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS clinref_state (
			key        TEXT PRIMARY KEY,
			version    TEXT NOT NULL,
			stored_at  TIMESTAMPTZ NOT NULL,
			data       JSONB NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("statestore: ensure table: %w", err)
	}
	return &PGStore{pool: pool}, nil
}

func (s *PGStore) Get(ctx context.Context, key string) (*Envelope, error) {
	var env Envelope
	err := s.pool.QueryRow(ctx,
		`SELECT version, stored_at, data FROM clinref_state WHERE key = $1`, key).
		Scan(&env.Version, &env.StoredAt, &env.Data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("statestore: get %s: %w", key, err)
	}
	return &env, nil
}

func (s *PGStore) Put(ctx context.Context, key string, env Envelope) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO clinref_state (key, version, stored_at, data)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE
		SET version = EXCLUDED.version,
		    stored_at = EXCLUDED.stored_at,
		    data = EXCLUDED.data`,
		key, env.Version, env.StoredAt, env.Data)
	if err != nil {
		return fmt.Errorf("statestore: put %s: %w", key, err)
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM clinref_state WHERE key = $1`, key); err != nil {
		return fmt.Errorf("statestore: delete %s: %w", key, err)
	}
	return nil
}
