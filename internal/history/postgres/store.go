// Package postgres stores attempt history in PostgreSQL.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MrWong99/elocute/internal/history"
)

// Compile-time interface check.
var _ history.Store = (*Store)(nil)

const ddlAttempts = `
CREATE TABLE IF NOT EXISTS attempts (
    id           UUID         PRIMARY KEY,
    timestamp    TIMESTAMPTZ  NOT NULL DEFAULT now(),
    sentence     TEXT         NOT NULL,
    success      BOOLEAN      NOT NULL,
    score        INTEGER,
    corrections  INTEGER      NOT NULL DEFAULT 0,
    recording    TEXT         NOT NULL DEFAULT '',
    error        TEXT         NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_attempts_timestamp
    ON attempts (timestamp DESC);
`

// Migrate creates the attempts table if it does not exist. It is safe to call
// on every start.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, ddlAttempts); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

// Store is a [history.Store] backed by a pgx connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to dsn, verifies the connection and runs [Migrate].
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres history: parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres history: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres history: ping: %w", err)
	}
	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres history: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Append implements [history.Store].
func (s *Store) Append(ctx context.Context, r history.Record) error {
	const q = `
		INSERT INTO attempts
		    (id, timestamp, sentence, success, score, corrections, recording, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, q,
		r.ID,
		r.Timestamp,
		r.Sentence,
		r.Success,
		r.Score,
		r.Corrections,
		r.Recording,
		r.Error,
	)
	if err != nil {
		return fmt.Errorf("postgres history: append: %w", err)
	}
	return nil
}

// Recent implements [history.Store].
func (s *Store) Recent(ctx context.Context, limit int) ([]history.Record, error) {
	if limit <= 0 {
		limit = history.DefaultLimit
	}
	const q = `
		SELECT id::text, timestamp, sentence, success, score, corrections, recording, error
		FROM   attempts
		ORDER  BY timestamp DESC
		LIMIT  $1`

	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres history: recent: %w", err)
	}
	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (history.Record, error) {
		var r history.Record
		err := row.Scan(&r.ID, &r.Timestamp, &r.Sentence, &r.Success, &r.Score, &r.Corrections, &r.Recording, &r.Error)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("postgres history: scan: %w", err)
	}
	return records, nil
}

// Ping implements [history.Store].
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close implements [history.Store].
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
