// Package db implements the persistence interface (§6) against PostgreSQL
// via pgx/v5: Store wraps a pool and exposes account/character/skill/spell
// operations directly, while internal/authserver and internal/worldserver
// each declare their own narrow repository interface satisfied by *Store.
package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store wraps a pgx connection pool and implements the persistence
// interface's account, character, skill, and spell operations.
type Store struct {
	pool *pgxpool.Pool
}

// New connects to PostgreSQL and returns a Store.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Pool returns the underlying pgx pool, for goose migrations and tests.
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// isNoRows reports whether err is pgx's "no rows" sentinel. Every
// persistence-interface lookup treats this as a nil, nil result rather than
// an error (§6: *_by_* lookups return an optional value).
func isNoRows(err error) bool {
	return err != nil && err.Error() == "no rows in result set"
}
