// Package store persists AIDevelopment records, source scheduling state,
// and run history behind a Store interface with two implementations: a
// pgx-backed Postgres store for production, and a modernc.org/sqlite
// in-memory store for unit tests that need a real SQL engine without a
// Postgres dependency.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a pooled Postgres connection and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: parsing database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("store: connecting to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("store: pinging database: %w", err)
	}

	return pool, nil
}
