package db

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool builds the shared connection pool. Connections are created
// lazily, so this succeeds even while the database is down; callers ping
// separately (see Ping) instead of blocking startup on connectivity.
func NewPool(dbURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dbURL)

	if err != nil {
		return nil, err
	}

	cfg.MaxConns = 5

	return pgxpool.NewWithConfig(context.Background(), cfg)
}

// Ping verifies connectivity with a bounded wait.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return pool.Ping(pctx)
}
