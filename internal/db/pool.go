package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens a small pool sized for the journal writer and verifies it
// with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	cfg.MaxConns = 8
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 10 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// Migrate creates the journal table when it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS ledger_journal (
	id          BIGSERIAL PRIMARY KEY,
	player_id   TEXT        NOT NULL,
	action      TEXT        NOT NULL,
	ticker      TEXT        NOT NULL DEFAULT '',
	shares      BIGINT      NOT NULL DEFAULT 0,
	amount      NUMERIC     NOT NULL,
	recorded_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS ledger_journal_player_idx ON ledger_journal (player_id, recorded_at);
`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("migrate journal: %w", err)
	}
	return nil
}
