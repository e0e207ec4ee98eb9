package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// SetupDatabase opens a tuned connection pool, checks it and ensures the schema.
// The pool is returned to the caller rather than kept in a package global.
func SetupDatabase(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 20
	config.MinConns = 4
	config.MaxConnLifetime = 45 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name":                    "coinbot",
		"timezone":                            "UTC",
		"statement_timeout":                   "30s",
		"idle_in_transaction_session_timeout": "60s",
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	conn.Release()

	if err := CreateSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	log.Info().
		Int32("max_conns", config.MaxConns).
		Int32("min_conns", config.MinConns).
		Msg("database pool ready")
	return pool, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	user_id BIGINT PRIMARY KEY,
	username TEXT NOT NULL DEFAULT '',
	balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
	last_roll_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_accounts_balance ON accounts(balance DESC);

CREATE TABLE IF NOT EXISTS ledger_entries (
	id TEXT PRIMARY KEY,
	user_id BIGINT NOT NULL REFERENCES accounts(user_id),
	amount BIGINT NOT NULL,
	kind TEXT NOT NULL,
	ref TEXT NOT NULL DEFAULT '',
	balance_after BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_ledger_entries_user_id ON ledger_entries(user_id, created_at);

CREATE TABLE IF NOT EXISTS guild_config (
	guild_id BIGINT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (guild_id, key)
);
CREATE INDEX IF NOT EXISTS idx_guild_config_key ON guild_config(key);`

// CreateSchema creates the bot's tables if they do not exist
func CreateSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
