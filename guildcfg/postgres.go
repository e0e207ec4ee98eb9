package guildcfg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coinbot/models"
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, guildID int64, key string) (string, error) {
	var value string
	err := s.db.QueryRow(ctx, `SELECT value FROM guild_config WHERE guild_id = $1 AND key = $2`, guildID, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to get guild setting %s: %w", key, err)
	}
	return value, nil
}

func (s *PostgresStore) Set(ctx context.Context, guildID int64, key, value string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO guild_config (guild_id, key, value) VALUES ($1, $2, $3)
		ON CONFLICT (guild_id, key) DO UPDATE SET value = EXCLUDED.value`, guildID, key, value)
	if err != nil {
		return fmt.Errorf("failed to set guild setting %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, guildID int64, key string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM guild_config WHERE guild_id = $1 AND key = $2`, guildID, key); err != nil {
		return fmt.Errorf("failed to delete guild setting %s: %w", key, err)
	}
	return nil
}

func (s *PostgresStore) ListByKey(ctx context.Context, key string) ([]models.GuildSetting, error) {
	rows, err := s.db.Query(ctx, `SELECT guild_id, key, value FROM guild_config WHERE key = $1 ORDER BY guild_id`, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list guild settings %s: %w", key, err)
	}
	defer rows.Close()

	out := make([]models.GuildSetting, 0)
	for rows.Next() {
		var g models.GuildSetting
		if err := rows.Scan(&g.GuildID, &g.Key, &g.Value); err != nil {
			return nil, fmt.Errorf("failed to scan guild setting: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}
