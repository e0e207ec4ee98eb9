// Package guildcfg stores per-guild key/value settings such as the coin
// drop channel and the gamble multiplier.
package guildcfg

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"coinbot/models"
)

var ErrNotFound = errors.New("guild setting not found")

type Store interface {
	Get(ctx context.Context, guildID int64, key string) (string, error)
	Set(ctx context.Context, guildID int64, key, value string) error
	Delete(ctx context.Context, guildID int64, key string) error
	// ListByKey returns every guild that has key set
	ListByKey(ctx context.Context, key string) ([]models.GuildSetting, error)
}

// Settings adds typed accessors on top of a Store
type Settings struct {
	store Store
}

func NewSettings(store Store) *Settings {
	return &Settings{store: store}
}

// DropChannel returns the configured drop channel or "" when unset
func (s *Settings) DropChannel(ctx context.Context, guildID int64) (string, error) {
	v, err := s.store.Get(ctx, guildID, models.GuildKeyDropChannel)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return v, err
}

// SetDropChannel stores channelID, or clears the setting when it is empty
func (s *Settings) SetDropChannel(ctx context.Context, guildID int64, channelID string) error {
	if channelID == "" {
		return s.store.Delete(ctx, guildID, models.GuildKeyDropChannel)
	}
	return s.store.Set(ctx, guildID, models.GuildKeyDropChannel, channelID)
}

// DropChannels maps guild id to drop channel for every configured guild
func (s *Settings) DropChannels(ctx context.Context) (map[int64]string, error) {
	settings, err := s.store.ListByKey(ctx, models.GuildKeyDropChannel)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]string, len(settings))
	for _, setting := range settings {
		out[setting.GuildID] = setting.Value
	}
	return out, nil
}

// CoinMultiplier defaults to 1 when unset or unparsable
func (s *Settings) CoinMultiplier(ctx context.Context, guildID int64) (float64, error) {
	v, err := s.store.Get(ctx, guildID, models.GuildKeyCoinMultiplier)
	if errors.Is(err, ErrNotFound) {
		return 1, nil
	}
	if err != nil {
		return 1, err
	}
	m, err := strconv.ParseFloat(v, 64)
	if err != nil || m <= 0 {
		return 1, nil
	}
	return m, nil
}

func (s *Settings) SetCoinMultiplier(ctx context.Context, guildID int64, multiplier float64) error {
	if multiplier <= 0 {
		return fmt.Errorf("multiplier must be positive, got %v", multiplier)
	}
	return s.store.Set(ctx, guildID, models.GuildKeyCoinMultiplier, strconv.FormatFloat(multiplier, 'f', -1, 64))
}
