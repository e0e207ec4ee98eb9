package guildcfg

import (
	"context"
	"sort"
	"sync"

	"coinbot/models"
)

type memoryKey struct {
	guildID int64
	key     string
}

type MemoryStore struct {
	mu   sync.RWMutex
	data map[memoryKey]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[memoryKey]string)}
}

func (m *MemoryStore) Get(ctx context.Context, guildID int64, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[memoryKey{guildID, key}]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Set(ctx context.Context, guildID int64, key, value string) error {
	m.mu.Lock()
	m.data[memoryKey{guildID, key}] = value
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, guildID int64, key string) error {
	m.mu.Lock()
	delete(m.data, memoryKey{guildID, key})
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) ListByKey(ctx context.Context, key string) ([]models.GuildSetting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.GuildSetting, 0)
	for k, v := range m.data {
		if k.key == key {
			out = append(out, models.GuildSetting{GuildID: k.guildID, Key: k.key, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GuildID < out[j].GuildID })
	return out, nil
}
