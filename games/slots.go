package games

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SlotGuard extends the one-session-per-account rule to every bot process
// sharing the same store. Acquire reports false when another session
// already owns the account's slot.
type SlotGuard interface {
	Acquire(ctx context.Context, accountID int64, sessionID string, ttl time.Duration) (bool, error)
	Refresh(ctx context.Context, accountID int64, sessionID string, ttl time.Duration) error
	Release(ctx context.Context, accountID int64, sessionID string) error
}

const (
	keySessionSlot = "session:slot:%d"

	// slotTTL bounds a slot whose session never expires on its own; the
	// session's timeout is added to it otherwise
	slotTTL = time.Minute
)

// Only the owning session may extend or free a slot.
var (
	refreshSlot = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

	releaseSlot = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// RedisSlots keeps each account's slot under SETNX with a TTL
type RedisSlots struct {
	client *redis.Client
}

func NewRedisSlots(client *redis.Client) *RedisSlots {
	return &RedisSlots{client: client}
}

func (r *RedisSlots) Acquire(ctx context.Context, accountID int64, sessionID string, ttl time.Duration) (bool, error) {
	return r.client.SetNX(ctx, slotKey(accountID), sessionID, ttl).Result()
}

func (r *RedisSlots) Refresh(ctx context.Context, accountID int64, sessionID string, ttl time.Duration) error {
	return refreshSlot.Run(ctx, r.client, []string{slotKey(accountID)}, sessionID, ttl.Milliseconds()).Err()
}

func (r *RedisSlots) Release(ctx context.Context, accountID int64, sessionID string) error {
	return releaseSlot.Run(ctx, r.client, []string{slotKey(accountID)}, sessionID).Err()
}

func slotKey(accountID int64) string {
	return fmt.Sprintf(keySessionSlot, accountID)
}
