package coindrop

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrDropNotFound   = errors.New("coin drop not found")
	ErrAlreadyClaimed = errors.New("coin drop already claimed")
	ErrDropExpired    = errors.New("coin drop expired")
)

type Status int

const (
	StatusOpen Status = iota
	StatusClaimed
	StatusExpired
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusClaimed:
		return "claimed"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Drop is one claimable reward posted to a channel
type Drop struct {
	ID        string
	GuildID   int64
	ChannelID string
	MessageID string
	Reward    int64
	PostedAt  time.Time
	ExpiresAt time.Time

	mu       sync.Mutex
	status   Status
	claimant int64
	done     chan struct{}
}

func newDrop(guildID int64, channelID string, reward int64, window time.Duration) *Drop {
	now := time.Now()
	return &Drop{
		ID:        uuid.NewString(),
		GuildID:   guildID,
		ChannelID: channelID,
		Reward:    reward,
		PostedAt:  now,
		ExpiresAt: now.Add(window),
		done:      make(chan struct{}),
	}
}

// Result is the final state of a drop
type Result struct {
	Status   Status
	Claimant int64
	Balance  int64
}

func (d *Drop) Status() (Status, int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status, d.claimant
}

// Done is closed once the drop is claimed or expired
func (d *Drop) Done() <-chan struct{} {
	return d.done
}

// expire closes an unclaimed drop; false if it was already resolved
func (d *Drop) expire() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status != StatusOpen {
		return false
	}
	d.status = StatusExpired
	close(d.done)
	return true
}
