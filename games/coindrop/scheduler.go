// Package coindrop posts claimable coin rewards to configured channels at
// random intervals. The first claim inside the window wins; otherwise the
// drop expires with no effect.
package coindrop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"coinbot/utils"
)

// Bank credits the winner
type Bank interface {
	Credit(ctx context.Context, userID, amount int64, ref string) (int64, error)
}

// ChannelSource lists drop channels by guild
type ChannelSource interface {
	DropChannels(ctx context.Context) (map[int64]string, error)
}

// Poster publishes drops and their final state
type Poster interface {
	PostDrop(ctx context.Context, d *Drop) (messageID string, err error)
	ResolveDrop(ctx context.Context, d *Drop, res Result) error
}

type Config struct {
	MinInterval time.Duration
	MaxInterval time.Duration
	Window      time.Duration
	MinReward   int64
	MaxReward   int64
}

type Scheduler struct {
	bank     Bank
	channels ChannelSource
	poster   Poster
	rng      utils.Rand
	cfg      Config

	mu    sync.Mutex
	drops map[string]*Drop
	wg    sync.WaitGroup
}

func NewScheduler(bank Bank, channels ChannelSource, poster Poster, rng utils.Rand, cfg Config) *Scheduler {
	return &Scheduler{
		bank:     bank,
		channels: channels,
		poster:   poster,
		rng:      rng,
		cfg:      cfg,
		drops:    make(map[string]*Drop),
	}
}

// Run drops coins at random intervals until ctx is cancelled, then waits
// for open drops to resolve.
func (s *Scheduler) Run(ctx context.Context) {
	defer s.wg.Wait()

	for {
		wait := s.nextInterval()
		log.Debug().Dur("wait", wait).Msg("next coin drop scheduled")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if err := s.DropAll(ctx); err != nil {
			log.Error().Err(err).Msg("coin drop round failed")
		}
	}
}

// DropAll posts one drop to every configured channel without waiting for them to resolve
func (s *Scheduler) DropAll(ctx context.Context) error {
	channels, err := s.channels.DropChannels(ctx)
	if err != nil {
		return fmt.Errorf("failed to load drop channels: %w", err)
	}

	for guildID, channelID := range channels {
		d := newDrop(guildID, channelID, utils.RandRange(s.rng, s.cfg.MinReward, s.cfg.MaxReward), s.cfg.Window)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runDrop(ctx, d)
		}()
	}
	return nil
}

func (s *Scheduler) runDrop(ctx context.Context, d *Drop) {
	s.mu.Lock()
	s.drops[d.ID] = d
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.drops, d.ID)
		s.mu.Unlock()
	}()

	messageID, err := s.poster.PostDrop(ctx, d)
	if err != nil {
		d.expire()
		log.Warn().Err(err).Int64("guild_id", d.GuildID).Str("channel_id", d.ChannelID).Msg("failed to post coin drop")
		utils.CoinDrops.WithLabelValues("failed").Inc()
		return
	}
	d.mu.Lock()
	d.MessageID = messageID
	d.mu.Unlock()

	timer := time.NewTimer(time.Until(d.ExpiresAt))
	defer timer.Stop()
	select {
	case <-d.Done():
	case <-timer.C:
	case <-ctx.Done():
	}

	if d.expire() {
		utils.CoinDrops.WithLabelValues("expired").Inc()
	}

	status, claimant := d.Status()
	res := Result{Status: status, Claimant: claimant}

	// ctx may already be cancelled at shutdown; the final edit still gets a short budget.
	resolveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.poster.ResolveDrop(resolveCtx, d, res); err != nil {
		log.Warn().Err(err).Str("drop_id", d.ID).Msg("failed to update coin drop message")
	}
}

// Claim awards the drop to userID if it is still open
func (s *Scheduler) Claim(ctx context.Context, dropID string, userID int64) (Result, error) {
	s.mu.Lock()
	d, ok := s.drops[dropID]
	s.mu.Unlock()
	if !ok {
		return Result{}, ErrDropNotFound
	}
	return s.claim(ctx, d, userID)
}

func (s *Scheduler) claim(ctx context.Context, d *Drop, userID int64) (Result, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch d.status {
	case StatusClaimed:
		return Result{Status: d.status, Claimant: d.claimant}, ErrAlreadyClaimed
	case StatusExpired:
		return Result{Status: d.status}, ErrDropExpired
	}
	if time.Now().After(d.ExpiresAt) {
		return Result{Status: StatusOpen}, ErrDropExpired
	}

	d.status = StatusClaimed
	d.claimant = userID
	close(d.done)
	utils.CoinDrops.WithLabelValues("claimed").Inc()

	balance, err := s.bank.Credit(ctx, userID, d.Reward, "coindrop:"+d.ID)
	if err != nil {
		log.Error().Err(err).Str("drop_id", d.ID).Int64("user_id", userID).Msg("failed to credit coin drop")
		return Result{Status: StatusClaimed, Claimant: userID}, fmt.Errorf("failed to credit coin drop: %w", err)
	}

	log.Info().Str("drop_id", d.ID).Int64("user_id", userID).Int64("reward", d.Reward).Msg("coin drop claimed")
	return Result{Status: StatusClaimed, Claimant: userID, Balance: balance}, nil
}

// Open returns the number of unresolved drops
func (s *Scheduler) Open() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drops)
}

// IsClaimRejection reports whether err means someone else got there first or time ran out
func IsClaimRejection(err error) bool {
	return errors.Is(err, ErrAlreadyClaimed) || errors.Is(err, ErrDropExpired) || errors.Is(err, ErrDropNotFound)
}

func (s *Scheduler) nextInterval() time.Duration {
	span := s.cfg.MaxInterval - s.cfg.MinInterval
	if span <= 0 {
		return s.cfg.MinInterval
	}
	// Minute granularity keeps the random span within int range.
	minutes := int64(span / time.Minute)
	if minutes <= 0 {
		return s.cfg.MinInterval + time.Duration(s.rng.Intn(int(span/time.Millisecond)+1))*time.Millisecond
	}
	return s.cfg.MinInterval + time.Duration(utils.RandRange(s.rng, 0, minutes))*time.Minute
}
