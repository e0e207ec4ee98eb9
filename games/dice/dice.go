// Package dice pays a random reward once per cooldown
package dice

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"coinbot/utils"
)

// TimedBank credits a timed reward at most once per cooldown
type TimedBank interface {
	ClaimTimed(ctx context.Context, userID, amount int64, now time.Time, cooldown time.Duration, ref string) (int64, error)
}

type Config struct {
	Cooldown  time.Duration
	MinReward int64
	MaxReward int64
}

type Result struct {
	Amount  int64
	Balance int64
}

type Game struct {
	bank TimedBank
	rng  utils.Rand
	cfg  Config

	// Now is replaced in tests
	Now func() time.Time
}

func New(bank TimedBank, rng utils.Rand, cfg Config) *Game {
	return &Game{bank: bank, rng: rng, cfg: cfg, Now: time.Now}
}

// Roll draws a reward and credits it, registering the account on first use.
// Inside the cooldown it fails with *ledger.CooldownError.
func (g *Game) Roll(ctx context.Context, accountID int64) (Result, error) {
	amount := utils.RandRange(g.rng, g.cfg.MinReward, g.cfg.MaxReward)
	now := g.Now()

	balance, err := g.bank.ClaimTimed(ctx, accountID, amount, now, g.cfg.Cooldown, fmt.Sprintf("roll:%d", now.Unix()))
	if err != nil {
		return Result{}, err
	}

	log.Info().Int64("user_id", accountID).Int64("amount", amount).Msg("dice roll claimed")
	return Result{Amount: amount, Balance: balance}, nil
}
