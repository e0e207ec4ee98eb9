// Package coinflip has the single-step 50/50 games: calling a coin flip,
// for fun or for a bet, and gambling an amount against the guild's
// coin multiplier.
package coinflip

import (
	"context"
	"fmt"
	"strings"

	"coinbot/games"
	"coinbot/utils"
)

type Side string

const (
	Heads Side = "heads"
	Tails Side = "tails"
)

// ParseSide accepts heads/tails and their first letter
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "heads", "h":
		return Heads, nil
	case "tails", "t":
		return Tails, nil
	default:
		return "", fmt.Errorf("%w: %q", games.ErrInvalidChoice, s)
	}
}

// Result of a toss, a flip or a gamble; Settlement is nil for a toss
type Result struct {
	Called     Side
	Landed     Side
	Won        bool
	Bet        int64
	Settlement *games.Settlement
}

type Game struct {
	bank    games.Bank
	manager *games.Manager
	rng     utils.Rand
	minBet  int64
}

func New(bank games.Bank, manager *games.Manager, rng utils.Rand, minBet int64) *Game {
	return &Game{bank: bank, manager: manager, rng: rng, minBet: minBet}
}

// Toss calls the coin for fun; nothing is wagered
func (g *Game) Toss(called Side) (Result, error) {
	if called != Heads && called != Tails {
		return Result{}, fmt.Errorf("%w: %q", games.ErrInvalidChoice, called)
	}
	landed := g.toss()
	return Result{Called: called, Landed: landed, Won: landed == called}, nil
}

// Flip tosses the coin for bet, settled 1x like any other round
func (g *Game) Flip(ctx context.Context, accountID int64, called Side, bet int64) (Result, error) {
	if called != Heads && called != Tails {
		return Result{}, fmt.Errorf("%w: %q", games.ErrInvalidChoice, called)
	}

	round := games.NewRound(games.KindCoinflip, accountID, bet)
	s := &instantSession{Round: round}
	if err := games.Begin(ctx, g.manager, g.bank, s, round, g.minBet, 0); err != nil {
		return Result{}, err
	}

	landed := g.toss()
	outcome := games.OutcomeCoinflipLoss
	if landed == called {
		outcome = games.OutcomeCoinflipWin
	}

	settlement, err := g.settle(ctx, s, outcome)
	return Result{Called: called, Landed: landed, Won: outcome.IsWin(), Bet: bet, Settlement: settlement}, err
}

// Gamble wins floor(amount * multiplier) or loses floor(amount / 2)
func (g *Game) Gamble(ctx context.Context, accountID, amount int64, multiplier float64) (Result, error) {
	if amount <= 0 {
		return Result{}, fmt.Errorf("%w: amount must be positive", games.ErrInvalidBet)
	}

	round := games.NewRound(games.KindGamble, accountID, amount).WithMultiplier(multiplier)
	s := &instantSession{Round: round}
	if err := games.Begin(ctx, g.manager, g.bank, s, round, 1, 0); err != nil {
		return Result{}, err
	}

	outcome := games.OutcomeGambleLoss
	if g.rng.Intn(2) == 0 {
		outcome = games.OutcomeGambleWin
	}

	settlement, err := g.settle(ctx, s, outcome)
	return Result{Won: outcome.IsWin(), Bet: amount, Settlement: settlement}, err
}

// settle frees the account's session slot once the single step is applied
func (g *Game) settle(ctx context.Context, s *instantSession, outcome games.Outcome) (*games.Settlement, error) {
	defer g.manager.Remove(s.ID())

	settlement, err := s.Settle(ctx, g.bank, outcome)
	return &settlement, err
}

func (g *Game) toss() Side {
	if g.rng.Intn(2) == 0 {
		return Heads
	}
	return Tails
}

// instantSession settles inside the call that created it and is never abandoned
type instantSession struct {
	*games.Round
}

func (s *instantSession) Abandon() bool {
	return s.MarkAbandoned()
}
