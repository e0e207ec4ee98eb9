package games

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"coinbot/ledger"
	"coinbot/utils"
)

// Kind names a game type
type Kind string

const (
	KindBlackjack   Kind = "blackjack"
	KindHigherLower Kind = "higher_or_lower"
	KindCoinflip    Kind = "coinflip"
	KindGamble      Kind = "gamble"
)

// Bank is the slice of the ledger a round settles against
type Bank interface {
	GetBalance(ctx context.Context, userID int64) (int64, error)
	Hold(ctx context.Context, userID, amount int64) (release func(), err error)
	Credit(ctx context.Context, userID, amount int64, ref string) (int64, error)
	DebitUpTo(ctx context.Context, userID, amount int64, ref string) (debited, balance int64, err error)
}

// Settlement is what one settled round did to the ledger
type Settlement struct {
	Outcome Outcome
	Delta   int64
	Balance int64
}

// Round carries what every wagered game shares and applies the payout exactly once
type Round struct {
	id         string
	accountID  int64
	bet        int64
	kind       Kind
	multiplier float64
	createdAt  time.Time

	mu         sync.Mutex
	release    func()
	settlement *Settlement
	abandoned  bool
}

func NewRound(kind Kind, accountID, bet int64) *Round {
	return &Round{
		id:         utils.NewID(),
		accountID:  accountID,
		bet:        bet,
		kind:       kind,
		multiplier: 1,
		createdAt:  time.Now(),
	}
}

// WithMultiplier scales gamble wins
func (r *Round) WithMultiplier(m float64) *Round {
	r.multiplier = m
	return r
}

func (r *Round) ID() string           { return r.id }
func (r *Round) AccountID() int64     { return r.accountID }
func (r *Round) Bet() int64           { return r.bet }
func (r *Round) Kind() Kind           { return r.kind }
func (r *Round) CreatedAt() time.Time { return r.createdAt }

// Settled returns the applied settlement, if any
func (r *Round) Settled() (Settlement, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settlement == nil {
		return Settlement{}, false
	}
	return *r.settlement, true
}

// MarkAbandoned ends the round without touching the ledger. It reports
// false when the round was already settled or abandoned.
func (r *Round) MarkAbandoned() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.settlement != nil || r.abandoned {
		return false
	}
	r.abandoned = true
	r.releaseLocked()
	utils.GamesAbandoned.WithLabelValues(string(r.kind)).Inc()
	return true
}

// Settle applies the payout for o. A second call returns the first
// settlement together with ErrSettlementAlreadyApplied and moves no coins.
// A storage failure still marks the round settled so it is never retried.
func (r *Round) Settle(ctx context.Context, bank Bank, o Outcome) (Settlement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.settlement != nil {
		log.Error().
			Str("session_id", r.id).
			Str("outcome", o.String()).
			Msg("duplicate settlement ignored")
		return *r.settlement, ErrSettlementAlreadyApplied
	}
	if r.abandoned {
		return Settlement{}, ErrSessionTimeout
	}
	defer r.releaseLocked()

	delta, err := Delta(o, r.bet, r.multiplier)
	if err != nil {
		return Settlement{}, err
	}

	s := Settlement{Outcome: o}
	r.settlement = &s
	ref := fmt.Sprintf("%s:%s", r.kind, r.id)

	switch {
	case delta > 0:
		s.Balance, err = bank.Credit(ctx, r.accountID, delta, ref)
		s.Delta = delta
	case delta < 0:
		var debited int64
		debited, s.Balance, err = bank.DebitUpTo(ctx, r.accountID, -delta, ref)
		s.Delta = -debited
	default:
		s.Balance, err = bank.GetBalance(ctx, r.accountID)
	}
	if err != nil {
		s.Delta = 0
		log.Error().Err(err).
			Str("session_id", r.id).
			Int64("user_id", r.accountID).
			Str("outcome", o.String()).
			Msg("settlement failed")
		return s, fmt.Errorf("failed to settle %s: %w", r.kind, err)
	}

	utils.GamesSettled.WithLabelValues(string(r.kind), o.String()).Inc()
	log.Info().
		Str("session_id", r.id).
		Int64("user_id", r.accountID).
		Str("game", string(r.kind)).
		Str("outcome", o.String()).
		Int64("delta", s.Delta).
		Msg("round settled")
	return s, nil
}

// Begin holds the round's bet and claims the account's session slot for s.
// The hold keeps the stake from leaving the account until the round is
// settled or abandoned.
func Begin(ctx context.Context, m *Manager, bank Bank, s Session, r *Round, minBet int64, timeout time.Duration) error {
	if r.bet <= 0 || r.bet < minBet {
		return fmt.Errorf("%w: the minimum bet is %d", ErrInvalidBet, minBet)
	}
	release, err := bank.Hold(ctx, r.accountID, r.bet)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.release = release
	r.mu.Unlock()

	if err := m.Register(ctx, s, timeout); err != nil {
		r.mu.Lock()
		r.releaseLocked()
		r.mu.Unlock()
		return err
	}
	return nil
}

// releaseLocked must be called with r.mu held
func (r *Round) releaseLocked() {
	if r.release != nil {
		r.release()
		r.release = nil
	}
}

// IsUserError reports whether err is a gameplay rejection rather than a fault
func IsUserError(err error) bool {
	var insufficient *ledger.InsufficientFundsError
	var cooldown *ledger.CooldownError
	return errors.Is(err, ErrInvalidBet) ||
		errors.Is(err, ErrInvalidChoice) ||
		errors.Is(err, ErrSessionAlreadyActive) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrSessionTimeout) ||
		errors.Is(err, ErrNotYourSession) ||
		errors.Is(err, ledger.ErrInvalidAmount) ||
		errors.Is(err, ledger.ErrSelfTransfer) ||
		errors.Is(err, ledger.ErrFundsHeld) ||
		errors.As(err, &insufficient) ||
		errors.As(err, &cooldown)
}
