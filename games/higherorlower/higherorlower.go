// Package higherorlower shows a number from 1 to 10 and asks whether the
// next one will be higher or lower. The next number never equals the first,
// so every round is a win or a loss.
package higherorlower

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coinbot/games"
	"coinbot/utils"
)

type State int

const (
	StateAwaitingGuess State = iota
	StateRevealed
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateAwaitingGuess:
		return "awaiting_guess"
	case StateRevealed:
		return "revealed"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

type Guess string

const (
	Higher Guess = "higher"
	Lower  Guess = "lower"
)

type Session struct {
	*games.Round

	mu         sync.Mutex
	state      State
	base       int
	next       int
	guess      Guess
	settlement games.Settlement
}

func (s *Session) Abandon() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateAwaitingGuess || !s.MarkAbandoned() {
		return false
	}
	s.state = StateAbandoned
	return true
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID: s.ID(),
		AccountID: s.AccountID(),
		Bet:       s.Bet(),
		State:     s.state,
		Base:      s.base,
		Next:      s.next,
		Guess:     s.guess,
	}
	if s.state == StateRevealed {
		settlement := s.settlement
		snap.Settlement = &settlement
	}
	return snap
}

// Snapshot is the plain-data view of a round; Next is 0 until revealed
type Snapshot struct {
	SessionID  string
	AccountID  int64
	Bet        int64
	State      State
	Base       int
	Next       int
	Guess      Guess
	Settlement *games.Settlement
}

type Config struct {
	MinBet  int64
	Timeout time.Duration
}

type Game struct {
	bank    games.Bank
	manager *games.Manager
	rng     utils.Rand
	cfg     Config
}

func New(bank games.Bank, manager *games.Manager, rng utils.Rand, cfg Config) *Game {
	return &Game{bank: bank, manager: manager, rng: rng, cfg: cfg}
}

// Start holds the bet and draws the base number
func (g *Game) Start(ctx context.Context, accountID, bet int64) (Snapshot, error) {
	s := &Session{
		Round: games.NewRound(games.KindHigherLower, accountID, bet),
		state: StateAwaitingGuess,
		base:  g.draw(),
	}
	if err := games.Begin(ctx, g.manager, g.bank, s, s.Round, g.cfg.MinBet, g.cfg.Timeout); err != nil {
		return Snapshot{}, err
	}
	return s.Snapshot(), nil
}

// Submit reveals the next number and settles the round
func (g *Game) Submit(ctx context.Context, sessionID string, accountID int64, guess Guess) (Snapshot, error) {
	if guess != Higher && guess != Lower {
		return Snapshot{}, fmt.Errorf("%w: %q", games.ErrInvalidChoice, guess)
	}

	found, err := g.manager.Lookup(sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	s, ok := found.(*Session)
	if !ok {
		return Snapshot{}, games.ErrSessionNotFound
	}
	if s.AccountID() != accountID {
		return Snapshot{}, games.ErrNotYourSession
	}
	if err := g.manager.Touch(ctx, sessionID); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateAwaitingGuess:
	case StateAbandoned:
		return s.snapshotLocked(), games.ErrSessionTimeout
	default:
		return s.snapshotLocked(), games.ErrSessionNotFound
	}

	s.guess = guess
	s.next = g.drawExcept(s.base)

	outcome := games.OutcomeHigherLowerLoss
	if Wins(guess, s.base, s.next) {
		outcome = games.OutcomeHigherLowerWin
	}

	settlement, err := s.Settle(ctx, g.bank, outcome)
	s.settlement = settlement
	s.settlement.Outcome = outcome
	s.state = StateRevealed
	g.manager.Remove(s.ID())
	return s.snapshotLocked(), err
}

// Wins reports whether guess was right about next relative to base
func Wins(guess Guess, base, next int) bool {
	return (guess == Higher && next > base) || (guess == Lower && next < base)
}

func (g *Game) draw() int {
	return int(utils.RandRange(g.rng, utils.HigherLowerMin, utils.HigherLowerMax))
}

// drawExcept redraws until the number differs from base
func (g *Game) drawExcept(base int) int {
	for {
		if n := g.draw(); n != base {
			return n
		}
	}
}
