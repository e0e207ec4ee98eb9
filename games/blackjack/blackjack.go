// Package blackjack runs single-deck blackjack rounds: the player is dealt
// two cards, the dealer one face up and one face down, and the dealer draws
// to 17 once the player stands.
package blackjack

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
	StateDealing State = iota
	StatePlayerTurn
	StateDealerTurn
	StateSettled
	StateAbandoned
)

func (s State) String() string {
	switch s {
	case StateDealing:
		return "dealing"
	case StatePlayerTurn:
		return "player_turn"
	case StateDealerTurn:
		return "dealer_turn"
	case StateSettled:
		return "settled"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// Choice is a player action during their turn
type Choice string

const (
	Hit   Choice = "hit"
	Stand Choice = "stand"
)

// Session is one blackjack round
type Session struct {
	*games.Round

	mu         sync.Mutex
	state      State
	deck       *utils.Deck
	player     *utils.Hand
	dealer     *utils.Hand
	settlement games.Settlement
}

// Abandon drops the round without charging the bet
func (s *Session) Abandon() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateSettled || s.state == StateAbandoned {
		return false
	}
	if !s.MarkAbandoned() {
		return false
	}
	s.state = StateAbandoned
	return true
}

// Snapshot returns a copy of the round for rendering
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:   s.ID(),
		AccountID:   s.AccountID(),
		Bet:         s.Bet(),
		State:       s.state,
		Player:      append([]utils.Card(nil), s.player.Cards...),
		Dealer:      append([]utils.Card(nil), s.dealer.Cards...),
		PlayerScore: s.player.Score(),
		DealerScore: s.dealer.Score(),
	}
	if s.state == StateSettled {
		settlement := s.settlement
		snap.Settlement = &settlement
	}
	return snap
}

// Snapshot is the plain-data view of a round
type Snapshot struct {
	SessionID   string
	AccountID   int64
	Bet         int64
	State       State
	Player      []utils.Card
	Dealer      []utils.Card
	PlayerScore int
	DealerScore int
	Settlement  *games.Settlement
}

// Finished reports whether the round reached Settled
func (s Snapshot) Finished() bool {
	return s.State == StateSettled
}

type Config struct {
	MinBet  int64
	Timeout time.Duration
}

// Game starts rounds and routes player choices to them
type Game struct {
	bank    games.Bank
	manager *games.Manager
	rng     utils.Rand
	cfg     Config

	// NewDeck is swapped in tests to stack the deck
	NewDeck func() *utils.Deck
}

func New(bank games.Bank, manager *games.Manager, rng utils.Rand, cfg Config) *Game {
	g := &Game{
		bank:    bank,
		manager: manager,
		rng:     rng,
		cfg:     cfg,
	}
	g.NewDeck = func() *utils.Deck { return utils.NewDeck(g.rng) }
	return g
}

// Start holds the bet, deals and settles immediately on a natural
func (g *Game) Start(ctx context.Context, accountID, bet int64) (Snapshot, error) {
	s := &Session{
		Round:  games.NewRound(games.KindBlackjack, accountID, bet),
		state:  StateDealing,
		deck:   g.NewDeck(),
		player: utils.NewHand(),
		dealer: utils.NewHand(),
	}
	if err := games.Begin(ctx, g.manager, g.bank, s, s.Round, g.cfg.MinBet, g.cfg.Timeout); err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.deal(); err != nil {
		s.state = StateAbandoned
		s.MarkAbandoned()
		g.manager.Remove(s.ID())
		return Snapshot{}, err
	}
	s.state = StatePlayerTurn

	if s.player.IsNatural() {
		err := g.settle(ctx, s, games.OutcomeBlackjack)
		return s.snapshotLocked(), err
	}
	return s.snapshotLocked(), nil
}

// Submit applies a player choice; it is the only mutator of a live round
func (g *Game) Submit(ctx context.Context, sessionID string, accountID int64, choice Choice) (Snapshot, error) {
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
	case StatePlayerTurn:
	case StateAbandoned:
		return s.snapshotLocked(), games.ErrSessionTimeout
	default:
		return s.snapshotLocked(), games.ErrSessionNotFound
	}

	switch choice {
	case Hit:
		err = g.hit(ctx, s)
	case Stand:
		err = g.stand(ctx, s)
	default:
		return s.snapshotLocked(), fmt.Errorf("%w: %q", games.ErrInvalidChoice, choice)
	}
	return s.snapshotLocked(), err
}

func (s *Session) deal() error {
	for i := 0; i < 2; i++ {
		card, err := s.deck.Draw()
		if err != nil {
			return err
		}
		s.player.AddCard(card)
	}
	for i := 0; i < 2; i++ {
		card, err := s.deck.Draw()
		if err != nil {
			return err
		}
		card.Hidden = i == 1
		s.dealer.AddCard(card)
	}
	return nil
}

func (g *Game) hit(ctx context.Context, s *Session) error {
	card, err := s.deck.Draw()
	if err != nil {
		return err
	}
	s.player.AddCard(card)

	switch {
	case s.player.IsBust():
		return g.settle(ctx, s, games.OutcomeBust)
	case s.player.Score() == utils.BlackjackValue:
		return g.settle(ctx, s, games.OutcomeBlackjack)
	}
	return nil
}

func (g *Game) stand(ctx context.Context, s *Session) error {
	s.dealer.Reveal()
	s.state = StateDealerTurn

	for s.dealer.Score() < utils.DealerStandValue {
		card, err := s.deck.Draw()
		if err != nil {
			return err
		}
		s.dealer.AddCard(card)
	}

	return g.settle(ctx, s, Resolve(s.player.Score(), s.dealer.Score()))
}

// Resolve compares final totals once the dealer has finished drawing
func Resolve(player, dealer int) games.Outcome {
	switch {
	case dealer > utils.BlackjackValue:
		return games.OutcomeDealerBust
	case dealer == utils.BlackjackValue:
		return games.OutcomeDealerBlackjack
	case dealer == player:
		return games.OutcomePush
	case dealer > player:
		return games.OutcomeDealerWin
	default:
		return games.OutcomePlayerWin
	}
}

// settle must be called with s.mu held
func (g *Game) settle(ctx context.Context, s *Session, outcome games.Outcome) error {
	s.dealer.Reveal()
	settlement, err := s.Settle(ctx, g.bank, outcome)
	s.settlement = settlement
	s.settlement.Outcome = outcome
	s.state = StateSettled
	g.manager.Remove(s.ID())
	return err
}
