package blackjack

import (
	"context"
	"errors"
	"testing"
	"time"

	"coinbot/games"
	"coinbot/ledger"
	"coinbot/utils"
)

const player int64 = 42

func setup(t *testing.T, balance int64, timeout time.Duration, cards ...utils.Card) (*Game, *ledger.Ledger, *games.Manager) {
	t.Helper()
	l := ledger.New(ledger.NewMemoryStore(), nil)
	if balance > 0 {
		if _, err := l.Credit(context.Background(), player, balance, "seed"); err != nil {
			t.Fatalf("seed credit: %v", err)
		}
	}
	m := games.NewManager()
	t.Cleanup(m.Close)

	g := New(l, m, utils.NewSeededRand(1), Config{MinBet: 10, Timeout: timeout})
	if len(cards) > 0 {
		g.NewDeck = func() *utils.Deck { return utils.NewStackedDeck(cards...) }
	}
	return g, l, m
}

func c(rank utils.Rank) utils.Card {
	return utils.NewCard(rank, utils.Spades)
}

func balance(t *testing.T, l *ledger.Ledger) int64 {
	t.Helper()
	bal, err := l.GetBalance(context.Background(), player)
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	return bal
}

func TestNaturalPaysImmediately(t *testing.T) {
	g, l, m := setup(t, 100, time.Minute, c(utils.Ace), c(utils.King), c(9), c(7))

	snap, err := g.Start(context.Background(), player, 50)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if snap.State != StateSettled || snap.Settlement == nil || snap.Settlement.Outcome != games.OutcomeBlackjack {
		t.Fatalf("Expected settled blackjack, got %+v", snap)
	}
	if got := balance(t, l); got != 150 {
		t.Errorf("Expected balance 150, got %d", got)
	}
	if active := m.Stats()["total"]; active != 0 {
		t.Errorf("Expected the account to be free after settlement, %d active", active)
	}
	for _, card := range snap.Dealer {
		if card.Hidden {
			t.Error("Expected dealer hand to be revealed at settlement")
		}
	}
}

func TestHitIntoBust(t *testing.T) {
	g, l, _ := setup(t, 20, time.Minute, c(10), c(7), c(9), c(8), c(6))
	ctx := context.Background()

	snap, err := g.Start(ctx, player, 10)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if snap.State != StatePlayerTurn || snap.PlayerScore != 17 {
		t.Fatalf("Expected player turn at 17, got %+v", snap)
	}

	snap, err = g.Submit(ctx, snap.SessionID, player, Hit)
	if err != nil {
		t.Fatalf("Submit(hit) error = %v", err)
	}
	if snap.PlayerScore != 23 || snap.Settlement == nil || snap.Settlement.Outcome != games.OutcomeBust {
		t.Fatalf("Expected bust at 23, got %+v", snap)
	}
	if got := balance(t, l); got != 10 {
		t.Errorf("Expected balance 10, got %d", got)
	}
}

func TestHitIntoTwentyOne(t *testing.T) {
	g, l, _ := setup(t, 100, time.Minute, c(5), c(6), c(9), c(8), c(utils.Queen))
	ctx := context.Background()

	snap, _ := g.Start(ctx, player, 20)
	snap, err := g.Submit(ctx, snap.SessionID, player, Hit)
	if err != nil {
		t.Fatalf("Submit(hit) error = %v", err)
	}
	if snap.Settlement == nil || snap.Settlement.Outcome != games.OutcomeBlackjack {
		t.Fatalf("Expected blackjack on 21, got %+v", snap)
	}
	if got := balance(t, l); got != 120 {
		t.Errorf("Expected balance 120, got %d", got)
	}
}

func TestInsufficientFunds(t *testing.T) {
	g, l, m := setup(t, 0, time.Minute)

	_, err := g.Start(context.Background(), player, 10)
	var insufficient *ledger.InsufficientFundsError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientFundsError, got %v", err)
	}
	if insufficient.Balance != 0 || insufficient.Requested != 10 {
		t.Errorf("Expected {0, 10}, got %+v", insufficient)
	}
	if got := balance(t, l); got != 0 {
		t.Errorf("Expected balance 0, got %d", got)
	}
	if active := m.Stats()["total"]; active != 0 {
		t.Errorf("Expected no session after a rejected bet, %d active", active)
	}
}

func TestBetBelowMinimum(t *testing.T) {
	g, _, _ := setup(t, 100, time.Minute)
	if _, err := g.Start(context.Background(), player, 5); !errors.Is(err, games.ErrInvalidBet) {
		t.Errorf("Expected ErrInvalidBet, got %v", err)
	}
}

func TestSecondSessionRejected(t *testing.T) {
	g, _, _ := setup(t, 100, time.Minute, c(10), c(7), c(9), c(8))
	ctx := context.Background()

	first, err := g.Start(ctx, player, 10)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, err := g.Start(ctx, player, 10); !errors.Is(err, games.ErrSessionAlreadyActive) {
		t.Fatalf("Expected ErrSessionAlreadyActive, got %v", err)
	}

	found, err := g.manager.Lookup(first.SessionID)
	if err != nil {
		t.Fatalf("Expected first session to stay active, got %v", err)
	}
	again := found.(*Session).Snapshot()
	if again.State != StatePlayerTurn || again.PlayerScore != first.PlayerScore || len(again.Player) != 2 {
		t.Errorf("First session changed: before %+v, after %+v", first, again)
	}
}

func TestTimeoutAbandonsWithoutCharge(t *testing.T) {
	g, l, m := setup(t, 100, 20*time.Millisecond, c(10), c(7), c(9), c(8))
	ctx := context.Background()

	abandoned := make(chan games.Session, 1)
	m.OnAbandon(func(s games.Session) { abandoned <- s })

	snap, err := g.Start(ctx, player, 50)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	select {
	case s := <-abandoned:
		if got := s.(*Session).Snapshot().State; got != StateAbandoned {
			t.Errorf("Expected abandoned state, got %s", got)
		}
	case <-time.After(time.Second):
		t.Fatal("Session was not abandoned")
	}

	if got := balance(t, l); got != 100 {
		t.Errorf("Expected balance unchanged at 100, got %d", got)
	}
	if _, err := g.Submit(ctx, snap.SessionID, player, Stand); !errors.Is(err, games.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after timeout, got %v", err)
	}
	if _, err := g.Start(ctx, player, 10); err != nil {
		t.Errorf("Expected a new round after abandonment, got %v", err)
	}
}

func TestTransferDuringRoundCannotDodgeLoss(t *testing.T) {
	const alt int64 = 43
	g, l, _ := setup(t, 100, time.Minute, c(10), c(9), c(10), c(10))
	ctx := context.Background()

	snap, err := g.Start(ctx, player, 100)
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if _, _, err := l.Transfer(ctx, player, alt, 100, "send"); !errors.Is(err, ledger.ErrFundsHeld) {
		t.Fatalf("Expected the staked coins to be held, got %v", err)
	}
	if _, err := l.Debit(ctx, player, 50, "admin"); !errors.Is(err, ledger.ErrFundsHeld) {
		t.Errorf("Expected an admin debit of staked coins to fail, got %v", err)
	}

	snap, err = g.Submit(ctx, snap.SessionID, player, Stand)
	if err != nil {
		t.Fatalf("Submit(stand) error = %v", err)
	}
	if snap.Settlement.Outcome != games.OutcomeDealerWin || snap.Settlement.Delta != -100 {
		t.Errorf("Expected the full bet lost, got %+v", snap.Settlement)
	}
	if got := balance(t, l); got != 0 {
		t.Errorf("Expected balance 0, got %d", got)
	}
	if got, _ := l.GetBalance(ctx, alt); got != 0 {
		t.Errorf("Expected nothing moved to the other account, got %d", got)
	}
	if held := l.Held(player); held != 0 {
		t.Errorf("Expected the hold to be released after settlement, got %d", held)
	}
}

func TestStandPush(t *testing.T) {
	g, l, _ := setup(t, 100, time.Minute, c(10), c(8), c(utils.King), c(8))
	ctx := context.Background()

	snap, _ := g.Start(ctx, player, 30)
	snap, err := g.Submit(ctx, snap.SessionID, player, Stand)
	if err != nil {
		t.Fatalf("Submit(stand) error = %v", err)
	}
	if snap.Settlement == nil || snap.Settlement.Outcome != games.OutcomePush || snap.Settlement.Delta != 0 {
		t.Fatalf("Expected push, got %+v", snap)
	}
	if got := balance(t, l); got != 100 {
		t.Errorf("Expected balance 100, got %d", got)
	}
}

func TestDealerStandsOnSeventeen(t *testing.T) {
	g, l, _ := setup(t, 100, time.Minute, c(10), c(9), c(10), c(7), c(5))
	ctx := context.Background()

	snap, _ := g.Start(ctx, player, 10)
	snap, err := g.Submit(ctx, snap.SessionID, player, Stand)
	if err != nil {
		t.Fatalf("Submit(stand) error = %v", err)
	}
	if len(snap.Dealer) != 2 || snap.DealerScore != 17 {
		t.Errorf("Expected dealer to stand on 17 with 2 cards, got %d cards at %d", len(snap.Dealer), snap.DealerScore)
	}
	if snap.Settlement.Outcome != games.OutcomePlayerWin {
		t.Errorf("Expected player win, got %s", snap.Settlement.Outcome)
	}
	if got := balance(t, l); got != 110 {
		t.Errorf("Expected balance 110, got %d", got)
	}
}

func TestDealerDrawsToTwentyOne(t *testing.T) {
	g, l, _ := setup(t, 100, time.Minute, c(10), c(8), c(5), c(6), c(utils.Jack))
	ctx := context.Background()

	snap, _ := g.Start(ctx, player, 10)
	if snap.DealerScore != 5 {
		t.Errorf("Expected hidden card to be ignored, dealer shows %d", snap.DealerScore)
	}

	snap, _ = g.Submit(ctx, snap.SessionID, player, Stand)
	if snap.DealerScore != 21 || snap.Settlement.Outcome != games.OutcomeDealerBlackjack {
		t.Fatalf("Expected dealer blackjack, got %+v", snap)
	}
	if got := balance(t, l); got != 90 {
		t.Errorf("Expected balance 90, got %d", got)
	}
}

func TestDealerBusts(t *testing.T) {
	g, l, _ := setup(t, 100, time.Minute, c(10), c(2), c(10), c(6), c(utils.King))
	ctx := context.Background()

	snap, _ := g.Start(ctx, player, 25)
	snap, _ = g.Submit(ctx, snap.SessionID, player, Stand)
	if snap.Settlement.Outcome != games.OutcomeDealerBust {
		t.Fatalf("Expected dealer bust, got %s", snap.Settlement.Outcome)
	}
	if got := balance(t, l); got != 125 {
		t.Errorf("Expected balance 125, got %d", got)
	}
}

func TestSubmitGuards(t *testing.T) {
	g, _, _ := setup(t, 100, time.Minute, c(10), c(7), c(9), c(8), c(2))
	ctx := context.Background()

	snap, _ := g.Start(ctx, player, 10)
	if _, err := g.Submit(ctx, snap.SessionID, player+1, Hit); !errors.Is(err, games.ErrNotYourSession) {
		t.Errorf("Expected ErrNotYourSession, got %v", err)
	}
	if _, err := g.Submit(ctx, snap.SessionID, player, Choice("double")); !errors.Is(err, games.ErrInvalidChoice) {
		t.Errorf("Expected ErrInvalidChoice, got %v", err)
	}
	if _, err := g.Submit(ctx, "missing", player, Hit); !errors.Is(err, games.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}

	if _, err := g.Submit(ctx, snap.SessionID, player, Stand); err != nil {
		t.Fatalf("Submit(stand) error = %v", err)
	}
	if _, err := g.Submit(ctx, snap.SessionID, player, Hit); !errors.Is(err, games.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after settlement, got %v", err)
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		player, dealer int
		want           games.Outcome
	}{
		{18, 22, games.OutcomeDealerBust},
		{20, 21, games.OutcomeDealerBlackjack},
		{19, 19, games.OutcomePush},
		{17, 20, games.OutcomeDealerWin},
		{20, 17, games.OutcomePlayerWin},
	}
	for _, tt := range tests {
		if got := Resolve(tt.player, tt.dealer); got != tt.want {
			t.Errorf("Resolve(%d, %d) = %s, want %s", tt.player, tt.dealer, got, tt.want)
		}
	}
}

func TestRandomRoundsNeverOverdraw(t *testing.T) {
	g, l, _ := setup(t, 200, time.Minute)
	ctx := context.Background()
	rng := utils.NewSeededRand(99)

	for round := 0; round < 300; round++ {
		bal := balance(t, l)
		if bal < 10 {
			break
		}
		snap, err := g.Start(ctx, player, 10+int64(rng.Intn(int(bal-9))))
		if err != nil {
			t.Fatalf("Start() error = %v", err)
		}
		for !snap.Finished() {
			choice := Stand
			if snap.PlayerScore < 15 {
				choice = Hit
			}
			if snap, err = g.Submit(ctx, snap.SessionID, player, choice); err != nil {
				t.Fatalf("Submit() error = %v", err)
			}
		}
		if got := balance(t, l); got < 0 {
			t.Fatalf("Negative balance %d after round %d", got, round)
		}
	}
}
