package coinflip

import (
	"context"
	"errors"
	"testing"
	"time"

	"coinbot/games"
	"coinbot/ledger"
	"coinbot/utils"
)

const player int64 = 3

type fixedRand struct{ v int }

func (r fixedRand) Intn(n int) int                    { return r.v % n }
func (r fixedRand) Shuffle(n int, swap func(i, j int)) {}

func setup(t *testing.T, balance int64, rng utils.Rand) (*Game, *ledger.Ledger, *games.Manager) {
	t.Helper()
	l := ledger.New(ledger.NewMemoryStore(), nil)
	if balance > 0 {
		l.Credit(context.Background(), player, balance, "seed")
	}
	m := games.NewManager()
	t.Cleanup(m.Close)
	return New(l, m, rng, 10), l, m
}

func TestParseSide(t *testing.T) {
	for in, want := range map[string]Side{"heads": Heads, "H": Heads, " tails ": Tails, "t": Tails} {
		got, err := ParseSide(in)
		if err != nil || got != want {
			t.Errorf("ParseSide(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseSide("edge"); !errors.Is(err, games.ErrInvalidChoice) {
		t.Errorf("Expected ErrInvalidChoice, got %v", err)
	}
}

func TestTossWithoutBet(t *testing.T) {
	g, l, _ := setup(t, 0, fixedRand{0})

	res, err := g.Toss(Heads)
	if err != nil {
		t.Fatalf("Toss() error = %v", err)
	}
	if res.Landed != Heads || !res.Won || res.Settlement != nil {
		t.Errorf("Unexpected result %+v", res)
	}
	if bal, _ := l.GetBalance(context.Background(), player); bal != 0 {
		t.Errorf("Expected no balance change, got %d", bal)
	}
}

func TestFlipWithBet(t *testing.T) {
	ctx := context.Background()

	g, l, _ := setup(t, 100, fixedRand{0})
	res, err := g.Flip(ctx, player, Heads, 25)
	if err != nil {
		t.Fatalf("Flip() error = %v", err)
	}
	if !res.Won || res.Settlement == nil || res.Settlement.Delta != 25 {
		t.Errorf("Expected +25 win, got %+v", res)
	}
	if bal, _ := l.GetBalance(ctx, player); bal != 125 {
		t.Errorf("Expected 125, got %d", bal)
	}

	g, l, _ = setup(t, 100, fixedRand{1})
	res, _ = g.Flip(ctx, player, Heads, 25)
	if res.Won || res.Landed != Tails || res.Settlement.Delta != -25 {
		t.Errorf("Expected -25 loss, got %+v", res)
	}
	if bal, _ := l.GetBalance(ctx, player); bal != 75 {
		t.Errorf("Expected 75, got %d", bal)
	}
}

func TestFlipRejectsBadBets(t *testing.T) {
	ctx := context.Background()
	g, _, _ := setup(t, 5, fixedRand{0})

	for _, bet := range []int64{5, 0, -10} {
		if _, err := g.Flip(ctx, player, Heads, bet); !errors.Is(err, games.ErrInvalidBet) {
			t.Errorf("Flip(%d): expected ErrInvalidBet, got %v", bet, err)
		}
	}
	var insufficient *ledger.InsufficientFundsError
	if _, err := g.Flip(ctx, player, Heads, 10); !errors.As(err, &insufficient) {
		t.Errorf("Expected InsufficientFundsError, got %v", err)
	}
	if _, err := g.Flip(ctx, player, Side("edge"), 10); !errors.Is(err, games.ErrInvalidChoice) {
		t.Errorf("Expected ErrInvalidChoice, got %v", err)
	}
	if _, err := g.Toss(Side("edge")); !errors.Is(err, games.ErrInvalidChoice) {
		t.Errorf("Expected ErrInvalidChoice from Toss, got %v", err)
	}
}

func TestFlipBlockedByActiveSession(t *testing.T) {
	ctx := context.Background()
	g, l, m := setup(t, 100, fixedRand{0})

	busy := &instantSession{Round: games.NewRound(games.KindBlackjack, player, 10)}
	if err := m.Register(ctx, busy, time.Minute); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if _, err := g.Flip(ctx, player, Heads, 10); !errors.Is(err, games.ErrSessionAlreadyActive) {
		t.Errorf("Expected ErrSessionAlreadyActive, got %v", err)
	}
	if bal, _ := l.GetBalance(ctx, player); bal != 100 {
		t.Errorf("Expected balance untouched, got %d", bal)
	}
}

func TestGamble(t *testing.T) {
	ctx := context.Background()

	g, l, _ := setup(t, 100, fixedRand{0})
	res, err := g.Gamble(ctx, player, 30, 1.5)
	if err != nil {
		t.Fatalf("Gamble() error = %v", err)
	}
	if !res.Won || res.Settlement.Delta != 45 {
		t.Errorf("Expected +45 win, got %+v", res.Settlement)
	}
	if bal, _ := l.GetBalance(ctx, player); bal != 145 {
		t.Errorf("Expected 145, got %d", bal)
	}

	g, l, _ = setup(t, 100, fixedRand{1})
	res, _ = g.Gamble(ctx, player, 31, 1.5)
	if res.Won || res.Settlement.Delta != -15 {
		t.Errorf("Expected -15 loss, got %+v", res.Settlement)
	}
	if bal, _ := l.GetBalance(ctx, player); bal != 85 {
		t.Errorf("Expected 85, got %d", bal)
	}
}

func TestGambleRejects(t *testing.T) {
	ctx := context.Background()
	g, _, _ := setup(t, 10, fixedRand{0})

	if _, err := g.Gamble(ctx, player, 0, 1); !errors.Is(err, games.ErrInvalidBet) {
		t.Errorf("Expected ErrInvalidBet, got %v", err)
	}
	var insufficient *ledger.InsufficientFundsError
	if _, err := g.Gamble(ctx, player, 11, 1); !errors.As(err, &insufficient) || insufficient.Balance != 10 {
		t.Errorf("Expected InsufficientFunds{10, 11}, got %v", err)
	}
	if _, err := g.Gamble(ctx, player, 10, 1); err != nil {
		t.Errorf("Expected an all-in gamble to be accepted, got %v", err)
	}
}
