package ledger

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"coinbot/utils"
)

func newPostgresLedger(t *testing.T) *Ledger {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := utils.SetupDatabase(ctx, url)
	if err != nil {
		t.Fatalf("SetupDatabase() error = %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `TRUNCATE ledger_entries, accounts`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	return New(NewPostgresStore(pool), nil)
}

func TestPostgresLedgerRoundTrip(t *testing.T) {
	l := newPostgresLedger(t)
	ctx := context.Background()

	if bal, _ := l.GetBalance(ctx, 1); bal != 0 {
		t.Fatalf("Expected 0 for unregistered user, got %d", bal)
	}
	if _, err := l.Credit(ctx, 1, 100, "test"); err != nil {
		t.Fatalf("Credit() error = %v", err)
	}

	var insufficient *InsufficientFundsError
	if _, err := l.Debit(ctx, 1, 101, "test"); !errors.As(err, &insufficient) {
		t.Fatalf("Expected InsufficientFundsError, got %v", err)
	}

	if _, _, err := l.Transfer(ctx, 1, 2, 60, "test"); err != nil {
		t.Fatalf("Transfer() error = %v", err)
	}
	a, _ := l.GetBalance(ctx, 1)
	b, _ := l.GetBalance(ctx, 2)
	if a != 40 || b != 60 {
		t.Errorf("Expected 40/60, got %d/%d", a, b)
	}

	now := time.Now()
	if _, err := l.ClaimTimed(ctx, 2, 10, now, time.Hour, "roll"); err != nil {
		t.Fatalf("ClaimTimed() error = %v", err)
	}
	var cooldown *CooldownError
	if _, err := l.ClaimTimed(ctx, 2, 10, now.Add(time.Minute), time.Hour, "roll"); !errors.As(err, &cooldown) {
		t.Errorf("Expected CooldownError, got %v", err)
	}

	history, err := l.History(ctx, 1, 10)
	if err != nil || len(history) != 2 {
		t.Errorf("History() = %d entries, %v; want 2", len(history), err)
	}
}
