package ledger

import (
	"context"
	"time"

	"coinbot/models"
)

// Store is the durable side of the ledger. Every mutating call is atomic
// and returns only after the change and its ledger entry are committed.
type Store interface {
	// GetAccount returns ErrAccountNotFound for unknown users
	GetAccount(ctx context.Context, userID int64) (*models.Account, error)
	EnsureAccount(ctx context.Context, userID int64, username string) (*models.Account, error)

	// Apply adds delta to the balance, creating the account if needed.
	// A result below zero is rejected with *InsufficientFundsError.
	Apply(ctx context.Context, userID, delta int64, kind models.EntryKind, ref string) (*models.Account, error)
	// Transfer moves amount between two accounts or changes neither
	Transfer(ctx context.Context, fromID, toID, amount int64, ref string) (from, to *models.Account, err error)
	SetBalance(ctx context.Context, userID, balance int64, ref string) (*models.Account, error)
	// ClaimTimed credits amount and stamps last_roll_at unless now is inside the cooldown
	ClaimTimed(ctx context.Context, userID, amount int64, now time.Time, cooldown time.Duration, ref string) (*models.Account, error)

	Top(ctx context.Context, limit int) ([]models.Account, error)
	Entries(ctx context.Context, userID int64, limit int) ([]models.LedgerEntry, error)
}
