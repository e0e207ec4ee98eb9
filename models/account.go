package models

import (
	"time"
)

// Account is a user's persistent coin balance
type Account struct {
	UserID     int64      `json:"user_id"`
	Username   string     `json:"username"`
	Balance    int64      `json:"balance"`
	LastRollAt *time.Time `json:"last_roll_at"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CanAfford checks if the account holds at least amount coins
func (a *Account) CanAfford(amount int64) bool {
	return a.Balance >= amount
}

// RollAvailableAt returns when the next timed reward unlocks
func (a *Account) RollAvailableAt(cooldown time.Duration) time.Time {
	if a.LastRollAt == nil {
		return time.Time{}
	}
	return a.LastRollAt.Add(cooldown)
}

// RollRemaining returns how long is left on the cooldown at now, or zero
func (a *Account) RollRemaining(now time.Time, cooldown time.Duration) time.Duration {
	remaining := a.RollAvailableAt(cooldown).Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// EntryKind labels a ledger entry
type EntryKind string

const (
	EntryCredit      EntryKind = "credit"
	EntryDebit       EntryKind = "debit"
	EntryTransferIn  EntryKind = "transfer_in"
	EntryTransferOut EntryKind = "transfer_out"
	EntrySet         EntryKind = "set"
)

// LedgerEntry records one committed balance change
type LedgerEntry struct {
	ID           string    `json:"id"`
	UserID       int64     `json:"user_id"`
	Amount       int64     `json:"amount"`
	Kind         EntryKind `json:"kind"`
	Ref          string    `json:"ref"`
	BalanceAfter int64     `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}
