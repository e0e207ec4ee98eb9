package ledger

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrAccountNotFound = errors.New("account not found")
	ErrSelfTransfer    = errors.New("cannot transfer to yourself")
	ErrFundsHeld       = errors.New("those coins are riding on a game in progress")
)

// InsufficientFundsError is returned when a debit exceeds the balance
type InsufficientFundsError struct {
	Balance   int64
	Requested int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, requested %d", e.Balance, e.Requested)
}

// CooldownError is returned when a timed reward is claimed too early
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("cooldown active: %s remaining", e.Remaining.Round(time.Second))
}
