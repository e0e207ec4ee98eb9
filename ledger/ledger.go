// Package ledger owns account balances. All balance changes go through
// Ledger so that the check and the mutation for one account happen inside
// a single critical section, both in process and in the store.
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"coinbot/models"
	"coinbot/utils"
)

type Ledger struct {
	store Store
	locks *accountLocks
	cache *AccountCache

	heldMu sync.Mutex
	held   map[int64]int64
}

// New wraps store; cache may be nil
func New(store Store, cache *AccountCache) *Ledger {
	return &Ledger{
		store: store,
		locks: newAccountLocks(),
		cache: cache,
		held:  make(map[int64]int64),
	}
}

// GetBalance returns 0 for unregistered users without creating them
func (l *Ledger) GetBalance(ctx context.Context, userID int64) (int64, error) {
	acc, err := l.Account(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return acc.Balance, nil
}

// Account returns ErrAccountNotFound for unregistered users
func (l *Ledger) Account(ctx context.Context, userID int64) (*models.Account, error) {
	if l.cache != nil {
		if acc, ok := l.cache.Get(userID); ok {
			return acc, nil
		}
	}

	// The cache is only written under the account lock.
	unlock := l.locks.lock(userID)
	defer unlock()

	acc, err := l.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	l.remember(acc)
	return acc, nil
}

// Hold reserves amount of the balance until release is called. Held coins
// cannot leave the account through Debit, Transfer or SetBalance; only
// DebitUpTo, which settles the round that holds them, may take them.
// release is safe to call more than once.
func (l *Ledger) Hold(ctx context.Context, userID, amount int64) (release func(), err error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	unlock := l.locks.lock(userID)
	defer unlock()

	acc, err := l.store.GetAccount(ctx, userID)
	if errors.Is(err, ErrAccountNotFound) {
		return nil, &InsufficientFundsError{Balance: 0, Requested: amount}
	}
	if err != nil {
		return nil, err
	}
	l.remember(acc)

	l.heldMu.Lock()
	defer l.heldMu.Unlock()
	held := l.held[userID]
	if !acc.CanAfford(held + amount) {
		return nil, &InsufficientFundsError{Balance: acc.Balance - held, Requested: amount}
	}
	l.held[userID] = held + amount

	var once sync.Once
	return func() {
		once.Do(func() {
			l.heldMu.Lock()
			defer l.heldMu.Unlock()
			l.held[userID] -= amount
			if l.held[userID] <= 0 {
				delete(l.held, userID)
			}
		})
	}, nil
}

// Held returns the coins currently reserved by holds on the account
func (l *Ledger) Held(userID int64) int64 {
	l.heldMu.Lock()
	defer l.heldMu.Unlock()
	return l.held[userID]
}

// checkHeld rejects an outflow that would cut into held coins. It must be
// called with the account lock held.
func (l *Ledger) checkHeld(ctx context.Context, userID, outflow int64) error {
	held := l.Held(userID)
	if held == 0 {
		return nil
	}
	acc, err := l.store.GetAccount(ctx, userID)
	if err != nil {
		return err
	}
	if acc.Balance-outflow < held && acc.Balance >= outflow {
		return ErrFundsHeld
	}
	return nil
}

// Register creates a zero-balance account if absent; it is idempotent
func (l *Ledger) Register(ctx context.Context, userID int64, username string) (*models.Account, error) {
	unlock := l.locks.lock(userID)
	defer unlock()

	acc, err := l.store.EnsureAccount(ctx, userID, username)
	if err != nil {
		return nil, err
	}
	l.remember(acc)
	return acc, nil
}

// Credit adds amount, registering the account if needed
func (l *Ledger) Credit(ctx context.Context, userID, amount int64, ref string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return l.apply(ctx, userID, amount, models.EntryCredit, ref)
}

// Debit removes amount or fails with *InsufficientFundsError
func (l *Ledger) Debit(ctx context.Context, userID, amount int64, ref string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	return l.apply(ctx, userID, -amount, models.EntryDebit, ref)
}

// DebitUpTo removes amount, or the whole balance if it is smaller.
// It returns how much was actually taken.
func (l *Ledger) DebitUpTo(ctx context.Context, userID, amount int64, ref string) (debited, balance int64, err error) {
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}

	unlock := l.locks.lock(userID)
	defer unlock()

	current, err := l.store.GetAccount(ctx, userID)
	if err != nil && !errors.Is(err, ErrAccountNotFound) {
		return 0, 0, err
	}
	if current == nil || current.Balance == 0 {
		return 0, 0, nil
	}

	take := min(amount, current.Balance)
	acc, err := l.store.Apply(ctx, userID, -take, models.EntryDebit, ref)
	if err != nil {
		return 0, 0, err
	}
	l.committed(acc, models.EntryDebit, -take, ref)
	return take, acc.Balance, nil
}

// Transfer debits from and credits to, or changes neither
func (l *Ledger) Transfer(ctx context.Context, fromID, toID, amount int64, ref string) (fromBalance, toBalance int64, err error) {
	if amount <= 0 {
		return 0, 0, ErrInvalidAmount
	}
	if fromID == toID {
		return 0, 0, ErrSelfTransfer
	}

	unlock := l.locks.lock(fromID, toID)
	defer unlock()

	if err := l.checkHeld(ctx, fromID, amount); err != nil {
		return 0, 0, err
	}

	from, to, err := l.store.Transfer(ctx, fromID, toID, amount, ref)
	if err != nil {
		return 0, 0, err
	}
	l.committed(from, models.EntryTransferOut, -amount, ref)
	l.committed(to, models.EntryTransferIn, amount, ref)
	return from.Balance, to.Balance, nil
}

// SetBalance overwrites the balance; used by administrators. It cannot go
// below what a live round holds.
func (l *Ledger) SetBalance(ctx context.Context, userID, balance int64, ref string) (int64, error) {
	if balance < 0 {
		return 0, ErrInvalidAmount
	}

	unlock := l.locks.lock(userID)
	defer unlock()

	if balance < l.Held(userID) {
		return 0, ErrFundsHeld
	}

	acc, err := l.store.SetBalance(ctx, userID, balance, ref)
	if err != nil {
		return 0, err
	}
	l.committed(acc, models.EntrySet, balance, ref)
	return acc.Balance, nil
}

func (l *Ledger) Reset(ctx context.Context, userID int64, ref string) (int64, error) {
	return l.SetBalance(ctx, userID, 0, ref)
}

// ClaimTimed credits amount once per cooldown or fails with *CooldownError
func (l *Ledger) ClaimTimed(ctx context.Context, userID, amount int64, now time.Time, cooldown time.Duration, ref string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	unlock := l.locks.lock(userID)
	defer unlock()

	acc, err := l.store.ClaimTimed(ctx, userID, amount, now, cooldown, ref)
	if err != nil {
		return 0, err
	}
	l.committed(acc, models.EntryCredit, amount, ref)
	return acc.Balance, nil
}

// Top returns the richest accounts, highest balance first
func (l *Ledger) Top(ctx context.Context, limit int) ([]models.Account, error) {
	return l.store.Top(ctx, limit)
}

// History returns the most recent ledger entries for an account
func (l *Ledger) History(ctx context.Context, userID int64, limit int) ([]models.LedgerEntry, error) {
	return l.store.Entries(ctx, userID, limit)
}

func (l *Ledger) apply(ctx context.Context, userID, delta int64, kind models.EntryKind, ref string) (int64, error) {
	unlock := l.locks.lock(userID)
	defer unlock()

	if delta < 0 {
		if err := l.checkHeld(ctx, userID, -delta); err != nil {
			return 0, err
		}
	}

	acc, err := l.store.Apply(ctx, userID, delta, kind, ref)
	if err != nil {
		return 0, err
	}
	l.committed(acc, kind, delta, ref)
	return acc.Balance, nil
}

func (l *Ledger) committed(acc *models.Account, kind models.EntryKind, amount int64, ref string) {
	l.remember(acc)
	utils.LedgerMutations.WithLabelValues(string(kind)).Inc()
	log.Debug().
		Int64("user_id", acc.UserID).
		Str("kind", string(kind)).
		Int64("amount", amount).
		Int64("balance", acc.Balance).
		Str("ref", ref).
		Msg("ledger mutation")
}

func (l *Ledger) remember(acc *models.Account) {
	if l.cache != nil {
		l.cache.Set(acc)
	}
}
