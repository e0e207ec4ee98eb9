package ledger

import (
	"context"
	"sort"
	"sync"
	"time"

	"coinbot/models"
	"coinbot/utils"
)

// MemoryStore keeps accounts in process memory; used when no database is configured
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[int64]*models.Account
	entries  []models.LedgerEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[int64]*models.Account)}
}

func (m *MemoryStore) GetAccount(ctx context.Context, userID int64) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, ok := m.accounts[userID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return copyAccount(acc), nil
}

func (m *MemoryStore) EnsureAccount(ctx context.Context, userID int64, username string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc := m.ensure(userID, username)
	return copyAccount(acc), nil
}

func (m *MemoryStore) Apply(ctx context.Context, userID, delta int64, kind models.EntryKind, ref string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var balance int64
	if acc, ok := m.accounts[userID]; ok {
		balance = acc.Balance
	}
	if balance+delta < 0 {
		return nil, &InsufficientFundsError{Balance: balance, Requested: -delta}
	}

	acc := m.ensure(userID, "")
	acc.Balance += delta
	acc.UpdatedAt = time.Now()
	m.record(acc, delta, kind, ref)
	return copyAccount(acc), nil
}

func (m *MemoryStore) Transfer(ctx context.Context, fromID, toID, amount int64, ref string) (*models.Account, *models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var balance int64
	if acc, ok := m.accounts[fromID]; ok {
		balance = acc.Balance
	}
	if balance < amount {
		return nil, nil, &InsufficientFundsError{Balance: balance, Requested: amount}
	}

	from := m.ensure(fromID, "")
	to := m.ensure(toID, "")
	now := time.Now()
	from.Balance -= amount
	from.UpdatedAt = now
	to.Balance += amount
	to.UpdatedAt = now
	m.record(from, -amount, models.EntryTransferOut, ref)
	m.record(to, amount, models.EntryTransferIn, ref)
	return copyAccount(from), copyAccount(to), nil
}

func (m *MemoryStore) SetBalance(ctx context.Context, userID, balance int64, ref string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc := m.ensure(userID, "")
	delta := balance - acc.Balance
	acc.Balance = balance
	acc.UpdatedAt = time.Now()
	m.record(acc, delta, models.EntrySet, ref)
	return copyAccount(acc), nil
}

func (m *MemoryStore) ClaimTimed(ctx context.Context, userID, amount int64, now time.Time, cooldown time.Duration, ref string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc := m.ensure(userID, "")
	if remaining := acc.RollRemaining(now, cooldown); remaining > 0 {
		return nil, &CooldownError{Remaining: remaining}
	}

	acc.Balance += amount
	rolledAt := now
	acc.LastRollAt = &rolledAt
	acc.UpdatedAt = now
	m.record(acc, amount, models.EntryCredit, ref)
	return copyAccount(acc), nil
}

func (m *MemoryStore) Top(ctx context.Context, limit int) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		out = append(out, *copyAccount(acc))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Balance != out[j].Balance {
			return out[i].Balance > out[j].Balance
		}
		return out[i].UserID < out[j].UserID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) Entries(ctx context.Context, userID int64, limit int) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.LedgerEntry, 0)
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID != userID {
			continue
		}
		out = append(out, m.entries[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ensure must be called with m.mu held
func (m *MemoryStore) ensure(userID int64, username string) *models.Account {
	acc, ok := m.accounts[userID]
	if !ok {
		now := time.Now()
		acc = &models.Account{UserID: userID, Username: username, CreatedAt: now, UpdatedAt: now}
		m.accounts[userID] = acc
	} else if username != "" {
		acc.Username = username
	}
	return acc
}

func (m *MemoryStore) record(acc *models.Account, amount int64, kind models.EntryKind, ref string) {
	m.entries = append(m.entries, models.LedgerEntry{
		ID:           utils.NewID(),
		UserID:       acc.UserID,
		Amount:       amount,
		Kind:         kind,
		Ref:          ref,
		BalanceAfter: acc.Balance,
		CreatedAt:    acc.UpdatedAt,
	})
}

func copyAccount(acc *models.Account) *models.Account {
	c := *acc
	if acc.LastRollAt != nil {
		t := *acc.LastRollAt
		c.LastRollAt = &t
	}
	return &c
}
