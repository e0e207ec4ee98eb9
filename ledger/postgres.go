package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"coinbot/models"
	"coinbot/utils"
)

const accountColumns = `user_id, username, balance, last_roll_at, created_at, updated_at`

// PostgresStore persists accounts and ledger entries through a pgx pool
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	var acc models.Account
	if err := row.Scan(&acc.UserID, &acc.Username, &acc.Balance, &acc.LastRollAt, &acc.CreatedAt, &acc.UpdatedAt); err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *PostgresStore) GetAccount(ctx context.Context, userID int64) (*models.Account, error) {
	acc, err := scanAccount(s.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account %d: %w", userID, err)
	}
	return acc, nil
}

func (s *PostgresStore) EnsureAccount(ctx context.Context, userID int64, username string) (*models.Account, error) {
	query := `INSERT INTO accounts (user_id, username) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE
		SET username = CASE WHEN EXCLUDED.username <> '' THEN EXCLUDED.username ELSE accounts.username END
		RETURNING ` + accountColumns

	acc, err := scanAccount(s.db.QueryRow(ctx, query, userID, username))
	if err != nil {
		return nil, fmt.Errorf("failed to ensure account %d: %w", userID, err)
	}
	return acc, nil
}

func (s *PostgresStore) Apply(ctx context.Context, userID, delta int64, kind models.EntryKind, ref string) (*models.Account, error) {
	var acc *models.Account
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		current, err := lockAccount(ctx, tx, userID)
		if err != nil {
			return err
		}
		if current.Balance+delta < 0 {
			return &InsufficientFundsError{Balance: current.Balance, Requested: -delta}
		}

		acc, err = scanAccount(tx.QueryRow(ctx,
			`UPDATE accounts SET balance = balance + $1, updated_at = now() WHERE user_id = $2 RETURNING `+accountColumns,
			delta, userID))
		if err != nil {
			return err
		}
		return recordEntry(ctx, tx, acc, delta, kind, ref)
	})
	if err != nil {
		return nil, wrapStoreErr("apply", userID, err)
	}
	return acc, nil
}

func (s *PostgresStore) Transfer(ctx context.Context, fromID, toID, amount int64, ref string) (*models.Account, *models.Account, error) {
	var from, to *models.Account
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		// Lock rows in id order so opposing transfers cannot deadlock.
		first, second := fromID, toID
		if second < first {
			first, second = second, first
		}
		if _, err := lockAccount(ctx, tx, first); err != nil {
			return err
		}
		if _, err := lockAccount(ctx, tx, second); err != nil {
			return err
		}

		var balance int64
		if err := tx.QueryRow(ctx, `SELECT balance FROM accounts WHERE user_id = $1`, fromID).Scan(&balance); err != nil {
			return err
		}
		if balance < amount {
			return &InsufficientFundsError{Balance: balance, Requested: amount}
		}

		var err error
		from, err = scanAccount(tx.QueryRow(ctx,
			`UPDATE accounts SET balance = balance - $1, updated_at = now() WHERE user_id = $2 RETURNING `+accountColumns,
			amount, fromID))
		if err != nil {
			return err
		}
		to, err = scanAccount(tx.QueryRow(ctx,
			`UPDATE accounts SET balance = balance + $1, updated_at = now() WHERE user_id = $2 RETURNING `+accountColumns,
			amount, toID))
		if err != nil {
			return err
		}
		if err := recordEntry(ctx, tx, from, -amount, models.EntryTransferOut, ref); err != nil {
			return err
		}
		return recordEntry(ctx, tx, to, amount, models.EntryTransferIn, ref)
	})
	if err != nil {
		return nil, nil, wrapStoreErr("transfer", fromID, err)
	}
	return from, to, nil
}

func (s *PostgresStore) SetBalance(ctx context.Context, userID, balance int64, ref string) (*models.Account, error) {
	var acc *models.Account
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		current, err := lockAccount(ctx, tx, userID)
		if err != nil {
			return err
		}
		acc, err = scanAccount(tx.QueryRow(ctx,
			`UPDATE accounts SET balance = $1, updated_at = now() WHERE user_id = $2 RETURNING `+accountColumns,
			balance, userID))
		if err != nil {
			return err
		}
		return recordEntry(ctx, tx, acc, balance-current.Balance, models.EntrySet, ref)
	})
	if err != nil {
		return nil, wrapStoreErr("set balance", userID, err)
	}
	return acc, nil
}

func (s *PostgresStore) ClaimTimed(ctx context.Context, userID, amount int64, now time.Time, cooldown time.Duration, ref string) (*models.Account, error) {
	var acc *models.Account
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		current, err := lockAccount(ctx, tx, userID)
		if err != nil {
			return err
		}
		if remaining := current.RollRemaining(now, cooldown); remaining > 0 {
			return &CooldownError{Remaining: remaining}
		}

		acc, err = scanAccount(tx.QueryRow(ctx,
			`UPDATE accounts SET balance = balance + $1, last_roll_at = $2, updated_at = now() WHERE user_id = $3 RETURNING `+accountColumns,
			amount, now, userID))
		if err != nil {
			return err
		}
		return recordEntry(ctx, tx, acc, amount, models.EntryCredit, ref)
	})
	if err != nil {
		return nil, wrapStoreErr("claim", userID, err)
	}
	return acc, nil
}

func (s *PostgresStore) Top(ctx context.Context, limit int) ([]models.Account, error) {
	rows, err := s.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY balance DESC, user_id ASC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	out := make([]models.Account, 0, limit)
	for rows.Next() {
		acc, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		out = append(out, *acc)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Entries(ctx context.Context, userID int64, limit int) ([]models.LedgerEntry, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, amount, kind, ref, balance_after, created_at FROM ledger_entries
		WHERE user_id = $1 ORDER BY id DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	out := make([]models.LedgerEntry, 0, limit)
	for rows.Next() {
		var e models.LedgerEntry
		var kind string
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &kind, &e.Ref, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.Kind = models.EntryKind(kind)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// lockAccount creates the row if needed and holds it FOR UPDATE until the tx ends
func lockAccount(ctx context.Context, tx pgx.Tx, userID int64) (*models.Account, error) {
	if _, err := tx.Exec(ctx, `INSERT INTO accounts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return nil, err
	}
	return scanAccount(tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 FOR UPDATE`, userID))
}

func recordEntry(ctx context.Context, tx pgx.Tx, acc *models.Account, amount int64, kind models.EntryKind, ref string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO ledger_entries (id, user_id, amount, kind, ref, balance_after) VALUES ($1, $2, $3, $4, $5, $6)`,
		utils.NewID(), acc.UserID, amount, string(kind), ref, acc.Balance)
	return err
}

// wrapStoreErr keeps domain errors unwrapped-comparable and labels the rest
func wrapStoreErr(op string, userID int64, err error) error {
	var insufficient *InsufficientFundsError
	var cooldown *CooldownError
	if errors.As(err, &insufficient) || errors.As(err, &cooldown) {
		return err
	}
	return fmt.Errorf("failed to %s for %d: %w", op, userID, err)
}
