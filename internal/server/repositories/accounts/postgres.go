// Package accounts provides the PostgreSQL-backed account store, including
// the row-locked reads the transaction engine relies on for balance
// serialization.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"corebank/internal/common"
	"corebank/internal/dbx"
	"corebank/internal/server/models"
)

// PostgresRepository implements account storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `account_number, user_id, account_holder, account_name, account_type,
		balance, interest_rate, pin_salt, pin_hash, is_locked,
		latest_balance_change, last_transaction_date, created_at`

// Create inserts a new account and returns it with the assigned number.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {

	query :=
		`INSERT INTO accounts (user_id, account_holder, account_name, account_type,
		     balance, interest_rate, pin_salt, pin_hash)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING account_number, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		account.UserID, account.Holder, account.Name, string(account.Type),
		account.Balance, account.InterestRate, account.PinSalt, account.PinHash).
		Scan(&account.Number, &account.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return account, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	account := &models.Account{}
	var lastTransactionDate sql.NullTime

	err := row.Scan(&account.Number, &account.UserID, &account.Holder, &account.Name,
		&account.Type, &account.Balance, &account.InterestRate,
		&account.PinSalt, &account.PinHash, &account.IsLocked,
		&account.LatestBalanceChange, &lastTransactionDate, &account.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lastTransactionDate.Valid {
		account.LastTransactionDate = &lastTransactionDate.Time
	}
	return account, nil
}

// Get returns the account with the given number or common.ErrNotFound.
func (r *PostgresRepository) Get(ctx context.Context, number int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1`
	return scanAccount(r.db.QueryRowContext(ctx, query, number))
}

// GetForUpdate returns the account row under an exclusive row lock. Callers
// must be inside a transaction or the lock is released immediately.
func (r *PostgresRepository) GetForUpdate(ctx context.Context, number int64) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE account_number = $1 FOR UPDATE`
	return scanAccount(r.db.QueryRowContext(ctx, query, number))
}

// ListByUser returns all accounts owned by userID, oldest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 ORDER BY account_number`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, account)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// NumbersByUser returns the account numbers owned by userID.
func (r *PostgresRepository) NumbersByUser(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT account_number FROM accounts WHERE user_id = $1 ORDER BY account_number`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var n int64
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountByUser returns how many accounts userID owns. This is the store-level
// aggregate that replaces any in-memory account tally.
func (r *PostgresRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}

// UpdateBalance persists the mutated balance bookkeeping for account.
func (r *PostgresRepository) UpdateBalance(ctx context.Context, account *models.Account) error {
	query :=
		`UPDATE accounts
		 SET balance = $2, latest_balance_change = $3, last_transaction_date = $4
		 WHERE account_number = $1
		 `
	res, err := r.db.ExecContext(ctx, query,
		account.Number, account.Balance, account.LatestBalanceChange, account.LastTransactionDate)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// UpdatePIN replaces the account's credential material.
func (r *PostgresRepository) UpdatePIN(ctx context.Context, number int64, salt, hash []byte) error {
	query := `UPDATE accounts SET pin_salt = $2, pin_hash = $3 WHERE account_number = $1`

	res, err := r.db.ExecContext(ctx, query, number, salt, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// SetLocked flips the account lock flag.
func (r *PostgresRepository) SetLocked(ctx context.Context, number int64, locked bool) error {
	query := `UPDATE accounts SET is_locked = $2 WHERE account_number = $1`

	res, err := r.db.ExecContext(ctx, query, number, locked)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
