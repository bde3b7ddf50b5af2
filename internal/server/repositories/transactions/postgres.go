// Package transactions provides the PostgreSQL-backed ledger store: an
// append-only table of transaction records queryable by account, type and
// owner.
package transactions

import (
	"context"
	"fmt"
	"strings"

	"corebank/internal/dbx"
	"corebank/internal/server/models"
)

// PostgresRepository implements the ledger store over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append inserts the record and fills in the assigned transaction id.
func (r *PostgresRepository) Append(ctx context.Context, txn *models.Transaction) error {

	query :=
		`INSERT INTO transactions (transaction_type, account_from, account_to, amount,
		     description, reference_code, status, reason, balance_after, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING transaction_id
		 `

	err := r.db.QueryRowContext(ctx, query,
		string(txn.Type), txn.AccountFrom, txn.AccountTo, txn.Amount,
		txn.Description, txn.ReferenceCode, string(txn.Status), txn.Reason,
		txn.BalanceAfter, txn.Timestamp).Scan(&txn.ID)

	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// Query returns records touching any account owned by f.OwnerID, newest
// first, optionally narrowed to one account and/or one transaction type.
func (r *PostgresRepository) Query(ctx context.Context, f Filter) ([]*models.Transaction, error) {

	var sb strings.Builder
	sb.WriteString(
		`SELECT t.transaction_id, t.transaction_type, t.account_from, t.account_to, t.amount,
		     t.description, t.reference_code, t.status, t.reason, t.balance_after, t.created_at
		 FROM transactions t
		 WHERE EXISTS (
		     SELECT 1 FROM accounts a
		     WHERE a.user_id = $1 AND a.account_number IN (t.account_from, t.account_to)
		 )`)
	args := []any{f.OwnerID}

	if f.AccountNumber != nil {
		args = append(args, *f.AccountNumber)
		fmt.Fprintf(&sb, " AND $%d IN (t.account_from, t.account_to)", len(args))
	}
	if f.Type != "" {
		args = append(args, string(f.Type))
		fmt.Fprintf(&sb, " AND t.transaction_type = $%d", len(args))
	}

	args = append(args, f.Limit)
	limitArg := len(args)
	args = append(args, f.Offset)
	fmt.Fprintf(&sb, " ORDER BY t.created_at DESC, t.transaction_id DESC LIMIT $%d OFFSET $%d", limitArg, len(args))

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Transaction
	for rows.Next() {
		var item models.Transaction
		if err := rows.Scan(
			&item.ID, &item.Type, &item.AccountFrom, &item.AccountTo, &item.Amount,
			&item.Description, &item.ReferenceCode, &item.Status, &item.Reason,
			&item.BalanceAfter, &item.Timestamp,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
