package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"corebank/internal/common"
	"corebank/internal/dbx"
	"corebank/internal/logging"
	"corebank/internal/server/models"
	"corebank/internal/server/repositories/repomanager"
	"corebank/internal/server/repositories/transactions"
)

// DefaultListLimit is the page size used when a transaction listing request
// does not supply a valid limit.
const DefaultListLimit = 30

// Engine is the transaction engine: the only component allowed to change
// account balances. Every attempted movement, successful or not, leaves
// exactly one ledger record once the accounts involved have been resolved.
//
// Concurrency model: each operation runs in its own database transaction and
// takes row locks (SELECT ... FOR UPDATE) on the accounts it touches, so
// concurrent mutations of the same account serialize at the store. Transfers
// always lock in ascending account-number order to avoid deadlocks.
type Engine struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	guard       *Guard
	logger      logging.Logger
}

// NewEngine constructs the transaction engine.
func NewEngine(db *sql.DB, m repomanager.RepositoryManager, guard *Guard, logger logging.Logger) *Engine {
	return &Engine{db: db, repomanager: m, guard: guard, logger: logger}
}

// validateAmount rejects non-positive amounts and amounts finer than cents.
func validateAmount(amount decimal.Decimal) (string, bool) {
	if !amount.IsPositive() {
		return "amount must be positive", false
	}
	if amount.Exponent() < -2 {
		return "amount precision is limited to cents", false
	}
	return "", true
}

// precheck runs the preconditions shared by all mutating operations against
// an already-locked account row. It returns the audit reason plus the typed
// error for the caller; ("", nil) means the mutation may proceed.
func precheck(account *models.Account, caller models.Identity, amount decimal.Decimal, needFunds bool) (string, error) {
	if account.UserID != caller.UserID {
		reason := fmt.Sprintf("account %d does not belong to the caller", account.Number)
		return reason, fmt.Errorf("%w: %s", common.ErrUnauthorized, reason)
	}
	if account.IsLocked {
		reason := fmt.Sprintf("account %d is locked", account.Number)
		return reason, fmt.Errorf("%w: %s", common.ErrUnauthorized, reason)
	}
	if reason, ok := validateAmount(amount); !ok {
		return reason, fmt.Errorf("%w: %s", common.ErrValidation, reason)
	}
	if needFunds && account.Balance.LessThan(amount) {
		reason := "not enough funds"
		return reason, fmt.Errorf("%w: %s", common.ErrValidation, reason)
	}
	return "", nil
}

// applyBalanceChange mutates the in-memory account by delta and stamps the
// balance bookkeeping fields. Persistence is the caller's job.
func applyBalanceChange(account *models.Account, delta decimal.Decimal, at time.Time) {
	account.Balance = account.Balance.Add(delta)
	account.LatestBalanceChange = delta
	account.LastTransactionDate = &at
}

// Deposit credits amount to the account. The caller must own the account and
// the account must not be locked.
func (e *Engine) Deposit(ctx context.Context, caller models.Identity, accountNumber int64, amount decimal.Decimal, description string) (*models.Transaction, error) {
	return e.applySingle(ctx, models.TxDeposit, caller, accountNumber, amount, description)
}

// Withdraw debits amount from the account. In addition to the deposit
// preconditions the balance must cover the amount; the balance never goes
// negative.
func (e *Engine) Withdraw(ctx context.Context, caller models.Identity, accountNumber int64, amount decimal.Decimal, description string) (*models.Transaction, error) {
	return e.applySingle(ctx, models.TxWithdrawal, caller, accountNumber, amount, description)
}

// applySingle runs a one-account mutation (deposit or withdrawal). A missing
// account aborts with no ledger record; every precondition failure after the
// account is resolved commits a FAILED record with the unchanged balance.
func (e *Engine) applySingle(ctx context.Context, txType models.TransactionType, caller models.Identity, accountNumber int64, amount decimal.Decimal, description string) (*models.Transaction, error) {

	var result *models.Transaction
	var opErr error

	err := dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		account, err := e.repomanager.Accounts(tx).GetForUpdate(ctx, accountNumber)
		if err != nil {
			return err
		}

		txn := models.NewTransaction(txType, accountNumber, accountNumber, amount, description)

		needFunds := txType == models.TxWithdrawal
		if reason, checkErr := precheck(account, caller, amount, needFunds); checkErr != nil {
			txn.Fail(reason, account.Balance)
			if err := e.repomanager.Transactions(tx).Append(ctx, txn); err != nil {
				return err
			}
			result, opErr = txn, checkErr
			return nil
		}

		delta := amount
		if txType == models.TxWithdrawal {
			delta = amount.Neg()
		}
		applyBalanceChange(account, delta, time.Now().UTC())

		if err := e.repomanager.Accounts(tx).UpdateBalance(ctx, account); err != nil {
			return err
		}
		txn.Complete(account.Balance)
		if err := e.repomanager.Transactions(tx).Append(ctx, txn); err != nil {
			return err
		}
		result = txn
		return nil
	})

	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %d", common.ErrNotFound, accountNumber)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
	}
	if opErr != nil {
		e.logger.Warn(ctx, "transaction failed", "type", string(txType),
			"account", accountNumber, "reference_code", result.ReferenceCode, "reason", result.Reason)
		return nil, opErr
	}

	e.logger.Info(ctx, "transaction completed", "type", string(txType),
		"account", accountNumber, "reference_code", result.ReferenceCode)
	return result, nil
}

// Transfer moves amount from one account to another. The caller must own the
// source account; destination ownership is not required, so transfers to
// third-party accounts are allowed. Neither account may be locked. The ledger
// record's balance_after reflects the source account.
func (e *Engine) Transfer(ctx context.Context, caller models.Identity, from, to int64, amount decimal.Decimal, description string) (*models.Transaction, error) {

	var result *models.Transaction
	var opErr error

	err := dbx.WithTx(ctx, e.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		accRepo := e.repomanager.Accounts(tx)

		// Lock rows in ascending account-number order so two opposing
		// transfers cannot deadlock. A self-transfer locks once.
		first, second := from, to
		if second < first {
			first, second = second, first
		}
		locked := map[int64]*models.Account{}
		for _, n := range []int64{first, second} {
			if _, ok := locked[n]; ok {
				continue
			}
			account, err := accRepo.GetForUpdate(ctx, n)
			if err != nil {
				return fmt.Errorf("account %d: %w", n, err)
			}
			locked[n] = account
		}
		src, dst := locked[from], locked[to]

		txn := models.NewTransaction(models.TxTransfer, from, to, amount, description)

		fail := func(reason string, checkErr error) error {
			txn.Fail(reason, src.Balance)
			if err := e.repomanager.Transactions(tx).Append(ctx, txn); err != nil {
				return err
			}
			result, opErr = txn, checkErr
			return nil
		}

		if from == to {
			reason := "cannot transfer to the same account"
			return fail(reason, fmt.Errorf("%w: %s", common.ErrValidation, reason))
		}
		if reason, checkErr := precheck(src, caller, amount, true); checkErr != nil {
			return fail(reason, checkErr)
		}
		if dst.IsLocked {
			reason := fmt.Sprintf("account %d is locked", dst.Number)
			return fail(reason, fmt.Errorf("%w: %s", common.ErrUnauthorized, reason))
		}

		now := time.Now().UTC()
		applyBalanceChange(src, amount.Neg(), now)
		applyBalanceChange(dst, amount, now)

		if err := accRepo.UpdateBalance(ctx, src); err != nil {
			return err
		}
		if err := accRepo.UpdateBalance(ctx, dst); err != nil {
			return err
		}
		txn.Complete(src.Balance)
		if err := e.repomanager.Transactions(tx).Append(ctx, txn); err != nil {
			return err
		}
		result = txn
		return nil
	})

	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", common.ErrNotFound, err)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
	}
	if opErr != nil {
		e.logger.Warn(ctx, "transaction failed", "type", string(models.TxTransfer),
			"from", from, "to", to, "reference_code", result.ReferenceCode, "reason", result.Reason)
		return nil, opErr
	}

	e.logger.Info(ctx, "transaction completed", "type", string(models.TxTransfer),
		"from", from, "to", to, "reference_code", result.ReferenceCode)
	return result, nil
}

// ListQuery is a caller-facing transaction listing request. All fields are
// optional; invalid paging values fall back to defaults instead of failing
// the request.
type ListQuery struct {
	AccountNumber *int64
	Type          string
	Limit         int
	Offset        int
}

// ListTransactions returns ledger records visible to the caller, newest
// first. With an account number the caller must own that account; without
// one all records touching any owned account are returned. An unknown type
// filter is ignored.
func (e *Engine) ListTransactions(ctx context.Context, caller models.Identity, q ListQuery) ([]*models.Transaction, error) {
	if q.Limit <= 0 {
		q.Limit = DefaultListLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}

	f := transactions.Filter{OwnerID: caller.UserID, Limit: q.Limit, Offset: q.Offset}

	if q.Type != "" {
		if t := models.TransactionType(strings.ToUpper(q.Type)); t.Valid() {
			f.Type = t
		}
	}

	if q.AccountNumber != nil {
		owned, err := e.guard.VerifyOwnership(ctx, caller, *q.AccountNumber)
		if err != nil {
			return nil, err
		}
		if !owned {
			return nil, fmt.Errorf("%w: account %d does not belong to the caller", common.ErrUnauthorized, *q.AccountNumber)
		}
		f.AccountNumber = q.AccountNumber
	}

	result, err := e.repomanager.Transactions(e.db).Query(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
	}
	return result, nil
}
