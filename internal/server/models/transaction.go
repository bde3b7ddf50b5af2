package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TxDeposit    TransactionType = "DEPOSIT"
	TxWithdrawal TransactionType = "WITHDRAWAL"
	TxTransfer   TransactionType = "TRANSFER"
)

// Valid reports whether t is one of the supported transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TxDeposit, TxWithdrawal, TxTransfer:
		return true
	}
	return false
}

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	// StatusReversed is reserved for future reversal flows; the engine
	// never produces it.
	StatusReversed TransactionStatus = "REVERSED"
)

// Transaction is one ledger record. Every attempted money movement produces
// exactly one — COMPLETED or FAILED — so the ledger is an audit trail of
// intent, not only of success. Rows are immutable once persisted.
//
// AccountFrom and AccountTo are both always set; for deposits and
// withdrawals they point at the same account.
type Transaction struct {
	ID            int64
	Type          TransactionType
	AccountFrom   int64
	AccountTo     int64
	Amount        decimal.Decimal
	Description   string
	ReferenceCode string
	Status        TransactionStatus
	Reason        string
	BalanceAfter  decimal.Decimal
	Timestamp     time.Time
}

// NewTransaction builds a PENDING record with a fresh reference code. An
// empty description is replaced with a generated human-readable summary.
func NewTransaction(txType TransactionType, from, to int64, amount decimal.Decimal, description string) *Transaction {
	if description == "" {
		description = defaultDescription(txType, amount)
	}
	return &Transaction{
		Type:          txType,
		AccountFrom:   from,
		AccountTo:     to,
		Amount:        amount,
		Description:   description,
		ReferenceCode: uuid.NewString(),
		Status:        StatusPending,
		Timestamp:     time.Now().UTC(),
	}
}

// Complete marks the record COMPLETED with the mutated account's resulting
// balance.
func (t *Transaction) Complete(balanceAfter decimal.Decimal) {
	t.Status = StatusCompleted
	t.BalanceAfter = balanceAfter
}

// Fail marks the record FAILED, keeping the pre-mutation balance and the
// failure reason for the audit trail.
func (t *Transaction) Fail(reason string, balanceBefore decimal.Decimal) {
	t.Status = StatusFailed
	t.Reason = reason
	t.BalanceAfter = balanceBefore
}

func defaultDescription(txType TransactionType, amount decimal.Decimal) string {
	switch txType {
	case TxDeposit:
		return fmt.Sprintf("Deposit of $%s", amount.StringFixed(2))
	case TxWithdrawal:
		return fmt.Sprintf("Withdrawal of $%s", amount.StringFixed(2))
	case TxTransfer:
		return fmt.Sprintf("Transfer of $%s", amount.StringFixed(2))
	default:
		return fmt.Sprintf("Transaction of $%s", amount.StringFixed(2))
	}
}
