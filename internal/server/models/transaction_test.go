package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTransaction_Defaults(t *testing.T) {
	amount := decimal.RequireFromString("25.00")

	txn := NewTransaction(TxTransfer, 1, 2, amount, "")

	assert.Equal(t, StatusPending, txn.Status)
	assert.Equal(t, "Transfer of $25.00", txn.Description)
	assert.NotEmpty(t, txn.ReferenceCode)
	assert.False(t, txn.Timestamp.IsZero())
}

func TestNewTransaction_KeepsCallerDescription(t *testing.T) {
	txn := NewTransaction(TxDeposit, 1, 1, decimal.RequireFromString("9.99"), "salary")
	assert.Equal(t, "salary", txn.Description)
}

func TestNewTransaction_ReferenceCodesUnique(t *testing.T) {
	a := NewTransaction(TxDeposit, 1, 1, decimal.NewFromInt(1), "")
	b := NewTransaction(TxDeposit, 1, 1, decimal.NewFromInt(1), "")
	require.NotEqual(t, a.ReferenceCode, b.ReferenceCode)
}

func TestTransaction_CompleteAndFail(t *testing.T) {
	txn := NewTransaction(TxWithdrawal, 7, 7, decimal.RequireFromString("40.00"), "")

	txn.Complete(decimal.RequireFromString("60.00"))
	assert.Equal(t, StatusCompleted, txn.Status)
	assert.True(t, txn.BalanceAfter.Equal(decimal.RequireFromString("60.00")))

	failed := NewTransaction(TxWithdrawal, 7, 7, decimal.RequireFromString("150.00"), "")
	failed.Fail("not enough funds", decimal.RequireFromString("100.00"))
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "not enough funds", failed.Reason)
	assert.True(t, failed.BalanceAfter.Equal(decimal.RequireFromString("100.00")))
}

func TestAccountType_Valid(t *testing.T) {
	assert.True(t, AccountChecking.Valid())
	assert.True(t, AccountSavings.Valid())
	assert.True(t, AccountCertificateOfDeposit.Valid())
	assert.False(t, AccountType("MONEY_MARKET").Valid())
}
