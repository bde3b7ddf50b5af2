package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType enumerates the supported account kinds. The type is fixed at
// registration and never changes afterwards.
type AccountType string

const (
	AccountChecking             AccountType = "CHECKING"
	AccountSavings              AccountType = "SAVINGS"
	AccountCertificateOfDeposit AccountType = "CERTIFICATE_OF_DEPOSIT"
)

// Valid reports whether t is one of the supported account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountChecking, AccountSavings, AccountCertificateOfDeposit:
		return true
	}
	return false
}

// Account is a bank account row. Number, UserID and Type are immutable after
// creation. Balance is stored as NUMERIC(13,2) and must never go negative;
// that invariant is enforced by the transaction engine, not the store.
type Account struct {
	Number              int64
	UserID              int64
	Holder              string
	Name                string
	Type                AccountType
	Balance             decimal.Decimal
	InterestRate        decimal.Decimal
	PinSalt             []byte
	PinHash             []byte
	IsLocked            bool
	LatestBalanceChange decimal.Decimal
	LastTransactionDate *time.Time
	CreatedAt           time.Time
}
