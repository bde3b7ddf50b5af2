package transactions

import (
	"context"

	"corebank/internal/server/models"
)

// Filter narrows a ledger query. OwnerID is mandatory: only transactions
// touching an account owned by that user are returned. AccountNumber and
// Type are optional refinements.
type Filter struct {
	OwnerID       int64
	AccountNumber *int64
	Type          models.TransactionType
	Limit         int
	Offset        int
}

type Repository interface {
	// Append inserts a ledger record and fills in its assigned id. Records
	// are immutable once appended; there is deliberately no update method.
	Append(ctx context.Context, txn *models.Transaction) error

	// Query returns matching records ordered by timestamp descending.
	Query(ctx context.Context, f Filter) ([]*models.Transaction, error)
}
