package accounts

import (
	"context"

	"corebank/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	Get(ctx context.Context, number int64) (*models.Account, error)

	// GetForUpdate loads the account row under an exclusive row lock
	// (SELECT ... FOR UPDATE) so concurrent balance mutations on the same
	// account serialize. Must be called inside a transaction.
	GetForUpdate(ctx context.Context, number int64) (*models.Account, error)

	ListByUser(ctx context.Context, userID int64) ([]*models.Account, error)
	NumbersByUser(ctx context.Context, userID int64) ([]int64, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)

	// UpdateBalance persists balance, latest_balance_change and
	// last_transaction_date for the given account.
	UpdateBalance(ctx context.Context, account *models.Account) error

	UpdatePIN(ctx context.Context, number int64, salt, hash []byte) error
	SetLocked(ctx context.Context, number int64, locked bool) error
}
