// Package services contains server-side business logic: the transaction
// engine that moves money, the account and user services around it, and the
// authorization guard they share.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"corebank/internal/common"
	"corebank/internal/server/models"
	"corebank/internal/server/repositories/repomanager"
)

// Guard decides whether a caller may mutate an account. It composes the
// resolved identity with account rows; it never authenticates tokens.
type Guard struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

// NewGuard constructs a Guard over the given database and repositories.
func NewGuard(db *sql.DB, m repomanager.RepositoryManager) *Guard {
	return &Guard{db: db, repomanager: m}
}

// VerifyOwnership reports whether caller owns the account. A missing account
// yields common.ErrNotFound; an existing account owned by someone else yields
// (false, nil), never an error.
func (g *Guard) VerifyOwnership(ctx context.Context, caller models.Identity, accountNumber int64) (bool, error) {
	account, err := g.repomanager.Accounts(g.db).Get(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, fmt.Errorf("%w: account %d", common.ErrNotFound, accountNumber)
		}
		return false, fmt.Errorf("%w: %v", common.ErrStore, err)
	}
	return account.UserID == caller.UserID, nil
}

// CheckMutable returns nil when caller may change the account's balance.
// Ownership and the lock flag are both required; the returned error wraps
// common.ErrUnauthorized with the specific reason.
func CheckMutable(account *models.Account, caller models.Identity) error {
	if account.UserID != caller.UserID {
		return fmt.Errorf("%w: account %d does not belong to the caller", common.ErrUnauthorized, account.Number)
	}
	if account.IsLocked {
		return fmt.Errorf("%w: account %d is locked", common.ErrUnauthorized, account.Number)
	}
	return nil
}
