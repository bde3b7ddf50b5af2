package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"corebank/internal/common"
	"corebank/internal/logging"
	"corebank/internal/server/credential"
	"corebank/internal/server/models"
	"corebank/internal/server/repositories/repomanager"
)

const pinLength = 4

// AccountService handles the account lifecycle around the transaction
// engine: registration, lookup and the PIN credential layer.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	verifier    credential.Verifier
	logger      logging.Logger
}

// NewAccountService constructs an AccountService.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, verifier credential.Verifier, logger logging.Logger) *AccountService {
	return &AccountService{db: db, repomanager: m, verifier: verifier, logger: logger}
}

func validatePIN(pin string) error {
	if len(pin) != pinLength {
		return fmt.Errorf("%w: PIN must be exactly %d digits", common.ErrValidation, pinLength)
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return fmt.Errorf("%w: PIN must contain digits only", common.ErrValidation)
		}
	}
	return nil
}

// Register opens a new account for the caller with a zero balance. The PIN
// is stored only as salt plus derived hash.
func (s *AccountService) Register(ctx context.Context, caller models.Identity, holder, name, accountType, pin string) (*models.Account, error) {
	t := models.AccountType(strings.ToUpper(accountType))
	if !t.Valid() {
		return nil, fmt.Errorf("%w: unsupported account type %q", common.ErrValidation, accountType)
	}
	if err := validatePIN(pin); err != nil {
		return nil, err
	}

	salt, hash := s.verifier.Derive(pin)
	account := &models.Account{
		UserID:  caller.UserID,
		Holder:  holder,
		Name:    name,
		Type:    t,
		Balance: decimal.Zero,
		PinSalt: salt,
		PinHash: hash,
	}

	account, err := s.repomanager.Accounts(s.db).Create(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	s.logger.Info(ctx, "account registered", "account", account.Number, "type", string(t))
	return account, nil
}

// Get returns one of the caller's accounts. Accounts that do not exist and
// accounts owned by someone else both yield common.ErrNotFound so existence
// is not leaked across customers.
func (s *AccountService) Get(ctx context.Context, caller models.Identity, number int64) (*models.Account, error) {
	account, err := s.repomanager.Accounts(s.db).Get(ctx, number)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("%w: account %d", common.ErrNotFound, number)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
	}
	if account.UserID != caller.UserID {
		return nil, fmt.Errorf("%w: account %d", common.ErrNotFound, number)
	}
	return account, nil
}

// ListOwned returns all of the caller's accounts.
func (s *AccountService) ListOwned(ctx context.Context, caller models.Identity) ([]*models.Account, error) {
	result, err := s.repomanager.Accounts(s.db).ListByUser(ctx, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
	}
	return result, nil
}

// CountOwned returns how many accounts the caller owns.
func (s *AccountService) CountOwned(ctx context.Context, caller models.Identity) (int64, error) {
	count, err := s.repomanager.Accounts(s.db).CountByUser(ctx, caller.UserID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrStore, err)
	}
	return count, nil
}

// VerifyPIN checks the supplied PIN against the account's stored credential
// material in constant time. The account must be owned by the caller and not
// locked. A mismatch is (false, nil), not an error.
func (s *AccountService) VerifyPIN(ctx context.Context, caller models.Identity, number int64, pin string) (bool, error) {
	account, err := s.Get(ctx, caller, number)
	if err != nil {
		return false, err
	}
	if account.IsLocked {
		return false, fmt.Errorf("%w: account %d is locked", common.ErrUnauthorized, number)
	}
	return s.verifier.Verify(pin, account.PinSalt, account.PinHash), nil
}

// SetPIN replaces the account's credential material without checking the old
// PIN. Callers that need the old PIN verified go through ChangePIN.
func (s *AccountService) SetPIN(ctx context.Context, caller models.Identity, number int64, pin string) error {
	if _, err := s.Get(ctx, caller, number); err != nil {
		return err
	}
	if err := validatePIN(pin); err != nil {
		return err
	}

	salt, hash := s.verifier.Derive(pin)
	if err := s.repomanager.Accounts(s.db).UpdatePIN(ctx, number, salt, hash); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	s.logger.Info(ctx, "account PIN changed", "account", number)
	return nil
}

// ChangePIN replaces the account PIN after verifying the current one. A
// wrong current PIN returns (false, nil) so callers can distinguish it from
// infrastructure failures.
func (s *AccountService) ChangePIN(ctx context.Context, caller models.Identity, number int64, currentPIN, newPIN string) (bool, error) {
	account, err := s.Get(ctx, caller, number)
	if err != nil {
		return false, err
	}
	if !s.verifier.Verify(currentPIN, account.PinSalt, account.PinHash) {
		return false, nil
	}
	if err := s.SetPIN(ctx, caller, number, newPIN); err != nil {
		return false, err
	}
	return true, nil
}
