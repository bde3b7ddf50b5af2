package users

import (
	"context"

	"corebank/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// UpdateCredentials replaces the password material, resets
	// failed_login_attempts and refreshes last_password_change.
	UpdateCredentials(ctx context.Context, id int64, salt, hash []byte) error

	// RecordLogin stamps last_login and resets failed_login_attempts.
	RecordLogin(ctx context.Context, id int64) error

	// IncrementFailedLogins bumps the failed attempt counter and returns the
	// new value.
	IncrementFailedLogins(ctx context.Context, id int64) (int, error)
}
