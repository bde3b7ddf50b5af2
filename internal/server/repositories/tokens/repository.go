package tokens

import (
	"context"
	"time"
)

// Repository is the revoked-token blacklist consulted on every
// authenticated request.
type Repository interface {
	// Revoke blacklists the token id until its natural expiry.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error

	// IsRevoked reports whether the token id is blacklisted and not yet
	// expired.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// DeleteExpired prunes blacklist rows whose tokens have expired anyway.
	DeleteExpired(ctx context.Context) (int64, error)
}
