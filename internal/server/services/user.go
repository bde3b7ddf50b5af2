package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"corebank/internal/common"
	"corebank/internal/logging"
	"corebank/internal/server/auth"
	"corebank/internal/server/config"
	"corebank/internal/server/credential"
	"corebank/internal/server/models"
	"corebank/internal/server/repositories/repomanager"
)

const (
	minPasswordLength = 8
	defaultRole       = "CUSTOMER"
)

// UserService handles customer registration and the session lifecycle:
// login, logout (token revocation) and resolving the caller identity for
// every authenticated request.
type UserService struct {
	db                          *sql.DB
	repomanager                 repomanager.RepositoryManager
	verifier                    credential.Verifier
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	logger                      logging.Logger
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, verifier credential.Verifier, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                          db,
		repomanager:                 m,
		verifier:                    verifier,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		logger:                      logger,
	}
}

// Register creates a new customer. Duplicate usernames or emails yield
// common.ErrAlreadyExists.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if username == "" || email == "" {
		return nil, fmt.Errorf("%w: username and email are required", common.ErrValidation)
	}
	if len(password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLength)
	}

	salt, hash := s.verifier.Derive(password)
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordSalt: salt,
		PasswordHash: hash,
		Roles:        defaultRole,
	}

	user, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: username or email taken", common.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login verifies credentials and mints a signed access token. Unknown users
// and wrong passwords yield the same common.ErrUnauthorized so account
// existence is not leaked.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", fmt.Errorf("%w: invalid credentials", common.ErrUnauthorized)
		}
		return "", fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	if !s.verifier.Verify(password, user.PasswordSalt, user.PasswordHash) {
		if _, err := repo.IncrementFailedLogins(ctx, user.ID); err != nil {
			s.logger.Error(ctx, "failed to record login attempt", "user_id", user.ID, "error", err)
		}
		return "", fmt.Errorf("%w: invalid credentials", common.ErrUnauthorized)
	}
	if !user.IsActive {
		return "", fmt.Errorf("%w: user is deactivated", common.ErrUnauthorized)
	}

	if err := repo.RecordLogin(ctx, user.ID); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	token, err := auth.GenerateToken(user.ID, user.RoleList(), s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return "", fmt.Errorf("error generating token: %w", err)
	}

	s.logger.Info(ctx, "user logged in", "user_id", user.ID)
	return token, nil
}

// Logout revokes the token's jti so the blacklist rejects it for the rest of
// its validity window. Revoking an already-revoked token succeeds.
func (s *UserService) Logout(ctx context.Context, tokenString string) error {
	claims, err := auth.ParseToken(tokenString, s.jwtSecret)
	if err != nil {
		return err
	}

	expiresAt := time.Now().Add(s.accessTokenValidityDuration)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := s.repomanager.Tokens(s.db).Revoke(ctx, claims.ID, expiresAt); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	s.logger.Info(ctx, "user logged out", "user_id", claims.UserID)
	return nil
}

// ChangePassword replaces the stored password after verifying the current
// one. A wrong current password returns (false, nil).
func (s *UserService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) (bool, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return false, err
		}
		return false, fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	if !s.verifier.Verify(currentPassword, user.PasswordSalt, user.PasswordHash) {
		return false, nil
	}
	if len(newPassword) < minPasswordLength {
		return false, fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, minPasswordLength)
	}

	salt, hash := s.verifier.Derive(newPassword)
	if err := repo.UpdateCredentials(ctx, userID, salt, hash); err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	s.logger.Info(ctx, "user password changed", "user_id", userID)
	return true, nil
}

// CurrentIdentity resolves the caller context from a bearer token: the
// signature and expiry are verified, the jti is checked against the
// revocation blacklist, and the owned account numbers are loaded fresh from
// the store.
func (s *UserService) CurrentIdentity(ctx context.Context, tokenString string) (models.Identity, error) {
	claims, err := auth.ParseToken(tokenString, s.jwtSecret)
	if err != nil {
		return models.Identity{}, err
	}

	revoked, err := s.repomanager.Tokens(s.db).IsRevoked(ctx, claims.ID)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", common.ErrStore, err)
	}
	if revoked {
		return models.Identity{}, common.ErrTokenRevoked
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return models.Identity{}, common.ErrInvalidToken
		}
		return models.Identity{}, fmt.Errorf("%w: %v", common.ErrStore, err)
	}
	if !user.IsActive {
		return models.Identity{}, fmt.Errorf("%w: user is deactivated", common.ErrUnauthorized)
	}

	owned, err := s.repomanager.Accounts(s.db).NumbersByUser(ctx, user.ID)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", common.ErrStore, err)
	}

	return models.Identity{
		UserID:        user.ID,
		Roles:         user.RoleList(),
		OwnedAccounts: owned,
	}, nil
}
