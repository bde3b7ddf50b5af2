// Package users provides a PostgreSQL-backed repository for customer rows.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"corebank/internal/common"
	"corebank/internal/dbx"
	"corebank/internal/server/models"
)

// PostgresRepository implements user storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const uniqueViolation = "23505"

// Create inserts a new user. A duplicate username or email yields
// common.ErrAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, email, password_salt, password_hash, roles)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING user_id, is_active, is_admin, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Email, user.PasswordSalt, user.PasswordHash, user.Roles).
		Scan(&user.ID, &user.IsActive, &user.IsAdmin, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const userColumns = `user_id, username, email, password_salt, password_hash, roles,
		is_active, is_admin, failed_login_attempts, last_password_change,
		created_at, updated_at, last_login`

func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var lastPasswordChange, lastLogin sql.NullTime

	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordSalt, &user.PasswordHash,
		&user.Roles, &user.IsActive, &user.IsAdmin, &user.FailedLoginAttempts,
		&lastPasswordChange, &user.CreatedAt, &user.UpdatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if lastPasswordChange.Valid {
		user.LastPasswordChange = &lastPasswordChange.Time
	}
	if lastLogin.Valid {
		user.LastLogin = &lastLogin.Time
	}
	return user, nil
}

// GetByUsername returns the user with the given username or common.ErrNotFound.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

// GetByID returns the user with the given id or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// UpdateCredentials replaces the stored password material. The attempt
// counter resets and last_password_change is stamped in the same statement.
func (r *PostgresRepository) UpdateCredentials(ctx context.Context, id int64, salt, hash []byte) error {
	query :=
		`UPDATE users
		 SET password_salt = $2, password_hash = $3,
		     failed_login_attempts = 0, last_password_change = now(), updated_at = now()
		 WHERE user_id = $1
		 `
	res, err := r.db.ExecContext(ctx, query, id, salt, hash)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// RecordLogin stamps last_login and resets the failed attempt counter.
func (r *PostgresRepository) RecordLogin(ctx context.Context, id int64) error {
	query :=
		`UPDATE users
		 SET last_login = now(), failed_login_attempts = 0, updated_at = now()
		 WHERE user_id = $1
		 `
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// IncrementFailedLogins bumps failed_login_attempts and returns the new value.
func (r *PostgresRepository) IncrementFailedLogins(ctx context.Context, id int64) (int, error) {
	query :=
		`UPDATE users
		 SET failed_login_attempts = failed_login_attempts + 1, updated_at = now()
		 WHERE user_id = $1
		 RETURNING failed_login_attempts
		 `
	var attempts int
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return attempts, nil
}
