package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"corebank/internal/common"
	"corebank/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"user_id", "is_active", "is_admin", "created_at", "updated_at"}).
		AddRow(int64(42), true, false, now, now)
	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+users`).
		WithArgs("alice", "alice@example.com", []byte("salt"), []byte("hash"), "CUSTOMER").
		WillReturnRows(rows)

	u := &models.User{Username: "alice", Email: "alice@example.com", PasswordSalt: []byte("salt"), PasswordHash: []byte("hash"), Roles: "CUSTOMER"}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != 42 || !got.IsActive {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Username: "alice"})
	if err == nil {
		t.Fatalf("expected wrapped db error, got nil")
	}
}

func userRows(id int64) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"user_id", "username", "email", "password_salt", "password_hash", "roles",
		"is_active", "is_admin", "failed_login_attempts", "last_password_change",
		"created_at", "updated_at", "last_login",
	}).AddRow(id, "alice", "alice@example.com", []byte("salt"), []byte("hash"), "CUSTOMER",
		true, false, 0, nil, now, now, nil)
}

func TestGetByUsername_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+user_id,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1`).
		WithArgs("alice").
		WillReturnRows(userRows(7))

	got, err := repo.GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername error: %v", err)
	}
	if got.ID != 7 || got.Username != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if got.LastLogin != nil || got.LastPasswordChange != nil {
		t.Fatalf("expected nil nullable timestamps: %+v", got)
	}
}

func TestGetByUsername_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+user_id,.*FROM\s+users\s+WHERE\s+username\s*=\s*\$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByUsername(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+user_id,.*FROM\s+users\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs(int64(7)).
		WillReturnRows(userRows(7))

	got, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.ID != 7 {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestUpdateCredentials_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)UPDATE\s+users\s+SET\s+password_salt`).
		WithArgs(int64(99), []byte("s"), []byte("h")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateCredentials(context.Background(), 99, []byte("s"), []byte("h"))
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestIncrementFailedLogins(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)UPDATE\s+users\s+SET\s+failed_login_attempts`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"failed_login_attempts"}).AddRow(3))

	n, err := repo.IncrementFailedLogins(context.Background(), 7)
	if err != nil {
		t.Fatalf("IncrementFailedLogins error: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3 attempts, got %d", n)
	}
}
