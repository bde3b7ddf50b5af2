package accounts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

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

func accountRows(number int64, balance string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"account_number", "user_id", "account_holder", "account_name", "account_type",
		"balance", "interest_rate", "pin_salt", "pin_hash", "is_locked",
		"latest_balance_change", "last_transaction_date", "created_at",
	}).AddRow(number, int64(1), "Alice Smith", "main", "CHECKING",
		balance, "0.000", []byte("salt"), []byte("hash"), false,
		"0.00", nil, time.Now())
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+account_number,.*FROM\s+accounts\s+WHERE\s+account_number\s*=\s*\$1$`).
		WithArgs(int64(10)).
		WillReturnRows(accountRows(10, "100.00"))

	got, err := repo.Get(context.Background(), 10)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Number != 10 || got.UserID != 1 {
		t.Fatalf("unexpected account: %+v", got)
	}
	if !got.Balance.Equal(decimal.RequireFromString("100.00")) {
		t.Fatalf("balance mismatch: %s", got.Balance)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+account_number,.*FROM\s+accounts`).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 404)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestGetForUpdate_UsesRowLock(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+account_number,.*FOR\s+UPDATE$`).
		WithArgs(int64(10)).
		WillReturnRows(accountRows(10, "55.50"))

	got, err := repo.GetForUpdate(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetForUpdate error: %v", err)
	}
	if !got.Balance.Equal(decimal.RequireFromString("55.50")) {
		t.Fatalf("balance mismatch: %s", got.Balance)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("sql expectations: %v", err)
	}
}

func TestCreate_AssignsNumber(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)INSERT\s+INTO\s+accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"account_number", "created_at"}).AddRow(int64(77), time.Now()))

	acc := &models.Account{
		UserID: 1, Holder: "Alice Smith", Name: "main", Type: models.AccountChecking,
		Balance: decimal.Zero, InterestRate: decimal.Zero,
		PinSalt: []byte("s"), PinHash: []byte("h"),
	}
	got, err := repo.Create(context.Background(), acc)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.Number != 77 {
		t.Fatalf("want account number 77, got %d", got.Number)
	}
}

func TestUpdateBalance_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)UPDATE\s+accounts\s+SET\s+balance`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	acc := &models.Account{Number: 404, Balance: decimal.Zero, LatestBalanceChange: decimal.Zero}
	if err := repo.UpdateBalance(context.Background(), acc); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want common.ErrNotFound, got %v", err)
	}
}

func TestCountByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT\s+COUNT\(\*\)\s+FROM\s+accounts\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := repo.CountByUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("CountByUser error: %v", err)
	}
	if n != 3 {
		t.Fatalf("want 3, got %d", n)
	}
}

func TestNumbersByUser(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"account_number"}).AddRow(int64(10)).AddRow(int64(11))
	mock.ExpectQuery(`SELECT\s+account_number\s+FROM\s+accounts\s+WHERE\s+user_id\s*=\s*\$1`).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	nums, err := repo.NumbersByUser(context.Background(), 1)
	if err != nil {
		t.Fatalf("NumbersByUser error: %v", err)
	}
	if len(nums) != 2 || nums[0] != 10 || nums[1] != 11 {
		t.Fatalf("unexpected numbers: %v", nums)
	}
}

func TestUpdatePIN_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)UPDATE\s+accounts\s+SET\s+pin_salt`).
		WithArgs(int64(10), []byte("s2"), []byte("h2")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePIN(context.Background(), 10, []byte("s2"), []byte("h2")); err != nil {
		t.Fatalf("UpdatePIN error: %v", err)
	}
}
