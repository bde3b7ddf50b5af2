package repomanager

import (
	"context"
	"database/sql"

	"corebank/internal/dbx"
	"corebank/internal/server/repositories/accounts"
	"corebank/internal/server/repositories/tokens"
	"corebank/internal/server/repositories/transactions"
	"corebank/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Accounts(db dbx.DBTX) accounts.Repository
	Transactions(db dbx.DBTX) transactions.Repository
	Tokens(db dbx.DBTX) tokens.Repository
}
