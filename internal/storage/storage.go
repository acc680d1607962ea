// Package storage declares the entity store contract shared by the ledger
// services and implemented by the memory and postgres backends.
//
// Reads return errs.ErrNotFound for unknown ids; Get* returns soft-deleted rows
// too, List* of reference data returns the owner's non-deleted rows only.
// Writes are only available on a Tx; nothing is visible to other readers until
// Commit returns nil.
package storage

import (
	"context"

	"github.com/google/uuid"
	"github.com/tinoosan/fintrack/internal/ledger"
)

// Reader exposes the lookups the services need.
type Reader interface {
	GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	ListAccounts(ctx context.Context, f ledger.AccountFilter) ([]ledger.Account, error)

	GetTransaction(ctx context.Context, id uuid.UUID) (ledger.Transaction, error)
	ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]ledger.Transaction, error)
	CountTransactions(ctx context.Context, f ledger.TransactionFilter) (int, error)
	// InitialTransaction returns the account's initial-balance transaction.
	InitialTransaction(ctx context.Context, accountID uuid.UUID) (ledger.Transaction, error)

	GetCategory(ctx context.Context, id uuid.UUID) (ledger.Category, error)
	ListCategories(ctx context.Context, ownerID uuid.UUID) ([]ledger.Category, error)
	GetCurrency(ctx context.Context, id uuid.UUID) (ledger.Currency, error)
	ListCurrencies(ctx context.Context, ownerID uuid.UUID) ([]ledger.Currency, error)
	GetAccountType(ctx context.Context, id uuid.UUID) (ledger.AccountType, error)
	ListAccountTypes(ctx context.Context, ownerID uuid.UUID) ([]ledger.AccountType, error)
}

// Writer stages mutations inside a unit of work.
type Writer interface {
	InsertAccount(ctx context.Context, a ledger.Account) error
	UpdateAccount(ctx context.Context, a ledger.Account) error
	// DeleteAccount removes the account row and every transaction posted against it.
	DeleteAccount(ctx context.Context, id uuid.UUID) error

	InsertTransaction(ctx context.Context, t ledger.Transaction) error
	UpdateTransaction(ctx context.Context, t ledger.Transaction) error
	DeleteTransaction(ctx context.Context, id uuid.UUID) error

	PutCategory(ctx context.Context, c ledger.Category) error
	PutCurrency(ctx context.Context, c ledger.Currency) error
	PutAccountType(ctx context.Context, t ledger.AccountType) error
}

// Tx is a unit of work. Rollback after a successful Commit is a no-op.
type Tx interface {
	Reader
	Writer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the entity store: committed reads plus a way to open a unit of work.
type Store interface {
	Reader
	Begin(ctx context.Context) (Tx, error)
}
