package postgres

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

func getTestDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping Postgres store tests")
	}
	return dsn
}

func mustOpen(t *testing.T, dsn string) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s, err := Open(ctx, dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

// prepare applies the init migration and empties the ledger tables.
func prepare(t *testing.T, s *Store) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, thisFile, _, _ := runtime.Caller(0)
	repoRoot := filepath.Clean(filepath.Join(filepath.Dir(thisFile), "../../../"))
	b, err := os.ReadFile(filepath.Join(repoRoot, "db", "migrations", "0001_init.sql"))
	if err != nil {
		t.Fatalf("read init sql: %v", err)
	}
	if _, err := s.pool.Exec(ctx, string(b)); err != nil {
		t.Fatalf("apply init sql: %v", err)
	}
	if _, err := s.pool.Exec(ctx, `truncate table transactions, accounts, account_types, currencies cascade`); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	if _, err := s.pool.Exec(ctx, `delete from categories where id <> $1`, ledger.InitialBalanceCategoryID); err != nil {
		t.Fatalf("clean categories: %v", err)
	}
}

type fixture struct {
	owner    uuid.UUID
	accType  ledger.AccountType
	currency ledger.Currency
	category ledger.Category
}

func seedReference(t *testing.T, ctx context.Context, s *Store) fixture {
	t.Helper()
	owner := uuid.New()
	f := fixture{
		owner:    owner,
		accType:  ledger.AccountType{ID: uuid.New(), OwnerID: owner, Name: "Bank"},
		currency: ledger.Currency{ID: uuid.New(), OwnerID: owner, Name: "Pound Sterling", Code: "GBP"},
		category: ledger.Category{ID: uuid.New(), OwnerID: owner, Name: "Groceries"},
	}
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := tx.PutAccountType(ctx, f.accType); err != nil {
		t.Fatalf("put account type: %v", err)
	}
	if err := tx.PutCurrency(ctx, f.currency); err != nil {
		t.Fatalf("put currency: %v", err)
	}
	if err := tx.PutCategory(ctx, f.category); err != nil {
		t.Fatalf("put category: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return f
}

func TestStore_AccountsAndTransactions(t *testing.T) {
	dsn := getTestDSN(t)
	s := mustOpen(t, dsn)
	prepare(t, s)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Ready(ctx); err != nil {
		t.Fatalf("ready: %v", err)
	}
	f := seedReference(t, ctx, s)

	acc := ledger.Account{ID: uuid.New(), OwnerID: f.owner, Name: "Cash", Balance: decimal.MustParse("12.50"), AccountTypeID: f.accType.ID, CurrencyID: f.currency.ID}
	tr := ledger.Transaction{
		ID: uuid.New(), OwnerID: f.owner, AccountID: acc.ID, CategoryID: f.category.ID,
		Amount: decimal.MustParse("12.50"), Type: ledger.Income, CreatedOn: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Reference: "wages",
	}
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.InsertAccount(ctx, acc); err != nil {
		t.Fatalf("insert account: %v", err)
	}
	if err := tx.InsertTransaction(ctx, tr); err != nil {
		t.Fatalf("insert transaction: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := tx.Rollback(ctx); err != nil {
		t.Fatalf("rollback after commit should be a no-op: %v", err)
	}

	got, err := s.GetAccount(ctx, acc.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if got.Balance.Cmp(acc.Balance) != 0 || got.Name != "Cash" {
		t.Fatalf("unexpected account: %+v", got)
	}

	list, err := s.ListTransactions(ctx, ledger.TransactionFilter{OwnerID: &f.owner})
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(list) != 1 || list[0].ID != tr.ID || list[0].Amount.Cmp(tr.Amount) != 0 || list[0].Type != ledger.Income {
		t.Fatalf("unexpected transactions: %+v", list)
	}
	from := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	n, err := s.CountTransactions(ctx, ledger.TransactionFilter{OwnerID: &f.owner, From: &from})
	if err != nil || n != 0 {
		t.Fatalf("count from later date: n=%d err=%v", n, err)
	}

	// Soft delete hides the account's transactions from default listings.
	tx, err = s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	got.Deleted = true
	if err := tx.UpdateAccount(ctx, got); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if n, _ := s.CountTransactions(ctx, ledger.TransactionFilter{OwnerID: &f.owner}); n != 0 {
		t.Fatalf("expected soft-deleted account to be excluded, got %d", n)
	}
	if n, _ := s.CountTransactions(ctx, ledger.TransactionFilter{OwnerID: &f.owner, IncludeDeletedAccounts: true}); n != 1 {
		t.Fatalf("expected 1 transaction including deleted accounts, got %d", n)
	}

	// Hard delete cascades.
	tx, err = s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := tx.DeleteAccount(ctx, acc.ID); err != nil {
		t.Fatalf("hard delete: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if _, err := s.GetTransaction(ctx, tr.ID); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("expected cascaded transaction to be gone, got %v", err)
	}
}

func TestStore_SingleInitialBalancePerAccount(t *testing.T) {
	dsn := getTestDSN(t)
	s := mustOpen(t, dsn)
	prepare(t, s)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	f := seedReference(t, ctx, s)

	acc := ledger.Account{ID: uuid.New(), OwnerID: f.owner, Name: "Bank", Balance: decimal.Zero, AccountTypeID: f.accType.ID, CurrencyID: f.currency.ID}
	initial := func() ledger.Transaction {
		return ledger.Transaction{
			ID: uuid.New(), OwnerID: f.owner, AccountID: acc.ID, CategoryID: ledger.InitialBalanceCategoryID,
			Amount: decimal.MustParse("1"), Type: ledger.Income, CreatedOn: time.Now().UTC(), IsInitialBalance: true,
		}
	}
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	if err := tx.InsertAccount(ctx, acc); err != nil {
		t.Fatalf("insert account: %v", err)
	}
	if err := tx.InsertTransaction(ctx, initial()); err != nil {
		t.Fatalf("insert first initial: %v", err)
	}
	if err := tx.InsertTransaction(ctx, initial()); !errors.Is(err, errs.ErrInvalid) {
		t.Fatalf("expected ErrInvalid for a second initial-balance transaction, got %v", err)
	}
}

func TestStore_GetMissingIsNotFound(t *testing.T) {
	dsn := getTestDSN(t)
	s := mustOpen(t, dsn)
	prepare(t, s)
	ctx := context.Background()
	if _, err := s.GetAccount(ctx, uuid.New()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("account: expected ErrNotFound, got %v", err)
	}
	if _, err := s.InitialTransaction(ctx, uuid.New()); !errors.Is(err, errs.ErrNotFound) {
		t.Fatalf("initial: expected ErrNotFound, got %v", err)
	}
	c, err := s.GetCategory(ctx, ledger.InitialBalanceCategoryID)
	if err != nil || c.Owner() != uuid.Nil {
		t.Fatalf("system category: %+v err=%v", c, err)
	}
}

func TestStore_ActiveAccountNameIsUniquePerOwner(t *testing.T) {
	dsn := getTestDSN(t)
	s := mustOpen(t, dsn)
	prepare(t, s)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	f := seedReference(t, ctx, s)

	account := func(name string) ledger.Account {
		return ledger.Account{ID: uuid.New(), OwnerID: f.owner, Name: name, Balance: decimal.Zero, AccountTypeID: f.accType.ID, CurrencyID: f.currency.ID}
	}
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()
	first := account("Savings")
	if err := tx.InsertAccount(ctx, first); err != nil {
		t.Fatalf("insert first: %v", err)
	}
	if err := tx.InsertAccount(ctx, account(" savings ")); !errors.Is(err, errs.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestMapErr(t *testing.T) {
	cases := []struct {
		name string
		in   error
		want error
	}{
		{"duplicate account name", &pgconn.PgError{Code: "23505", ConstraintName: accountNameIndex}, errs.ErrDuplicateName},
		{"other unique violation", &pgconn.PgError{Code: "23505", ConstraintName: "transactions_one_initial_balance"}, errs.ErrInvalid},
		{"foreign key", &pgconn.PgError{Code: "23503"}, errs.ErrInvalid},
	}
	for _, tc := range cases {
		if got := mapErr("op", tc.in); !errors.Is(got, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
	if mapErr("op", nil) != nil {
		t.Fatalf("nil error should stay nil")
	}
}
