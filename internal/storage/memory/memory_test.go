package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

func account(owner uuid.UUID, name string) ledger.Account {
	return ledger.Account{ID: uuid.New(), OwnerID: owner, Name: name, Balance: decimal.Zero}
}

func TestTx_CommitPublishes(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := account(uuid.New(), "Cash")

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.InsertAccount(ctx, a))

	_, err = s.GetAccount(ctx, a.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound, "uncommitted writes are invisible")

	require.NoError(t, tx.Commit(ctx))
	require.NoError(t, tx.Rollback(ctx), "rollback after commit is a no-op")
	got, err := s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cash", got.Name)

	assert.ErrorIs(t, tx.Commit(ctx), ErrTxClosed)
}

func TestTx_RollbackDiscards(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := account(uuid.New(), "Cash")
	s.SeedAccount(a)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	a.Balance = decimal.MustParse("9")
	require.NoError(t, tx.UpdateAccount(ctx, a))
	require.NoError(t, tx.Rollback(ctx))

	got, err := s.GetAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Balance.IsZero())

	// the writer lock was released
	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))
}

func TestTx_SingleInitialBalancePerAccount(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := account(uuid.New(), "Cash")
	s.SeedAccount(a)

	initial := func() ledger.Transaction {
		return ledger.Transaction{
			ID: uuid.New(), OwnerID: a.OwnerID, AccountID: a.ID, CategoryID: ledger.InitialBalanceCategoryID,
			Amount: decimal.MustParse("1"), Type: ledger.Income, IsInitialBalance: true,
		}
	}
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()
	first := initial()
	require.NoError(t, tx.InsertTransaction(ctx, first))
	assert.ErrorIs(t, tx.InsertTransaction(ctx, initial()), errs.ErrInvalid)

	got, err := tx.InitialTransaction(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
}

func TestDeleteAccount_RemovesTransactions(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := account(uuid.New(), "Cash")
	s.SeedAccount(a)
	tr := ledger.Transaction{ID: uuid.New(), OwnerID: a.OwnerID, AccountID: a.ID, Amount: decimal.MustParse("2"), Type: ledger.Expense}
	s.SeedTransaction(tr)

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.DeleteAccount(ctx, a.ID))
	require.NoError(t, tx.Commit(ctx))

	_, err = s.GetTransaction(ctx, tr.ID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestListTransactions_OrderAndPaging(t *testing.T) {
	s := New()
	ctx := context.Background()
	a := account(uuid.New(), "Cash")
	s.SeedAccount(a)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		s.SeedTransaction(ledger.Transaction{ID: uuid.New(), OwnerID: a.OwnerID, AccountID: a.ID, Amount: decimal.MustParse("1"), Type: ledger.Income, CreatedOn: base.AddDate(0, 0, i)})
	}

	list, err := s.ListTransactions(ctx, ledger.TransactionFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].CreatedOn.Equal(base.AddDate(0, 0, 2)))
	assert.True(t, list[1].CreatedOn.Equal(base.AddDate(0, 0, 1)))

	n, err := s.CountTransactions(ctx, ledger.TransactionFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestListAccounts_SkipsDeletedUnlessAsked(t *testing.T) {
	s := New()
	ctx := context.Background()
	owner := uuid.New()
	live, gone := account(owner, "Live"), account(owner, "Gone")
	gone.Deleted = true
	s.SeedAccount(live)
	s.SeedAccount(gone)
	s.SeedAccount(account(uuid.New(), "Other"))

	list, err := s.ListAccounts(ctx, ledger.AccountFilter{OwnerID: &owner})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = s.ListAccounts(ctx, ledger.AccountFilter{OwnerID: &owner, IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestNew_HasSystemCategory(t *testing.T) {
	c, err := New().GetCategory(context.Background(), ledger.InitialBalanceCategoryID)
	require.NoError(t, err)
	assert.True(t, c.System())
	assert.Equal(t, uuid.Nil, c.OwnerID)
}
