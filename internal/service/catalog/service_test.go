package catalog_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/fintrack/internal/dictionary"
	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/catalog"
	"github.com/tinoosan/fintrack/internal/storage/memory"
)

func newService() (catalog.Service, *memory.Store) {
	store := memory.New()
	return catalog.New(store, slog.New(slog.NewTextHandler(io.Discard, nil))), store
}

func TestCreateCategory(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	owner := uuid.New()

	c, err := svc.CreateCategory(ctx, owner, "  Travel ")
	require.NoError(t, err)
	assert.Equal(t, "Travel", c.Name)
	assert.Equal(t, owner, c.OwnerID)

	_, err = svc.CreateCategory(ctx, owner, "travel")
	assert.ErrorIs(t, err, errs.ErrDuplicateName)

	// another owner may reuse the name
	_, err = svc.CreateCategory(ctx, uuid.New(), "Travel")
	assert.NoError(t, err)

	_, err = svc.CreateCategory(ctx, owner, "initial balance")
	assert.ErrorIs(t, err, errs.ErrSystemCategory)

	_, err = svc.CreateCategory(ctx, owner, "")
	assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestListCategories_StartsWithSystemCategory(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	owner := uuid.New()
	_, err := svc.CreateCategory(ctx, owner, "Travel")
	require.NoError(t, err)

	list, err := svc.ListCategories(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.True(t, list[0].System())
	assert.Equal(t, "Travel", list[1].Name)
}

func TestCreateCurrency_NormalizesCode(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	owner := uuid.New()

	c, err := svc.CreateCurrency(ctx, owner, "Swiss Franc", " chf ")
	require.NoError(t, err)
	assert.Equal(t, "CHF", c.Code)

	_, err = svc.CreateCurrency(ctx, owner, "Nothing", "  ")
	assert.ErrorIs(t, err, errs.ErrInvalid)
}

func TestDelete(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()
	owner := uuid.New()

	at, err := svc.CreateAccountType(ctx, owner, "Brokerage")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.DeleteAccountType(ctx, at.ID, ledger.Actor{UserID: uuid.New()}), errs.ErrUnauthorized)
	require.NoError(t, svc.DeleteAccountType(ctx, at.ID, ledger.Actor{UserID: owner}))
	assert.ErrorIs(t, svc.DeleteAccountType(ctx, at.ID, ledger.Actor{UserID: owner}), errs.ErrNotFound)

	stored, err := store.GetAccountType(ctx, at.ID)
	require.NoError(t, err)
	assert.True(t, stored.Deleted)

	list, err := svc.ListAccountTypes(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)

	// the name is free again
	_, err = svc.CreateAccountType(ctx, owner, "Brokerage")
	assert.NoError(t, err)

	err = svc.DeleteCategory(ctx, ledger.InitialBalanceCategoryID, ledger.Actor{UserID: owner, IsAdmin: true})
	assert.ErrorIs(t, err, errs.ErrSystemCategory)
	assert.ErrorIs(t, svc.DeleteCurrency(ctx, uuid.New(), ledger.Actor{UserID: owner}), errs.ErrNotFound)
}

func TestSeedDefaults(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	owner := uuid.New()

	_, err := svc.CreateCurrency(ctx, owner, "Bitcoin", "XBT")
	require.NoError(t, err)

	seeded, err := svc.SeedDefaults(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, len(dictionary.AccountTypes()), seeded.AccountTypes)
	assert.Equal(t, len(dictionary.Categories()), seeded.Categories)
	assert.Zero(t, seeded.Currencies, "owner already had a currency")

	again, err := svc.SeedDefaults(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, catalog.Seeded{}, again)

	cats, err := svc.ListCategories(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, cats, len(dictionary.Categories())+1)

	_, err = svc.SeedDefaults(ctx, uuid.Nil)
	assert.ErrorIs(t, err, errs.ErrInvalid)
}
