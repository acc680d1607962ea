package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

var errBad = errors.New("bad")

func lookup(items ...ledger.Category) func(context.Context, uuid.UUID) (ledger.Category, error) {
	return func(_ context.Context, id uuid.UUID) (ledger.Category, error) {
		for _, c := range items {
			if c.ID == id { return c, nil }
		}
		return ledger.Category{}, errs.ErrNotFound
	}
}

func TestOwned(t *testing.T) {
	ctx := context.Background()
	owner := uuid.New()
	mine := ledger.Category{ID: uuid.New(), OwnerID: owner, Name: "Food"}
	theirs := ledger.Category{ID: uuid.New(), OwnerID: uuid.New(), Name: "Food"}
	gone := ledger.Category{ID: uuid.New(), OwnerID: owner, Name: "Old", Deleted: true}
	get := lookup(mine, theirs, gone, ledger.InitialBalanceCategory())

	got, err := Owned(ctx, get, mine.ID, owner, errBad)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = Owned(ctx, get, ledger.InitialBalanceCategoryID, owner, errBad)
	assert.NoError(t, err, "system records are shared")

	for _, id := range []uuid.UUID{theirs.ID, gone.ID, uuid.New(), uuid.Nil} {
		_, err = Owned(ctx, get, id, owner, errBad)
		assert.ErrorIs(t, err, errBad)
	}

	boom := errors.New("db down")
	_, err = Owned(ctx, func(context.Context, uuid.UUID) (ledger.Category, error) { return ledger.Category{}, boom }, mine.ID, owner, errBad)
	assert.ErrorIs(t, err, boom)
}

func TestNameTaken(t *testing.T) {
	a := ledger.Account{ID: uuid.New(), Name: "Cash"}
	b := ledger.Account{ID: uuid.New(), Name: "Old", Deleted: true}
	items := []ledger.Account{a, b}

	assert.True(t, NameTaken(items, " CASH ", uuid.Nil))
	assert.False(t, NameTaken(items, "cash", a.ID))
	assert.False(t, NameTaken(items, "old", uuid.Nil))
}

func TestName(t *testing.T) {
	n, err := Name("  Wallet  ")
	require.NoError(t, err)
	assert.Equal(t, "Wallet", n)

	_, err = Name(" \t ")
	assert.ErrorIs(t, err, errs.ErrInvalid)
}
