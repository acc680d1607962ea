package account

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/storage"
)

// ensureInitialTransaction folds delta into the account's initial-balance
// transaction, creating it on first use. The stored amount stays non-negative;
// the type is recomputed from the sign of the resulting value.
// acc.Balance must already include delta.
func ensureInitialTransaction(ctx context.Context, tx storage.Tx, acc ledger.Account, delta decimal.Decimal, now time.Time) (ledger.Transaction, error) {
	existing, err := tx.InitialTransaction(ctx, acc.ID)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		typ, amount := ledger.FromSigned(delta)
		t := ledger.Transaction{
			ID:               uuid.New(),
			OwnerID:          acc.OwnerID,
			AccountID:        acc.ID,
			CategoryID:       ledger.InitialBalanceCategoryID,
			Amount:           amount,
			Type:             typ,
			CreatedOn:        now.UTC(),
			Reference:        ledger.InitialBalanceCategoryName,
			IsInitialBalance: true,
		}
		if err := tx.InsertTransaction(ctx, t); err != nil { return ledger.Transaction{}, err }
		return t, nil
	case err != nil:
		return ledger.Transaction{}, err
	}
	signed, err := existing.Signed().Add(delta)
	if err != nil { return ledger.Transaction{}, err }
	existing.Type, existing.Amount = ledger.FromSigned(signed)
	if err := tx.UpdateTransaction(ctx, existing); err != nil { return ledger.Transaction{}, err }
	return existing, nil
}
