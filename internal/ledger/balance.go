package ledger

import (
	"fmt"

	"github.com/govalues/decimal"
)

// AmountScale is the number of fractional digits amounts and balances are stored with.
const AmountScale = 4

// ValidScale reports whether d fits AmountScale once trailing zeros are dropped.
func ValidScale(d decimal.Decimal) bool { return d.Trim(0).Scale() <= AmountScale }

// ApplyAmount posts amount against acc in the direction given by t.
// It only mutates acc in memory; persisting the change is the caller's job.
func ApplyAmount(acc *Account, amount decimal.Decimal, t TransactionType) error {
	var (
		next decimal.Decimal
		err  error
	)
	switch t {
	case Income:
		next, err = acc.Balance.Add(amount)
	case Expense:
		next, err = acc.Balance.Sub(amount)
	default:
		return fmt.Errorf("apply amount: unknown transaction type %q", t)
	}
	if err != nil {
		return fmt.Errorf("apply amount: %w", err)
	}
	acc.Balance = next
	return nil
}

// Reverse undoes the effect tr had on acc.
func Reverse(acc *Account, tr Transaction) error {
	return ApplyAmount(acc, tr.Amount, tr.Type.Opposite())
}

// SignedSum returns the balance implied by txs.
func SignedSum(txs []Transaction) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, t := range txs {
		next, err := sum.Add(t.Signed())
		if err != nil {
			return decimal.Decimal{}, err
		}
		sum = next
	}
	return sum, nil
}

// FromSigned splits a signed value into the (type, magnitude) pair used for storage.
// Zero maps to Income.
func FromSigned(v decimal.Decimal) (TransactionType, decimal.Decimal) {
	if v.IsNeg() {
		return Expense, v.Abs()
	}
	return Income, v
}
