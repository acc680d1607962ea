// Package dictionary holds the curated reference data offered to new owners.
package dictionary

import "github.com/tinoosan/fintrack/internal/ledger"

type Def struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

var (
	accountTypes = []Def{
		{Code: "cash", Label: "Cash"},
		{Code: "bank", Label: "Bank"},
		{Code: "savings", Label: "Savings"},
		{Code: "credit_card", Label: "Credit Card"},
		{Code: "investment", Label: "Investment"},
		{Code: "loan", Label: "Loan"},
	}
	// Currency codes are ISO 4217 so cash-flow totals can be expressed as money amounts.
	currencies = []Def{
		{Code: "USD", Label: "US Dollar"},
		{Code: "EUR", Label: "Euro"},
		{Code: "GBP", Label: "Pound Sterling"},
		{Code: "BRL", Label: "Brazilian Real"},
		{Code: "JPY", Label: "Japanese Yen"},
	}
	categories = []Def{
		{Code: "salary", Label: "Salary"},
		{Code: "interest", Label: "Interest"},
		{Code: "refund", Label: "Refund"},
		{Code: "groceries", Label: "Groceries"},
		{Code: "eating_out", Label: "Eating Out"},
		{Code: "rent", Label: "Rent"},
		{Code: "utilities", Label: "Utilities"},
		{Code: "transport", Label: "Transport"},
		{Code: "shopping", Label: "Shopping"},
		{Code: "entertainment", Label: "Entertainment"},
		{Code: "general", Label: "General"},
	}
)

func AccountTypes() []Def { return clone(accountTypes) }
func Currencies() []Def   { return clone(currencies) }
func Categories() []Def   { return clone(categories) }

// IsReserved reports whether name belongs to a system category and cannot be
// used for an owner's own category.
func IsReserved(name string) bool {
	return ledger.NormalizeName(name) == ledger.NormalizeName(ledger.InitialBalanceCategoryName)
}

func clone(defs []Def) []Def {
	out := make([]Def, len(defs))
	copy(out, defs)
	return out
}
