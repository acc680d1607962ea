package ledger

import (
	"time"

	"github.com/google/uuid"
)

// AccountFilter narrows account listings. A nil OwnerID means every owner.
type AccountFilter struct {
	OwnerID        *uuid.UUID
	IncludeDeleted bool
}

// TransactionFilter narrows transaction listings. Nil fields are ignored.
// From is inclusive and To exclusive; both are compared in UTC.
type TransactionFilter struct {
	OwnerID       *uuid.UUID
	AccountID     *uuid.UUID
	CategoryID    *uuid.UUID
	CurrencyID    *uuid.UUID
	AccountTypeID *uuid.UUID
	From          *time.Time
	To            *time.Time
	// IncludeDeletedAccounts keeps transactions of soft-deleted accounts in the result.
	IncludeDeletedAccounts bool
	// Limit and Offset page the result; Limit 0 means no limit.
	Limit  int
	Offset int
}

// Matches reports whether t (posted against acc) passes every non-paging criterion.
func (f TransactionFilter) Matches(t Transaction, acc Account) bool {
	if f.OwnerID != nil && t.OwnerID != *f.OwnerID { return false }
	if f.AccountID != nil && t.AccountID != *f.AccountID { return false }
	if f.CategoryID != nil && t.CategoryID != *f.CategoryID { return false }
	if f.CurrencyID != nil && acc.CurrencyID != *f.CurrencyID { return false }
	if f.AccountTypeID != nil && acc.AccountTypeID != *f.AccountTypeID { return false }
	if f.From != nil && t.CreatedOn.Before(f.From.UTC()) { return false }
	if f.To != nil && !t.CreatedOn.Before(f.To.UTC()) { return false }
	if acc.Deleted && !f.IncludeDeletedAccounts { return false }
	return true
}

// Page selects a 1-based page of results.
type Page struct {
	Number int
	Size   int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
	MaxPageNumber   = 1_000_000
)

// Normalize clamps p to sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 { p.Number = 1 }
	if p.Number > MaxPageNumber { p.Number = MaxPageNumber }
	if p.Size <= 0 { p.Size = DefaultPageSize }
	if p.Size > MaxPageSize { p.Size = MaxPageSize }
	return p
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int { n := p.Normalize(); return (n.Number - 1) * n.Size }
