package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
)

// TransactionType carries the direction of a transaction. Amounts are stored
// as non-negative magnitudes; the type alone decides the sign.
type TransactionType string

const (
	// Income increases the balance of the account it is posted against.
	Income TransactionType = "income"
	// Expense decreases the balance of the account it is posted against.
	Expense TransactionType = "expense"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool { return t == Income || t == Expense }

// Opposite returns the type that undoes t.
func (t TransactionType) Opposite() TransactionType {
	if t == Income {
		return Expense
	}
	return Income
}

// InitialBalanceCategoryName names the system category used by initial-balance transactions.
const InitialBalanceCategoryName = "Initial Balance"

// InitialBalanceCategoryID is the well-known id of the system "Initial Balance" category.
// It has no owner and is valid for every user.
var InitialBalanceCategoryID = uuid.MustParse("00000000-0000-0000-0000-00000000b001")

// OwnedEntity is implemented by every owner-scoped, soft-deletable record.
type OwnedEntity interface {
	EntityID() uuid.UUID
	Owner() uuid.UUID
	IsDeleted() bool
	DisplayName() string
}

// Actor carries the authorization facts supplied by the caller.
type Actor struct {
	UserID  uuid.UUID
	IsAdmin bool
}

// CanAct reports whether the actor may modify a resource owned by ownerID.
func (a Actor) CanAct(ownerID uuid.UUID) bool {
	return a.IsAdmin || (a.UserID != uuid.Nil && a.UserID == ownerID)
}

// Account is a user's money container. Balance is derived from its transactions.
type Account struct {
	ID            uuid.UUID
	OwnerID       uuid.UUID
	Name          string
	Balance       decimal.Decimal
	AccountTypeID uuid.UUID
	CurrencyID    uuid.UUID
	// Deleted marks a soft-deleted account; its transactions stay attached.
	Deleted bool
}

func (a Account) EntityID() uuid.UUID  { return a.ID }
func (a Account) Owner() uuid.UUID     { return a.OwnerID }
func (a Account) IsDeleted() bool      { return a.Deleted }
func (a Account) DisplayName() string  { return a.Name }

// Transaction is a single posting against an account.
type Transaction struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	AccountID  uuid.UUID
	CategoryID uuid.UUID
	// Amount is never negative; see Type for direction.
	Amount    decimal.Decimal
	Type      TransactionType
	CreatedOn time.Time
	Reference string
	// IsInitialBalance marks the synthetic opening-balance entry of an account.
	IsInitialBalance bool
}

// Signed returns the transaction's contribution to its account balance.
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Category classifies transactions.
type Category struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Name    string
	Deleted bool
}

func (c Category) EntityID() uuid.UUID { return c.ID }
func (c Category) Owner() uuid.UUID    { return c.OwnerID }
func (c Category) IsDeleted() bool     { return c.Deleted }
func (c Category) DisplayName() string { return c.Name }

// System reports whether c is a built-in category shared by all owners.
func (c Category) System() bool { return c.ID == InitialBalanceCategoryID }

// InitialBalanceCategory returns the system category record.
func InitialBalanceCategory() Category {
	return Category{ID: InitialBalanceCategoryID, Name: InitialBalanceCategoryName}
}

// Currency is an owner-defined currency. Code is usually an ISO 4217 code.
type Currency struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Name    string
	Code    string
	Deleted bool
}

func (c Currency) EntityID() uuid.UUID { return c.ID }
func (c Currency) Owner() uuid.UUID    { return c.OwnerID }
func (c Currency) IsDeleted() bool     { return c.Deleted }
func (c Currency) DisplayName() string { return c.Name }

// AccountType is an owner-defined account classification (e.g. Cash, Bank, Credit Card).
type AccountType struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
	Name    string
	Deleted bool
}

func (t AccountType) EntityID() uuid.UUID { return t.ID }
func (t AccountType) Owner() uuid.UUID    { return t.OwnerID }
func (t AccountType) IsDeleted() bool     { return t.Deleted }
func (t AccountType) DisplayName() string { return t.Name }

// AccountOption is the lightweight projection used by account pickers.
type AccountOption struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	CurrencyCode string    `json:"currency_code"`
}

// NormalizeName folds a display name for per-owner uniqueness checks.
func NormalizeName(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
