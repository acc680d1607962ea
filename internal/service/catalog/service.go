// Package catalog manages the owner-scoped reference data accounts and
// transactions point at: categories, currencies and account types.
package catalog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/tinoosan/fintrack/internal/dictionary"
	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/metrics"
	"github.com/tinoosan/fintrack/internal/storage"
)

// Seeded counts the records SeedDefaults created.
type Seeded struct {
	Categories   int `json:"categories"`
	Currencies   int `json:"currencies"`
	AccountTypes int `json:"account_types"`
}

type Service interface {
	CreateCategory(ctx context.Context, ownerID uuid.UUID, name string) (ledger.Category, error)
	CreateCurrency(ctx context.Context, ownerID uuid.UUID, name, code string) (ledger.Currency, error)
	CreateAccountType(ctx context.Context, ownerID uuid.UUID, name string) (ledger.AccountType, error)

	ListCategories(ctx context.Context, ownerID uuid.UUID) ([]ledger.Category, error)
	ListCurrencies(ctx context.Context, ownerID uuid.UUID) ([]ledger.Currency, error)
	ListAccountTypes(ctx context.Context, ownerID uuid.UUID) ([]ledger.AccountType, error)

	DeleteCategory(ctx context.Context, id uuid.UUID, actor ledger.Actor) error
	DeleteCurrency(ctx context.Context, id uuid.UUID, actor ledger.Actor) error
	DeleteAccountType(ctx context.Context, id uuid.UUID, actor ledger.Actor) error

	// SeedDefaults gives the owner the curated defaults for every kind it has none of yet.
	SeedDefaults(ctx context.Context, ownerID uuid.UUID) (Seeded, error)
}

type service struct {
	store storage.Store
	log   *slog.Logger
}

func New(store storage.Store, logger *slog.Logger) Service {
	if logger == nil { logger = slog.Default() }
	return &service{store: store, log: logger}
}

func (s *service) CreateCategory(ctx context.Context, ownerID uuid.UUID, name string) (ledger.Category, error) {
	if dictionary.IsReserved(name) { return ledger.Category{}, errs.ErrSystemCategory }
	return create(ctx, s, categoryKind, ledger.Category{OwnerID: ownerID, Name: name})
}

func (s *service) CreateCurrency(ctx context.Context, ownerID uuid.UUID, name, code string) (ledger.Currency, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" { return ledger.Currency{}, errs.ErrInvalid }
	return create(ctx, s, currencyKind, ledger.Currency{OwnerID: ownerID, Name: name, Code: code})
}

func (s *service) CreateAccountType(ctx context.Context, ownerID uuid.UUID, name string) (ledger.AccountType, error) {
	return create(ctx, s, accountTypeKind, ledger.AccountType{OwnerID: ownerID, Name: name})
}

// ListCategories returns the owner's categories preceded by the system category.
func (s *service) ListCategories(ctx context.Context, ownerID uuid.UUID) ([]ledger.Category, error) {
	own, err := s.store.ListCategories(ctx, ownerID)
	if err != nil { return nil, err }
	return append([]ledger.Category{ledger.InitialBalanceCategory()}, own...), nil
}

func (s *service) ListCurrencies(ctx context.Context, ownerID uuid.UUID) ([]ledger.Currency, error) {
	return s.store.ListCurrencies(ctx, ownerID)
}

func (s *service) ListAccountTypes(ctx context.Context, ownerID uuid.UUID) ([]ledger.AccountType, error) {
	return s.store.ListAccountTypes(ctx, ownerID)
}

func (s *service) DeleteCategory(ctx context.Context, id uuid.UUID, actor ledger.Actor) error {
	return remove(ctx, s, categoryKind, id, actor)
}

func (s *service) DeleteCurrency(ctx context.Context, id uuid.UUID, actor ledger.Actor) error {
	return remove(ctx, s, currencyKind, id, actor)
}

func (s *service) DeleteAccountType(ctx context.Context, id uuid.UUID, actor ledger.Actor) error {
	return remove(ctx, s, accountTypeKind, id, actor)
}

func (s *service) SeedDefaults(ctx context.Context, ownerID uuid.UUID) (out Seeded, err error) {
	defer func() { metrics.Operation("seed_catalog", errs.Code(err)) }()
	if ownerID == uuid.Nil { return Seeded{}, errs.ErrInvalid }

	tx, err := s.store.Begin(ctx)
	if err != nil { return Seeded{}, err }
	defer func() { _ = tx.Rollback(ctx) }()

	if out.AccountTypes, err = seed(ctx, tx, accountTypeKind, ownerID, dictionary.AccountTypes(), func(d dictionary.Def) ledger.AccountType {
		return ledger.AccountType{ID: uuid.New(), OwnerID: ownerID, Name: d.Label}
	}); err != nil {
		return Seeded{}, err
	}
	if out.Currencies, err = seed(ctx, tx, currencyKind, ownerID, dictionary.Currencies(), func(d dictionary.Def) ledger.Currency {
		return ledger.Currency{ID: uuid.New(), OwnerID: ownerID, Name: d.Label, Code: d.Code}
	}); err != nil {
		return Seeded{}, err
	}
	if out.Categories, err = seed(ctx, tx, categoryKind, ownerID, dictionary.Categories(), func(d dictionary.Def) ledger.Category {
		return ledger.Category{ID: uuid.New(), OwnerID: ownerID, Name: d.Label}
	}); err != nil {
		return Seeded{}, err
	}
	if err := tx.Commit(ctx); err != nil { return Seeded{}, err }

	s.log.Info("catalog seeded", "owner_id", ownerID, "categories", out.Categories, "currencies", out.Currencies, "account_types", out.AccountTypes)
	return out, nil
}
