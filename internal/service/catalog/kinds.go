package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/tinoosan/fintrack/internal/dictionary"
	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/metrics"
	"github.com/tinoosan/fintrack/internal/service/validate"
	"github.com/tinoosan/fintrack/internal/storage"
)

// kind binds the store operations of one reference entity type so the
// create/delete rules are written once.
type kind[T ledger.OwnedEntity] struct {
	name    string
	get     func(ctx context.Context, r storage.Reader, id uuid.UUID) (T, error)
	list    func(ctx context.Context, r storage.Reader, ownerID uuid.UUID) ([]T, error)
	put     func(ctx context.Context, w storage.Writer, v T) error
	prepare func(v T, id uuid.UUID, name string, deleted bool) T
}

var categoryKind = kind[ledger.Category]{
	name: "category",
	get:  func(ctx context.Context, r storage.Reader, id uuid.UUID) (ledger.Category, error) { return r.GetCategory(ctx, id) },
	list: func(ctx context.Context, r storage.Reader, o uuid.UUID) ([]ledger.Category, error) { return r.ListCategories(ctx, o) },
	put:  func(ctx context.Context, w storage.Writer, v ledger.Category) error { return w.PutCategory(ctx, v) },
	prepare: func(v ledger.Category, id uuid.UUID, name string, deleted bool) ledger.Category {
		v.ID, v.Name, v.Deleted = id, name, deleted
		return v
	},
}

var currencyKind = kind[ledger.Currency]{
	name: "currency",
	get:  func(ctx context.Context, r storage.Reader, id uuid.UUID) (ledger.Currency, error) { return r.GetCurrency(ctx, id) },
	list: func(ctx context.Context, r storage.Reader, o uuid.UUID) ([]ledger.Currency, error) { return r.ListCurrencies(ctx, o) },
	put:  func(ctx context.Context, w storage.Writer, v ledger.Currency) error { return w.PutCurrency(ctx, v) },
	prepare: func(v ledger.Currency, id uuid.UUID, name string, deleted bool) ledger.Currency {
		v.ID, v.Name, v.Deleted = id, name, deleted
		return v
	},
}

var accountTypeKind = kind[ledger.AccountType]{
	name: "account_type",
	get:  func(ctx context.Context, r storage.Reader, id uuid.UUID) (ledger.AccountType, error) { return r.GetAccountType(ctx, id) },
	list: func(ctx context.Context, r storage.Reader, o uuid.UUID) ([]ledger.AccountType, error) { return r.ListAccountTypes(ctx, o) },
	put:  func(ctx context.Context, w storage.Writer, v ledger.AccountType) error { return w.PutAccountType(ctx, v) },
	prepare: func(v ledger.AccountType, id uuid.UUID, name string, deleted bool) ledger.AccountType {
		v.ID, v.Name, v.Deleted = id, name, deleted
		return v
	},
}

func create[T ledger.OwnedEntity](ctx context.Context, s *service, k kind[T], v T) (out T, err error) {
	defer func() { metrics.Operation("create_"+k.name, errs.Code(err)) }()
	var zero T
	if v.Owner() == uuid.Nil { return zero, errs.ErrInvalid }
	name, err := validate.Name(v.DisplayName())
	if err != nil { return zero, err }

	tx, err := s.store.Begin(ctx)
	if err != nil { return zero, err }
	defer func() { _ = tx.Rollback(ctx) }()

	existing, err := k.list(ctx, tx, v.Owner())
	if err != nil { return zero, err }
	if validate.NameTaken(existing, name, uuid.Nil) { return zero, errs.ErrDuplicateName }

	out = k.prepare(v, uuid.New(), name, false)
	if err := k.put(ctx, tx, out); err != nil { return zero, err }
	if err := tx.Commit(ctx); err != nil { return zero, err }
	s.log.Debug(k.name+" created", "id", out.EntityID(), "owner_id", out.Owner())
	return out, nil
}

// remove soft-deletes a record. Records without an owner are system records.
func remove[T ledger.OwnedEntity](ctx context.Context, s *service, k kind[T], id uuid.UUID, actor ledger.Actor) (err error) {
	defer func() { metrics.Operation("delete_"+k.name, errs.Code(err)) }()
	tx, err := s.store.Begin(ctx)
	if err != nil { return err }
	defer func() { _ = tx.Rollback(ctx) }()

	v, err := k.get(ctx, tx, id)
	if err != nil { return err }
	if v.IsDeleted() { return errs.ErrNotFound }
	if v.Owner() == uuid.Nil { return errs.ErrSystemCategory }
	if !actor.CanAct(v.Owner()) { return errs.ErrUnauthorized }

	if err := k.put(ctx, tx, k.prepare(v, v.EntityID(), v.DisplayName(), true)); err != nil { return err }
	if err := tx.Commit(ctx); err != nil { return err }
	s.log.Debug(k.name+" deleted", "id", id, "actor_id", actor.UserID)
	return nil
}

// seed inserts defs for ownerID unless the owner already has records of this kind.
func seed[T ledger.OwnedEntity](ctx context.Context, tx storage.Tx, k kind[T], ownerID uuid.UUID, defs []dictionary.Def, build func(dictionary.Def) T) (int, error) {
	existing, err := k.list(ctx, tx, ownerID)
	if err != nil { return 0, err }
	if len(existing) > 0 { return 0, nil }
	for _, d := range defs {
		if err := k.put(ctx, tx, build(d)); err != nil { return 0, err }
	}
	return len(defs), nil
}
