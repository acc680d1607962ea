// Package account implements the account side of the ledger: creation with an
// opening balance, edits that re-base the balance through the initial-balance
// transaction, and soft or hard deletes. Every write is one unit of work.
package account

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/tinoosan/fintrack/internal/cache"
	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/metrics"
	"github.com/tinoosan/fintrack/internal/service/validate"
	"github.com/tinoosan/fintrack/internal/storage"
)

type Service interface {
	Create(ctx context.Context, a ledger.Account) (ledger.Account, error)
	Update(ctx context.Context, accountID uuid.UUID, actor ledger.Actor, p Patch) (ledger.Account, error)
	Delete(ctx context.Context, accountID uuid.UUID, actor ledger.Actor, hard bool) error
	Get(ctx context.Context, accountID uuid.UUID, actor ledger.Actor) (ledger.Account, error)
}

// Patch is a partial account edit. Nil fields keep the stored value; a nil
// Balance never touches the initial-balance transaction.
type Patch struct {
	Name          *string
	Balance       *decimal.Decimal
	AccountTypeID *uuid.UUID
	CurrencyID    *uuid.UUID
}

type service struct {
	store storage.Store
	cache cache.AccountOptions
	log   *slog.Logger
	now   func() time.Time
}

// New builds the account service. A nil cache disables caching; a nil logger uses slog.Default.
func New(store storage.Store, c cache.AccountOptions, logger *slog.Logger) Service {
	if c == nil { c = cache.Nop{} }
	if logger == nil { logger = slog.Default() }
	return &service{store: store, cache: c, log: logger, now: time.Now}
}

// Create validates and persists a new account. A non-zero starting balance is
// represented by an initial-balance transaction committed with the account.
func (s *service) Create(ctx context.Context, in ledger.Account) (acc ledger.Account, err error) {
	defer func() { metrics.Operation("create_account", errs.Code(err)) }()
	if in.OwnerID == uuid.Nil { return ledger.Account{}, errs.ErrInvalid }
	name, err := validate.Name(in.Name)
	if err != nil { return ledger.Account{}, err }
	if !ledger.ValidScale(in.Balance) { return ledger.Account{}, errs.ErrInvalid }

	tx, err := s.store.Begin(ctx)
	if err != nil { return ledger.Account{}, err }
	defer func() { _ = tx.Rollback(ctx) }()

	if err := checkConfiguration(ctx, tx, in.OwnerID, in.AccountTypeID, in.CurrencyID); err != nil {
		return ledger.Account{}, err
	}
	existing, err := tx.ListAccounts(ctx, ledger.AccountFilter{OwnerID: &in.OwnerID})
	if err != nil { return ledger.Account{}, err }
	if validate.NameTaken(existing, name, uuid.Nil) {
		return ledger.Account{}, errs.ErrDuplicateName
	}

	acc = ledger.Account{
		ID:            uuid.New(),
		OwnerID:       in.OwnerID,
		Name:          name,
		Balance:       in.Balance,
		AccountTypeID: in.AccountTypeID,
		CurrencyID:    in.CurrencyID,
	}
	if err := tx.InsertAccount(ctx, acc); err != nil { return ledger.Account{}, err }
	if !acc.Balance.IsZero() {
		if _, err := ensureInitialTransaction(ctx, tx, acc, acc.Balance, s.now()); err != nil {
			return ledger.Account{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil { return ledger.Account{}, err }

	s.log.Debug("account created", "account_id", acc.ID, "owner_id", acc.OwnerID, "balance", acc.Balance.String())
	s.invalidate(ctx, acc.OwnerID)
	return acc, nil
}

// Update applies p to the account as stored inside the unit of work. Only a
// supplied balance is re-based, as a delta on the initial-balance transaction.
func (s *service) Update(ctx context.Context, accountID uuid.UUID, actor ledger.Actor, p Patch) (acc ledger.Account, err error) {
	defer func() { metrics.Operation("update_account", errs.Code(err)) }()
	if accountID == uuid.Nil { return ledger.Account{}, errs.ErrInvalid }
	var name string
	if p.Name != nil {
		if name, err = validate.Name(*p.Name); err != nil { return ledger.Account{}, err }
	}
	if p.Balance != nil && !ledger.ValidScale(*p.Balance) { return ledger.Account{}, errs.ErrInvalid }

	tx, err := s.store.Begin(ctx)
	if err != nil { return ledger.Account{}, err }
	defer func() { _ = tx.Rollback(ctx) }()

	acc, err = tx.GetAccount(ctx, accountID)
	if err != nil { return ledger.Account{}, err }
	if acc.Deleted || !actor.CanAct(acc.OwnerID) { return ledger.Account{}, errs.ErrNotFound }

	if p.Name != nil && ledger.NormalizeName(name) != ledger.NormalizeName(acc.Name) {
		existing, err := tx.ListAccounts(ctx, ledger.AccountFilter{OwnerID: &acc.OwnerID})
		if err != nil { return ledger.Account{}, err }
		if validate.NameTaken(existing, name, acc.ID) {
			return ledger.Account{}, errs.ErrDuplicateName
		}
	}
	if p.Name != nil { acc.Name = name }
	if p.AccountTypeID != nil { acc.AccountTypeID = *p.AccountTypeID }
	if p.CurrencyID != nil { acc.CurrencyID = *p.CurrencyID }
	if p.AccountTypeID != nil || p.CurrencyID != nil {
		if err := checkConfiguration(ctx, tx, acc.OwnerID, acc.AccountTypeID, acc.CurrencyID); err != nil {
			return ledger.Account{}, err
		}
	}

	if p.Balance != nil && p.Balance.Cmp(acc.Balance) != 0 {
		delta, err := p.Balance.Sub(acc.Balance)
		if err != nil { return ledger.Account{}, err }
		acc.Balance = *p.Balance
		if _, err := ensureInitialTransaction(ctx, tx, acc, delta, s.now()); err != nil {
			return ledger.Account{}, err
		}
	}
	if err := tx.UpdateAccount(ctx, acc); err != nil { return ledger.Account{}, err }
	if err := tx.Commit(ctx); err != nil { return ledger.Account{}, err }

	s.log.Debug("account updated", "account_id", acc.ID, "balance", acc.Balance.String(), "actor_id", actor.UserID)
	s.invalidate(ctx, acc.OwnerID)
	return acc, nil
}

// Delete removes an account. A soft delete only flags the account; a hard
// delete removes it together with all its transactions.
func (s *service) Delete(ctx context.Context, accountID uuid.UUID, actor ledger.Actor, hard bool) (err error) {
	op := "soft_delete_account"
	if hard { op = "hard_delete_account" }
	defer func() { metrics.Operation(op, errs.Code(err)) }()

	tx, err := s.store.Begin(ctx)
	if err != nil { return err }
	defer func() { _ = tx.Rollback(ctx) }()

	acc, err := tx.GetAccount(ctx, accountID)
	if err != nil { return err }
	if acc.Deleted { return errs.ErrNotFound }
	if !actor.CanAct(acc.OwnerID) { return errs.ErrUnauthorized }

	if hard {
		err = tx.DeleteAccount(ctx, acc.ID)
	} else {
		acc.Deleted = true
		err = tx.UpdateAccount(ctx, acc)
	}
	if err != nil { return err }
	if err := tx.Commit(ctx); err != nil { return err }

	s.log.Debug("account deleted", "account_id", acc.ID, "hard", hard, "actor_id", actor.UserID)
	s.invalidate(ctx, acc.OwnerID)
	return nil
}

// Get returns an active account the actor may see.
func (s *service) Get(ctx context.Context, accountID uuid.UUID, actor ledger.Actor) (ledger.Account, error) {
	acc, err := s.store.GetAccount(ctx, accountID)
	if err != nil { return ledger.Account{}, err }
	if acc.Deleted { return ledger.Account{}, errs.ErrNotFound }
	if !actor.CanAct(acc.OwnerID) { return ledger.Account{}, errs.ErrUnauthorized }
	return acc, nil
}

// checkConfiguration verifies the account type and currency belong to owner and are active.
func checkConfiguration(ctx context.Context, r storage.Reader, ownerID, accountTypeID, currencyID uuid.UUID) error {
	if _, err := validate.Owned(ctx, r.GetAccountType, accountTypeID, ownerID, errs.ErrInvalidConfiguration); err != nil {
		return err
	}
	if _, err := validate.Owned(ctx, r.GetCurrency, currencyID, ownerID, errs.ErrInvalidConfiguration); err != nil {
		return err
	}
	return nil
}

// invalidate drops the owner's cached account listing. Failures are logged only:
// the write is already committed and the entry expires on its own.
func (s *service) invalidate(ctx context.Context, ownerID uuid.UUID) {
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.log.Warn("account options cache invalidation failed", "owner_id", ownerID, "cache", s.cache.Name(), "err", err)
	}
}
