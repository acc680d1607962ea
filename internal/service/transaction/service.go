// Package transaction posts, edits and removes transactions, keeping the
// owning account balances in step inside a single unit of work.
package transaction

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/metrics"
	"github.com/tinoosan/fintrack/internal/service/validate"
	"github.com/tinoosan/fintrack/internal/storage"
)

// Options tunes service behaviour.
type Options struct {
	// RejectDeletedAccounts makes postings to a soft-deleted account fail with
	// errs.ErrNotFound. When false such postings are accepted.
	RejectDeletedAccounts bool
}

type Service interface {
	Create(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
	Update(ctx context.Context, t ledger.Transaction) (ledger.Transaction, error)
	Delete(ctx context.Context, transactionID uuid.UUID, actor ledger.Actor) (decimal.Decimal, error)
}

type service struct {
	store storage.Store
	opts  Options
	log   *slog.Logger
	now   func() time.Time
}

func New(store storage.Store, opts Options, logger *slog.Logger) Service {
	if logger == nil { logger = slog.Default() }
	return &service{store: store, opts: opts, log: logger, now: time.Now}
}

// Create posts in against its account and returns the stored transaction.
// in.OwnerID is the acting owner; the account must belong to it.
func (s *service) Create(ctx context.Context, in ledger.Transaction) (tr ledger.Transaction, err error) {
	defer func() { metrics.Operation("create_transaction", errs.Code(err)) }()
	if in.OwnerID == uuid.Nil { return ledger.Transaction{}, errs.ErrInvalid }

	tx, err := s.store.Begin(ctx)
	if err != nil { return ledger.Transaction{}, err }
	defer func() { _ = tx.Rollback(ctx) }()

	acc, err := s.account(ctx, tx, in.AccountID, in.OwnerID)
	if err != nil { return ledger.Transaction{}, err }
	if _, err := validate.Owned(ctx, tx.GetCategory, in.CategoryID, in.OwnerID, errs.ErrInvalidCategory); err != nil {
		return ledger.Transaction{}, err
	}
	if err := checkAmount(in); err != nil { return ledger.Transaction{}, err }

	tr = ledger.Transaction{
		ID:         uuid.New(),
		OwnerID:    in.OwnerID,
		AccountID:  acc.ID,
		CategoryID: in.CategoryID,
		Amount:     in.Amount,
		Type:       in.Type,
		CreatedOn:  s.createdOn(in.CreatedOn),
		Reference:  in.Reference,
	}
	if err := tx.InsertTransaction(ctx, tr); err != nil { return ledger.Transaction{}, err }
	if err := ledger.ApplyAmount(&acc, tr.Amount, tr.Type); err != nil { return ledger.Transaction{}, err }
	if err := tx.UpdateAccount(ctx, acc); err != nil { return ledger.Transaction{}, err }
	if err := tx.Commit(ctx); err != nil { return ledger.Transaction{}, err }

	s.log.Debug("transaction created", "transaction_id", tr.ID, "account_id", acc.ID, "type", tr.Type, "amount", tr.Amount.String())
	return tr, nil
}

// Update rewrites an ordinary transaction. When the account, type or amount
// change, the old effect is reversed on the old account and the new effect is
// applied to the (possibly different) new account.
// A non-nil in.OwnerID must match the stored owner.
func (s *service) Update(ctx context.Context, in ledger.Transaction) (tr ledger.Transaction, err error) {
	defer func() { metrics.Operation("update_transaction", errs.Code(err)) }()

	tx, err := s.store.Begin(ctx)
	if err != nil { return ledger.Transaction{}, err }
	defer func() { _ = tx.Rollback(ctx) }()

	old, err := tx.GetTransaction(ctx, in.ID)
	if err != nil { return ledger.Transaction{}, err }
	if in.OwnerID != uuid.Nil && in.OwnerID != old.OwnerID { return ledger.Transaction{}, errs.ErrNotFound }
	if old.IsInitialBalance { return ledger.Transaction{}, errs.ErrCannotEditInitialTransaction }
	if _, err := validate.Owned(ctx, tx.GetCategory, in.CategoryID, old.OwnerID, errs.ErrInvalidCategory); err != nil {
		return ledger.Transaction{}, err
	}
	if err := checkAmount(in); err != nil { return ledger.Transaction{}, err }

	from, err := tx.GetAccount(ctx, old.AccountID)
	if err != nil { return ledger.Transaction{}, err }
	to := from
	moved := in.AccountID != old.AccountID
	if moved {
		if to, err = s.account(ctx, tx, in.AccountID, old.OwnerID); err != nil {
			return ledger.Transaction{}, err
		}
	}

	if moved || in.Type != old.Type || in.Amount.Cmp(old.Amount) != 0 {
		if err := ledger.Reverse(&from, old); err != nil { return ledger.Transaction{}, err }
		if !moved { to = from }
		if err := ledger.ApplyAmount(&to, in.Amount, in.Type); err != nil { return ledger.Transaction{}, err }
		if moved {
			if err := tx.UpdateAccount(ctx, from); err != nil { return ledger.Transaction{}, err }
		}
		if err := tx.UpdateAccount(ctx, to); err != nil { return ledger.Transaction{}, err }
	}

	tr = old
	tr.AccountID = to.ID
	tr.CategoryID = in.CategoryID
	tr.Amount = in.Amount
	tr.Type = in.Type
	tr.Reference = in.Reference
	if !in.CreatedOn.IsZero() { tr.CreatedOn = in.CreatedOn.UTC() }
	if err := tx.UpdateTransaction(ctx, tr); err != nil { return ledger.Transaction{}, err }
	if err := tx.Commit(ctx); err != nil { return ledger.Transaction{}, err }

	s.log.Debug("transaction updated", "transaction_id", tr.ID, "from_account_id", from.ID, "to_account_id", to.ID)
	return tr, nil
}

// Delete removes a transaction and returns the balance its account is left with.
func (s *service) Delete(ctx context.Context, transactionID uuid.UUID, actor ledger.Actor) (balance decimal.Decimal, err error) {
	defer func() { metrics.Operation("delete_transaction", errs.Code(err)) }()

	tx, err := s.store.Begin(ctx)
	if err != nil { return decimal.Decimal{}, err }
	defer func() { _ = tx.Rollback(ctx) }()

	tr, err := tx.GetTransaction(ctx, transactionID)
	if err != nil { return decimal.Decimal{}, err }
	if !actor.CanAct(tr.OwnerID) { return decimal.Decimal{}, errs.ErrUnauthorized }
	acc, err := tx.GetAccount(ctx, tr.AccountID)
	if err != nil { return decimal.Decimal{}, err }

	// Posting the opposite type cancels the original contribution.
	tr.Type = tr.Type.Opposite()
	if err := ledger.ApplyAmount(&acc, tr.Amount, tr.Type); err != nil { return decimal.Decimal{}, err }
	if err := tx.UpdateAccount(ctx, acc); err != nil { return decimal.Decimal{}, err }
	if err := tx.DeleteTransaction(ctx, tr.ID); err != nil { return decimal.Decimal{}, err }
	if err := tx.Commit(ctx); err != nil { return decimal.Decimal{}, err }

	s.log.Debug("transaction deleted", "transaction_id", tr.ID, "account_id", acc.ID, "balance", acc.Balance.String())
	return acc.Balance, nil
}

// account loads a posting target owned by ownerID.
func (s *service) account(ctx context.Context, r storage.Reader, id, ownerID uuid.UUID) (ledger.Account, error) {
	acc, err := r.GetAccount(ctx, id)
	if err != nil { return ledger.Account{}, err }
	if acc.OwnerID != ownerID { return ledger.Account{}, errs.ErrNotFound }
	if acc.Deleted && s.opts.RejectDeletedAccounts { return ledger.Account{}, errs.ErrNotFound }
	return acc, nil
}

func (s *service) createdOn(t time.Time) time.Time {
	if t.IsZero() { return s.now().UTC() }
	return t.UTC()
}

func checkAmount(t ledger.Transaction) error {
	if !t.Type.Valid() || t.Amount.IsNeg() || !ledger.ValidScale(t.Amount) { return errs.ErrInvalid }
	return nil
}
