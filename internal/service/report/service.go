// Package report answers read-only questions about the ledger: filtered
// transaction listings, per-account detail, cash flow per currency, the
// account picker listing and balance reconciliation. It never mutates balances.
package report

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/govalues/money"
	"golang.org/x/sync/singleflight"

	"github.com/tinoosan/fintrack/internal/cache"
	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/metrics"
)

// Repo defines read operations needed by the service.
type Repo interface {
	GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error)
	ListAccounts(ctx context.Context, f ledger.AccountFilter) ([]ledger.Account, error)
	ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]ledger.Transaction, error)
	CountTransactions(ctx context.Context, f ledger.TransactionFilter) (int, error)
	GetCurrency(ctx context.Context, id uuid.UUID) (ledger.Currency, error)
}

// TransactionPage is one page of a transaction listing.
type TransactionPage struct {
	Items []ledger.Transaction
	Total int
	Page  ledger.Page
}

// AccountDetail is an account with a page of its transactions.
type AccountDetail struct {
	Account      ledger.Account
	Transactions TransactionPage
}

// CashFlow totals the income and expense posted in one currency.
type CashFlow struct {
	CurrencyID   uuid.UUID
	CurrencyCode string
	Income       decimal.Decimal
	Expense      decimal.Decimal
}

// Net returns income minus expense as a money amount. It fails when
// CurrencyCode is not an ISO 4217 code.
func (c CashFlow) Net() (money.Amount, error) {
	net, err := c.Income.Sub(c.Expense)
	if err != nil { return money.Amount{}, err }
	return money.ParseAmount(c.CurrencyCode, net.String())
}

// Reconciliation compares an account's stored balance with the signed sum of its transactions.
type Reconciliation struct {
	AccountID    uuid.UUID
	Stored       decimal.Decimal
	Computed     decimal.Decimal
	Drift        decimal.Decimal
	Transactions int
}

func (r Reconciliation) Balanced() bool { return r.Drift.IsZero() }

type Service interface {
	ListTransactions(ctx context.Context, actor ledger.Actor, f ledger.TransactionFilter, p ledger.Page) (TransactionPage, error)
	AccountDetail(ctx context.Context, accountID uuid.UUID, actor ledger.Actor, p ledger.Page) (AccountDetail, error)
	CashFlow(ctx context.Context, actor ledger.Actor, allUsers bool, from, to *time.Time) ([]CashFlow, error)
	AccountOptions(ctx context.Context, ownerID uuid.UUID) ([]ledger.AccountOption, error)
	Reconcile(ctx context.Context, accountID uuid.UUID, actor ledger.Actor) (Reconciliation, error)
}

type service struct {
	repo  Repo
	cache cache.AccountOptions
	log   *slog.Logger
	group singleflight.Group
}

func New(repo Repo, c cache.AccountOptions, logger *slog.Logger) Service {
	if c == nil { c = cache.Nop{} }
	if logger == nil { logger = slog.Default() }
	return &service{repo: repo, cache: c, log: logger}
}

// ListTransactions pages through transactions matching f. Non-admin actors
// only ever see their own transactions, whatever f.OwnerID says.
func (s *service) ListTransactions(ctx context.Context, actor ledger.Actor, f ledger.TransactionFilter, p ledger.Page) (TransactionPage, error) {
	if !actor.IsAdmin {
		if actor.UserID == uuid.Nil { return TransactionPage{}, errs.ErrUnauthorized }
		f.OwnerID = &actor.UserID
	}
	return s.page(ctx, f, p)
}

func (s *service) AccountDetail(ctx context.Context, accountID uuid.UUID, actor ledger.Actor, p ledger.Page) (AccountDetail, error) {
	acc, err := s.visibleAccount(ctx, accountID, actor)
	if err != nil { return AccountDetail{}, err }
	page, err := s.page(ctx, ledger.TransactionFilter{AccountID: &acc.ID}, p)
	if err != nil { return AccountDetail{}, err }
	return AccountDetail{Account: acc, Transactions: page}, nil
}

// CashFlow sums income and expense per currency over active accounts, for the
// actor alone or, for admins asking with allUsers, across every owner.
func (s *service) CashFlow(ctx context.Context, actor ledger.Actor, allUsers bool, from, to *time.Time) ([]CashFlow, error) {
	if allUsers && !actor.IsAdmin { return nil, errs.ErrUnauthorized }
	var owner *uuid.UUID
	if !allUsers {
		if actor.UserID == uuid.Nil { return nil, errs.ErrUnauthorized }
		owner = &actor.UserID
	}
	accounts, err := s.repo.ListAccounts(ctx, ledger.AccountFilter{OwnerID: owner})
	if err != nil { return nil, err }
	currencyOf := make(map[uuid.UUID]uuid.UUID, len(accounts))
	for _, a := range accounts {
		currencyOf[a.ID] = a.CurrencyID
	}
	txs, err := s.repo.ListTransactions(ctx, ledger.TransactionFilter{OwnerID: owner, From: from, To: to})
	if err != nil { return nil, err }

	flows := map[uuid.UUID]*CashFlow{}
	for _, t := range txs {
		cur, ok := currencyOf[t.AccountID]
		if !ok { continue }
		cf := flows[cur]
		if cf == nil {
			cf = &CashFlow{CurrencyID: cur, Income: decimal.Zero, Expense: decimal.Zero}
			flows[cur] = cf
		}
		if t.Type == ledger.Expense {
			cf.Expense, err = cf.Expense.Add(t.Amount)
		} else {
			cf.Income, err = cf.Income.Add(t.Amount)
		}
		if err != nil { return nil, err }
	}

	out := make([]CashFlow, 0, len(flows))
	for id, cf := range flows {
		cur, err := s.repo.GetCurrency(ctx, id)
		if err != nil { return nil, err }
		cf.CurrencyCode = cur.Code
		out = append(out, *cf)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrencyCode != out[j].CurrencyCode { return out[i].CurrencyCode < out[j].CurrencyCode }
		return out[i].CurrencyID.String() < out[j].CurrencyID.String()
	})
	return out, nil
}

// AccountOptions returns the owner's active accounts for pickers. The listing
// is served cache-aside; concurrent misses for one owner share a single load.
func (s *service) AccountOptions(ctx context.Context, ownerID uuid.UUID) ([]ledger.AccountOption, error) {
	opts, err := s.cache.Get(ctx, ownerID)
	switch {
	case err == nil:
		metrics.CacheResult("hit")
		return opts, nil
	case cache.IsMiss(err):
		metrics.CacheResult("miss")
	default:
		metrics.CacheResult("error")
		s.log.Warn("account options cache read failed", "owner_id", ownerID, "cache", s.cache.Name(), "err", err)
	}

	v, err, _ := s.group.Do(ownerID.String(), func() (interface{}, error) {
		opts, err := s.loadOptions(ctx, ownerID)
		if err != nil { return nil, err }
		if err := s.cache.Set(ctx, ownerID, opts); err != nil {
			s.log.Warn("account options cache write failed", "owner_id", ownerID, "cache", s.cache.Name(), "err", err)
		}
		return opts, nil
	})
	if err != nil { return nil, err }
	return slices.Clone(v.([]ledger.AccountOption)), nil
}

// Reconcile recomputes the balance implied by the account's transactions.
func (s *service) Reconcile(ctx context.Context, accountID uuid.UUID, actor ledger.Actor) (Reconciliation, error) {
	acc, err := s.visibleAccount(ctx, accountID, actor)
	if err != nil { return Reconciliation{}, err }
	txs, err := s.repo.ListTransactions(ctx, ledger.TransactionFilter{AccountID: &acc.ID})
	if err != nil { return Reconciliation{}, err }
	sum, err := ledger.SignedSum(txs)
	if err != nil { return Reconciliation{}, err }
	drift, err := acc.Balance.Sub(sum)
	if err != nil { return Reconciliation{}, err }
	if !drift.IsZero() {
		s.log.Warn("account balance drift", "account_id", acc.ID, "stored", acc.Balance.String(), "computed", sum.String())
	}
	return Reconciliation{AccountID: acc.ID, Stored: acc.Balance, Computed: sum, Drift: drift, Transactions: len(txs)}, nil
}

func (s *service) loadOptions(ctx context.Context, ownerID uuid.UUID) ([]ledger.AccountOption, error) {
	accounts, err := s.repo.ListAccounts(ctx, ledger.AccountFilter{OwnerID: &ownerID})
	if err != nil { return nil, err }
	codes := map[uuid.UUID]string{}
	opts := make([]ledger.AccountOption, 0, len(accounts))
	for _, a := range accounts {
		code, ok := codes[a.CurrencyID]
		if !ok {
			cur, err := s.repo.GetCurrency(ctx, a.CurrencyID)
			if err != nil { return nil, err }
			code = cur.Code
			codes[a.CurrencyID] = code
		}
		opts = append(opts, ledger.AccountOption{ID: a.ID, Name: a.Name, CurrencyCode: code})
	}
	return opts, nil
}

func (s *service) visibleAccount(ctx context.Context, id uuid.UUID, actor ledger.Actor) (ledger.Account, error) {
	acc, err := s.repo.GetAccount(ctx, id)
	if err != nil { return ledger.Account{}, err }
	if acc.Deleted { return ledger.Account{}, errs.ErrNotFound }
	if !actor.CanAct(acc.OwnerID) { return ledger.Account{}, errs.ErrUnauthorized }
	return acc, nil
}

func (s *service) page(ctx context.Context, f ledger.TransactionFilter, p ledger.Page) (TransactionPage, error) {
	p = p.Normalize()
	total, err := s.repo.CountTransactions(ctx, f)
	if err != nil { return TransactionPage{}, err }
	f.Limit, f.Offset = p.Size, p.Offset()
	items, err := s.repo.ListTransactions(ctx, f)
	if err != nil { return TransactionPage{}, err }
	return TransactionPage{Items: items, Total: total, Page: p}, nil
}
