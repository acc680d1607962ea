package memory

// Package memory provides a simple in-memory entity store used for development and tests.
// Units of work are serialised; each one edits a private copy of the state that
// replaces the shared state on Commit.
import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/storage"
)

// ErrTxClosed is returned when a committed or rolled back Tx is committed again.
var ErrTxClosed = errors.New("memory: tx is closed")

// txKey orders transactions per owner: sorted asc by (CreatedOn, ID)
type txKey struct {
	CreatedOn time.Time
	ID        uuid.UUID
}

func (k txKey) less(o txKey) bool {
	if !k.CreatedOn.Equal(o.CreatedOn) {
		return k.CreatedOn.Before(o.CreatedOn)
	}
	return k.ID.String() < o.ID.String()
}

type state struct {
	accounts     map[uuid.UUID]ledger.Account
	transactions map[uuid.UUID]ledger.Transaction
	categories   map[uuid.UUID]ledger.Category
	currencies   map[uuid.UUID]ledger.Currency
	accountTypes map[uuid.UUID]ledger.AccountType
	// Per-owner sorted index of transactions for ordered scans and date ranges
	keysByOwner map[uuid.UUID][]txKey
}

func newState() *state {
	st := &state{
		accounts:     make(map[uuid.UUID]ledger.Account),
		transactions: make(map[uuid.UUID]ledger.Transaction),
		categories:   make(map[uuid.UUID]ledger.Category),
		currencies:   make(map[uuid.UUID]ledger.Currency),
		accountTypes: make(map[uuid.UUID]ledger.AccountType),
		keysByOwner:  make(map[uuid.UUID][]txKey),
	}
	sys := ledger.InitialBalanceCategory()
	st.categories[sys.ID] = sys
	return st
}

func (st *state) clone() *state {
	out := &state{
		accounts:     make(map[uuid.UUID]ledger.Account, len(st.accounts)),
		transactions: make(map[uuid.UUID]ledger.Transaction, len(st.transactions)),
		categories:   make(map[uuid.UUID]ledger.Category, len(st.categories)),
		currencies:   make(map[uuid.UUID]ledger.Currency, len(st.currencies)),
		accountTypes: make(map[uuid.UUID]ledger.AccountType, len(st.accountTypes)),
		keysByOwner:  make(map[uuid.UUID][]txKey, len(st.keysByOwner)),
	}
	for k, v := range st.accounts { out.accounts[k] = v }
	for k, v := range st.transactions { out.transactions[k] = v }
	for k, v := range st.categories { out.categories[k] = v }
	for k, v := range st.currencies { out.currencies[k] = v }
	for k, v := range st.accountTypes { out.accountTypes[k] = v }
	for k, v := range st.keysByOwner { out.keysByOwner[k] = append([]txKey(nil), v...) }
	return out
}

// Store is an in-memory implementation of storage.Store.
// It is guarded by an RWMutex for concurrent reads; writers are serialised by txMu.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	st   *state
}

// New constructs an empty in-memory store holding only the system category.
func New() *Store { return &Store{st: newState()} }

// Seed helpers for local dev/tests. They bypass the unit of work.
func (s *Store) SeedAccount(a ledger.Account)         { s.mu.Lock(); s.st.accounts[a.ID] = a; s.mu.Unlock() }
func (s *Store) SeedCategory(c ledger.Category)       { s.mu.Lock(); s.st.categories[c.ID] = c; s.mu.Unlock() }
func (s *Store) SeedCurrency(c ledger.Currency)       { s.mu.Lock(); s.st.currencies[c.ID] = c; s.mu.Unlock() }
func (s *Store) SeedAccountType(t ledger.AccountType) { s.mu.Lock(); s.st.accountTypes[t.ID] = t; s.mu.Unlock() }
func (s *Store) SeedTransaction(t ledger.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.putTransaction(t)
}

// Reset drops all data.
func (s *Store) Reset() {
	s.mu.Lock()
	s.st = newState()
	s.mu.Unlock()
}

// Ready always succeeds for the memory backend.
func (s *Store) Ready(context.Context) error { return nil }

// Begin opens a unit of work. It blocks while another unit of work is open.
func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.txMu.Lock()
	s.mu.RLock()
	work := s.st.clone()
	s.mu.RUnlock()
	return &Tx{store: s, st: work}, nil
}

// read runs fn against the committed state under the read lock.
func (s *Store) read() (*state, func()) {
	s.mu.RLock()
	return s.st, s.mu.RUnlock
}

func (s *Store) GetAccount(_ context.Context, id uuid.UUID) (ledger.Account, error) {
	st, done := s.read(); defer done()
	return st.getAccount(id)
}

func (s *Store) ListAccounts(_ context.Context, f ledger.AccountFilter) ([]ledger.Account, error) {
	st, done := s.read(); defer done()
	return st.listAccounts(f), nil
}

func (s *Store) GetTransaction(_ context.Context, id uuid.UUID) (ledger.Transaction, error) {
	st, done := s.read(); defer done()
	return st.getTransaction(id)
}

func (s *Store) ListTransactions(_ context.Context, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	st, done := s.read(); defer done()
	return st.listTransactions(f), nil
}

func (s *Store) CountTransactions(_ context.Context, f ledger.TransactionFilter) (int, error) {
	st, done := s.read(); defer done()
	f.Limit, f.Offset = 0, 0
	return len(st.listTransactions(f)), nil
}

func (s *Store) InitialTransaction(_ context.Context, accountID uuid.UUID) (ledger.Transaction, error) {
	st, done := s.read(); defer done()
	return st.initialTransaction(accountID)
}

func (s *Store) GetCategory(_ context.Context, id uuid.UUID) (ledger.Category, error) {
	st, done := s.read(); defer done()
	return get(st.categories, id)
}

func (s *Store) ListCategories(_ context.Context, ownerID uuid.UUID) ([]ledger.Category, error) {
	st, done := s.read(); defer done()
	return listOwned(st.categories, ownerID), nil
}

func (s *Store) GetCurrency(_ context.Context, id uuid.UUID) (ledger.Currency, error) {
	st, done := s.read(); defer done()
	return get(st.currencies, id)
}

func (s *Store) ListCurrencies(_ context.Context, ownerID uuid.UUID) ([]ledger.Currency, error) {
	st, done := s.read(); defer done()
	return listOwned(st.currencies, ownerID), nil
}

func (s *Store) GetAccountType(_ context.Context, id uuid.UUID) (ledger.AccountType, error) {
	st, done := s.read(); defer done()
	return get(st.accountTypes, id)
}

func (s *Store) ListAccountTypes(_ context.Context, ownerID uuid.UUID) ([]ledger.AccountType, error) {
	st, done := s.read(); defer done()
	return listOwned(st.accountTypes, ownerID), nil
}

// --- state queries (caller holds the appropriate lock or owns the state) ---

func (st *state) getAccount(id uuid.UUID) (ledger.Account, error) {
	a, ok := st.accounts[id]
	if !ok { return ledger.Account{}, errs.ErrNotFound }
	return a, nil
}

func (st *state) listAccounts(f ledger.AccountFilter) []ledger.Account {
	out := make([]ledger.Account, 0)
	for _, a := range st.accounts {
		if f.OwnerID != nil && a.OwnerID != *f.OwnerID { continue }
		if a.Deleted && !f.IncludeDeleted { continue }
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name { return out[i].Name < out[j].Name }
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (st *state) getTransaction(id uuid.UUID) (ledger.Transaction, error) {
	t, ok := st.transactions[id]
	if !ok { return ledger.Transaction{}, errs.ErrNotFound }
	return t, nil
}

func (st *state) initialTransaction(accountID uuid.UUID) (ledger.Transaction, error) {
	for _, t := range st.transactions {
		if t.AccountID == accountID && t.IsInitialBalance {
			return t, nil
		}
	}
	return ledger.Transaction{}, errs.ErrNotFound
}

// listTransactions returns matches newest first, then pages them.
func (st *state) listTransactions(f ledger.TransactionFilter) []ledger.Transaction {
	var keys []txKey
	if f.OwnerID != nil {
		keys = st.rangeByTime(st.keysByOwner[*f.OwnerID], f.From, f.To)
	} else {
		for _, ks := range st.keysByOwner {
			keys = append(keys, st.rangeByTime(ks, f.From, f.To)...)
		}
		sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	}
	out := make([]ledger.Transaction, 0)
	skipped := 0
	for i := len(keys) - 1; i >= 0; i-- {
		t, ok := st.transactions[keys[i].ID]
		if !ok { continue }
		if !f.Matches(t, st.accounts[t.AccountID]) { continue }
		if skipped < f.Offset { skipped++; continue }
		out = append(out, t)
		if f.Limit > 0 && len(out) == f.Limit { break }
	}
	return out
}

// rangeByTime returns a copy of keys within [from,to) using binary search.
func (st *state) rangeByTime(keys []txKey, from, to *time.Time) []txKey {
	if len(keys) == 0 { return nil }
	start := 0
	if from != nil {
		f := from.UTC()
		start = sort.Search(len(keys), func(i int) bool { return !keys[i].CreatedOn.Before(f) })
	}
	end := len(keys)
	if to != nil {
		t := to.UTC()
		end = sort.Search(len(keys), func(i int) bool { return !keys[i].CreatedOn.Before(t) })
	}
	if start >= end { return nil }
	subset := make([]txKey, end-start)
	copy(subset, keys[start:end])
	return subset
}

func (st *state) putTransaction(t ledger.Transaction) {
	if prev, ok := st.transactions[t.ID]; ok {
		st.removeKey(prev.OwnerID, txKey{CreatedOn: prev.CreatedOn, ID: prev.ID})
	}
	st.transactions[t.ID] = t
	st.insertKey(t.OwnerID, txKey{CreatedOn: t.CreatedOn, ID: t.ID})
}

func (st *state) deleteTransaction(id uuid.UUID) bool {
	t, ok := st.transactions[id]
	if !ok { return false }
	st.removeKey(t.OwnerID, txKey{CreatedOn: t.CreatedOn, ID: t.ID})
	delete(st.transactions, id)
	return true
}

// insertKey inserts k into the per-owner sorted index, keeping order asc by (CreatedOn, ID).
func (st *state) insertKey(ownerID uuid.UUID, k txKey) {
	keys := st.keysByOwner[ownerID]
	i := sort.Search(len(keys), func(i int) bool { return k.less(keys[i]) })
	if i == len(keys) {
		st.keysByOwner[ownerID] = append(keys, k)
		return
	}
	keys = append(keys, txKey{})
	copy(keys[i+1:], keys[i:])
	keys[i] = k
	st.keysByOwner[ownerID] = keys
}

func (st *state) removeKey(ownerID uuid.UUID, k txKey) {
	keys := st.keysByOwner[ownerID]
	for i := range keys {
		if keys[i].ID == k.ID {
			st.keysByOwner[ownerID] = append(keys[:i], keys[i+1:]...)
			return
		}
	}
}

func get[T ledger.OwnedEntity](m map[uuid.UUID]T, id uuid.UUID) (T, error) {
	v, ok := m[id]
	if !ok {
		var zero T
		return zero, errs.ErrNotFound
	}
	return v, nil
}

func listOwned[T ledger.OwnedEntity](m map[uuid.UUID]T, ownerID uuid.UUID) []T {
	out := make([]T, 0)
	for _, v := range m {
		if v.Owner() == ownerID && !v.IsDeleted() {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayName() < out[j].DisplayName() })
	return out
}
