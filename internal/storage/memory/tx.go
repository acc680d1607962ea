package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
)

// Tx is a unit of work over a private copy of the store state.
// It is not safe for concurrent use.
type Tx struct {
	store *Store
	st    *state
	done  bool
}

// Commit publishes the working state and releases the writer lock.
func (t *Tx) Commit(ctx context.Context) error {
	if t.done { return ErrTxClosed }
	t.done = true
	defer t.store.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	t.store.mu.Lock()
	t.store.st = t.st
	t.store.mu.Unlock()
	return nil
}

// Rollback discards the working state. It is a no-op once the Tx is closed.
func (t *Tx) Rollback(context.Context) error {
	if t.done { return nil }
	t.done = true
	t.st = nil
	t.store.txMu.Unlock()
	return nil
}

func (t *Tx) GetAccount(_ context.Context, id uuid.UUID) (ledger.Account, error) {
	return t.st.getAccount(id)
}

func (t *Tx) ListAccounts(_ context.Context, f ledger.AccountFilter) ([]ledger.Account, error) {
	return t.st.listAccounts(f), nil
}

func (t *Tx) GetTransaction(_ context.Context, id uuid.UUID) (ledger.Transaction, error) {
	return t.st.getTransaction(id)
}

func (t *Tx) ListTransactions(_ context.Context, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	return t.st.listTransactions(f), nil
}

func (t *Tx) CountTransactions(_ context.Context, f ledger.TransactionFilter) (int, error) {
	f.Limit, f.Offset = 0, 0
	return len(t.st.listTransactions(f)), nil
}

func (t *Tx) InitialTransaction(_ context.Context, accountID uuid.UUID) (ledger.Transaction, error) {
	return t.st.initialTransaction(accountID)
}

func (t *Tx) GetCategory(_ context.Context, id uuid.UUID) (ledger.Category, error) {
	return get(t.st.categories, id)
}

func (t *Tx) ListCategories(_ context.Context, ownerID uuid.UUID) ([]ledger.Category, error) {
	return listOwned(t.st.categories, ownerID), nil
}

func (t *Tx) GetCurrency(_ context.Context, id uuid.UUID) (ledger.Currency, error) {
	return get(t.st.currencies, id)
}

func (t *Tx) ListCurrencies(_ context.Context, ownerID uuid.UUID) ([]ledger.Currency, error) {
	return listOwned(t.st.currencies, ownerID), nil
}

func (t *Tx) GetAccountType(_ context.Context, id uuid.UUID) (ledger.AccountType, error) {
	return get(t.st.accountTypes, id)
}

func (t *Tx) ListAccountTypes(_ context.Context, ownerID uuid.UUID) ([]ledger.AccountType, error) {
	return listOwned(t.st.accountTypes, ownerID), nil
}

// --- writes ---

func (t *Tx) InsertAccount(_ context.Context, a ledger.Account) error {
	if _, ok := t.st.accounts[a.ID]; ok { return errs.ErrInvalid }
	t.st.accounts[a.ID] = a
	return nil
}

func (t *Tx) UpdateAccount(_ context.Context, a ledger.Account) error {
	if _, ok := t.st.accounts[a.ID]; !ok { return errs.ErrNotFound }
	t.st.accounts[a.ID] = a
	return nil
}

// DeleteAccount removes the account and cascades to its transactions.
func (t *Tx) DeleteAccount(_ context.Context, id uuid.UUID) error {
	if _, ok := t.st.accounts[id]; !ok { return errs.ErrNotFound }
	for tid, tr := range t.st.transactions {
		if tr.AccountID == id {
			t.st.deleteTransaction(tid)
		}
	}
	delete(t.st.accounts, id)
	return nil
}

func (t *Tx) InsertTransaction(_ context.Context, tr ledger.Transaction) error {
	if _, ok := t.st.transactions[tr.ID]; ok { return errs.ErrInvalid }
	if _, ok := t.st.accounts[tr.AccountID]; !ok { return errs.ErrNotFound }
	if tr.IsInitialBalance {
		if _, err := t.st.initialTransaction(tr.AccountID); err == nil { return errs.ErrInvalid }
	}
	t.st.putTransaction(tr)
	return nil
}

func (t *Tx) UpdateTransaction(_ context.Context, tr ledger.Transaction) error {
	if _, ok := t.st.transactions[tr.ID]; !ok { return errs.ErrNotFound }
	if _, ok := t.st.accounts[tr.AccountID]; !ok { return errs.ErrNotFound }
	t.st.putTransaction(tr)
	return nil
}

func (t *Tx) DeleteTransaction(_ context.Context, id uuid.UUID) error {
	if !t.st.deleteTransaction(id) { return errs.ErrNotFound }
	return nil
}

func (t *Tx) PutCategory(_ context.Context, c ledger.Category) error {
	t.st.categories[c.ID] = c
	return nil
}

func (t *Tx) PutCurrency(_ context.Context, c ledger.Currency) error {
	t.st.currencies[c.ID] = c
	return nil
}

func (t *Tx) PutAccountType(_ context.Context, at ledger.AccountType) error {
	t.st.accountTypes[at.ID] = at
	return nil
}
