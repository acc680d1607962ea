// Package postgres provides a pgx-backed storage.Store.
//
// Migrations that create the expected schema live under db/migrations. Money
// columns are numeric and cross the driver as text so decimals never pass
// through float64. Rows read inside a unit of work are locked FOR UPDATE.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/govalues/decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tinoosan/fintrack/internal/errs"
	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/storage"
)

// querier is the subset shared by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
	reader
	pool *pgxpool.Pool
}

// Open establishes a pgx pool using the provided connection string.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil { return nil, err }
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil { return nil, err }
	if err := pool.Ping(ctx); err != nil { pool.Close(); return nil, err }
	return &Store{reader: reader{q: pool}, pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Store) Close() { if s.pool != nil { s.pool.Close() } }

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// Begin opens a unit of work.
func (s *Store) Begin(ctx context.Context) (storage.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil { return nil, err }
	return &Tx{reader: reader{q: tx, lock: true}, tx: tx}, nil
}

// Tx wraps a pgx.Tx.
type Tx struct {
	reader
	tx pgx.Tx
}

func (t *Tx) Commit(ctx context.Context) error { return t.tx.Commit(ctx) }

func (t *Tx) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return err
	}
	return nil
}

// --- reads ---

type reader struct {
	q querier
	// lock appends FOR UPDATE to single-row account and transaction reads.
	lock bool
}

func (r reader) forUpdate() string {
	if r.lock { return " for update" }
	return ""
}

const accountColumns = `id, owner_id, name, balance::text, account_type_id, currency_id, deleted`

func scanAccount(row pgx.Row) (ledger.Account, error) {
	var (
		a       ledger.Account
		balance string
	)
	if err := row.Scan(&a.ID, &a.OwnerID, &a.Name, &balance, &a.AccountTypeID, &a.CurrencyID, &a.Deleted); err != nil {
		return ledger.Account{}, err
	}
	d, err := decimal.Parse(balance)
	if err != nil { return ledger.Account{}, fmt.Errorf("parse balance of account %s: %w", a.ID, err) }
	a.Balance = d
	return a, nil
}

func (r reader) GetAccount(ctx context.Context, id uuid.UUID) (ledger.Account, error) {
	a, err := scanAccount(r.q.QueryRow(ctx, `select `+accountColumns+` from accounts where id = $1`+r.forUpdate(), id))
	if errors.Is(err, pgx.ErrNoRows) { return ledger.Account{}, errs.ErrNotFound }
	return a, err
}

func (r reader) ListAccounts(ctx context.Context, f ledger.AccountFilter) ([]ledger.Account, error) {
	var (
		where []string
		args  []any
	)
	if f.OwnerID != nil {
		args = append(args, *f.OwnerID)
		where = append(where, fmt.Sprintf("owner_id = $%d", len(args)))
	}
	if !f.IncludeDeleted {
		where = append(where, "not deleted")
	}
	sql := `select ` + accountColumns + ` from accounts`
	if len(where) > 0 {
		sql += ` where ` + strings.Join(where, " and ")
	}
	sql += ` order by name, id`
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil { return nil, err }
	defer rows.Close()
	out := make([]ledger.Account, 0)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil { return nil, err }
		out = append(out, a)
	}
	return out, rows.Err()
}

const transactionColumns = `t.id, t.owner_id, t.account_id, t.category_id, t.amount::text, t.type, t.created_on, t.reference, t.is_initial_balance`

func scanTransaction(row pgx.Row) (ledger.Transaction, error) {
	var (
		t      ledger.Transaction
		amount string
		typ    string
	)
	if err := row.Scan(&t.ID, &t.OwnerID, &t.AccountID, &t.CategoryID, &amount, &typ, &t.CreatedOn, &t.Reference, &t.IsInitialBalance); err != nil {
		return ledger.Transaction{}, err
	}
	d, err := decimal.Parse(amount)
	if err != nil { return ledger.Transaction{}, fmt.Errorf("parse amount of transaction %s: %w", t.ID, err) }
	t.Amount = d
	t.Type = ledger.TransactionType(typ)
	t.CreatedOn = t.CreatedOn.UTC()
	return t, nil
}

func (r reader) GetTransaction(ctx context.Context, id uuid.UUID) (ledger.Transaction, error) {
	t, err := scanTransaction(r.q.QueryRow(ctx, `select `+transactionColumns+` from transactions t where t.id = $1`+r.forUpdate(), id))
	if errors.Is(err, pgx.ErrNoRows) { return ledger.Transaction{}, errs.ErrNotFound }
	return t, err
}

func (r reader) InitialTransaction(ctx context.Context, accountID uuid.UUID) (ledger.Transaction, error) {
	t, err := scanTransaction(r.q.QueryRow(ctx, `
		select `+transactionColumns+`
		from transactions t
		where t.account_id = $1 and t.is_initial_balance`+r.forUpdate(), accountID))
	if errors.Is(err, pgx.ErrNoRows) { return ledger.Transaction{}, errs.ErrNotFound }
	return t, err
}

// transactionWhere renders f (without paging) as a where clause over
// transactions t joined to accounts a.
func transactionWhere(f ledger.TransactionFilter) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.OwnerID != nil { add("t.owner_id = $%d", *f.OwnerID) }
	if f.AccountID != nil { add("t.account_id = $%d", *f.AccountID) }
	if f.CategoryID != nil { add("t.category_id = $%d", *f.CategoryID) }
	if f.CurrencyID != nil { add("a.currency_id = $%d", *f.CurrencyID) }
	if f.AccountTypeID != nil { add("a.account_type_id = $%d", *f.AccountTypeID) }
	if f.From != nil { add("t.created_on >= $%d", f.From.UTC()) }
	if f.To != nil { add("t.created_on < $%d", f.To.UTC()) }
	if !f.IncludeDeletedAccounts {
		where = append(where, "not a.deleted")
	}
	if len(where) == 0 { return "", nil }
	return " where " + strings.Join(where, " and "), args
}

func (r reader) ListTransactions(ctx context.Context, f ledger.TransactionFilter) ([]ledger.Transaction, error) {
	where, args := transactionWhere(f)
	sql := `select ` + transactionColumns + ` from transactions t join accounts a on a.id = t.account_id` +
		where + ` order by t.created_on desc, t.id desc`
	if f.Limit > 0 {
		args = append(args, f.Limit)
		sql += fmt.Sprintf(" limit $%d", len(args))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		sql += fmt.Sprintf(" offset $%d", len(args))
	}
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil { return nil, err }
	defer rows.Close()
	out := make([]ledger.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil { return nil, err }
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r reader) CountTransactions(ctx context.Context, f ledger.TransactionFilter) (int, error) {
	where, args := transactionWhere(f)
	var n int
	err := r.q.QueryRow(ctx, `select count(*) from transactions t join accounts a on a.id = t.account_id`+where, args...).Scan(&n)
	return n, err
}

func (r reader) GetCategory(ctx context.Context, id uuid.UUID) (ledger.Category, error) {
	var c ledger.Category
	err := r.q.QueryRow(ctx, `select id, owner_id, name, deleted from categories where id = $1`, id).
		Scan(&c.ID, &c.OwnerID, &c.Name, &c.Deleted)
	if errors.Is(err, pgx.ErrNoRows) { return ledger.Category{}, errs.ErrNotFound }
	return c, err
}

func (r reader) ListCategories(ctx context.Context, ownerID uuid.UUID) ([]ledger.Category, error) {
	rows, err := r.q.Query(ctx, `
		select id, owner_id, name, deleted from categories
		where owner_id = $1 and not deleted
		order by name
	`, ownerID)
	if err != nil { return nil, err }
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.Category, error) {
		var c ledger.Category
		err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Deleted)
		return c, err
	})
}

func (r reader) GetCurrency(ctx context.Context, id uuid.UUID) (ledger.Currency, error) {
	var c ledger.Currency
	err := r.q.QueryRow(ctx, `select id, owner_id, name, code, deleted from currencies where id = $1`, id).
		Scan(&c.ID, &c.OwnerID, &c.Name, &c.Code, &c.Deleted)
	if errors.Is(err, pgx.ErrNoRows) { return ledger.Currency{}, errs.ErrNotFound }
	return c, err
}

func (r reader) ListCurrencies(ctx context.Context, ownerID uuid.UUID) ([]ledger.Currency, error) {
	rows, err := r.q.Query(ctx, `
		select id, owner_id, name, code, deleted from currencies
		where owner_id = $1 and not deleted
		order by name
	`, ownerID)
	if err != nil { return nil, err }
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.Currency, error) {
		var c ledger.Currency
		err := row.Scan(&c.ID, &c.OwnerID, &c.Name, &c.Code, &c.Deleted)
		return c, err
	})
}

func (r reader) GetAccountType(ctx context.Context, id uuid.UUID) (ledger.AccountType, error) {
	var at ledger.AccountType
	err := r.q.QueryRow(ctx, `select id, owner_id, name, deleted from account_types where id = $1`, id).
		Scan(&at.ID, &at.OwnerID, &at.Name, &at.Deleted)
	if errors.Is(err, pgx.ErrNoRows) { return ledger.AccountType{}, errs.ErrNotFound }
	return at, err
}

func (r reader) ListAccountTypes(ctx context.Context, ownerID uuid.UUID) ([]ledger.AccountType, error) {
	rows, err := r.q.Query(ctx, `
		select id, owner_id, name, deleted from account_types
		where owner_id = $1 and not deleted
		order by name
	`, ownerID)
	if err != nil { return nil, err }
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (ledger.AccountType, error) {
		var at ledger.AccountType
		err := row.Scan(&at.ID, &at.OwnerID, &at.Name, &at.Deleted)
		return at, err
	})
}

// --- writes ---

func (t *Tx) InsertAccount(ctx context.Context, a ledger.Account) error {
	_, err := t.tx.Exec(ctx, `
		insert into accounts (id, owner_id, name, balance, account_type_id, currency_id, deleted)
		values ($1, $2, $3, $4::numeric, $5, $6, $7)
	`, a.ID, a.OwnerID, a.Name, a.Balance.String(), a.AccountTypeID, a.CurrencyID, a.Deleted)
	return mapErr("insert account", err)
}

func (t *Tx) UpdateAccount(ctx context.Context, a ledger.Account) error {
	ct, err := t.tx.Exec(ctx, `
		update accounts
		set name = $2, balance = $3::numeric, account_type_id = $4, currency_id = $5, deleted = $6
		where id = $1
	`, a.ID, a.Name, a.Balance.String(), a.AccountTypeID, a.CurrencyID, a.Deleted)
	if err != nil { return mapErr("update account", err) }
	if ct.RowsAffected() == 0 { return errs.ErrNotFound }
	return nil
}

// DeleteAccount removes the account; transactions go with it via on delete cascade.
func (t *Tx) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	ct, err := t.tx.Exec(ctx, `delete from accounts where id = $1`, id)
	if err != nil { return mapErr("delete account", err) }
	if ct.RowsAffected() == 0 { return errs.ErrNotFound }
	return nil
}

func (t *Tx) InsertTransaction(ctx context.Context, tr ledger.Transaction) error {
	_, err := t.tx.Exec(ctx, `
		insert into transactions (id, owner_id, account_id, category_id, amount, type, created_on, reference, is_initial_balance)
		values ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)
	`, tr.ID, tr.OwnerID, tr.AccountID, tr.CategoryID, tr.Amount.String(), string(tr.Type), tr.CreatedOn.UTC(), tr.Reference, tr.IsInitialBalance)
	return mapErr("insert transaction", err)
}

func (t *Tx) UpdateTransaction(ctx context.Context, tr ledger.Transaction) error {
	ct, err := t.tx.Exec(ctx, `
		update transactions
		set account_id = $2, category_id = $3, amount = $4::numeric, type = $5, created_on = $6, reference = $7
		where id = $1
	`, tr.ID, tr.AccountID, tr.CategoryID, tr.Amount.String(), string(tr.Type), tr.CreatedOn.UTC(), tr.Reference)
	if err != nil { return mapErr("update transaction", err) }
	if ct.RowsAffected() == 0 { return errs.ErrNotFound }
	return nil
}

func (t *Tx) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	ct, err := t.tx.Exec(ctx, `delete from transactions where id = $1`, id)
	if err != nil { return mapErr("delete transaction", err) }
	if ct.RowsAffected() == 0 { return errs.ErrNotFound }
	return nil
}

func (t *Tx) PutCategory(ctx context.Context, c ledger.Category) error {
	_, err := t.tx.Exec(ctx, `
		insert into categories (id, owner_id, name, deleted) values ($1, $2, $3, $4)
		on conflict (id) do update set name = excluded.name, deleted = excluded.deleted
	`, c.ID, c.OwnerID, c.Name, c.Deleted)
	return mapErr("put category", err)
}

func (t *Tx) PutCurrency(ctx context.Context, c ledger.Currency) error {
	_, err := t.tx.Exec(ctx, `
		insert into currencies (id, owner_id, name, code, deleted) values ($1, $2, $3, $4, $5)
		on conflict (id) do update set name = excluded.name, code = excluded.code, deleted = excluded.deleted
	`, c.ID, c.OwnerID, c.Name, c.Code, c.Deleted)
	return mapErr("put currency", err)
}

func (t *Tx) PutAccountType(ctx context.Context, at ledger.AccountType) error {
	_, err := t.tx.Exec(ctx, `
		insert into account_types (id, owner_id, name, deleted) values ($1, $2, $3, $4)
		on conflict (id) do update set name = excluded.name, deleted = excluded.deleted
	`, at.ID, at.OwnerID, at.Name, at.Deleted)
	return mapErr("put account type", err)
}

// mapErr turns constraint violations into errs.ErrInvalid and adds context to the rest.
// accountNameIndex enforces one active account name per owner.
const accountNameIndex = "accounts_owner_active_name"

func mapErr(op string, err error) error {
	if err == nil { return nil }
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == "23505" && pgErr.ConstraintName == accountNameIndex:
			return fmt.Errorf("%s: %w", op, errs.ErrDuplicateName)
		case pgErr.Code == "23505", pgErr.Code == "23503", pgErr.Code == "23514":
			return fmt.Errorf("%s: %w: %s", op, errs.ErrInvalid, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
