package v1

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/govalues/decimal"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/report"
)

// Accounts

type postAccountRequest struct {
	Name          string    `json:"name"`
	Balance       string    `json:"balance"`
	AccountTypeID uuid.UUID `json:"account_type_id"`
	CurrencyID    uuid.UUID `json:"currency_id"`
}

type patchAccountRequest struct {
	Name          *string    `json:"name"`
	Balance       *string    `json:"balance"`
	AccountTypeID *uuid.UUID `json:"account_type_id"`
	CurrencyID    *uuid.UUID `json:"currency_id"`
}

type accountResponse struct {
	ID            uuid.UUID `json:"id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	Name          string    `json:"name"`
	Balance       string    `json:"balance"`
	AccountTypeID uuid.UUID `json:"account_type_id"`
	CurrencyID    uuid.UUID `json:"currency_id"`
}

type accountDetailResponse struct {
	accountResponse
	Transactions transactionPageResponse `json:"transactions"`
}

type reconcileResponse struct {
	AccountID    uuid.UUID `json:"account_id"`
	Stored       string    `json:"stored"`
	Computed     string    `json:"computed"`
	Drift        string    `json:"drift"`
	Balanced     bool      `json:"balanced"`
	Transactions int       `json:"transactions"`
}

// Transactions

type transactionRequest struct {
	AccountID  uuid.UUID              `json:"account_id"`
	CategoryID uuid.UUID              `json:"category_id"`
	Amount     string                 `json:"amount"`
	Type       ledger.TransactionType `json:"type"`
	CreatedOn  *time.Time             `json:"created_on,omitempty"`
	Reference  string                 `json:"reference"`
}

type transactionResponse struct {
	ID               uuid.UUID              `json:"id"`
	OwnerID          uuid.UUID              `json:"owner_id"`
	AccountID        uuid.UUID              `json:"account_id"`
	CategoryID       uuid.UUID              `json:"category_id"`
	Amount           string                 `json:"amount"`
	Type             ledger.TransactionType `json:"type"`
	CreatedOn        time.Time              `json:"created_on"`
	Reference        string                 `json:"reference"`
	IsInitialBalance bool                   `json:"is_initial_balance"`
}

type transactionPageResponse struct {
	Items []transactionResponse `json:"items"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Size  int                   `json:"size"`
}

type deleteTransactionResponse struct {
	Balance string `json:"balance"`
}

// Reports

type cashFlowResponse struct {
	CurrencyID   uuid.UUID `json:"currency_id"`
	CurrencyCode string    `json:"currency_code"`
	Income       string    `json:"income"`
	Expense      string    `json:"expense"`
	// Net is empty when the currency code is not ISO 4217.
	Net string `json:"net,omitempty"`
}

// Catalog

type namedRequest struct {
	Name string `json:"name"`
}

type currencyRequest struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

type referenceResponse struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`
	Name    string    `json:"name"`
	Code    string    `json:"code,omitempty"`
}

func toAccountResponse(a ledger.Account) accountResponse {
	return accountResponse{
		ID:            a.ID,
		OwnerID:       a.OwnerID,
		Name:          a.Name,
		Balance:       a.Balance.String(),
		AccountTypeID: a.AccountTypeID,
		CurrencyID:    a.CurrencyID,
	}
}

func toTransactionResponse(t ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:               t.ID,
		OwnerID:          t.OwnerID,
		AccountID:        t.AccountID,
		CategoryID:       t.CategoryID,
		Amount:           t.Amount.String(),
		Type:             t.Type,
		CreatedOn:        t.CreatedOn,
		Reference:        t.Reference,
		IsInitialBalance: t.IsInitialBalance,
	}
}

func toTransactionPage(p report.TransactionPage) transactionPageResponse {
	items := make([]transactionResponse, 0, len(p.Items))
	for _, t := range p.Items {
		items = append(items, toTransactionResponse(t))
	}
	return transactionPageResponse{Items: items, Total: p.Total, Page: p.Page.Number, Size: p.Page.Size}
}

func toCashFlowResponse(cf report.CashFlow) cashFlowResponse {
	out := cashFlowResponse{
		CurrencyID:   cf.CurrencyID,
		CurrencyCode: cf.CurrencyCode,
		Income:       cf.Income.String(),
		Expense:      cf.Expense.String(),
	}
	if net, err := cf.Net(); err == nil {
		out.Net = net.String()
	}
	return out
}

func toTransactionDomain(req transactionRequest) (ledger.Transaction, error) {
	amount, err := decimal.Parse(strings.TrimSpace(req.Amount))
	if err != nil { return ledger.Transaction{}, err }
	t := ledger.Transaction{
		AccountID:  req.AccountID,
		CategoryID: req.CategoryID,
		Amount:     amount,
		Type:       ledger.TransactionType(strings.ToLower(string(req.Type))),
		Reference:  req.Reference,
	}
	if req.CreatedOn != nil { t.CreatedOn = req.CreatedOn.UTC() }
	return t, nil
}

// parseAmount parses an optional decimal string; blank means zero.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" { return decimal.Zero, nil }
	return decimal.Parse(s)
}

func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	return id, err == nil
}

// queryPage reads page and size; invalid values fall back to defaults.
func queryPage(r *http.Request) ledger.Page {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("size"))
	return ledger.Page{Number: page, Size: size}.Normalize()
}

func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" { return nil, nil }
	id, err := uuid.Parse(raw)
	if err != nil { return nil, err }
	return &id, nil
}

// queryTime accepts RFC 3339 timestamps or plain dates (midnight UTC).
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" { return nil, nil }
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if t, err = time.Parse(time.DateOnly, raw); err != nil { return nil, err }
	}
	t = t.UTC()
	return &t, nil
}

func queryBool(r *http.Request, name string) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return v
}

// transactionFilter builds a listing filter from query parameters.
func transactionFilter(r *http.Request) (ledger.TransactionFilter, error) {
	var (
		f   ledger.TransactionFilter
		err error
	)
	if f.OwnerID, err = queryUUID(r, "owner_id"); err != nil { return f, err }
	if f.AccountID, err = queryUUID(r, "account_id"); err != nil { return f, err }
	if f.CategoryID, err = queryUUID(r, "category_id"); err != nil { return f, err }
	if f.CurrencyID, err = queryUUID(r, "currency_id"); err != nil { return f, err }
	if f.AccountTypeID, err = queryUUID(r, "account_type_id"); err != nil { return f, err }
	if f.From, err = queryTime(r, "from"); err != nil { return f, err }
	if f.To, err = queryTime(r, "to"); err != nil { return f, err }
	f.IncludeDeletedAccounts = queryBool(r, "include_deleted")
	return f, nil
}
