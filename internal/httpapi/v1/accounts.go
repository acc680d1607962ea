package v1

import (
	"net/http"

	"github.com/tinoosan/fintrack/internal/ledger"
	"github.com/tinoosan/fintrack/internal/service/account"
)

// postAccount handles POST /v1/accounts. The acting user owns the new account.
func (s *Server) postAccount(w http.ResponseWriter, r *http.Request) {
	var req postAccountRequest
	if !decodeJSON(w, r, &req) { return }
	balance, err := parseAmount(req.Balance)
	if err != nil { badRequest(w, "invalid balance"); return }

	actor := actorFrom(r.Context())
	acc, err := s.svc.Accounts.Create(r.Context(), ledger.Account{
		OwnerID:       actor.UserID,
		Name:          req.Name,
		Balance:       balance,
		AccountTypeID: req.AccountTypeID,
		CurrencyID:    req.CurrencyID,
	})
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusCreated, toAccountResponse(acc))
}

// getAccount handles GET /v1/accounts/{id} with a page of the account's transactions.
func (s *Server) getAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok { badRequest(w, "invalid account id"); return }
	d, err := s.svc.Reports.AccountDetail(r.Context(), id, actorFrom(r.Context()), queryPage(r))
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, accountDetailResponse{
		accountResponse: toAccountResponse(d.Account),
		Transactions:    toTransactionPage(d.Transactions),
	})
}

// updateAccount handles PATCH /v1/accounts/{id}. Omitted fields keep their values.
func (s *Server) updateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok { badRequest(w, "invalid account id"); return }
	var req patchAccountRequest
	if !decodeJSON(w, r, &req) { return }

	patch := account.Patch{Name: req.Name, AccountTypeID: req.AccountTypeID, CurrencyID: req.CurrencyID}
	if req.Balance != nil {
		b, err := parseAmount(*req.Balance)
		if err != nil { badRequest(w, "invalid balance"); return }
		patch.Balance = &b
	}

	acc, err := s.svc.Accounts.Update(r.Context(), id, actorFrom(r.Context()), patch)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toAccountResponse(acc))
}

// deleteAccount handles DELETE /v1/accounts/{id}?hard=true|false.
func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok { badRequest(w, "invalid account id"); return }
	if err := s.svc.Accounts.Delete(r.Context(), id, actorFrom(r.Context()), queryBool(r, "hard")); err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// accountOptions handles GET /v1/accounts/options.
func (s *Server) accountOptions(w http.ResponseWriter, r *http.Request) {
	opts, err := s.svc.Reports.AccountOptions(r.Context(), actorFrom(r.Context()).UserID)
	if err != nil { s.serviceError(w, r, err); return }
	if opts == nil { opts = []ledger.AccountOption{} }
	toJSON(w, http.StatusOK, opts)
}

// reconcileAccount handles GET /v1/accounts/{id}/reconcile.
func (s *Server) reconcileAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok { badRequest(w, "invalid account id"); return }
	rec, err := s.svc.Reports.Reconcile(r.Context(), id, actorFrom(r.Context()))
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, reconcileResponse{
		AccountID:    rec.AccountID,
		Stored:       rec.Stored.String(),
		Computed:     rec.Computed.String(),
		Drift:        rec.Drift.String(),
		Balanced:     rec.Balanced(),
		Transactions: rec.Transactions,
	})
}
