package v1

import (
	"net/http"

	"github.com/google/uuid"
)

// postTransaction handles POST /v1/transactions.
func (s *Server) postTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !decodeJSON(w, r, &req) { return }
	t, err := toTransactionDomain(req)
	if err != nil { badRequest(w, "invalid amount"); return }
	t.OwnerID = actorFrom(r.Context()).UserID

	t, err = s.svc.Transactions.Create(r.Context(), t)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusCreated, toTransactionResponse(t))
}

// listTransactions handles GET /v1/transactions with filter and page query parameters.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := transactionFilter(r)
	if err != nil { badRequest(w, "invalid query: "+err.Error()); return }
	page, err := s.svc.Reports.ListTransactions(r.Context(), actorFrom(r.Context()), f, queryPage(r))
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toTransactionPage(page))
}

// updateTransaction handles PATCH /v1/transactions/{id}. The body carries the
// full new state of the transaction; created_on may be omitted to keep it.
func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok { badRequest(w, "invalid transaction id"); return }
	var req transactionRequest
	if !decodeJSON(w, r, &req) { return }
	t, err := toTransactionDomain(req)
	if err != nil { badRequest(w, "invalid amount"); return }
	t.ID = id
	// Admins may edit any owner's transaction; everyone else only their own.
	if actor := actorFrom(r.Context()); !actor.IsAdmin {
		t.OwnerID = actor.UserID
	} else {
		t.OwnerID = uuid.Nil
	}

	t, err = s.svc.Transactions.Update(r.Context(), t)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toTransactionResponse(t))
}

// deleteTransaction handles DELETE /v1/transactions/{id} and reports the account's new balance.
func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok { badRequest(w, "invalid transaction id"); return }
	balance, err := s.svc.Transactions.Delete(r.Context(), id, actorFrom(r.Context()))
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, deleteTransactionResponse{Balance: balance.String()})
}

// cashFlow handles GET /v1/cash-flow?all=&from=&to=.
func (s *Server) cashFlow(w http.ResponseWriter, r *http.Request) {
	from, err := queryTime(r, "from")
	if err != nil { badRequest(w, "invalid from"); return }
	to, err := queryTime(r, "to")
	if err != nil { badRequest(w, "invalid to"); return }
	flows, err := s.svc.Reports.CashFlow(r.Context(), actorFrom(r.Context()), queryBool(r, "all"), from, to)
	if err != nil { s.serviceError(w, r, err); return }
	out := make([]cashFlowResponse, 0, len(flows))
	for _, cf := range flows {
		out = append(out, toCashFlowResponse(cf))
	}
	toJSON(w, http.StatusOK, out)
}
