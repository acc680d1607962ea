package v1

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tinoosan/fintrack/internal/ledger"
)

func (s *Server) postCategory(w http.ResponseWriter, r *http.Request) {
	var req namedRequest
	if !decodeJSON(w, r, &req) { return }
	c, err := s.svc.Catalog.CreateCategory(r.Context(), actorFrom(r.Context()).UserID, req.Name)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusCreated, referenceResponse{ID: c.ID, OwnerID: c.OwnerID, Name: c.Name})
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Catalog.ListCategories(r.Context(), actorFrom(r.Context()).UserID)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toReferences(list, func(ledger.Category) string { return "" }))
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	s.deleteReference(w, r, s.svc.Catalog.DeleteCategory)
}

func (s *Server) postCurrency(w http.ResponseWriter, r *http.Request) {
	var req currencyRequest
	if !decodeJSON(w, r, &req) { return }
	c, err := s.svc.Catalog.CreateCurrency(r.Context(), actorFrom(r.Context()).UserID, req.Name, req.Code)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusCreated, referenceResponse{ID: c.ID, OwnerID: c.OwnerID, Name: c.Name, Code: c.Code})
}

func (s *Server) listCurrencies(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Catalog.ListCurrencies(r.Context(), actorFrom(r.Context()).UserID)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toReferences(list, func(c ledger.Currency) string { return c.Code }))
}

func (s *Server) deleteCurrency(w http.ResponseWriter, r *http.Request) {
	s.deleteReference(w, r, s.svc.Catalog.DeleteCurrency)
}

func (s *Server) postAccountType(w http.ResponseWriter, r *http.Request) {
	var req namedRequest
	if !decodeJSON(w, r, &req) { return }
	at, err := s.svc.Catalog.CreateAccountType(r.Context(), actorFrom(r.Context()).UserID, req.Name)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusCreated, referenceResponse{ID: at.ID, OwnerID: at.OwnerID, Name: at.Name})
}

func (s *Server) listAccountTypes(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Catalog.ListAccountTypes(r.Context(), actorFrom(r.Context()).UserID)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, toReferences(list, func(ledger.AccountType) string { return "" }))
}

func (s *Server) deleteAccountType(w http.ResponseWriter, r *http.Request) {
	s.deleteReference(w, r, s.svc.Catalog.DeleteAccountType)
}

// seedCatalog handles POST /v1/catalog/seed for the acting user.
func (s *Server) seedCatalog(w http.ResponseWriter, r *http.Request) {
	seeded, err := s.svc.Catalog.SeedDefaults(r.Context(), actorFrom(r.Context()).UserID)
	if err != nil { s.serviceError(w, r, err); return }
	toJSON(w, http.StatusOK, seeded)
}

func (s *Server) deleteReference(w http.ResponseWriter, r *http.Request, del func(context.Context, uuid.UUID, ledger.Actor) error) {
	id, ok := pathID(r)
	if !ok { badRequest(w, "invalid id"); return }
	if err := del(r.Context(), id, actorFrom(r.Context())); err != nil {
		s.serviceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toReferences[T ledger.OwnedEntity](list []T, code func(T) string) []referenceResponse {
	out := make([]referenceResponse, 0, len(list))
	for _, v := range list {
		out = append(out, referenceResponse{ID: v.EntityID(), OwnerID: v.Owner(), Name: v.DisplayName(), Code: code(v)})
	}
	return out
}
