package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/tinoosan/fintrack/internal/errs"
)

// errorResponse is the standard error payload for the API.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// toJSON writes a JSON response with status code.
func toJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, status int, msg, code string) {
	toJSON(w, status, errorResponse{Error: msg, Code: code})
}

func badRequest(w http.ResponseWriter, msg string) { writeErr(w, http.StatusBadRequest, msg, "invalid") }

// serviceError maps ledger errors onto HTTP statuses. Anything unrecognised is
// logged and reported as 500 without detail.
func (s *Server) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	code := errs.Code(err)
	switch {
	case errors.Is(err, errs.ErrNotFound):
		writeErr(w, http.StatusNotFound, "not found", code)
	case errors.Is(err, errs.ErrDuplicateName):
		writeErr(w, http.StatusConflict, "name already in use", code)
	case errors.Is(err, errs.ErrInvalidConfiguration):
		writeErr(w, http.StatusUnprocessableEntity, "account type or currency is not available", code)
	case errors.Is(err, errs.ErrInvalidCategory):
		writeErr(w, http.StatusUnprocessableEntity, "category is not available", code)
	case errors.Is(err, errs.ErrCannotEditInitialTransaction):
		writeErr(w, http.StatusUnprocessableEntity, "initial balance transactions are edited through the account", code)
	case errors.Is(err, errs.ErrSystemCategory):
		writeErr(w, http.StatusUnprocessableEntity, "system records cannot be changed", code)
	case errors.Is(err, errs.ErrUnauthorized):
		writeErr(w, http.StatusForbidden, "forbidden", code)
	case errors.Is(err, errs.ErrInvalid):
		writeErr(w, http.StatusBadRequest, "invalid request", code)
	default:
		s.log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeErr(w, http.StatusInternalServerError, "internal error", "internal")
	}
}

// decodeJSON enforces a JSON content type and strict decoding into v.
// It writes the error response itself and reports whether decoding succeeded.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	mime := strings.ToLower(strings.TrimSpace(strings.Split(r.Header.Get("Content-Type"), ";")[0]))
	if mime != "application/json" {
		writeErr(w, http.StatusUnsupportedMediaType, "unsupported_media_type", "unsupported_media_type")
		return false
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		badRequest(w, "invalid JSON: "+err.Error())
		return false
	}
	return true
}
