package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"debtflow.io/internal/authz"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.New("malformed request body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must contain a single object")
	}
	return nil
}

// writeAuthzError maps the core's error taxonomy onto HTTP statuses. Storage
// failures stay 5xx so callers can tell "denied" from "broken".
func writeAuthzError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authz.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, authz.ErrNoActiveRole):
		writeError(w, http.StatusUnauthorized, "no active role")
	case errors.Is(err, authz.ErrExpired):
		writeError(w, http.StatusUnauthorized, "session expired")
	case errors.Is(err, authz.ErrInvalidGrant):
		writeError(w, http.StatusUnprocessableEntity, "invalid grant")
	case errors.Is(err, authz.ErrDuplicateGrant):
		writeError(w, http.StatusConflict, "duplicate grant")
	case errors.Is(err, authz.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, authz.ErrStoreUnavailable):
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
