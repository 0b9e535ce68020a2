package authapi

import (
	"errors"
	"net/http"

	"hub/cmd/internal/errkit"
)

// writeDomainError maps a domain error's errkit kind onto the Hub status
// code taxonomy and writes it as a JSON error body. Conflict errors name
// the offending field so the client can react without re-parsing a
// message string.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	var conflict errkit.ConflictError
	if errors.As(err, &conflict) {
		writeError(w, http.StatusConflict, "conflict", "already in use: "+conflict.Field)
		return
	}

	switch {
	case errors.Is(err, errkit.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, errkit.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	case errors.Is(err, errkit.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", "invalid or expired token")
	case errors.Is(err, errkit.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, errkit.ErrGone):
		writeError(w, http.StatusGone, "banned", "account banned")
	case errors.Is(err, errkit.ErrInactive):
		w.WriteHeader(http.StatusTeapot)
	case errors.Is(err, errkit.ErrNotModified):
		w.WriteHeader(http.StatusNotModified)
	default:
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
