package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"splitledger/internal/core"
	"splitledger/internal/services"
	"splitledger/internal/store"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError maps the core error taxonomy to HTTP status codes. The
// error message carries the failed invariant so clients can point at
// the offending field.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidPayment),
		errors.Is(err, core.ErrInvalidSplit),
		errors.Is(err, core.ErrInconsistentExpense),
		errors.Is(err, core.ErrDivisionByZero),
		errors.Is(err, services.ErrInvalidGroup):
		status = http.StatusBadRequest
	case errors.Is(err, core.ErrUnknownMember),
		errors.Is(err, core.ErrExceedsOwedAmount):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrConcurrentModification):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}
