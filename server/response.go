package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/UTSAV1434/AfterHours/errors"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
	}
}

// writeError maps the service error taxonomy onto HTTP statuses. Store
// faults keep their diagnostic detail in the body, like every other
// class; nothing is retried here.
func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "err", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case apperrors.IsValidation(err):
		return http.StatusBadRequest
	case apperrors.IsModeration(err):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrPostNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrPostingClosed):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
