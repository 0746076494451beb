package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rzaleman/taskman-be/internal/apperr"
)

// APIError is the JSON body returned for every failed request.
type APIError struct {
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, msg string, details interface{}) {
	WriteJSON(w, status, APIError{Error: msg, Details: details})
}

// WriteServiceError translates a service-layer error into the HTTP taxonomy.
func WriteServiceError(w http.ResponseWriter, err error) {
	var fields apperr.FieldErrors
	switch {
	case errors.As(err, &fields):
		WriteError(w, http.StatusBadRequest, "validation failed", fields)
	case errors.Is(err, apperr.ErrValidation):
		WriteError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, apperr.ErrDuplicateEmail):
		WriteError(w, http.StatusBadRequest, apperr.ErrDuplicateEmail.Error(), nil)
	case errors.Is(err, apperr.ErrInvalidCredentials):
		WriteError(w, http.StatusBadRequest, apperr.ErrInvalidCredentials.Error(), nil)
	case errors.Is(err, apperr.ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, apperr.ErrUnauthorized.Error(), nil)
	case errors.Is(err, apperr.ErrNotFound):
		WriteError(w, http.StatusNotFound, apperr.ErrNotFound.Error(), nil)
	default:
		WriteError(w, http.StatusInternalServerError, "internal server error", nil)
	}
}
