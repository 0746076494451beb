package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rzaleman/taskman-be/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"id": "a"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "a", body["id"])
}

func TestWriteServiceError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"field errors", apperr.FieldErrors{{Field: "email", Msg: "required"}}, http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("%w: invalid sortBy", apperr.ErrValidation), http.StatusBadRequest},
		{"duplicate email", apperr.ErrDuplicateEmail, http.StatusBadRequest},
		{"bad credentials", apperr.ErrInvalidCredentials, http.StatusBadRequest},
		{"unauthorized", apperr.ErrUnauthorized, http.StatusUnauthorized},
		{"not found", apperr.ErrNotFound, http.StatusNotFound},
		{"unknown", fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteServiceError(rec, tt.err)
			assert.Equal(t, tt.status, rec.Code)

			var body APIError
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestFieldErrorDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteServiceError(rec, apperr.FieldErrors{
		{Field: "email", Msg: "required"},
		{Field: "age", Msg: "must be a positive number"},
	})

	var body APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	details, ok := body.Details.([]interface{})
	require.True(t, ok)
	assert.Len(t, details, 2)
}
