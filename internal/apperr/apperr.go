// Package apperr defines the error taxonomy shared by services and handlers.
// Services return these (possibly wrapped); the HTTP layer maps them onto
// status codes with errors.Is / errors.As.
package apperr

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound covers both truly absent records and records owned by
	// someone else, so ownership can't be probed.
	ErrNotFound = errors.New("not found")

	// ErrValidation marks malformed, missing or disallowed input fields.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is the deliberately generic login failure.
	// Unknown email and wrong password both produce exactly this.
	ErrInvalidCredentials = errors.New("unable to login")

	// ErrUnauthorized means a missing, malformed or revoked bearer token.
	ErrUnauthorized = errors.New("please authenticate")

	// ErrDuplicateEmail maps the unique-email constraint violation.
	ErrDuplicateEmail = errors.New("email already in use")
)

// FieldError describes a single violated field.
type FieldError struct {
	Field string `json:"field"`
	Msg   string `json:"msg"`
}

// FieldErrors aggregates per-field validation failures. It matches
// ErrValidation under errors.Is so handlers need a single check.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	var b strings.Builder
	for i, fe := range e {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(fe.Field + ": " + fe.Msg)
	}
	return b.String()
}

func (e FieldErrors) Is(target error) bool {
	return target == ErrValidation
}
