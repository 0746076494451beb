// Package validation holds the field validators applied on every user and
// task write, not only at creation time.
package validation

import (
	"errors"
	"net/mail"
	"strings"
)

// Name validates a profile name.
func Name(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("name is required")
	}

	if len(trimmed) > 100 {
		return errors.New("name is too long (max 100 characters)")
	}

	return nil
}

// Email validates email format and length using Go's RFC 5322 parser.
func Email(email string) error {
	if email == "" {
		return errors.New("email is required")
	}

	// RFC 5321: 254 is the longest deliverable address
	if len(email) > 254 {
		return errors.New("email is too long (max 254 characters)")
	}

	if _, err := mail.ParseAddress(email); err != nil {
		return errors.New("email is invalid")
	}

	return nil
}

// Age validates a user age.
func Age(age int) error {
	if age < 0 {
		return errors.New("age must be a positive number")
	}
	return nil
}

// Password validates a plaintext password before it is hashed.
func Password(password string) error {
	if len(password) < 7 {
		return errors.New("password must be at least 7 characters")
	}

	// bcrypt silently truncates beyond 72 bytes
	if len(password) > 72 {
		return errors.New("password must not exceed 72 characters")
	}

	if strings.Contains(strings.ToLower(password), "password") {
		return errors.New(`password cannot contain the word "password"`)
	}

	return nil
}

// TaskDescription validates a task description.
func TaskDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return errors.New("description is required")
	}
	return nil
}
