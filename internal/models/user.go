package models

import "time"

// User represents a user account in the system. PasswordHash and Avatar are
// never serialized; clients fetch avatars through the dedicated avatar route.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Age          int       `json:"age"`
	PasswordHash string    `json:"-"`
	Avatar       []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
