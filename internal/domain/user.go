// Package domain contains the core business entities for Cinelog.
// These are pure Go structs with no storage dependencies, representing
// the fundamental concepts of the movie tracker.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user in the system.
// Each user owns at most one MovieList.
type User struct {
	// ID is the unique identifier for the user.
	ID uuid.UUID `json:"id"`

	// Username is the unique, lower-cased login name.
	Username string `json:"username"`

	// Email is the unique, lower-cased email address.
	Email string `json:"email"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with a fresh identifier.
func NewUser(username, email, passwordHash string) *User {
	now := time.Now().UTC()
	return &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
