// Package domain contains the core business entities for Cinelog.
package domain

import (
	"errors"
	"fmt"
)

// Domain errors - these represent business rule violations.
// They are distinct from infrastructure errors (database, network, etc.).

var (
	// ===========================================
	// User Errors
	// ===========================================

	// ErrUserNotFound indicates the requested user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrUserAlreadyExists indicates a user with the same username/email exists.
	ErrUserAlreadyExists = errors.New("username or email already exists")

	// ErrInvalidCredentials indicates authentication failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized indicates the request carried no usable identity.
	ErrUnauthorized = errors.New("unauthorized")

	// ===========================================
	// Movie List Errors
	// ===========================================

	// ErrValidationFailed indicates a field value broke an entry invariant.
	// Use errors.As with *ValidationError to find the offending field.
	ErrValidationFailed = errors.New("validation failed")

	// ErrDuplicateEntry indicates the movie is already in the user's list.
	ErrDuplicateEntry = errors.New("movie already in list")

	// ErrAggregateNotFound indicates the user has no movie list yet.
	ErrAggregateNotFound = errors.New("movie list not found")

	// ErrEntryNotFound indicates the movie is not in the user's list.
	ErrEntryNotFound = errors.New("movie not found in list")

	// ErrConcurrentModification indicates the list kept changing underneath
	// a mutation and the write was abandoned.
	ErrConcurrentModification = errors.New("movie list was modified concurrently")
)

// ValidationError identifies the field that failed validation.
type ValidationError struct {
	// Field is the JSON name of the offending field (e.g. "rating").
	Field string

	// Reason describes the broken constraint.
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrValidationFailed.Error(), e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrValidationFailed.
func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// DomainError wraps a domain error with additional context.
type DomainError struct {
	// Err is the underlying domain error.
	Err error

	// Message provides additional context.
	Message string

	// Resource identifies the affected resource (e.g., movie ID).
	Resource string
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Err.Error(), e.Message, e.Resource)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError with context.
func NewDomainError(err error, message, resource string) *DomainError {
	return &DomainError{
		Err:      err,
		Message:  message,
		Resource: resource,
	}
}
