// Package service provides business logic services for Cinelog.
package service

import (
	"errors"

	"github.com/prn-tf/cinelog/internal/domain"
)

// Common service errors.
var (
	// ErrInternalError wraps storage and infrastructure failures.
	ErrInternalError = errors.New("internal server error")
)

// User input errors. They match domain.ErrValidationFailed with errors.Is.
var (
	ErrInvalidUsername = &domain.ValidationError{Field: "username", Reason: "must be 3-50 characters"}
	ErrInvalidEmail    = &domain.ValidationError{Field: "email", Reason: "must be a valid email address"}
	ErrInvalidPassword = &domain.ValidationError{Field: "password", Reason: "must be at least 6 characters"}
)
