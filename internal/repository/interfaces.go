// Package repository defines data access interfaces for Cinelog.
// These interfaces abstract the document store, allowing for different
// implementations (SQLite, PostgreSQL, MongoDB, in-memory for testing)
// while keeping the service layer clean.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/prn-tf/cinelog/internal/domain"
)

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user.
	// Returns ErrAlreadyExists if the username or email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByUsername retrieves a user by username.
	GetByUsername(ctx context.Context, username string) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// ExistsByUsername checks if a user with the given username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// =============================================================================
// Movie List Repository
// =============================================================================

// MovieListRepository stores one MovieList document per user.
//
// Writes are guarded by the document version: Save only succeeds when the
// stored version still equals list.Version, so two read-modify-write cycles
// on the same list cannot silently overwrite each other.
type MovieListRepository interface {
	// GetByUserID retrieves the list owned by userID.
	// Returns ErrNotFound if the user has no list yet.
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.MovieList, error)

	// Create inserts a new list with version 1 and sets list.Version.
	// Returns ErrAlreadyExists if the user already has a list.
	Create(ctx context.Context, list *domain.MovieList) error

	// Save replaces the stored document and increments list.Version.
	// Returns ErrVersionConflict if the stored version differs from list.Version,
	// and ErrNotFound if the list does not exist.
	Save(ctx context.Context, list *domain.MovieList) error
}

// =============================================================================
// Aggregate
// =============================================================================

// Repositories holds all repository instances.
type Repositories struct {
	User      UserRepository
	MovieList MovieListRepository
}
