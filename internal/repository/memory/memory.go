// Package memory provides in-process repositories.
// Data is lost on restart; use it for tests and local development.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/prn-tf/cinelog/internal/domain"
	"github.com/prn-tf/cinelog/internal/repository"
)

// DB is the shared state behind the memory repositories.
type DB struct {
	mu     sync.RWMutex
	users  map[uuid.UUID]*domain.User
	lists  map[uuid.UUID]storedList
	closed bool
}

// storedList keeps the list as an encoded document so callers never share
// memory with the store, the same way a real document database behaves.
type storedList struct {
	doc     []byte
	version int64
}

// NewDB creates an empty in-memory database.
func NewDB() *DB {
	return &DB{
		users: make(map[uuid.UUID]*domain.User),
		lists: make(map[uuid.UUID]storedList),
	}
}

// Repositories returns repositories backed by db.
func (db *DB) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:      &userRepository{db: db},
		MovieList: &movieListRepository{db: db},
	}
}

// Ping reports whether the database is open.
func (db *DB) Ping(ctx context.Context) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.closed {
		return fmt.Errorf("memory database is closed")
	}
	return ctx.Err()
}

// Health is an alias for Ping.
func (db *DB) Health(ctx context.Context) error {
	return db.Ping(ctx)
}

// Migrate is a no-op; there is no schema.
func (db *DB) Migrate(ctx context.Context) error {
	return ctx.Err()
}

// Close marks the database closed.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.closed = true
	return nil
}

var _ repository.Database = (*DB)(nil)

// =============================================================================
// Users
// =============================================================================

type userRepository struct {
	db *DB
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	for _, u := range r.db.users {
		if u.Username == user.Username || u.Email == user.Email {
			return fmt.Errorf("%w: username or email already exists", repository.ErrAlreadyExists)
		}
	}
	if _, exists := r.db.users[user.ID]; exists {
		return fmt.Errorf("%w: user id %s", repository.ErrAlreadyExists, user.ID)
	}

	u := *user
	r.db.users[user.ID] = &u
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.ID == id })
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Username == username })
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	_, err := r.GetByUsername(ctx, username)
	return err == nil, nil
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	return err == nil, nil
}

func (r *userRepository) find(match func(*domain.User) bool) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if match(u) {
			found := *u
			return &found, nil
		}
	}
	return nil, repository.ErrNotFound
}

// =============================================================================
// Movie lists
// =============================================================================

type movieListRepository struct {
	db *DB
}

func (r *movieListRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.MovieList, error) {
	r.db.mu.RLock()
	stored, ok := r.db.lists[userID]
	r.db.mu.RUnlock()

	if !ok {
		return nil, repository.ErrNotFound
	}

	var list domain.MovieList
	if err := json.Unmarshal(stored.doc, &list); err != nil {
		return nil, fmt.Errorf("failed to decode movie list: %w", err)
	}
	list.Version = stored.version
	return &list, nil
}

func (r *movieListRepository) Create(ctx context.Context, list *domain.MovieList) error {
	doc, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode movie list: %w", err)
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.lists[list.UserID]; exists {
		return repository.ErrAlreadyExists
	}
	r.db.lists[list.UserID] = storedList{doc: doc, version: 1}
	list.Version = 1
	return nil
}

func (r *movieListRepository) Save(ctx context.Context, list *domain.MovieList) error {
	doc, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to encode movie list: %w", err)
	}

	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, exists := r.db.lists[list.UserID]
	if !exists {
		return repository.ErrNotFound
	}
	if stored.version != list.Version {
		return repository.ErrVersionConflict
	}

	next := stored.version + 1
	r.db.lists[list.UserID] = storedList{doc: doc, version: next}
	list.Version = next
	return nil
}
