package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/prn-tf/cinelog/internal/domain"
	"github.com/prn-tf/cinelog/internal/repository"
)

// movieListRepository implements repository.MovieListRepository for PostgreSQL.
// Entries live in a JSONB column, one row per user.
type movieListRepository struct {
	db *DB
}

// NewMovieListRepository creates a new PostgreSQL movie list repository.
func NewMovieListRepository(db *DB) repository.MovieListRepository {
	return &movieListRepository{db: db}
}

// GetByUserID retrieves the list owned by userID.
func (r *movieListRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.MovieList, error) {
	query := `
		SELECT movies, version, created_at, updated_at
		FROM movie_lists
		WHERE user_id = $1
	`

	var movies []byte
	list := &domain.MovieList{UserID: userID}

	err := r.db.Pool.QueryRow(ctx, query, userID).Scan(
		&movies,
		&list.Version,
		&list.CreatedAt,
		&list.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get movie list: %w", err)
	}

	if err := json.Unmarshal(movies, &list.Movies); err != nil {
		return nil, fmt.Errorf("failed to decode movie list: %w", err)
	}
	if list.Movies == nil {
		list.Movies = []domain.MovieEntry{}
	}

	return list, nil
}

// Create inserts a new list row with version 1.
func (r *movieListRepository) Create(ctx context.Context, list *domain.MovieList) error {
	movies, err := encodeMovies(list)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO movie_lists (user_id, movies, version, created_at, updated_at)
		VALUES ($1, $2, 1, $3, $4)
	`

	_, err = r.db.Pool.Exec(ctx, query, list.UserID, movies, list.CreatedAt, list.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create movie list: %w", err)
	}

	list.Version = 1
	return nil
}

// Save replaces the row if the stored version still matches.
func (r *movieListRepository) Save(ctx context.Context, list *domain.MovieList) error {
	movies, err := encodeMovies(list)
	if err != nil {
		return err
	}

	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE movie_lists
		SET movies = $1, version = version + 1, updated_at = $2
		WHERE user_id = $3 AND version = $4
	`, movies, list.UpdatedAt, list.UserID, list.Version)
	if err != nil {
		return fmt.Errorf("failed to save movie list: %w", err)
	}

	if tag.RowsAffected() == 1 {
		list.Version++
		return nil
	}

	var exists bool
	err = r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM movie_lists WHERE user_id = $1)`, list.UserID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check movie list existence: %w", err)
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrVersionConflict
}

func encodeMovies(list *domain.MovieList) ([]byte, error) {
	movies := list.Movies
	if movies == nil {
		movies = []domain.MovieEntry{}
	}
	b, err := json.Marshal(movies)
	if err != nil {
		return nil, fmt.Errorf("failed to encode movie list: %w", err)
	}
	return b, nil
}

var _ repository.MovieListRepository = (*movieListRepository)(nil)
