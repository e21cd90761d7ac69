package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/prn-tf/cinelog/internal/domain"
	"github.com/prn-tf/cinelog/internal/repository"
)

// movieListRepository implements repository.MovieListRepository for SQLite.
// The movie entries are stored as one JSON document per user.
type movieListRepository struct {
	db *DB
}

// NewMovieListRepository creates a new SQLite movie list repository.
func NewMovieListRepository(db *DB) repository.MovieListRepository {
	return &movieListRepository{db: db}
}

// GetByUserID retrieves the list owned by userID.
func (r *movieListRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.MovieList, error) {
	query := `
		SELECT movies, version, created_at, updated_at
		FROM movie_lists
		WHERE user_id = ?
	`

	var movies, createdAt, updatedAt string
	list := &domain.MovieList{UserID: userID}

	err := r.db.QueryRowContext(ctx, query, userID.String()).Scan(
		&movies,
		&list.Version,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if isNoRows(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get movie list: %w", err)
	}

	if err := json.Unmarshal([]byte(movies), &list.Movies); err != nil {
		return nil, fmt.Errorf("failed to decode movie list: %w", err)
	}
	if list.Movies == nil {
		list.Movies = []domain.MovieEntry{}
	}
	if list.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to decode movie list created_at: %w", err)
	}
	if list.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to decode movie list updated_at: %w", err)
	}

	return list, nil
}

// Create inserts a new list document with version 1.
func (r *movieListRepository) Create(ctx context.Context, list *domain.MovieList) error {
	movies, err := encodeMovies(list)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO movie_lists (user_id, movies, version, created_at, updated_at)
		VALUES (?, ?, 1, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		list.UserID.String(),
		movies,
		list.CreatedAt.Format(time.RFC3339Nano),
		list.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create movie list: %w", err)
	}

	list.Version = 1
	return nil
}

// Save replaces the document if the stored version still matches.
func (r *movieListRepository) Save(ctx context.Context, list *domain.MovieList) error {
	movies, err := encodeMovies(list)
	if err != nil {
		return err
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE movie_lists
			SET movies = ?, version = version + 1, updated_at = ?
			WHERE user_id = ? AND version = ?
		`,
			movies,
			list.UpdatedAt.Format(time.RFC3339Nano),
			list.UserID.String(),
			list.Version,
		)
		if err != nil {
			return fmt.Errorf("failed to save movie list: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read rows affected: %w", err)
		}
		if rowsAffected == 1 {
			list.Version++
			return nil
		}

		var count int
		err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM movie_lists WHERE user_id = ?`, list.UserID.String()).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to check movie list existence: %w", err)
		}
		if count == 0 {
			return repository.ErrNotFound
		}
		return repository.ErrVersionConflict
	})
}

func encodeMovies(list *domain.MovieList) (string, error) {
	movies := list.Movies
	if movies == nil {
		movies = []domain.MovieEntry{}
	}
	b, err := json.Marshal(movies)
	if err != nil {
		return "", fmt.Errorf("failed to encode movie list: %w", err)
	}
	return string(b), nil
}

// Ensure movieListRepository implements repository.MovieListRepository.
var _ repository.MovieListRepository = (*movieListRepository)(nil)
