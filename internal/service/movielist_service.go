package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/cinelog/internal/domain"
	"github.com/prn-tf/cinelog/internal/metrics"
	"github.com/prn-tf/cinelog/internal/repository"
)

// maxSaveAttempts bounds the read-modify-write loop when concurrent writers
// keep moving the stored version.
const maxSaveAttempts = 3

// Operation names used in metrics.
const (
	opList           = "list"
	opListByCategory = "list_by_category"
	opAdd            = "add"
	opUpdate         = "update"
	opRemove         = "remove"
)

// MovieListService manages each user's movie list.
// Every mutation loads the whole list, applies the change in memory and
// saves it back with a version check.
type MovieListService struct {
	repo    repository.MovieListRepository
	metrics *metrics.Metrics
	now     func() time.Time
	logger  zerolog.Logger
}

// NewMovieListService creates a new MovieListService. m may be nil.
func NewMovieListService(repo repository.MovieListRepository, m *metrics.Metrics, logger zerolog.Logger) *MovieListService {
	return &MovieListService{
		repo:    repo,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
		logger:  logger.With().Str("service", "movielist").Logger(),
	}
}

// FetchOrCreate returns the user's list, creating and storing an empty one
// on first access.
func (s *MovieListService) FetchOrCreate(ctx context.Context, userID uuid.UUID) (*domain.MovieList, error) {
	list, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return list, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.storageError(err, userID, "failed to load movie list")
	}

	list = domain.NewMovieList(userID)
	err = s.repo.Create(ctx, list)
	switch {
	case err == nil:
		return list, nil
	case errors.Is(err, repository.ErrAlreadyExists):
		// Another request created it first.
		list, err = s.repo.GetByUserID(ctx, userID)
		if err != nil {
			return nil, s.storageError(err, userID, "failed to load movie list")
		}
		return list, nil
	default:
		return nil, s.storageError(err, userID, "failed to create movie list")
	}
}

// List returns every entry in storage order.
func (s *MovieListService) List(ctx context.Context, userID uuid.UUID) ([]domain.MovieEntry, error) {
	list, err := s.FetchOrCreate(ctx, userID)
	s.record(opList, err)
	if err != nil {
		return nil, err
	}
	return list.Entries(), nil
}

// ListByCategory returns the entries of one category in the requested order.
func (s *MovieListService) ListByCategory(ctx context.Context, userID uuid.UUID, category domain.Category, query domain.ListQuery) ([]domain.MovieEntry, error) {
	list, err := s.FetchOrCreate(ctx, userID)
	s.record(opListByCategory, err)
	if err != nil {
		return nil, err
	}
	return list.ByCategory(category, query), nil
}

// Add appends a movie to the user's list and returns the whole list.
func (s *MovieListService) Add(ctx context.Context, userID uuid.UUID, in domain.NewEntry) ([]domain.MovieEntry, error) {
	list, err := s.mutate(ctx, userID, true, func(l *domain.MovieList, now time.Time) error {
		_, err := l.Add(in, now)
		return err
	})
	s.record(opAdd, err)
	if err != nil {
		return nil, err
	}
	return list.Entries(), nil
}

// Update applies a partial update to one entry and returns it.
func (s *MovieListService) Update(ctx context.Context, userID uuid.UUID, movieID string, patch domain.EntryPatch) (domain.MovieEntry, error) {
	var updated domain.MovieEntry
	_, err := s.mutate(ctx, userID, false, func(l *domain.MovieList, now time.Time) error {
		var err error
		updated, err = l.Update(movieID, patch, now)
		return err
	})
	s.record(opUpdate, err)
	if err != nil {
		return domain.MovieEntry{}, err
	}
	return updated, nil
}

// Remove deletes one entry from the user's list.
func (s *MovieListService) Remove(ctx context.Context, userID uuid.UUID, movieID string) error {
	_, err := s.mutate(ctx, userID, false, func(l *domain.MovieList, now time.Time) error {
		return l.Remove(movieID, now)
	})
	s.record(opRemove, err)
	return err
}

// mutate runs the read-modify-write cycle. Domain errors from fn end the
// call immediately; only version conflicts cause another attempt.
func (s *MovieListService) mutate(ctx context.Context, userID uuid.UUID, create bool, fn func(*domain.MovieList, time.Time) error) (*domain.MovieList, error) {
	for attempt := 1; ; attempt++ {
		list, err := s.load(ctx, userID, create)
		if err != nil {
			return nil, err
		}

		if err := fn(list, s.now()); err != nil {
			return nil, err
		}

		err = s.repo.Save(ctx, list)
		if err == nil {
			return list, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, s.storageError(err, userID, "failed to save movie list")
		}

		s.metrics.MovieListConflict()
		s.logger.Debug().
			Str("user_id", userID.String()).
			Int("attempt", attempt).
			Msg("movie list changed during update, retrying")

		if attempt >= maxSaveAttempts {
			return nil, domain.ErrConcurrentModification
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

func (s *MovieListService) load(ctx context.Context, userID uuid.UUID, create bool) (*domain.MovieList, error) {
	if create {
		return s.FetchOrCreate(ctx, userID)
	}

	list, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrAggregateNotFound
		}
		return nil, s.storageError(err, userID, "failed to load movie list")
	}
	return list, nil
}

func (s *MovieListService) storageError(err error, userID uuid.UUID, msg string) error {
	s.logger.Error().Err(err).Str("user_id", userID.String()).Msg(msg)
	return fmt.Errorf("%w: %w", ErrInternalError, err)
}

func (s *MovieListService) record(operation string, err error) {
	s.metrics.MovieListOperation(operation, resultLabel(err))
}

// resultLabel maps an operation error to a low-cardinality metric label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidationFailed):
		return "invalid"
	case errors.Is(err, domain.ErrDuplicateEntry):
		return "duplicate"
	case errors.Is(err, domain.ErrAggregateNotFound), errors.Is(err, domain.ErrEntryNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConcurrentModification):
		return "conflict"
	default:
		return "error"
	}
}
