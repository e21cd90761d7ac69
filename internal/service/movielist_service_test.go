package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/cinelog/internal/domain"
	"github.com/prn-tf/cinelog/internal/metrics"
	"github.com/prn-tf/cinelog/internal/repository"
	"github.com/prn-tf/cinelog/internal/repository/memory"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

// mockMovieListRepo is a testify mock of repository.MovieListRepository.
// GetByUserID accepts either a *domain.MovieList or a func returning a
// fresh one, so every retry can load its own copy.
type mockMovieListRepo struct {
	mock.Mock
}

func (m *mockMovieListRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.MovieList, error) {
	args := m.Called(ctx, userID)
	if fn, ok := args.Get(0).(func() *domain.MovieList); ok {
		return fn(), args.Error(1)
	}
	list, _ := args.Get(0).(*domain.MovieList)
	return list, args.Error(1)
}

func (m *mockMovieListRepo) Create(ctx context.Context, list *domain.MovieList) error {
	return m.Called(ctx, list).Error(0)
}

func (m *mockMovieListRepo) Save(ctx context.Context, list *domain.MovieList) error {
	return m.Called(ctx, list).Error(0)
}

func newMovieListService(repo repository.MovieListRepository) (*MovieListService, *metrics.Metrics) {
	m := metrics.New()
	s := NewMovieListService(repo, m, zerolog.Nop())
	s.now = func() time.Time { return t0 }
	return s, m
}

func newMemoryService() (*MovieListService, repository.MovieListRepository) {
	repo := memory.NewDB().Repositories().MovieList
	s, _ := newMovieListService(repo)
	return s, repo
}

func addMovie(t *testing.T, s *MovieListService, userID uuid.UUID, id, title string) {
	t.Helper()
	_, err := s.Add(context.Background(), userID, domain.NewEntry{MovieID: id, Title: title})
	require.NoError(t, err)
}

// storedList builds a list as a repository would return it.
func storedList(userID uuid.UUID, entries ...domain.MovieEntry) func() *domain.MovieList {
	return func() *domain.MovieList {
		movies := make([]domain.MovieEntry, len(entries))
		copy(movies, entries)
		return &domain.MovieList{UserID: userID, Movies: movies, Version: 4, CreatedAt: t0, UpdatedAt: t0}
	}
}

func assertCounter(t *testing.T, m *metrics.Metrics, name, help, typ, body string) {
	t.Helper()
	expected := "# HELP " + name + " " + help + "\n# TYPE " + name + " " + typ + "\n" + body
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), name))
}

func TestMovieListService_ListCreatesOnFirstAccess(t *testing.T) {
	s, repo := newMemoryService()
	ctx := context.Background()
	userID := uuid.New()

	_, err := repo.GetByUserID(ctx, userID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	entries, err := s.List(ctx, userID)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	stored, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, userID, stored.UserID)
	assert.Empty(t, stored.Movies)

	// A second read reuses the stored list.
	_, err = s.List(ctx, userID)
	require.NoError(t, err)
	again, err := repo.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, stored.Version, again.Version)
}

func TestMovieListService_FetchOrCreateLosesRace(t *testing.T) {
	repo := &mockMovieListRepo{}
	s, _ := newMovieListService(repo)
	userID := uuid.New()
	existing := storedList(userID, domain.MovieEntry{MovieID: "1", Title: "Alien", Category: domain.CategoryToWatch})

	repo.On("GetByUserID", mock.Anything, userID).Return(nil, repository.ErrNotFound).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(repository.ErrAlreadyExists).Once()
	repo.On("GetByUserID", mock.Anything, userID).Return(existing, nil).Once()

	list, err := s.FetchOrCreate(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list.Movies, 1)
	assert.Equal(t, "Alien", list.Movies[0].Title)
	repo.AssertExpectations(t)
}

func TestMovieListService_Add(t *testing.T) {
	s, _ := newMemoryService()
	ctx := context.Background()
	userID := uuid.New()

	entries, err := s.Add(ctx, userID, domain.NewEntry{MovieID: "550", Title: "Fight Club", PosterPath: "/fc.jpg"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.CategoryToWatch, entries[0].Category)
	assert.Equal(t, 0, entries[0].Rating)
	assert.Equal(t, t0, entries[0].AddedAt)
	assert.Nil(t, entries[0].WatchedAt)
	assert.Equal(t, []string{}, entries[0].Tags)

	entries, err = s.Add(ctx, userID, domain.NewEntry{MovieID: "13", Title: "Forrest Gump", Category: domain.CategoryFavorite})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "550", entries[0].MovieID, "entries keep insertion order")
	assert.Equal(t, "13", entries[1].MovieID)
}

func TestMovieListService_AddDuplicateLeavesListUnchanged(t *testing.T) {
	s, _ := newMemoryService()
	ctx := context.Background()
	userID := uuid.New()
	addMovie(t, s, userID, "550", "Fight Club")

	_, err := s.Add(ctx, userID, domain.NewEntry{MovieID: "550", Title: "Fight Club (again)"})
	require.ErrorIs(t, err, domain.ErrDuplicateEntry)

	entries, err := s.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Fight Club", entries[0].Title)
}

func TestMovieListService_AddInvalidCategory(t *testing.T) {
	s, _ := newMemoryService()

	_, err := s.Add(context.Background(), uuid.New(), domain.NewEntry{MovieID: "1", Title: "Heat", Category: "later"})
	require.ErrorIs(t, err, domain.ErrValidationFailed)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "category", verr.Field)
}

func TestMovieListService_UpdateWithoutList(t *testing.T) {
	s, repo := newMemoryService()
	userID := uuid.New()

	_, err := s.Update(context.Background(), userID, "550", domain.EntryPatch{Rating: ptr(4.0)})
	require.ErrorIs(t, err, domain.ErrAggregateNotFound)

	_, err = repo.GetByUserID(context.Background(), userID)
	assert.ErrorIs(t, err, repository.ErrNotFound, "update must not create a list")

	err = s.Remove(context.Background(), userID, "550")
	require.ErrorIs(t, err, domain.ErrAggregateNotFound)
}

func TestMovieListService_UpdateMissingEntry(t *testing.T) {
	s, _ := newMemoryService()
	userID := uuid.New()
	addMovie(t, s, userID, "550", "Fight Club")

	_, err := s.Update(context.Background(), userID, "999", domain.EntryPatch{Rating: ptr(4.0)})
	require.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestMovieListService_UpdateOnlyTouchesSuppliedFields(t *testing.T) {
	s, _ := newMemoryService()
	ctx := context.Background()
	userID := uuid.New()
	addMovie(t, s, userID, "550", "Fight Club")

	_, err := s.Update(ctx, userID, "550", domain.EntryPatch{
		Rating: ptr(4.0),
		Review: ptr("Rewatchable."),
		Tags:   ptr([]string{"cult", "90s"}),
	})
	require.NoError(t, err)

	updated, err := s.Update(ctx, userID, "550", domain.EntryPatch{Category: ptr(domain.CategoryFavorite)})
	require.NoError(t, err)
	assert.Equal(t, domain.CategoryFavorite, updated.Category)
	assert.Equal(t, 4, updated.Rating)
	assert.Equal(t, "Rewatchable.", updated.Review)
	assert.Equal(t, []string{"cult", "90s"}, updated.Tags)
	assert.Equal(t, "Fight Club", updated.Title)
	assert.Equal(t, t0, updated.AddedAt)

	// Explicit zero values are applied.
	updated, err = s.Update(ctx, userID, "550", domain.EntryPatch{Rating: ptr(0.0), Review: ptr(""), Tags: ptr([]string{})})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Rating)
	assert.Empty(t, updated.Review)
	assert.Empty(t, updated.Tags)
}

func TestMovieListService_WatchedAtIsSetOnce(t *testing.T) {
	s, _ := newMemoryService()
	ctx := context.Background()
	userID := uuid.New()
	addMovie(t, s, userID, "550", "Fight Club")

	first := t0.Add(time.Hour)
	s.now = func() time.Time { return first }
	updated, err := s.Update(ctx, userID, "550", domain.EntryPatch{Category: ptr(domain.CategoryWatched)})
	require.NoError(t, err)
	require.NotNil(t, updated.WatchedAt)
	assert.Equal(t, first, *updated.WatchedAt)

	s.now = func() time.Time { return first.Add(time.Hour) }
	_, err = s.Update(ctx, userID, "550", domain.EntryPatch{Category: ptr(domain.CategoryFavorite)})
	require.NoError(t, err)

	s.now = func() time.Time { return first.Add(2 * time.Hour) }
	updated, err = s.Update(ctx, userID, "550", domain.EntryPatch{Category: ptr(domain.CategoryWatched)})
	require.NoError(t, err)
	require.NotNil(t, updated.WatchedAt)
	assert.Equal(t, first, *updated.WatchedAt)
}

func TestMovieListService_UpdateRejectsInvalidPatch(t *testing.T) {
	s, _ := newMemoryService()
	ctx := context.Background()
	userID := uuid.New()
	addMovie(t, s, userID, "550", "Fight Club")

	tests := []struct {
		name  string
		patch domain.EntryPatch
		field string
	}{
		{"rating above max", domain.EntryPatch{Rating: ptr(6.0)}, "rating"},
		{"fractional rating", domain.EntryPatch{Rating: ptr(2.5)}, "rating"},
		{"negative rating", domain.EntryPatch{Rating: ptr(-1.0)}, "rating"},
		{"too many tags", domain.EntryPatch{Tags: ptr(make([]string, domain.MaxTags+1))}, "tags"},
		{"review too long", domain.EntryPatch{Review: ptr(strings.Repeat("a", domain.MaxReviewLength+1))}, "review"},
		{"unknown category", domain.EntryPatch{Category: ptr(domain.Category("someday"))}, "category"},
		{"valid fields rejected with invalid one", domain.EntryPatch{Category: ptr(domain.CategoryWatched), Rating: ptr(9.0)}, "rating"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Update(ctx, userID, "550", tt.patch)
			require.ErrorIs(t, err, domain.ErrValidationFailed)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			entries, err := s.List(ctx, userID)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, domain.CategoryToWatch, entries[0].Category)
			assert.Equal(t, 0, entries[0].Rating)
			assert.Nil(t, entries[0].WatchedAt)
		})
	}

	_, err := s.Update(ctx, userID, "550", domain.EntryPatch{Tags: ptr(make([]string, domain.MaxTags))})
	assert.NoError(t, err, "exactly the maximum number of tags is allowed")
}

func TestMovieListService_Remove(t *testing.T) {
	s, _ := newMemoryService()
	ctx := context.Background()
	userID := uuid.New()
	addMovie(t, s, userID, "1", "Alien")
	addMovie(t, s, userID, "2", "Aliens")
	addMovie(t, s, userID, "3", "Alien 3")

	require.NoError(t, s.Remove(ctx, userID, "2"))

	entries, err := s.List(ctx, userID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "1", entries[0].MovieID)
	assert.Equal(t, "3", entries[1].MovieID)

	err = s.Remove(ctx, userID, "2")
	require.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestMovieListService_ListByCategory(t *testing.T) {
	s, _ := newMemoryService()
	ctx := context.Background()
	userID := uuid.New()

	for i, title := range []string{"Heat", "Alien", "Casablanca", "Blade Runner"} {
		s.now = func() time.Time { return t0.Add(time.Duration(i) * time.Minute) }
		addMovie(t, s, userID, string(rune('a'+i)), title)
	}
	_, err := s.Update(ctx, userID, "b", domain.EntryPatch{Category: ptr(domain.CategoryWatched), Rating: ptr(5.0)})
	require.NoError(t, err)
	_, err = s.Update(ctx, userID, "d", domain.EntryPatch{Category: ptr(domain.CategoryWatched), Rating: ptr(3.0)})
	require.NoError(t, err)

	toWatch, err := s.ListByCategory(ctx, userID, domain.CategoryToWatch, domain.ListQuery{})
	require.NoError(t, err)
	require.Len(t, toWatch, 2)
	assert.Equal(t, "Casablanca", toWatch[0].Title, "default order is newest first")
	assert.Equal(t, "Heat", toWatch[1].Title)

	watched, err := s.ListByCategory(ctx, userID, domain.CategoryWatched, domain.ListQuery{SortBy: domain.SortByRating, Order: domain.SortAsc})
	require.NoError(t, err)
	require.Len(t, watched, 2)
	assert.Equal(t, "Blade Runner", watched[0].Title)
	assert.Equal(t, "Alien", watched[1].Title)

	favorites, err := s.ListByCategory(ctx, userID, domain.CategoryFavorite, domain.ListQuery{})
	require.NoError(t, err)
	assert.NotNil(t, favorites)
	assert.Empty(t, favorites)
}

func TestMovieListService_RetriesOnVersionConflict(t *testing.T) {
	repo := &mockMovieListRepo{}
	s, m := newMovieListService(repo)
	userID := uuid.New()

	repo.On("GetByUserID", mock.Anything, userID).Return(storedList(userID), nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(repository.ErrVersionConflict).Once()
	repo.On("Save", mock.Anything, mock.Anything).Return(nil).Once()

	entries, err := s.Add(context.Background(), userID, domain.NewEntry{MovieID: "550", Title: "Fight Club"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	repo.AssertNumberOfCalls(t, "GetByUserID", 2)
	repo.AssertNumberOfCalls(t, "Save", 2)

	assertCounter(t, m,
		"cinelog_movielist_save_conflicts_total",
		"Movie list saves rejected because the stored version had moved on.",
		"counter",
		"cinelog_movielist_save_conflicts_total 1\n")
}

func TestMovieListService_GivesUpAfterRepeatedConflicts(t *testing.T) {
	repo := &mockMovieListRepo{}
	s, m := newMovieListService(repo)
	userID := uuid.New()
	entry := domain.MovieEntry{MovieID: "550", Title: "Fight Club", Category: domain.CategoryToWatch, AddedAt: t0, Tags: []string{}}

	repo.On("GetByUserID", mock.Anything, userID).Return(storedList(userID, entry), nil)
	repo.On("Save", mock.Anything, mock.Anything).Return(repository.ErrVersionConflict)

	_, err := s.Update(context.Background(), userID, "550", domain.EntryPatch{Rating: ptr(3.0)})
	require.ErrorIs(t, err, domain.ErrConcurrentModification)
	repo.AssertNumberOfCalls(t, "Save", maxSaveAttempts)

	assertCounter(t, m,
		"cinelog_movielist_operations_total",
		"Movie list operations by operation and result.",
		"counter",
		`cinelog_movielist_operations_total{operation="update",result="conflict"} 1`+"\n")
}

func TestMovieListService_DomainErrorsAreNotRetried(t *testing.T) {
	repo := &mockMovieListRepo{}
	s, _ := newMovieListService(repo)
	userID := uuid.New()
	entry := domain.MovieEntry{MovieID: "550", Title: "Fight Club", Category: domain.CategoryToWatch, AddedAt: t0, Tags: []string{}}

	repo.On("GetByUserID", mock.Anything, userID).Return(storedList(userID, entry), nil)

	_, err := s.Add(context.Background(), userID, domain.NewEntry{MovieID: "550", Title: "Fight Club"})
	require.ErrorIs(t, err, domain.ErrDuplicateEntry)

	repo.AssertNumberOfCalls(t, "GetByUserID", 1)
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestMovieListService_StorageErrors(t *testing.T) {
	boom := errors.New("connection reset")
	userID := uuid.New()

	t.Run("load", func(t *testing.T) {
		repo := &mockMovieListRepo{}
		s, _ := newMovieListService(repo)
		repo.On("GetByUserID", mock.Anything, userID).Return(nil, boom)

		_, err := s.List(context.Background(), userID)
		require.ErrorIs(t, err, ErrInternalError)
		assert.ErrorIs(t, err, boom)
	})

	t.Run("save is not retried", func(t *testing.T) {
		repo := &mockMovieListRepo{}
		s, _ := newMovieListService(repo)
		repo.On("GetByUserID", mock.Anything, userID).Return(storedList(userID), nil)
		repo.On("Save", mock.Anything, mock.Anything).Return(boom)

		_, err := s.Add(context.Background(), userID, domain.NewEntry{MovieID: "1", Title: "Heat"})
		require.ErrorIs(t, err, ErrInternalError)
		assert.ErrorIs(t, err, boom)
		repo.AssertNumberOfCalls(t, "Save", 1)
	})
}

func TestMovieListService_ConcurrentAddsLoseNothing(t *testing.T) {
	s, _ := newMemoryService()
	ctx := context.Background()
	userID := uuid.New()
	_, err := s.List(ctx, userID)
	require.NoError(t, err)

	const writers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded []string
	)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := string(rune('A' + i))
			_, err := s.Add(ctx, userID, domain.NewEntry{MovieID: id, Title: "Movie " + id})
			if err != nil {
				assert.ErrorIs(t, err, domain.ErrConcurrentModification)
				return
			}
			mu.Lock()
			succeeded = append(succeeded, id)
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	entries, err := s.List(ctx, userID)
	require.NoError(t, err)

	stored := make([]string, 0, len(entries))
	for _, e := range entries {
		stored = append(stored, e.MovieID)
	}
	assert.ElementsMatch(t, succeeded, stored)
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "ok", resultLabel(nil))
	assert.Equal(t, "invalid", resultLabel(ErrInvalidEmail))
	assert.Equal(t, "duplicate", resultLabel(domain.NewDomainError(domain.ErrDuplicateEntry, "add", "1")))
	assert.Equal(t, "not_found", resultLabel(domain.ErrAggregateNotFound))
	assert.Equal(t, "not_found", resultLabel(domain.ErrEntryNotFound))
	assert.Equal(t, "conflict", resultLabel(domain.ErrConcurrentModification))
	assert.Equal(t, "error", resultLabel(ErrInternalError))
}
