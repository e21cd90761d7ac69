// Package repotest holds behaviour tests shared by every repository backend.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/cinelog/internal/domain"
	"github.com/prn-tf/cinelog/internal/repository"
)

// RunUserRepository exercises a UserRepository implementation.
func RunUserRepository(t *testing.T, repo repository.UserRepository) {
	ctx := context.Background()

	user := domain.NewUser("alice", "alice@example.com", "hash")
	require.NoError(t, repo.Create(ctx, user))

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
		assert.Equal(t, "hash", got.PasswordHash)
	})

	t.Run("get by username and email", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		got, err = repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("exists", func(t *testing.T) {
		ok, err := repo.ExistsByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = repo.ExistsByEmail(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := repo.Create(ctx, domain.NewUser("alice", "other@example.com", "hash"))
		require.ErrorIs(t, err, repository.ErrAlreadyExists)
	})

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, domain.NewUser("bob", "alice@example.com", "hash"))
		require.ErrorIs(t, err, repository.ErrAlreadyExists)
	})
}

// RunMovieListRepository exercises a MovieListRepository implementation.
func RunMovieListRepository(t *testing.T, repo repository.MovieListRepository) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	t.Run("missing list", func(t *testing.T) {
		_, err := repo.GetByUserID(ctx, uuid.New())
		require.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("create and read back", func(t *testing.T) {
		list := domain.NewMovieList(uuid.New())
		require.NoError(t, repo.Create(ctx, list))
		assert.Equal(t, int64(1), list.Version)

		got, err := repo.GetByUserID(ctx, list.UserID)
		require.NoError(t, err)
		assert.Equal(t, list.UserID, got.UserID)
		assert.Equal(t, int64(1), got.Version)
		assert.NotNil(t, got.Movies)
		assert.Empty(t, got.Movies)
	})

	t.Run("create twice", func(t *testing.T) {
		list := domain.NewMovieList(uuid.New())
		require.NoError(t, repo.Create(ctx, list))

		err := repo.Create(ctx, domain.NewMovieList(list.UserID))
		require.ErrorIs(t, err, repository.ErrAlreadyExists)
	})

	t.Run("save round trip", func(t *testing.T) {
		list := domain.NewMovieList(uuid.New())
		require.NoError(t, repo.Create(ctx, list))

		_, err := list.Add(domain.NewEntry{MovieID: "550", Title: "Fight Club", PosterPath: "/p.jpg"}, now)
		require.NoError(t, err)
		watched := domain.CategoryWatched
		rating := 5.0
		review := "great"
		_, err = list.Update("550", domain.EntryPatch{
			Category: &watched,
			Rating:   &rating,
			Review:   &review,
			Tags:     &[]string{"classic", "90s"},
		}, now.Add(time.Hour))
		require.NoError(t, err)

		require.NoError(t, repo.Save(ctx, list))
		assert.Equal(t, int64(2), list.Version)

		got, err := repo.GetByUserID(ctx, list.UserID)
		require.NoError(t, err)
		require.Len(t, got.Movies, 1)

		entry := got.Movies[0]
		assert.Equal(t, "550", entry.MovieID)
		assert.Equal(t, "Fight Club", entry.Title)
		assert.Equal(t, "/p.jpg", entry.PosterPath)
		assert.Equal(t, domain.CategoryWatched, entry.Category)
		assert.Equal(t, 5, entry.Rating)
		assert.Equal(t, "great", entry.Review)
		assert.Equal(t, []string{"classic", "90s"}, entry.Tags)
		assert.True(t, entry.AddedAt.Equal(now))
		require.NotNil(t, entry.WatchedAt)
		assert.True(t, entry.WatchedAt.Equal(now.Add(time.Hour)))
		assert.Equal(t, int64(2), got.Version)
	})

	t.Run("stale save is rejected", func(t *testing.T) {
		list := domain.NewMovieList(uuid.New())
		require.NoError(t, repo.Create(ctx, list))

		a, err := repo.GetByUserID(ctx, list.UserID)
		require.NoError(t, err)
		b, err := repo.GetByUserID(ctx, list.UserID)
		require.NoError(t, err)

		_, err = a.Add(domain.NewEntry{MovieID: "1", Title: "One"}, now)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, a))

		_, err = b.Add(domain.NewEntry{MovieID: "2", Title: "Two"}, now)
		require.NoError(t, err)
		require.ErrorIs(t, repo.Save(ctx, b), repository.ErrVersionConflict)

		got, err := repo.GetByUserID(ctx, list.UserID)
		require.NoError(t, err)
		require.Len(t, got.Movies, 1)
		assert.Equal(t, "1", got.Movies[0].MovieID)
	})

	t.Run("save unknown list", func(t *testing.T) {
		list := domain.NewMovieList(uuid.New())
		list.Version = 1
		require.ErrorIs(t, repo.Save(ctx, list), repository.ErrNotFound)
	})
}
