package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/cinelog/internal/repository/repotest"
)

// newTestDB connects to CINELOG_TEST_POSTGRES_DSN or skips the test.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("CINELOG_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("CINELOG_TEST_POSTGRES_DSN not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)

	db := &DB{Pool: pool, logger: zerolog.Nop()}
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.Migrate(ctx))
	_, err = pool.Exec(ctx, `TRUNCATE users, movie_lists`)
	require.NoError(t, err)

	return db
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))

	version, err := db.Version(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, version)
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repotest.RunUserRepository(t, NewUserRepository(db))
}

func TestMovieListRepository(t *testing.T) {
	db := newTestDB(t)
	repotest.RunMovieListRepository(t, NewMovieListRepository(db))
}
