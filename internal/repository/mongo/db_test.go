package mongo

import (
	"context"
	"os"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/prn-tf/cinelog/internal/repository/repotest"
)

// newTestDB connects to CINELOG_TEST_MONGO_URI or skips the test.
// Every test gets a fresh database that is dropped afterwards.
func newTestDB(t *testing.T) *DB {
	t.Helper()

	uri := os.Getenv("CINELOG_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("CINELOG_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	db := NewFromClient(client, "cinelog_test_"+sanitize(t.Name()), zerolog.Nop())
	t.Cleanup(func() {
		_ = db.db.Drop(context.Background())
		_ = db.Close()
	})

	require.NoError(t, db.Migrate(ctx))
	return db
}

func sanitize(name string) string {
	out := make([]byte, 0, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			out = append(out, c)
		}
	}
	return string(out)
}

func TestMigrate_Idempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate(context.Background()))
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repotest.RunUserRepository(t, NewUserRepository(db))
}

func TestMovieListRepository(t *testing.T) {
	db := newTestDB(t)
	repotest.RunMovieListRepository(t, NewMovieListRepository(db))
}
