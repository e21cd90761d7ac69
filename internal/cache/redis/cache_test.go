package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/cinelog/internal/repository"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()

	addr := os.Getenv("CINELOG_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CINELOG_TEST_REDIS_ADDR not set")
	}

	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(context.Background()).Err())

	return NewCache(client)
}

func TestCache_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()
	key := "test:" + uuid.NewString()

	_, err := c.Get(ctx, key)
	require.ErrorIs(t, err, repository.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, key, []byte(`{"id":1}`), time.Minute))

	got, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1}`, string(got))

	ok, err := c.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Delete(ctx, key))
	ok, err = c.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCache_Unavailable(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	_, err := NewCache(client).Get(context.Background(), "k")
	require.ErrorIs(t, err, repository.ErrCacheUnavailable)
}
