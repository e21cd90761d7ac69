package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/cinelog/internal/metrics"
	"github.com/prn-tf/cinelog/internal/repository"
)

// CachedClient serves catalog lookups from a repository.Cache and falls
// back to the wrapped Catalog on a miss. Cache failures never fail a
// lookup; they only cost an upstream call.
type CachedClient struct {
	next    Catalog
	cache   repository.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

// NewCachedClient wraps next with cache. m may be nil.
func NewCachedClient(next Catalog, cache repository.Cache, ttl time.Duration, m *metrics.Metrics, logger zerolog.Logger) *CachedClient {
	return &CachedClient{
		next:    next,
		cache:   cache,
		ttl:     ttl,
		metrics: m,
		logger:  logger.With().Str("component", "catalog_cache").Logger(),
	}
}

// Search implements Catalog.
func (c *CachedClient) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	key := repository.CacheKeys.CatalogSearch(strings.ToLower(query), max(opts.Page, 1), opts.Year)
	return cached(ctx, c, key, func() (*SearchResult, error) {
		return c.next.Search(ctx, query, opts)
	})
}

// Details implements Catalog.
func (c *CachedClient) Details(ctx context.Context, movieID string) (*MovieDetails, error) {
	return cached(ctx, c, repository.CacheKeys.CatalogMovie(movieID), func() (*MovieDetails, error) {
		return c.next.Details(ctx, movieID)
	})
}

// Genres implements Catalog.
func (c *CachedClient) Genres(ctx context.Context) ([]Genre, error) {
	return cached(ctx, c, repository.CacheKeys.CatalogGenres(), func() ([]Genre, error) {
		return c.next.Genres(ctx)
	})
}

// Similar implements Catalog.
func (c *CachedClient) Similar(ctx context.Context, movieID string) (*SearchResult, error) {
	return cached(ctx, c, repository.CacheKeys.CatalogSimilar(movieID), func() (*SearchResult, error) {
		return c.next.Similar(ctx, movieID)
	})
}

// cached returns the cached value for key or stores the result of fetch.
// Errors from fetch are never cached.
func cached[T any](ctx context.Context, c *CachedClient, key string, fetch func() (T, error)) (T, error) {
	data, err := c.cache.Get(ctx, key)
	switch {
	case err == nil:
		var v T
		if jsonErr := json.Unmarshal(data, &v); jsonErr == nil {
			c.metrics.CatalogCache("hit")
			return v, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding undecodable cache entry")
		c.metrics.CatalogCache("miss")
	case errors.Is(err, repository.ErrCacheMiss):
		c.metrics.CatalogCache("miss")
	default:
		c.metrics.CatalogCache("error")
		c.logger.Warn().Err(err).Str("key", key).Msg("catalog cache read failed")
	}

	v, err := fetch()
	if err != nil {
		return v, err
	}

	data, err = json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("catalog cache write failed")
	}
	return v, nil
}

var _ Catalog = (*CachedClient)(nil)
