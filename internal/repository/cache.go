// Package repository defines data access interfaces for Cinelog.
package repository

import (
	"context"
	"strconv"
	"time"
)

// =============================================================================
// Cache Interface
// =============================================================================

// Cache defines the interface for caching operations.
// Implemented by cache/redis for shared deployments and cache/memory
// for a single node.
type Cache interface {
	// Get retrieves a value by key.
	// Returns ErrCacheMiss if the key doesn't exist.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with an optional TTL.
	// If ttl is 0, the value doesn't expire.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// Exists checks if a key exists.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Common Cache Keys
// =============================================================================

// CacheKeys generates cache keys for common scenarios.
var CacheKeys = cacheKeys{}

type cacheKeys struct{}

// CatalogSearch returns a cache key for a catalog search page.
func (cacheKeys) CatalogSearch(query string, page, year int) string {
	return "cache:catalog:search:" + query + ":" + strconv.Itoa(page) + ":" + strconv.Itoa(year)
}

// CatalogMovie returns a cache key for catalog movie details.
func (cacheKeys) CatalogMovie(id string) string {
	return "cache:catalog:movie:" + id
}

// CatalogSimilar returns a cache key for similar-movie lookups.
func (cacheKeys) CatalogSimilar(id string) string {
	return "cache:catalog:similar:" + id
}

// CatalogGenres returns the cache key for the genre list.
func (cacheKeys) CatalogGenres() string {
	return "cache:catalog:genres"
}
