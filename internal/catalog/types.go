// Package catalog talks to the TMDB movie catalog.
package catalog

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUpstream indicates the catalog answered with a non-2xx status or
	// could not be reached.
	ErrUpstream = errors.New("catalog upstream error")

	// ErrNotFound indicates the catalog has no such movie.
	ErrNotFound = errors.New("catalog movie not found")

	// ErrEmptyQuery indicates a search without search terms.
	ErrEmptyQuery = errors.New("search query is required")
)

// StatusError carries the HTTP status returned by the catalog.
// It matches ErrUpstream with errors.Is.
type StatusError struct {
	StatusCode int
	Path       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s returned %d", ErrUpstream.Error(), e.Path, e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUpstream
}

// Catalog is the set of lookups the API exposes. It is implemented by
// Client and by the caching CachedClient.
type Catalog interface {
	Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error)
	Details(ctx context.Context, movieID string) (*MovieDetails, error)
	Genres(ctx context.Context) ([]Genre, error)
	Similar(ctx context.Context, movieID string) (*SearchResult, error)
}

// SearchOptions narrows a search.
type SearchOptions struct {
	// Page is 1-based. Values below 1 mean the first page.
	Page int

	// Year restricts results to a release year. Zero means any year.
	Year int
}

// Movie is a catalog search hit. Field names follow the TMDB wire format
// so the UI can consume results unchanged.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	PosterPath   string  `json:"poster_path"`
	BackdropPath string  `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`

	// PosterURL is PosterPath resolved against the configured image host.
	PosterURL string `json:"poster_url,omitempty"`
}

// SearchResult is one page of movies.
type SearchResult struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the full record for one movie.
type MovieDetails struct {
	Movie
	Genres  []Genre `json:"genres"`
	Runtime int     `json:"runtime"`
	Tagline string  `json:"tagline"`
	Status  string  `json:"status"`
	IMDbID  string  `json:"imdb_id"`
}
