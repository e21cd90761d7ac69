package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/cinelog/internal/config"
)

const posterSize = "w342"

// Client is an HTTP client for the TMDB v3 API.
type Client struct {
	baseURL      string
	imageBaseURL string
	apiKey       string
	http         *http.Client
	logger       zerolog.Logger
}

// NewClient creates a new catalog client. httpClient may be nil.
func NewClient(cfg config.CatalogConfig, httpClient *http.Client, logger zerolog.Logger) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		imageBaseURL: strings.TrimRight(cfg.ImageBaseURL, "/"),
		apiKey:       cfg.APIKey,
		http:         httpClient,
		logger:       logger.With().Str("component", "catalog").Logger(),
	}
}

// Search finds movies by title.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(max(opts.Page, 1)))
	if opts.Year > 0 {
		params.Set("year", strconv.Itoa(opts.Year))
	}

	var res SearchResult
	if err := c.get(ctx, "/search/movie", params, &res); err != nil {
		return nil, fmt.Errorf("failed to search movies: %w", err)
	}
	c.resolvePosters(res.Results)
	return &res, nil
}

// Details returns the full record for one movie.
func (c *Client) Details(ctx context.Context, movieID string) (*MovieDetails, error) {
	path, err := moviePath(movieID, "")
	if err != nil {
		return nil, err
	}

	var d MovieDetails
	if err := c.get(ctx, path, nil, &d); err != nil {
		return nil, fmt.Errorf("failed to fetch movie details: %w", err)
	}
	d.PosterURL = c.posterURL(d.PosterPath)
	return &d, nil
}

// Genres returns the movie genre list.
func (c *Client) Genres(ctx context.Context) ([]Genre, error) {
	var res struct {
		Genres []Genre `json:"genres"`
	}
	if err := c.get(ctx, "/genre/movie/list", nil, &res); err != nil {
		return nil, fmt.Errorf("failed to fetch genres: %w", err)
	}
	if res.Genres == nil {
		res.Genres = []Genre{}
	}
	return res.Genres, nil
}

// Similar returns movies similar to movieID.
func (c *Client) Similar(ctx context.Context, movieID string) (*SearchResult, error) {
	path, err := moviePath(movieID, "/similar")
	if err != nil {
		return nil, err
	}

	var res SearchResult
	if err := c.get(ctx, path, nil, &res); err != nil {
		return nil, fmt.Errorf("failed to fetch similar movies: %w", err)
	}
	c.resolvePosters(res.Results)
	return &res, nil
}

// moviePath validates a numeric TMDB id and builds the resource path.
func moviePath(movieID, suffix string) (string, error) {
	id, err := strconv.Atoi(strings.TrimSpace(movieID))
	if err != nil || id <= 0 {
		return "", fmt.Errorf("%w: invalid movie id %q", ErrNotFound, movieID)
	}
	return "/movie/" + strconv.Itoa(id) + suffix, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("catalog request")

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{StatusCode: resp.StatusCode, Path: path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: invalid response body: %w", ErrUpstream, err)
	}
	return nil
}

func (c *Client) resolvePosters(movies []Movie) {
	for i := range movies {
		movies[i].PosterURL = c.posterURL(movies[i].PosterPath)
	}
}

func (c *Client) posterURL(path string) string {
	if path == "" || c.imageBaseURL == "" {
		return ""
	}
	return c.imageBaseURL + "/" + posterSize + path
}

var _ Catalog = (*Client)(nil)
