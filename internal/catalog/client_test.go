package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/cinelog/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(config.CatalogConfig{
		BaseURL:      srv.URL + "/3/",
		ImageBaseURL: "https://img.example.com/t/p",
		APIKey:       "test-key",
		Timeout:      time.Second,
	}, nil, zerolog.Nop())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_Search(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/search/movie", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "alien", r.URL.Query().Get("query"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "1979", r.URL.Query().Get("year"))

		writeJSON(w, map[string]any{
			"page":          2,
			"total_pages":   3,
			"total_results": 41,
			"results": []map[string]any{
				{"id": 348, "title": "Alien", "release_date": "1979-05-25", "poster_path": "/alien.jpg", "vote_average": 8.1},
				{"id": 9999, "title": "No Poster"},
			},
		})
	})

	res, err := c.Search(context.Background(), " alien ", SearchOptions{Page: 2, Year: 1979})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Page)
	assert.Equal(t, 41, res.TotalResults)
	require.Len(t, res.Results, 2)
	assert.Equal(t, 348, res.Results[0].ID)
	assert.Equal(t, "https://img.example.com/t/p/w342/alien.jpg", res.Results[0].PosterURL)
	assert.Empty(t, res.Results[1].PosterURL)
}

func TestClient_SearchDefaults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.False(t, r.URL.Query().Has("year"))
		writeJSON(w, map[string]any{"page": 1, "results": []any{}})
	})

	res, err := c.Search(context.Background(), "heat", SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Results)

	_, err = c.Search(context.Background(), "   ", SearchOptions{})
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

func TestClient_DetailsAndSimilar(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/3/movie/550":
			writeJSON(w, map[string]any{
				"id": 550, "title": "Fight Club", "runtime": 139, "poster_path": "/fc.jpg",
				"genres": []map[string]any{{"id": 18, "name": "Drama"}},
			})
		case "/3/movie/550/similar":
			writeJSON(w, map[string]any{"page": 1, "results": []map[string]any{{"id": 807, "title": "Se7en"}}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	d, err := c.Details(ctx, "550")
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", d.Title)
	assert.Equal(t, 139, d.Runtime)
	assert.Equal(t, []Genre{{ID: 18, Name: "Drama"}}, d.Genres)
	assert.Equal(t, "https://img.example.com/t/p/w342/fc.jpg", d.PosterURL)

	similar, err := c.Similar(ctx, "550")
	require.NoError(t, err)
	require.Len(t, similar.Results, 1)
	assert.Equal(t, "Se7en", similar.Results[0].Title)

	_, err = c.Details(ctx, "551")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Details(ctx, "../genre")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_Genres(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/3/genre/movie/list", r.URL.Path)
		writeJSON(w, map[string]any{"genres": []map[string]any{{"id": 28, "name": "Action"}, {"id": 35, "name": "Comedy"}}})
	})

	genres, err := c.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Genre{{ID: 28, Name: "Action"}, {ID: 35, Name: "Comedy"}}, genres)
}

func TestClient_UpstreamErrors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := c.Genres(context.Background())
		require.ErrorIs(t, err, ErrUpstream)

		var statusErr *StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	})

	t.Run("bad body", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		})

		_, err := c.Genres(context.Background())
		assert.ErrorIs(t, err, ErrUpstream)
	})

	t.Run("unreachable", func(t *testing.T) {
		c := NewClient(config.CatalogConfig{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, nil, zerolog.Nop())

		_, err := c.Genres(context.Background())
		assert.ErrorIs(t, err, ErrUpstream)
	})
}
