package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/prn-tf/cinelog/internal/domain"
	"github.com/prn-tf/cinelog/internal/service"
)

// MovieListHandler exposes the signed-in user's movie list.
type MovieListHandler struct {
	movieLists *service.MovieListService
	validate   *validator.Validate
	logger     zerolog.Logger
}

// NewMovieListHandler creates a new MovieListHandler.
func NewMovieListHandler(movieLists *service.MovieListService, logger zerolog.Logger) *MovieListHandler {
	return &MovieListHandler{
		movieLists: movieLists,
		validate:   newValidator(),
		logger:     logger.With().Str("handler", "movielist").Logger(),
	}
}

// RegisterRoutes registers the movie list routes. Callers must mount them
// behind the auth middleware.
func (h *MovieListHandler) RegisterRoutes(r chi.Router) {
	r.Route("/movielist", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/add", h.Add)
		r.Get("/category/{category}", h.ListByCategory)
		r.Patch("/{movieId}", h.Update)
		r.Delete("/{movieId}", h.Remove)
	})
}

type addMovieRequest struct {
	MovieID    movieID `json:"movieId" validate:"required"`
	Title      string  `json:"title" validate:"required"`
	PosterPath string  `json:"posterPath"`
	Category   string  `json:"category" validate:"omitempty,oneof=toWatch watched favorite"`
}

// List handles GET /movielist.
func (h *MovieListHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entries, err := h.movieLists.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// Add handles POST /movielist/add.
func (h *MovieListHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	var req addMovieRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateStruct(h.validate, req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entries, err := h.movieLists.Add(r.Context(), userID, domain.NewEntry{
		MovieID:    string(req.MovieID),
		Title:      req.Title,
		PosterPath: req.PosterPath,
		Category:   domain.Category(req.Category),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, entries)
}

// Update handles PATCH /movielist/{movieId}.
func (h *MovieListHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	movieID, err := movieIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	patch, err := decodePatch(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	entry, err := h.movieLists.Update(r.Context(), userID, movieID, patch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// Remove handles DELETE /movielist/{movieId}.
func (h *MovieListHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	movieID, err := movieIDParam(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	if err := h.movieLists.Remove(r.Context(), userID, movieID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "Movie removed from list")
}

// ListByCategory handles GET /movielist/category/{category}?sortBy=&sortOrder=.
func (h *MovieListHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	q := r.URL.Query()
	query := domain.ListQuery{
		SortBy: domain.ParseSortField(q.Get("sortBy")),
		Order:  domain.ParseSortOrder(q.Get("sortOrder")),
	}

	entries, err := h.movieLists.ListByCategory(r.Context(), userID, domain.Category(chi.URLParam(r, "category")), query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// movieIDParam returns the decoded {movieId} segment. chi matches on
// URL.RawPath when the request carries one, leaving escapes such as %2F in
// the parameter.
func movieIDParam(r *http.Request) (string, error) {
	id := chi.URLParam(r, "movieId")
	if r.URL.RawPath == "" {
		return id, nil
	}
	decoded, err := url.PathUnescape(id)
	if err != nil {
		return "", &domain.ValidationError{Field: "movieId", Reason: "is not a valid path segment"}
	}
	return decoded, nil
}

// decodePatch reads a partial update. A key that is absent or null is not
// supplied; any other value, including 0, "" and [], is applied.
func decodePatch(r *http.Request) (domain.EntryPatch, error) {
	var patch domain.EntryPatch

	var raw map[string]json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		return patch, err
	}

	if v, ok := supplied(raw, "category"); ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return patch, &domain.ValidationError{Field: "category", Reason: "must be a string"}
		}
		c := domain.Category(s)
		patch.Category = &c
	}
	if v, ok := supplied(raw, "rating"); ok {
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return patch, &domain.ValidationError{Field: "rating", Reason: "must be a number"}
		}
		patch.Rating = &f
	}
	if v, ok := supplied(raw, "review"); ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return patch, &domain.ValidationError{Field: "review", Reason: "must be a string"}
		}
		patch.Review = &s
	}
	if v, ok := supplied(raw, "tags"); ok {
		var tags []string
		if err := json.Unmarshal(v, &tags); err != nil {
			return patch, &domain.ValidationError{Field: "tags", Reason: "must be an array of strings"}
		}
		if tags == nil {
			tags = []string{}
		}
		patch.Tags = &tags
	}

	return patch, nil
}

func supplied(raw map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	v, ok := raw[key]
	if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
		return nil, false
	}
	return v, true
}
