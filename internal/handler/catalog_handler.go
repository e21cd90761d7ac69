package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/cinelog/internal/catalog"
	"github.com/prn-tf/cinelog/internal/domain"
)

// CatalogHandler proxies movie search and metadata lookups.
type CatalogHandler struct {
	catalog catalog.Catalog
	logger  zerolog.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(c catalog.Catalog, logger zerolog.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalog: c,
		logger:  logger.With().Str("handler", "catalog").Logger(),
	}
}

// RegisterRoutes registers the catalog routes.
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/search", h.Search)
	r.Get("/genres", h.Genres)
	r.Get("/movies/{id}", h.Details)
	r.Get("/movies/{id}/similar", h.Similar)
}

// Search handles GET /search?q=&page=&year=.
func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := optionalInt(q.Get("page"), "page")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	year, err := optionalInt(q.Get("year"), "year")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	res, err := h.catalog.Search(r.Context(), q.Get("q"), catalog.SearchOptions{Page: page, Year: year})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Details handles GET /movies/{id}.
func (h *CatalogHandler) Details(w http.ResponseWriter, r *http.Request) {
	details, err := h.catalog.Details(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

// Similar handles GET /movies/{id}/similar.
func (h *CatalogHandler) Similar(w http.ResponseWriter, r *http.Request) {
	res, err := h.catalog.Similar(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Genres handles GET /genres.
func (h *CatalogHandler) Genres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.Genres(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"genres": genres})
}

func optionalInt(s, field string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, &domain.ValidationError{Field: field, Reason: "must be a positive integer"}
	}
	return n, nil
}
