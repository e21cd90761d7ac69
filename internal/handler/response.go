package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/cinelog/internal/catalog"
	"github.com/prn-tf/cinelog/internal/domain"
)

// MessageResponse is the body of every error and confirmation response.
type MessageResponse struct {
	Message string `json:"message"`
}

var errInvalidBody = errors.New("invalid request body")

// writeJSON writes v as a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeMessage writes {"message": msg}.
func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageResponse{Message: msg})
}

// writeError maps err to a status code and message. Unexpected errors are
// logged and reported as 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, err error) {
	status, msg := errorStatus(err)
	if status == http.StatusInternalServerError {
		logger.Error().
			Err(err).
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	writeMessage(w, status, msg)
}

func errorStatus(err error) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, domain.ErrValidationFailed), errors.Is(err, errInvalidBody):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrDuplicateEntry):
		return http.StatusBadRequest, "Movie already in list"
	case errors.Is(err, domain.ErrAggregateNotFound):
		return http.StatusNotFound, "Movie list not found"
	case errors.Is(err, domain.ErrEntryNotFound):
		return http.StatusNotFound, "Movie not found in list"
	case errors.Is(err, domain.ErrConcurrentModification):
		return http.StatusConflict, "Movie list was modified concurrently, please retry"
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return http.StatusConflict, "Username or email already exists"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid username or password"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Not authorized"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, catalog.ErrEmptyQuery):
		return http.StatusBadRequest, "Search query is required"
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound, "Movie not found"
	case errors.Is(err, catalog.ErrUpstream):
		return http.StatusBadGateway, "Movie catalog is unavailable"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// decodeJSON reads a JSON request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &domain.ValidationError{Field: "body", Reason: "is too large"}
		}
		return errInvalidBody
	}
	return nil
}
