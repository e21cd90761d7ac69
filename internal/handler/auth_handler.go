package handler

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/cinelog/internal/auth"
	"github.com/prn-tf/cinelog/internal/domain"
	"github.com/prn-tf/cinelog/internal/service"
)

// AuthHandler serves registration, login and the current-user lookup.
type AuthHandler struct {
	sessions *service.SessionService
	users    *service.UserService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(sessions *service.SessionService, users *service.UserService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		users:    users,
		validate: newValidator(),
		logger:   logger.With().Str("handler", "auth").Logger(),
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// UserResponse describes the signed-in user.
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateStruct(h.validate, req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	session, err := h.sessions.Register(r.Context(), service.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, AuthResponse{
		Token:     session.Token,
		Username:  session.User.Username,
		ExpiresAt: session.ExpiresAt,
	})
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if err := validateStruct(h.validate, req); err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	session, err := h.sessions.Login(r.Context(), service.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		IPAddress: clientIP(r),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, AuthResponse{
		Token:     session.Token,
		Username:  session.User.Username,
		ExpiresAt: session.ExpiresAt,
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFrom(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

// userIDFrom returns the user ID placed in the context by auth.Middleware.
func userIDFrom(r *http.Request) (uuid.UUID, error) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return userID, nil
}
