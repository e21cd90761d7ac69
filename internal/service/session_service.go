package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/cinelog/internal/auth"
	"github.com/prn-tf/cinelog/internal/domain"
)

// TokenIssuer creates access tokens for authenticated users.
type TokenIssuer interface {
	Issue(userID uuid.UUID) (auth.Token, error)
}

// SessionService turns credentials into access tokens.
type SessionService struct {
	users  *UserService
	tokens TokenIssuer
	logger zerolog.Logger
}

// NewSessionService creates a new SessionService.
func NewSessionService(users *UserService, tokens TokenIssuer, logger zerolog.Logger) *SessionService {
	return &SessionService{
		users:  users,
		tokens: tokens,
		logger: logger.With().Str("service", "session").Logger(),
	}
}

// LoginInput contains the credentials presented at login.
type LoginInput struct {
	Username  string
	Password  string
	IPAddress string
}

// SessionOutput is returned by Register and Login.
type SessionOutput struct {
	User      *domain.User
	Token     string
	ExpiresAt time.Time
}

// Register creates an account and signs the new user in.
func (s *SessionService) Register(ctx context.Context, input CreateUserInput) (*SessionOutput, error) {
	user, err := s.users.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	return s.issue(user)
}

// Login verifies credentials and issues a token.
func (s *SessionService) Login(ctx context.Context, input LoginInput) (*SessionOutput, error) {
	user, err := s.users.Authenticate(ctx, input.Username, input.Password)
	if err != nil {
		s.logger.Debug().Str("ip", input.IPAddress).Msg("login rejected")
		return nil, err
	}
	return s.issue(user)
}

func (s *SessionService) issue(user *domain.User) (*SessionOutput, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to issue token")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return &SessionOutput{User: user, Token: token.Value, ExpiresAt: token.ExpiresAt}, nil
}
