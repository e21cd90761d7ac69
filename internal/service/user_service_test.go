package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/cinelog/internal/domain"
	"github.com/prn-tf/cinelog/internal/repository"
	"github.com/prn-tf/cinelog/internal/repository/memory"
)

func newUserService() *UserService {
	return NewUserService(memory.NewDB().Repositories().User, bcrypt.MinCost, zerolog.Nop())
}

// failingUserRepo returns err from every call.
type failingUserRepo struct {
	repository.UserRepository
	err error
}

func (r failingUserRepo) GetByUsername(context.Context, string) (*domain.User, error) {
	return nil, r.err
}

func (r failingUserRepo) ExistsByUsername(context.Context, string) (bool, error) {
	return false, r.err
}

func TestUserService_Create(t *testing.T) {
	s := newUserService()
	ctx := context.Background()

	user, err := s.Create(ctx, CreateUserInput{Username: "  Ripley ", Email: "Ellen@Nostromo.io", Password: "xenomorph"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, "ripley", user.Username)
	assert.Equal(t, "ellen@nostromo.io", user.Email)
	assert.NotEqual(t, "xenomorph", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("xenomorph")))

	got, err := s.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Username, got.Username)

	got, err = s.GetByUsername(ctx, "RIPLEY")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestUserService_CreateDuplicate(t *testing.T) {
	s := newUserService()
	ctx := context.Background()

	_, err := s.Create(ctx, CreateUserInput{Username: "ripley", Email: "ripley@nostromo.io", Password: "xenomorph"})
	require.NoError(t, err)

	_, err = s.Create(ctx, CreateUserInput{Username: "Ripley", Email: "other@nostromo.io", Password: "xenomorph"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)

	_, err = s.Create(ctx, CreateUserInput{Username: "dallas", Email: "RIPLEY@nostromo.io", Password: "xenomorph"})
	assert.ErrorIs(t, err, domain.ErrUserAlreadyExists)
}

func TestUserService_CreateValidation(t *testing.T) {
	s := newUserService()

	tests := []struct {
		name  string
		input CreateUserInput
		want  error
	}{
		{"short username", CreateUserInput{Username: "ab", Email: "a@b.io", Password: "secret"}, ErrInvalidUsername},
		{"blank username", CreateUserInput{Username: "   ", Email: "a@b.io", Password: "secret"}, ErrInvalidUsername},
		{"missing email", CreateUserInput{Username: "ripley", Password: "secret"}, ErrInvalidEmail},
		{"display name email", CreateUserInput{Username: "ripley", Email: "Ellen <e@b.io>", Password: "secret"}, ErrInvalidEmail},
		{"malformed email", CreateUserInput{Username: "ripley", Email: "not-an-email", Password: "secret"}, ErrInvalidEmail},
		{"short password", CreateUserInput{Username: "ripley", Email: "e@b.io", Password: "12345"}, ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Create(context.Background(), tt.input)
			require.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, domain.ErrValidationFailed)
		})
	}
}

func TestUserService_Authenticate(t *testing.T) {
	s := newUserService()
	ctx := context.Background()

	created, err := s.Create(ctx, CreateUserInput{Username: "ripley", Email: "ripley@nostromo.io", Password: "xenomorph"})
	require.NoError(t, err)

	user, err := s.Authenticate(ctx, "Ripley", "xenomorph")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = s.Authenticate(ctx, "ripley", "wrong-password")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "ash", "xenomorph")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestUserService_GetByIDNotFound(t *testing.T) {
	s := newUserService()

	_, err := s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUserService_StorageFailure(t *testing.T) {
	boom := errors.New("disk full")
	s := NewUserService(failingUserRepo{err: boom}, bcrypt.MinCost, zerolog.Nop())
	ctx := context.Background()

	_, err := s.Authenticate(ctx, "ripley", "xenomorph")
	assert.ErrorIs(t, err, ErrInternalError)
	assert.NotErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = s.Create(ctx, CreateUserInput{Username: "ripley", Email: "ripley@nostromo.io", Password: "xenomorph"})
	assert.ErrorIs(t, err, ErrInternalError)
}
