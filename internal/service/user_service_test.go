package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/hustlehub/backend/internal/models"
	"github.com/hustlehub/backend/internal/pkg/apperror"
	"github.com/hustlehub/backend/internal/repository"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, id uuid.UUID, update repository.ProfileUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func TestUserService_PublicProfile_AverageRating(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewUserService(users)
	ctx := context.Background()

	userID := uuid.New()
	users.On("GetByID", ctx, userID).Return(&models.User{
		ID:          userID,
		Username:    "anna",
		DisplayName: "Анна",
		Rating:      9,
		TotalRating: 2,
	}, nil)

	profile, err := svc.PublicProfile(ctx, userID)

	assert.NoError(t, err)
	assert.Equal(t, 4.5, profile.AverageRating)
	assert.Equal(t, 2, profile.TotalRating)
}

func TestUserService_PublicProfile_NoReviews(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewUserService(users)
	ctx := context.Background()

	userID := uuid.New()
	users.On("GetByID", ctx, userID).Return(&models.User{ID: userID}, nil)

	profile, err := svc.PublicProfile(ctx, userID)

	assert.NoError(t, err)
	assert.Zero(t, profile.AverageRating)
}

func TestUserService_PublicProfileByUsername_Normalizes(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewUserService(users)
	ctx := context.Background()

	users.On("GetByUsername", ctx, "anna").Return(&models.User{ID: uuid.New(), Username: "anna"}, nil)

	profile, err := svc.PublicProfileByUsername(ctx, "  Anna ")

	assert.NoError(t, err)
	assert.Equal(t, "anna", profile.Username)
}

func TestUserService_UpdateProfile_Validation(t *testing.T) {
	svc := NewUserService(new(mockUserRepo))
	ctx := context.Background()

	short := "a"
	_, err := svc.UpdateProfile(ctx, uuid.New(), UpdateProfileInput{DisplayName: &short})
	assert.True(t, apperror.IsValidation(err))

	longBio := strings.Repeat("а", 1001)
	_, err = svc.UpdateProfile(ctx, uuid.New(), UpdateProfileInput{Bio: &longBio})
	assert.True(t, apperror.IsValidation(err))
}

func TestUserService_UpdateProfile_Success(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewUserService(users)
	ctx := context.Background()

	userID := uuid.New()
	name := "  Анна Иванова  "
	trimmed := "Анна Иванова"

	users.On("UpdateProfile", ctx, userID, mock.MatchedBy(func(u repository.ProfileUpdate) bool {
		return u.DisplayName != nil && *u.DisplayName == trimmed
	})).Return(nil)
	users.On("GetByID", ctx, userID).Return(&models.User{ID: userID, DisplayName: trimmed}, nil)

	user, err := svc.UpdateProfile(ctx, userID, UpdateProfileInput{DisplayName: &name})

	assert.NoError(t, err)
	assert.Equal(t, trimmed, user.DisplayName)
}

func TestUserService_Get_NotFound(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewUserService(users)
	ctx := context.Background()

	userID := uuid.New()
	users.On("GetByID", ctx, userID).Return(nil, repository.ErrUserNotFound)

	_, err := svc.Get(ctx, userID)

	assert.True(t, apperror.IsNotFound(err))
}
