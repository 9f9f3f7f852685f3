package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/hustlehub/backend/internal/models"
	"github.com/hustlehub/backend/internal/pkg/apperror"
	"github.com/hustlehub/backend/internal/repository"
	"github.com/hustlehub/backend/internal/validation"
)

// UserRepo описывает зависимости сервиса от хранилища пользователей.
type UserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, update repository.ProfileUpdate) error
}

// UserService отвечает за профили пользователей.
type UserService struct {
	users UserRepo
}

// NewUserService создаёт сервис профилей.
func NewUserService(users UserRepo) *UserService {
	return &UserService{users: users}
}

// Get возвращает пользователя по идентификатору.
func (s *UserService) Get(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "пользователь не найден")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить пользователя")
	}
	return user, nil
}

// PublicProfile возвращает публичный профиль по идентификатору.
func (s *UserService) PublicProfile(ctx context.Context, userID uuid.UUID) (*models.PublicProfile, error) {
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return models.PublicProfileFromUser(user), nil
}

// PublicProfileByUsername возвращает публичный профиль по username.
func (s *UserService) PublicProfileByUsername(ctx context.Context, username string) (*models.PublicProfile, error) {
	user, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "пользователь не найден")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить пользователя")
	}
	return models.PublicProfileFromUser(user), nil
}

// UpdateProfileInput описывает частичное обновление профиля;
// nil-поле означает «не менять».
type UpdateProfileInput struct {
	DisplayName *string
	Bio         *string
	Location    *string
	AvatarURL   *string
}

// UpdateProfile обновляет профиль пользователя и возвращает свежую версию.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*models.User, error) {
	if input.DisplayName != nil {
		trimmed := strings.TrimSpace(*input.DisplayName)
		if err := validation.ValidateLength("отображаемое имя", trimmed, validation.MinDisplayNameLength, validation.MaxDisplayNameLength); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
		input.DisplayName = &trimmed
	}
	if input.Bio != nil {
		if err := validation.ValidateLength("о себе", *input.Bio, 0, validation.MaxBioLength); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
	}
	if input.Location != nil {
		if err := validation.ValidateLength("местоположение", *input.Location, 0, validation.MaxLocationLength); err != nil {
			return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
		}
	}

	update := repository.ProfileUpdate{
		DisplayName: input.DisplayName,
		Bio:         input.Bio,
		Location:    input.Location,
		AvatarURL:   input.AvatarURL,
	}
	if err := s.users.UpdateProfile(ctx, userID, update); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "пользователь не найден")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить профиль")
	}

	return s.Get(ctx, userID)
}
