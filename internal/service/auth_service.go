package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hustlehub/backend/internal/logger"
	"github.com/hustlehub/backend/internal/models"
	"github.com/hustlehub/backend/internal/pkg/apperror"
	"github.com/hustlehub/backend/internal/repository"
	"github.com/hustlehub/backend/internal/validation"
)

// AuthUserRepo описывает зависимости сервиса от хранилища пользователей.
type AuthUserRepo interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLoginAt(ctx context.Context, id uuid.UUID) error
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error)
	ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error)
	DeleteSession(ctx context.Context, refreshToken string) error
	DeleteSessionByID(ctx context.Context, userID, sessionID uuid.UUID) error
	DeleteAllSessionsExcept(ctx context.Context, userID uuid.UUID, keepToken string) error
}

// AuthService отвечает за регистрацию, вход и управление сессиями.
type AuthService struct {
	users      AuthUserRepo
	tokens     *TokenManager
	refreshTTL time.Duration
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users AuthUserRepo, tokens *TokenManager, refreshTTL time.Duration) *AuthService {
	return &AuthService{users: users, tokens: tokens, refreshTTL: refreshTTL}
}

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // ограничение bcrypt
)

// TokenPair содержит пару токенов, выдаваемую клиенту.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// RegisterInput описывает данные регистрации.
type RegisterInput struct {
	Email       string
	Username    string
	Password    string
	Role        string
	DisplayName string
}

// Register создаёт учётную запись. Email и username должны быть свободны,
// роль — из закрытого перечня.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Username = strings.TrimSpace(input.Username)
	input.DisplayName = strings.TrimSpace(input.DisplayName)

	if err := validation.ValidateEmail(input.Email); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateUsername(input.Username); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if len(input.Password) < minPasswordLength || len(input.Password) > maxPasswordLength {
		return nil, apperror.New(apperror.ErrCodeValidation, "пароль должен быть от 8 до 72 символов")
	}
	if _, ok := models.ValidRoles[input.Role]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестная роль")
	}
	if input.DisplayName == "" {
		input.DisplayName = input.Username
	}
	if err := validation.ValidateLength("отображаемое имя", input.DisplayName, validation.MinDisplayNameLength, validation.MaxDisplayNameLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захэшировать пароль")
	}

	user := &models.User{
		Email:        input.Email,
		Username:     strings.ToLower(input.Username),
		PasswordHash: string(hash),
		Role:         input.Role,
		DisplayName:  input.DisplayName,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, apperror.New(apperror.ErrCodeDuplicateEntry, "email или имя пользователя уже заняты")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать пользователя")
	}

	return user, nil
}

// Login проверяет учётные данные и открывает новую сессию.
func (s *AuthService) Login(ctx context.Context, email, password string, userAgent, ipAddress *string) (*models.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, apperror.ErrInvalidCredentials
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить пользователя")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperror.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, apperror.New(apperror.ErrCodeForbidden, "учётная запись отключена")
	}

	pair, err := s.issueSession(ctx, user, userAgent, ipAddress)
	if err != nil {
		return nil, nil, err
	}

	if err := s.users.UpdateLastLoginAt(ctx, user.ID); err != nil && logger.Log != nil {
		// Вход уже состоялся; потерю метки только логируем.
		logger.Log.WithField("user_id", user.ID).WithError(err).Warn("failed to update last login")
	}

	return user, pair, nil
}

// Refresh обменивает refresh-токен на новую пару. Старая сессия
// закрывается (ротация токена).
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, userAgent, ipAddress *string) (*TokenPair, error) {
	session, err := s.users.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить сессию")
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.users.DeleteSession(ctx, refreshToken)
		return nil, apperror.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, apperror.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "учётная запись отключена")
	}

	if err := s.users.DeleteSession(ctx, refreshToken); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось закрыть сессию")
	}

	return s.issueSession(ctx, user, userAgent, ipAddress)
}

// Logout закрывает сессию по refresh-токену.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.users.DeleteSession(ctx, refreshToken); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось закрыть сессию")
	}
	return nil
}

// Sessions возвращает активные сессии пользователя.
func (s *AuthService) Sessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	sessions, err := s.users.ListSessions(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить сессии")
	}
	return sessions, nil
}

// RevokeSession закрывает сессию пользователя по идентификатору.
func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.users.DeleteSessionByID(ctx, userID, sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "сессия не найдена")
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось закрыть сессию")
	}
	return nil
}

// RevokeOtherSessions закрывает все сессии пользователя, кроме текущей.
func (s *AuthService) RevokeOtherSessions(ctx context.Context, userID uuid.UUID, keepToken string) error {
	if err := s.users.DeleteAllSessionsExcept(ctx, userID, keepToken); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось закрыть сессии")
	}
	return nil
}

func (s *AuthService) issueSession(ctx context.Context, user *models.User, userAgent, ipAddress *string) (*TokenPair, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токен")
	}

	refreshToken, err := GenerateRefreshToken()
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить refresh-токен")
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: refreshToken,
		UserAgent:    userAgent,
		IPAddress:    ipAddress,
		ExpiresAt:    time.Now().Add(s.refreshTTL),
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить сессию")
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
