package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/hustlehub/backend/internal/models"
	"github.com/hustlehub/backend/internal/pkg/apperror"
	"github.com/hustlehub/backend/internal/repository"
)

type mockAuthUserRepo struct {
	mock.Mock
}

func (m *mockAuthUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = uuid.New()
		user.IsActive = true
	}
	return args.Error(0)
}

func (m *mockAuthUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthUserRepo) UpdateLastLoginAt(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockAuthUserRepo) CreateSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	if args.Error(0) == nil {
		session.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockAuthUserRepo) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockAuthUserRepo) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.Session, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Session), args.Error(1)
}

func (m *mockAuthUserRepo) DeleteSession(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *mockAuthUserRepo) DeleteSessionByID(ctx context.Context, userID, sessionID uuid.UUID) error {
	args := m.Called(ctx, userID, sessionID)
	return args.Error(0)
}

func (m *mockAuthUserRepo) DeleteAllSessionsExcept(ctx context.Context, userID uuid.UUID, keepToken string) error {
	args := m.Called(ctx, userID, keepToken)
	return args.Error(0)
}

func newAuthService(users *mockAuthUserRepo) *AuthService {
	tokens := NewTokenManager("test-secret", 15*time.Minute)
	return NewAuthService(users, tokens, 720*time.Hour)
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Email:    "user@example.com",
		Username: "ivan_petrov",
		Password: "correct-horse",
		Role:     models.RoleBoth,
	}
}

func TestAuthService_Register_Success(t *testing.T) {
	users := new(mockAuthUserRepo)
	svc := newAuthService(users)
	ctx := context.Background()

	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

	user, err := svc.Register(ctx, validRegisterInput())

	assert.NoError(t, err)
	assert.Equal(t, "ivan_petrov", user.Username)
	// Имя по умолчанию берётся из username.
	assert.Equal(t, "ivan_petrov", user.DisplayName)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct-horse")))
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc := newAuthService(new(mockAuthUserRepo))
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"пустой email", func(in *RegisterInput) { in.Email = "" }},
		{"некорректный email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"короткий пароль", func(in *RegisterInput) { in.Password = "short" }},
		{"короткий username", func(in *RegisterInput) { in.Username = "ab" }},
		{"недопустимые символы в username", func(in *RegisterInput) { in.Username = "ivan petrov" }},
		{"неизвестная роль", func(in *RegisterInput) { in.Role = "admin" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validRegisterInput()
			tc.mutate(&input)
			_, err := svc.Register(ctx, input)
			assert.True(t, apperror.IsValidation(err))
		})
	}
}

func TestAuthService_Register_EmailTaken(t *testing.T) {
	users := new(mockAuthUserRepo)
	svc := newAuthService(users)
	ctx := context.Background()

	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(repository.ErrEmailTaken)

	_, err := svc.Register(ctx, validRegisterInput())

	assert.True(t, apperror.Is(err, apperror.ErrCodeDuplicateEntry))
}

func loginUser(password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &models.User{
		ID:           uuid.New(),
		Email:        "user@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleHustler,
		IsActive:     true,
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	users := new(mockAuthUserRepo)
	svc := newAuthService(users)
	ctx := context.Background()

	user := loginUser("correct-horse")
	users.On("GetByEmail", ctx, "user@example.com").Return(user, nil)
	users.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)
	users.On("UpdateLastLoginAt", ctx, user.ID).Return(nil)

	got, pair, err := svc.Login(ctx, "  User@Example.COM ", "correct-horse", nil, nil)

	assert.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	users := new(mockAuthUserRepo)
	svc := newAuthService(users)
	ctx := context.Background()

	users.On("GetByEmail", ctx, "user@example.com").Return(loginUser("correct-horse"), nil)

	_, _, err := svc.Login(ctx, "user@example.com", "wrong", nil, nil)

	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	users := new(mockAuthUserRepo)
	svc := newAuthService(users)
	ctx := context.Background()

	users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, repository.ErrUserNotFound)

	_, _, err := svc.Login(ctx, "ghost@example.com", "whatever", nil, nil)

	// Несуществующий email неотличим от неверного пароля.
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_InactiveAccount(t *testing.T) {
	users := new(mockAuthUserRepo)
	svc := newAuthService(users)
	ctx := context.Background()

	user := loginUser("correct-horse")
	user.IsActive = false
	users.On("GetByEmail", ctx, "user@example.com").Return(user, nil)

	_, _, err := svc.Login(ctx, "user@example.com", "correct-horse", nil, nil)

	assert.True(t, apperror.IsForbidden(err))
}

func TestAuthService_Refresh_RotatesToken(t *testing.T) {
	users := new(mockAuthUserRepo)
	svc := newAuthService(users)
	ctx := context.Background()

	user := loginUser("correct-horse")
	oldToken := "old-refresh-token"
	session := &models.Session{
		ID:           uuid.New(),
		UserID:       user.ID,
		RefreshToken: oldToken,
		ExpiresAt:    time.Now().Add(time.Hour),
	}

	users.On("GetSessionByToken", ctx, oldToken).Return(session, nil)
	users.On("GetByID", ctx, user.ID).Return(user, nil)
	users.On("DeleteSession", ctx, oldToken).Return(nil)
	users.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	pair, err := svc.Refresh(ctx, oldToken, nil, nil)

	assert.NoError(t, err)
	assert.NotEqual(t, oldToken, pair.RefreshToken)
	users.AssertCalled(t, "DeleteSession", ctx, oldToken)
}

func TestAuthService_Refresh_ExpiredSession(t *testing.T) {
	users := new(mockAuthUserRepo)
	svc := newAuthService(users)
	ctx := context.Background()

	token := "stale-token"
	session := &models.Session{
		UserID:       uuid.New(),
		RefreshToken: token,
		ExpiresAt:    time.Now().Add(-time.Minute),
	}

	users.On("GetSessionByToken", ctx, token).Return(session, nil)
	users.On("DeleteSession", ctx, token).Return(nil)

	_, err := svc.Refresh(ctx, token, nil, nil)

	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestAuthService_Refresh_UnknownToken(t *testing.T) {
	users := new(mockAuthUserRepo)
	svc := newAuthService(users)
	ctx := context.Background()

	users.On("GetSessionByToken", ctx, "garbage").Return(nil, repository.ErrSessionNotFound)

	_, err := svc.Refresh(ctx, "garbage", nil, nil)

	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestAuthService_Logout_UnknownTokenIsNoop(t *testing.T) {
	users := new(mockAuthUserRepo)
	svc := newAuthService(users)
	ctx := context.Background()

	users.On("DeleteSession", ctx, "gone").Return(repository.ErrSessionNotFound)

	assert.NoError(t, svc.Logout(ctx, "gone"))
}
