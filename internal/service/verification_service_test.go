package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/hustlehub/backend/internal/models"
	"github.com/hustlehub/backend/internal/pkg/apperror"
	"github.com/hustlehub/backend/internal/repository"
)

type mockVerificationRepo struct {
	mock.Mock
}

func (m *mockVerificationRepo) CreateCode(ctx context.Context, code *models.VerificationCode) error {
	args := m.Called(ctx, code)
	if args.Error(0) == nil {
		code.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockVerificationRepo) GetActiveCode(ctx context.Context, userID uuid.UUID, channel string) (*models.VerificationCode, error) {
	args := m.Called(ctx, userID, channel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.VerificationCode), args.Error(1)
}

func (m *mockVerificationRepo) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

func (m *mockVerificationRepo) MarkUsed(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockVerificationRepo) DeleteExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockVerificationUserRepo struct {
	mock.Mock
}

func (m *mockVerificationUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockVerificationUserRepo) SetVerified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newVerificationService(codes *mockVerificationRepo, users *mockVerificationUserRepo) *VerificationService {
	return NewVerificationService(codes, users, 10*time.Minute, 5)
}

func TestVerificationService_RequestCode_Success(t *testing.T) {
	codes := new(mockVerificationRepo)
	users := new(mockVerificationUserRepo)
	svc := newVerificationService(codes, users)
	ctx := context.Background()

	userID := uuid.New()
	users.On("GetByID", ctx, userID).Return(&models.User{ID: userID}, nil)
	codes.On("CreateCode", ctx, mock.AnythingOfType("*models.VerificationCode")).Return(nil)

	err := svc.RequestCode(ctx, userID, models.VerificationChannelEmail)

	assert.NoError(t, err)
	codes.AssertCalled(t, "CreateCode", ctx, mock.MatchedBy(func(c *models.VerificationCode) bool {
		return c.UserID == userID && len(c.Code) == 6 && c.ExpiresAt.After(time.Now())
	}))
}

func TestVerificationService_RequestCode_UnknownChannel(t *testing.T) {
	svc := newVerificationService(new(mockVerificationRepo), new(mockVerificationUserRepo))

	err := svc.RequestCode(context.Background(), uuid.New(), "pigeon")

	assert.True(t, apperror.IsValidation(err))
}

func TestVerificationService_RequestCode_AlreadyVerified(t *testing.T) {
	users := new(mockVerificationUserRepo)
	svc := newVerificationService(new(mockVerificationRepo), users)
	ctx := context.Background()

	userID := uuid.New()
	users.On("GetByID", ctx, userID).Return(&models.User{ID: userID, IsVerified: true}, nil)

	err := svc.RequestCode(ctx, userID, models.VerificationChannelEmail)

	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidState))
}

func activeCode(userID uuid.UUID, raw string) *models.VerificationCode {
	return &models.VerificationCode{
		ID:        uuid.New(),
		UserID:    userID,
		Channel:   models.VerificationChannelEmail,
		Code:      raw,
		ExpiresAt: time.Now().Add(5 * time.Minute),
	}
}

func TestVerificationService_ConfirmCode_Success(t *testing.T) {
	codes := new(mockVerificationRepo)
	users := new(mockVerificationUserRepo)
	svc := newVerificationService(codes, users)
	ctx := context.Background()

	userID := uuid.New()
	code := activeCode(userID, "123456")

	codes.On("GetActiveCode", ctx, userID, models.VerificationChannelEmail).Return(code, nil)
	codes.On("MarkUsed", ctx, code.ID).Return(nil)
	users.On("SetVerified", ctx, userID).Return(nil)

	err := svc.ConfirmCode(ctx, userID, models.VerificationChannelEmail, "123456")

	assert.NoError(t, err)
	users.AssertCalled(t, "SetVerified", ctx, userID)
}

func TestVerificationService_ConfirmCode_WrongCodeIncrementsAttempts(t *testing.T) {
	codes := new(mockVerificationRepo)
	users := new(mockVerificationUserRepo)
	svc := newVerificationService(codes, users)
	ctx := context.Background()

	userID := uuid.New()
	code := activeCode(userID, "123456")

	codes.On("GetActiveCode", ctx, userID, models.VerificationChannelEmail).Return(code, nil)
	codes.On("IncrementAttempts", ctx, code.ID).Return(1, nil)

	err := svc.ConfirmCode(ctx, userID, models.VerificationChannelEmail, "654321")

	assert.True(t, apperror.IsValidation(err))
	codes.AssertCalled(t, "IncrementAttempts", ctx, code.ID)
	users.AssertNotCalled(t, "SetVerified", mock.Anything, mock.Anything)
}

func TestVerificationService_ConfirmCode_Expired(t *testing.T) {
	codes := new(mockVerificationRepo)
	svc := newVerificationService(codes, new(mockVerificationUserRepo))
	ctx := context.Background()

	userID := uuid.New()
	code := activeCode(userID, "123456")
	code.ExpiresAt = time.Now().Add(-time.Minute)

	codes.On("GetActiveCode", ctx, userID, models.VerificationChannelEmail).Return(code, nil)

	err := svc.ConfirmCode(ctx, userID, models.VerificationChannelEmail, "123456")

	assert.True(t, apperror.IsValidation(err))
}

func TestVerificationService_ConfirmCode_AttemptsExhausted(t *testing.T) {
	codes := new(mockVerificationRepo)
	svc := newVerificationService(codes, new(mockVerificationUserRepo))
	ctx := context.Background()

	userID := uuid.New()
	code := activeCode(userID, "123456")
	code.Attempts = 5

	codes.On("GetActiveCode", ctx, userID, models.VerificationChannelEmail).Return(code, nil)

	err := svc.ConfirmCode(ctx, userID, models.VerificationChannelEmail, "123456")

	assert.True(t, apperror.IsValidation(err))
}

func TestVerificationService_Status_PendingCode(t *testing.T) {
	codes := new(mockVerificationRepo)
	users := new(mockVerificationUserRepo)
	svc := newVerificationService(codes, users)
	ctx := context.Background()

	userID := uuid.New()
	code := activeCode(userID, "123456")
	code.Attempts = 2

	users.On("GetByID", ctx, userID).Return(&models.User{ID: userID}, nil)
	codes.On("GetActiveCode", ctx, userID, models.VerificationChannelEmail).Return(code, nil)

	status, err := svc.Status(ctx, userID, models.VerificationChannelEmail)

	assert.NoError(t, err)
	assert.False(t, status.Verified)
	assert.True(t, status.CodeRequested)
	assert.Equal(t, 3, *status.AttemptsLeft)
}

func TestVerificationService_Status_Verified(t *testing.T) {
	users := new(mockVerificationUserRepo)
	svc := newVerificationService(new(mockVerificationRepo), users)
	ctx := context.Background()

	userID := uuid.New()
	users.On("GetByID", ctx, userID).Return(&models.User{ID: userID, IsVerified: true}, nil)

	status, err := svc.Status(ctx, userID, models.VerificationChannelEmail)

	assert.NoError(t, err)
	assert.True(t, status.Verified)
	assert.False(t, status.CodeRequested)
}

func TestVerificationService_Status_ExpiredCodeNotReported(t *testing.T) {
	codes := new(mockVerificationRepo)
	users := new(mockVerificationUserRepo)
	svc := newVerificationService(codes, users)
	ctx := context.Background()

	userID := uuid.New()
	code := activeCode(userID, "123456")
	code.ExpiresAt = time.Now().Add(-time.Minute)

	users.On("GetByID", ctx, userID).Return(&models.User{ID: userID}, nil)
	codes.On("GetActiveCode", ctx, userID, models.VerificationChannelEmail).Return(code, nil)

	status, err := svc.Status(ctx, userID, models.VerificationChannelEmail)

	assert.NoError(t, err)
	assert.False(t, status.CodeRequested)
}

func TestVerificationService_ConfirmCode_NotRequested(t *testing.T) {
	codes := new(mockVerificationRepo)
	svc := newVerificationService(codes, new(mockVerificationUserRepo))
	ctx := context.Background()

	userID := uuid.New()
	codes.On("GetActiveCode", ctx, userID, models.VerificationChannelEmail).
		Return(nil, repository.ErrCodeNotFound)

	err := svc.ConfirmCode(ctx, userID, models.VerificationChannelEmail, "123456")

	assert.True(t, apperror.IsValidation(err))
}
