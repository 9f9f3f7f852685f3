package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/hustlehub/backend/internal/logger"
	"github.com/hustlehub/backend/internal/models"
	"github.com/hustlehub/backend/internal/pkg/apperror"
	"github.com/hustlehub/backend/internal/repository"
)

// VerificationRepo описывает зависимости сервиса от хранилища кодов.
type VerificationRepo interface {
	CreateCode(ctx context.Context, code *models.VerificationCode) error
	GetActiveCode(ctx context.Context, userID uuid.UUID, channel string) (*models.VerificationCode, error)
	IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error)
	MarkUsed(ctx context.Context, id uuid.UUID) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// VerificationUserRepo описывает часть пользовательского хранилища для подтверждения.
type VerificationUserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetVerified(ctx context.Context, id uuid.UUID) error
}

// VerificationService подтверждает учётные записи одноразовыми кодами.
// Коды живут в базе: переживают рестарты и работают при нескольких
// инстансах. Перебор ограничен счётчиком попыток.
type VerificationService struct {
	codes       VerificationRepo
	users       VerificationUserRepo
	codeTTL     time.Duration
	maxAttempts int
}

// NewVerificationService создаёт сервис подтверждения.
func NewVerificationService(codes VerificationRepo, users VerificationUserRepo, codeTTL time.Duration, maxAttempts int) *VerificationService {
	return &VerificationService{
		codes:       codes,
		users:       users,
		codeTTL:     codeTTL,
		maxAttempts: maxAttempts,
	}
}

// RequestCode выпускает новый код подтверждения, гася прежние.
// Отправка по каналу (email/sms) делегируется внешнему провайдеру;
// здесь код только выпускается и логируется в development.
func (s *VerificationService) RequestCode(ctx context.Context, userID uuid.UUID, channel string) error {
	if channel != models.VerificationChannelEmail && channel != models.VerificationChannelPhone {
		return apperror.New(apperror.ErrCodeValidation, "неизвестный канал подтверждения")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "пользователь не найден")
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить пользователя")
	}
	if user.IsVerified {
		return apperror.New(apperror.ErrCodeInvalidState, "учётная запись уже подтверждена")
	}

	raw, err := generateNumericCode(6)
	if err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сгенерировать код")
	}

	code := &models.VerificationCode{
		UserID:    userID,
		Channel:   channel,
		Code:      raw,
		ExpiresAt: time.Now().Add(s.codeTTL),
	}
	if err := s.codes.CreateCode(ctx, code); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить код")
	}

	if logger.Log != nil {
		logger.Log.WithField("user_id", userID).WithField("channel", channel).
			Debug("verification code issued")
	}

	return nil
}

// ConfirmCode проверяет код и отмечает пользователя подтверждённым.
func (s *VerificationService) ConfirmCode(ctx context.Context, userID uuid.UUID, channel, code string) error {
	active, err := s.codes.GetActiveCode(ctx, userID, channel)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return apperror.New(apperror.ErrCodeValidation, "код не запрошен или уже использован")
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить код")
	}

	if active.Expired(time.Now()) {
		return apperror.New(apperror.ErrCodeValidation, "срок действия кода истёк")
	}
	if active.Attempts >= s.maxAttempts {
		return apperror.New(apperror.ErrCodeValidation, "превышено число попыток, запросите новый код")
	}

	if active.Code != code {
		if _, err := s.codes.IncrementAttempts(ctx, active.ID); err != nil && logger.Log != nil {
			logger.Log.WithField("user_id", userID).WithError(err).Error("attempt counter update failed")
		}
		return apperror.New(apperror.ErrCodeValidation, "неверный код")
	}

	if err := s.codes.MarkUsed(ctx, active.ID); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось погасить код")
	}
	if err := s.users.SetVerified(ctx, userID); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось подтвердить пользователя")
	}

	return nil
}

// VerificationStatus описывает состояние подтверждения учётной записи.
type VerificationStatus struct {
	Verified      bool       `json:"verified"`
	CodeRequested bool       `json:"code_requested"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	AttemptsLeft  *int       `json:"attempts_left,omitempty"`
}

// Status возвращает состояние подтверждения: флаг верификации и, если код
// запрошен и ещё жив, срок его действия и остаток попыток.
func (s *VerificationService) Status(ctx context.Context, userID uuid.UUID, channel string) (*VerificationStatus, error) {
	if channel != models.VerificationChannelEmail && channel != models.VerificationChannelPhone {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный канал подтверждения")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "пользователь не найден")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить пользователя")
	}
	if user.IsVerified {
		return &VerificationStatus{Verified: true}, nil
	}

	active, err := s.codes.GetActiveCode(ctx, userID, channel)
	if err != nil {
		if errors.Is(err, repository.ErrCodeNotFound) {
			return &VerificationStatus{}, nil
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить код")
	}
	if active.Expired(time.Now()) || active.Attempts >= s.maxAttempts {
		return &VerificationStatus{}, nil
	}

	attemptsLeft := s.maxAttempts - active.Attempts
	return &VerificationStatus{
		CodeRequested: true,
		ExpiresAt:     &active.ExpiresAt,
		AttemptsLeft:  &attemptsLeft,
	}, nil
}

// CleanupExpired удаляет просроченные и использованные коды.
// Вызывается фоновой задачей по таймеру.
func (s *VerificationService) CleanupExpired(ctx context.Context) (int64, error) {
	deleted, err := s.codes.DeleteExpired(ctx)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось очистить коды")
	}
	return deleted, nil
}

// generateNumericCode возвращает случайный цифровой код заданной длины.
func generateNumericCode(length int) (string, error) {
	max := big.NewInt(10)
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		buf[i] = byte('0' + n.Int64())
	}
	return string(buf), nil
}
