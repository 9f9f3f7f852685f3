package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/hustlehub/backend/internal/models"
)

// ErrCodeNotFound возвращается, когда активный код подтверждения не найден.
var ErrCodeNotFound = errors.New("verification code not found")

// VerificationRepository хранит коды подтверждения в базе.
type VerificationRepository struct {
	db *sqlx.DB
}

// NewVerificationRepository создаёт экземпляр репозитория.
func NewVerificationRepository(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// CreateCode сохраняет новый код, одновременно гася прежние активные коды
// пользователя по тому же каналу.
func (r *VerificationRepository) CreateCode(ctx context.Context, code *models.VerificationCode) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("verification repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `
		UPDATE verification_codes SET used = TRUE
		WHERE user_id = $1 AND channel = $2 AND used = FALSE
	`, code.UserID, code.Channel); err != nil {
		return fmt.Errorf("verification repository: expire previous %w", err)
	}

	if err = tx.QueryRowxContext(ctx, `
		INSERT INTO verification_codes (user_id, channel, code, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, code.UserID, code.Channel, code.Code, code.ExpiresAt,
	).Scan(&code.ID, &code.CreatedAt); err != nil {
		return fmt.Errorf("verification repository: create %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("verification repository: commit %w", err)
	}

	return nil
}

// GetActiveCode возвращает последний неиспользованный код пользователя.
func (r *VerificationRepository) GetActiveCode(ctx context.Context, userID uuid.UUID, channel string) (*models.VerificationCode, error) {
	var code models.VerificationCode
	if err := r.db.GetContext(ctx, &code, `
		SELECT * FROM verification_codes
		WHERE user_id = $1 AND channel = $2 AND used = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, channel); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("verification repository: get active %w", err)
	}

	return &code, nil
}

// IncrementAttempts увеличивает счётчик неудачных попыток ввода.
func (r *VerificationRepository) IncrementAttempts(ctx context.Context, id uuid.UUID) (int, error) {
	var attempts int
	if err := r.db.QueryRowxContext(ctx, `
		UPDATE verification_codes SET attempts = attempts + 1
		WHERE id = $1
		RETURNING attempts
	`, id).Scan(&attempts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrCodeNotFound
		}
		return 0, fmt.Errorf("verification repository: increment attempts %w", err)
	}

	return attempts, nil
}

// MarkUsed гасит код после успешного подтверждения.
func (r *VerificationRepository) MarkUsed(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE verification_codes SET used = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("verification repository: mark used %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("verification repository: mark used rows affected %w", err)
	}

	if rowsAffected == 0 {
		return ErrCodeNotFound
	}

	return nil
}

// DeleteExpired удаляет просроченные и использованные коды. Вызывается
// фоновой задачей.
func (r *VerificationRepository) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE expires_at < NOW() OR used = TRUE`)
	if err != nil {
		return 0, fmt.Errorf("verification repository: delete expired %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("verification repository: delete expired rows affected %w", err)
	}

	return rowsAffected, nil
}
