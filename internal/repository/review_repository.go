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

// ErrDuplicateReview возвращается при повторном отзыве на ту же задачу.
var ErrDuplicateReview = errors.New("review already exists for this task and author")

// ReviewRepository отвечает за работу с отзывами и рейтинговым агрегатом.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository создаёт экземпляр репозитория.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create сохраняет отзыв и обновляет агрегат пользователя в одной транзакции:
// rating накапливает сумму оценок, total_rating считает отзывы.
// Уникальный индекс (task_id, reviewer_id) отсекает повторные отзывы.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("review repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.QueryRowxContext(ctx, `
		INSERT INTO reviews (task_id, reviewer_id, reviewed_id, rating, comment)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, review.TaskID, review.ReviewerID, review.ReviewedID, review.Rating, review.Comment,
	).Scan(&review.ID, &review.CreatedAt); err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicateReview
			return err
		}
		return fmt.Errorf("review repository: create %w", err)
	}

	if _, err = tx.ExecContext(ctx, `
		UPDATE users
		SET rating = rating + $2,
		    total_rating = total_rating + 1,
		    updated_at = NOW()
		WHERE id = $1
	`, review.ReviewedID, review.Rating); err != nil {
		return fmt.Errorf("review repository: update aggregate %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("review repository: commit %w", err)
	}

	return nil
}

// GetByTaskAndReviewer проверяет, оставлял ли пользователь отзыв на задачу.
// Отсутствие отзыва не является ошибкой.
func (r *ReviewRepository) GetByTaskAndReviewer(ctx context.Context, taskID, reviewerID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.GetContext(ctx, &review,
		`SELECT * FROM reviews WHERE task_id = $1 AND reviewer_id = $2`, taskID, reviewerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("review repository: get by task and reviewer %w", err)
	}
	return &review, nil
}

// ListByReviewedID возвращает отзывы о пользователе.
func (r *ReviewRepository) ListByReviewedID(ctx context.Context, reviewedID uuid.UUID, limit, offset int) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.SelectContext(ctx, &reviews, `
		SELECT * FROM reviews WHERE reviewed_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, reviewedID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("review repository: list by reviewed %w", err)
	}
	return reviews, nil
}

// ListByTaskID возвращает отзывы по задаче.
func (r *ReviewRepository) ListByTaskID(ctx context.Context, taskID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	err := r.db.SelectContext(ctx, &reviews, `SELECT * FROM reviews WHERE task_id = $1`, taskID)
	if err != nil {
		return nil, fmt.Errorf("review repository: list by task %w", err)
	}
	return reviews, nil
}
