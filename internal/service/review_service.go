package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/hustlehub/backend/internal/models"
	"github.com/hustlehub/backend/internal/pkg/apperror"
	"github.com/hustlehub/backend/internal/repository"
)

// ReviewRepo описывает зависимости сервиса от хранилища отзывов.
type ReviewRepo interface {
	Create(ctx context.Context, review *models.Review) error
	GetByTaskAndReviewer(ctx context.Context, taskID, reviewerID uuid.UUID) (*models.Review, error)
	ListByReviewedID(ctx context.Context, reviewedID uuid.UUID, limit, offset int) ([]models.Review, error)
	ListByTaskID(ctx context.Context, taskID uuid.UUID) ([]models.Review, error)
}

// ReviewTaskRepo описывает часть хранилища задач, нужную отзывам.
type ReviewTaskRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
}

// ReviewNotifier доставляет уведомления о новых отзывах.
type ReviewNotifier interface {
	Dispatch(ctx context.Context, notification *models.Notification) error
}

// ReviewService принимает отзывы по завершённым задачам и ведёт
// рейтинговый агрегат.
type ReviewService struct {
	reviews  ReviewRepo
	tasks    ReviewTaskRepo
	notifier ReviewNotifier
}

// NewReviewService создаёт сервис отзывов.
func NewReviewService(reviews ReviewRepo, tasks ReviewTaskRepo, notifier ReviewNotifier) *ReviewService {
	return &ReviewService{reviews: reviews, tasks: tasks, notifier: notifier}
}

const (
	minReviewRating  = 1
	maxReviewRating  = 5
	maxCommentLength = 2000
)

// Create сохраняет отзыв участника завершённой задачи о второй стороне.
// Один отзыв на задачу от автора; повторная попытка отклоняется.
func (s *ReviewService) Create(ctx context.Context, reviewerID, taskID uuid.UUID, rating int, comment *string) (*models.Review, error) {
	if rating < minReviewRating || rating > maxReviewRating {
		return nil, apperror.New(apperror.ErrCodeValidation, "оценка должна быть от 1 до 5")
	}
	if comment != nil {
		trimmed := strings.TrimSpace(*comment)
		if trimmed == "" {
			comment = nil
		} else {
			if len([]rune(trimmed)) > maxCommentLength {
				return nil, apperror.New(apperror.ErrCodeValidation, "комментарий слишком длинный")
			}
			comment = &trimmed
		}
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "задача не найдена")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить задачу")
	}

	if task.Status != models.TaskStatusCompleted {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "отзыв доступен только по завершённой задаче")
	}
	if !task.IsParticipant(reviewerID) {
		return nil, apperror.ErrNotParticipant
	}

	// Отзыв всегда адресован второй стороне задачи.
	reviewedID := task.PosterID
	if reviewerID == task.PosterID {
		reviewedID = *task.HustlerID
	}

	review := &models.Review{
		TaskID:     taskID,
		ReviewerID: reviewerID,
		ReviewedID: reviewedID,
		Rating:     rating,
		Comment:    comment,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, apperror.ErrAlreadyReviewed
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить отзыв")
	}

	notification := &models.Notification{
		UserID:  reviewedID,
		Type:    models.NotificationNewReview,
		Title:   "Новый отзыв",
		Message: "О вас оставили отзыв по задаче «" + task.Title + "»",
		TaskID:  &taskID,
	}
	if err := s.notifier.Dispatch(ctx, notification); err != nil {
		logStatusNotifyFailure(taskID, reviewedID, err)
	}

	return review, nil
}

// CanReview сообщает, может ли пользователь оставить отзыв по задаче:
// задача завершена, пользователь — её участник и ещё не оставлял отзыв.
func (s *ReviewService) CanReview(ctx context.Context, reviewerID, taskID uuid.UUID) (bool, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return false, apperror.New(apperror.ErrCodeNotFound, "задача не найдена")
		}
		return false, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить задачу")
	}

	if task.Status != models.TaskStatusCompleted || !task.IsParticipant(reviewerID) {
		return false, nil
	}

	existing, err := s.reviews.GetByTaskAndReviewer(ctx, taskID, reviewerID)
	if err != nil {
		return false, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить отзыв")
	}

	return existing == nil, nil
}

// ListForUser возвращает отзывы, оставленные о пользователе.
func (s *ReviewService) ListForUser(ctx context.Context, reviewedID uuid.UUID, limit, offset int) ([]models.Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	reviews, err := s.reviews.ListByReviewedID(ctx, reviewedID, limit, offset)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить отзывы")
	}

	return reviews, nil
}

// ListForTask возвращает отзывы по задаче.
func (s *ReviewService) ListForTask(ctx context.Context, taskID uuid.UUID) ([]models.Review, error) {
	reviews, err := s.reviews.ListByTaskID(ctx, taskID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить отзывы")
	}
	return reviews, nil
}
