package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hustlehub/backend/internal/goroutine"
	"github.com/hustlehub/backend/internal/models"
	"github.com/hustlehub/backend/internal/pkg/apperror"
	"github.com/hustlehub/backend/internal/repository"
)

// NotificationRepo описывает зависимости сервиса от хранилища уведомлений.
type NotificationRepo interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	MarkAllAsRead(ctx context.Context, userID uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
}

// NotificationService отвечает за доставку и чтение уведомлений.
type NotificationService struct {
	repo     NotificationRepo
	realtime RealtimePublisher
}

// NewNotificationService создаёт сервис уведомлений.
func NewNotificationService(repo NotificationRepo, realtime RealtimePublisher) *NotificationService {
	if realtime == nil {
		realtime = NewNoopPublisher()
	}
	return &NotificationService{repo: repo, realtime: realtime}
}

// Dispatch сохраняет уведомление и пушит его в realtime-канал получателя.
// Запись в базу синхронная и обязательная; пуш — best-effort.
func (s *NotificationService) Dispatch(ctx context.Context, notification *models.Notification) error {
	if err := s.repo.Create(ctx, notification); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить уведомление")
	}

	pushed := *notification
	s.pushAsync(&pushed)
	return nil
}

// Push пушит уже сохранённое уведомление (например, созданное в транзакции
// назначения задачи) без повторной записи в базу.
func (s *NotificationService) Push(notification *models.Notification) {
	pushed := *notification
	s.pushAsync(&pushed)
}

func (s *NotificationService) pushAsync(notification *models.Notification) {
	goroutine.SafeGo("notification-push", func() {
		s.realtime.PublishToUser(notification.UserID, EventNotification, notification)
	})
}

// List возвращает уведомления пользователя и число непрочитанных.
func (s *NotificationService) List(ctx context.Context, userID uuid.UUID, limit, offset int, unreadOnly bool) ([]models.Notification, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	notifications, err := s.repo.List(ctx, userID, limit, offset, unreadOnly)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить уведомления")
	}

	unread, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось посчитать непрочитанные")
	}

	return notifications, unread, nil
}

// CountUnread возвращает число непрочитанных уведомлений.
func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось посчитать непрочитанные")
	}
	return count, nil
}

// Get возвращает уведомление с проверкой владельца.
func (s *NotificationService) Get(ctx context.Context, userID, notificationID uuid.UUID) (*models.Notification, error) {
	return s.getOwned(ctx, userID, notificationID)
}

// MarkRead отмечает уведомление прочитанным с проверкой владельца.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	notification, err := s.getOwned(ctx, userID, notificationID)
	if err != nil {
		return err
	}

	if notification.IsRead {
		return nil
	}

	if err := s.repo.MarkAsRead(ctx, notificationID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "уведомление не найдено")
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось отметить уведомление")
	}

	return nil
}

// MarkAllRead отмечает все уведомления пользователя прочитанными.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.MarkAllAsRead(ctx, userID); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось отметить уведомления")
	}
	return nil
}

// Delete удаляет уведомление с проверкой владельца.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID uuid.UUID) error {
	if _, err := s.getOwned(ctx, userID, notificationID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, notificationID); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return apperror.New(apperror.ErrCodeNotFound, "уведомление не найдено")
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось удалить уведомление")
	}

	return nil
}

func (s *NotificationService) getOwned(ctx context.Context, userID, notificationID uuid.UUID) (*models.Notification, error) {
	notification, err := s.repo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "уведомление не найдено")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить уведомление")
	}

	if notification.UserID != userID {
		return nil, apperror.ErrForbidden
	}

	return notification, nil
}

// taskStatusTitle возвращает заголовок уведомления о смене статуса.
func taskStatusTitle(status string) string {
	switch status {
	case models.TaskStatusInProgress:
		return "Задача в работе"
	case models.TaskStatusCompleted:
		return "Задача завершена"
	case models.TaskStatusCancelled:
		return "Задача отменена"
	default:
		return "Статус задачи изменён"
	}
}

func taskStatusMessage(title, status string) string {
	return fmt.Sprintf("Задача «%s» перешла в статус %s", title, status)
}
