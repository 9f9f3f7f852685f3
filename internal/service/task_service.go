package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sirupsen/logrus"

	"github.com/hustlehub/backend/internal/goroutine"
	"github.com/hustlehub/backend/internal/logger"
	"github.com/hustlehub/backend/internal/models"
	"github.com/hustlehub/backend/internal/pkg/apperror"
	"github.com/hustlehub/backend/internal/repository"
	"github.com/hustlehub/backend/internal/validation"
)

// TaskRepo описывает зависимости сервиса от хранилища задач.
type TaskRepo interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error)
	List(ctx context.Context, filter repository.TaskFilter) ([]models.Task, int, error)
	ListMine(ctx context.Context, userID uuid.UUID) ([]models.Task, []models.Task, error)
	Assign(ctx context.Context, taskID, hustlerID uuid.UUID, notification *models.Notification) (*repository.AssignResult, error)
	UpdateStatus(ctx context.Context, taskID uuid.UUID, expectedFrom, to string) (*models.Task, error)
	Delete(ctx context.Context, taskID, posterID uuid.UUID) error
}

// TaskUserRepo описывает часть пользовательского хранилища, нужную задачам.
type TaskUserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// TaskNotifier доставляет уведомления, рождённые жизненным циклом задачи.
type TaskNotifier interface {
	Dispatch(ctx context.Context, notification *models.Notification) error
	Push(notification *models.Notification)
}

// TaskService управляет жизненным циклом задач:
// open -> assigned -> in_progress -> completed | cancelled.
type TaskService struct {
	tasks         TaskRepo
	users         TaskUserRepo
	notifier      TaskNotifier
	realtime      RealtimePublisher
	minTaskBudget int64
}

// NewTaskService создаёт сервис задач.
func NewTaskService(tasks TaskRepo, users TaskUserRepo, notifier TaskNotifier, realtime RealtimePublisher, minTaskBudget int64) *TaskService {
	if realtime == nil {
		realtime = NewNoopPublisher()
	}
	return &TaskService{
		tasks:         tasks,
		users:         users,
		notifier:      notifier,
		realtime:      realtime,
		minTaskBudget: minTaskBudget,
	}
}

// CreateTaskInput описывает данные новой задачи.
type CreateTaskInput struct {
	Title       string
	Description string
	Category    string
	Budget      int64
	Priority    string
	DeadlineAt  *time.Time
	Address     *string
	Latitude    *float64
	Longitude   *float64
	ImageURLs   []string
}

// Create размещает новую задачу в статусе open.
func (s *TaskService) Create(ctx context.Context, posterID uuid.UUID, input CreateTaskInput) (*models.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)

	if err := validation.ValidateLength("заголовок", input.Title, validation.MinTaskTitleLength, validation.MaxTaskTitleLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("описание", input.Description, validation.MinTaskDescriptionLength, validation.MaxTaskDescriptionLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if _, ok := models.ValidCategories[input.Category]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестная категория")
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if _, ok := models.ValidPriorities[input.Priority]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный приоритет")
	}
	if err := validation.ValidateBudget(input.Budget, s.minTaskBudget); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}
	if len(input.ImageURLs) > validation.MaxTaskImages {
		return nil, apperror.New(apperror.ErrCodeValidation,
			fmt.Sprintf("не более %d изображений", validation.MaxTaskImages))
	}
	if input.DeadlineAt != nil && input.DeadlineAt.Before(time.Now()) {
		return nil, apperror.New(apperror.ErrCodeValidation, "дедлайн не может быть в прошлом")
	}

	task := &models.Task{
		PosterID:    posterID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Budget:      input.Budget,
		Status:      models.TaskStatusOpen,
		Priority:    input.Priority,
		DeadlineAt:  input.DeadlineAt,
		Address:     input.Address,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		ImageURLs:   input.ImageURLs,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать задачу")
	}

	return task, nil
}

// Get возвращает задачу по идентификатору.
func (s *TaskService) Get(ctx context.Context, taskID uuid.UUID) (*models.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrTaskNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "задача не найдена")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить задачу")
	}
	return task, nil
}

// List возвращает задачи по фильтру с общим количеством.
func (s *TaskService) List(ctx context.Context, filter repository.TaskFilter) ([]models.Task, int, error) {
	if filter.Status != "" {
		if _, ok := models.ValidTaskStatuses[filter.Status]; !ok {
			return nil, 0, apperror.New(apperror.ErrCodeValidation, "неизвестный статус")
		}
	}
	if filter.Category != "" {
		if _, ok := models.ValidCategories[filter.Category]; !ok {
			return nil, 0, apperror.New(apperror.ErrCodeValidation, "неизвестная категория")
		}
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	tasks, total, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить список задач")
	}

	return tasks, total, nil
}

// ListMine возвращает задачи пользователя: размещённые и взятые.
func (s *TaskService) ListMine(ctx context.Context, userID uuid.UUID) (posted, assigned []models.Task, err error) {
	posted, assigned, err = s.tasks.ListMine(ctx, userID)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить задачи пользователя")
	}
	return posted, assigned, nil
}

// Assign назначает исполнителя на открытую задачу. Назначение атомарно:
// статус, чат с двумя участниками и уведомление автору создаются в одной
// транзакции. Из двух конкурентных вызовов побеждает ровно один.
func (s *TaskService) Assign(ctx context.Context, taskID, hustlerID uuid.UUID) (*models.Task, *models.Chat, error) {
	hustler, err := s.users.GetByID(ctx, hustlerID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, apperror.New(apperror.ErrCodeNotFound, "пользователь не найден")
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить пользователя")
	}

	if !hustler.IsActive {
		return nil, nil, apperror.ErrForbidden
	}
	if !models.CanPerformTasks(hustler.Role) {
		return nil, nil, apperror.ErrRoleViolation
	}

	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	// Автор задачи не меняется, поэтому проверку самоназначения можно
	// делать до транзакции.
	if task.PosterID == hustlerID {
		return nil, nil, apperror.ErrSelfAssignment
	}

	notification := &models.Notification{
		Type:    models.NotificationTaskAssigned,
		Title:   "Исполнитель найден",
		Message: fmt.Sprintf("%s взялся за задачу «%s»", hustler.DisplayName, task.Title),
	}

	result, err := s.tasks.Assign(ctx, taskID, hustlerID, notification)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTaskNotFound):
			return nil, nil, apperror.New(apperror.ErrCodeNotFound, "задача не найдена")
		case errors.Is(err, repository.ErrTaskNotOpen):
			return nil, nil, apperror.ErrTaskNotOpen
		default:
			return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось назначить исполнителя")
		}
	}

	s.notifier.Push(result.Notification)
	s.publishStatusChange(result.Task)

	return result.Task, result.Chat, nil
}

// UpdateStatus переводит задачу в новый статус по правилам жизненного цикла.
// Переход доступен любой из сторон задачи; допустимость самого перехода
// задаёт матрица статусов.
func (s *TaskService) UpdateStatus(ctx context.Context, taskID, userID uuid.UUID, to string) (*models.Task, error) {
	if _, ok := models.ValidTaskStatuses[to]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный статус")
	}

	task, err := s.Get(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !task.IsParticipant(userID) {
		return nil, apperror.ErrNotParticipant
	}
	if !models.IsTransitionAllowed(task.Status, to) {
		return nil, apperror.ErrBadTransition
	}

	updated, err := s.tasks.UpdateStatus(ctx, taskID, task.Status, to)
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, apperror.New(apperror.ErrCodeInvalidState, "статус задачи изменился, повторите запрос")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось изменить статус")
	}

	s.notifyStatusChange(ctx, updated, userID)
	s.publishStatusChange(updated)

	return updated, nil
}

// notifyStatusChange уведомляет вторую сторону задачи о смене статуса.
func (s *TaskService) notifyStatusChange(ctx context.Context, task *models.Task, actorID uuid.UUID) {
	var recipient uuid.UUID
	switch {
	case task.PosterID == actorID && task.HustlerID != nil:
		recipient = *task.HustlerID
	case task.HustlerID != nil && *task.HustlerID == actorID:
		recipient = task.PosterID
	default:
		return
	}

	notification := &models.Notification{
		UserID:  recipient,
		Type:    models.NotificationTaskStatusChanged,
		Title:   taskStatusTitle(task.Status),
		Message: taskStatusMessage(task.Title, task.Status),
		TaskID:  &task.ID,
	}
	if err := s.notifier.Dispatch(ctx, notification); err != nil {
		// Смена статуса уже зафиксирована; потерю уведомления только логируем.
		logStatusNotifyFailure(task.ID, recipient, err)
	}
}

func logStatusNotifyFailure(taskID, recipientID uuid.UUID, err error) {
	if logger.Log == nil {
		return
	}
	logger.Log.WithFields(logrus.Fields{
		"task_id":      taskID,
		"recipient_id": recipientID,
		"error":        err,
	}).Error("status change notification failed")
}

// publishStatusChange пушит событие смены статуса обеим сторонам задачи.
func (s *TaskService) publishStatusChange(task *models.Task) {
	payload := task
	goroutine.SafeGo("task-status-push", func() {
		s.realtime.PublishToUser(payload.PosterID, EventTaskStatusChanged, payload)
		if payload.HustlerID != nil {
			s.realtime.PublishToUser(*payload.HustlerID, EventTaskStatusChanged, payload)
		}
	})
}

// Delete удаляет открытую задачу её автора. Назначенные и завершённые
// задачи не удаляются: история чата и агрегаты должны сохраняться.
func (s *TaskService) Delete(ctx context.Context, taskID, userID uuid.UUID) error {
	task, err := s.Get(ctx, taskID)
	if err != nil {
		return err
	}

	if task.PosterID != userID {
		return apperror.ErrForbidden
	}
	if task.Status != models.TaskStatusOpen {
		return apperror.New(apperror.ErrCodeInvalidState, "удалить можно только открытую задачу")
	}

	if err := s.tasks.Delete(ctx, taskID, userID); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return apperror.New(apperror.ErrCodeInvalidState, "удалить можно только открытую задачу")
		}
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось удалить задачу")
	}

	return nil
}
