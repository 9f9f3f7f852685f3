package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/hustlehub/backend/internal/models"
	"github.com/hustlehub/backend/internal/pkg/apperror"
	"github.com/hustlehub/backend/internal/repository"
)

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	if args.Error(0) == nil {
		review.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockReviewRepo) GetByTaskAndReviewer(ctx context.Context, taskID, reviewerID uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, taskID, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByReviewedID(ctx context.Context, reviewedID uuid.UUID, limit, offset int) ([]models.Review, error) {
	args := m.Called(ctx, reviewedID, limit, offset)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByTaskID(ctx context.Context, taskID uuid.UUID) ([]models.Review, error) {
	args := m.Called(ctx, taskID)
	return args.Get(0).([]models.Review), args.Error(1)
}

type mockReviewTaskRepo struct {
	mock.Mock
}

func (m *mockReviewTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

type mockReviewNotifier struct {
	mock.Mock
}

func (m *mockReviewNotifier) Dispatch(ctx context.Context, notification *models.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func completedTask(posterID, hustlerID uuid.UUID) *models.Task {
	return &models.Task{
		ID:        uuid.New(),
		PosterID:  posterID,
		HustlerID: &hustlerID,
		Status:    models.TaskStatusCompleted,
		Title:     "Уборка квартиры",
	}
}

func TestReviewService_Create_PosterReviewsHustler(t *testing.T) {
	reviews := new(mockReviewRepo)
	tasks := new(mockReviewTaskRepo)
	notifier := new(mockReviewNotifier)
	svc := NewReviewService(reviews, tasks, notifier)
	ctx := context.Background()

	posterID := uuid.New()
	hustlerID := uuid.New()
	task := completedTask(posterID, hustlerID)

	tasks.On("GetByID", ctx, task.ID).Return(task, nil)
	reviews.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)
	notifier.On("Dispatch", ctx, mock.AnythingOfType("*models.Notification")).Return(nil)

	comment := "Всё сделано отлично"
	review, err := svc.Create(ctx, posterID, task.ID, 5, &comment)

	assert.NoError(t, err)
	assert.Equal(t, hustlerID, review.ReviewedID)
	assert.Equal(t, 5, review.Rating)
	notifier.AssertCalled(t, "Dispatch", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.UserID == hustlerID && n.Type == models.NotificationNewReview
	}))
}

func TestReviewService_Create_HustlerReviewsPoster(t *testing.T) {
	reviews := new(mockReviewRepo)
	tasks := new(mockReviewTaskRepo)
	notifier := new(mockReviewNotifier)
	svc := NewReviewService(reviews, tasks, notifier)
	ctx := context.Background()

	posterID := uuid.New()
	hustlerID := uuid.New()
	task := completedTask(posterID, hustlerID)

	tasks.On("GetByID", ctx, task.ID).Return(task, nil)
	reviews.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)
	notifier.On("Dispatch", ctx, mock.AnythingOfType("*models.Notification")).Return(nil)

	review, err := svc.Create(ctx, hustlerID, task.ID, 4, nil)

	assert.NoError(t, err)
	assert.Equal(t, posterID, review.ReviewedID)
}

func TestReviewService_Create_InvalidRating(t *testing.T) {
	svc := NewReviewService(new(mockReviewRepo), new(mockReviewTaskRepo), new(mockReviewNotifier))
	ctx := context.Background()

	_, err := svc.Create(ctx, uuid.New(), uuid.New(), 0, nil)
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Create(ctx, uuid.New(), uuid.New(), 6, nil)
	assert.True(t, apperror.IsValidation(err))
}

func TestReviewService_Create_CommentTooLong(t *testing.T) {
	svc := NewReviewService(new(mockReviewRepo), new(mockReviewTaskRepo), new(mockReviewNotifier))

	comment := strings.Repeat("а", 2001)
	_, err := svc.Create(context.Background(), uuid.New(), uuid.New(), 5, &comment)

	assert.True(t, apperror.IsValidation(err))
}

func TestReviewService_Create_BlankCommentDropped(t *testing.T) {
	reviews := new(mockReviewRepo)
	tasks := new(mockReviewTaskRepo)
	notifier := new(mockReviewNotifier)
	svc := NewReviewService(reviews, tasks, notifier)
	ctx := context.Background()

	posterID := uuid.New()
	hustlerID := uuid.New()
	task := completedTask(posterID, hustlerID)

	tasks.On("GetByID", ctx, task.ID).Return(task, nil)
	reviews.On("Create", ctx, mock.AnythingOfType("*models.Review")).Return(nil)
	notifier.On("Dispatch", ctx, mock.AnythingOfType("*models.Notification")).Return(nil)

	comment := "   "
	review, err := svc.Create(ctx, posterID, task.ID, 3, &comment)

	assert.NoError(t, err)
	assert.Nil(t, review.Comment)
}

func TestReviewService_Create_TaskNotCompleted(t *testing.T) {
	tasks := new(mockReviewTaskRepo)
	svc := NewReviewService(new(mockReviewRepo), tasks, new(mockReviewNotifier))
	ctx := context.Background()

	posterID := uuid.New()
	hustlerID := uuid.New()
	task := completedTask(posterID, hustlerID)
	task.Status = models.TaskStatusInProgress

	tasks.On("GetByID", ctx, task.ID).Return(task, nil)

	_, err := svc.Create(ctx, posterID, task.ID, 5, nil)

	assert.True(t, apperror.Is(err, apperror.ErrCodeInvalidState))
}

func TestReviewService_Create_NotParticipant(t *testing.T) {
	tasks := new(mockReviewTaskRepo)
	svc := NewReviewService(new(mockReviewRepo), tasks, new(mockReviewNotifier))
	ctx := context.Background()

	task := completedTask(uuid.New(), uuid.New())
	tasks.On("GetByID", ctx, task.ID).Return(task, nil)

	_, err := svc.Create(ctx, uuid.New(), task.ID, 5, nil)

	assert.ErrorIs(t, err, apperror.ErrNotParticipant)
}

func TestReviewService_Create_Duplicate(t *testing.T) {
	reviews := new(mockReviewRepo)
	tasks := new(mockReviewTaskRepo)
	svc := NewReviewService(reviews, tasks, new(mockReviewNotifier))
	ctx := context.Background()

	posterID := uuid.New()
	hustlerID := uuid.New()
	task := completedTask(posterID, hustlerID)

	tasks.On("GetByID", ctx, task.ID).Return(task, nil)
	reviews.On("Create", ctx, mock.AnythingOfType("*models.Review")).
		Return(repository.ErrDuplicateReview)

	_, err := svc.Create(ctx, posterID, task.ID, 5, nil)

	assert.ErrorIs(t, err, apperror.ErrAlreadyReviewed)
}

func TestReviewService_CanReview(t *testing.T) {
	reviews := new(mockReviewRepo)
	tasks := new(mockReviewTaskRepo)
	svc := NewReviewService(reviews, tasks, new(mockReviewNotifier))
	ctx := context.Background()

	posterID := uuid.New()
	hustlerID := uuid.New()
	task := completedTask(posterID, hustlerID)

	tasks.On("GetByID", ctx, task.ID).Return(task, nil)
	reviews.On("GetByTaskAndReviewer", ctx, task.ID, posterID).Return(nil, nil)

	ok, err := svc.CanReview(ctx, posterID, task.ID)

	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestReviewService_CanReview_AlreadyLeft(t *testing.T) {
	reviews := new(mockReviewRepo)
	tasks := new(mockReviewTaskRepo)
	svc := NewReviewService(reviews, tasks, new(mockReviewNotifier))
	ctx := context.Background()

	posterID := uuid.New()
	hustlerID := uuid.New()
	task := completedTask(posterID, hustlerID)

	tasks.On("GetByID", ctx, task.ID).Return(task, nil)
	reviews.On("GetByTaskAndReviewer", ctx, task.ID, posterID).
		Return(&models.Review{ID: uuid.New()}, nil)

	ok, err := svc.CanReview(ctx, posterID, task.ID)

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestReviewService_CanReview_NotCompleted(t *testing.T) {
	tasks := new(mockReviewTaskRepo)
	svc := NewReviewService(new(mockReviewRepo), tasks, new(mockReviewNotifier))
	ctx := context.Background()

	task := completedTask(uuid.New(), uuid.New())
	task.Status = models.TaskStatusInProgress
	tasks.On("GetByID", ctx, task.ID).Return(task, nil)

	ok, err := svc.CanReview(ctx, task.PosterID, task.ID)

	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestReviewService_ListForUser(t *testing.T) {
	reviews := new(mockReviewRepo)
	svc := NewReviewService(reviews, new(mockReviewTaskRepo), new(mockReviewNotifier))
	ctx := context.Background()

	reviewedID := uuid.New()
	stored := []models.Review{{ID: uuid.New()}, {ID: uuid.New()}}
	reviews.On("ListByReviewedID", ctx, reviewedID, 20, 0).Return(stored, nil)

	got, err := svc.ListForUser(ctx, reviewedID, 0, -1)

	assert.NoError(t, err)
	assert.Len(t, got, 2)
}
