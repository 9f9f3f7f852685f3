package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/hustlehub/backend/internal/models"
	"github.com/hustlehub/backend/internal/pkg/apperror"
	"github.com/hustlehub/backend/internal/repository"
)

type mockChatRepo struct {
	mock.Mock
}

func (m *mockChatRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chat), args.Error(1)
}

func (m *mockChatRepo) GetByTaskID(ctx context.Context, taskID uuid.UUID) (*models.Chat, error) {
	args := m.Called(ctx, taskID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Chat), args.Error(1)
}

func (m *mockChatRepo) IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockChatRepo) ListMembers(ctx context.Context, chatID uuid.UUID) ([]models.ChatMember, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).([]models.ChatMember), args.Error(1)
}

func (m *mockChatRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.Chat), args.Error(1)
}

func (m *mockChatRepo) CreateMessage(ctx context.Context, msg *models.Message) error {
	args := m.Called(ctx, msg)
	if args.Error(0) == nil {
		msg.ID = uuid.New()
		msg.Seq = 1
	}
	return args.Error(0)
}

func (m *mockChatRepo) ListMessages(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]models.Message, error) {
	args := m.Called(ctx, chatID, limit, offset)
	return args.Get(0).([]models.Message), args.Error(1)
}

func (m *mockChatRepo) CountMessages(ctx context.Context, chatID uuid.UUID) (int, error) {
	args := m.Called(ctx, chatID)
	return args.Int(0), args.Error(1)
}

func (m *mockChatRepo) MarkMessagesRead(ctx context.Context, chatID, readerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, chatID, readerID)
	return args.Get(0).(int64), args.Error(1)
}

type mockChatUserRepo struct {
	mock.Mock
}

func (m *mockChatUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type mockChatNotifier struct {
	mock.Mock
}

func (m *mockChatNotifier) Dispatch(ctx context.Context, notification *models.Notification) error {
	args := m.Called(ctx, notification)
	return args.Error(0)
}

func newChatService(chats *mockChatRepo, users *mockChatUserRepo, notifier *mockChatNotifier) *ChatService {
	return NewChatService(chats, users, notifier, NewNoopPublisher(), 2000)
}

func TestChatService_SendMessage_Success(t *testing.T) {
	chats := new(mockChatRepo)
	users := new(mockChatUserRepo)
	notifier := new(mockChatNotifier)
	svc := newChatService(chats, users, notifier)
	ctx := context.Background()

	chatID := uuid.New()
	senderID := uuid.New()
	otherID := uuid.New()

	chats.On("GetByID", ctx, chatID).Return(&models.Chat{ID: chatID}, nil)
	chats.On("IsMember", ctx, chatID, senderID).Return(true, nil)
	chats.On("CreateMessage", ctx, mock.AnythingOfType("*models.Message")).Return(nil)
	chats.On("ListMembers", ctx, chatID).Return([]models.ChatMember{
		{ChatID: chatID, UserID: senderID},
		{ChatID: chatID, UserID: otherID},
	}, nil)
	users.On("GetByID", ctx, senderID).Return(&models.User{ID: senderID, DisplayName: "Анна"}, nil)
	notifier.On("Dispatch", ctx, mock.AnythingOfType("*models.Notification")).Return(nil)

	msg, err := svc.SendMessage(ctx, chatID, senderID, "Привет, когда приступите?", "")

	assert.NoError(t, err)
	assert.Equal(t, models.MessageTypeText, msg.Type)
	assert.NotEqual(t, uuid.Nil, msg.ID)
	// Уведомление получает только вторая сторона.
	notifier.AssertNumberOfCalls(t, "Dispatch", 1)
	notifier.AssertCalled(t, "Dispatch", ctx, mock.MatchedBy(func(n *models.Notification) bool {
		return n.UserID == otherID && n.Type == models.NotificationNewMessage
	}))
}

func TestChatService_SendMessage_EmptyContent(t *testing.T) {
	svc := newChatService(new(mockChatRepo), new(mockChatUserRepo), new(mockChatNotifier))

	_, err := svc.SendMessage(context.Background(), uuid.New(), uuid.New(), "   ", "")

	assert.True(t, apperror.IsValidation(err))
}

func TestChatService_SendMessage_UnknownType(t *testing.T) {
	svc := newChatService(new(mockChatRepo), new(mockChatUserRepo), new(mockChatNotifier))

	_, err := svc.SendMessage(context.Background(), uuid.New(), uuid.New(), "привет", "sticker")

	assert.True(t, apperror.IsValidation(err))
}

func TestChatService_SendMessage_NotMember(t *testing.T) {
	chats := new(mockChatRepo)
	svc := newChatService(chats, new(mockChatUserRepo), new(mockChatNotifier))
	ctx := context.Background()

	chatID := uuid.New()
	strangerID := uuid.New()

	chats.On("GetByID", ctx, chatID).Return(&models.Chat{ID: chatID}, nil)
	chats.On("IsMember", ctx, chatID, strangerID).Return(false, nil)

	_, err := svc.SendMessage(ctx, chatID, strangerID, "привет", "")

	assert.ErrorIs(t, err, apperror.ErrNotChatMember)
	chats.AssertNotCalled(t, "CreateMessage", mock.Anything, mock.Anything)
}

// Хранилище отдаёт страницу свежими вперёд, сервис разворачивает её
// в порядок отправки.
func TestChatService_ListMessages_OldestFirst(t *testing.T) {
	chats := new(mockChatRepo)
	svc := newChatService(chats, new(mockChatUserRepo), new(mockChatNotifier))
	ctx := context.Background()

	chatID := uuid.New()
	userID := uuid.New()

	newest := []models.Message{{Seq: 3}, {Seq: 2}, {Seq: 1}}

	chats.On("GetByID", ctx, chatID).Return(&models.Chat{ID: chatID}, nil)
	chats.On("IsMember", ctx, chatID, userID).Return(true, nil)
	chats.On("ListMessages", ctx, chatID, 50, 0).Return(newest, nil)
	chats.On("CountMessages", ctx, chatID).Return(3, nil)

	messages, total, err := svc.ListMessages(ctx, chatID, userID, 0, 0)

	assert.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, int64(1), messages[0].Seq)
	assert.Equal(t, int64(2), messages[1].Seq)
	assert.Equal(t, int64(3), messages[2].Seq)
}

func TestChatService_ListMessages_NotMember(t *testing.T) {
	chats := new(mockChatRepo)
	svc := newChatService(chats, new(mockChatUserRepo), new(mockChatNotifier))
	ctx := context.Background()

	chatID := uuid.New()
	userID := uuid.New()

	chats.On("GetByID", ctx, chatID).Return(&models.Chat{ID: chatID}, nil)
	chats.On("IsMember", ctx, chatID, userID).Return(false, nil)

	_, _, err := svc.ListMessages(ctx, chatID, userID, 50, 0)

	assert.ErrorIs(t, err, apperror.ErrNotChatMember)
}

func TestChatService_GetChatByTask_NotFound(t *testing.T) {
	chats := new(mockChatRepo)
	svc := newChatService(chats, new(mockChatUserRepo), new(mockChatNotifier))
	ctx := context.Background()

	taskID := uuid.New()
	chats.On("GetByTaskID", ctx, taskID).Return(nil, repository.ErrChatNotFound)

	_, err := svc.GetChatByTask(ctx, taskID, uuid.New())

	assert.True(t, apperror.IsNotFound(err))
}

func TestChatService_MarkRead(t *testing.T) {
	chats := new(mockChatRepo)
	svc := newChatService(chats, new(mockChatUserRepo), new(mockChatNotifier))
	ctx := context.Background()

	chatID := uuid.New()
	userID := uuid.New()

	chats.On("GetByID", ctx, chatID).Return(&models.Chat{ID: chatID}, nil)
	chats.On("IsMember", ctx, chatID, userID).Return(true, nil)
	chats.On("MarkMessagesRead", ctx, chatID, userID).Return(int64(4), nil)

	marked, err := svc.MarkRead(ctx, chatID, userID)

	assert.NoError(t, err)
	assert.Equal(t, int64(4), marked)
}

func TestChatService_GetChat_WithMembers(t *testing.T) {
	chats := new(mockChatRepo)
	svc := newChatService(chats, new(mockChatUserRepo), new(mockChatNotifier))
	ctx := context.Background()

	chatID := uuid.New()
	userID := uuid.New()
	members := []models.ChatMember{{ChatID: chatID, UserID: userID}, {ChatID: chatID, UserID: uuid.New()}}

	chats.On("GetByID", ctx, chatID).Return(&models.Chat{ID: chatID}, nil)
	chats.On("IsMember", ctx, chatID, userID).Return(true, nil)
	chats.On("ListMembers", ctx, chatID).Return(members, nil)

	chat, err := svc.GetChat(ctx, chatID, userID)

	assert.NoError(t, err)
	assert.Len(t, chat.Members, 2)
}
