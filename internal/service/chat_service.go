package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hustlehub/backend/internal/goroutine"
	"github.com/hustlehub/backend/internal/logger"
	"github.com/hustlehub/backend/internal/models"
	"github.com/hustlehub/backend/internal/pkg/apperror"
	"github.com/hustlehub/backend/internal/repository"
	"github.com/hustlehub/backend/internal/validation"
)

// ChatRepo описывает зависимости сервиса от хранилища чатов.
type ChatRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Chat, error)
	GetByTaskID(ctx context.Context, taskID uuid.UUID) (*models.Chat, error)
	IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, chatID uuid.UUID) ([]models.ChatMember, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error)
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]models.Message, error)
	CountMessages(ctx context.Context, chatID uuid.UUID) (int, error)
	MarkMessagesRead(ctx context.Context, chatID, readerID uuid.UUID) (int64, error)
}

// ChatUserRepo описывает часть пользовательского хранилища, нужную чатам.
type ChatUserRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ChatNotifier доставляет уведомления о новых сообщениях.
type ChatNotifier interface {
	Dispatch(ctx context.Context, notification *models.Notification) error
}

// ChatService отвечает за переписку сторон задачи.
type ChatService struct {
	chats            ChatRepo
	users            ChatUserRepo
	notifier         ChatNotifier
	realtime         RealtimePublisher
	maxMessageLength int
}

// NewChatService создаёт сервис чатов.
func NewChatService(chats ChatRepo, users ChatUserRepo, notifier ChatNotifier, realtime RealtimePublisher, maxMessageLength int) *ChatService {
	if realtime == nil {
		realtime = NewNoopPublisher()
	}
	return &ChatService{
		chats:            chats,
		users:            users,
		notifier:         notifier,
		realtime:         realtime,
		maxMessageLength: maxMessageLength,
	}
}

// ListChats возвращает чаты пользователя, свежие сверху.
func (s *ChatService) ListChats(ctx context.Context, userID uuid.UUID) ([]models.Chat, error) {
	chats, err := s.chats.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить чаты")
	}
	return chats, nil
}

// GetChat возвращает чат с проверкой участия.
func (s *ChatService) GetChat(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, error) {
	chat, err := s.requireMembership(ctx, chatID, userID)
	if err != nil {
		return nil, err
	}

	members, err := s.chats.ListMembers(ctx, chatID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить участников")
	}
	chat.Members = members

	return chat, nil
}

// GetChatByTask возвращает чат задачи с проверкой участия.
func (s *ChatService) GetChatByTask(ctx context.Context, taskID, userID uuid.UUID) (*models.Chat, error) {
	chat, err := s.chats.GetByTaskID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "чат не найден")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить чат")
	}

	member, err := s.chats.IsMember(ctx, chat.ID, userID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить участие")
	}
	if !member {
		return nil, apperror.ErrNotChatMember
	}

	return chat, nil
}

// SendMessage отправляет сообщение в чат. Сообщение сначала фиксируется
// в базе, затем рассылается в realtime-комнату чата; остальным участникам
// создаются уведомления.
func (s *ChatService) SendMessage(ctx context.Context, chatID, senderID uuid.UUID, content, msgType string) (*models.Message, error) {
	if msgType == "" {
		msgType = models.MessageTypeText
	}
	if _, ok := models.ValidMessageTypes[msgType]; !ok {
		return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный тип сообщения")
	}
	if err := validation.ValidateMessageContent(content, s.maxMessageLength); err != nil {
		return nil, apperror.New(apperror.ErrCodeValidation, err.Error())
	}

	if _, err := s.requireMembership(ctx, chatID, senderID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
		Type:     msgType,
	}
	if err := s.chats.CreateMessage(ctx, msg); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось отправить сообщение")
	}

	s.fanOut(ctx, msg)

	return msg, nil
}

// fanOut рассылает сохранённое сообщение: событие в комнату чата и
// уведомления всем участникам, кроме отправителя. Ошибки доставки
// не отменяют уже записанное сообщение.
func (s *ChatService) fanOut(ctx context.Context, msg *models.Message) {
	pushed := *msg
	goroutine.SafeGo("chat-message-push", func() {
		s.realtime.PublishToChat(pushed.ChatID, EventNewMessage, &pushed)
	})

	members, err := s.chats.ListMembers(ctx, msg.ChatID)
	if err != nil {
		logChatFanOutFailure(msg.ChatID, err)
		return
	}

	sender, err := s.users.GetByID(ctx, msg.SenderID)
	senderName := "Собеседник"
	if err == nil {
		senderName = sender.DisplayName
	}

	preview := []rune(msg.Content)
	if len(preview) > 80 {
		preview = preview[:80]
	}

	for _, member := range members {
		if member.UserID == msg.SenderID {
			continue
		}
		notification := &models.Notification{
			UserID:  member.UserID,
			Type:    models.NotificationNewMessage,
			Title:   fmt.Sprintf("Сообщение от %s", senderName),
			Message: string(preview),
			ChatID:  &msg.ChatID,
		}
		if err := s.notifier.Dispatch(ctx, notification); err != nil {
			logChatFanOutFailure(msg.ChatID, err)
		}
	}
}

// ListMessages возвращает страницу сообщений в порядке отправки
// (старые первыми внутри страницы) и общее число сообщений.
// offset отсчитывается от самых свежих сообщений.
func (s *ChatService) ListMessages(ctx context.Context, chatID, userID uuid.UUID, limit, offset int) ([]models.Message, int, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	if _, err := s.requireMembership(ctx, chatID, userID); err != nil {
		return nil, 0, err
	}

	messages, err := s.chats.ListMessages(ctx, chatID, limit, offset)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить сообщения")
	}

	total, err := s.chats.CountMessages(ctx, chatID)
	if err != nil {
		return nil, 0, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось посчитать сообщения")
	}

	// Хранилище отдаёт свежие первыми; для показа разворачиваем страницу.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, total, nil
}

// MarkRead отмечает чужие сообщения чата прочитанными.
func (s *ChatService) MarkRead(ctx context.Context, chatID, userID uuid.UUID) (int64, error) {
	if _, err := s.requireMembership(ctx, chatID, userID); err != nil {
		return 0, err
	}

	marked, err := s.chats.MarkMessagesRead(ctx, chatID, userID)
	if err != nil {
		return 0, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось отметить сообщения")
	}

	return marked, nil
}

// IsMember проверяет участие пользователя в чате. Используется
// websocket-шлюзом при подписке на комнату.
func (s *ChatService) IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	return s.chats.IsMember(ctx, chatID, userID)
}

func (s *ChatService) requireMembership(ctx context.Context, chatID, userID uuid.UUID) (*models.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrChatNotFound) {
			return nil, apperror.New(apperror.ErrCodeNotFound, "чат не найден")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить чат")
	}

	member, err := s.chats.IsMember(ctx, chatID, userID)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить участие")
	}
	if !member {
		return nil, apperror.ErrNotChatMember
	}

	return chat, nil
}

func logChatFanOutFailure(chatID uuid.UUID, err error) {
	if logger.Log == nil {
		return
	}
	logger.Log.WithField("chat_id", chatID).WithError(err).Error("chat fan-out failed")
}
