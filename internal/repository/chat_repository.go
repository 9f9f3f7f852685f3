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

// ErrChatNotFound возвращается, когда чат не найден.
var ErrChatNotFound = errors.New("chat not found")

// ChatRepository отвечает за работу с таблицами chats, chat_members и messages.
type ChatRepository struct {
	db *sqlx.DB
}

// NewChatRepository создаёт экземпляр репозитория.
func NewChatRepository(db *sqlx.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// GetByID возвращает чат по идентификатору.
func (r *ChatRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.GetContext(ctx, &chat,
		`SELECT id, task_id, created_at, updated_at FROM chats WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("chat repository: get by id %w", err)
	}
	return &chat, nil
}

// GetByTaskID возвращает чат задачи.
func (r *ChatRepository) GetByTaskID(ctx context.Context, taskID uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.GetContext(ctx, &chat,
		`SELECT id, task_id, created_at, updated_at FROM chats WHERE task_id = $1`, taskID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("chat repository: get by task %w", err)
	}
	return &chat, nil
}

// IsMember проверяет участие пользователя в чате.
func (r *ChatRepository) IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM chat_members WHERE chat_id = $1 AND user_id = $2`,
		chatID, userID); err != nil {
		return false, fmt.Errorf("chat repository: is member %w", err)
	}
	return count > 0, nil
}

// ListMembers возвращает участников чата.
func (r *ChatRepository) ListMembers(ctx context.Context, chatID uuid.UUID) ([]models.ChatMember, error) {
	var members []models.ChatMember
	if err := r.db.SelectContext(ctx, &members,
		`SELECT id, chat_id, user_id, created_at FROM chat_members WHERE chat_id = $1 ORDER BY created_at`,
		chatID); err != nil {
		return nil, fmt.Errorf("chat repository: list members %w", err)
	}
	return members, nil
}

// ListByUser возвращает чаты пользователя, свежие сверху, с участниками,
// последним сообщением и числом непрочитанных.
func (r *ChatRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Chat, error) {
	var chats []models.Chat
	if err := r.db.SelectContext(ctx, &chats, `
		SELECT c.id, c.task_id, c.created_at, c.updated_at
		FROM chats c
		JOIN chat_members m ON m.chat_id = c.id
		WHERE m.user_id = $1
		ORDER BY c.updated_at DESC
	`, userID); err != nil {
		return nil, fmt.Errorf("chat repository: list by user %w", err)
	}

	for i := range chats {
		members, err := r.ListMembers(ctx, chats[i].ID)
		if err != nil {
			return nil, err
		}
		chats[i].Members = members

		last, err := r.lastMessage(ctx, chats[i].ID)
		if err != nil {
			return nil, err
		}
		chats[i].LastMessage = last

		unread, err := r.countUnread(ctx, chats[i].ID, userID)
		if err != nil {
			return nil, err
		}
		chats[i].UnreadCount = unread
	}

	return chats, nil
}

func (r *ChatRepository) lastMessage(ctx context.Context, chatID uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `
		SELECT id, seq, chat_id, sender_id, content, type, is_read, created_at
		FROM messages WHERE chat_id = $1 ORDER BY seq DESC LIMIT 1
	`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("chat repository: last message %w", err)
	}
	return &msg, nil
}

func (r *ChatRepository) countUnread(ctx context.Context, chatID, userID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `
		SELECT COUNT(*) FROM messages
		WHERE chat_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, chatID, userID); err != nil {
		return 0, fmt.Errorf("chat repository: count unread %w", err)
	}
	return count, nil
}

// CreateMessage сохраняет сообщение и обновляет updated_at чата
// в одной транзакции.
func (r *ChatRepository) CreateMessage(ctx context.Context, msg *models.Message) (err error) {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("chat repository: begin tx %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.QueryRowxContext(ctx, `
		INSERT INTO messages (chat_id, sender_id, content, type, is_read)
		VALUES ($1, $2, $3, $4, FALSE)
		RETURNING id, seq, created_at
	`, msg.ChatID, msg.SenderID, msg.Content, msg.Type,
	).Scan(&msg.ID, &msg.Seq, &msg.CreatedAt); err != nil {
		return fmt.Errorf("chat repository: create message %w", err)
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE chats SET updated_at = NOW() WHERE id = $1`, msg.ChatID); err != nil {
		return fmt.Errorf("chat repository: touch chat %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("chat repository: create message commit %w", err)
	}

	return nil
}

// ListMessages возвращает страницу сообщений чата, новые сверху.
// Страница 0 (offset 0) — самые свежие сообщения; порядок для показа
// восстанавливается на уровне сервиса.
func (r *ChatRepository) ListMessages(ctx context.Context, chatID uuid.UUID, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	if err := r.db.SelectContext(ctx, &messages, `
		SELECT id, seq, chat_id, sender_id, content, type, is_read, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY seq DESC
		LIMIT $2 OFFSET $3
	`, chatID, limit, offset); err != nil {
		return nil, fmt.Errorf("chat repository: list messages %w", err)
	}
	return messages, nil
}

// CountMessages возвращает число сообщений в чате.
func (r *ChatRepository) CountMessages(ctx context.Context, chatID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages WHERE chat_id = $1`, chatID); err != nil {
		return 0, fmt.Errorf("chat repository: count messages %w", err)
	}
	return count, nil
}

// MarkMessagesRead отмечает прочитанными все чужие сообщения чата.
// Возвращает число затронутых строк; ноль — допустимый no-op.
func (r *ChatRepository) MarkMessagesRead(ctx context.Context, chatID, readerID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE messages SET is_read = TRUE
		WHERE chat_id = $1 AND sender_id <> $2 AND is_read = FALSE
	`, chatID, readerID)
	if err != nil {
		return 0, fmt.Errorf("chat repository: mark read %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("chat repository: mark read rows affected %w", err)
	}

	return rowsAffected, nil
}
