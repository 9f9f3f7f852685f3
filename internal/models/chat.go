package models

import (
	"time"

	"github.com/google/uuid"
)

// Chat описывает канал общения сторон задачи.
// На задачу существует ровно один чат (task_id уникален), он создаётся
// в момент назначения исполнителя и живёт столько же, сколько задача.
type Chat struct {
	ID        uuid.UUID `db:"id" json:"id"`
	TaskID    uuid.UUID `db:"task_id" json:"task_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
	// Связанные данные (загружаются отдельно)
	Members     []ChatMember `json:"members,omitempty"`
	LastMessage *Message     `json:"last_message,omitempty"`
	UnreadCount int          `json:"unread_count"`
}

// ChatMember описывает участника чата.
// Пара (chat_id, user_id) уникальна; в штатном потоке участников ровно два.
type ChatMember struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ChatID    uuid.UUID `db:"chat_id" json:"chat_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Message описывает сообщение в чате. Сообщения неизменяемы.
// Seq растёт монотонно при вставке, по нему гарантируется порядок.
type Message struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Seq       int64     `db:"seq" json:"seq"`
	ChatID    uuid.UUID `db:"chat_id" json:"chat_id"`
	SenderID  uuid.UUID `db:"sender_id" json:"sender_id"`
	Content   string    `db:"content" json:"content"`
	Type      string    `db:"type" json:"type"`
	IsRead    bool      `db:"is_read" json:"is_read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Notification описывает событие, адресованное пользователю.
// TaskID и ChatID — необязательные обратные ссылки для навигации.
type Notification struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	UserID    uuid.UUID  `db:"user_id" json:"user_id"`
	Type      string     `db:"type" json:"type"`
	Title     string     `db:"title" json:"title"`
	Message   string     `db:"message" json:"message"`
	TaskID    *uuid.UUID `db:"task_id" json:"task_id,omitempty"`
	ChatID    *uuid.UUID `db:"chat_id" json:"chat_id,omitempty"`
	IsRead    bool       `db:"is_read" json:"is_read"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
