package service

import "github.com/google/uuid"

// Имена realtime-событий, уходящих в websocket-шлюз.
const (
	EventNewMessage        = "new_message"
	EventTaskStatusChanged = "task_status_changed"
	EventNotification      = "notification"
)

// RealtimePublisher доставляет события подключённым клиентам.
// Доставка best-effort: отсутствие подключения не является ошибкой,
// источником истины остаётся база.
type RealtimePublisher interface {
	PublishToUser(userID uuid.UUID, event string, payload interface{})
	PublishToChat(chatID uuid.UUID, event string, payload interface{})
}

// noopPublisher используется, когда realtime-шлюз не подключён (тесты).
type noopPublisher struct{}

func (noopPublisher) PublishToUser(uuid.UUID, string, interface{}) {}
func (noopPublisher) PublishToChat(uuid.UUID, string, interface{}) {}

// NewNoopPublisher возвращает заглушку realtime-издателя.
func NewNoopPublisher() RealtimePublisher { return noopPublisher{} }
