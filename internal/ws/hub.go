package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/hustlehub/backend/internal/logger"
)

// MembershipChecker проверяет право пользователя на подписку на комнату чата.
type MembershipChecker interface {
	IsMember(ctx context.Context, chatID, userID uuid.UUID) (bool, error)
}

// maxRoomsPerClient ограничивает число комнат одного подключения.
const maxRoomsPerClient = 100

// Hub управляет всеми WebSocket-клиентами. У каждого пользователя есть
// персональный канал (уведомления, статусы задач), плюс клиент может
// подписаться на комнаты своих чатов. Хаб реализует service.RealtimePublisher.
type Hub struct {
	mu         sync.RWMutex
	users      map[uuid.UUID]map[*Client]struct{}
	rooms      map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan envelope
	membership MembershipChecker
	ctx        context.Context
}

type targetKind int

const (
	targetUser targetKind = iota
	targetChat
)

type envelope struct {
	kind    targetKind
	id      uuid.UUID
	payload []byte
}

// NewHub создаёт новый хаб.
func NewHub(ctx context.Context, membership MembershipChecker) *Hub {
	return &Hub{
		users:      make(map[uuid.UUID]map[*Client]struct{}),
		rooms:      make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan envelope, 64),
		membership: membership,
		ctx:        ctx,
	}
}

// Run запускает главный цикл хаба.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

// Register добавляет клиента.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister удаляет клиента и отписывает его от всех комнат.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// PublishToUser отправляет событие во все подключения пользователя.
// Доставка best-effort: если пользователь не подключён, событие теряется,
// источником истины остаётся база.
func (h *Hub) PublishToUser(userID uuid.UUID, event string, payload interface{}) {
	raw, err := marshalEvent(event, payload)
	if err != nil {
		logMarshalFailure(event, err)
		return
	}
	h.broadcast <- envelope{kind: targetUser, id: userID, payload: raw}
}

// PublishToChat отправляет событие всем подписчикам комнаты чата.
func (h *Hub) PublishToChat(chatID uuid.UUID, event string, payload interface{}) {
	raw, err := marshalEvent(event, payload)
	if err != nil {
		logMarshalFailure(event, err)
		return
	}
	h.broadcast <- envelope{kind: targetChat, id: chatID, payload: raw}
}

// joinRoom подписывает клиента на комнату. Подписка требует участия
// в чате и ограничена maxRoomsPerClient комнатами на подключение.
func (h *Hub) joinRoom(ctx context.Context, client *Client, chatID uuid.UUID) error {
	member, err := h.membership.IsMember(ctx, chatID, client.userID)
	if err != nil {
		return errSubscribeFailed
	}
	if !member {
		return errNotChatMember
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := client.rooms[chatID]; ok {
		return nil
	}
	if len(client.rooms) >= maxRoomsPerClient {
		return errTooManyRooms
	}

	if _, ok := h.rooms[chatID]; !ok {
		h.rooms[chatID] = make(map[*Client]struct{})
	}
	h.rooms[chatID][client] = struct{}{}
	client.rooms[chatID] = struct{}{}

	return nil
}

// leaveRoom отписывает клиента от комнаты. Выход из чужой комнаты — no-op.
func (h *Hub) leaveRoom(client *Client, chatID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachRoom(client, chatID)
}

func (h *Hub) detachRoom(client *Client, chatID uuid.UUID) {
	if clients, ok := h.rooms[chatID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, chatID)
		}
	}
	delete(client.rooms, chatID)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.users[client.userID]; !ok {
		h.users[client.userID] = make(map[*Client]struct{})
	}
	h.users[client.userID][client] = struct{}{}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for chatID := range client.rooms {
		h.detachRoom(client, chatID)
	}

	if clients, ok := h.users[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.users, client.userID)
		}
	}
}

func (h *Hub) deliver(env envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var targets map[*Client]struct{}
	switch env.kind {
	case targetUser:
		targets = h.users[env.id]
	case targetChat:
		targets = h.rooms[env.id]
	}

	for client := range targets {
		select {
		case client.send <- env.payload:
		default:
			// Медленного потребителя закрываем, не блокируя рассылку.
			go client.Close()
		}
	}
}

func marshalEvent(event string, payload interface{}) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"type": event,
		"data": payload,
	})
}

func logMarshalFailure(event string, err error) {
	if logger.Log == nil {
		return
	}
	logger.Log.WithField("event", event).WithError(err).Error("ws: marshal failed")
}
