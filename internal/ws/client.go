package ws

import (
	"context"
	"encoding/json"
	"errors"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hustlehub/backend/internal/logger"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = (pongWait * 9) / 10
	maxFrameSize = 4 * 1024
)

var (
	errNotChatMember   = errors.New("вы не участник этого чата")
	errTooManyRooms    = errors.New("превышен лимит комнат на подключение")
	errSubscribeFailed = errors.New("не удалось оформить подписку")
)

// clientCommand — входящий кадр от клиента. Поддерживаются только
// управляющие команды подписки; сообщения чата отправляются через HTTP API.
type clientCommand struct {
	Type   string    `json:"type"`
	ChatID uuid.UUID `json:"chat_id"`
}

const (
	commandJoinChat  = "join_chat"
	commandLeaveChat = "leave_chat"
)

// Client представляет одно подключение WebSocket.
type Client struct {
	conn   *websocket.Conn
	hub    *Hub
	userID uuid.UUID
	send   chan []byte
	rooms  map[uuid.UUID]struct{}
}

// NewClient создаёт нового клиента.
func NewClient(conn *websocket.Conn, hub *Hub, userID uuid.UUID) *Client {
	return &Client{
		conn:   conn,
		hub:    hub,
		userID: userID,
		send:   make(chan []byte, 16),
		rooms:  make(map[uuid.UUID]struct{}),
	}
}

// Run запускает обработку входящих и исходящих сообщений.
func (c *Client) Run(ctx context.Context) {
	go c.writePumpSafe()
	c.readPump(ctx)
}

func (c *Client) writePumpSafe() {
	defer func() {
		if r := recover(); r != nil {
			logPanic("writePump", r)
			c.Close()
		}
	}()
	c.writePump()
}

// Close закрывает соединение.
func (c *Client) Close() {
	c.hub.Unregister(c)
	c.conn.Close()
}

func (c *Client) readPump(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logPanic("readPump", r)
		}
		c.Close()
	}()

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, raw, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) && logger.Log != nil {
					logger.Log.WithField("user_id", c.userID).WithError(err).Debug("ws: unexpected close")
				}
				return
			}
			c.handleCommand(ctx, raw)
		}
	}
}

// handleCommand обрабатывает управляющий кадр. Неизвестные и битые кадры
// отклоняются ответом error, соединение при этом не рвётся.
func (c *Client) handleCommand(ctx context.Context, raw []byte) {
	var cmd clientCommand
	if err := json.Unmarshal(raw, &cmd); err != nil {
		c.sendEvent("error", map[string]string{"message": "некорректный формат команды"})
		return
	}

	switch cmd.Type {
	case commandJoinChat:
		if cmd.ChatID == uuid.Nil {
			c.sendEvent("error", map[string]string{"message": "chat_id обязателен"})
			return
		}
		if err := c.hub.joinRoom(ctx, c, cmd.ChatID); err != nil {
			c.sendEvent("error", map[string]string{"message": err.Error()})
			return
		}
		c.sendEvent("joined_chat", map[string]uuid.UUID{"chat_id": cmd.ChatID})
	case commandLeaveChat:
		c.hub.leaveRoom(c, cmd.ChatID)
		c.sendEvent("left_chat", map[string]uuid.UUID{"chat_id": cmd.ChatID})
	default:
		c.sendEvent("error", map[string]string{"message": "неизвестная команда"})
	}
}

func (c *Client) sendEvent(event string, payload interface{}) {
	raw, err := marshalEvent(event, payload)
	if err != nil {
		logMarshalFailure(event, err)
		return
	}
	select {
	case c.send <- raw:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func logPanic(pump string, r interface{}) {
	if logger.Log == nil {
		return
	}
	logger.Log.WithField("pump", pump).WithField("panic", r).
		WithField("stack", string(debug.Stack())).Error("ws: panic recovered")
}
