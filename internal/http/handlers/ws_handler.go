package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hustlehub/backend/internal/http/handlers/common"
	"github.com/hustlehub/backend/internal/service"
	"github.com/hustlehub/backend/internal/ws"
)

// WSHandler устанавливает WebSocket-соединения realtime-шлюза.
type WSHandler struct {
	hub          *ws.Hub
	tokenManager *service.TokenManager
	upgrader     websocket.Upgrader
}

// NewWSHandler создаёт хэндлер. Проверка Origin повторяет список CORS.
func NewWSHandler(hub *ws.Hub, tokens *service.TokenManager, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &WSHandler{
		hub:          hub,
		tokenManager: tokens,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					// Не-браузерные клиенты не шлют Origin.
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Handle обслуживает GET /api/ws?token=...
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		common.RespondUnauthorized(c, "access токен обязателен")
		return
	}

	claims, err := h.tokenManager.ParseAccessToken(rawToken)
	if err != nil || claims.UserID == uuid.Nil {
		common.RespondUnauthorized(c, "невалидный access токен")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade сам пишет ответ при ошибке рукопожатия.
		return
	}

	client := ws.NewClient(conn, h.hub, claims.UserID)
	h.hub.Register(client)

	client.Run(c.Request.Context())
}
