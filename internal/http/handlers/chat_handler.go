package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hustlehub/backend/internal/dto"
	"github.com/hustlehub/backend/internal/http/handlers/common"
	"github.com/hustlehub/backend/internal/service"
)

// ChatHandler обслуживает HTTP-маршруты чатов и сообщений.
type ChatHandler struct {
	chats *service.ChatService
}

// NewChatHandler создаёт хэндлер.
func NewChatHandler(chats *service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

// List обрабатывает GET /api/chats.
func (h *ChatHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	chats, err := h.chats.ListChats(c.Request.Context(), userID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, chats)
}

// Get обрабатывает GET /api/chats/:id.
func (h *ChatHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	chatID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	chat, err := h.chats.GetChat(c.Request.Context(), chatID, userID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, chat)
}

// GetByTask обрабатывает GET /api/tasks/:id/chat.
func (h *ChatHandler) GetByTask(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	taskID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	chat, err := h.chats.GetChatByTask(c.Request.Context(), taskID, userID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, chat)
}

// SendMessage обрабатывает POST /api/chats/:id/messages.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	chatID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	var req dto.SendMessageRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.AbortWithError(c, err)
		return
	}

	msg, err := h.chats.SendMessage(c.Request.Context(), chatID, userID, req.Content, req.Type)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusCreated, msg)
}

// ListMessages обрабатывает GET /api/chats/:id/messages.
func (h *ChatHandler) ListMessages(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	chatID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	messages, total, err := h.chats.ListMessages(c.Request.Context(), chatID, userID, limit, offset)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, dto.MessageListResponse{
		Messages: messages,
		Meta:     dto.PageMeta{Total: total, Limit: limit, Offset: offset},
	})
}

// MarkRead обрабатывает POST /api/chats/:id/messages/read.
func (h *ChatHandler) MarkRead(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	chatID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	marked, err := h.chats.MarkRead(c.Request.Context(), chatID, userID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, gin.H{"marked": marked})
}
