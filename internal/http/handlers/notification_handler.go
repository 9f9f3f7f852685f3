package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hustlehub/backend/internal/dto"
	"github.com/hustlehub/backend/internal/http/handlers/common"
	"github.com/hustlehub/backend/internal/service"
)

// NotificationHandler обслуживает HTTP-маршруты уведомлений.
type NotificationHandler struct {
	notifications *service.NotificationService
}

// NewNotificationHandler создаёт хэндлер.
func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// List обрабатывает GET /api/notifications.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	limit, offset := common.GetPagination(c)
	unreadOnly := c.Query("unread_only") == "true"

	notifications, unread, err := h.notifications.List(c.Request.Context(), userID, limit, offset, unreadOnly)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, dto.NotificationListResponse{
		Notifications: notifications,
		UnreadCount:   unread,
	})
}

// UnreadCount обрабатывает GET /api/notifications/unread-count.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	count, err := h.notifications.CountUnread(c.Request.Context(), userID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, gin.H{"unread_count": count})
}

// Get обрабатывает GET /api/notifications/:id.
func (h *NotificationHandler) Get(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	notificationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	notification, err := h.notifications.Get(c.Request.Context(), userID, notificationID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, notification)
}

// MarkRead обрабатывает POST /api/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	notificationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.notifications.MarkRead(c.Request.Context(), userID, notificationID); err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "уведомление прочитано")
}

// MarkAllRead обрабатывает POST /api/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	if err := h.notifications.MarkAllRead(c.Request.Context(), userID); err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "все уведомления прочитаны")
}

// Delete обрабатывает DELETE /api/notifications/:id.
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	notificationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.notifications.Delete(c.Request.Context(), userID, notificationID); err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "уведомление удалено")
}
