package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hustlehub/backend/internal/dto"
	"github.com/hustlehub/backend/internal/http/handlers/common"
	"github.com/hustlehub/backend/internal/service"
)

// VerificationHandler обслуживает HTTP-маршруты подтверждения учётных записей.
type VerificationHandler struct {
	verification *service.VerificationService
}

// NewVerificationHandler создаёт хэндлер.
func NewVerificationHandler(verification *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verification: verification}
}

// RequestCode обрабатывает POST /api/verification/request.
func (h *VerificationHandler) RequestCode(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.RequestCodeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.AbortWithError(c, err)
		return
	}

	if err := h.verification.RequestCode(c.Request.Context(), userID, req.Channel); err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "код подтверждения отправлен")
}

// Status обрабатывает GET /api/verification/status?channel=email.
func (h *VerificationHandler) Status(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	channel := c.DefaultQuery("channel", "email")
	status, err := h.verification.Status(c.Request.Context(), userID, channel)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, status)
}

// ConfirmCode обрабатывает POST /api/verification/confirm.
func (h *VerificationHandler) ConfirmCode(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.ConfirmCodeRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.AbortWithError(c, err)
		return
	}

	if err := h.verification.ConfirmCode(c.Request.Context(), userID, req.Channel, req.Code); err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "учётная запись подтверждена")
}
