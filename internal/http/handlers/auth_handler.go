package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hustlehub/backend/internal/dto"
	"github.com/hustlehub/backend/internal/http/handlers/common"
	"github.com/hustlehub/backend/internal/service"
)

// AuthHandler обслуживает HTTP-маршруты регистрации, входа и сессий.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler создаёт хэндлер.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func clientMeta(c *gin.Context) (userAgent, ipAddress *string) {
	if ua := c.GetHeader("User-Agent"); ua != "" {
		userAgent = &ua
	}
	if ip := c.ClientIP(); ip != "" {
		ipAddress = &ip
	}
	return
}

// Register обрабатывает POST /api/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.AbortWithError(c, err)
		return
	}

	user, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Email:       req.Email,
		Username:    req.Username,
		Password:    req.Password,
		Role:        req.Role,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusCreated, user)
}

// Login обрабатывает POST /api/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.AbortWithError(c, err)
		return
	}

	userAgent, ipAddress := clientMeta(c)
	user, pair, err := h.auth.Login(c.Request.Context(), req.Email, req.Password, userAgent, ipAddress)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, dto.AuthResponse{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh обрабатывает POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.AbortWithError(c, err)
		return
	}

	userAgent, ipAddress := clientMeta(c)
	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken, userAgent, ipAddress)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, pair)
}

// Logout обрабатывает POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.RefreshRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.AbortWithError(c, err)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "сессия закрыта")
}

// Sessions обрабатывает GET /api/auth/sessions.
func (h *AuthHandler) Sessions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	sessions, err := h.auth.Sessions(c.Request.Context(), userID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, sessions)
}

// RevokeSession обрабатывает DELETE /api/auth/sessions/:id.
func (h *AuthHandler) RevokeSession(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	sessionID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	if err := h.auth.RevokeSession(c.Request.Context(), userID, sessionID); err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "сессия закрыта")
}

// RevokeOtherSessions обрабатывает DELETE /api/auth/sessions.
func (h *AuthHandler) RevokeOtherSessions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.RefreshRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.AbortWithError(c, err)
		return
	}

	if err := h.auth.RevokeOtherSessions(c.Request.Context(), userID, req.RefreshToken); err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "остальные сессии закрыты")
}
