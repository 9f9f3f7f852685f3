package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hustlehub/backend/internal/dto"
	"github.com/hustlehub/backend/internal/http/handlers/common"
	"github.com/hustlehub/backend/internal/service"
)

// ProfileHandler обслуживает HTTP-маршруты профилей.
type ProfileHandler struct {
	users *service.UserService
}

// NewProfileHandler создаёт хэндлер.
func NewProfileHandler(users *service.UserService) *ProfileHandler {
	return &ProfileHandler{users: users}
}

// Me обрабатывает GET /api/profile — полный профиль текущего пользователя.
func (h *ProfileHandler) Me(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	user, err := h.users.Get(c.Request.Context(), userID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, user)
}

// Update обрабатывает PATCH /api/profile.
func (h *ProfileHandler) Update(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.UpdateProfileRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.AbortWithError(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), userID, service.UpdateProfileInput{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Location:    req.Location,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, user)
}

// PublicProfile обрабатывает GET /api/users/:id — публичный профиль.
func (h *ProfileHandler) PublicProfile(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	profile, err := h.users.PublicProfile(c.Request.Context(), userID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, profile)
}

// PublicProfileByUsername обрабатывает GET /api/users/username/:username.
func (h *ProfileHandler) PublicProfileByUsername(c *gin.Context) {
	profile, err := h.users.PublicProfileByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, profile)
}
