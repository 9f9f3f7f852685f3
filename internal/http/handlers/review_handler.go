package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hustlehub/backend/internal/dto"
	"github.com/hustlehub/backend/internal/http/handlers/common"
	"github.com/hustlehub/backend/internal/service"
)

// ReviewHandler обслуживает HTTP-маршруты отзывов.
type ReviewHandler struct {
	reviews *service.ReviewService
}

// NewReviewHandler создаёт хэндлер.
func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Create обрабатывает POST /api/tasks/:id/reviews.
func (h *ReviewHandler) Create(c *gin.Context) {
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

	var req dto.CreateReviewRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.AbortWithError(c, err)
		return
	}

	review, err := h.reviews.Create(c.Request.Context(), userID, taskID, req.Rating, req.Comment)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusCreated, review)
}

// CanReview обрабатывает GET /api/tasks/:id/reviews/can.
func (h *ReviewHandler) CanReview(c *gin.Context) {
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

	canReview, err := h.reviews.CanReview(c.Request.Context(), userID, taskID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, gin.H{"can_review": canReview})
}

// ListForTask обрабатывает GET /api/tasks/:id/reviews.
func (h *ReviewHandler) ListForTask(c *gin.Context) {
	taskID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	reviews, err := h.reviews.ListForTask(c.Request.Context(), taskID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, reviews)
}

// ListForUser обрабатывает GET /api/users/:id/reviews.
func (h *ReviewHandler) ListForUser(c *gin.Context) {
	reviewedID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	limit, offset := common.GetPagination(c)
	reviews, err := h.reviews.ListForUser(c.Request.Context(), reviewedID, limit, offset)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, reviews)
}
