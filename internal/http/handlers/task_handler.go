package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hustlehub/backend/internal/dto"
	"github.com/hustlehub/backend/internal/http/handlers/common"
	"github.com/hustlehub/backend/internal/models"
	"github.com/hustlehub/backend/internal/repository"
	"github.com/hustlehub/backend/internal/service"
)

// TaskHandler обслуживает HTTP-маршруты жизненного цикла задач.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler создаёт хэндлер.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// Create обрабатывает POST /api/tasks.
func (h *TaskHandler) Create(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	var req dto.CreateTaskRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.AbortWithError(c, err)
		return
	}

	task, err := h.tasks.Create(c.Request.Context(), userID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Budget:      req.Budget,
		Priority:    req.Priority,
		DeadlineAt:  req.DeadlineAt,
		Address:     req.Address,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		ImageURLs:   req.ImageURLs,
	})
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusCreated, task)
}

// List обрабатывает GET /api/tasks.
func (h *TaskHandler) List(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	filter := repository.TaskFilter{
		Status:    c.Query("status"),
		Category:  c.Query("category"),
		MinBudget: common.ParseInt64Query(c, "min_budget"),
		MaxBudget: common.ParseInt64Query(c, "max_budget"),
		Limit:     limit,
		Offset:    offset,
	}

	tasks, total, err := h.tasks.List(c.Request.Context(), filter)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, dto.TaskListResponse{
		Tasks: tasks,
		Meta:  dto.PageMeta{Total: total, Limit: limit, Offset: offset},
	})
}

// ListMine обрабатывает GET /api/tasks/my.
func (h *TaskHandler) ListMine(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, "")
		return
	}

	posted, assigned, err := h.tasks.ListMine(c.Request.Context(), userID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, dto.MyTasksResponse{Posted: posted, Assigned: assigned})
}

// Categories обрабатывает GET /api/tasks/categories.
func (h *TaskHandler) Categories(c *gin.Context) {
	categories := make([]string, 0, len(models.ValidCategories))
	for category := range models.ValidCategories {
		categories = append(categories, category)
	}
	common.RespondData(c, http.StatusOK, categories)
}

// Get обрабатывает GET /api/tasks/:id.
func (h *TaskHandler) Get(c *gin.Context) {
	taskID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	task, err := h.tasks.Get(c.Request.Context(), taskID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, task)
}

// Assign обрабатывает PUT /api/tasks/:id/assign — текущий пользователь
// берёт задачу в работу.
func (h *TaskHandler) Assign(c *gin.Context) {
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

	task, chat, err := h.tasks.Assign(c.Request.Context(), taskID, userID)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, dto.AssignResponse{Task: task, Chat: chat})
}

// UpdateStatus обрабатывает PUT /api/tasks/:id/status.
func (h *TaskHandler) UpdateStatus(c *gin.Context) {
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

	var req dto.UpdateTaskStatusRequest
	if err := common.BindAndValidate(c, &req); err != nil {
		common.AbortWithError(c, err)
		return
	}

	task, err := h.tasks.UpdateStatus(c.Request.Context(), taskID, userID, req.Status)
	if err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondData(c, http.StatusOK, task)
}

// Delete обрабатывает DELETE /api/tasks/:id.
func (h *TaskHandler) Delete(c *gin.Context) {
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

	if err := h.tasks.Delete(c.Request.Context(), taskID, userID); err != nil {
		common.AbortWithError(c, err)
		return
	}

	common.RespondMessage(c, http.StatusOK, "задача удалена")
}
