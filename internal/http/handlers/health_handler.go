package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

// HealthHandler проверяет живость сервиса и его зависимостей.
type HealthHandler struct {
	db *sqlx.DB
}

// NewHealthHandler создаёт хэндлер.
func NewHealthHandler(db *sqlx.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health обрабатывает GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	status := "healthy"
	database := "healthy"

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		status = "unhealthy"
		database = "unhealthy: " + err.Error()
	}

	statusCode := http.StatusOK
	if status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, gin.H{
		"status":    status,
		"database":  database,
		"timestamp": time.Now(),
	})
}
