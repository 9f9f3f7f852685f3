package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hustlehub/backend/internal/dto"
	"github.com/hustlehub/backend/internal/http/middleware"
	"github.com/hustlehub/backend/internal/pkg/apperror"
)

var (
	// ErrUserNotFound возвращается, когда пользователь отсутствует в контексте.
	ErrUserNotFound = errors.New("пользователь не найден в контексте")

	// ErrInvalidUUID возвращается при ошибке разбора UUID.
	ErrInvalidUUID = errors.New("неверный формат UUID")
)

// CurrentUserID извлекает идентификатор пользователя из gin.Context.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return uuid.Nil, ErrUserNotFound
	}

	userID, ok := raw.(uuid.UUID)
	if !ok {
		return uuid.Nil, ErrUserNotFound
	}

	return userID, nil
}

// CurrentUserRole извлекает роль пользователя из gin.Context.
func CurrentUserRole(c *gin.Context) (string, error) {
	raw, exists := c.Get(middleware.ContextRoleKey)
	if !exists {
		return "", ErrUserNotFound
	}

	role, ok := raw.(string)
	if !ok {
		return "", ErrUserNotFound
	}

	return role, nil
}

// ParseUUIDParam разбирает UUID из path-параметра.
func ParseUUIDParam(c *gin.Context, paramName string) (uuid.UUID, error) {
	param := c.Param(paramName)
	if param == "" {
		return uuid.Nil, fmt.Errorf("параметр %s отсутствует", paramName)
	}

	parsed, err := uuid.Parse(param)
	if err != nil {
		return uuid.Nil, ErrInvalidUUID
	}

	return parsed, nil
}

// BindAndValidate привязывает JSON тела запроса.
func BindAndValidate(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil {
		return apperror.New(apperror.ErrCodeValidation, "некорректное тело запроса")
	}
	return nil
}

// RespondData отправляет успешный ответ-конверт с данными.
func RespondData(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, dto.Envelope{Success: true, Data: data})
}

// RespondMessage отправляет успешный ответ-конверт с сообщением.
func RespondMessage(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, dto.Envelope{Success: true, Message: message})
}

// RespondError отправляет ответ-конверт с ошибкой.
func RespondError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.Envelope{
		Success: false,
		Message: message,
		Errors:  []dto.ErrorDetail{{Code: code, Message: message}},
	})
}

// AbortWithError передаёт ошибку централизованному обработчику.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// RespondUnauthorized отправляет 401.
func RespondUnauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "требуется авторизация"
	}
	RespondError(c, http.StatusUnauthorized, string(apperror.ErrCodeUnauthorized), message)
}

// ParseIntQuery читает целочисленный query-параметр с фолбэком.
func ParseIntQuery(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

// ParseInt64Query читает int64 query-параметр; отсутствие даёт nil.
func ParseInt64Query(c *gin.Context, key string) *int64 {
	if v := c.Query(key); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			return &parsed
		}
	}
	return nil
}

// GetPagination извлекает limit и offset из query-параметров.
func GetPagination(c *gin.Context) (limit, offset int) {
	limit = ParseIntQuery(c, "limit", 20)
	offset = ParseIntQuery(c, "offset", 0)
	if limit > 100 {
		limit = 100
	}
	if limit < 1 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return
}
