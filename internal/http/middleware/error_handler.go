package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/hustlehub/backend/internal/dto"
	"github.com/hustlehub/backend/internal/logger"
	"github.com/hustlehub/backend/internal/pkg/apperror"
)

// ErrorHandler обрабатывает ошибки централизованно: AppError превращается
// в ответ-конверт с кодом из таксономии, всё остальное маскируется как
// внутренняя ошибка.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err

		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			appErr = apperror.Wrap(err, apperror.ErrCodeInternal, "внутренняя ошибка сервера")
		}

		if logger.Log != nil {
			entry := logger.Log.WithFields(logrus.Fields{
				"code":   appErr.Code,
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			})
			if appErr.HTTPStatus >= http.StatusInternalServerError {
				entry.WithError(err).Error("request failed")
			} else {
				entry.Debug("request rejected")
			}
		}

		c.JSON(appErr.HTTPStatus, dto.Envelope{
			Success: false,
			Message: appErr.Message,
			Errors: []dto.ErrorDetail{{
				Code:    string(appErr.Code),
				Message: appErr.Message,
			}},
		})
	}
}
