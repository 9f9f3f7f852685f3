package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidState      ErrorCode = "INVALID_STATE"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeDuplicateEntry    ErrorCode = "DUPLICATE_ENTRY"
	ErrCodeConsistency       ErrorCode = "CONSISTENCY_ERROR"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeUpstream          ErrorCode = "UPSTREAM_UNAVAILABLE"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeValidation, ErrCodeInvalidState, ErrCodeInvalidTransition:
		return http.StatusBadRequest
	case ErrCodeDuplicateEntry:
		return http.StatusConflict
	case ErrCodeUpstream:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func Is(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool   { return Is(err, ErrCodeNotFound) }
func IsForbidden(err error) bool  { return Is(err, ErrCodeForbidden) }
func IsValidation(err error) bool { return Is(err, ErrCodeValidation) }

// HTTPStatusFor возвращает статус для произвольной ошибки приложения.
func HTTPStatusFor(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

var (
	ErrTaskNotOpen        = New(ErrCodeInvalidState, "задача уже недоступна для назначения")
	ErrSelfAssignment     = New(ErrCodeValidation, "нельзя взять собственную задачу")
	ErrRoleViolation      = New(ErrCodeForbidden, "роль пользователя не позволяет выполнять задачи")
	ErrNotParticipant     = New(ErrCodeForbidden, "вы не участник этой задачи")
	ErrNotChatMember      = New(ErrCodeForbidden, "вы не участник этого чата")
	ErrBadTransition      = New(ErrCodeInvalidTransition, "недопустимый переход статуса")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrAlreadyReviewed    = New(ErrCodeDuplicateEntry, "вы уже оставили отзыв на эту задачу")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "неверные учетные данные")
)
