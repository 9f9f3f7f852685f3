package dto

import "github.com/hustlehub/backend/internal/models"

// Envelope описывает единый формат ответа API.
// Успех: {"success": true, "data": ...}; ошибка: {"success": false,
// "message": "...", "errors": [{"code": "...", "message": "..."}]}.
type Envelope struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Data    interface{}   `json:"data,omitempty"`
	Errors  []ErrorDetail `json:"errors,omitempty"`
}

// ErrorDetail описывает элемент списка ошибок в конверте.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PageMeta содержит метаданные пагинации.
type PageMeta struct {
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// TaskListResponse содержит страницу задач.
type TaskListResponse struct {
	Tasks []models.Task `json:"tasks"`
	Meta  PageMeta      `json:"meta"`
}

// MyTasksResponse содержит задачи пользователя по ролям.
type MyTasksResponse struct {
	Posted   []models.Task `json:"posted"`
	Assigned []models.Task `json:"assigned"`
}

// AssignResponse содержит результат назначения исполнителя.
type AssignResponse struct {
	Task *models.Task `json:"task"`
	Chat *models.Chat `json:"chat"`
}

// MessageListResponse содержит страницу сообщений чата.
type MessageListResponse struct {
	Messages []models.Message `json:"messages"`
	Meta     PageMeta         `json:"meta"`
}

// NotificationListResponse содержит уведомления с числом непрочитанных.
type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	UnreadCount   int                   `json:"unread_count"`
}

// AuthResponse содержит пользователя с парой токенов.
type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// MediaUploadResponse содержит результат загрузки файла.
type MediaUploadResponse struct {
	URL string `json:"url"`
}

// HealthResponse описывает состояние сервиса.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
