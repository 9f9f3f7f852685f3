package dto

import "time"

// RegisterRequest описывает регистрацию учётной записи.
type RegisterRequest struct {
	Email       string `json:"email" binding:"required"`
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	Role        string `json:"role" binding:"required"`
	DisplayName string `json:"display_name"`
}

// LoginRequest описывает вход по email и паролю.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest описывает обмен refresh-токена.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateTaskRequest описывает размещение новой задачи.
type CreateTaskRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description" binding:"required"`
	Category    string     `json:"category" binding:"required"`
	Budget      int64      `json:"budget" binding:"required"`
	Priority    string     `json:"priority"`
	DeadlineAt  *time.Time `json:"deadline_at"`
	Address     *string    `json:"address"`
	Latitude    *float64   `json:"latitude"`
	Longitude   *float64   `json:"longitude"`
	ImageURLs   []string   `json:"image_urls"`
}

// UpdateTaskStatusRequest описывает перевод задачи в новый статус.
type UpdateTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SendMessageRequest описывает отправку сообщения в чат.
type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
	Type    string `json:"type"`
}

// UpdateProfileRequest описывает частичное обновление профиля.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Location    *string `json:"location"`
	AvatarURL   *string `json:"avatar_url"`
}

// CreateReviewRequest описывает отзыв по завершённой задаче.
type CreateReviewRequest struct {
	Rating  int     `json:"rating" binding:"required"`
	Comment *string `json:"comment"`
}

// RequestCodeRequest описывает запрос кода подтверждения.
type RequestCodeRequest struct {
	Channel string `json:"channel" binding:"required"`
}

// ConfirmCodeRequest описывает подтверждение кода.
type ConfirmCodeRequest struct {
	Channel string `json:"channel" binding:"required"`
	Code    string `json:"code" binding:"required"`
}
