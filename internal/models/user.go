package models

import (
	"time"

	"github.com/google/uuid"
)

// User описывает пользователя платформы.
// Rating хранит сумму оценок, TotalRating — количество отзывов;
// средний рейтинг всегда считается как Rating/TotalRating.
type User struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	Email          string     `db:"email" json:"email"`
	Username       string     `db:"username" json:"username"`
	PasswordHash   string     `db:"password_hash" json:"-"`
	Role           string     `db:"role" json:"role"`
	DisplayName    string     `db:"display_name" json:"display_name"`
	Bio            *string    `db:"bio" json:"bio,omitempty"`
	Location       *string    `db:"location" json:"location,omitempty"`
	AvatarURL      *string    `db:"avatar_url" json:"avatar_url,omitempty"`
	IsVerified     bool       `db:"is_verified" json:"is_verified"`
	IsActive       bool       `db:"is_active" json:"is_active"`
	Rating         int64      `db:"rating" json:"rating"`
	TotalRating    int        `db:"total_rating" json:"total_rating"`
	TasksCompleted int        `db:"tasks_completed" json:"tasks_completed"`
	TasksPosted    int        `db:"tasks_posted" json:"tasks_posted"`
	TotalEarnings  int64      `db:"total_earnings" json:"total_earnings"`
	LastLoginAt    *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// AverageRating возвращает средний рейтинг пользователя.
func (u *User) AverageRating() float64 {
	if u.TotalRating <= 0 {
		return 0
	}
	return float64(u.Rating) / float64(u.TotalRating)
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Review описывает отзыв одного участника задачи о другом.
// Пара (task_id, reviewer_id) уникальна: один отзыв на задачу от автора.
type Review struct {
	ID         uuid.UUID `db:"id" json:"id"`
	TaskID     uuid.UUID `db:"task_id" json:"task_id"`
	ReviewerID uuid.UUID `db:"reviewer_id" json:"reviewer_id"`
	ReviewedID uuid.UUID `db:"reviewed_id" json:"reviewed_id"`
	Rating     int       `db:"rating" json:"rating"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// PublicProfile содержит публичную часть профиля с агрегатами.
type PublicProfile struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	Role           string    `json:"role"`
	Bio            *string   `json:"bio,omitempty"`
	Location       *string   `json:"location,omitempty"`
	AvatarURL      *string   `json:"avatar_url,omitempty"`
	IsVerified     bool      `json:"is_verified"`
	AverageRating  float64   `json:"average_rating"`
	TotalRating    int       `json:"total_rating"`
	TasksCompleted int       `json:"tasks_completed"`
	TasksPosted    int       `json:"tasks_posted"`
	CreatedAt      time.Time `json:"created_at"`
}

// PublicProfileFromUser собирает публичный профиль из сущности пользователя.
func PublicProfileFromUser(u *User) *PublicProfile {
	return &PublicProfile{
		ID:             u.ID,
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		Role:           u.Role,
		Bio:            u.Bio,
		Location:       u.Location,
		AvatarURL:      u.AvatarURL,
		IsVerified:     u.IsVerified,
		AverageRating:  u.AverageRating(),
		TotalRating:    u.TotalRating,
		TasksCompleted: u.TasksCompleted,
		TasksPosted:    u.TasksPosted,
		CreatedAt:      u.CreatedAt,
	}
}
