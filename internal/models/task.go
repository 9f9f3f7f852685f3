package models

import (
	"time"

	"github.com/google/uuid"
)

// Task описывает задачу, размещённую заказчиком.
// Инвариант: status = open тогда и только тогда, когда hustler_id IS NULL.
// Бюджет хранится в минимальных единицах валюты и не меняется после создания.
type Task struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	PosterID    uuid.UUID  `db:"poster_id" json:"poster_id"`
	HustlerID   *uuid.UUID `db:"hustler_id" json:"hustler_id,omitempty"`
	Title       string     `db:"title" json:"title"`
	Description string     `db:"description" json:"description"`
	Category    string     `db:"category" json:"category"`
	Budget      int64      `db:"budget" json:"budget"`
	Status      string     `db:"status" json:"status"`
	Priority    string     `db:"priority" json:"priority"`
	DeadlineAt  *time.Time `db:"deadline_at" json:"deadline_at,omitempty"`
	Address     *string    `db:"address" json:"address,omitempty"`
	Latitude    *float64   `db:"latitude" json:"latitude,omitempty"`
	Longitude   *float64   `db:"longitude" json:"longitude,omitempty"`
	ImageURLs   []string   `db:"-" json:"image_urls,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// IsParticipant проверяет, является ли пользователь стороной задачи.
func (t *Task) IsParticipant(userID uuid.UUID) bool {
	if t.PosterID == userID {
		return true
	}
	return t.HustlerID != nil && *t.HustlerID == userID
}

// IsTerminal сообщает, находится ли задача в терминальном статусе.
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled
}
