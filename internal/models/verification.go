package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	VerificationChannelEmail = "email"
	VerificationChannelPhone = "phone"
)

// VerificationCode хранит одноразовый код подтверждения в базе,
// а не в памяти процесса: переживает рестарты и работает на нескольких
// инстансах. Attempts ограничивает перебор.
type VerificationCode struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Channel   string    `db:"channel" json:"channel"`
	Code      string    `db:"code" json:"-"`
	Attempts  int       `db:"attempts" json:"attempts"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	Used      bool      `db:"used" json:"used"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Expired сообщает, истёк ли срок действия кода.
func (v *VerificationCode) Expired(now time.Time) bool {
	return now.After(v.ExpiresAt)
}
