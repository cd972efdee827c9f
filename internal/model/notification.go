package model

import "time"

const (
	NotificationWarble = "warble"
	NotificationFollow = "follow"
)

// Notification is a fan-out record produced by the event worker:
// UserID is the recipient, ActorID the user whose action caused it.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	ActorID   uint      `gorm:"not null" json:"actor_id"`
	MessageID uint      `json:"message_id,omitempty"`
	Kind      string    `gorm:"size:16;not null" json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}
