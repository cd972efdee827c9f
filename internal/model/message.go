package model

import "time"

// MaxMessageLength matches the 140 character column limit on Text.
const MaxMessageLength = 140

// Message is a single warble. User is the authoring back-reference.
type Message struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"size:140;not null" json:"text"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	CreatedAt time.Time `json:"created_at"`
}
