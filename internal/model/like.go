package model

// Like marks a message as liked by a user.
type Like struct {
	UserID    uint `gorm:"primaryKey;autoIncrement:false" json:"user_id"`
	MessageID uint `gorm:"primaryKey;autoIncrement:false" json:"message_id"`
}
