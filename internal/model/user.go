package model

import "time"

// DefaultImageURL is used when a signup does not provide a profile image.
const DefaultImageURL = "/static/images/default-pic.png"

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"size:64;not null;uniqueIndex" json:"username"`
	Email        string    `gorm:"size:128;not null;uniqueIndex" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	ImageURL     string    `gorm:"size:255" json:"image_url"`
	Bio          string    `gorm:"size:255" json:"bio"`
	Location     string    `gorm:"size:64" json:"location"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
