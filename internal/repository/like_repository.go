package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"warbler/internal/model"
)

type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

func (r *LikeRepository) Create(userID, messageID uint) error {
	like := model.Like{UserID: userID, MessageID: messageID}
	if err := r.db.Create(&like).Error; err != nil {
		return fmt.Errorf("create like failed: %w", err)
	}
	return nil
}

func (r *LikeRepository) Delete(userID, messageID uint) error {
	if err := r.db.Where("user_id = ? AND message_id = ?", userID, messageID).
		Delete(&model.Like{}).Error; err != nil {
		return fmt.Errorf("delete like failed: %w", err)
	}
	return nil
}

func (r *LikeRepository) Exists(userID, messageID uint) (bool, error) {
	var like model.Like
	err := r.db.Where("user_id = ? AND message_id = ?", userID, messageID).First(&like).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("query like failed: %w", err)
	}
	return true, nil
}

// ListMessages returns the messages userID has liked, newest first.
func (r *LikeRepository) ListMessages(userID uint, limit int) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Preload("User").
		Joins("JOIN likes ON likes.message_id = messages.id").
		Where("likes.user_id = ?", userID).
		Order("messages.created_at DESC, messages.id DESC").
		Limit(normalizeLimit(limit)).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list liked messages failed: %w", err)
	}
	return messages, nil
}
