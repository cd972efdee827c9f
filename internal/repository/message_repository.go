package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"warbler/internal/model"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(message *model.Message) error {
	if err := r.db.Create(message).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

func (r *MessageRepository) GetByID(id uint) (*model.Message, error) {
	var message model.Message
	if err := r.db.Preload("User").First(&message, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query message by id failed: %w", err)
	}
	return &message, nil
}

func (r *MessageRepository) ListByUserID(userID uint, limit int) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Preload("User").Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Limit(normalizeLimit(limit)).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages by user failed: %w", err)
	}
	return messages, nil
}

// ListByUserIDs returns the newest messages authored by any of the given
// users; it backs the logged-in home timeline.
func (r *MessageRepository) ListByUserIDs(userIDs []uint, limit int) ([]model.Message, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var messages []model.Message
	if err := r.db.Preload("User").Where("user_id IN ?", userIDs).
		Order("created_at DESC, id DESC").Limit(normalizeLimit(limit)).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list timeline messages failed: %w", err)
	}
	return messages, nil
}

func (r *MessageRepository) ListRecent(limit int) ([]model.Message, error) {
	var messages []model.Message
	if err := r.db.Preload("User").
		Order("created_at DESC, id DESC").Limit(normalizeLimit(limit)).
		Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list recent messages failed: %w", err)
	}
	return messages, nil
}

func (r *MessageRepository) CountByUserID(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Message{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count messages failed: %w", err)
	}
	return count, nil
}

func (r *MessageRepository) Delete(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("message_id = ?", id).Delete(&model.Like{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Message{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("delete message failed: %w", err)
	}
	return nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 100
	}
	return limit
}
