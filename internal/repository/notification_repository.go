package repository

import (
	"fmt"

	"gorm.io/gorm"

	"warbler/internal/model"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) CreateBatch(notifications []model.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	if err := r.db.Create(&notifications).Error; err != nil {
		return fmt.Errorf("create notifications failed: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByUserID(userID uint, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	if err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Limit(normalizeLimit(limit)).
		Find(&notifications).Error; err != nil {
		return nil, fmt.Errorf("list notifications failed: %w", err)
	}
	return notifications, nil
}
