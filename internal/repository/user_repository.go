package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"warbler/internal/model"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(user *model.User) error {
	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("create user failed: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by id failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByUsername(username string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by username failed: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("query user by email failed: %w", err)
	}
	return &user, nil
}

// Search lists users whose username contains query, or all users when
// query is empty.
func (r *UserRepository) Search(query string, limit int) ([]model.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	tx := r.db.Order("username ASC").Limit(limit)
	if query != "" {
		tx = tx.Where("username LIKE ?", "%"+query+"%")
	}

	var users []model.User
	if err := tx.Find(&users).Error; err != nil {
		return nil, fmt.Errorf("search users failed: %w", err)
	}
	return users, nil
}

func (r *UserRepository) Update(user *model.User) error {
	if err := r.db.Save(user).Error; err != nil {
		return fmt.Errorf("update user failed: %w", err)
	}
	return nil
}

// Delete removes the user together with their messages, follow edges in
// both directions, likes, and notifications, in one transaction.
func (r *UserRepository) Delete(id uint) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var messageIDs []uint
		if err := tx.Model(&model.Message{}).Where("user_id = ?", id).Pluck("id", &messageIDs).Error; err != nil {
			return err
		}
		if len(messageIDs) > 0 {
			if err := tx.Where("message_id IN ?", messageIDs).Delete(&model.Like{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&model.Message{}).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR followed_id = ?", id, id).Delete(&model.Follow{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR actor_id = ?", id, id).Delete(&model.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.User{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("delete user failed: %w", err)
	}
	return nil
}
