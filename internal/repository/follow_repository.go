package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"warbler/internal/model"
)

type FollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

func (r *FollowRepository) Create(followerID, followedID uint) error {
	follow := model.Follow{FollowerID: followerID, FollowedID: followedID}
	if err := r.db.Create(&follow).Error; err != nil {
		return fmt.Errorf("create follow failed: %w", err)
	}
	return nil
}

func (r *FollowRepository) Delete(followerID, followedID uint) error {
	if err := r.db.Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&model.Follow{}).Error; err != nil {
		return fmt.Errorf("delete follow failed: %w", err)
	}
	return nil
}

// Exists is the point lookup behind the is-following predicates: true iff
// a row (followerID -> followedID) is present.
func (r *FollowRepository) Exists(followerID, followedID uint) (bool, error) {
	var follow model.Follow
	err := r.db.Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		First(&follow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("query follow failed: %w", err)
	}
	return true, nil
}

// Following returns the users userID follows, as a materialized slice.
func (r *FollowRepository) Following(userID uint) ([]model.User, error) {
	var users []model.User
	if err := r.db.
		Joins("JOIN follows ON follows.followed_id = users.id").
		Where("follows.follower_id = ?", userID).
		Order("users.username ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list following failed: %w", err)
	}
	return users, nil
}

// Followers returns the users following userID.
func (r *FollowRepository) Followers(userID uint) ([]model.User, error) {
	var users []model.User
	if err := r.db.
		Joins("JOIN follows ON follows.follower_id = users.id").
		Where("follows.followed_id = ?", userID).
		Order("users.username ASC").
		Find(&users).Error; err != nil {
		return nil, fmt.Errorf("list followers failed: %w", err)
	}
	return users, nil
}

// FollowingIDs returns just the followed user ids, for timeline queries.
func (r *FollowRepository) FollowingIDs(userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&model.Follow{}).Where("follower_id = ?", userID).
		Pluck("followed_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list following ids failed: %w", err)
	}
	return ids, nil
}

// FollowerIDs returns the ids of users following userID, for fan-out.
func (r *FollowRepository) FollowerIDs(userID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&model.Follow{}).Where("followed_id = ?", userID).
		Pluck("follower_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list follower ids failed: %w", err)
	}
	return ids, nil
}

func (r *FollowRepository) CountFollowing(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Follow{}).Where("follower_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count following failed: %w", err)
	}
	return count, nil
}

func (r *FollowRepository) CountFollowers(userID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&model.Follow{}).Where("followed_id = ?", userID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count followers failed: %w", err)
	}
	return count, nil
}
