package app

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"warbler/internal/model"
	"warbler/internal/repository"
)

var ErrUserNotFound = errors.New("user not found")

type UserService struct {
	userRepo   *repository.UserRepository
	followRepo *repository.FollowRepository
	notifRepo  *repository.NotificationRepository
	cache      TimelineCache
	publisher  EventPublisher
}

type UpdateProfileInput struct {
	UserID   uint
	Password string
	Email    string
	ImageURL string
	Bio      string
	Location string
}

func NewUserService(
	userRepo *repository.UserRepository,
	followRepo *repository.FollowRepository,
	notifRepo *repository.NotificationRepository,
	cache TimelineCache,
	publisher EventPublisher,
) *UserService {
	return &UserService{
		userRepo:   userRepo,
		followRepo: followRepo,
		notifRepo:  notifRepo,
		cache:      cache,
		publisher:  publisher,
	}
}

func (s *UserService) Get(id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) List(query string) ([]model.User, error) {
	return s.userRepo.Search(strings.TrimSpace(query), 100)
}

// Follow adds the edge follower -> followed. Adding an edge that already
// exists is a no-op.
func (s *UserService) Follow(followerID, followedID uint) error {
	if followerID == 0 || followedID == 0 {
		return ErrInvalidInput
	}

	followed, err := s.userRepo.GetByID(followedID)
	if err != nil {
		return err
	}
	if followed == nil {
		return ErrUserNotFound
	}

	exists, err := s.followRepo.Exists(followerID, followedID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.followRepo.Create(followerID, followedID); err != nil {
		return err
	}
	s.invalidateTimeline(followerID)

	if s.publisher != nil {
		event := Event{Kind: EventFollow, ActorID: followerID, TargetID: followedID}
		if err := s.publisher.Publish(context.Background(), event); err != nil {
			logrus.WithError(err).Warn("publish follow event failed")
		}
	}
	return nil
}

func (s *UserService) Unfollow(followerID, followedID uint) error {
	if followerID == 0 || followedID == 0 {
		return ErrInvalidInput
	}
	if err := s.followRepo.Delete(followerID, followedID); err != nil {
		return err
	}
	s.invalidateTimeline(followerID)
	return nil
}

// invalidateTimeline drops the follower's cached timeline; its
// composition just changed.
func (s *UserService) invalidateTimeline(userID uint) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.Background(), userID); err != nil {
		logrus.WithError(err).Warn("invalidate timeline cache failed")
	}
}

// IsFollowing reports whether userID follows otherID.
func (s *UserService) IsFollowing(userID, otherID uint) (bool, error) {
	return s.followRepo.Exists(userID, otherID)
}

// IsFollowedBy reports whether otherID follows userID.
func (s *UserService) IsFollowedBy(userID, otherID uint) (bool, error) {
	return s.followRepo.Exists(otherID, userID)
}

func (s *UserService) Following(userID uint) ([]model.User, error) {
	return s.followRepo.Following(userID)
}

func (s *UserService) Followers(userID uint) ([]model.User, error) {
	return s.followRepo.Followers(userID)
}

func (s *UserService) CountFollowing(userID uint) (int64, error) {
	return s.followRepo.CountFollowing(userID)
}

func (s *UserService) CountFollowers(userID uint) (int64, error) {
	return s.followRepo.CountFollowers(userID)
}

// UpdateProfile re-verifies the password before applying any change.
func (s *UserService) UpdateProfile(input UpdateProfileInput) (*model.User, error) {
	user, err := s.Get(input.UserID)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	if email := strings.TrimSpace(strings.ToLower(input.Email)); email != "" && email != user.Email {
		existing, err := s.userRepo.GetByEmail(email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ErrEmailTaken
		}
		user.Email = email
	}
	if imageURL := strings.TrimSpace(input.ImageURL); imageURL != "" {
		user.ImageURL = imageURL
	}
	user.Bio = strings.TrimSpace(input.Bio)
	user.Location = strings.TrimSpace(input.Location)

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Delete(id uint) error {
	if id == 0 {
		return ErrInvalidInput
	}
	return s.userRepo.Delete(id)
}

func (s *UserService) Notifications(userID uint) ([]model.Notification, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.notifRepo.ListByUserID(userID, 100)
}
