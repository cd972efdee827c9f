package app

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"warbler/internal/model"
	"warbler/internal/repository"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrMessageEmpty    = errors.New("message text is empty")
	ErrMessageTooLong  = errors.New("message text exceeds 140 characters")

	// ErrNotOwner marks an ownership mismatch; handlers fold it into the
	// same unauthorized outcome as a missing login.
	ErrNotOwner = errors.New("message owned by another user")
	ErrOwnLike  = errors.New("cannot like own message")
)

// TimelineCache holds rendered-timeline message lists keyed by viewer.
type TimelineCache interface {
	Get(ctx context.Context, userID uint) ([]model.Message, bool, error)
	Set(ctx context.Context, userID uint, messages []model.Message) error
	Invalidate(ctx context.Context, userIDs ...uint) error
}

type MessageService struct {
	messageRepo *repository.MessageRepository
	followRepo  *repository.FollowRepository
	likeRepo    *repository.LikeRepository
	cache       TimelineCache
	publisher   EventPublisher
}

func NewMessageService(
	messageRepo *repository.MessageRepository,
	followRepo *repository.FollowRepository,
	likeRepo *repository.LikeRepository,
	cache TimelineCache,
	publisher EventPublisher,
) *MessageService {
	return &MessageService{
		messageRepo: messageRepo,
		followRepo:  followRepo,
		likeRepo:    likeRepo,
		cache:       cache,
		publisher:   publisher,
	}
}

// Post persists a new warble synchronously, then invalidates affected
// timelines and hands the event to the async pipeline best-effort.
func (s *MessageService) Post(userID uint, text string) (*model.Message, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrMessageEmpty
	}
	if len([]rune(text)) > model.MaxMessageLength {
		return nil, ErrMessageTooLong
	}

	message := &model.Message{Text: text, UserID: userID}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, err
	}

	ctx := context.Background()
	s.invalidateTimelines(ctx, userID)

	if s.publisher != nil {
		event := Event{Kind: EventWarble, ActorID: userID, MessageID: message.ID}
		if err := s.publisher.Publish(ctx, event); err != nil {
			logrus.WithError(err).Warn("publish warble event failed")
		}
	}
	return message, nil
}

func (s *MessageService) Get(id uint) (*model.Message, error) {
	if id == 0 {
		return nil, ErrInvalidInput
	}
	message, err := s.messageRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if message == nil {
		return nil, ErrMessageNotFound
	}
	return message, nil
}

// Timeline returns the newest warbles by the viewer and everyone the
// viewer follows.
func (s *MessageService) Timeline(viewerID uint, limit int) ([]model.Message, error) {
	if viewerID == 0 {
		return nil, ErrInvalidInput
	}

	ctx := context.Background()
	if s.cache != nil {
		if cached, hit, err := s.cache.Get(ctx, viewerID); err == nil && hit {
			return cached, nil
		}
	}

	followingIDs, err := s.followRepo.FollowingIDs(viewerID)
	if err != nil {
		return nil, err
	}
	messages, err := s.messageRepo.ListByUserIDs(append(followingIDs, viewerID), limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, viewerID, messages); err != nil {
			logrus.WithError(err).Warn("set timeline cache failed")
		}
	}
	return messages, nil
}

func (s *MessageService) Recent(limit int) ([]model.Message, error) {
	return s.messageRepo.ListRecent(limit)
}

func (s *MessageService) ListByUser(userID uint, limit int) ([]model.Message, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.messageRepo.ListByUserID(userID, limit)
}

func (s *MessageService) CountByUser(userID uint) (int64, error) {
	return s.messageRepo.CountByUserID(userID)
}

// Delete removes a message, but only for its owner.
func (s *MessageService) Delete(actorID, messageID uint) error {
	if actorID == 0 || messageID == 0 {
		return ErrInvalidInput
	}

	message, err := s.messageRepo.GetByID(messageID)
	if err != nil {
		return err
	}
	if message == nil {
		return ErrMessageNotFound
	}
	if message.UserID != actorID {
		return ErrNotOwner
	}

	if err := s.messageRepo.Delete(messageID); err != nil {
		return err
	}
	s.invalidateTimelines(context.Background(), message.UserID)
	return nil
}

// ToggleLike likes the message, or unlikes it when already liked.
// Reports whether the message ends up liked.
func (s *MessageService) ToggleLike(actorID, messageID uint) (bool, error) {
	if actorID == 0 || messageID == 0 {
		return false, ErrInvalidInput
	}

	message, err := s.messageRepo.GetByID(messageID)
	if err != nil {
		return false, err
	}
	if message == nil {
		return false, ErrMessageNotFound
	}
	if message.UserID == actorID {
		return false, ErrOwnLike
	}

	liked, err := s.likeRepo.Exists(actorID, messageID)
	if err != nil {
		return false, err
	}
	if liked {
		return false, s.likeRepo.Delete(actorID, messageID)
	}
	return true, s.likeRepo.Create(actorID, messageID)
}

// Likes lists the messages userID has liked.
func (s *MessageService) Likes(userID uint) ([]model.Message, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.likeRepo.ListMessages(userID, 100)
}

// invalidateTimelines drops the author's cached timeline along with every
// follower's, since their timelines include the author's warbles.
func (s *MessageService) invalidateTimelines(ctx context.Context, authorID uint) {
	if s.cache == nil {
		return
	}
	followerIDs, err := s.followRepo.FollowerIDs(authorID)
	if err != nil {
		logrus.WithError(err).Warn("list followers for cache invalidation failed")
		followerIDs = nil
	}
	if err := s.cache.Invalidate(ctx, append(followerIDs, authorID)...); err != nil {
		logrus.WithError(err).Warn("invalidate timeline cache failed")
	}
}
