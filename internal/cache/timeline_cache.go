package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"warbler/internal/model"
)

// TimelineCache keeps each viewer's home timeline in Redis for a short
// TTL. Writers invalidate instead of updating.
type TimelineCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewTimelineCache(client *redisv9.Client, ttl time.Duration) *TimelineCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &TimelineCache{client: client, ttl: ttl}
}

func (c *TimelineCache) Get(ctx context.Context, userID uint) ([]model.Message, bool, error) {
	raw, err := c.client.Get(ctx, timelineKey(userID)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get timeline failed: %w", err)
	}

	var messages []model.Message
	if err := json.Unmarshal([]byte(raw), &messages); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached timeline failed: %w", err)
	}
	return messages, true, nil
}

func (c *TimelineCache) Set(ctx context.Context, userID uint, messages []model.Message) error {
	payload, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshal timeline cache failed: %w", err)
	}
	if err := c.client.Set(ctx, timelineKey(userID), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set timeline failed: %w", err)
	}
	return nil
}

func (c *TimelineCache) Invalidate(ctx context.Context, userIDs ...uint) error {
	if len(userIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, timelineKey(id))
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis invalidate timeline failed: %w", err)
	}
	return nil
}

func timelineKey(userID uint) string {
	return fmt.Sprintf("timeline:%d", userID)
}
