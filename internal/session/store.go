package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// Data is the server-side session state: the authenticated user (0 when
// anonymous), pending flash messages, and the CSRF token bound to the
// session.
type Data struct {
	UserID  uint     `json:"user_id,omitempty"`
	Flashes []string `json:"flashes,omitempty"`
	CSRF    string   `json:"csrf,omitempty"`
}

// Store keeps sessions in Redis with a sliding TTL.
type Store struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewStore(client *redisv9.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

// Create allocates a new session id and persists its initial state.
func (s *Store) Create(ctx context.Context, data *Data) (string, error) {
	sid, err := newSessionID()
	if err != nil {
		return "", err
	}
	if err := s.Save(ctx, sid, data); err != nil {
		return "", err
	}
	return sid, nil
}

// Get loads a session. A missing or expired session returns ok=false.
func (s *Store) Get(ctx context.Context, sid string) (*Data, bool, error) {
	raw, err := s.client.Get(ctx, sessionKey(sid)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get session failed: %w", err)
	}

	var data Data
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, false, fmt.Errorf("unmarshal session failed: %w", err)
	}
	return &data, true, nil
}

func (s *Store) Save(ctx context.Context, sid string, data *Data) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal session failed: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(sid), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session failed: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, sid string) error {
	if err := s.client.Del(ctx, sessionKey(sid)).Err(); err != nil && err != redisv9.Nil {
		return fmt.Errorf("redis delete session failed: %w", err)
	}
	return nil
}

func sessionKey(sid string) string {
	return "session:" + sid
}

func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id failed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
