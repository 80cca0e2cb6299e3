package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"studypal-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// AttemptStore is a Redis-backed implementation of app.SnapshotStore. One
// JSON value per topic under attempt:{topic}; the TTL bounds how long an
// abandoned run stays resumable.
type AttemptStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAttemptStore(client *redis.Client, ttl time.Duration) *AttemptStore {
	return &AttemptStore{client: client, ttl: ttl}
}

func (s *AttemptStore) Save(ctx context.Context, snap domain.AttemptSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal attempt snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(snap.Topic), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save attempt snapshot: %w", err)
	}
	return nil
}

func (s *AttemptStore) Load(ctx context.Context, topic string) (domain.AttemptSnapshot, bool, error) {
	data, err := s.client.Get(ctx, s.key(topic)).Bytes()
	if err == redis.Nil {
		return domain.AttemptSnapshot{}, false, nil
	}
	if err != nil {
		return domain.AttemptSnapshot{}, false, fmt.Errorf("load attempt snapshot: %w", err)
	}
	var snap domain.AttemptSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return domain.AttemptSnapshot{}, false, fmt.Errorf("unmarshal attempt snapshot: %w", err)
	}
	return snap, true, nil
}

func (s *AttemptStore) Clear(ctx context.Context, topic string) error {
	if err := s.client.Del(ctx, s.key(topic)).Err(); err != nil {
		return fmt.Errorf("clear attempt snapshot: %w", err)
	}
	return nil
}

func (s *AttemptStore) key(topic string) string {
	return "attempt:" + topic
}
