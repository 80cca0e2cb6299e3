package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"studypal-quiz-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

const boardKey = "topics:board"

// BoardStore keeps the topic unlock board as a single JSON value in Redis.
// The board outlives individual attempts; the TTL matches the lifetime of
// the analyzed document.
type BoardStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewBoardStore(client *redis.Client, ttl time.Duration) *BoardStore {
	return &BoardStore{client: client, ttl: ttl}
}

func (s *BoardStore) Save(ctx context.Context, board []domain.TopicStatus) error {
	data, err := json.Marshal(board)
	if err != nil {
		return fmt.Errorf("marshal topic board: %w", err)
	}
	if err := s.client.Set(ctx, boardKey, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save topic board: %w", err)
	}
	return nil
}

func (s *BoardStore) Load(ctx context.Context) ([]domain.TopicStatus, bool, error) {
	data, err := s.client.Get(ctx, boardKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load topic board: %w", err)
	}
	var board []domain.TopicStatus
	if err := json.Unmarshal(data, &board); err != nil {
		return nil, false, fmt.Errorf("unmarshal topic board: %w", err)
	}
	return board, true, nil
}
