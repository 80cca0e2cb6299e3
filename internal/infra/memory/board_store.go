package memory

import (
	"context"
	"sync"

	"studypal-quiz-service/internal/domain"
)

// BoardStore is an in-memory implementation of app.BoardStore.
type BoardStore struct {
	mu    sync.RWMutex
	board []domain.TopicStatus
	set   bool
}

func NewBoardStore() *BoardStore {
	return &BoardStore{}
}

func (s *BoardStore) Save(_ context.Context, board []domain.TopicStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.board = append([]domain.TopicStatus(nil), board...)
	s.set = true
	return nil
}

func (s *BoardStore) Load(_ context.Context) ([]domain.TopicStatus, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.set {
		return nil, false, nil
	}
	return append([]domain.TopicStatus(nil), s.board...), true, nil
}
