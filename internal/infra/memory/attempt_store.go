package memory

import (
	"context"
	"sync"

	"studypal-quiz-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.SnapshotStore. Used as
// the fallback when Redis is not configured; attempts then survive for the
// process lifetime only.
type AttemptStore struct {
	mu    sync.RWMutex
	snaps map[string]domain.AttemptSnapshot
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{snaps: make(map[string]domain.AttemptSnapshot)}
}

func (s *AttemptStore) Save(_ context.Context, snap domain.AttemptSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.Topic] = snap
	return nil
}

func (s *AttemptStore) Load(_ context.Context, topic string) (domain.AttemptSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snaps[topic]
	return snap, ok, nil
}

func (s *AttemptStore) Clear(_ context.Context, topic string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, topic)
	return nil
}
