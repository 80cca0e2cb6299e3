package domain

import "errors"

var (
	// ErrTopicNotFound indicates the topic has no generated question set.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrTopicLocked is returned when starting an attempt on a locked topic.
	ErrTopicLocked = errors.New("topic is locked")
	// ErrAttemptNotFound is returned when a user acts before starting an attempt.
	ErrAttemptNotFound = errors.New("no active attempt for topic")
	// ErrInvalidSettings indicates quiz settings outside the allowed ranges.
	ErrInvalidSettings = errors.New("invalid quiz settings")
)
