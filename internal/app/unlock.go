package app

import "studypal-quiz-service/internal/domain"

// UnlockPolicy decides the initial lock state of the topic board and how a
// finished attempt's score changes it. Two policies shipped in the original
// product at different times; both are kept and chosen by configuration.
// Neither ever re-locks a topic whose best score already cleared the pass
// threshold.
type UnlockPolicy interface {
	Name() string
	Initial(names []string) []domain.TopicStatus
	Apply(board []domain.TopicStatus, topic string, score int) []domain.TopicStatus
}

// PolicyFromName maps a config value to a policy. Unknown values fall back to
// the focus policy, the default.
func PolicyFromName(name string) UnlockPolicy {
	if name == "sequential" {
		return SequentialUnlock{}
	}
	return FocusUnlock{}
}

// SequentialUnlock gates topics strictly in order: only the first topic is
// open at the start, and passing a topic opens the next one.
type SequentialUnlock struct{}

func (SequentialUnlock) Name() string { return "sequential" }

func (SequentialUnlock) Initial(names []string) []domain.TopicStatus {
	board := make([]domain.TopicStatus, len(names))
	for i, name := range names {
		board[i] = domain.TopicStatus{Name: name, Locked: i != 0}
	}
	return board
}

func (SequentialUnlock) Apply(board []domain.TopicStatus, topic string, score int) []domain.TopicStatus {
	next := cloneBoard(board)
	idx := topicIndex(next, topic)
	if idx < 0 {
		return next
	}
	raiseBest(&next[idx], score)
	if score >= domain.PassThreshold && idx+1 < len(next) {
		next[idx+1].Locked = false
	}
	return next
}

// FocusUnlock opens everything at the start and forces remediation after a
// failed attempt: a pass on the current topic's best score unlocks all
// topics, a fail locks every other topic until the current one is passed.
// Topics already passed stay open either way.
type FocusUnlock struct{}

func (FocusUnlock) Name() string { return "focus" }

func (FocusUnlock) Initial(names []string) []domain.TopicStatus {
	board := make([]domain.TopicStatus, len(names))
	for i, name := range names {
		board[i] = domain.TopicStatus{Name: name}
	}
	return board
}

func (FocusUnlock) Apply(board []domain.TopicStatus, topic string, score int) []domain.TopicStatus {
	next := cloneBoard(board)
	idx := topicIndex(next, topic)
	if idx < 0 {
		return next
	}
	best := raiseBest(&next[idx], score)
	if best >= domain.PassThreshold {
		for i := range next {
			next[i].Locked = false
		}
		return next
	}
	for i := range next {
		if i == idx || passed(next[i]) {
			next[i].Locked = false
			continue
		}
		next[i].Locked = true
	}
	return next
}

func cloneBoard(board []domain.TopicStatus) []domain.TopicStatus {
	next := make([]domain.TopicStatus, len(board))
	for i, t := range board {
		next[i] = t
		if t.BestScore != nil {
			best := *t.BestScore
			next[i].BestScore = &best
		}
	}
	return next
}

func topicIndex(board []domain.TopicStatus, topic string) int {
	for i := range board {
		if board[i].Name == topic {
			return i
		}
	}
	return -1
}

// raiseBest updates the recorded best score to max(previous, score) and
// returns the new best.
func raiseBest(t *domain.TopicStatus, score int) int {
	best := score
	if t.BestScore != nil && *t.BestScore > best {
		best = *t.BestScore
	}
	t.BestScore = &best
	return best
}

func passed(t domain.TopicStatus) bool {
	return t.BestScore != nil && *t.BestScore >= domain.PassThreshold
}
