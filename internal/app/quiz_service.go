package app

import (
	"context"
	"log"
	"sync"
	"time"

	"studypal-quiz-service/internal/domain"
)

// QuestionRepository loads the generated question set for a topic
// (from cache/backing store).
type QuestionRepository interface {
	GetQuestions(ctx context.Context, topic string) ([]domain.Question, error)
}

// SnapshotStore persists in-progress attempts so a run survives a reload.
// Storage is best-effort: the service keeps playing in memory when it fails.
type SnapshotStore interface {
	Save(ctx context.Context, snap domain.AttemptSnapshot) error
	Load(ctx context.Context, topic string) (domain.AttemptSnapshot, bool, error)
	Clear(ctx context.Context, topic string) error
}

// BoardStore persists the topic unlock board across quiz runs.
type BoardStore interface {
	Load(ctx context.Context) ([]domain.TopicStatus, bool, error)
	Save(ctx context.Context, board []domain.TopicStatus) error
}

// QuizService contains the quiz progression use cases: starting and resuming
// attempts, applying transitions, scoring on submission, and maintaining the
// topic unlock board. Live attempts are in-process state owned exclusively by
// this service; the snapshot store only ever receives copies.
type QuizService struct {
	questions QuestionRepository
	snapshots SnapshotStore
	boards    BoardStore
	policy    UnlockPolicy
	tick      time.Duration

	mu        sync.Mutex
	attempts  map[string]*run
	board     []domain.TopicStatus
	boardInit bool
	summaries map[string]domain.Summary
}

type run struct {
	attempt *Attempt
	ticker  *Ticker
}

func NewQuizService(questions QuestionRepository, snapshots SnapshotStore, boards BoardStore, policy UnlockPolicy) *QuizService {
	return NewQuizServiceWithTick(questions, snapshots, boards, policy, time.Second)
}

// NewQuizServiceWithTick is test-only for fast deterministic clocks.
func NewQuizServiceWithTick(questions QuestionRepository, snapshots SnapshotStore, boards BoardStore, policy UnlockPolicy, tick time.Duration) *QuizService {
	return &QuizService{
		questions: questions,
		snapshots: snapshots,
		boards:    boards,
		policy:    policy,
		tick:      tick,
		attempts:  make(map[string]*run),
		summaries: make(map[string]domain.Summary),
	}
}

// InitTopics seeds the unlock board from the topic names the analysis step
// extracted. The policy decides which topics start locked.
func (s *QuizService) InitTopics(ctx context.Context, names []string) []domain.TopicStatus {
	board := s.policy.Initial(names)

	s.mu.Lock()
	s.board = board
	s.boardInit = true
	out := cloneBoard(board)
	s.mu.Unlock()

	if err := s.boards.Save(ctx, out); err != nil {
		log.Printf("save topic board: %v", err)
	}
	return out
}

// Topics returns the current unlock board.
func (s *QuizService) Topics(ctx context.Context) []domain.TopicStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadBoardLocked(ctx)
	return cloneBoard(s.board)
}

// StartAttempt begins (or resumes) a quiz run for a topic and arms its
// ticker. A prior in-progress snapshot for the topic is restored; a prior
// live run for the topic has its ticker stopped before the new one starts.
func (s *QuizService) StartAttempt(ctx context.Context, topic string, settings domain.Settings) (domain.AttemptView, error) {
	if err := settings.Validate(); err != nil {
		return domain.AttemptView{}, err
	}

	s.mu.Lock()
	s.loadBoardLocked(ctx)
	if idx := topicIndex(s.board, topic); idx >= 0 && s.board[idx].Locked {
		s.mu.Unlock()
		return domain.AttemptView{}, domain.ErrTopicLocked
	}
	s.mu.Unlock()

	questions, err := s.questions.GetQuestions(ctx, topic)
	if err != nil {
		return domain.AttemptView{}, err
	}
	if len(questions) == 0 {
		return domain.AttemptView{}, domain.ErrTopicNotFound
	}
	if len(questions) > settings.QuestionCount {
		questions = questions[:settings.QuestionCount]
	}

	attempt := NewAttempt(topic, questions, settings)
	if snap, ok, err := s.snapshots.Load(ctx, topic); err != nil {
		log.Printf("load attempt snapshot for %q: %v (starting fresh)", topic, err)
	} else if ok {
		attempt = ResumeAttempt(topic, questions, settings, snap)
	}

	r := &run{attempt: attempt, ticker: NewTicker(s.tick)}

	s.mu.Lock()
	if prev, ok := s.attempts[topic]; ok {
		prev.ticker.Stop()
	}
	delete(s.summaries, topic)
	s.attempts[topic] = r
	s.mu.Unlock()

	r.ticker.Start(func() { s.onTick(topic) })
	s.persist(ctx, attempt)
	return attempt.View(), nil
}

// Select records an answer for the current question of a live attempt.
func (s *QuizService) Select(ctx context.Context, topic string, option int) (domain.AttemptView, error) {
	r, err := s.getRun(topic)
	if err != nil {
		return domain.AttemptView{}, err
	}
	view := r.attempt.Select(option)
	s.persist(ctx, r.attempt)
	return view, nil
}

// Advance moves a live attempt to the next question; from the last question
// (or past the global time limit) it submits and returns the summary.
func (s *QuizService) Advance(ctx context.Context, topic string) (domain.AttemptView, *domain.Summary, error) {
	r, err := s.getRun(topic)
	if err != nil {
		return domain.AttemptView{}, nil, err
	}
	view := r.attempt.Advance()
	if view.Submitted {
		summary, _ := s.finalize(ctx, topic, r)
		return view, &summary, nil
	}
	s.persist(ctx, r.attempt)
	return view, nil, nil
}

// Retreat moves a live attempt back one question.
func (s *QuizService) Retreat(ctx context.Context, topic string) (domain.AttemptView, error) {
	r, err := s.getRun(topic)
	if err != nil {
		return domain.AttemptView{}, err
	}
	view := r.attempt.Retreat()
	s.persist(ctx, r.attempt)
	return view, nil
}

// Submit is the explicit submission from the final question.
func (s *QuizService) Submit(ctx context.Context, topic string) (domain.AttemptView, *domain.Summary, error) {
	r, err := s.getRun(topic)
	if err != nil {
		return domain.AttemptView{}, nil, err
	}
	view := r.attempt.Submit()
	if view.Submitted {
		summary, _ := s.finalize(ctx, topic, r)
		return view, &summary, nil
	}
	return view, nil, nil
}

// Subscribe returns a channel receiving attempt views after every transition
// and tick. The caller must invoke the returned cancel function.
func (s *QuizService) Subscribe(topic string) (<-chan domain.AttemptView, func(), error) {
	r, err := s.getRun(topic)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := r.attempt.subscribe()
	return ch, cancel, nil
}

// Results returns the summary of the most recently submitted attempt for the
// topic, if any.
func (s *QuizService) Results(topic string) (domain.Summary, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.summaries[topic]
	return summary, ok
}

// Abandon stops a live attempt's ticker without submitting. The snapshot is
// kept, so the run can be resumed later. Called when the quiz screen goes
// away mid-run.
func (s *QuizService) Abandon(topic string) {
	s.mu.Lock()
	r, ok := s.attempts[topic]
	if ok {
		delete(s.attempts, topic)
	}
	s.mu.Unlock()
	if ok {
		r.ticker.Stop()
	}
}

func (s *QuizService) onTick(topic string) {
	s.mu.Lock()
	r, ok := s.attempts[topic]
	s.mu.Unlock()
	if !ok {
		return
	}

	ctx := context.Background()
	view := r.attempt.Tick()
	if view.Submitted {
		s.finalize(ctx, topic, r)
		return
	}
	s.persist(ctx, r.attempt)
}

// finalize runs exactly once per submitted attempt: it stops the ticker,
// scores the answers, clears the resume record, applies the unlock policy,
// and only then announces the final view to subscribers.
func (s *QuizService) finalize(ctx context.Context, topic string, r *run) (domain.Summary, bool) {
	s.mu.Lock()
	current, ok := s.attempts[topic]
	if !ok || current != r {
		summary, have := s.summaries[topic]
		s.mu.Unlock()
		return summary, have
	}
	delete(s.attempts, topic)
	s.mu.Unlock()

	r.ticker.Stop()
	summary := r.attempt.Summarize()

	s.mu.Lock()
	s.summaries[topic] = summary
	s.loadBoardLocked(ctx)
	s.board = s.policy.Apply(s.board, topic, summary.Score)
	board := cloneBoard(s.board)
	s.mu.Unlock()

	if err := s.snapshots.Clear(ctx, topic); err != nil {
		log.Printf("clear attempt snapshot for %q: %v", topic, err)
	}
	if err := s.boards.Save(ctx, board); err != nil {
		log.Printf("save topic board: %v", err)
	}

	r.attempt.Announce()
	return summary, true
}

func (s *QuizService) getRun(topic string) (*run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.attempts[topic]
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return r, nil
}

func (s *QuizService) persist(ctx context.Context, attempt *Attempt) {
	// best-effort; quiz play continues in memory when persistence is down
	snap := attempt.Snapshot()
	if err := s.snapshots.Save(ctx, snap); err != nil {
		log.Printf("save attempt snapshot for %q: %v", snap.Topic, err)
	}
}

func (s *QuizService) loadBoardLocked(ctx context.Context) {
	if s.boardInit {
		return
	}
	s.boardInit = true
	board, ok, err := s.boards.Load(ctx)
	if err != nil {
		log.Printf("load topic board: %v", err)
		return
	}
	if ok {
		s.board = board
	}
}
