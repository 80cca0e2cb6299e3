package app

import (
	"math"
	"sync"

	"studypal-quiz-service/internal/domain"
)

// Attempt is the state machine for one quiz run on a single topic. It holds
// the current question index, captured answers, per-question and global
// timing, and a terminal submitted flag. Transitions that are invalid for the
// current state (retreat at index 0, anything after submission) are silent
// no-ops: redundant UI events and stale ticks must never fault the quiz.
type Attempt struct {
	topic     string
	questions []domain.Question
	settings  domain.Settings

	mu           sync.Mutex
	index        int
	answers      []int
	timeTaken    []int
	totalElapsed int
	timeLeft     int
	submitted    bool
	subscribers  map[chan domain.AttemptView]struct{}
}

// NewAttempt starts a fresh run: all answers unset, all counters zero.
func NewAttempt(topic string, questions []domain.Question, settings domain.Settings) *Attempt {
	answers := make([]int, len(questions))
	for i := range answers {
		answers[i] = domain.NoAnswer
	}
	return &Attempt{
		topic:       topic,
		questions:   questions,
		settings:    settings,
		answers:     answers,
		timeTaken:   make([]int, len(questions)),
		timeLeft:    settings.TimePerQuestion,
		subscribers: make(map[chan domain.AttemptView]struct{}),
	}
}

// ResumeAttempt restores a run from a saved snapshot. A snapshot whose shape
// does not match the question set (stale record from an earlier generation)
// is ignored and the run starts fresh. The per-question countdown always
// restarts at the full budget; only the accumulated times are durable.
func ResumeAttempt(topic string, questions []domain.Question, settings domain.Settings, snap domain.AttemptSnapshot) *Attempt {
	a := NewAttempt(topic, questions, settings)
	n := len(questions)
	if len(snap.Answers) != n || len(snap.TimeTaken) != n {
		return a
	}
	if snap.CurrentIndex < 0 || snap.CurrentIndex >= n {
		return a
	}
	a.index = snap.CurrentIndex
	copy(a.answers, snap.Answers)
	copy(a.timeTaken, snap.TimeTaken)
	a.totalElapsed = snap.TotalTimeElapsed
	return a
}

// Select records an answer for the current question. It never advances and
// may be called repeatedly to change the selection.
func (a *Attempt) Select(option int) domain.AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.submitted {
		return a.viewLocked()
	}
	if option < 0 || option >= len(a.questions[a.index].Options) {
		return a.viewLocked()
	}
	a.answers[a.index] = option
	a.broadcastLocked()
	return a.viewLocked()
}

// Advance moves to the next question, or submits from the last one. When a
// global time limit is set and already exhausted it submits immediately,
// regardless of position.
func (a *Attempt) Advance() domain.AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.submitted {
		return a.viewLocked()
	}
	a.advanceLocked()
	if !a.submitted {
		a.broadcastLocked()
	}
	return a.viewLocked()
}

// Retreat moves back one question. Answers and accumulated time for both the
// question being left and the one re-entered are preserved; the countdown
// restarts at the full per-question budget.
func (a *Attempt) Retreat() domain.AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.submitted || a.index == 0 {
		return a.viewLocked()
	}
	a.index--
	a.timeLeft = a.settings.TimePerQuestion
	a.broadcastLocked()
	return a.viewLocked()
}

// Tick advances the clocks by one second: the session clock and the current
// question's accumulated time always move; the countdown floors at 0 and
// fires the advance transition instead of going negative.
func (a *Attempt) Tick() domain.AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.submitted {
		return a.viewLocked()
	}
	a.totalElapsed++
	a.timeTaken[a.index]++
	if a.timeLeft <= 1 {
		a.timeLeft = 0
		a.advanceLocked()
	} else {
		a.timeLeft--
	}
	if !a.submitted {
		a.broadcastLocked()
	}
	return a.viewLocked()
}

// Submit is the explicit user action on the final question. Anywhere else it
// is a no-op, unless the global time limit has already been exhausted.
func (a *Attempt) Submit() domain.AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.submitted {
		return a.viewLocked()
	}
	overLimit := a.settings.TotalTimeLimit > 0 && a.totalElapsed/60 >= a.settings.TotalTimeLimit
	if a.index == len(a.questions)-1 || overLimit {
		a.finishLocked()
	}
	return a.viewLocked()
}

func (a *Attempt) advanceLocked() {
	if a.settings.TotalTimeLimit > 0 && a.totalElapsed/60 >= a.settings.TotalTimeLimit {
		a.finishLocked()
		return
	}
	if a.index < len(a.questions)-1 {
		a.index++
		a.timeLeft = a.settings.TimePerQuestion
		return
	}
	a.finishLocked()
}

// finishLocked is the one-way transition into the submitted state. The final
// view is not broadcast here: the owning service announces it once the
// summary is available, so subscribers never observe a submitted attempt
// whose results cannot be fetched yet.
func (a *Attempt) finishLocked() {
	a.submitted = true
	a.timeLeft = 0
}

// Submitted reports whether the terminal state has been reached.
func (a *Attempt) Submitted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.submitted
}

// View returns the current client-facing projection.
func (a *Attempt) View() domain.AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.viewLocked()
}

// Snapshot returns the durable resume record for the attempt store.
func (a *Attempt) Snapshot() domain.AttemptSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return domain.AttemptSnapshot{
		Topic:            a.topic,
		CurrentIndex:     a.index,
		Answers:          append([]int(nil), a.answers...),
		TimeTaken:        append([]int(nil), a.timeTaken...),
		TotalTimeElapsed: a.totalElapsed,
	}
}

// Summarize scores the captured answers: unanswered slots score as skipped,
// the percentage is rounded to the nearest integer.
func (a *Attempt) Summarize() domain.Summary {
	a.mu.Lock()
	defer a.mu.Unlock()

	results := make([]domain.Result, len(a.questions))
	correct := 0
	for i, q := range a.questions {
		selected := a.answers[i]
		isCorrect := selected == q.CorrectAnswer
		if isCorrect {
			correct++
		}
		results[i] = domain.Result{
			QuestionID:     q.ID,
			SelectedAnswer: selected,
			IsCorrect:      isCorrect,
			TimeTaken:      a.timeTaken[i],
		}
	}
	score := int(math.Round(float64(correct) * 100 / float64(len(a.questions))))
	return domain.Summary{
		Topic:   a.topic,
		Results: results,
		Score:   score,
		Passed:  score >= domain.PassThreshold,
	}
}

// Announce broadcasts the current view to all subscribers, including after
// submission.
func (a *Attempt) Announce() domain.AttemptView {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.broadcastLocked()
}

func (a *Attempt) subscribe() (<-chan domain.AttemptView, func()) {
	ch := make(chan domain.AttemptView, 8)

	a.mu.Lock()
	a.subscribers[ch] = struct{}{}
	initial := a.viewLocked()
	a.mu.Unlock()

	ch <- initial

	cancel := func() {
		a.mu.Lock()
		if _, ok := a.subscribers[ch]; ok {
			delete(a.subscribers, ch)
			close(ch)
		}
		a.mu.Unlock()
	}
	return ch, cancel
}

func (a *Attempt) broadcastLocked() domain.AttemptView {
	view := a.viewLocked()
	for ch := range a.subscribers {
		select {
		case ch <- view:
		default:
			// Drop the stale update so a slow client never blocks ticks.
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}

func (a *Attempt) viewLocked() domain.AttemptView {
	return domain.AttemptView{
		Topic:            a.topic,
		CurrentIndex:     a.index,
		QuestionCount:    len(a.questions),
		TimeLeft:         a.timeLeft,
		TotalTimeElapsed: a.totalElapsed,
		Answers:          append([]int(nil), a.answers...),
		Submitted:        a.submitted,
	}
}
