package domain

// NoAnswer marks a question slot that was never answered (skipped or timed out).
const NoAnswer = -1

// PassThreshold is the score (percent) required to unlock further topics.
const PassThreshold = 70

// Question is a single multiple-choice question generated for a topic.
// Content is produced upstream (AI pipeline) and treated as read-only here;
// callers are responsible for handing over well-formed questions.
type Question struct {
	ID            string   `json:"id"`
	Text          string   `json:"text"`
	Options       []string `json:"options"` // exactly 4 choices
	CorrectAnswer int      `json:"correctAnswerIndex"`
	Explanation   string   `json:"explanation"`
	SourcePage    int      `json:"sourcePage,omitempty"`
	SourceContext string   `json:"sourceContext,omitempty"`
}

// Settings is the immutable configuration for one quiz run.
type Settings struct {
	QuestionCount   int `json:"questionCount"`   // 10 - 100
	TimePerQuestion int `json:"timePerQuestion"` // 10 - 60 seconds
	TotalTimeLimit  int `json:"totalTimeLimit"`  // minutes, 0 for unlimited, else 10 - 90
}

// Validate checks the documented ranges. The quiz core assumes settings are
// valid; this is for the transport layer to reject bad input early.
func (s Settings) Validate() error {
	if s.QuestionCount < 10 || s.QuestionCount > 100 {
		return ErrInvalidSettings
	}
	if s.TimePerQuestion < 10 || s.TimePerQuestion > 60 {
		return ErrInvalidSettings
	}
	if s.TotalTimeLimit != 0 && (s.TotalTimeLimit < 10 || s.TotalTimeLimit > 90) {
		return ErrInvalidSettings
	}
	return nil
}

// AttemptSnapshot is the durable record of an in-progress attempt, keyed by
// topic. It holds exactly what resume needs: the per-question countdown is
// per-visit and deliberately not part of the snapshot.
type AttemptSnapshot struct {
	Topic            string `json:"topic"`
	CurrentIndex     int    `json:"currentIndex"`
	Answers          []int  `json:"answers"` // NoAnswer for unset slots
	TimeTaken        []int  `json:"timeTakenPerQuestion"`
	TotalTimeElapsed int    `json:"totalTimeElapsed"`
}

// AttemptView is the client-facing projection of a live attempt.
type AttemptView struct {
	Topic            string `json:"topic"`
	CurrentIndex     int    `json:"currentIndex"`
	QuestionCount    int    `json:"questionCount"`
	TimeLeft         int    `json:"timeLeft"`
	TotalTimeElapsed int    `json:"totalTimeElapsed"`
	Answers          []int  `json:"answers"`
	Submitted        bool   `json:"submitted"`
}

// Result is the scored outcome for one question, derived once at submission.
type Result struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer int    `json:"selectedAnswerIndex"` // NoAnswer if skipped
	IsCorrect      bool   `json:"isCorrect"`
	TimeTaken      int    `json:"timeTaken"`
}

// Summary is the full outcome of a submitted attempt.
type Summary struct {
	Topic   string   `json:"topic"`
	Results []Result `json:"results"`
	Score   int      `json:"score"` // rounded percentage
	Passed  bool     `json:"passed"`
}

// TopicStatus tracks unlock state for one topic across quiz runs.
// BestScore is nil until the topic has been attempted at least once.
type TopicStatus struct {
	Name      string `json:"name"`
	Locked    bool   `json:"isLocked"`
	BestScore *int   `json:"bestScore,omitempty"`
}
