package app_test

import (
	"fmt"
	"testing"

	"studypal-quiz-service/internal/app"
	"studypal-quiz-service/internal/domain"
)

func testQuestions(n int) []domain.Question {
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Text:          fmt.Sprintf("Question %d", i+1),
			Options:       []string{"A", "B", "C", "D"},
			CorrectAnswer: i % 4,
			Explanation:   "because",
		}
	}
	return questions
}

func TestSelectOverwritesWithoutAdvancing(t *testing.T) {
	a := app.NewAttempt("algebra", testQuestions(3), domain.Settings{QuestionCount: 3, TimePerQuestion: 30})

	view := a.Select(1)
	if view.CurrentIndex != 0 || view.Answers[0] != 1 {
		t.Fatalf("expected answer 1 at index 0, got %+v", view)
	}

	view = a.Select(2)
	if view.Answers[0] != 2 {
		t.Fatalf("expected reselect to overwrite, got %d", view.Answers[0])
	}

	// Selecting the same option again changes nothing.
	view = a.Select(2)
	if view.Answers[0] != 2 || view.CurrentIndex != 0 {
		t.Fatalf("expected idempotent select, got %+v", view)
	}
}

func TestSelectIgnoresOutOfRangeOption(t *testing.T) {
	a := app.NewAttempt("algebra", testQuestions(2), domain.Settings{QuestionCount: 2, TimePerQuestion: 30})

	view := a.Select(4)
	if view.Answers[0] != domain.NoAnswer {
		t.Fatalf("expected out-of-range option ignored, got %d", view.Answers[0])
	}
	view = a.Select(-1)
	if view.Answers[0] != domain.NoAnswer {
		t.Fatalf("expected negative option ignored, got %d", view.Answers[0])
	}
}

func TestNavigationResetsCountdownAndPreservesAnswers(t *testing.T) {
	a := app.NewAttempt("algebra", testQuestions(3), domain.Settings{QuestionCount: 3, TimePerQuestion: 30})

	a.Select(2)
	a.Tick()
	a.Tick()
	view := a.Advance()
	if view.CurrentIndex != 1 {
		t.Fatalf("expected index 1, got %d", view.CurrentIndex)
	}
	if view.TimeLeft != 30 {
		t.Fatalf("expected countdown reset to 30, got %d", view.TimeLeft)
	}

	view = a.Retreat()
	if view.CurrentIndex != 0 || view.Answers[0] != 2 {
		t.Fatalf("expected answer preserved across navigation, got %+v", view)
	}
	if view.TimeLeft != 30 {
		t.Fatalf("expected countdown reset on retreat, got %d", view.TimeLeft)
	}

	// Retreat at index 0 is a no-op.
	view = a.Retreat()
	if view.CurrentIndex != 0 {
		t.Fatalf("expected retreat at 0 ignored, got index %d", view.CurrentIndex)
	}
}

func TestTimeAccumulatesAcrossVisits(t *testing.T) {
	a := app.NewAttempt("algebra", testQuestions(3), domain.Settings{QuestionCount: 3, TimePerQuestion: 30})

	for i := 0; i < 3; i++ {
		a.Tick()
	}
	a.Advance()
	for i := 0; i < 2; i++ {
		a.Tick()
	}
	a.Retreat()
	for i := 0; i < 2; i++ {
		a.Tick()
	}

	snap := a.Snapshot()
	if snap.TimeTaken[0] != 5 {
		t.Fatalf("expected 3+2 seconds accumulated on question 0, got %d", snap.TimeTaken[0])
	}
	if snap.TimeTaken[1] != 2 {
		t.Fatalf("expected 2 seconds on question 1, got %d", snap.TimeTaken[1])
	}
	if snap.TotalTimeElapsed != 7 {
		t.Fatalf("expected session clock at 7, got %d", snap.TotalTimeElapsed)
	}
}

func TestCountdownExpiryAutoAdvances(t *testing.T) {
	a := app.NewAttempt("algebra", testQuestions(2), domain.Settings{QuestionCount: 2, TimePerQuestion: 3})

	a.Tick()
	a.Tick()
	view := a.Tick()
	if view.CurrentIndex != 1 {
		t.Fatalf("expected auto-advance on expiry, got index %d", view.CurrentIndex)
	}
	if view.TimeLeft != 3 {
		t.Fatalf("expected fresh countdown after expiry, got %d", view.TimeLeft)
	}
	if view.Answers[0] != domain.NoAnswer {
		t.Fatalf("expected timed-out question left unanswered, got %d", view.Answers[0])
	}

	// Expiry on the last question submits.
	a.Tick()
	a.Tick()
	view = a.Tick()
	if !view.Submitted {
		t.Fatalf("expected submission on last-question expiry, got %+v", view)
	}
}

func TestGlobalTimeLimitPrecedence(t *testing.T) {
	a := app.NewAttempt("algebra", testQuestions(10), domain.Settings{QuestionCount: 10, TimePerQuestion: 60, TotalTimeLimit: 1})

	for i := 0; i < 30; i++ {
		a.Tick()
	}
	view := a.Advance()
	if view.Submitted || view.CurrentIndex != 1 {
		t.Fatalf("expected normal advance under the limit, got %+v", view)
	}

	for i := 0; i < 30; i++ {
		a.Tick()
	}
	// 60 seconds elapsed on question 2 of 10: the next advance submits.
	view = a.Advance()
	if !view.Submitted {
		t.Fatalf("expected global limit to force submission, got %+v", view)
	}
}

func TestSubmitOnlyOnLastQuestion(t *testing.T) {
	a := app.NewAttempt("algebra", testQuestions(3), domain.Settings{QuestionCount: 3, TimePerQuestion: 30})

	view := a.Submit()
	if view.Submitted {
		t.Fatalf("expected submit ignored before the last question")
	}

	a.Advance()
	a.Advance()
	view = a.Submit()
	if !view.Submitted {
		t.Fatalf("expected submit on last question, got %+v", view)
	}
}

func TestSubmittedIsAbsorbing(t *testing.T) {
	a := app.NewAttempt("algebra", testQuestions(2), domain.Settings{QuestionCount: 2, TimePerQuestion: 30})
	a.Select(1)
	a.Advance()
	a.Advance()
	if !a.Submitted() {
		t.Fatalf("expected submitted state")
	}
	before := a.Summarize()

	a.Select(3)
	a.Advance()
	a.Retreat()
	a.Tick()
	a.Submit()

	after := a.Summarize()
	if fmt.Sprint(before) != fmt.Sprint(after) {
		t.Fatalf("expected captured results unchanged after submission: %+v vs %+v", before, after)
	}
}

func TestScoringWithSkippedQuestion(t *testing.T) {
	questions := testQuestions(3) // correct answers 0, 1, 2
	a := app.NewAttempt("algebra", questions, domain.Settings{QuestionCount: 3, TimePerQuestion: 30})

	a.Select(0)
	a.Advance()
	a.Advance() // question 2 left unanswered
	a.Select(2)
	a.Advance()

	summary := a.Summarize()
	want := []domain.Result{
		{QuestionID: "q1", SelectedAnswer: 0, IsCorrect: true},
		{QuestionID: "q2", SelectedAnswer: domain.NoAnswer, IsCorrect: false},
		{QuestionID: "q3", SelectedAnswer: 2, IsCorrect: true},
	}
	for i, w := range want {
		got := summary.Results[i]
		if got.QuestionID != w.QuestionID || got.SelectedAnswer != w.SelectedAnswer || got.IsCorrect != w.IsCorrect {
			t.Fatalf("result %d: expected %+v, got %+v", i, w, got)
		}
	}
	if summary.Score != 67 {
		t.Fatalf("expected round(200/3) = 67, got %d", summary.Score)
	}
	if summary.Passed {
		t.Fatalf("expected 67 to fail the 70%% threshold")
	}
}

func TestViewInvariants(t *testing.T) {
	a := app.NewAttempt("algebra", testQuestions(5), domain.Settings{QuestionCount: 5, TimePerQuestion: 10})

	transitions := []func() domain.AttemptView{
		func() domain.AttemptView { return a.Select(1) },
		a.Advance, a.Retreat, a.Tick, a.Advance, a.Advance, a.Tick, a.Advance, a.Advance, a.Submit,
	}
	for i, transition := range transitions {
		view := transition()
		if view.CurrentIndex < 0 || view.CurrentIndex >= view.QuestionCount {
			t.Fatalf("transition %d: index %d out of range", i, view.CurrentIndex)
		}
		if len(view.Answers) != view.QuestionCount {
			t.Fatalf("transition %d: answers length %d != %d", i, len(view.Answers), view.QuestionCount)
		}
		if view.TimeLeft < 0 {
			t.Fatalf("transition %d: negative countdown %d", i, view.TimeLeft)
		}
	}
}

func TestResumeRestoresProgress(t *testing.T) {
	questions := testQuestions(5)
	settings := domain.Settings{QuestionCount: 5, TimePerQuestion: 20}
	a := app.NewAttempt("topic-x", questions, settings)
	a.Select(3)
	a.Tick()
	a.Advance()
	snap := a.Snapshot()

	resumed := app.ResumeAttempt("topic-x", questions, settings, snap)
	view := resumed.View()
	if view.CurrentIndex != 1 {
		t.Fatalf("expected resume at index 1, got %d", view.CurrentIndex)
	}
	if view.Answers[0] != 3 {
		t.Fatalf("expected answer 0 preserved, got %d", view.Answers[0])
	}
	for i := 1; i < 5; i++ {
		if view.Answers[i] != domain.NoAnswer {
			t.Fatalf("expected answer %d unset, got %d", i, view.Answers[i])
		}
	}
	if view.TotalTimeElapsed != 1 {
		t.Fatalf("expected session clock restored, got %d", view.TotalTimeElapsed)
	}
	if view.TimeLeft != 20 {
		t.Fatalf("expected fresh countdown on resume, got %d", view.TimeLeft)
	}
}

func TestResumeIgnoresMismatchedSnapshot(t *testing.T) {
	questions := testQuestions(5)
	settings := domain.Settings{QuestionCount: 5, TimePerQuestion: 20}
	snap := domain.AttemptSnapshot{
		Topic:        "topic-x",
		CurrentIndex: 2,
		Answers:      []int{1, 2}, // stale record from a 2-question run
		TimeTaken:    []int{4, 4},
	}

	view := app.ResumeAttempt("topic-x", questions, settings, snap).View()
	if view.CurrentIndex != 0 || view.TotalTimeElapsed != 0 {
		t.Fatalf("expected fresh start for mismatched snapshot, got %+v", view)
	}
}
