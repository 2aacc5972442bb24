package models

import "time"

// TestResult is one graded attempt at a test
type TestResult struct {
	ID             string     `json:"id" db:"id"`
	UserID         string     `json:"userId" db:"user_id"`
	TestID         string     `json:"testId" db:"test_id"`
	Answers        AnswerList `json:"answers" db:"answers"`
	CorrectAnswers int        `json:"correctAnswers" db:"correct_answers"`
	WrongAnswers   int        `json:"wrongAnswers" db:"wrong_answers"`
	SkippedAnswers int        `json:"skippedAnswers" db:"skipped_answers"`
	Score          float64    `json:"score" db:"score"` // Band score 0-9 in 0.5 steps
	IsPassed       bool       `json:"isPassed" db:"is_passed"`
	TimeSpent      int        `json:"timeSpent" db:"time_spent"` // Seconds
	StartedAt      time.Time  `json:"startedAt" db:"started_at"`
	CompletedAt    time.Time  `json:"completedAt" db:"completed_at"`

	// Set by a manual teacher grade
	TeacherFeedback string     `json:"teacherFeedback,omitempty" db:"teacher_feedback"`
	GradedBy        string     `json:"gradedBy,omitempty" db:"graded_by"`
	GradedAt        *time.Time `json:"gradedAt,omitempty" db:"graded_at"`
}

// PendingReview counts answers still waiting for a teacher.
func (r *TestResult) PendingReview() int {
	n := 0
	for _, a := range r.Answers {
		if a.IsCorrect == nil {
			n++
		}
	}
	return n
}
