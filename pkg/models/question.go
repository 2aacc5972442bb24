package models

import "database/sql/driver"

// QuestionType identifies how a question is graded
type QuestionType string

const (
	QuestionMultipleChoice    QuestionType = "multiple_choice"
	QuestionTrueFalseNotGiven QuestionType = "true_false_not_given"
	QuestionMatching          QuestionType = "matching"
	QuestionFillInBlank       QuestionType = "fill_in_blank"
	QuestionShortAnswer       QuestionType = "short_answer"
	QuestionEssay             QuestionType = "essay"
	QuestionSpeaking          QuestionType = "speaking"
)

// Subjective reports whether answers to this type wait for manual review.
func (t QuestionType) Subjective() bool {
	return t == QuestionEssay || t == QuestionSpeaking
}

// Valid reports whether t is a known question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionMultipleChoice, QuestionTrueFalseNotGiven, QuestionMatching,
		QuestionFillInBlank, QuestionShortAnswer, QuestionEssay, QuestionSpeaking:
		return true
	}
	return false
}

// Option is one choice of a multiple choice question
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// OptionList is stored as a JSON column
type OptionList []Option

// Value implements driver.Valuer.
func (l OptionList) Value() (driver.Value, error) { return jsonValue(l) }

// Scan implements sql.Scanner.
func (l *OptionList) Scan(src interface{}) error { return scanJSON(src, l) }

// Question belongs to one Test
type Question struct {
	ID            string       `json:"id" db:"id"`
	TestID        string       `json:"testId" db:"test_id"`
	Type          QuestionType `json:"type" db:"type"`
	Prompt        string       `json:"prompt" db:"prompt"`
	Options       OptionList   `json:"options,omitempty" db:"options"`    // multiple_choice only
	CorrectAnswer AnswerValue  `json:"correctAnswer" db:"correct_answer"` // fill_in_blank, short_answer, true_false_not_given, matching
	Points        float64      `json:"points" db:"points"`
	Position      int          `json:"position" db:"position"`
}

// Weight returns the points a correct answer earns. Unset weights count as 1.
func (q *Question) Weight() float64 {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}
