package grading

import (
	"strings"

	"github.com/example/ieltsprep/pkg/models"
)

// Summary is the outcome of grading one submission
type Summary struct {
	Answers []models.Answer
	Correct int
	Wrong   int
	Skipped int
}

// Gradable is the number of answers that received an automatic verdict.
func (s Summary) Gradable() int {
	return s.Correct + s.Wrong + s.Skipped
}

// Grader scores submitted answers against a test's questions
type Grader struct {
	questions map[string]*models.Question
}

// NewGrader indexes the questions of one test by id.
func NewGrader(questions []models.Question) *Grader {
	index := make(map[string]*models.Question, len(questions))
	for i := range questions {
		index[questions[i].ID] = &questions[i]
	}
	return &Grader{questions: index}
}

// Grade returns a graded copy of every submitted answer together with the
// correct/wrong/skipped counters. Unknown question ids are wrong, never skipped.
// Essay and speaking answers stay ungraded and touch no counter.
func (g *Grader) Grade(submitted []models.Answer) Summary {
	summary := Summary{Answers: make([]models.Answer, 0, len(submitted))}

	for _, ans := range submitted {
		graded := models.Answer{QuestionID: ans.QuestionID, UserAnswer: ans.UserAnswer}

		question, ok := g.questions[ans.QuestionID]
		switch {
		case !ok:
			graded.IsCorrect = boolPtr(false)
			summary.Wrong++

		case question.Type.Subjective():
			// Left for manual review
			graded.IsCorrect = nil

		case ans.UserAnswer.IsEmpty():
			graded.IsCorrect = boolPtr(false)
			summary.Skipped++

		default:
			correct := isCorrect(question, ans.UserAnswer)
			graded.IsCorrect = boolPtr(correct)
			if correct {
				graded.PointsEarned = question.Weight()
				summary.Correct++
			} else {
				summary.Wrong++
			}
		}

		summary.Answers = append(summary.Answers, graded)
	}

	return summary
}

// isCorrect applies the comparison rule of the question's type
func isCorrect(q *models.Question, answer models.AnswerValue) bool {
	switch q.Type {
	case models.QuestionMultipleChoice:
		if answer.Kind != models.AnswerSingle {
			return false
		}
		for _, opt := range q.Options {
			if opt.IsCorrect {
				return answer.Single == opt.Text
			}
		}
		return false

	case models.QuestionFillInBlank, models.QuestionShortAnswer:
		if answer.Kind != models.AnswerSingle {
			return false
		}
		for _, alt := range q.CorrectAnswer.Values() {
			if normalize(alt) == normalize(answer.Single) {
				return true
			}
		}
		return false

	case models.QuestionTrueFalseNotGiven:
		return answer.Kind == models.AnswerSingle &&
			q.CorrectAnswer.Kind == models.AnswerSingle &&
			answer.Single == q.CorrectAnswer.Single

	case models.QuestionMatching:
		return matchPairs(answer.Values(), q.CorrectAnswer.Values())
	}

	return false
}

// matchPairs compares two lists position by position
func matchPairs(got, want []string) bool {
	if len(want) == 0 || len(got) != len(want) {
		return false
	}
	for i := range want {
		if normalize(got[i]) != normalize(want[i]) {
			return false
		}
	}
	return true
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func boolPtr(b bool) *bool {
	return &b
}
