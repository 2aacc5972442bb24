package grading

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ieltsprep/pkg/models"
)

func sampleQuestions() []models.Question {
	return []models.Question{
		{
			ID:   "mc",
			Type: models.QuestionMultipleChoice,
			Options: models.OptionList{
				{Text: "London"},
				{Text: "Paris", IsCorrect: true},
			},
			Points: 2,
		},
		{ID: "fib", Type: models.QuestionFillInBlank, CorrectAnswer: models.SingleAnswer("paris")},
		{ID: "sa", Type: models.QuestionShortAnswer, CorrectAnswer: models.MultiAnswer("colour", "color")},
		{ID: "tfng", Type: models.QuestionTrueFalseNotGiven, CorrectAnswer: models.SingleAnswer("Not Given")},
		{ID: "match", Type: models.QuestionMatching, CorrectAnswer: models.MultiAnswer("B", "A", "C")},
		{ID: "essay", Type: models.QuestionEssay},
		{ID: "speak", Type: models.QuestionSpeaking},
	}
}

func gradeOne(t *testing.T, questionID string, answer models.AnswerValue) (models.Answer, Summary) {
	t.Helper()
	summary := NewGrader(sampleQuestions()).Grade([]models.Answer{{QuestionID: questionID, UserAnswer: answer}})
	require.Len(t, summary.Answers, 1)
	return summary.Answers[0], summary
}

func TestGradeRules(t *testing.T) {
	cases := []struct {
		name       string
		questionID string
		answer     models.AnswerValue
		want       bool
	}{
		{"multiple choice exact", "mc", models.SingleAnswer("Paris"), true},
		{"multiple choice is not normalized", "mc", models.SingleAnswer("paris"), false},
		{"multiple choice wrong option", "mc", models.SingleAnswer("London"), false},
		{"multiple choice list answer", "mc", models.MultiAnswer("Paris"), false},
		{"fill in blank trims and folds case", "fib", models.SingleAnswer(" Paris "), true},
		{"fill in blank wrong", "fib", models.SingleAnswer("Lyon"), false},
		{"short answer alternative", "sa", models.SingleAnswer("COLOR"), true},
		{"short answer first alternative", "sa", models.SingleAnswer("colour "), true},
		{"tfng exact", "tfng", models.SingleAnswer("Not Given"), true},
		{"tfng is case sensitive", "tfng", models.SingleAnswer("not given"), false},
		{"tfng is not trimmed", "tfng", models.SingleAnswer("Not Given "), false},
		{"matching positional", "match", models.MultiAnswer("b", " A", "C"), true},
		{"matching wrong order", "match", models.MultiAnswer("A", "B", "C"), false},
		{"matching short list", "match", models.MultiAnswer("B", "A"), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			graded, summary := gradeOne(t, c.questionID, c.answer)
			require.NotNil(t, graded.IsCorrect)
			assert.Equal(t, c.want, *graded.IsCorrect)
			if c.want {
				assert.Equal(t, 1, summary.Correct)
				assert.Greater(t, graded.PointsEarned, 0.0)
			} else {
				assert.Equal(t, 1, summary.Wrong)
				assert.Zero(t, graded.PointsEarned)
			}
		})
	}
}

func TestGradeUsesPointsWeight(t *testing.T) {
	graded, _ := gradeOne(t, "mc", models.SingleAnswer("Paris"))
	assert.Equal(t, 2.0, graded.PointsEarned)

	graded, _ = gradeOne(t, "fib", models.SingleAnswer("paris"))
	assert.Equal(t, 1.0, graded.PointsEarned, "unset weight counts as one point")
}

func TestGradeSubjectiveAnswersStayUngraded(t *testing.T) {
	for _, id := range []string{"essay", "speak"} {
		for _, answer := range []models.AnswerValue{
			models.SingleAnswer("A long and thoughtful essay."),
			models.SingleAnswer(""),
			{},
		} {
			graded, summary := gradeOne(t, id, answer)
			assert.Nil(t, graded.IsCorrect)
			assert.Zero(t, graded.PointsEarned)
			assert.Zero(t, summary.Gradable())
		}
	}
}

func TestGradeMissingQuestionIsWrongNotSkipped(t *testing.T) {
	graded, summary := gradeOne(t, "nope", models.AnswerValue{})
	require.NotNil(t, graded.IsCorrect)
	assert.False(t, *graded.IsCorrect)
	assert.Equal(t, 1, summary.Wrong)
	assert.Zero(t, summary.Skipped)
}

func TestGradeEmptyAnswerIsSkipped(t *testing.T) {
	for _, answer := range []models.AnswerValue{
		{},
		models.SingleAnswer(""),
		models.SingleAnswer("   "),
		models.MultiAnswer(),
		models.MultiAnswer("", " "),
	} {
		graded, summary := gradeOne(t, "fib", answer)
		require.NotNil(t, graded.IsCorrect)
		assert.False(t, *graded.IsCorrect)
		assert.Equal(t, 1, summary.Skipped)
		assert.Zero(t, summary.Wrong)
	}
}

func TestGradeTwentyQuestionMultipleChoice(t *testing.T) {
	questions := make([]models.Question, 20)
	answers := make([]models.Answer, 20)
	for i := range questions {
		id := fmt.Sprintf("q%d", i+1)
		questions[i] = models.Question{
			ID:   id,
			Type: models.QuestionMultipleChoice,
			Options: models.OptionList{
				{Text: "right", IsCorrect: true},
				{Text: "wrong"},
			},
			Position: i + 1,
		}
		answers[i] = models.Answer{QuestionID: id, UserAnswer: models.SingleAnswer("right")}
	}
	answers[3].UserAnswer = models.SingleAnswer("wrong")
	answers[11].UserAnswer = models.SingleAnswer("")

	summary := NewGrader(questions).Grade(answers)

	assert.Equal(t, 18, summary.Correct)
	assert.Equal(t, 2, summary.Wrong+summary.Skipped)
	assert.Equal(t, 8.5, BandScore(summary.Correct, len(questions)))
}
