package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ieltsprep/internal/database"
	"github.com/example/ieltsprep/internal/logger"
	"github.com/example/ieltsprep/internal/progress"
	"github.com/example/ieltsprep/internal/submission"
	"github.com/example/ieltsprep/pkg/models"
)

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	ctx := context.Background()
	tests := database.NewTestRepository(db)
	questions := database.NewQuestionRepository(db)
	require.NoError(t, tests.Create(ctx, &models.Test{ID: "reading-1", Title: "Reading 1", Type: models.SkillReading, PassScore: 6, TotalQuestions: 2}))
	require.NoError(t, questions.Create(ctx, &models.Question{
		ID: "q1", TestID: "reading-1", Type: models.QuestionMultipleChoice, Position: 1,
		Options: models.OptionList{{Text: "A", IsCorrect: true}, {Text: "B"}},
	}))
	require.NoError(t, questions.Create(ctx, &models.Question{
		ID: "q2", TestID: "reading-1", Type: models.QuestionShortAnswer, Position: 2,
		CorrectAnswer: models.MultiAnswer("1990", "nineteen ninety"),
	}))

	svc := submission.NewService(submission.Deps{
		Tests:     tests,
		Questions: questions,
		Results:   database.NewTestResultRepository(db),
		Progress:  database.NewProgressRepository(db),
	})
	return New(logger.Nop(), svc)
}

func do(r *gin.Engine, method, path, userID, role, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(HeaderUserID, userID)
	}
	if role != "" {
		req.Header.Set(HeaderUserRole, role)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

const fullMarks = `{"testId":"reading-1","timeSpent":300,"answers":[
	{"questionId":"q1","userAnswer":"A"},
	{"questionId":"q2","userAnswer":" Nineteen Ninety "}
]}`

func TestHealth(t *testing.T) {
	r := newTestServer(t)
	rec := do(r, http.MethodGet, "/healthz", "", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRequiresIdentity(t *testing.T) {
	r := newTestServer(t)
	rec := do(r, http.MethodGet, "/api/progress", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "unauthorized", body["error"].(map[string]any)["code"])
}

func TestSubmitAndReadBack(t *testing.T) {
	r := newTestServer(t)

	rec := do(r, http.MethodPost, "/api/results", "u1", "", fullMarks)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var result models.TestResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "u1", result.UserID)
	assert.Equal(t, 2, result.CorrectAnswers)
	assert.Equal(t, 9.0, result.Score)
	assert.True(t, result.IsPassed)
	require.Len(t, result.Answers, 2)
	require.NotNil(t, result.Answers[1].IsCorrect)
	assert.True(t, *result.Answers[1].IsCorrect)

	rec = do(r, http.MethodGet, "/api/results/"+result.ID, "u1", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodGet, "/api/results/"+result.ID, "u2", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(r, http.MethodGet, "/api/results", "u1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["results"], 1)

	rec = do(r, http.MethodGet, "/api/progress", "u1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var p models.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, 1, p.TotalTestsCompleted)
	assert.Equal(t, 5, p.TotalTimeSpent)
	assert.Equal(t, 9.0, p.OverallBandScore)
}

func TestSubmitErrors(t *testing.T) {
	r := newTestServer(t)

	tests := []struct {
		name string
		body string
		code int
		err  string
	}{
		{"malformed json", `{"testId":`, http.StatusBadRequest, "invalid_request"},
		{"non-string answer list", `{"testId":"reading-1","answers":[{"questionId":"q1","userAnswer":[1,2]}]}`, http.StatusBadRequest, "invalid_request"},
		{"missing test id", `{"answers":[{"questionId":"q1","userAnswer":"A"}]}`, http.StatusBadRequest, "invalid_submission"},
		{"empty answers", `{"testId":"reading-1","answers":[]}`, http.StatusBadRequest, "invalid_submission"},
		{"unknown test", `{"testId":"nope","answers":[{"questionId":"q1","userAnswer":"A"}]}`, http.StatusNotFound, "test_not_found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, http.MethodPost, "/api/results", "u1", "", tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			assert.Equal(t, tt.err, decode(t, rec)["error"].(map[string]any)["code"])
		})
	}
}

func TestProgressStub(t *testing.T) {
	r := newTestServer(t)

	rec := do(r, http.MethodGet, "/api/progress", "fresh", "", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, 0.0, body["overallBandScore"])
	assert.Equal(t, 0.0, body["totalTestsCompleted"])
	assert.Equal(t, []any{}, body["skillsProgress"])
	assert.Equal(t, []any{}, body["strengths"])
	assert.Equal(t, []any{}, body["weaknesses"])
	assert.Equal(t, 0.0, body["studyStreak"])
}

func TestReportEndpoint(t *testing.T) {
	r := newTestServer(t)

	rec := do(r, http.MethodGet, "/api/progress/me", "u1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "no test results yet", body["message"])
	assert.Nil(t, body["report"])

	rec = do(r, http.MethodPost, "/api/results", "u1", "", fullMarks)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(r, http.MethodGet, "/api/progress/me", "u1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	report := decode(t, rec)["report"].(map[string]any)
	assert.Equal(t, 1.0, report["totalTests"])
	assert.Equal(t, []any{"Reading"}, report["strengths"])
	assert.Equal(t, 1.0, report["studyStreak"])
}

func TestGradeEndpoint(t *testing.T) {
	r := newTestServer(t)

	rec := do(r, http.MethodPost, "/api/results", "u1", "", fullMarks)
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["id"].(string)

	rec = do(r, http.MethodPut, "/api/results/"+id+"/grade", "u1", "student", `{"score":5}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(r, http.MethodPut, "/api/results/"+id+"/grade", "t1", "teacher", `{"score":5.25}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPut, "/api/results/missing/grade", "t1", "teacher", `{"score":5}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(r, http.MethodPut, "/api/results/"+id+"/grade", "t1", "Teacher", `{"score":5,"teacherFeedback":"Check spelling"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	graded := decode(t, rec)
	assert.Equal(t, 5.0, graded["score"])
	assert.Equal(t, false, graded["isPassed"])
	assert.Equal(t, "t1", graded["gradedBy"])
	assert.Equal(t, "Check spelling", graded["teacherFeedback"])

	rec = do(r, http.MethodGet, "/api/progress", "u1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5.0, decode(t, rec)["overallBandScore"])
}

func TestSetTargetEndpoint(t *testing.T) {
	r := newTestServer(t)

	rec := do(r, http.MethodPut, "/api/progress/target", "u1", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPut, "/api/progress/target", "u1", "", `{"targetScore":10}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodPut, "/api/progress/target", "u1", "", `{"targetScore":7}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, 7.0, body["targetScore"])
	assert.Equal(t, 0.0, body["progressToTarget"])
}

// brokenService fails every call the way a dead database would
type brokenService struct{}

var errStorage = errors.New("failed to get progress: pq: connection refused")

func (brokenService) Submit(context.Context, string, submission.SubmitRequest) (*models.TestResult, error) {
	return nil, errStorage
}
func (brokenService) GradeResult(context.Context, submission.GradeRequest) (*models.TestResult, error) {
	return nil, errStorage
}
func (brokenService) Progress(context.Context, string) (*models.Progress, error) {
	return nil, errStorage
}
func (brokenService) SetTarget(context.Context, string, float64) (*models.Progress, error) {
	return nil, errStorage
}
func (brokenService) Report(context.Context, string) (*progress.Report, error) {
	return nil, errStorage
}
func (brokenService) Results(context.Context, string) ([]models.TestResult, error) {
	return nil, errStorage
}
func (brokenService) Result(context.Context, string, string) (*models.TestResult, error) {
	return nil, errStorage
}

func TestServerErrorsHideDetails(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := New(logger.Nop(), brokenService{})

	tests := []struct {
		method, path, role, body, code string
	}{
		{http.MethodGet, "/api/progress", "", "", "load_progress_failed"},
		{http.MethodPut, "/api/progress/target", "", `{"targetScore":7}`, "save_progress_failed"},
		{http.MethodGet, "/api/progress/me", "", "", "build_report_failed"},
		{http.MethodGet, "/api/results", "", "", "internal_error"},
		{http.MethodPost, "/api/results", "", fullMarks, "internal_error"},
		{http.MethodPut, "/api/results/r1/grade", "teacher", `{"score":6}`, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(r, tt.method, tt.path, "u1", tt.role, tt.body)
			require.Equal(t, http.StatusInternalServerError, rec.Code)
			assert.NotContains(t, rec.Body.String(), "pq:")

			apiErr := decode(t, rec)["error"].(map[string]any)
			assert.Equal(t, tt.code, apiErr["code"])
			assert.Equal(t, http.StatusText(http.StatusInternalServerError), apiErr["message"])
		})
	}
}
