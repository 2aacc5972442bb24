package submission

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/example/ieltsprep/internal/database"
	"github.com/example/ieltsprep/internal/grading"
	"github.com/example/ieltsprep/internal/logger"
	"github.com/example/ieltsprep/internal/progress"
	"github.com/example/ieltsprep/pkg/models"
)

// TestStore reads tests
type TestStore interface {
	GetByID(ctx context.Context, id string) (*models.Test, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]models.Test, error)
}

// QuestionStore reads the questions of a test
type QuestionStore interface {
	GetByTestID(ctx context.Context, testID string) ([]models.Question, error)
}

// ResultStore persists test results
type ResultStore interface {
	Create(ctx context.Context, result *models.TestResult) error
	GetByID(ctx context.Context, id string) (*models.TestResult, error)
	GetByUserID(ctx context.Context, userID string) ([]models.TestResult, error)
	UpdateGrade(ctx context.Context, result *models.TestResult) error
}

// ProgressStore persists progress profiles
type ProgressStore interface {
	GetByUserID(ctx context.Context, userID string) (*models.Progress, error)
	Upsert(ctx context.Context, userID string, merge database.MergeFunc) (*models.Progress, error)
}

// GradeNotifier is told when a teacher grades a result
type GradeNotifier interface {
	ResultGraded(ctx context.Context, result *models.TestResult, test *models.Test) error
}

// Deps bundles the collaborators of a Service
type Deps struct {
	Tests     TestStore
	Questions QuestionStore
	Results   ResultStore
	Progress  ProgressStore
	Notifier  GradeNotifier // optional
	Log       *logger.Logger
	Location  *time.Location // calendar days of the progress report
}

// Service runs the submission pipeline and the progress reads
type Service struct {
	tests      TestStore
	questions  QuestionStore
	results    ResultStore
	profiles   ProgressStore
	notifier   GradeNotifier
	aggregator *progress.Aggregator
	reporter   *progress.Reporter
	locks      *progress.UserLocks
	log        *logger.Logger
	now        func() time.Time
	newID      func() string
}

// NewService constructs a service bound to the provided stores.
func NewService(d Deps) *Service {
	log := d.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		tests:      d.Tests,
		questions:  d.Questions,
		results:    d.Results,
		profiles:   d.Progress,
		notifier:   d.Notifier,
		aggregator: progress.NewAggregator(),
		reporter:   progress.NewReporter(d.Location),
		locks:      progress.NewUserLocks(),
		log:        log.With("service", "SubmissionService"),
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
	}
}

// SetNotifier attaches a notifier after construction.
func (s *Service) SetNotifier(n GradeNotifier) {
	s.notifier = n
}

// SubmitRequest is a learner's raw answer submission
type SubmitRequest struct {
	TestID    string          `json:"testId"`
	Answers   []models.Answer `json:"answers"`
	TimeSpent int             `json:"timeSpent"` // Seconds
	StartedAt *time.Time      `json:"startedAt,omitempty"`
}

func (r *SubmitRequest) validate(userID string) error {
	switch {
	case userID == "":
		return fmt.Errorf("%w: user is required", ErrInvalidSubmission)
	case r.TestID == "":
		return fmt.Errorf("%w: testId is required", ErrInvalidSubmission)
	case len(r.Answers) == 0:
		return fmt.Errorf("%w: answers must not be empty", ErrInvalidSubmission)
	case r.TimeSpent < 0:
		return fmt.Errorf("%w: timeSpent must not be negative", ErrInvalidSubmission)
	}
	for i, a := range r.Answers {
		if a.QuestionID == "" {
			return fmt.Errorf("%w: answers[%d].questionId is required", ErrInvalidSubmission, i)
		}
	}
	return nil
}

// Submit grades a submission, stores the result and folds it into the
// learner's progress profile. A failing profile update is logged and does
// not fail the submission; the stored result stands on its own.
// The band is computed over the test's stored questions, or over
// Test.TotalQuestions when the test has none stored.
func (s *Service) Submit(ctx context.Context, userID string, req SubmitRequest) (*models.TestResult, error) {
	if err := req.validate(userID); err != nil {
		return nil, err
	}

	test, err := s.tests.GetByID(ctx, req.TestID)
	if err != nil {
		return nil, err
	}
	if test == nil {
		return nil, fmt.Errorf("%w: %s", ErrTestNotFound, req.TestID)
	}

	questions, err := s.questions.GetByTestID(ctx, test.ID)
	if err != nil {
		return nil, err
	}

	summary := grading.NewGrader(questions).Grade(req.Answers)

	total := len(questions)
	if total == 0 {
		total = test.TotalQuestions
	}
	score := grading.BandScore(summary.Correct, total)

	completedAt := s.now()
	startedAt := completedAt.Add(-time.Duration(req.TimeSpent) * time.Second)
	if req.StartedAt != nil && !req.StartedAt.IsZero() {
		startedAt = req.StartedAt.UTC()
	}

	result := &models.TestResult{
		ID:             s.newID(),
		UserID:         userID,
		TestID:         test.ID,
		Answers:        summary.Answers,
		CorrectAnswers: summary.Correct,
		WrongAnswers:   summary.Wrong,
		SkippedAnswers: summary.Skipped,
		Score:          score,
		IsPassed:       grading.IsPassed(score, test.PassScore),
		TimeSpent:      req.TimeSpent,
		StartedAt:      startedAt,
		CompletedAt:    completedAt,
	}

	if err := s.results.Create(ctx, result); err != nil {
		s.log.Error("Submit failed (save result)", "error", err, "user_id", userID, "test_id", test.ID)
		return nil, err
	}

	s.log.Info("Result graded",
		"user_id", userID,
		"test_id", test.ID,
		"result_id", result.ID,
		"score", result.Score,
		"correct", result.CorrectAnswers,
		"wrong", result.WrongAnswers,
		"skipped", result.SkippedAnswers,
		"pending_review", result.PendingReview(),
	)

	outcome := progress.Outcome{
		Skill:     test.Type,
		Score:     result.Score,
		TimeSpent: result.TimeSpent,
		At:        completedAt,
	}
	s.updateProgress(context.WithoutCancel(ctx), userID, result.ID, func(current *models.Progress) (*models.Progress, error) {
		return s.aggregator.Fold(current, userID, outcome), nil
	})

	return result, nil
}

// updateProgress serializes profile writes per user and only logs failures
func (s *Service) updateProgress(ctx context.Context, userID, resultID string, merge database.MergeFunc) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	s.mergeProgress(ctx, userID, resultID, merge)
}

// mergeProgress expects the caller to hold the user's lock
func (s *Service) mergeProgress(ctx context.Context, userID, resultID string, merge database.MergeFunc) {
	if _, err := s.profiles.Upsert(ctx, userID, merge); err != nil {
		s.log.Error("Progress update failed", "error", err, "user_id", userID, "result_id", resultID)
	}
}

// GradeRequest is a teacher's manual grade of an existing result
type GradeRequest struct {
	ResultID string  `json:"-"`
	GraderID string  `json:"-"`
	Score    float64 `json:"score"`
	IsPassed *bool   `json:"isPassed,omitempty"` // Derived from the test's pass score when omitted
	Feedback string  `json:"teacherFeedback"`
}

// GradeResult applies a teacher's grade. When the score changes, the
// learner's profile average for the test's skill is corrected to match.
func (s *Service) GradeResult(ctx context.Context, req GradeRequest) (*models.TestResult, error) {
	if !validBand(req.Score) {
		return nil, ErrInvalidScore
	}

	owner, err := s.results.GetByID(ctx, req.ResultID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, fmt.Errorf("%w: %s", ErrResultNotFound, req.ResultID)
	}

	result, test, err := s.applyGrade(ctx, owner.UserID, req)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		if err := s.notifier.ResultGraded(context.WithoutCancel(ctx), result, test); err != nil {
			s.log.Warn("Grade notification failed", "error", err, "result_id", result.ID)
		}
	}

	return result, nil
}

// applyGrade re-reads the result under the learner's lock so the old score
// it corrects the profile from is the one actually stored. Concurrent
// grades of one result apply one after the other.
func (s *Service) applyGrade(ctx context.Context, userID string, req GradeRequest) (*models.TestResult, *models.Test, error) {
	unlock := s.locks.Lock(userID)
	defer unlock()

	result, err := s.results.GetByID(ctx, req.ResultID)
	if err != nil {
		return nil, nil, err
	}
	if result == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrResultNotFound, req.ResultID)
	}

	test, err := s.tests.GetByID(ctx, result.TestID)
	if err != nil {
		return nil, nil, err
	}

	oldScore := result.Score
	gradedAt := s.now()

	result.Score = req.Score
	switch {
	case req.IsPassed != nil:
		result.IsPassed = *req.IsPassed
	case test != nil:
		result.IsPassed = grading.IsPassed(req.Score, test.PassScore)
	}
	result.TeacherFeedback = req.Feedback
	result.GradedBy = req.GraderID
	result.GradedAt = &gradedAt

	if err := s.results.UpdateGrade(ctx, result); err != nil {
		s.log.Error("GradeResult failed (save result)", "error", err, "result_id", result.ID)
		return nil, nil, err
	}

	s.log.Info("Result graded by teacher",
		"result_id", result.ID,
		"user_id", result.UserID,
		"graded_by", req.GraderID,
		"old_score", oldScore,
		"score", result.Score,
	)

	switch {
	case test == nil:
		s.log.Warn("Progress not corrected, test is gone", "result_id", result.ID, "test_id", result.TestID)
	case oldScore != result.Score:
		s.mergeProgress(context.WithoutCancel(ctx), result.UserID, result.ID, func(current *models.Progress) (*models.Progress, error) {
			if err := s.aggregator.Correct(current, test.Type, oldScore, result.Score); err != nil {
				return nil, err
			}
			return current, nil
		})
	}

	return result, test, nil
}

// Progress returns the stored profile, or a zero-valued one if the learner
// has not submitted anything yet.
func (s *Service) Progress(ctx context.Context, userID string) (*models.Progress, error) {
	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return models.EmptyProgress(userID), nil
	}
	return p, nil
}

// SetTarget records the band a learner is aiming for
func (s *Service) SetTarget(ctx context.Context, userID string, target float64) (*models.Progress, error) {
	if target <= 0 || !validBand(target) {
		return nil, ErrInvalidScore
	}

	unlock := s.locks.Lock(userID)
	defer unlock()

	return s.profiles.Upsert(ctx, userID, func(current *models.Progress) (*models.Progress, error) {
		return s.aggregator.SetTarget(current, userID, target), nil
	})
}

// Report recomputes the progress report from the learner's full history.
// It returns progress.ErrNoData when there are no results.
func (s *Service) Report(ctx context.Context, userID string) (*progress.Report, error) {
	results, err := s.results.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, progress.ErrNoData
	}

	seen := make(map[string]bool)
	var ids []string
	for _, r := range results {
		if !seen[r.TestID] {
			seen[r.TestID] = true
			ids = append(ids, r.TestID)
		}
	}
	tests, err := s.tests.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return s.reporter.Build(results, tests)
}

// Results lists a learner's results, oldest first
func (s *Service) Results(ctx context.Context, userID string) ([]models.TestResult, error) {
	results, err := s.results.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.TestResult{}
	}
	return results, nil
}

// Result returns one of the learner's results
func (s *Service) Result(ctx context.Context, userID, resultID string) (*models.TestResult, error) {
	result, err := s.results.GetByID(ctx, resultID)
	if err != nil {
		return nil, err
	}
	if result == nil || result.UserID != userID {
		return nil, fmt.Errorf("%w: %s", ErrResultNotFound, resultID)
	}
	return result, nil
}

func validBand(score float64) bool {
	if math.IsNaN(score) || score < 0 || score > 9 {
		return false
	}
	return score*2 == math.Trunc(score*2)
}
