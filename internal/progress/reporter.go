package progress

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/example/ieltsprep/pkg/models"
)

// ErrNoData means the user has no results to report on.
var ErrNoData = errors.New("no test results yet")

const (
	strengthThreshold = 6.5
	weaknessThreshold = 5.0
	improvementWindow = 3
	recentLimit       = 5
)

// SkillReport is the recomputed summary of one skill
type SkillReport struct {
	SkillType      models.SkillType `json:"skillType"`
	AverageScore   float64          `json:"averageScore"`
	TestsCompleted int              `json:"testsCompleted"`
	Improvement    float64          `json:"improvement"` // Band delta between the first and last three attempts
	LastTestDate   time.Time        `json:"lastTestDate"`
}

// Activity is one entry of the recent activity list
type Activity struct {
	ResultID    string           `json:"resultId"`
	TestID      string           `json:"testId"`
	Title       string           `json:"title"`
	SkillType   models.SkillType `json:"skillType,omitempty"`
	Score       float64          `json:"score"`
	IsPassed    bool             `json:"isPassed"`
	CompletedAt time.Time        `json:"completedAt"`
}

// Report is computed on demand from the full result history
type Report struct {
	TotalTests     int           `json:"totalTests"`
	AverageScore   float64       `json:"averageScore"`
	TotalTimeSpent int           `json:"totalTimeSpent"` // Minutes
	Skills         []SkillReport `json:"skills"`
	Strengths      []string      `json:"strengths"`
	Weaknesses     []string      `json:"weaknesses"`
	StudyStreak    int           `json:"studyStreak"`
	RecentActivity []Activity    `json:"recentActivity"`
}

// Reporter rebuilds a progress view from raw results. It never looks at
// the stored profile.
type Reporter struct {
	loc *time.Location
}

// NewReporter creates a reporter that cuts calendar days in loc.
func NewReporter(loc *time.Location) *Reporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Reporter{loc: loc}
}

type scoredAttempt struct {
	score float64
	at    time.Time
}

// Build computes the report. tests maps test id to test; results whose test
// is gone still count towards totals, streak and activity but not skills.
func (r *Reporter) Build(results []models.TestResult, tests map[string]models.Test) (*Report, error) {
	if len(results) == 0 {
		return nil, ErrNoData
	}

	history := make([]models.TestResult, len(results))
	copy(history, results)
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].CompletedAt.Before(history[j].CompletedAt)
	})

	report := &Report{
		TotalTests: len(history),
		Strengths:  []string{},
		Weaknesses: []string{},
	}

	buckets := make(map[models.SkillType][]scoredAttempt)
	var order []models.SkillType
	total := 0.0

	for _, res := range history {
		total += res.Score
		report.TotalTimeSpent += res.TimeSpent / 60

		test, ok := tests[res.TestID]
		if !ok {
			continue
		}
		if _, seen := buckets[test.Type]; !seen {
			order = append(order, test.Type)
		}
		buckets[test.Type] = append(buckets[test.Type], scoredAttempt{score: res.Score, at: res.CompletedAt})
	}
	report.AverageScore = total / float64(len(history))

	report.Skills = make([]SkillReport, 0, len(order))
	for _, skill := range order {
		attempts := buckets[skill]
		sr := SkillReport{
			SkillType:      skill,
			AverageScore:   meanScore(attempts),
			TestsCompleted: len(attempts),
			Improvement:    windowImprovement(attempts),
			LastTestDate:   attempts[len(attempts)-1].at,
		}
		report.Skills = append(report.Skills, sr)

		switch {
		case sr.AverageScore >= strengthThreshold:
			report.Strengths = append(report.Strengths, capitalize(string(skill)))
		case sr.AverageScore < weaknessThreshold:
			report.Weaknesses = append(report.Weaknesses, capitalize(string(skill)))
		}
	}

	report.StudyStreak = r.calendarStreak(history)
	report.RecentActivity = recentActivity(history, tests)

	return report, nil
}

// calendarStreak walks back one calendar day at a time from the day of the
// latest result while every day has at least one result.
func (r *Reporter) calendarStreak(history []models.TestResult) int {
	days := make(map[string]bool, len(history))
	for _, res := range history {
		days[r.dayKey(res.CompletedAt)] = true
	}

	latest := history[len(history)-1].CompletedAt.In(r.loc)
	day := time.Date(latest.Year(), latest.Month(), latest.Day(), 0, 0, 0, 0, r.loc)

	streak := 0
	for days[r.dayKey(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

func (r *Reporter) dayKey(t time.Time) string {
	return t.In(r.loc).Format("2006-01-02")
}

func recentActivity(history []models.TestResult, tests map[string]models.Test) []Activity {
	activity := make([]Activity, 0, recentLimit)
	for i := len(history) - 1; i >= 0 && len(activity) < recentLimit; i-- {
		res := history[i]
		entry := Activity{
			ResultID:    res.ID,
			TestID:      res.TestID,
			Score:       res.Score,
			IsPassed:    res.IsPassed,
			CompletedAt: res.CompletedAt,
		}
		if test, ok := tests[res.TestID]; ok {
			entry.Title = test.Title
			entry.SkillType = test.Type
		}
		activity = append(activity, entry)
	}
	return activity
}

func meanScore(attempts []scoredAttempt) float64 {
	if len(attempts) == 0 {
		return 0
	}
	sum := 0.0
	for _, a := range attempts {
		sum += a.score
	}
	return sum / float64(len(attempts))
}

// windowImprovement compares the mean of the last three attempts with the
// mean of the first three. Needs more than three attempts.
func windowImprovement(attempts []scoredAttempt) float64 {
	if len(attempts) <= improvementWindow {
		return 0
	}
	first := meanScore(attempts[:improvementWindow])
	last := meanScore(attempts[len(attempts)-improvementWindow:])
	return last - first
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// Summary renders the report as a short plain-text message.
func (rep *Report) Summary() string {
	var b strings.Builder
	b.WriteString("Your IELTS practice progress\n\n")
	fmt.Fprintf(&b, "Tests completed: %d\n", rep.TotalTests)
	fmt.Fprintf(&b, "Average band: %.1f\n", rep.AverageScore)
	fmt.Fprintf(&b, "Study streak: %d day(s)\n", rep.StudyStreak)

	for _, s := range rep.Skills {
		fmt.Fprintf(&b, "\n%s: %.1f over %d test(s)", capitalize(string(s.SkillType)), s.AverageScore, s.TestsCompleted)
	}
	if len(rep.Strengths) > 0 {
		fmt.Fprintf(&b, "\n\nStrengths: %s", strings.Join(rep.Strengths, ", "))
	}
	if len(rep.Weaknesses) > 0 {
		fmt.Fprintf(&b, "\nNeeds work: %s", strings.Join(rep.Weaknesses, ", "))
	}
	return b.String()
}
