package progress

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/example/ieltsprep/pkg/models"
)

// ErrSkillNotTracked is returned when a correction targets a skill the profile never saw.
var ErrSkillNotTracked = errors.New("skill not tracked in progress profile")

// Outcome is what the aggregator needs to know about one new result
type Outcome struct {
	Skill     models.SkillType
	Score     float64
	TimeSpent int // Seconds
	At        time.Time
}

// Aggregator folds new results into a user's running profile. It only
// computes; persistence and serialization are the caller's job.
type Aggregator struct{}

// NewAggregator creates an aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Fold applies one outcome to p and returns the profile to store.
// A nil p starts a new profile for userID.
func (a *Aggregator) Fold(p *models.Progress, userID string, o Outcome) *models.Progress {
	if p == nil {
		return a.start(userID, o)
	}

	p.TotalTestsCompleted++
	p.TotalTimeSpent += o.TimeSpent / 60

	if skill := p.Skill(o.Skill); skill != nil {
		oldAverage := skill.AverageScore
		newAverage := (oldAverage*float64(skill.TestsCompleted) + o.Score) / float64(skill.TestsCompleted+1)
		skill.Improvement = percentChange(oldAverage, newAverage)
		skill.AverageScore = newAverage
		skill.TestsCompleted++
		skill.LastTestDate = o.At
	} else {
		p.SkillsProgress = append(p.SkillsProgress, models.SkillProgress{
			SkillType:      o.Skill,
			AverageScore:   o.Score,
			TestsCompleted: 1,
			LastTestDate:   o.At,
		})
	}

	p.OverallBandScore = overallBand(p.SkillsProgress)
	p.StudyStreak = nextStreak(p.StudyStreak, p.LastStudyDate, o.At)
	at := o.At
	p.LastStudyDate = &at
	updateTarget(p)

	return p
}

func (a *Aggregator) start(userID string, o Outcome) *models.Progress {
	at := o.At
	p := models.EmptyProgress(userID)
	p.OverallBandScore = o.Score
	p.TotalTestsCompleted = 1
	p.TotalTimeSpent = o.TimeSpent / 60
	p.SkillsProgress = models.SkillProgressList{{
		SkillType:      o.Skill,
		AverageScore:   o.Score,
		TestsCompleted: 1,
		LastTestDate:   at,
	}}
	p.StudyStreak = 1
	p.LastStudyDate = &at
	updateTarget(p)
	return p
}

// Correct replaces oldScore with newScore inside the average of skill,
// as happens when a teacher overrides an automatic grade. Attempt counts,
// streak and improvement stay as they are.
func (a *Aggregator) Correct(p *models.Progress, skill models.SkillType, oldScore, newScore float64) error {
	if p == nil {
		return ErrSkillNotTracked
	}
	entry := p.Skill(skill)
	if entry == nil || entry.TestsCompleted == 0 {
		return fmt.Errorf("%w: %s", ErrSkillNotTracked, skill)
	}
	entry.AverageScore += (newScore - oldScore) / float64(entry.TestsCompleted)
	p.OverallBandScore = overallBand(p.SkillsProgress)
	updateTarget(p)
	return nil
}

// SetTarget records the band the learner is aiming for.
// A nil p starts an empty profile for userID.
func (a *Aggregator) SetTarget(p *models.Progress, userID string, target float64) *models.Progress {
	if p == nil {
		p = models.EmptyProgress(userID)
	}
	p.TargetScore = &target
	updateTarget(p)
	return p
}

// percentChange guards the zero baseline, which has no defined percentage.
func percentChange(oldValue, newValue float64) float64 {
	if oldValue == 0 {
		return 0
	}
	return (newValue - oldValue) / oldValue * 100
}

// overallBand is the plain mean of the skill averages, not weighted by attempts
func overallBand(skills models.SkillProgressList) float64 {
	if len(skills) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range skills {
		sum += s.AverageScore
	}
	return sum / float64(len(skills))
}

// nextStreak counts whole elapsed days since the last study time.
// Same-day activity leaves the streak alone.
func nextStreak(streak int, last *time.Time, now time.Time) int {
	if last == nil {
		return 1
	}
	diffDays := int(math.Floor(now.Sub(*last).Hours() / 24))
	switch {
	case diffDays == 1:
		return streak + 1
	case diffDays > 1:
		return 1
	}
	if streak == 0 {
		return 1
	}
	return streak
}

func updateTarget(p *models.Progress) {
	if p.TargetScore == nil || *p.TargetScore <= 0 {
		p.ProgressToTarget = nil
		return
	}
	pct := math.Min(p.OverallBandScore / *p.TargetScore * 100, 100)
	p.ProgressToTarget = &pct
}
