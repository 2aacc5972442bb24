package models

import (
	"database/sql/driver"
	"time"
)

// SkillProgress is the running summary for one skill type
type SkillProgress struct {
	SkillType      SkillType `json:"skillType"`
	AverageScore   float64   `json:"averageScore"`
	TestsCompleted int       `json:"testsCompleted"`
	LastTestDate   time.Time `json:"lastTestDate"`
	Improvement    float64   `json:"improvement"` // Percent change of the average on the last attempt
}

// SkillProgressList is stored as a JSON column
type SkillProgressList []SkillProgress

// Value implements driver.Valuer.
func (l SkillProgressList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return jsonValue([]SkillProgress(l))
}

// Scan implements sql.Scanner.
func (l *SkillProgressList) Scan(src interface{}) error { return scanJSON(src, l) }

// Progress is the incrementally maintained per-user profile
type Progress struct {
	UserID              string            `json:"userId" db:"user_id"`
	OverallBandScore    float64           `json:"overallBandScore" db:"overall_band_score"`
	TotalTestsCompleted int               `json:"totalTestsCompleted" db:"total_tests_completed"`
	TotalTimeSpent      int               `json:"totalTimeSpent" db:"total_time_spent"` // Minutes
	SkillsProgress      SkillProgressList `json:"skillsProgress" db:"skills_progress"`
	Strengths           StringList        `json:"strengths" db:"strengths"`
	Weaknesses          StringList        `json:"weaknesses" db:"weaknesses"`
	StudyStreak         int               `json:"studyStreak" db:"study_streak"`
	LastStudyDate       *time.Time        `json:"lastStudyDate,omitempty" db:"last_study_date"`
	TargetScore         *float64          `json:"targetScore,omitempty" db:"target_score"`
	ProgressToTarget    *float64          `json:"progressToTarget,omitempty" db:"progress_to_target"`
	CreatedAt           time.Time         `json:"-" db:"created_at"`
	UpdatedAt           time.Time         `json:"-" db:"updated_at"`
}

// EmptyProgress is returned to readers when a user has no profile yet.
func EmptyProgress(userID string) *Progress {
	return &Progress{
		UserID:         userID,
		SkillsProgress: SkillProgressList{},
		Strengths:      StringList{},
		Weaknesses:     StringList{},
	}
}

// Skill returns the entry for skill, or nil.
func (p *Progress) Skill(skill SkillType) *SkillProgress {
	for i := range p.SkillsProgress {
		if p.SkillsProgress[i].SkillType == skill {
			return &p.SkillsProgress[i]
		}
	}
	return nil
}
