package models

import "time"

// SkillType is the test category used as the aggregation key for progress.
type SkillType string

const (
	SkillListening SkillType = "listening"
	SkillReading   SkillType = "reading"
	SkillWriting   SkillType = "writing"
	SkillSpeaking  SkillType = "speaking"
	SkillFullTest  SkillType = "full_test"
)

// Valid reports whether s is one of the known skill types.
func (s SkillType) Valid() bool {
	switch s {
	case SkillListening, SkillReading, SkillWriting, SkillSpeaking, SkillFullTest:
		return true
	}
	return false
}

// Test is a practice test a learner can submit answers for
type Test struct {
	ID             string    `json:"id" db:"id"`
	Title          string    `json:"title" db:"title"`
	Type           SkillType `json:"type" db:"type"`
	PassScore      float64   `json:"passScore" db:"pass_score"` // Band score needed to pass
	TotalQuestions int       `json:"totalQuestions" db:"total_questions"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}
