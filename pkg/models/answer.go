package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// AnswerKind tags the shape of an AnswerValue
type AnswerKind int

const (
	AnswerNone AnswerKind = iota
	AnswerSingle
	AnswerMulti
)

// AnswerValue is either a single string or a list of strings.
// On the wire it is a JSON string, a JSON array of strings, or null.
type AnswerValue struct {
	Kind   AnswerKind
	Single string
	Multi  []string
}

// SingleAnswer wraps one string value.
func SingleAnswer(s string) AnswerValue {
	return AnswerValue{Kind: AnswerSingle, Single: s}
}

// MultiAnswer wraps a list of values.
func MultiAnswer(values ...string) AnswerValue {
	return AnswerValue{Kind: AnswerMulti, Multi: append([]string{}, values...)}
}

// Values returns the answer as a list regardless of its kind.
func (a AnswerValue) Values() []string {
	switch a.Kind {
	case AnswerSingle:
		return []string{a.Single}
	case AnswerMulti:
		return a.Multi
	}
	return nil
}

// IsEmpty reports whether no usable value was given: nothing at all,
// a blank string, or a list holding only blanks.
func (a AnswerValue) IsEmpty() bool {
	for _, v := range a.Values() {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (a AnswerValue) String() string {
	switch a.Kind {
	case AnswerSingle:
		return a.Single
	case AnswerMulti:
		return strings.Join(a.Multi, ", ")
	}
	return ""
}

// MarshalJSON implements json.Marshaler.
func (a AnswerValue) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AnswerSingle:
		return json.Marshal(a.Single)
	case AnswerMulti:
		if a.Multi == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(a.Multi)
	}
	return []byte("null"), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *AnswerValue) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = AnswerValue{}
		return nil
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = SingleAnswer(s)
		return nil
	case '[':
		var list []string
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return fmt.Errorf("answer list must contain only strings: %w", err)
		}
		*a = MultiAnswer(list...)
		return nil
	}
	return fmt.Errorf("answer must be a string or a list of strings, got %s", string(trimmed))
}

// Value implements driver.Valuer.
func (a AnswerValue) Value() (driver.Value, error) {
	b, err := a.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (a *AnswerValue) Scan(src interface{}) error { return scanJSON(src, a) }

// Answer is one submitted answer, augmented with its grade after grading
type Answer struct {
	QuestionID   string      `json:"questionId"`
	UserAnswer   AnswerValue `json:"userAnswer"`
	IsCorrect    *bool       `json:"isCorrect"` // nil while pending manual review
	PointsEarned float64     `json:"pointsEarned"`
}

// AnswerList is stored as a JSON column
type AnswerList []Answer

// Value implements driver.Valuer.
func (l AnswerList) Value() (driver.Value, error) { return jsonValue(l) }

// Scan implements sql.Scanner.
func (l *AnswerList) Scan(src interface{}) error { return scanJSON(src, l) }
