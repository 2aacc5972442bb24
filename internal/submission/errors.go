package submission

import "errors"

var (
	// ErrInvalidSubmission is returned for malformed client input.
	ErrInvalidSubmission = errors.New("invalid submission")
	// ErrTestNotFound is returned when a submission references a missing test.
	ErrTestNotFound = errors.New("test not found")
	// ErrResultNotFound is returned when a result doesn't exist or belongs to someone else.
	ErrResultNotFound = errors.New("test result not found")
	// ErrInvalidScore is returned for band scores outside 0-9 or off the half-band grid.
	ErrInvalidScore = errors.New("score must be between 0 and 9 in steps of 0.5")
)
