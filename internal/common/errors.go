// Package common defines shared constants and sentinel errors used across
// the campaignspace layers. Callers should use errors.Is to match these
// values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound   = errors.New("not found")
	ErrorValidation = errors.New("validation error")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Object-store errors.
	ErrorConflict         = errors.New("key already exists")
	ErrorStoreUnavailable = errors.New("object store unavailable")
	ErrorBadKey           = errors.New("malformed storage key")

	// Pipeline errors (artifact generation).
	ErrorSourceUnresolvable      = errors.New("source url unresolvable")
	ErrorSourceUnreachable       = errors.New("source unreachable")
	ErrorSourceNotFound          = errors.New("source file not found")
	ErrorAlreadyGenerated        = errors.New("output already generated")
	ErrorDestinationUnresolvable = errors.New("destination url unresolvable")

	// Multi-step workflow errors.
	ErrorPartialSuccess = errors.New("partial success")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)

// StepError reports the failure of one step of a multi-step workflow,
// preserving which steps completed before it. It wraps the underlying
// cause so errors.Is still matches the sentinel taxonomy above.
type StepError struct {
	// Step names the step that failed (e.g. "metadata insert").
	Step string
	// Completed names the last step that succeeded, empty if none did.
	Completed string
	// Err is the underlying cause.
	Err error
}

func (e *StepError) Error() string {
	if e.Completed != "" {
		return fmt.Sprintf("%s failed after %s succeeded: %v", e.Step, e.Completed, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}
