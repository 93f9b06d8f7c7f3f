/*
errors.go - Centralized error types for the decision engine

PURPOSE:
  All engine error types in one place for consistency and discoverability.

ERROR CATEGORIES:
  1. Validation errors - malformed drafts, surfaced before any rule runs
  2. Retryable errors  - transient storage conflicts (see balance package)

IMPORTANT DISTINCTION:
  A hard-fail rule outcome (VerdictFail) is NOT an error. It is an
  expected, successful evaluation that happens to produce Rejected, and
  is always returned as data. Errors are reserved for drafts the engine
  refuses to evaluate at all.
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDraft is the root of all draft validation failures.
	ErrInvalidDraft = errors.New("invalid request draft")

	// ErrInvertedDateRange is returned when end precedes start.
	ErrInvertedDateRange = errors.New("end date before start date")

	// ErrUnknownDestination is returned when the destination country
	// cannot be resolved against the reference data.
	ErrUnknownDestination = errors.New("unresolvable destination country")

	// ErrMissingExceptionReason is returned when the exception flag is
	// set without a justification.
	ErrMissingExceptionReason = errors.New("exception request without reason")
)

// =============================================================================
// VALIDATION ERROR - Malformed draft, never stored as a Decision
// =============================================================================

// ValidationError describes why a draft was refused before evaluation.
// Callers should surface it immediately; no Decision exists for it.
type ValidationError struct {
	Field   string
	Message string
	cause   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return ErrInvalidDraft
}

func newValidationError(field, message string, cause error) *ValidationError {
	return &ValidationError{Field: field, Message: message, cause: cause}
}

// IsValidationError reports whether err is a draft validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
