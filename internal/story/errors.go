package story

import (
	"errors"
	"fmt"
	"strings"
)

// Errors surfaced by session operations.
var (
	// ErrValidation is returned when required parameters are blank. The
	// provider is never called for an invalid parameter set.
	ErrValidation = errors.New("invalid story parameters")

	// ErrBusy is returned when an operation is requested while a
	// generation or refinement is already in flight.
	ErrBusy = errors.New("a generation is already in progress")

	// ErrNoCandidate is returned by commit or discard when no candidate
	// story is pending.
	ErrNoCandidate = errors.New("no candidate story pending")

	// ErrCandidatePending is returned when a fresh generation is requested
	// while a candidate story awaits commit or discard.
	ErrCandidatePending = errors.New("a candidate story is pending")

	// ErrNoStory is returned by export when no story has been committed.
	ErrNoStory = errors.New("no story to export")
)

// FailureReason classifies why a generation produced no usable story.
type FailureReason string

const (
	// ReasonProviderError covers non-200 responses, transport failures
	// and malformed response bodies.
	ReasonProviderError FailureReason = "provider error"

	// ReasonEmptyCompletion means the provider answered but returned no text.
	ReasonEmptyCompletion FailureReason = "empty completion"

	// ReasonEmptyAfterCleaning means the completion held nothing but
	// prompt echo and commentary.
	ReasonEmptyAfterCleaning FailureReason = "empty after cleaning"

	// ReasonTimeout means the provider call exceeded the configured deadline.
	ReasonTimeout FailureReason = "timeout"
)

// GenerationError reports a failed generation or refinement. The session
// state and committed story are unchanged when one is returned.
type GenerationError struct {
	Reason FailureReason
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generation failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("generation failed (%s)", e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// ValidationError lists the required fields that were blank.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required parameters: %s", strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
