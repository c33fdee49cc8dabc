package engine

import (
	"errors"
	"fmt"
)

// ============================================================================
// ERRORS — Configuration vs. Validation failures
// ============================================================================
// ConfigurationError: the dashboard asked for something the table cannot
// serve (unknown column, string column, bin_count < 1). Fatal to the request.
// ValidationError: a selection event is malformed (row/bin index out of
// range, unknown view). The event is rejected, prior state is retained.
// ============================================================================

var (
	// ErrConfiguration matches every *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("configuration error")

	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation error")
)

// ConfigurationError reports an invalid view, attribute or bin request.
type ConfigurationError struct {
	Field  string
	Value  string
	Reason string
	cause  error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg = fmt.Sprintf("configuration error: %s %q: %s", e.Field, e.Value, e.Reason)
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.cause }

// Is lets errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// ValidationError reports a rejected selection event.
type ValidationError struct {
	EventID string
	ViewID  string
	Field   string
	Value   string
	Reason  string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("validation error: view %q: %s", e.ViewID, e.Reason)
	if e.Field != "" {
		msg += fmt.Sprintf(" (%s=%s)", e.Field, e.Value)
	}
	return msg
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func unknownColumn(column string) error {
	return &ConfigurationError{Field: "column", Value: column, Reason: "unknown column"}
}

func invalidBinCount(column string, n int) error {
	return &ConfigurationError{Field: "bin_count", Value: column, Reason: fmt.Sprintf("must be >= 1, got %d", n)}
}
