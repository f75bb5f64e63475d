package alarm

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEvent indicates an inbound event that matches no known
	// transport shape or is not valid JSON.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrMissingField indicates a record that parses but lacks a field the
	// pipeline cannot proceed without.
	ErrMissingField = errors.New("missing required field")
)

// ParseError reports which field of a record could not be normalized.
type ParseError struct {
	Field string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Field, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func missingField(field string) error {
	return &ParseError{Field: field, Err: ErrMissingField}
}

// IgnoredTransitionError reports a well-formed record whose state does not
// warrant dispatch. Callers treat it as a no-op outcome, not a failure.
type IgnoredTransitionError struct {
	AlarmName string
	State     State
}

func (e *IgnoredTransitionError) Error() string {
	return fmt.Sprintf("alarm %q in state %s does not warrant dispatch", e.AlarmName, e.State)
}
