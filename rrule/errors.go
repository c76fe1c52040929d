package rrule

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingFrequency is returned when a rule has no FREQ part
	ErrMissingFrequency = errors.New("FREQ must be specified for RRULE values")
	// ErrUntilWithCount is returned when both UNTIL and COUNT are set
	ErrUntilWithCount = errors.New("UNTIL and COUNT must not both be specified for RRULE values")
	// ErrInvalidValue is returned for a malformed field value
	ErrInvalidValue = errors.New("invalid RRULE value")
)

// ParseError describes a failure to parse an RRULE value.
type ParseError struct {
	Key   string // RRULE part name, empty for whole-value failures
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("rrule: parse %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("rrule: parse %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SerializeError describes a rule that cannot be written as an RRULE value.
type SerializeError struct {
	Err error
}

func (e *SerializeError) Error() string {
	return "rrule: serialize: " + e.Err.Error()
}

func (e *SerializeError) Unwrap() error { return e.Err }
