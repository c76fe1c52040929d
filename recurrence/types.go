// Package recurrence expands recurring events into concrete occurrences.
package recurrence

import (
	"errors"
	"time"
)

// Event is the anchor of a recurrence. Expansion reads Start and End from
// the anchor and only calls the setters on clones.
type Event interface {
	Start() time.Time
	End() time.Time
	// Clone returns an independent deep copy
	Clone() Event
	SetStart(time.Time)
	SetEnd(time.Time)
}

// TimeOccurrence is the time span of a single occurrence
type TimeOccurrence struct {
	Start time.Time
	End   time.Time
}

var (
	// ErrNilRule is returned when no rule is given
	ErrNilRule = errors.New("recurrence rule is nil")
	// ErrCountRequired is returned by count-based expansion of a rule without COUNT
	ErrCountRequired = errors.New("COUNT is required for count-based expansion")
	// ErrNoRecurrence is returned for a component without an RRULE property
	ErrNoRecurrence = errors.New("component has no RRULE")
)
