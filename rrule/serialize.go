package rrule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimestampFormat is the UTC DATE-TIME layout written for UNTIL
const TimestampFormat = "20060102T150405Z"

// Validate checks the invariants that Serialize enforces. Rules built in
// code are held to the same limits Parse applies, so that any serialized
// rule parses again.
func (r *Rule) Validate() error {
	if r.Frequency == "" {
		return &SerializeError{Err: ErrMissingFrequency}
	}
	if err := r.checkValues(); err != nil {
		return &SerializeError{Err: err}
	}
	if r.Until.IsPresent() && r.Count.IsPresent() {
		return &SerializeError{Err: ErrUntilWithCount}
	}
	return nil
}

func (r *Rule) checkValues() error {
	if !r.Frequency.Valid() {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidValue, r.Frequency)
	}
	if interval, ok := r.Interval.Get(); ok && interval < 1 {
		return fmt.Errorf("%w: interval %d must be positive", ErrInvalidValue, interval)
	}
	if count, ok := r.Count.Get(); ok && count < 0 {
		return fmt.Errorf("%w: count %d is negative", ErrInvalidValue, count)
	}
	if wkst, ok := r.WeekStart.Get(); ok && !ValidDay(wkst) {
		return fmt.Errorf("%w: WKST %q", ErrInvalidValue, wkst)
	}
	days, _ := r.ByDay.Get()
	for _, d := range days {
		if !ValidDay(d.Day) {
			return fmt.Errorf("%w: BYDAY %q", ErrInvalidValue, d.String())
		}
	}
	return nil
}

// Serialize writes the rule in canonical part order: FREQ, UNTIL, COUNT,
// INTERVAL, the BY filters in ByRules order, then WKST. Absent parts are
// left out.
func (r *Rule) Serialize() (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}

	parts := []string{"FREQ=" + string(r.Frequency)}
	if until, ok := r.Until.Get(); ok {
		parts = append(parts, "UNTIL="+FormatTimestamp(until))
	}
	if count, ok := r.Count.Get(); ok {
		parts = append(parts, "COUNT="+strconv.Itoa(count))
	}
	if interval, ok := r.Interval.Get(); ok {
		parts = append(parts, "INTERVAL="+strconv.Itoa(interval))
	}
	for _, kind := range ByRules {
		if kind == ByDayRule {
			if days, ok := r.ByDay.Get(); ok {
				parts = append(parts, "BYDAY="+joinWeekdays(days))
			}
			continue
		}
		if values, ok := r.ByList[kind]; ok {
			parts = append(parts, string(kind)+"="+joinInts(values))
		}
	}
	if wkst, ok := r.WeekStart.Get(); ok {
		parts = append(parts, "WKST="+wkst)
	}
	return strings.Join(parts, ";"), nil
}

// String returns the canonical form, or the raw text if the rule is invalid
func (r *Rule) String() string {
	s, err := r.Serialize()
	if err != nil {
		return r.raw
	}
	return s
}

// MarshalText implements encoding.TextMarshaler
func (r *Rule) MarshalText() ([]byte, error) {
	s, err := r.Serialize()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// FormatTimestamp renders t as a UTC DATE-TIME
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

func joinInts(values []int) string {
	s := make([]string, len(values))
	for i, v := range values {
		s[i] = strconv.Itoa(v)
	}
	return strings.Join(s, ",")
}

func joinWeekdays(days []Weekday) string {
	s := make([]string, len(days))
	for i, d := range days {
		s[i] = d.String()
	}
	return strings.Join(s, ",")
}
