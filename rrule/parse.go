package rrule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/samber/mo"
)

type fieldParser func(r *Rule, value string) error

// fieldParsers maps each known RRULE part to its parser. Parts not listed
// here are skipped so that newer extensions do not break parsing.
var fieldParsers = map[string]fieldParser{
	"FREQ":     parseFreq,
	"UNTIL":    parseUntil,
	"COUNT":    parseCount,
	"INTERVAL": parseInterval,
	"BYDAY":    parseByDay,
	"WKST":     parseWeekStart,
}

func init() {
	for _, kind := range ByRules {
		if kind == ByDayRule {
			continue
		}
		fieldParsers[string(kind)] = intListParser(kind)
	}
}

var weekdayPattern = regexp.MustCompile(`^([+-]?\d*)(SU|MO|TU|WE|TH|FR|SA)$`)

// Parse converts an RRULE value such as "FREQ=WEEKLY;COUNT=4;BYDAY=MO,WE"
// into a Rule. Parts may appear in any order; unknown parts are ignored.
func Parse(value string) (*Rule, error) {
	r := New("")
	r.raw = value

	for _, part := range strings.Split(value, ";") {
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return nil, &ParseError{Key: part, Err: fmt.Errorf("%w: missing '='", ErrInvalidValue)}
		}
		parse, known := fieldParsers[key]
		if !known {
			continue
		}
		if err := parse(r, val); err != nil {
			return nil, &ParseError{Key: key, Value: val, Err: err}
		}
	}

	if r.Frequency == "" {
		return nil, &ParseError{Value: value, Err: ErrMissingFrequency}
	}
	return r, nil
}

// MustParse is like Parse but panics on error. Intended for fixed rules in code.
func MustParse(value string) *Rule {
	r, err := Parse(value)
	if err != nil {
		panic(err)
	}
	return r
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *Rule) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

// parseFreq keeps the first FREQ of a value and ignores any later ones
func parseFreq(r *Rule, value string) error {
	if r.Frequency != "" {
		return nil
	}
	f := Frequency(value)
	if !f.Valid() {
		return fmt.Errorf("%w: unknown frequency", ErrInvalidValue)
	}
	r.Frequency = f
	return nil
}

func parseUntil(r *Rule, value string) error {
	t, err := ParseTimestamp(value)
	if err != nil {
		return err
	}
	r.Until = mo.Some(t)
	return nil
}

// ParseTimestamp reads an iCalendar DATE or DATE-TIME value. Floating
// date-times and dates are interpreted in UTC.
func ParseTimestamp(value string) (time.Time, error) {
	prop := ical.NewProp("UNTIL")
	prop.Value = value
	if len(value) == len("20060102") {
		prop.Params.Set(ical.ParamValue, string(ical.ValueDate))
	} else {
		prop.Params.Set(ical.ParamValue, string(ical.ValueDateTime))
	}
	t, err := prop.DateTime(time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return t, nil
}

func parseCount(r *Rule, value string) error {
	n, err := parseNonNegative(value)
	if err != nil {
		return err
	}
	r.Count = mo.Some(n)
	return nil
}

func parseInterval(r *Rule, value string) error {
	n, err := parseNonNegative(value)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidValue)
	}
	r.Interval = mo.Some(n)
	return nil
}

func parseNonNegative(value string) (int, error) {
	if value == "" || strings.TrimLeft(value, "0123456789") != "" {
		return 0, fmt.Errorf("%w: expected a non-negative integer", ErrInvalidValue)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return n, nil
}

func intListParser(kind ByRule) fieldParser {
	return func(r *Rule, value string) error {
		values := []int{}
		if value != "" {
			for _, item := range strings.Split(value, ",") {
				n, err := strconv.Atoi(item)
				if err != nil {
					return fmt.Errorf("%w: %q is not an integer", ErrInvalidValue, item)
				}
				values = append(values, n)
			}
		}
		r.ByList[kind] = values
		return nil
	}
}

func parseByDay(r *Rule, value string) error {
	days := []Weekday{}
	if value != "" {
		for _, item := range strings.Split(value, ",") {
			w, err := ParseWeekday(item)
			if err != nil {
				return err
			}
			days = append(days, w)
		}
	}
	r.ByDay = mo.Some(days)
	return nil
}

// ParseWeekday parses one BYDAY token such as "-1FR" or "SU"
func ParseWeekday(token string) (Weekday, error) {
	m := weekdayPattern.FindStringSubmatch(token)
	if m == nil {
		return Weekday{}, fmt.Errorf("%w: %q is not a weekday", ErrInvalidValue, token)
	}
	w := NewWeekday(m[2])
	if m[1] != "" {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Weekday{}, fmt.Errorf("%w: %q has no ordinal", ErrInvalidValue, token)
		}
		w.Position = mo.Some(n)
	}
	return w, nil
}

func parseWeekStart(r *Rule, value string) error {
	if !ValidDay(value) {
		return fmt.Errorf("%w: %q is not a day code", ErrInvalidValue, value)
	}
	r.WeekStart = mo.Some(value)
	return nil
}
