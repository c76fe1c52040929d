// Package rrule parses, validates and serializes iCalendar recurrence rules
// (RFC 5545 section 3.3.10) and steps timestamps by a rule's frequency.
package rrule

import (
	"slices"
	"strconv"
	"time"

	"github.com/samber/mo"
)

// Frequency is the base repetition unit of a rule
type Frequency string

const (
	Secondly Frequency = "SECONDLY"
	Minutely Frequency = "MINUTELY"
	Hourly   Frequency = "HOURLY"
	Daily    Frequency = "DAILY"
	Weekly   Frequency = "WEEKLY"
	Monthly  Frequency = "MONTHLY"
	Yearly   Frequency = "YEARLY"
)

// Frequencies lists every valid frequency, finest first
var Frequencies = []Frequency{Secondly, Minutely, Hourly, Daily, Weekly, Monthly, Yearly}

// Valid reports whether f is one of the seven RFC 5545 frequencies
func (f Frequency) Valid() bool {
	return slices.Contains(Frequencies, f)
}

// DayCodes are the two-letter weekday codes in RFC 5545 order
var DayCodes = []string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// ValidDay reports whether code is a two-letter weekday code
func ValidDay(code string) bool {
	return slices.Contains(DayCodes, code)
}

// Weekday is one BYDAY entry, e.g. 2MO (second Monday) or SU (every Sunday)
type Weekday struct {
	Position mo.Option[int]
	Day      string
}

// NewWeekday returns a Weekday without a position
func NewWeekday(day string) Weekday {
	return Weekday{Position: mo.None[int](), Day: day}
}

// NthWeekday returns a Weekday at the given ordinal position
func NthWeekday(n int, day string) Weekday {
	return Weekday{Position: mo.Some(n), Day: day}
}

func (w Weekday) String() string {
	if n, ok := w.Position.Get(); ok {
		return strconv.Itoa(n) + w.Day
	}
	return w.Day
}

// ByRule names an integer or weekday BY filter
type ByRule string

const (
	BySecond   ByRule = "BYSECOND"
	ByMinute   ByRule = "BYMINUTE"
	ByHour     ByRule = "BYHOUR"
	ByDayRule  ByRule = "BYDAY"
	ByMonthDay ByRule = "BYMONTHDAY"
	ByYearDay  ByRule = "BYYEARDAY"
	ByWeekNo   ByRule = "BYWEEKNO"
	ByMonth    ByRule = "BYMONTH"
	BySetPos   ByRule = "BYSETPOS"
)

// ByRules is the canonical serialization order of the BY filters
var ByRules = []ByRule{BySecond, ByMinute, ByHour, ByDayRule, ByMonthDay, ByYearDay, ByWeekNo, ByMonth, BySetPos}

// Rule is the structured form of one RRULE value.
//
// The fields are exported so that a rule can be built or edited in code
// before it is serialized. A Rule must not be mutated concurrently.
type Rule struct {
	Frequency Frequency // "" when unset
	Until     mo.Option[time.Time]
	Count     mo.Option[int]
	Interval  mo.Option[int]
	// ByList holds the integer BY filters; a missing key means the filter is absent.
	// BYDAY lives in ByDay and is never stored here.
	ByList    map[ByRule][]int
	ByDay     mo.Option[[]Weekday]
	WeekStart mo.Option[string]

	raw string
}

// New returns an empty rule with the given frequency
func New(freq Frequency) *Rule {
	return &Rule{
		Frequency: freq,
		Until:     mo.None[time.Time](),
		Count:     mo.None[int](),
		Interval:  mo.None[int](),
		ByList:    make(map[ByRule][]int),
		ByDay:     mo.None[[]Weekday](),
		WeekStart: mo.None[string](),
	}
}

// Raw returns the text the rule was parsed from, unmodified
func (r *Rule) Raw() string {
	return r.raw
}

// IntervalOrDefault returns INTERVAL, or 1 when it is absent
func (r *Rule) IntervalOrDefault() int {
	return r.Interval.OrElse(1)
}

// WeekStartOrDefault returns WKST, or MO when it is absent
func (r *Rule) WeekStartOrDefault() string {
	return r.WeekStart.OrElse("MO")
}

// SetBy sets an integer BY filter. Passing ByDayRule is a no-op; use ByDay.
func (r *Rule) SetBy(kind ByRule, values ...int) {
	if kind == ByDayRule {
		return
	}
	if r.ByList == nil {
		r.ByList = make(map[ByRule][]int)
	}
	r.ByList[kind] = append([]int{}, values...)
}

// Clone returns a deep copy of the rule
func (r *Rule) Clone() *Rule {
	c := *r
	c.ByList = make(map[ByRule][]int, len(r.ByList))
	for k, v := range r.ByList {
		c.ByList[k] = append([]int{}, v...)
	}
	if days, ok := r.ByDay.Get(); ok {
		c.ByDay = mo.Some(append([]Weekday{}, days...))
	}
	return &c
}

// Equal reports whether two rules describe the same recurrence.
// The raw text is not compared.
func (r *Rule) Equal(o *Rule) bool {
	if r == nil || o == nil {
		return r == o
	}
	if r.Frequency != o.Frequency || r.Count != o.Count || r.Interval != o.Interval || r.WeekStart != o.WeekStart {
		return false
	}
	ru, rok := r.Until.Get()
	ou, ook := o.Until.Get()
	if rok != ook || (rok && !ru.Equal(ou)) {
		return false
	}
	rd, rok := r.ByDay.Get()
	od, ook := o.ByDay.Get()
	if rok != ook || !slices.Equal(rd, od) {
		return false
	}
	if len(r.ByList) != len(o.ByList) {
		return false
	}
	for k, v := range r.ByList {
		ov, ok := o.ByList[k]
		if !ok || !slices.Equal(v, ov) {
			return false
		}
	}
	return true
}
