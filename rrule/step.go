package rrule

import "time"

// Advance steps t forward by times units of the rule's frequency, scaled by
// INTERVAL. Time of day and location are kept.
//
// MONTHLY and YEARLY carry into the year and clamp the day of month to the
// last day of the target month, so Jan 31 + 1 month is Feb 28 (or 29).
// An unset frequency returns t unchanged.
func (r *Rule) Advance(t time.Time, times int) time.Time {
	n := times * r.IntervalOrDefault()
	switch r.Frequency {
	case Secondly:
		return t.Add(time.Duration(n) * time.Second)
	case Minutely:
		return t.Add(time.Duration(n) * time.Minute)
	case Hourly:
		return t.Add(time.Duration(n) * time.Hour)
	case Daily:
		return t.AddDate(0, 0, n)
	case Weekly:
		return t.AddDate(0, 0, 7*n)
	case Monthly:
		return addMonthsClamped(t, n)
	case Yearly:
		return addMonthsClamped(t, 12*n)
	}
	return t
}

// StepDuration returns the fixed length of one step, or false for
// calendar-based frequencies whose length varies.
func (r *Rule) StepDuration() (time.Duration, bool) {
	var unit time.Duration
	switch r.Frequency {
	case Secondly:
		unit = time.Second
	case Minutely:
		unit = time.Minute
	case Hourly:
		unit = time.Hour
	default:
		return 0, false
	}
	return unit * time.Duration(r.IntervalOrDefault()), true
}

func addMonthsClamped(t time.Time, months int) time.Time {
	// months counted from year 0 keeps the carry in one place
	total := t.Year()*12 + int(t.Month()) - 1 + months
	year, month := total/12, time.Month(total%12+1)
	if total < 0 && total%12 != 0 {
		year, month = (total-11)/12, time.Month(total%12+13)
	}

	day := t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	hour, min, sec := t.Clock()
	return time.Date(year, month, day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
