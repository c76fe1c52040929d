package rrule

import (
	"fmt"
	"time"

	rrulego "github.com/teambition/rrule-go"
)

var rfcFrequencies = map[Frequency]rrulego.Frequency{
	Secondly: rrulego.SECONDLY,
	Minutely: rrulego.MINUTELY,
	Hourly:   rrulego.HOURLY,
	Daily:    rrulego.DAILY,
	Weekly:   rrulego.WEEKLY,
	Monthly:  rrulego.MONTHLY,
	Yearly:   rrulego.YEARLY,
}

var rfcWeekdays = map[string]rrulego.Weekday{
	"MO": rrulego.MO,
	"TU": rrulego.TU,
	"WE": rrulego.WE,
	"TH": rrulego.TH,
	"FR": rrulego.FR,
	"SA": rrulego.SA,
	"SU": rrulego.SU,
}

// ROption maps the rule onto rrule-go options anchored at dtstart. Unlike
// the native expander, rrule-go applies every BY filter.
func (r *Rule) ROption(dtstart time.Time) (rrulego.ROption, error) {
	if err := r.Validate(); err != nil {
		return rrulego.ROption{}, err
	}

	opt := rrulego.ROption{
		Freq:       rfcFrequencies[r.Frequency],
		Dtstart:    dtstart,
		Interval:   r.IntervalOrDefault(),
		Count:      r.Count.OrElse(0),
		Until:      r.Until.OrElse(time.Time{}),
		Bysecond:   r.ByList[BySecond],
		Byminute:   r.ByList[ByMinute],
		Byhour:     r.ByList[ByHour],
		Bymonthday: r.ByList[ByMonthDay],
		Byyearday:  r.ByList[ByYearDay],
		Byweekno:   r.ByList[ByWeekNo],
		Bymonth:    r.ByList[ByMonth],
		Bysetpos:   r.ByList[BySetPos],
	}

	wkst, ok := rfcWeekdays[r.WeekStartOrDefault()]
	if !ok {
		return rrulego.ROption{}, fmt.Errorf("%w: WKST %q", ErrInvalidValue, r.WeekStartOrDefault())
	}
	opt.Wkst = wkst

	days, _ := r.ByDay.Get()
	for _, d := range days {
		wd, ok := rfcWeekdays[d.Day]
		if !ok {
			return rrulego.ROption{}, fmt.Errorf("%w: BYDAY %q", ErrInvalidValue, d.String())
		}
		if n, ok := d.Position.Get(); ok {
			wd = wd.Nth(n)
		}
		opt.Byweekday = append(opt.Byweekday, wd)
	}
	return opt, nil
}

// RFC builds a full RFC 5545 iterator for the rule anchored at dtstart
func (r *Rule) RFC(dtstart time.Time) (*rrulego.RRule, error) {
	opt, err := r.ROption(dtstart)
	if err != nil {
		return nil, err
	}
	rule, err := rrulego.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build RFC rule: %w", err)
	}
	return rule, nil
}
