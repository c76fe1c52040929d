package rrule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/samber/mo"
)

// XCalNamespace is the xCal (RFC 6321) namespace
const XCalNamespace = "urn:ietf:params:xml:ns:icalendar-2.0"

const (
	xcalDateTime = "2006-01-02T15:04:05Z"
	xcalDate     = "2006-01-02"
)

// XCal renders the rule as an xCal <recur> element. Each BY value becomes
// its own child element, as RFC 6321 requires.
func (r *Rule) XCal() (*etree.Element, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	recur := etree.NewElement("recur")
	recur.CreateElement("freq").SetText(string(r.Frequency))
	if until, ok := r.Until.Get(); ok {
		recur.CreateElement("until").SetText(until.UTC().Format(xcalDateTime))
	}
	if count, ok := r.Count.Get(); ok {
		recur.CreateElement("count").SetText(strconv.Itoa(count))
	}
	if interval, ok := r.Interval.Get(); ok {
		recur.CreateElement("interval").SetText(strconv.Itoa(interval))
	}
	for _, kind := range ByRules {
		tag := strings.ToLower(string(kind))
		if kind == ByDayRule {
			days, _ := r.ByDay.Get()
			for _, d := range days {
				recur.CreateElement(tag).SetText(d.String())
			}
			continue
		}
		for _, v := range r.ByList[kind] {
			recur.CreateElement(tag).SetText(strconv.Itoa(v))
		}
	}
	if wkst, ok := r.WeekStart.Get(); ok {
		recur.CreateElement("wkst").SetText(wkst)
	}
	return recur, nil
}

// ParseXCal reads an xCal <recur> element. The returned rule's Raw is its
// canonical text form.
func ParseXCal(recur *etree.Element) (*Rule, error) {
	if recur == nil || recur.Tag != "recur" {
		return nil, &ParseError{Err: fmt.Errorf("%w: expected <recur> element", ErrInvalidValue)}
	}

	r := New("")
	for _, child := range recur.ChildElements() {
		key := strings.ToUpper(child.Tag)
		value := strings.TrimSpace(child.Text())

		var err error
		switch key {
		case "UNTIL":
			err = parseXCalUntil(r, value)
		case string(ByDayRule):
			var w Weekday
			if w, err = ParseWeekday(value); err == nil {
				days, _ := r.ByDay.Get()
				r.ByDay = mo.Some(append(days, w))
			}
		default:
			parse, known := fieldParsers[key]
			if !known {
				continue
			}
			if existing, repeated := r.ByList[ByRule(key)]; repeated {
				// xCal repeats the element for every BY value
				err = parse(r, value)
				r.ByList[ByRule(key)] = append(existing, r.ByList[ByRule(key)]...)
			} else {
				err = parse(r, value)
			}
		}
		if err != nil {
			return nil, &ParseError{Key: key, Value: value, Err: err}
		}
	}

	if r.Frequency == "" {
		return nil, &ParseError{Err: ErrMissingFrequency}
	}
	r.raw = r.String()
	return r, nil
}

func parseXCalUntil(r *Rule, value string) error {
	for _, layout := range []string{xcalDateTime, xcalDate} {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			r.Until = mo.Some(t)
			return nil
		}
	}
	return fmt.Errorf("%w: %q is not an xCal date or date-time", ErrInvalidValue, value)
}
