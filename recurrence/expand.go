package recurrence

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/cyp0633/caldora-rrule/rrule"
	"github.com/samber/mo"
)

const (
	modeNative = "native"
	modeRFC    = "rfc"
)

// Expander turns a recurrence rule and an anchor event into occurrences.
//
// In native mode it steps by the rule's frequency and ignores BY filters;
// with Config.FullRFC it delegates to rrule-go. An Expander is safe for
// concurrent use.
type Expander struct {
	config Config
	cache  *Cache
	logger *slog.Logger
}

// Close releases the expansion cache
func (e *Expander) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// CacheStats reports cache statistics, or false when caching is disabled
func (e *Expander) CacheStats() (CacheStats, bool) {
	if e.cache == nil {
		return CacheStats{}, false
	}
	return e.cache.Stats(), true
}

// Cutoff returns the last instant a rule anchored at start may produce an
// occurrence: UNTIL, else start advanced by COUNT steps, else start plus
// the fallback horizon.
func (e *Expander) Cutoff(rule *rrule.Rule, start time.Time) time.Time {
	if until, ok := rule.Until.Get(); ok {
		return until
	}
	if count, ok := rule.Count.Get(); ok {
		return rule.Advance(start, count)
	}
	return start.Add(e.config.FallbackHorizon)
}

// ExpandByCount returns COUNT clones of event, the i-th shifted by i days.
// The stride is one day whatever the frequency.
func (e *Expander) ExpandByCount(event Event, rule *rrule.Rule) ([]Event, error) {
	if err := checkRule(rule); err != nil {
		return nil, err
	}
	count, ok := rule.Count.Get()
	if !ok {
		return nil, ErrCountRequired
	}

	start, end := event.Start(), event.End()
	out := make([]Event, 0, count)
	for i := 0; i < count; i++ {
		occ := event.Clone()
		occ.SetStart(start.AddDate(0, 0, i))
		occ.SetEnd(end.AddDate(0, 0, i))
		out = append(out, occ)
	}
	return out, nil
}

// ExpandBetween returns clones of event for every occurrence whose start
// lies in [windowStart, windowEnd], in increasing start order. A window
// without occurrences yields an empty slice and no error.
func (e *Expander) ExpandBetween(event Event, rule *rrule.Rule, windowStart, windowEnd time.Time) ([]Event, error) {
	spans, err := e.Occurrences(event.Start(), event.End(), rule, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	out := make([]Event, 0, len(spans))
	for _, span := range spans {
		occ := event.Clone()
		occ.SetStart(span.Start)
		occ.SetEnd(span.End)
		out = append(out, occ)
	}
	return out, nil
}

// Occurrences computes the spans ExpandBetween would produce for an anchor
// running from anchorStart to anchorEnd.
func (e *Expander) Occurrences(anchorStart, anchorEnd time.Time, rule *rrule.Rule, windowStart, windowEnd time.Time) ([]TimeOccurrence, error) {
	if err := checkRule(rule); err != nil {
		return nil, err
	}
	if windowEnd.Before(windowStart) {
		return []TimeOccurrence{}, nil
	}

	mode := modeNative
	if e.config.FullRFC {
		mode = modeRFC
	}
	key := CacheKey{
		Mode:        mode,
		AnchorStart: anchorStart,
		AnchorEnd:   anchorEnd,
		Rule:        ruleKey(rule),
		WindowStart: windowStart,
		WindowEnd:   windowEnd,
	}
	if e.cache != nil {
		if spans, ok := e.cache.Get(key); ok {
			e.logger.Debug("recurrence cache hit", "rule", key.Rule, "occurrences", len(spans))
			return spans, nil
		}
	}

	var spans []TimeOccurrence
	if mode == modeRFC {
		var err error
		if spans, err = e.expandRFC(anchorStart, anchorEnd, rule, windowStart, windowEnd); err != nil {
			return nil, err
		}
	} else {
		spans = e.expandNative(anchorStart, anchorEnd, rule, windowStart, windowEnd)
	}

	if limit := e.config.MaxOccurrences; limit > 0 && len(spans) > limit {
		e.logger.Warn("truncating recurrence expansion",
			"rule", key.Rule, "occurrences", len(spans), "max", limit)
		spans = spans[:limit]
	}

	e.logger.Debug("expanded recurrence",
		"rule", key.Rule, "mode", mode,
		"window_start", windowStart, "window_end", windowEnd,
		"occurrences", len(spans))

	if e.cache != nil {
		e.cache.Set(key, spans)
	}
	return spans, nil
}

func (e *Expander) expandNative(anchorStart, anchorEnd time.Time, rule *rrule.Rule, windowStart, windowEnd time.Time) []TimeOccurrence {
	cutoff := e.Cutoff(rule, anchorStart)
	limit := -1
	if count, ok := rule.Count.Get(); ok {
		limit = count
	}

	spans := []TimeOccurrence{}
	for k := firstIndex(anchorStart, rule, windowStart, cutoff); limit < 0 || k < limit; k++ {
		// steps are taken from the anchor so that clamped month days never drift
		start := rule.Advance(anchorStart, k)
		if start.After(windowEnd) || start.After(cutoff) {
			break
		}
		if start.Before(windowStart) {
			continue
		}
		spans = append(spans, TimeOccurrence{Start: start, End: rule.Advance(anchorEnd, k)})
	}
	return spans
}

// firstIndex returns a step index whose occurrence starts at or before the
// first one inside the window.
func firstIndex(anchor time.Time, rule *rrule.Rule, windowStart, cutoff time.Time) int {
	if !anchor.Before(windowStart) {
		return 0
	}
	if step, ok := rule.StepDuration(); ok {
		return int(windowStart.Sub(anchor) / step)
	}

	k := estimateIndex(anchor, rule, windowStart)
	for {
		t := rule.Advance(anchor, k)
		if !t.Before(windowStart) || t.After(cutoff) {
			return k
		}
		k++
	}
}

// estimateIndex undershoots the index of the first occurrence at or after
// target for calendar-based frequencies.
func estimateIndex(anchor time.Time, rule *rrule.Rule, target time.Time) int {
	interval := rule.IntervalOrDefault()
	var units int
	switch rule.Frequency {
	case rrule.Daily:
		units = int(target.Sub(anchor).Hours() / 24)
	case rrule.Weekly:
		units = int(target.Sub(anchor).Hours() / (24 * 7))
	case rrule.Monthly:
		units = (target.Year()-anchor.Year())*12 + int(target.Month()) - int(anchor.Month())
	case rrule.Yearly:
		units = target.Year() - anchor.Year()
	}
	k := units/interval - 1
	if k < 0 {
		return 0
	}
	return k
}

func (e *Expander) expandRFC(anchorStart, anchorEnd time.Time, rule *rrule.Rule, windowStart, windowEnd time.Time) ([]TimeOccurrence, error) {
	if count, ok := rule.Count.Get(); ok && count == 0 {
		return []TimeOccurrence{}, nil
	}

	bounded := rule
	if rule.Until.IsAbsent() && rule.Count.IsAbsent() {
		bounded = rule.Clone()
		bounded.Until = mo.Some(anchorStart.Add(e.config.FallbackHorizon))
	}

	rfc, err := bounded.RFC(anchorStart)
	if err != nil {
		return nil, fmt.Errorf("failed to expand rule %q: %w", rule.String(), err)
	}

	duration := anchorEnd.Sub(anchorStart)
	spans := []TimeOccurrence{}
	for _, start := range rfc.Between(windowStart, windowEnd, true) {
		spans = append(spans, TimeOccurrence{Start: start, End: start.Add(duration)})
	}
	return spans, nil
}

// checkRule rejects rules that cannot be stepped. UNTIL with COUNT is
// tolerated here since the cutoff prefers UNTIL; the RFC path still refuses it.
func checkRule(rule *rrule.Rule) error {
	if rule == nil {
		return ErrNilRule
	}
	if err := rule.Validate(); err != nil && !errors.Is(err, rrule.ErrUntilWithCount) {
		return fmt.Errorf("cannot expand rule %q: %w", rule.String(), err)
	}
	return nil
}

// ruleKey is the canonical text of rule. Rules that carry both UNTIL and
// COUNT cannot be serialized, so COUNT is appended by hand.
func ruleKey(rule *rrule.Rule) string {
	if s, err := rule.Serialize(); err == nil {
		return s
	}
	c := rule.Clone()
	c.Count = mo.None[int]()
	s, _ := c.Serialize()
	return s + ";COUNT=" + strconv.Itoa(rule.Count.OrElse(0))
}
