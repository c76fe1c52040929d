package recurrence

import (
	"fmt"
	"time"

	"github.com/cyp0633/caldora-rrule/rrule"
	"github.com/emersion/go-ical"
)

const (
	propRecurrenceID = "RECURRENCE-ID"
	dateFormat       = "20060102"
)

// ComponentEvent adapts a VEVENT or VTODO component to the Event interface.
// Setting the start or end rewrites DTSTART or DTEND on the component.
type ComponentEvent struct {
	comp  *ical.Component
	start time.Time
	end   time.Time
}

// NewComponentEvent wraps comp. The component must carry a DTSTART (or, for
// a VTODO, a DUE).
func NewComponentEvent(comp *ical.Component) (*ComponentEvent, error) {
	start, end, ok := ExtractBasicTimeInfoFromComponent(comp)
	if !ok {
		return nil, fmt.Errorf("%s component has no usable start time", comp.Name)
	}
	return &ComponentEvent{comp: comp, start: start, end: end}, nil
}

// Component returns the wrapped component
func (e *ComponentEvent) Component() *ical.Component { return e.comp }

func (e *ComponentEvent) Start() time.Time { return e.start }

func (e *ComponentEvent) End() time.Time { return e.end }

func (e *ComponentEvent) Clone() Event {
	return &ComponentEvent{comp: cloneComponent(e.comp), start: e.start, end: e.end}
}

func (e *ComponentEvent) SetStart(t time.Time) {
	e.start = t
	setDateTime(e.comp, ical.PropDateTimeStart, t)
}

func (e *ComponentEvent) SetEnd(t time.Time) {
	e.end = t
	if e.comp.Props.Get(ical.PropDateTimeEnd) == nil && e.comp.Props.Get(ical.PropDuration) == nil {
		// end was implied by DTSTART; keep it implied
		return
	}
	delete(e.comp.Props, ical.PropDuration)
	setDateTime(e.comp, ical.PropDateTimeEnd, t)
}

// setDateTime writes t to the named property, keeping the DATE value type
// when the property already used it.
func setDateTime(comp *ical.Component, name string, t time.Time) {
	if old := comp.Props.Get(name); old != nil && old.ValueType() == ical.ValueDate {
		comp.Props.Set(dateProp(name, t))
		return
	}
	comp.Props.SetDateTime(name, t)
}

func dateProp(name string, t time.Time) *ical.Prop {
	prop := &ical.Prop{Name: name, Params: make(ical.Params), Value: t.Format(dateFormat)}
	prop.Params.Set(ical.ParamValue, string(ical.ValueDate))
	return prop
}

// RuleFromComponent parses the RRULE property of comp
func RuleFromComponent(comp *ical.Component) (*rrule.Rule, error) {
	prop := comp.Props.Get(ical.PropRecurrenceRule)
	if prop == nil || prop.Value == "" {
		return nil, ErrNoRecurrence
	}
	rule, err := rrule.Parse(prop.Value)
	if err != nil {
		return nil, fmt.Errorf("invalid RRULE on %s: %w", comp.Name, err)
	}
	return rule, nil
}

// ExpandComponent expands a recurring component into standalone instances
// whose start lies in [windowStart, windowEnd]. Each instance has its
// recurrence properties removed and a RECURRENCE-ID set to its start.
func (e *Expander) ExpandComponent(comp *ical.Component, windowStart, windowEnd time.Time) ([]*ical.Component, error) {
	rule, err := RuleFromComponent(comp)
	if err != nil {
		return nil, err
	}
	anchor, err := NewComponentEvent(comp)
	if err != nil {
		return nil, err
	}

	occurrences, err := e.ExpandBetween(anchor, rule, windowStart, windowEnd)
	if err != nil {
		return nil, err
	}

	instances := make([]*ical.Component, 0, len(occurrences))
	for _, occ := range occurrences {
		ce := occ.(*ComponentEvent)
		inst := ce.Component()
		for _, name := range []string{ical.PropRecurrenceRule, ical.PropRecurrenceDates, ical.PropExceptionDates} {
			delete(inst.Props, name)
		}
		if dtstart := inst.Props.Get(ical.PropDateTimeStart); dtstart != nil && dtstart.ValueType() == ical.ValueDate {
			inst.Props.Set(dateProp(propRecurrenceID, ce.Start()))
		} else {
			inst.Props.SetDateTime(propRecurrenceID, ce.Start())
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// ExtractBasicTimeInfoFromComponent extracts start and end times from an iCal component
func ExtractBasicTimeInfoFromComponent(comp *ical.Component) (start, end time.Time, hasTime bool) {
	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
		dtstart, err := prop.DateTime(time.UTC)
		if err != nil {
			return start, end, false
		}
		start = dtstart
		hasTime = true
		allDay := prop.ValueType() == ical.ValueDate

		switch {
		case comp.Props.Get(ical.PropDateTimeEnd) != nil:
			dtend, err := comp.Props.Get(ical.PropDateTimeEnd).DateTime(time.UTC)
			if err != nil {
				return start, end, false
			}
			end = dtend
			// An all-day event whose DTEND repeats the DTSTART date lasts one day
			if allDay && sameDate(start, end) {
				end = start.AddDate(0, 0, 1)
			}
		case comp.Props.Get(ical.PropDuration) != nil:
			duration, err := comp.Props.Get(ical.PropDuration).Duration()
			if err != nil {
				return start, end, false
			}
			end = start.Add(duration)
		case allDay:
			end = start.AddDate(0, 0, 1)
		default:
			end = start
		}
	}

	// For VTODO, DUE stands in for a missing DTSTART and extends the end
	if comp.Name == ical.CompToDo {
		if prop := comp.Props.Get(ical.PropDue); prop != nil {
			if due, err := prop.DateTime(time.UTC); err == nil {
				if !hasTime {
					start, end, hasTime = due, due, true
				} else if due.After(end) {
					end = due
				}
			}
		}
	}

	return start, end, hasTime
}

func cloneComponent(c *ical.Component) *ical.Component {
	out := &ical.Component{Name: c.Name, Props: make(ical.Props, len(c.Props))}
	for name, props := range c.Props {
		copied := make([]ical.Prop, len(props))
		for i, p := range props {
			copied[i] = ical.Prop{Name: p.Name, Value: p.Value, Params: make(ical.Params, len(p.Params))}
			for k, v := range p.Params {
				copied[i].Params[k] = append([]string{}, v...)
			}
		}
		out.Props[name] = copied
	}
	for _, child := range c.Children {
		out.Children = append(out.Children, cloneComponent(child))
	}
	return out
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
