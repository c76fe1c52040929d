package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cyp0633/caldora-rrule/recurrence"
	"github.com/cyp0633/caldora-rrule/rrule"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

const defaultWindow = 30 * 24 * time.Hour

var ExpandCmd = &cobra.Command{
	Use:     "expand [RULE]",
	Aliases: []string{"e"},
	Short:   "Expand a recurring event into VEVENT instances",
	Long: `Expand either a single rule anchored at --start, or every recurring
VEVENT and VTODO in an .ics file given with --ics. Instances whose start
falls in [--from, --to] are written to stdout as an iCalendar stream.`,
	Example: `  rrulectl expand "FREQ=WEEKLY;COUNT=4" --start 2024-01-01T09:00:00Z --duration 30m
  rrulectl expand --ics team.ics --from 20240101 --to 20240201 --rfc`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExpand,
}

func init() {
	flags := ExpandCmd.Flags()
	flags.String("ics", "", "read recurring components from this iCalendar file")
	flags.String("start", "", "anchor start of the event (default now)")
	flags.Duration("duration", time.Hour, "anchor duration of the event")
	flags.String("summary", "Recurring event", "SUMMARY of the generated event")
	flags.String("from", "", "window start (default the anchor start)")
	flags.String("to", "", "window end (default 30 days after the window start)")
	flags.Bool("by-count", false, "emit COUNT copies one day apart instead of a window")
}

func runExpand(cmd *cobra.Command, args []string) error {
	icsPath, _ := cmd.Flags().GetString("ics")
	if (icsPath == "") == (len(args) == 0) {
		return errors.New("expand needs exactly one of RULE or --ics")
	}

	logger := newLogger()
	exp := recurrence.NewExpanderWithConfig(expanderConfig(logger))
	defer exp.Close()

	var components []*ical.Component
	if icsPath != "" {
		comps, err := readComponents(icsPath)
		if err != nil {
			return err
		}
		components = comps
	} else {
		comp, err := buildEvent(cmd, args[0])
		if err != nil {
			return err
		}
		components = []*ical.Component{comp}
	}

	byCount, _ := cmd.Flags().GetBool("by-count")
	var from, to time.Time
	if !byCount {
		var err error
		if from, to, err = window(cmd, components); err != nil {
			return err
		}
	}

	out := newCalendar()
	for _, comp := range components {
		var (
			instances []*ical.Component
			err       error
		)
		if byCount {
			instances, err = expandByCount(exp, comp)
		} else {
			instances, err = exp.ExpandComponent(comp, from, to)
		}
		if errors.Is(err, recurrence.ErrNoRecurrence) {
			logger.Debug("skipping component without RRULE", "component", comp.Name, "uid", uidOf(comp))
			continue
		}
		if err != nil {
			return fmt.Errorf("component %s: %w", uidOf(comp), err)
		}
		logger.Info("expanded component", "uid", uidOf(comp), "instances", len(instances))
		out.Children = append(out.Children, instances...)
	}

	return writeCalendar(cmd.OutOrStdout(), out)
}

// buildEvent creates the VEVENT a bare RULE argument is expanded from
func buildEvent(cmd *cobra.Command, value string) (*ical.Component, error) {
	rule, err := rrule.Parse(value)
	if err != nil {
		return nil, err
	}
	text, err := rule.Serialize()
	if err != nil {
		return nil, err
	}

	start := time.Now().UTC().Truncate(time.Hour)
	if s, _ := cmd.Flags().GetString("start"); s != "" {
		if start, err = parseTime(s); err != nil {
			return nil, err
		}
	}
	duration, _ := cmd.Flags().GetDuration("duration")
	summary, _ := cmd.Flags().GetString("summary")

	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, uuid.NewString())
	event.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, start)
	event.Props.SetDateTime(ical.PropDateTimeEnd, start.Add(duration))
	event.Props.SetText(ical.PropSummary, summary)
	rrProp := ical.NewProp(ical.PropRecurrenceRule)
	rrProp.Value = text
	event.Props.Set(rrProp)
	return event.Component, nil
}

func readComponents(path string) ([]*ical.Component, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cal, err := ical.NewDecoder(f).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	var comps []*ical.Component
	for _, child := range cal.Children {
		if child.Name == ical.CompEvent || child.Name == ical.CompToDo {
			comps = append(comps, child)
		}
	}
	return comps, nil
}

// window resolves --from and --to. Without --from the window opens at the
// earliest anchor start.
func window(cmd *cobra.Command, components []*ical.Component) (from, to time.Time, err error) {
	if s, _ := cmd.Flags().GetString("from"); s != "" {
		if from, err = parseTime(s); err != nil {
			return from, to, err
		}
	} else {
		for _, comp := range components {
			start, _, ok := recurrence.ExtractBasicTimeInfoFromComponent(comp)
			if ok && (from.IsZero() || start.Before(from)) {
				from = start
			}
		}
		if from.IsZero() {
			return from, to, errors.New("no anchor start found; pass --from")
		}
	}

	to = from.Add(defaultWindow)
	if s, _ := cmd.Flags().GetString("to"); s != "" {
		if to, err = parseTime(s); err != nil {
			return from, to, err
		}
	}
	return from, to, nil
}

func expandByCount(exp *recurrence.Expander, comp *ical.Component) ([]*ical.Component, error) {
	rule, err := recurrence.RuleFromComponent(comp)
	if err != nil {
		return nil, err
	}
	anchor, err := recurrence.NewComponentEvent(comp)
	if err != nil {
		return nil, err
	}
	events, err := exp.ExpandByCount(anchor, rule)
	if err != nil {
		return nil, err
	}

	instances := make([]*ical.Component, 0, len(events))
	for _, ev := range events {
		inst := ev.(*recurrence.ComponentEvent).Component()
		delete(inst.Props, ical.PropRecurrenceRule)
		instances = append(instances, inst)
	}
	return instances, nil
}

func uidOf(comp *ical.Component) string {
	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		return prop.Value
	}
	return ""
}
