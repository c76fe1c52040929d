package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/cyp0633/caldora-rrule/rrule"
	"github.com/emersion/go-ical"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCmd_Canonical(t *testing.T) {
	out, err := run(t, ParseCmd, "--xcal=false", "BYDAY=MO,WE;INTERVAL=2;FREQ=WEEKLY")
	require.NoError(t, err)
	assert.Equal(t, "FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE\n", out)
}

func TestParseCmd_XCal(t *testing.T) {
	out, err := run(t, ParseCmd, "--xcal", "FREQ=MONTHLY;COUNT=6;BYMONTHDAY=1,15")
	require.NoError(t, err)

	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(out))
	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, rrule.XCalNamespace, root.SelectAttrValue("xmlns", ""))

	rule, err := rrule.ParseXCal(root)
	require.NoError(t, err)
	assert.Equal(t, "FREQ=MONTHLY;COUNT=6;BYMONTHDAY=1,15", rule.String())
}

func TestParseCmd_Invalid(t *testing.T) {
	_, err := run(t, ParseCmd, "--xcal=false", "COUNT=3")
	assert.ErrorIs(t, err, rrule.ErrMissingFrequency)
}

func decodeInstances(t *testing.T, out string) []*ical.Component {
	t.Helper()
	cal, err := ical.NewDecoder(strings.NewReader(out)).Decode()
	require.NoError(t, err)
	return cal.Children
}

func TestExpandCmd_Rule(t *testing.T) {
	out, err := run(t, ExpandCmd, "FREQ=DAILY;COUNT=5",
		"--start", "2024-01-01T09:00:00Z", "--duration", "30m",
		"--from", "20240102T000000Z", "--to", "20240131T000000Z",
		"--summary", "Standup", "--by-count=false", "--ics=")
	require.NoError(t, err)

	instances := decodeInstances(t, out)
	require.Len(t, instances, 4)
	for i, day := range []string{"20240102", "20240103", "20240104", "20240105"} {
		assert.Equal(t, day+"T090000Z", instances[i].Props.Get(ical.PropDateTimeStart).Value)
		assert.Equal(t, day+"T093000Z", instances[i].Props.Get(ical.PropDateTimeEnd).Value)
		assert.Equal(t, "Standup", instances[i].Props.Get(ical.PropSummary).Value)
		assert.Nil(t, instances[i].Props.Get(ical.PropRecurrenceRule))
	}
	// every instance belongs to the same generated event
	assert.Equal(t, instances[0].Props.Get(ical.PropUID).Value, instances[3].Props.Get(ical.PropUID).Value)
}

const teamCalendar = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//caldora-rrule//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:review\r\n" +
	"DTSTAMP:20231201T000000Z\r\n" +
	"DTSTART:20240105T150000Z\r\n" +
	"DURATION:PT1H\r\n" +
	"RRULE:FREQ=WEEKLY;COUNT=3\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:one-off\r\n" +
	"DTSTAMP:20231201T000000Z\r\n" +
	"DTSTART:20240110T100000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestExpandCmd_ICSFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "team.ics")
	require.NoError(t, os.WriteFile(path, []byte(teamCalendar), 0o644))

	out, err := run(t, ExpandCmd, "--ics", path, "--from=", "--to=", "--by-count=false")
	require.NoError(t, err)

	instances := decodeInstances(t, out)
	require.Len(t, instances, 3)
	for i, day := range []string{"20240105", "20240112", "20240119"} {
		assert.Equal(t, "review", instances[i].Props.Get(ical.PropUID).Value)
		assert.Equal(t, day+"T150000Z", instances[i].Props.Get("RECURRENCE-ID").Value)
		assert.Equal(t, day+"T160000Z", instances[i].Props.Get(ical.PropDateTimeEnd).Value)
	}
}

func TestExpandCmd_ByCount(t *testing.T) {
	out, err := run(t, ExpandCmd, "FREQ=MONTHLY;COUNT=3",
		"--start", "2024-01-01T09:00:00Z", "--by-count", "--ics=", "--from=", "--to=")
	require.NoError(t, err)

	instances := decodeInstances(t, out)
	require.Len(t, instances, 3)
	assert.Equal(t, "20240103T090000Z", instances[2].Props.Get(ical.PropDateTimeStart).Value)
}

func TestExpandCmd_NeedsOneSource(t *testing.T) {
	_, err := run(t, ExpandCmd, "--ics=")
	assert.Error(t, err)

	_, err = run(t, ExpandCmd, "FREQ=DAILY", "--ics", "x.ics")
	assert.Error(t, err)
}
