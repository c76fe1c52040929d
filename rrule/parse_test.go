package rrule

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		check func(t *testing.T, r *Rule)
	}{
		{
			name:  "frequency only",
			input: "FREQ=DAILY",
			check: func(t *testing.T, r *Rule) {
				assert.Equal(t, Daily, r.Frequency)
				assert.True(t, r.Until.IsAbsent())
				assert.True(t, r.Count.IsAbsent())
				assert.True(t, r.Interval.IsAbsent())
				assert.True(t, r.ByDay.IsAbsent())
				assert.True(t, r.WeekStart.IsAbsent())
				assert.Empty(t, r.ByList)
				assert.Equal(t, 1, r.IntervalOrDefault())
				assert.Equal(t, "MO", r.WeekStartOrDefault())
			},
		},
		{
			name:  "keys in any order",
			input: "COUNT=10;INTERVAL=2;FREQ=WEEKLY;WKST=SU",
			check: func(t *testing.T, r *Rule) {
				assert.Equal(t, Weekly, r.Frequency)
				assert.Equal(t, mo.Some(10), r.Count)
				assert.Equal(t, mo.Some(2), r.Interval)
				assert.Equal(t, mo.Some("SU"), r.WeekStart)
			},
		},
		{
			name:  "until date-time",
			input: "FREQ=MONTHLY;UNTIL=20241231T235959Z",
			check: func(t *testing.T, r *Rule) {
				until, ok := r.Until.Get()
				require.True(t, ok)
				assert.True(t, until.Equal(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)))
			},
		},
		{
			name:  "until date",
			input: "FREQ=YEARLY;UNTIL=20300101",
			check: func(t *testing.T, r *Rule) {
				until, ok := r.Until.Get()
				require.True(t, ok)
				assert.True(t, until.Equal(time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)))
			},
		},
		{
			name:  "integer filters",
			input: "FREQ=YEARLY;BYMONTH=1,6,-12;BYSETPOS=-1;BYHOUR=+9,17",
			check: func(t *testing.T, r *Rule) {
				assert.Equal(t, []int{1, 6, -12}, r.ByList[ByMonth])
				assert.Equal(t, []int{-1}, r.ByList[BySetPos])
				assert.Equal(t, []int{9, 17}, r.ByList[ByHour])
				_, hasMinute := r.ByList[ByMinute]
				assert.False(t, hasMinute)
			},
		},
		{
			name:  "byday decomposition",
			input: "FREQ=MONTHLY;BYDAY=2MO,-1FR,SU",
			check: func(t *testing.T, r *Rule) {
				days, ok := r.ByDay.Get()
				require.True(t, ok)
				assert.Equal(t, []Weekday{NthWeekday(2, "MO"), NthWeekday(-1, "FR"), NewWeekday("SU")}, days)
			},
		},
		{
			name:  "unknown keys ignored",
			input: "FREQ=DAILY;X-NAME=foo;BYEASTER=0;RSCALE=GREGORIAN",
			check: func(t *testing.T, r *Rule) {
				assert.Equal(t, Daily, r.Frequency)
				assert.Empty(t, r.ByList)
			},
		},
		{
			name:  "present but empty filter",
			input: "FREQ=DAILY;BYMONTH=",
			check: func(t *testing.T, r *Rule) {
				values, ok := r.ByList[ByMonth]
				assert.True(t, ok)
				assert.Empty(t, values)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.input, r.Raw())
			tt.check(t, r)
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
		key     string
	}{
		{"empty", "", ErrMissingFrequency, ""},
		{"no freq", "COUNT=3;INTERVAL=2", ErrMissingFrequency, ""},
		{"lowercase key", "freq=DAILY", ErrMissingFrequency, ""},
		{"unknown freq", "FREQ=FORTNIGHTLY", ErrInvalidValue, "FREQ"},
		{"bad count", "FREQ=DAILY;COUNT=ten", ErrInvalidValue, "COUNT"},
		{"negative count", "FREQ=DAILY;COUNT=-1", ErrInvalidValue, "COUNT"},
		{"zero interval", "FREQ=DAILY;INTERVAL=0", ErrInvalidValue, "INTERVAL"},
		{"bad until", "FREQ=DAILY;UNTIL=tomorrow", ErrInvalidValue, "UNTIL"},
		{"bad byday", "FREQ=WEEKLY;BYDAY=MO,XX", ErrInvalidValue, "BYDAY"},
		{"sign without day", "FREQ=WEEKLY;BYDAY=+", ErrInvalidValue, "BYDAY"},
		{"bad bymonth", "FREQ=YEARLY;BYMONTH=1,two", ErrInvalidValue, "BYMONTH"},
		{"bad wkst", "FREQ=WEEKLY;WKST=MONDAY", ErrInvalidValue, "WKST"},
		{"part without equals", "FREQ=DAILY;COUNT", ErrInvalidValue, "COUNT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Parse(tt.input)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, tt.wantErr)

			var perr *ParseError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.key, perr.Key)
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	assert.Panics(t, func() { MustParse("COUNT=1") })
	assert.NotPanics(t, func() { MustParse("FREQ=HOURLY") })
}

func TestParseWeekday(t *testing.T) {
	w, err := ParseWeekday("+3TH")
	require.NoError(t, err)
	assert.Equal(t, NthWeekday(3, "TH"), w)
	assert.Equal(t, "3TH", w.String())

	w, err = ParseWeekday("-2SA")
	require.NoError(t, err)
	assert.Equal(t, "-2SA", w.String())

	_, err = ParseWeekday("2mo")
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestRule_JSONText(t *testing.T) {
	type payload struct {
		Rule *Rule `json:"rule"`
	}

	var p payload
	require.NoError(t, json.Unmarshal([]byte(`{"rule":"BYDAY=MO,FR;FREQ=WEEKLY;COUNT=4"}`), &p))
	require.NotNil(t, p.Rule)
	assert.Equal(t, Weekly, p.Rule.Frequency)

	out, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"rule":"FREQ=WEEKLY;COUNT=4;BYDAY=MO,FR"}`, string(out))
}

func TestParse_FirstFrequencyWins(t *testing.T) {
	r, err := Parse("FREQ=DAILY;COUNT=2;FREQ=WEEKLY")
	require.NoError(t, err)
	assert.Equal(t, Daily, r.Frequency)
	assert.Equal(t, "FREQ=DAILY;COUNT=2", r.String())
}
