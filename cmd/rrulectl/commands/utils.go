package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/cyp0633/caldora-rrule/recurrence"
	"github.com/cyp0633/caldora-rrule/rrule"
	"github.com/emersion/go-ical"
	"github.com/spf13/viper"
)

const productID = "-//github.com/cyp0633/caldora-rrule//rrulectl//EN"

// newLogger logs to stderr at debug level when verbose is set
func newLogger() *slog.Logger {
	if !viper.GetBool("verbose") {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// expanderConfig builds the expander configuration from flags, environment
// and config file. The CLI runs one expansion per process, so no cache.
func expanderConfig(logger *slog.Logger) recurrence.Config {
	config := recurrence.NoCacheConfig
	if viper.GetBool("rfc") {
		config = recurrence.RFCConfig
		config.CacheEnabled = false
	}
	if horizon := viper.GetDuration("horizon"); horizon > 0 {
		config.FallbackHorizon = horizon
	}
	if limit := viper.GetInt("max-occurrences"); limit > 0 {
		config.MaxOccurrences = limit
	}
	config.Logger = logger
	return config
}

// parseTime accepts RFC 3339 as well as the iCalendar basic forms
// (20240101, 20240101T090000Z).
func parseTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	t, err := rrule.ParseTimestamp(value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected RFC 3339 or iCalendar form", value)
	}
	return t, nil
}

func newCalendar() *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropProductID, productID)
	cal.Props.SetText(ical.PropVersion, "2.0")
	return cal
}

func writeCalendar(w io.Writer, cal *ical.Calendar) error {
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}
