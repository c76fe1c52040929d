package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/cyp0633/caldora-rrule/cmd/rrulectl/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "rrulectl",
	Short: "Parse, serialize and expand iCalendar recurrence rules",
	Long: `rrulectl works with RFC 5545 RRULE values. It normalizes rules to their
canonical text or xCal form and expands recurring events into standalone
VEVENT instances for a time window.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(commands.ParseCmd)
	rootCmd.AddCommand(commands.ExpandCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.rrulectl.yaml)")
	flags.BoolP("verbose", "v", false, "log expansion details to stderr")
	flags.Bool("rfc", false, "apply BY filters with full RFC 5545 expansion")
	flags.Duration("horizon", 0, "cutoff for rules without UNTIL or COUNT (default about four years)")
	flags.Int("max-occurrences", 0, "truncate expansion after this many occurrences (0 = unlimited)")

	for _, name := range []string{"verbose", "rfc", "horizon", "max-occurrences"} {
		viper.BindPFlag(name, flags.Lookup(name))
	}
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".rrulectl")
	}

	viper.SetEnvPrefix("RRULECTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Warning: failed to read config %s: %v\n", cfgFile, err)
	}
}
