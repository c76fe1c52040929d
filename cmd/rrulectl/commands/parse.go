package commands

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/cyp0633/caldora-rrule/rrule"
	"github.com/spf13/cobra"
)

var ParseCmd = &cobra.Command{
	Use:     "parse RULE",
	Aliases: []string{"p"},
	Short:   "Validate a rule and print its canonical form",
	Example: `  rrulectl parse "INTERVAL=2;FREQ=WEEKLY;BYDAY=MO,WE"
  rrulectl parse --xcal "FREQ=MONTHLY;BYMONTHDAY=1,15;COUNT=6"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rule, err := rrule.Parse(args[0])
		if err != nil {
			return err
		}

		asXCal, _ := cmd.Flags().GetBool("xcal")
		if !asXCal {
			text, err := rule.Serialize()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}

		recur, err := rule.XCal()
		if err != nil {
			return err
		}
		recur.CreateAttr("xmlns", rrule.XCalNamespace)

		doc := etree.NewDocument()
		doc.SetRoot(recur)
		doc.Indent(2)
		_, err = doc.WriteTo(cmd.OutOrStdout())
		return err
	},
}

func init() {
	ParseCmd.Flags().Bool("xcal", false, "print the rule as an xCal <recur> element")
}
