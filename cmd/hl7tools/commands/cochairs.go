package commands

import (
	"fmt"
	"log/slog"

	"hl7tools/lib/matching"
	"hl7tools/lib/tabular"

	"github.com/spf13/cobra"
)

var cochairsCmd = &cobra.Command{
	Use:   "cochairs",
	Short: "Works with co-chair contact lists.",
}

var cochairsCompareFlags struct {
	leftLabel      string
	rightLabel     string
	minCorrelation float64
	suggestions    string
}

var cochairsCompareOutput *outputFlags

var cochairsCompareCmd = &cobra.Command{
	Use:   "compare <first.csv> <second.csv>",
	Short: "Lists the contacts whose Id is in only one of two lists and suggests likely renames.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		reporter := reporterFor("cochairs")

		var lists [2][]matching.Contact
		for i, path := range args {
			t, err := readTable(path, reporter)
			if err != nil {
				return err
			}
			lists[i], err = matching.Contacts(t, reporter)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
		}

		flags := cochairsCompareFlags
		c := matching.Compare(lists[0], lists[1], flags.minCorrelation)
		slog.Info("compared contact lists",
			"only_"+flags.leftLabel, len(c.OnlyLeft),
			"only_"+flags.rightLabel, len(c.OnlyRight),
			"suggestions", len(c.Suggestions),
		)

		err := cochairsCompareOutput.write(cmd.Context(), "cochairs-compare", c.Table(flags.leftLabel, flags.rightLabel), nil)
		if err != nil {
			return err
		}
		if flags.suggestions == "" {
			return nil
		}
		return cochairsCompareOutput.writeCSV(
			cmd.Context(), "cochairs-suggestions",
			tabular.OutputPath(flags.suggestions, tabular.FormatCSV),
			c.SuggestionsTable(flags.leftLabel, flags.rightLabel),
		)
	},
}

func init() {
	cochairsCompareOutput = addOutputFlags(cochairsCompareCmd, tabular.Stdout, "csv")
	flags := cochairsCompareCmd.Flags()
	flags.StringVar(&cochairsCompareFlags.leftLabel, "label1", "File 1", "Label for the first list.")
	flags.StringVar(&cochairsCompareFlags.rightLabel, "label2", "File 2", "Label for the second list.")
	flags.Float64Var(&cochairsCompareFlags.minCorrelation, "min-correlation", matching.DefaultMinCorrelation, "Name similarity needed for a suggestion.")
	flags.StringVar(&cochairsCompareFlags.suggestions, "suggestions", "", "Also write name suggestions to this csv.")

	cochairsCmd.AddCommand(cochairsCompareCmd)
	rootCmd.AddCommand(cochairsCmd)
}
