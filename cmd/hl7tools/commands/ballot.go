package commands

import (
	"path/filepath"
	"strings"

	"hl7tools/lib/hl7web"
	"hl7tools/lib/restyutil"
	"hl7tools/lib/tabular"

	"github.com/spf13/cobra"
)

var ballotCmd = &cobra.Command{
	Use:   "ballot",
	Short: "Summarizes HL7 ballot pages.",
}

var ballotSummaryOutput *outputFlags

var ballotSummaryCmd = &cobra.Command{
	Use:   "summary <ballot.html>",
	Short: "Splits a saved ballot results page into main, postponed and summary csvs.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newHTTPClient(restyutil.Options{CloudflareBypass: true})
		if err != nil {
			return err
		}
		doc, err := readDocument(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		summary, err := hl7web.ParseBallot(cmd.Context(), doc)
		if err != nil {
			return err
		}

		base := strings.TrimSuffix(ballotSummaryOutput.output, ".csv")
		if base == "" {
			base = strings.TrimSuffix(args[0], filepath.Ext(args[0]))
		}
		outputs := []struct {
			pipeline string
			path     string
			table    tabular.Table
		}{
			{"ballot-main", base + ".csv", summary.Main},
			{"ballot-postponed", base + "-postponed.csv", summary.Postponed},
			{"ballot-summary", base + "-summary.csv", summary.Table()},
		}
		for _, out := range outputs {
			err := ballotSummaryOutput.writeCSV(cmd.Context(), out.pipeline, out.path, out.table)
			if err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	ballotSummaryOutput = addOutputFlags(ballotSummaryCmd, "", "csv")
	ballotSummaryCmd.Flags().MarkHidden("format")
	ballotCmd.AddCommand(ballotSummaryCmd)
	rootCmd.AddCommand(ballotCmd)
}
