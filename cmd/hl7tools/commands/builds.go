package commands

import (
	"hl7tools/lib/fhir"
	"hl7tools/lib/restyutil"
	"hl7tools/lib/tabular"

	"github.com/spf13/cobra"
)

var buildsCmd = &cobra.Command{
	Use:   "builds",
	Short: "Summarizes the FHIR IG build server listings.",
}

var buildsReposOutput *outputFlags

var buildsReposCmd = &cobra.Command{
	Use:   "repos [builds.json]",
	Short: "Lists the unique org/repo pairs with builds.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := fhir.BuildsURL
		if len(args) == 1 {
			source = args[0]
		}
		client, err := newHTTPClient(restyutil.Options{})
		if err != nil {
			return err
		}
		doc, err := restyutil.ReadJSONSource(cmd.Context(), client, source)
		if err != nil {
			return err
		}
		table, err := fhir.BuildRepos(doc)
		if err != nil {
			return err
		}
		return buildsReposOutput.write(cmd.Context(), "builds-repos", table, nil)
	},
}

var buildsTimesOutput *outputFlags

var buildsTimesCmd = &cobra.Command{
	Use:   "times [test-statistics.json]",
	Short: "Lists the build time in seconds of every guide per FHIR version.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := fhir.TestStatisticsURL
		if len(args) == 1 {
			source = args[0]
		}
		client, err := newHTTPClient(restyutil.Options{})
		if err != nil {
			return err
		}
		doc, err := restyutil.ReadJSONSource(cmd.Context(), client, source)
		if err != nil {
			return err
		}
		table, err := fhir.BuildTimes(doc, reporterFor("builds-times"))
		if err != nil {
			return err
		}
		return buildsTimesOutput.write(cmd.Context(), "builds-times", table, nil)
	},
}

func init() {
	buildsReposOutput = addOutputFlags(buildsReposCmd, tabular.Stdout, "csv")
	buildsTimesOutput = addOutputFlags(buildsTimesCmd, tabular.Stdout, "csv")

	buildsCmd.AddCommand(buildsReposCmd, buildsTimesCmd)
	rootCmd.AddCommand(buildsCmd)
}
