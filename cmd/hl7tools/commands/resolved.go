package commands

import (
	"bytes"
	"path/filepath"
	"strings"

	"hl7tools/lib/resolved"
	"hl7tools/lib/restyutil"
	"hl7tools/lib/specs"

	"github.com/spf13/cobra"
)

func derivedPath(input, suffix string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + suffix
}

var (
	jiraEnhanceMapping    string
	jiraEnhanceSpecs      string
	jiraEnhanceWorkgroups string
	jiraEnhanceNoFetch    bool
	jiraEnhanceOutput     *outputFlags
)

var jiraEnhanceCmd = &cobra.Command{
	Use:   "enhance <issues.csv>",
	Short: "Adds specification names, realms, work group names and resolution times to an issue export.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		reporter := reporterFor("jira-enhance")
		export, err := readTable(args[0], reporter)
		if err != nil {
			return err
		}

		client, err := newHTTPClient(restyutil.Options{})
		if err != nil {
			return err
		}
		catalog, err := readSpecs(ctx, client, jiraEnhanceSpecs)
		if err != nil {
			return err
		}
		workgroups, err := readWorkgroups(ctx, client, jiraEnhanceWorkgroups)
		if err != nil {
			return err
		}
		mappings, err := readRealmMappings(jiraEnhanceMapping, reporter)
		if err != nil {
			return err
		}

		var fetch specs.BriefFetcher
		if !jiraEnhanceNoFetch {
			fetch = specs.NewBriefFetcher(client)
		}
		bySpec := specs.ByKey(catalog)
		resolver := specs.NewResolver(mappings, bySpec, fetch, reporter)
		table, err := resolved.Enhance(ctx, export, resolved.Catalog{Specs: bySpec, Workgroups: workgroups}, resolver, reporter)
		if err != nil {
			return err
		}

		err = saveRealmMappings(jiraEnhanceMapping, resolver)
		if err != nil {
			return err
		}
		if jiraEnhanceOutput.output == "" {
			jiraEnhanceOutput.output = derivedPath(args[0], "-enhanced")
		}
		return jiraEnhanceOutput.write(ctx, "jira-enhance", table, nil)
	},
}

var (
	jiraAnalyzePeriods []string
	jiraAnalyzeStaff   string
	jiraAnalyzeOutput  string
)

var jiraAnalyzeCmd = &cobra.Command{
	Use:   "analyze <issues.csv>",
	Short: "Writes a markdown summary of how fast the issues of an export get resolved.",
	Long: `Writes a markdown summary of how fast the issues of an export get resolved:
new, resolved and backlog counts with average, median and P80 resolution days
per period, trimester, reporter, issue type, realm, work group, specification
and product family. Periods are years (2024), trimesters (2025T1, January to
April) or ranges of those (2024T2-2025T1).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		periods, err := resolved.ParsePeriods(jiraAnalyzePeriods)
		if err != nil {
			return err
		}
		reporter := reporterFor("jira-analyze")
		export, err := readTable(args[0], reporter)
		if err != nil {
			return err
		}
		data, err := resolved.ReadDataset(export, reporter)
		if err != nil {
			return err
		}
		staff, err := resolved.ReadStaff(jiraAnalyzeStaff)
		if err != nil {
			return err
		}

		var report bytes.Buffer
		err = resolved.WriteReport(&report, data, resolved.ReportOptions{Periods: periods, Staff: staff})
		if err != nil {
			return err
		}
		output := jiraAnalyzeOutput
		if output == "" {
			output = derivedPath(args[0], "-summary.md")
		}
		return writeText(cmd.Context(), "jira-analyze", output, report.Bytes(), len(data.Issues))
	},
}

func init() {
	jiraEnhanceOutput = addOutputFlags(jiraEnhanceCmd, "", "csv")
	jiraEnhanceCmd.Flags().StringVar(&jiraEnhanceMapping, "mapping", "realm_mappings.csv", "Realm mapping csv (key,url,realm), also caches scraped realms.")
	jiraEnhanceCmd.Flags().StringVar(&jiraEnhanceSpecs, "specs", specs.SpecsURL, "SPECS.json url or file.")
	jiraEnhanceCmd.Flags().StringVar(&jiraEnhanceWorkgroups, "workgroups", specs.WorkgroupsURL, "workgroups.json url or file.")
	jiraEnhanceCmd.Flags().BoolVar(&jiraEnhanceNoFetch, "no-scrape", false, "Do not read realms off product brief pages.")

	jiraAnalyzeCmd.Flags().StringArrayVarP(&jiraAnalyzePeriods, "period", "p", nil, "Analysis period, repeatable, the first one gets the reporter leaderboards.")
	jiraAnalyzeCmd.Flags().StringVar(&jiraAnalyzeStaff, "staff", "hl7-staff.yaml", "YAML list of staff display_name entries left out of the leaderboards.")
	jiraAnalyzeCmd.Flags().StringVarP(&jiraAnalyzeOutput, "output", "o", "", "Markdown report path, defaults to <input>-summary.md.")
	_ = jiraAnalyzeCmd.MarkFlagRequired("period")

	jiraCmd.AddCommand(jiraEnhanceCmd, jiraAnalyzeCmd)
}
