package commands

import (
	"context"
	"errors"
	"net/url"

	"hl7tools/lib/flatten"
	"hl7tools/lib/jira"
	"hl7tools/lib/restyutil"
	"hl7tools/lib/tabular"

	"github.com/spf13/cobra"
)

var errNoJiraToken = errors.New("jira needs a bearer token, set jira.bearer_token in the config or HL7_JIRA_TOKEN")

var jiraCmd = &cobra.Command{
	Use:   "jira",
	Short: "Exports and summarizes Jira issues.",
}

var jiraQuery struct {
	filter string
	jql    string
}

func addJiraQueryFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&jiraQuery.filter, "filter", "", `Search parameters as a JSON object, e.g. {"jql": "filter = 16107"}.`)
	cmd.Flags().StringVar(&jiraQuery.jql, "jql", "", "JQL query, shorthand for --filter '{\"jql\": ...}'.")
	cmd.MarkFlagsOneRequired("filter", "jql")
	cmd.MarkFlagsMutuallyExclusive("filter", "jql")
}

func searchJira(ctx context.Context) ([]any, error) {
	if cfg.Jira.BearerToken == "" {
		return nil, errNoJiraToken
	}

	params := url.Values{}
	if jiraQuery.jql != "" {
		params.Set("jql", jiraQuery.jql)
	} else {
		var err error
		params, err = jira.ParseFilter(jiraQuery.filter)
		if err != nil {
			return nil, err
		}
	}

	client, err := newHTTPClient(restyutil.Options{BearerToken: cfg.Jira.BearerToken})
	if err != nil {
		return nil, err
	}
	return jira.NewClient(client, cfg.Jira.SearchURL, cfg.Jira.PageSize).Search(ctx, params)
}

var (
	jiraExportFields  []string
	jiraExportAddType bool
	jiraExportOutput  *outputFlags
)

var jiraExportCmd = &cobra.Command{
	Use:   "export (--filter <json> | --jql <query>)",
	Short: "Exports the issues of a search sorted by resolution date.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := jira.Fields(jiraExportFields)
		if err != nil {
			return err
		}
		schema, err := flatten.NewSchema(fields, flatten.WithReporter(reporterFor("jira")))
		if err != nil {
			return err
		}

		issues, err := searchJira(cmd.Context())
		if err != nil {
			return err
		}
		jira.SortByResolutionDate(issues)

		table := jira.ExportTable(issues, schema, jiraExportAddType)
		return jiraExportOutput.write(cmd.Context(), "jira-export", table, jira.MarkdownLinks())
	},
}

var jiraReportersOutput *outputFlags

var jiraReportersCmd = &cobra.Command{
	Use:   "reporters (--filter <json> | --jql <query>)",
	Short: "Counts the issues of a search per reporter.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		issues, err := searchJira(cmd.Context())
		if err != nil {
			return err
		}
		return jiraReportersOutput.write(cmd.Context(), "jira-reporters", jira.UniqueReporters(issues), nil)
	},
}

var (
	jiraTotalsColumn string
	jiraTotalsOutput *outputFlags
)

var jiraTotalsCmd = &cobra.Command{
	Use:   "totals <jira-export.csv>",
	Short: "Counts the resolved issues of a Jira csv export per day.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reporter := reporterFor("jira-totals")
		export, err := readTable(args[0], reporter)
		if err != nil {
			return err
		}
		table, err := jira.ResolvedTotals(export, jiraTotalsColumn, reporter)
		if err != nil {
			return err
		}
		if jiraTotalsOutput.output == "" {
			jiraTotalsOutput.output = tabular.ParsedOutputPath(args[0])
		}
		return jiraTotalsOutput.write(cmd.Context(), "jira-totals", table, nil)
	},
}

var (
	jiraSubmittersColumn string
	jiraSubmittersOutput *outputFlags
)

var jiraSubmittersCmd = &cobra.Command{
	Use:   "submitters <jira-export.csv>",
	Short: "Counts the rows of a Jira csv export per reporter.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		export, err := readTable(args[0], reporterFor("jira-submitters"))
		if err != nil {
			return err
		}
		table, err := jira.ReporterTotals(export, jiraSubmittersColumn)
		if err != nil {
			return err
		}
		if jiraSubmittersOutput.output == "" {
			jiraSubmittersOutput.output = tabular.ParsedOutputPath(args[0])
		}
		return jiraSubmittersOutput.write(cmd.Context(), "jira-submitters", table, nil)
	},
}

func init() {
	jiraExportOutput = addOutputFlags(jiraExportCmd, "jira-export", "both")
	jiraExportCmd.Flags().StringArrayVar(&jiraExportFields, "field", jira.DefaultPaths(), "Field as path[:Column][|mode], repeatable, join mode unless given.")
	jiraExportCmd.Flags().BoolVar(&jiraExportAddType, "add-type", false, `Insert a "type" column holding M as the third column.`)
	addJiraQueryFlags(jiraExportCmd)

	jiraReportersOutput = addOutputFlags(jiraReportersCmd, "jira-reporters", "csv")
	addJiraQueryFlags(jiraReportersCmd)

	jiraTotalsOutput = addOutputFlags(jiraTotalsCmd, "", "csv")
	jiraTotalsCmd.Flags().StringVar(&jiraTotalsColumn, "column", "Resolved", "Column holding the resolution timestamp.")

	jiraSubmittersOutput = addOutputFlags(jiraSubmittersCmd, "", "csv")
	jiraSubmittersCmd.Flags().StringVar(&jiraSubmittersColumn, "column", "Reporter", "Column holding the reporter name.")

	jiraCmd.AddCommand(jiraExportCmd, jiraReportersCmd, jiraTotalsCmd, jiraSubmittersCmd)
	rootCmd.AddCommand(jiraCmd)
}
