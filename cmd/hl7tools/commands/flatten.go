package commands

import (
	"fmt"

	"hl7tools/lib/flatten"
	"hl7tools/lib/restyutil"
	"hl7tools/lib/tabular"

	"github.com/spf13/cobra"
)

var flattenFlags struct {
	root       string
	fields     []string
	join       string
	linkCols   []string
	cloudflare bool
}

var flattenOutput *outputFlags

func init() {
	flattenOutput = addOutputFlags(flattenCmd, tabular.Stdout, "csv")
	flags := flattenCmd.Flags()
	flags.StringVar(&flattenFlags.root, "root", "", "Path to the list of records inside the document, empty when the document is the list.")
	flags.StringArrayVar(&flattenFlags.fields, "field", nil, "Field as path[:Column][|mode], repeatable, in column order.")
	flags.StringVar(&flattenFlags.join, "join-delimiter", flatten.DefaultDelimiter, "Delimiter for join fields.")
	flags.StringSliceVar(&flattenFlags.linkCols, "link", nil, "Columns rendered as self links in markdown.")
	flags.BoolVar(&flattenFlags.cloudflare, "cloudflare", false, "Fetch through the cloudflare bypass transport.")
	flattenCmd.MarkFlagRequired("field")
	rootCmd.AddCommand(flattenCmd)
}

var flattenCmd = &cobra.Command{
	Use:   "flatten <file-or-url> --field <path[:Column][|mode]>...",
	Short: "Flattens a list of JSON records into a table.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fields, err := flatten.ParseFieldSpecs(flattenFlags.fields)
		if err != nil {
			return err
		}
		schema, err := flatten.NewSchema(
			fields,
			flatten.WithDelimiter(flattenFlags.join),
			flatten.WithReporter(reporterFor("flatten")),
		)
		if err != nil {
			return err
		}

		client, err := newHTTPClient(restyutil.Options{CloudflareBypass: flattenFlags.cloudflare})
		if err != nil {
			return err
		}
		doc, err := restyutil.ReadJSONSource(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		records, err := flatten.Records(doc, flattenFlags.root)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		links := map[string]func(string) string{}
		for _, col := range flattenFlags.linkCols {
			links[col] = tabular.SelfLink
		}
		return flattenOutput.write(cmd.Context(), "flatten", tabular.FromSchema(schema, records), links)
	},
}
