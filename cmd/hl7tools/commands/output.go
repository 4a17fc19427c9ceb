package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"hl7tools/lib/htmlutil"
	"hl7tools/lib/restyutil"
	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

const terminalFormat = "table"

type outputFlags struct {
	output    string
	format    string
	delimiter string
	quoteAll  bool
}

func addOutputFlags(cmd *cobra.Command, defaultOutput, defaultFormat string) *outputFlags {
	o := &outputFlags{}
	cmd.Flags().StringVarP(&o.output, "output", "o", defaultOutput, "Output path without extension, - writes to stdout.")
	cmd.Flags().StringVarP(&o.format, "format", "f", defaultFormat, "Comma separated output formats: csv, md, json or both, table prints a terminal table.")
	cmd.Flags().StringVarP(&o.delimiter, "delimiter", "d", ",", "CSV delimiter, a single character or tab.")
	cmd.Flags().BoolVar(&o.quoteAll, "quote-all", false, "Quote every CSV cell.")
	return o
}

func (o *outputFlags) options(links map[string]func(string) string) (tabular.Options, error) {
	delimiter, err := tabular.ParseDelimiter(o.delimiter)
	if err != nil {
		return tabular.Options{}, err
	}
	return tabular.Options{
		CSV:      tabular.CSVOptions{Delimiter: delimiter, QuoteAll: o.quoteAll},
		Markdown: tabular.MarkdownOptions{Links: links},
	}, nil
}

// write emits the table in every requested format.
func (o *outputFlags) write(ctx context.Context, pipeline string, t tabular.Table, links map[string]func(string) string) error {
	if o.format == terminalFormat {
		tabular.Render(os.Stdout, t)
		telemetry.CountRows(ctx, pipeline, len(t.Rows))
		return nil
	}

	formats, err := tabular.ParseFormats(o.format)
	if err != nil {
		return err
	}
	opts, err := o.options(links)
	if err != nil {
		return err
	}
	_, err = tabular.WriteFiles(o.output, formats, t, opts)
	if err != nil {
		return fmt.Errorf("write %s: %w", pipeline, err)
	}
	telemetry.CountRows(ctx, pipeline, len(t.Rows))
	return nil
}

// writeCSV writes one csv file, used by commands with several fixed outputs.
func (o *outputFlags) writeCSV(ctx context.Context, pipeline, path string, t tabular.Table) error {
	opts, err := o.options(nil)
	if err != nil {
		return err
	}
	err = tabular.WriteCSVFile(path, t, opts.CSV)
	if err != nil {
		return fmt.Errorf("write %s: %w", pipeline, err)
	}
	telemetry.CountRows(ctx, pipeline, len(t.Rows))
	return nil
}

// writeText writes a rendered document, rows counts the records behind it.
func writeText(ctx context.Context, pipeline, path string, data []byte, rows int) error {
	err := tabular.WriteTextFile(path, data)
	if err != nil {
		return fmt.Errorf("write %s: %w", pipeline, err)
	}
	telemetry.CountRows(ctx, pipeline, rows)
	return nil
}

func reporterFor(pipeline string) telemetry.API {
	return telemetry.NewScopedAPI(pipeline, telemetry.SlogAPI{})
}

func readTable(path string, reporter telemetry.API) (tabular.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return tabular.Table{}, err
	}
	defer f.Close()
	t, err := tabular.ReadCSV(f, reporter)
	if err != nil {
		return tabular.Table{}, fmt.Errorf("%s: %w", path, err)
	}
	slog.Debug("read csv", "path", path, "rows", len(t.Rows))
	return t, nil
}

func readDocument(ctx context.Context, client *resty.Client, source string) (*goquery.Document, error) {
	body, err := restyutil.ReadSource(ctx, client, source)
	if err != nil {
		return nil, err
	}
	return htmlutil.ParseDocument(body)
}
