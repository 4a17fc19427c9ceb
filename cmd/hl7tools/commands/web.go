package commands

import (
	"context"

	"hl7tools/lib/hl7web"
	"hl7tools/lib/restyutil"
	"hl7tools/lib/tabular"

	"github.com/PuerkitoBio/goquery"
	"github.com/spf13/cobra"
)

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Scrapes listings from the hl7.org website.",
}

type webPage struct {
	name       string
	short      string
	defaultURL string
	parse      func(context.Context, *goquery.Document) tabular.Table
}

var webPages = []webPage{
	{
		name:       "affiliates",
		short:      "Lists the HL7 affiliates.",
		defaultURL: hl7web.AffiliatesURL,
		parse:      hl7web.Affiliates,
	},
	{
		name:       "board",
		short:      "Lists the board of directors with their terms.",
		defaultURL: hl7web.BoardURL,
		parse: func(ctx context.Context, doc *goquery.Document) tabular.Table {
			return hl7web.Board(ctx, doc, reporterFor("web-board"))
		},
	},
	{
		name:       "staff",
		short:      "Lists the HL7 staff with their titles.",
		defaultURL: hl7web.StaffURL,
		parse: func(ctx context.Context, doc *goquery.Document) tabular.Table {
			return hl7web.Staff(ctx, doc, reporterFor("web-staff"))
		},
	},
	{
		name:       "benefactors",
		short:      "Lists the HL7 benefactors.",
		defaultURL: hl7web.BenefactorsURL,
		parse:      hl7web.Benefactors,
	},
}

func newWebCommand(page webPage) *cobra.Command {
	cmd := &cobra.Command{
		Use:   page.name + " [url-or-saved-page]",
		Short: page.short,
		Args:  cobra.MaximumNArgs(1),
	}
	output := addOutputFlags(cmd, tabular.Stdout, "csv")
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		source := page.defaultURL
		if len(args) == 1 {
			source = args[0]
		}
		client, err := newHTTPClient(restyutil.Options{CloudflareBypass: true})
		if err != nil {
			return err
		}
		doc, err := readDocument(cmd.Context(), client, source)
		if err != nil {
			return err
		}
		return output.write(cmd.Context(), "web-"+page.name, page.parse(cmd.Context(), doc), nil)
	}
	return cmd
}

func init() {
	for _, page := range webPages {
		webCmd.AddCommand(newWebCommand(page))
	}
	rootCmd.AddCommand(webCmd)
}
