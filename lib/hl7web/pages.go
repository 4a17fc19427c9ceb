package hl7web

import (
	"context"
	"strings"

	"hl7tools/lib/htmlutil"
	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("hl7tools/hl7web")

const (
	AffiliatesURL  = "https://www.hl7.org/Special/committees/international/leadership.cfm"
	BoardURL       = "https://www.hl7.org/about/hl7board.cfm"
	StaffURL       = "https://www.hl7.org/about/hl7staff.cfm"
	BenefactorsURL = "https://www.hl7.org/about/benefactors.cfm"
)

// the demographics boxes on the leadership page carry this label in place of
// a name when they describe the program rather than an affiliate
const affiliatePlaceholder = "HL7 Affiliate"

// Affiliates lists the bold names inside the demographics boxes of the
// international leadership page.
func Affiliates(ctx context.Context, doc *goquery.Document) tabular.Table {
	_, span := tracer.Start(ctx, "Affiliates")
	defer span.End()

	table := tabular.Table{Columns: []string{"Affiliate"}}
	doc.Find("div.demographics").Each(func(_ int, div *goquery.Selection) {
		b := div.Find("b").First()
		if b.Length() == 0 {
			return
		}
		name := htmlutil.Text(b)
		if name == affiliatePlaceholder {
			return
		}
		table.AddRow(name)
	})
	return table
}

// Board lists the board of directors. Members without both a title and a
// name are skipped, a missing term is reported as N/A.
func Board(ctx context.Context, doc *goquery.Document, reporter telemetry.API) tabular.Table {
	_, span := tracer.Start(ctx, "Board")
	defer span.End()

	table := tabular.Table{Columns: []string{"Title", "Name", "Term Expiry"}}
	doc.Find("div.directory-member").Each(func(i int, div *goquery.Selection) {
		title := div.Find("b").First()
		name := div.Find(`span[style="font-weight:400"]`).First()
		if title.Length() == 0 || name.Length() == 0 {
			reporter.ReportWarning("board-member", "index", i)
			return
		}
		term := "N/A"
		if t := div.Find("span.directory-term").First(); t.Length() > 0 {
			term = htmlutil.Text(t)
		}
		table.AddRow(htmlutil.Text(title), htmlutil.Text(name), term)
	})
	return table
}

// Staff lists staff members. Each member's link holds the title followed by
// the name as separate text nodes.
func Staff(ctx context.Context, doc *goquery.Document, reporter telemetry.API) tabular.Table {
	_, span := tracer.Start(ctx, "Staff")
	defer span.End()

	table := tabular.Table{Columns: []string{"Name", "Title"}}
	doc.Find("div.directory-member").Each(func(i int, div *goquery.Selection) {
		anchor := div.Find("a").First()
		if anchor.Length() == 0 {
			return
		}
		parts := htmlutil.TextParts(anchor)
		if len(parts) < 2 {
			reporter.ReportWarning("staff-member", "index", i, "text", strings.Join(parts, " "))
			return
		}
		table.AddRow(strings.Join(parts[1:], " "), parts[0])
	})
	return table
}

// Benefactors lists every link inside the headed link boxes of the
// benefactors page.
func Benefactors(ctx context.Context, doc *goquery.Document) tabular.Table {
	_, span := tracer.Start(ctx, "Benefactors")
	defer span.End()

	table := tabular.Table{Columns: []string{"Benefactor"}}
	doc.Find("div.linkboxcontainer").Each(func(_ int, box *goquery.Selection) {
		if box.Find("h2").Length() == 0 {
			return
		}
		for _, a := range htmlutil.GetAnchors(ctx, box.Find("a")) {
			table.AddRow(a.Name)
		}
	})
	return table
}
