package hl7web

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"hl7tools/lib/htmlutil"
	"hl7tools/lib/tabular"

	"github.com/PuerkitoBio/goquery"
)

var ErrNoBallotTable = errors.New("no bd-documents-table in document")

// totPIndex is the column of the TotP. figure once colspans are expanded.
const totPIndex = 7

type BallotSummary struct {
	Main      tabular.Table
	Postponed tabular.Table
	// DataRows counts the rows of Main, header excluded.
	DataRows int
	TotP     float64
}

// Table is the one row summary written next to the ballot tables.
func (s BallotSummary) Table() tabular.Table {
	t := tabular.Table{Columns: []string{"Count of Data Rows", "Sum of TotP."}}
	t.AddRow(strconv.Itoa(s.DataRows), strconv.FormatFloat(s.TotP, 'f', -1, 64))
	return t
}

// ParseBallot splits the ballot documents table into the regular rows and the
// postponed ones. Cells spanning several columns are repeated once per column
// and a spanning cell mentioning "Postponed" marks its row as postponed. The
// first row is the header of both tables.
func ParseBallot(ctx context.Context, doc *goquery.Document) (BallotSummary, error) {
	_, span := tracer.Start(ctx, "ParseBallot")
	defer span.End()

	table := doc.Find("table.bd-documents-table").First()
	if table.Length() == 0 {
		return BallotSummary{}, ErrNoBallotTable
	}

	var summary BallotSummary
	header := true
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var row []string
		postponed := false
		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			text := htmlutil.Text(cell)
			colspan, ok := cell.Attr("colspan")
			if !ok {
				row = append(row, text)
				return
			}
			if strings.Contains(text, "Postponed") {
				postponed = true
				text = "Postponed"
			}
			n, err := strconv.Atoi(colspan)
			if err != nil || n < 1 {
				n = 1
			}
			for range n {
				row = append(row, text)
			}
		})

		switch {
		case header:
			summary.Main.Columns = row
			summary.Postponed.Columns = row
			header = false
		case postponed:
			summary.Postponed.AddRow(row...)
		default:
			summary.Main.AddRow(row...)
			summary.DataRows++
			if len(row) > totPIndex {
				v, err := strconv.ParseFloat(strings.ReplaceAll(row[totPIndex], ",", ""), 64)
				if err == nil {
					summary.TotP += v
				}
			}
		}
	})
	return summary, nil
}
