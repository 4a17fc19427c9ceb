package hl7web

import (
	"context"
	"testing"

	"hl7tools/lib/htmlutil"
	"hl7tools/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, page string) *goquery.Document {
	t.Helper()
	doc, err := htmlutil.ParseDocument([]byte(page))
	require.NoError(t, err)
	return doc
}

func TestAffiliates(t *testing.T) {
	doc := parse(t, `<html><body>
		<div class="demographics"><b>HL7 Affiliate</b></div>
		<div class="demographics"><b> HL7 Argentina </b><p>contact</p></div>
		<div class="demographics"><p>no name</p></div>
		<div class="demographics"><b>HL7   Austria</b></div>
	</body></html>`)

	table := Affiliates(context.Background(), doc)
	require.Equal(t, []string{"Affiliate"}, table.Columns)
	require.Equal(t, []string{"HL7 Argentina", "HL7 Austria"}, table.Column("Affiliate"))
}

func TestBoard(t *testing.T) {
	doc := parse(t, `<html><body>
		<div class="directory-member"><b>Chair</b><span style="font-weight:400">Ada Lovelace</span><span class="directory-term">Term ends 2026</span></div>
		<div class="directory-member"><b>Treasurer</b><span style="font-weight:400">Grace Hopper</span></div>
		<div class="directory-member"><span style="font-weight:400">Nameless</span></div>
	</body></html>`)

	recorder := &telemetry.Recorder{}
	table := Board(context.Background(), doc, recorder)
	expected := [][]string{
		{"Chair", "Ada Lovelace", "Term ends 2026"},
		{"Treasurer", "Grace Hopper", "N/A"},
	}
	if diff := cmp.Diff(expected, table.Values()); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, []string{"board-member"}, recorder.Warnings())
}

func TestStaff(t *testing.T) {
	doc := parse(t, `<html><body>
		<div class="directory-member"><a href="/x"><span>Chief Executive Officer</span><br><strong>Jane Doe</strong></a></div>
		<div class="directory-member"><a href="/y"><span>Director</span> <strong>John</strong> <em>Smith</em></a></div>
		<div class="directory-member"><a href="/z">Only one part</a></div>
		<div class="directory-member"><p>no link</p></div>
	</body></html>`)

	recorder := &telemetry.Recorder{}
	table := Staff(context.Background(), doc, recorder)
	require.Equal(t, []string{"Name", "Title"}, table.Columns)
	expected := [][]string{
		{"Jane Doe", "Chief Executive Officer"},
		{"John Smith", "Director"},
	}
	if diff := cmp.Diff(expected, table.Values()); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, []string{"staff-member"}, recorder.Warnings())
}

func TestBenefactors(t *testing.T) {
	doc := parse(t, `<html><body>
		<div class="linkboxcontainer"><h2>Benefactors</h2><a href="https://a.example">Acme Health</a><a href="https://b.example"> Beta  Corp </a></div>
		<div class="linkboxcontainer"><a href="https://c.example">Unheaded</a></div>
	</body></html>`)

	table := Benefactors(context.Background(), doc)
	require.Equal(t, []string{"Acme Health", "Beta Corp"}, table.Column("Benefactor"))
}

const ballotPage = `<html><body><table class="bd-documents-table">
<tr><th>Ballot</th><th>Type</th><th>Aff</th><th>Neg</th><th>Abs</th><th>Pct</th><th>Quorum</th><th>TotP.</th></tr>
<tr><td>FHIR Core</td><td>Normative</td><td>10</td><td>1</td><td>2</td><td>90%</td><td>yes</td><td>1,200</td></tr>
<tr><td>US Core</td><td>STU</td><td colspan="5">Postponed until next cycle</td><td>40</td></tr>
<tr><td>CDA IG</td><td>STU</td><td colspan="2">n/a</td><td>0</td><td>0%</td><td>no</td><td>34.5</td></tr>
<tr><td>V2 Thing</td><td>Info</td><td>1</td><td>0</td><td>0</td><td>100%</td><td>yes</td><td>-</td></tr>
</table></body></html>`

func TestParseBallot(t *testing.T) {
	summary, err := ParseBallot(context.Background(), parse(t, ballotPage))
	require.NoError(t, err)

	require.Equal(t, "TotP.", summary.Main.Columns[7])
	require.Equal(t, summary.Main.Columns, summary.Postponed.Columns)

	require.Equal(t, []string{"FHIR Core", "CDA IG", "V2 Thing"}, summary.Main.Column("Ballot"))
	require.Equal(t, []string{"CDA IG", "STU", "n/a", "n/a", "0", "0%", "no", "34.5"}, summary.Main.Values()[1])

	require.Equal(t, [][]string{
		{"US Core", "STU", "Postponed", "Postponed", "Postponed", "Postponed", "Postponed", "40"},
	}, summary.Postponed.Values())

	require.Equal(t, 3, summary.DataRows)
	require.InDelta(t, 1234.5, summary.TotP, 1e-9)
	require.Equal(t, [][]string{{"3", "1234.5"}}, summary.Table().Values())
}

func TestParseBallotMissingTable(t *testing.T) {
	_, err := ParseBallot(context.Background(), parse(t, `<html><body><table></table></body></html>`))
	require.ErrorIs(t, err, ErrNoBallotTable)
}
