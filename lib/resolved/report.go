package resolved

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"

	"hl7tools/lib/tabular"
)

const (
	unknown     = "Unknown"
	topN        = 10
	minTypeP80  = 5
	reportTitle = "Issue Resolution Summary Report"
)

var metricColumns = []string{"New", "Resolved", "Backlog", "Ave (days)", "Median (days)", "P80 (days)", "Performance"}

// Metrics are the counts and resolution times of a group of issues over a
// period.
type Metrics struct {
	New       int
	Resolved  int
	Backlog   int
	Durations Durations
}

// Measure counts the issues created and resolved in p, those still open at
// its end, and summarizes the resolution times of the resolved ones.
func Measure(issues []Issue, p Period) Metrics {
	var (
		m    Metrics
		days []float64
	)
	for _, i := range issues {
		if i.CreatedIn(p) {
			m.New++
		}
		if i.ResolvedIn(p) {
			m.Resolved++
			d, ok := i.Days()
			if ok {
				days = append(days, d)
			}
		}
		if i.OpenAtEnd(p) {
			m.Backlog++
		}
	}
	m.Durations = Summarize(days)
	return m
}

func (m Metrics) idle() bool {
	return m.New == 0 && m.Resolved == 0 && m.Backlog == 0
}

func (m Metrics) cells() []string {
	return append([]string{strconv.Itoa(m.New), strconv.Itoa(m.Resolved), strconv.Itoa(m.Backlog)}, m.Durations.Cells()...)
}

// ReporterSummary describes who filed issues in a period.
type ReporterSummary struct {
	Total      int
	New        int
	PercentNew float64
	// Top excludes staff, both lists are ranked by issue count then name.
	TopInPeriod []Count
	TopThrough  []Count
}

type Count struct {
	Name  string
	Count int
}

func rank(counts map[string]int, staff map[string]bool) []Count {
	var out []Count
	for name, n := range counts {
		if !staff[name] {
			out = append(out, Count{Name: name, Count: n})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Count != out[b].Count {
			return out[a].Count > out[b].Count
		}
		return out[a].Name < out[b].Name
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// Reporters summarizes the reporters of p. A reporter is new when they
// filed nothing before p started.
func Reporters(issues []Issue, p Period, staff []string) ReporterSummary {
	excluded := map[string]bool{}
	for _, s := range staff {
		excluded[s] = true
	}
	before := map[string]bool{}
	inPeriod := map[string]int{}
	through := map[string]int{}
	for _, i := range issues {
		if i.Reporter == "" || !i.HasCreated {
			continue
		}
		if i.Created.Before(p.Start) {
			before[i.Reporter] = true
		}
		if i.CreatedIn(p) {
			inPeriod[i.Reporter]++
		}
		if i.Created.Before(p.End) {
			through[i.Reporter]++
		}
	}

	s := ReporterSummary{
		Total:       len(inPeriod),
		TopInPeriod: rank(inPeriod, excluded),
		TopThrough:  rank(through, excluded),
	}
	for name := range inPeriod {
		if !before[name] {
			s.New++
		}
	}
	if s.Total > 0 {
		s.PercentNew = float64(s.New) / float64(s.Total) * 100
	}
	return s
}

// IssueTypes is the per type breakdown of p, busiest type first. P80 and
// band need at least five resolved issues of the type.
func IssueTypes(issues []Issue, p Period) tabular.Table {
	type typeStats struct {
		new, backlog int
		days         []float64
		resolved     int
	}
	byType := map[string]*typeStats{}
	get := func(name string) *typeStats {
		s, ok := byType[name]
		if !ok {
			s = &typeStats{}
			byType[name] = s
		}
		return s
	}
	for _, i := range issues {
		if i.Type == "" {
			continue
		}
		if i.CreatedIn(p) {
			get(i.Type).new++
		}
		if i.ResolvedIn(p) {
			s := get(i.Type)
			s.resolved++
			d, ok := i.Days()
			if ok {
				s.days = append(s.days, d)
			}
		}
		if i.OpenAtEnd(p) {
			get(i.Type).backlog++
		}
	}

	names := make([]string, 0, len(byType))
	for name := range byType {
		names = append(names, name)
	}
	sort.Slice(names, func(a, b int) bool {
		na, nb := byType[names[a]].new, byType[names[b]].new
		if na != nb {
			return na > nb
		}
		return names[a] < names[b]
	})

	t := tabular.Table{Columns: []string{"Issue Type", "New", "Resolved", "Backlog", "Avg Days", "Median Days", "P80 Days", "Performance"}}
	for _, name := range names {
		s := byType[name]
		d := Summarize(s.days)
		cells := d.Cells()
		if d.Count < minTypeP80 {
			cells[2], cells[3] = notAvailable, notAvailable
		}
		t.AddRow(append([]string{name, strconv.Itoa(s.new), strconv.Itoa(s.resolved), strconv.Itoa(s.backlog)}, cells...)...)
	}
	return t
}

func categories(issues []Issue, key func(Issue) string) []string {
	seen := map[string]bool{}
	var out []string
	for _, i := range issues {
		k := key(i)
		if k != "" && !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func filter(issues []Issue, keep func(Issue) bool) []Issue {
	var out []Issue
	for _, i := range issues {
		if keep(i) {
			out = append(out, i)
		}
	}
	return out
}

// Breakdown has a row per category and period, issues without a value for
// the category are left out.
func Breakdown(issues []Issue, periods []Period, column string, key func(Issue) string) tabular.Table {
	t := tabular.Table{Columns: append([]string{column, "Period"}, metricColumns...)}
	for _, c := range categories(issues, key) {
		group := filter(issues, func(i Issue) bool { return key(i) == c })
		for _, p := range periods {
			t.AddRow(append([]string{c, p.Label}, Measure(group, p).cells()...)...)
		}
	}
	return t
}

// SpecificationBreakdown splits every specification by realm, issues
// without a realm count as Unknown. Rows without any activity are skipped.
func SpecificationBreakdown(issues []Issue, periods []Period) tabular.Table {
	t := tabular.Table{Columns: append([]string{ColumnSpecName, ColumnRealm, "Period"}, metricColumns...)}
	realmOf := func(i Issue) string {
		if i.Realm == "" {
			return unknown
		}
		return i.Realm
	}
	for _, spec := range categories(issues, func(i Issue) string { return i.Specification }) {
		group := filter(issues, func(i Issue) bool { return i.Specification == spec })
		var realms []string
		for _, i := range group {
			if !slices.Contains(realms, realmOf(i)) {
				realms = append(realms, realmOf(i))
			}
		}
		for _, realm := range realms {
			inRealm := filter(group, func(i Issue) bool { return realmOf(i) == realm })
			for _, p := range periods {
				m := Measure(inRealm, p)
				if m.idle() {
					continue
				}
				t.AddRow(append([]string{spec, realm, p.Label}, m.cells()...)...)
			}
		}
	}
	return t
}

// WGRealmBreakdown counts issues per work group and realm with the share of
// the work group's issues, only issues with both set are counted.
func WGRealmBreakdown(issues []Issue) tabular.Table {
	type pair struct{ wg, realm string }
	counts := map[pair]int{}
	totals := map[string]int{}
	for _, i := range issues {
		if i.WGName == "" || i.Realm == "" {
			continue
		}
		counts[pair{i.WGName, i.Realm}]++
		totals[i.WGName]++
	}
	pairs := make([]pair, 0, len(counts))
	for p := range counts {
		pairs = append(pairs, p)
	}
	sort.Slice(pairs, func(a, b int) bool {
		pa, pb := pairs[a], pairs[b]
		if pa.wg != pb.wg {
			return pa.wg < pb.wg
		}
		if counts[pa] != counts[pb] {
			return counts[pa] > counts[pb]
		}
		return pa.realm < pb.realm
	})

	t := tabular.Table{Columns: []string{ColumnWGName, ColumnRealm, "Total Issues", "% within WG"}}
	for _, p := range pairs {
		share := math.Round(float64(counts[p])/float64(totals[p.wg])*1000) / 10
		t.AddRow(p.wg, p.realm, strconv.Itoa(counts[p]), fmt.Sprintf("%.1f%%", share))
	}
	return t
}

func anchor(heading string) string {
	return strings.ReplaceAll(strings.ToLower(heading), " ", "-")
}

type reportWriter struct {
	buf bytes.Buffer
	err error
}

func (w *reportWriter) line(format string, args ...any) {
	fmt.Fprintf(&w.buf, format+"\n", args...)
}

func (w *reportWriter) table(t tabular.Table) {
	if w.err != nil {
		return
	}
	w.err = tabular.WriteMarkdown(&w.buf, t, tabular.MarkdownOptions{})
	w.line("")
}

func (w *reportWriter) heading(level int, title string) {
	w.line("%s %s\n", strings.Repeat("#", level), title)
}

var guide = []string{
	"- **New:** Issues created during the period",
	"- **Resolved:** Issues with a resolution date during the period. Jira sets the resolution date when an issue gets a (proposed) disposition, not when the change is applied to the specification.",
	"- **Backlog:** Issues created before the end of the period that were still unresolved at its end",
	"- **Ave (days):** Average time to resolution of the issues resolved in the period",
	"- **Median (days):** Half of those issues were resolved faster than this",
	"- **P80 (days):** 80% of those issues were resolved faster than this",
}

var bands = [][]string{
	{"🏎️ Presto", "≤ 60", "80% of issues close within two months."},
	{"🚴 Allegro", "61 – 180", "80% close within six months."},
	{"🚶 Andante", "181 – 365", "80% close within a year."},
	{"🐢 Adagio", "> 365", "More than 20% of issues take over a year."},
}

// ReportOptions configure the summary report, the first period gets the
// reporter leaderboards.
type ReportOptions struct {
	Periods []Period
	// Staff are reporter names left out of the leaderboards.
	Staff []string
}

// WriteReport renders the markdown resolution summary of a dataset.
func WriteReport(out io.Writer, data Dataset, opts ReportOptions) error {
	if len(opts.Periods) == 0 {
		return fmt.Errorf("report needs at least one period")
	}
	issues := data.Issues
	primary := opts.Periods[0]
	w := &reportWriter{}

	w.heading(1, reportTitle)
	w.line("> **Analysis Period:** %s\n", primary.Describe())

	w.heading(2, "Table of Contents")
	sections := []string{"How to Read This Report", "Overall Summary", "Summary by Analysis Period"}
	for _, p := range opts.Periods {
		sections = append(sections, "Breakdown by Period within "+p.Label)
	}
	sections = append(sections, "Issue Reporters")
	if data.HasIssueType {
		sections = append(sections, "Breakdown by Issue Type")
	}
	sections = append(sections,
		"Breakdown by Realm",
		"Breakdown by WG Name and Realm",
		"Breakdown by WG Name",
		"Breakdown by Specification",
		"Breakdown by Product Family",
	)
	for _, s := range sections {
		w.line("- [%s](#%s)", s, anchor(s))
	}
	w.line("")

	w.heading(2, "How to Read This Report")
	w.heading(3, "Key Metrics")
	for _, g := range guide {
		w.line("%s", g)
	}
	w.line("")
	w.heading(3, "Time Periods")
	w.line("- **T1:** January to April")
	w.line("- **T2:** May to August")
	w.line("- **T3:** September to December\n")
	w.heading(3, "Performance Bands")
	bandTable := tabular.Table{Columns: []string{"Band", "P80 Range (days)", "Interpretation"}}
	for _, b := range bands {
		bandTable.AddRow(b...)
	}
	w.table(bandTable)

	w.heading(2, "Overall Summary")
	var (
		resolvedCount  int
		days           []float64
		first, last    Issue
		haveDateBounds bool
	)
	for _, i := range issues {
		if i.HasResolved {
			resolvedCount++
			d, ok := i.Days()
			if ok {
				days = append(days, d)
			}
		}
		if !i.HasCreated {
			continue
		}
		if !haveDateBounds || i.Created.Before(first.Created) {
			first = i
		}
		if !haveDateBounds || i.Created.After(last.Created) {
			last = i
		}
		haveDateBounds = true
	}
	if haveDateBounds {
		w.line("This summary includes all issues in the dataset from **%s to %s**.\n",
			first.Created.UTC().Format(dayLayout), last.Created.UTC().Format(dayLayout))
	}
	overall := Summarize(days).Cells()
	w.line("- **Total Issues:** %d", len(issues))
	w.line("- **Resolved Issues:** %d", resolvedCount)
	w.line("- **Current Backlog (Unresolved):** %d", len(issues)-resolvedCount)
	w.line("- **Ave Resolution Time (days):** %s", overall[0])
	w.line("- **Median Resolution Time (days):** %s", overall[1])
	w.line("- **P80 Resolution Time (days):** %s", overall[2])
	w.line("- **Performance Band:** %s\n", overall[3])

	w.heading(2, "Summary by Analysis Period")
	summary := tabular.Table{Columns: append([]string{"Period"}, metricColumns...)}
	for _, p := range opts.Periods {
		summary.AddRow(append([]string{p.Label}, Measure(issues, p).cells()...)...)
	}
	w.table(summary)

	for _, p := range opts.Periods {
		w.heading(2, "Breakdown by Period within "+p.Label)
		w.line("This breakdown covers **%s**.\n", p.Describe())
		within := tabular.Table{Columns: summary.Columns}
		for _, tri := range p.Trimesters() {
			within.AddRow(append([]string{tri.Label}, Measure(issues, tri).cells()...)...)
		}
		w.table(within)
	}

	w.heading(2, "Issue Reporters")
	w.heading(3, "Reporter Summary")
	reporterTable := tabular.Table{Columns: []string{"Period", "Total Reporters", "New Reporters", "% New Reporters"}}
	for _, p := range opts.Periods {
		s := Reporters(issues, p, opts.Staff)
		reporterTable.AddRow(p.Label, strconv.Itoa(s.Total), strconv.Itoa(s.New), fmt.Sprintf("%.1f%%", s.PercentNew))
	}
	w.table(reporterTable)

	leaders := Reporters(issues, primary, opts.Staff)
	w.heading(3, "Top Reporters for "+primary.Label)
	w.table(leaderboard(leaders.TopInPeriod))
	w.heading(3, "Top Reporters (Through "+primary.LastDay().Format(dayLayout)+")")
	w.table(leaderboard(leaders.TopThrough))

	if data.HasIssueType {
		w.heading(2, "Breakdown by Issue Type")
		for _, p := range opts.Periods {
			types := IssueTypes(issues, p)
			if len(types.Rows) == 0 {
				continue
			}
			w.heading(3, "Issue Types for "+p.Label)
			w.table(types)
		}
	}

	w.heading(2, "Breakdown by Realm")
	w.table(Breakdown(issues, opts.Periods, ColumnRealm, func(i Issue) string { return i.Realm }))
	w.heading(2, "Breakdown by WG Name and Realm")
	w.table(WGRealmBreakdown(issues))
	w.heading(2, "Breakdown by WG Name")
	w.table(Breakdown(issues, opts.Periods, ColumnWGName, func(i Issue) string { return i.WGName }))
	w.heading(2, "Breakdown by Specification")
	w.table(SpecificationBreakdown(issues, opts.Periods))
	w.heading(2, "Breakdown by Product Family")
	w.table(Breakdown(issues, opts.Periods, ColumnProductFamily, func(i Issue) string { return i.ProductFamily }))

	if w.err != nil {
		return w.err
	}
	_, err := out.Write(w.buf.Bytes())
	return err
}

func leaderboard(counts []Count) tabular.Table {
	t := tabular.Table{Columns: []string{"Rank", "Reporter", "Issue Count"}}
	for i, c := range counts {
		t.AddRow(strconv.Itoa(i+1), c.Name, strconv.Itoa(c.Count))
	}
	return t
}
