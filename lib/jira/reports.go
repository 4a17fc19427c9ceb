package jira

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"hl7tools/lib/flatten"
	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"
	"hl7tools/lib/textutil"
)

// tally counts keys keeping the order they were first seen in.
type tally struct {
	order  []string
	counts map[string]int
}

func newTally() *tally {
	return &tally{counts: map[string]int{}}
}

func (t *tally) add(key string) {
	if _, seen := t.counts[key]; !seen {
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

func (t *tally) table(keyColumn, countColumn string, keys []string) tabular.Table {
	out := tabular.Table{Columns: []string{keyColumn, countColumn}}
	for _, k := range keys {
		out.AddRow(k, strconv.Itoa(t.counts[k]))
	}
	return out
}

// UniqueReporters counts issues per reporter. Names are NFKC normalized so
// visually identical names count once, issues without a reporter are
// skipped.
func UniqueReporters(issues []any) tabular.Table {
	path := flatten.MustParsePath(reporterPath)
	counts := newTally()
	for _, issue := range issues {
		v, found := path.Resolve(issue)
		if !found {
			continue
		}
		name, ok := v.(string)
		if !ok {
			continue
		}
		name = textutil.NormalizeName(name)
		if name == "" {
			continue
		}
		counts.add(name)
	}
	return counts.table("Reporter", "Count", counts.order)
}

// CSVResolvedLayout is the date format of the Resolved column in Jira's csv
// export.
const CSVResolvedLayout = "2006-01-02 15:04"

// DayLayout buckets timestamps per calendar day.
const DayLayout = "2006 01 02"

// ResolvedTotals counts rows of a Jira csv export per resolution day, days
// keep the order they first appear in. Rows with an unparsable date are
// reported and left out.
func ResolvedTotals(export tabular.Table, column string, reporter telemetry.API) (tabular.Table, error) {
	if !contains(export.Columns, column) {
		return tabular.Table{}, fmt.Errorf("column %q not found in export", column)
	}
	counts := newTally()
	for i, row := range export.Rows {
		raw := strings.TrimSpace(row.Get(column))
		resolved, err := time.Parse(CSVResolvedLayout, raw)
		if err != nil {
			reporter.ReportWarning("resolved-date", "row", i+1, "value", raw)
			continue
		}
		counts.add(resolved.Format(DayLayout))
	}
	return counts.table("resolved", "count", counts.order), nil
}

// ReporterTotals counts rows of a Jira csv export per reporter, sorted by
// reporter name.
func ReporterTotals(export tabular.Table, column string) (tabular.Table, error) {
	if !contains(export.Columns, column) {
		return tabular.Table{}, fmt.Errorf("column %q not found in export", column)
	}
	counts := newTally()
	for _, row := range export.Rows {
		name := strings.TrimSpace(row.Get(column))
		if name == "" {
			continue
		}
		counts.add(name)
	}
	keys := append([]string(nil), counts.order...)
	sort.Strings(keys)
	return counts.table("reporter", "count", keys), nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
