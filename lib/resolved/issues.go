package resolved

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"
)

const (
	ColumnIssue           = "Issue"
	ColumnCreated         = "Created Date"
	ColumnResolved        = "Resolution Date"
	ColumnReporter        = "Reporter"
	ColumnIssueType       = "Issue Type"
	ColumnRealm           = "Realm"
	ColumnWG              = "WG"
	ColumnWGName          = "WG Name"
	ColumnSpecification   = "Specification"
	ColumnSpecName        = "Specification Display Name"
	ColumnProductFamily   = "Product Family"
	ColumnResolvedRealm   = "Resolved Realm"
	ColumnDays            = "Days to Resolution"
	ColumnCreationMonth   = "Creation Month"
	ColumnResolutionMonth = "Resolution Month"
)

var timestampLayouts = []string{
	"2006-01-02T15:04:05Z0700",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp reads the timestamps of Jira exports, REST
// (2024-03-01T10:15:00.000+0000) as well as csv ones. Times without an
// offset are UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ProductFamily is the project prefix of an issue key, e.g. FHIR for
// FHIR-123.
func ProductFamily(issueKey string) string {
	family, _, _ := strings.Cut(strings.TrimSpace(issueKey), "-")
	return family
}

// Issue is one row of an issue export, timestamps are only meaningful when
// their Has flag is set.
type Issue struct {
	Key           string
	Reporter      string
	Type          string
	Realm         string
	WGName        string
	Specification string
	ProductFamily string

	Created     time.Time
	HasCreated  bool
	Resolved    time.Time
	HasResolved bool
}

// Days to resolution, ok is false unless both timestamps are known.
func (i Issue) Days() (float64, bool) {
	if !i.HasCreated || !i.HasResolved {
		return 0, false
	}
	return i.Resolved.Sub(i.Created).Hours() / 24, true
}

func (i Issue) CreatedIn(p Period) bool {
	return i.HasCreated && p.Contains(i.Created)
}

func (i Issue) ResolvedIn(p Period) bool {
	return i.HasResolved && p.Contains(i.Resolved)
}

// OpenAtEnd reports whether the issue existed and was still unresolved when
// the period ended.
func (i Issue) OpenAtEnd(p Period) bool {
	return i.HasCreated && i.Created.Before(p.End) &&
		(!i.HasResolved || !i.Resolved.Before(p.End))
}

// Dataset is a parsed issue export.
type Dataset struct {
	Issues       []Issue
	HasIssueType bool
}

func firstColumn(columns []string, names ...string) string {
	for _, n := range names {
		if slices.Contains(columns, n) {
			return n
		}
	}
	return ""
}

// ReadDataset parses an issue export, enhanced or not. WG and Specification
// stand in for their display name columns, a missing Product Family is
// taken from the issue key. Unreadable timestamps are reported and treated
// as unknown.
func ReadDataset(t tabular.Table, reporter telemetry.API) (Dataset, error) {
	for _, required := range []string{ColumnCreated, ColumnResolved, ColumnReporter} {
		if !slices.Contains(t.Columns, required) {
			return Dataset{}, fmt.Errorf("column %q not found in issues", required)
		}
	}
	wgColumn := firstColumn(t.Columns, ColumnWGName, ColumnWG)
	specColumn := firstColumn(t.Columns, ColumnSpecName, ColumnSpecification)
	hasFamily := slices.Contains(t.Columns, ColumnProductFamily)

	out := Dataset{HasIssueType: slices.Contains(t.Columns, ColumnIssueType)}
	for i, r := range t.Rows {
		issue := Issue{
			Key:           strings.TrimSpace(r.Get(ColumnIssue)),
			Reporter:      strings.TrimSpace(r.Get(ColumnReporter)),
			Type:          strings.TrimSpace(r.Get(ColumnIssueType)),
			Realm:         strings.TrimSpace(r.Get(ColumnRealm)),
			WGName:        strings.TrimSpace(r.Get(wgColumn)),
			Specification: strings.TrimSpace(r.Get(specColumn)),
		}
		if hasFamily {
			issue.ProductFamily = strings.TrimSpace(r.Get(ColumnProductFamily))
		} else if issue.Key != "" {
			issue.ProductFamily = ProductFamily(issue.Key)
		}

		created := r.Get(ColumnCreated)
		issue.Created, issue.HasCreated = ParseTimestamp(created)
		if !issue.HasCreated && strings.TrimSpace(created) != "" {
			reporter.ReportWarning("timestamp", "line", i+2, "column", ColumnCreated, "value", created)
		}
		resolved := r.Get(ColumnResolved)
		issue.Resolved, issue.HasResolved = ParseTimestamp(resolved)
		if !issue.HasResolved && strings.TrimSpace(resolved) != "" {
			reporter.ReportWarning("timestamp", "line", i+2, "column", ColumnResolved, "value", resolved)
		}
		out.Issues = append(out.Issues, issue)
	}
	return out, nil
}
