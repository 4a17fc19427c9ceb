package jira

import (
	"sort"
	"strings"
	"time"

	"hl7tools/lib/flatten"
	"hl7tools/lib/tabular"
)

type Mapping struct {
	Path   string
	Column string
}

// Mappings name the HL7 Jira fields, custom fields are only known by id
// upstream.
var Mappings = []Mapping{
	{Path: "key", Column: "Issue"},
	{Path: "fields.summary", Column: "Summary"},
	{Path: "fields.issuetype.name", Column: "Issue Type"},
	{Path: "fields.customfield_13704.value", Column: "Realm"},
	{Path: "fields.customfield_10612", Column: "Related URL"},
	{Path: "fields.customfield_10618", Column: "Resolution"},
	{Path: "fields.creator.displayName", Column: "Reporter"},
	{Path: "fields.customfield_13714.displayName", Column: "Project Facilitator"},
	{Path: "fields.customfield_13716.displayName", Column: "Publishing Facilitator"},
	{Path: "fields.customfield_12316", Column: "Approval Date"},
	{Path: "fields.customfield_11302", Column: "Specification"},
	{Path: "fields.created", Column: "Created Date"},
	{Path: "fields.resolutiondate", Column: "Resolution Date"},
	{Path: "fields.customfield_11400", Column: "WG"},
}

const (
	keyPath        = "key"
	relatedURLPath = "fields.customfield_10612"
	reporterPath   = "fields.creator.displayName"
)

func ColumnFor(path string) string {
	for _, m := range Mappings {
		if m.Path == path {
			return m.Column
		}
	}
	return path
}

// DefaultPaths is every mapped field.
func DefaultPaths() []string {
	out := make([]string, len(Mappings))
	for i, m := range Mappings {
		out[i] = m.Path
	}
	return out
}

// Fields declares the output columns for the given field specs. Plain paths
// take their column name from Mappings and join list values, a spec may
// still override both with `path:Column|mode`.
func Fields(specs []string) ([]flatten.Field, error) {
	fields := make([]flatten.Field, 0, len(specs))
	for _, spec := range specs {
		spec = strings.TrimSpace(spec)
		f, err := flatten.ParseFieldSpec(spec)
		if err != nil {
			return nil, err
		}
		if f.Column == f.Path.String() {
			f.Column = ColumnFor(f.Path.String())
		}
		if !declaresMode(spec) {
			f.Mode = flatten.ModeJoin
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func declaresMode(spec string) bool {
	_, modifiers := flatten.SplitFieldSpec(spec)
	for _, m := range modifiers {
		_, err := flatten.ParseMode(strings.TrimSpace(m))
		if err == nil {
			return true
		}
	}
	return false
}

// MarkdownLinks turns issue keys and related urls into links.
func MarkdownLinks() map[string]func(string) string {
	return map[string]func(string) string{
		ColumnFor(keyPath):        tabular.LinkTo(BrowseURL),
		ColumnFor(relatedURLPath): tabular.SelfLink,
	}
}

// ExportTable flattens issues, with addType a constant `type` column holding
// "M" is inserted as the third column.
func ExportTable(issues []any, schema flatten.Schema, addType bool) tabular.Table {
	t := tabular.FromSchema(schema, issues)
	if !addType {
		return t
	}

	const typeColumn, typePosition = "type", 2
	for i, r := range t.Rows {
		t.Rows[i] = r.Insert(typePosition, typeColumn, "M")
	}
	t.Columns = flatten.NewRow(t.Columns, nil).Insert(typePosition, typeColumn, "").Columns
	return t
}

var (
	earliest = time.Time{}
	latest   = time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC)
	// issues without the field at all sort as if resolved at the end of time
	unresolved = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)
)

const resolutionLayout = "2006-01-02T15:04:05-0700"

func resolutionTime(issue any) time.Time {
	obj, _ := issue.(map[string]any)
	fields, ok := obj["fields"].(map[string]any)
	if !ok {
		return unresolved
	}
	raw, present := fields["resolutiondate"]
	if !present {
		return unresolved
	}
	s, _ := raw.(string)
	if s == "" {
		return earliest
	}
	t, err := time.Parse(resolutionLayout, s)
	if err != nil {
		return latest
	}
	return t
}

// SortByResolutionDate orders issues by fields.resolutiondate when the first
// issue carries the field. Unset dates sort first and malformed ones last.
func SortByResolutionDate(issues []any) {
	if len(issues) == 0 {
		return
	}
	first, ok := issues[0].(map[string]any)
	if !ok {
		return
	}
	fields, ok := first["fields"].(map[string]any)
	if !ok {
		return
	}
	if _, present := fields["resolutiondate"]; !present {
		return
	}

	sort.SliceStable(issues, func(a, b int) bool {
		return resolutionTime(issues[a]).Before(resolutionTime(issues[b]))
	})
}
