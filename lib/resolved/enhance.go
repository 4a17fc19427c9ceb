package resolved

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"

	"hl7tools/lib/flatten"
	"hl7tools/lib/specs"
	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"
)

// correction fixes a value Jira is known to hold wrong for one issue.
type correction struct {
	issue  string
	column string
	value  string
}

var corrections = []correction{
	{issue: "V2-25638", column: ColumnSpecification, value: "V2-lri"},
	{issue: "V2-15528", column: ColumnWG, value: "v2mg"},
}

// Catalog is the specification and work group metadata issues are enhanced
// with.
type Catalog struct {
	Specs      map[string]specs.Spec
	Workgroups map[string]string
}

// SpecDisplayName is the catalog name of a specification. V2 issues filed
// against "core" mean the V2 core standard.
func (c Catalog) SpecDisplayName(specKey, family string) string {
	if specKey == "core" && family == "V2" {
		return "V2 Core (V2)"
	}
	return c.Specs[specKey].Name
}

// DaysToResolution keeps three significant figures.
func DaysToResolution(created, resolved string) string {
	start, ok := ParseTimestamp(created)
	if !ok {
		return ""
	}
	end, ok := ParseTimestamp(resolved)
	if !ok {
		return ""
	}
	days := end.Sub(start).Hours() / 24
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(days, 'g', 3, 64), 64)
	if err != nil {
		return ""
	}
	return strconv.FormatFloat(rounded, 'f', -1, 64)
}

// Month is the year and month of a timestamp in its own offset.
func Month(timestamp string) string {
	t, ok := ParseTimestamp(timestamp)
	if !ok {
		return ""
	}
	return t.Format("2006-01")
}

func enhancedColumns(columns []string) []string {
	out := slices.Clone(columns)
	appendMissing := func(c string) {
		if !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	if slices.Contains(columns, ColumnSpecification) {
		appendMissing(ColumnRealm)
		appendMissing(ColumnSpecName)
		appendMissing(ColumnProductFamily)
		appendMissing(ColumnResolvedRealm)
	}
	if slices.Contains(columns, ColumnWG) && !slices.Contains(out, ColumnWGName) {
		at := slices.Index(out, ColumnWG) + 1
		out = slices.Insert(out, at, ColumnWGName)
	}
	appendMissing(ColumnProductFamily)
	appendMissing(ColumnDays)
	appendMissing(ColumnCreationMonth)
	appendMissing(ColumnResolutionMonth)
	return out
}

// Enhance adds specification names, realms, work group names and
// resolution timing to an issue export. The resolved realm replaces the
// Realm column wherever one was found. Every specification whose realm
// stays unknown is reported once.
func Enhance(ctx context.Context, export tabular.Table, catalog Catalog, resolver *specs.Resolver, reporter telemetry.API) (tabular.Table, error) {
	if !slices.Contains(export.Columns, ColumnIssue) {
		return tabular.Table{}, fmt.Errorf("column %q not found in issues", ColumnIssue)
	}
	hasSpec := slices.Contains(export.Columns, ColumnSpecification)
	hasWG := slices.Contains(export.Columns, ColumnWG)
	hasFamily := slices.Contains(export.Columns, ColumnProductFamily)

	out := tabular.Table{Columns: enhancedColumns(export.Columns)}
	unresolved := map[string]bool{}
	for _, r := range export.Rows {
		cells := r.Map()
		key := strings.TrimSpace(cells[ColumnIssue])
		for _, c := range corrections {
			_, present := cells[c.column]
			if key == c.issue && present {
				slog.Info("corrected issue", "issue", key, "column", c.column, "value", c.value)
				cells[c.column] = c.value
			}
		}

		if !hasFamily {
			cells[ColumnProductFamily] = ProductFamily(key)
		}
		if hasSpec {
			spec := strings.TrimSpace(cells[ColumnSpecification])
			cells[ColumnSpecName] = catalog.SpecDisplayName(spec, cells[ColumnProductFamily])
			realm := resolver.Resolve(ctx, spec)
			cells[ColumnResolvedRealm] = realm
			if realm != "" {
				cells[ColumnRealm] = realm
			} else if spec != "" {
				unresolved[spec] = true
			}
		}
		if hasWG {
			cells[ColumnWGName] = catalog.Workgroups[strings.TrimSpace(cells[ColumnWG])]
		}
		cells[ColumnDays] = DaysToResolution(cells[ColumnCreated], cells[ColumnResolved])
		cells[ColumnCreationMonth] = Month(cells[ColumnCreated])
		cells[ColumnResolutionMonth] = Month(cells[ColumnResolved])

		values := make([]string, len(out.Columns))
		for i, c := range out.Columns {
			values[i] = cells[c]
		}
		out.Rows = append(out.Rows, flatten.NewRow(out.Columns, values))
	}

	missing := make([]string, 0, len(unresolved))
	for spec := range unresolved {
		missing = append(missing, spec)
	}
	sort.Strings(missing)
	for _, spec := range missing {
		reporter.ReportWarning("realm", "spec", spec)
	}
	return out, nil
}
