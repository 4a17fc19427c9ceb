package fhir

import (
	"fmt"
	"sort"
	"strings"

	"hl7tools/lib/flatten"
	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"
)

// PackageMetadataKeys are copied from a package-list.json onto each of its
// editions.
var PackageMetadataKeys = []string{"package-id", "title", "canonical", "introduction", "category"}

// ListJoinDelimiter joins list values such as a guide's countries.
const ListJoinDelimiter = ", "

func PackageListURL(canonical string) string {
	return strings.TrimRight(canonical, "/") + "/package-list.json"
}

// Editions returns one record per entry of a package-list.json `list`, each
// carrying the package metadata and `extra`. Metadata wins over keys of the
// same name in the entry.
func Editions(packageList any, extra map[string]any) ([]any, error) {
	doc, ok := packageList.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("package-list is %T, not an object", packageList)
	}
	list, _ := doc["list"].([]any)

	var editions []any
	for _, entry := range list {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		merged := make(map[string]any, len(item)+len(PackageMetadataKeys)+len(extra))
		for k, v := range item {
			merged[k] = v
		}
		for _, k := range PackageMetadataKeys {
			merged[k] = doc[k]
		}
		for k, v := range extra {
			merged[k] = v
		}
		editions = append(editions, merged)
	}
	return editions, nil
}

// EditionColumns lists first, then every other key seen in the records in
// sorted order.
func EditionColumns(records []any, first []string) []string {
	columns := append([]string(nil), first...)
	seen := make(map[string]bool, len(first))
	for _, k := range first {
		seen[k] = true
	}

	var rest []string
	for _, r := range records {
		obj, ok := r.(map[string]any)
		if !ok {
			continue
		}
		for k := range obj {
			if !seen[k] {
				seen[k] = true
				rest = append(rest, k)
			}
		}
	}
	sort.Strings(rest)
	return append(columns, rest...)
}

// EditionsTable flattens edition records into one column per key, list
// values are joined with ", ".
func EditionsTable(records []any, first []string, reporter telemetry.API) (tabular.Table, error) {
	columns := EditionColumns(records, first)
	fields := make([]flatten.Field, len(columns))
	for i, c := range columns {
		fields[i] = flatten.Field{Path: flatten.KeyPath(c), Column: c}.Join(ListJoinDelimiter)
	}

	opts := []flatten.Option{}
	if reporter != nil {
		opts = append(opts, flatten.WithReporter(reporter))
	}
	schema, err := flatten.NewSchema(fields, opts...)
	if err != nil {
		return tabular.Table{}, err
	}
	return tabular.FromSchema(schema, records), nil
}
