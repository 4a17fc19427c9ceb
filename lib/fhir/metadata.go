package fhir

import (
	"fmt"
	"strings"

	"hl7tools/lib/flatten"
	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"
)

// NormalizePackageID is how package ids are compared against the registry's
// npm-name.
func NormalizePackageID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// RegistryGuides returns the guide objects of the IG registry listing.
func RegistryGuides(registry any) ([]map[string]any, error) {
	records, err := flatten.Records(registry, "guides")
	if err != nil {
		return nil, fmt.Errorf("read ig registry: %w", err)
	}
	guides := make([]map[string]any, 0, len(records))
	for _, r := range records {
		guide, ok := r.(map[string]any)
		if ok {
			guides = append(guides, guide)
		}
	}
	return guides, nil
}

// FindGuide looks a guide up by package id, case-insensitively.
func FindGuide(guides []map[string]any, packageID string) (map[string]any, bool) {
	want := NormalizePackageID(packageID)
	for _, g := range guides {
		name, _ := g["npm-name"].(string)
		if NormalizePackageID(name) == want {
			return g, true
		}
	}
	return nil, false
}

// GuideCountry is the registry country of a package, empty when unknown.
func GuideCountry(guides []map[string]any, packageID string) string {
	guide, ok := FindGuide(guides, packageID)
	if !ok {
		return ""
	}
	country, _ := flatten.ScalarString(guide["country"])
	return country
}

func registryMetadataFields() []flatten.Field {
	return []flatten.Field{
		flatten.MustField("id", "package-id"),
		flatten.MustField("guide.canonical", "canonical"),
		flatten.MustField("guide.name", "title"),
		flatten.MustField(`edition["ig-version"]`, "version"),
		flatten.MustField("guide.description", "desc"),
		flatten.MustField("edition.url", "path"),
		flatten.MustField("edition.name", "status"),
		flatten.MustField(`edition["fhir-version"]`, "fhirversion").Join(ListJoinDelimiter),
		flatten.MustField("guide.country", "country").Join(ListJoinDelimiter),
		flatten.Constant("editors", ""),
	}
}

// RegistryMetadata lists the registry editions of each requested package,
// one row per edition. Ids the registry does not know are reported and
// returned in order.
func RegistryMetadata(registry any, packageIDs []string, reporter telemetry.API) (tabular.Table, []string, error) {
	guides, err := RegistryGuides(registry)
	if err != nil {
		return tabular.Table{}, nil, err
	}

	var (
		records []any
		missing []string
	)
	for _, raw := range packageIDs {
		id := NormalizePackageID(raw)
		if id == "" {
			continue
		}
		guide, ok := FindGuide(guides, id)
		if !ok {
			reporter.ReportWarning("package-id", "id", id)
			missing = append(missing, id)
			continue
		}
		editions, _ := guide["editions"].([]any)
		for _, e := range editions {
			records = append(records, map[string]any{"id": id, "guide": guide, "edition": e})
		}
	}

	schema, err := flatten.NewSchema(registryMetadataFields(), flatten.WithReporter(reporter))
	if err != nil {
		return tabular.Table{}, nil, err
	}
	return tabular.FromSchema(schema, records), missing, nil
}

// MissingTable is the one column listing of package ids without a match.
func MissingTable(ids []string) tabular.Table {
	t := tabular.Table{Columns: []string{"Failed Package-IDs"}}
	for _, id := range ids {
		t.AddRow(id)
	}
	return t
}

// PackageDetailColumns are the columns of a package-list details csv.
var PackageDetailColumns = []string{
	"package-id", "canonical", "title", "version", "desc", "path", "status",
	"sequence", "fhirversion", "date", "current", "country",
}

// PackageDetails flattens every edition of a package-list into the detail
// columns, the country comes from the registry. An edition without
// `current` is not the current one.
func PackageDetails(packageList any, country string, reporter telemetry.API) (tabular.Table, error) {
	editions, err := Editions(packageList, map[string]any{"country": country})
	if err != nil {
		return tabular.Table{}, err
	}

	fields := make([]flatten.Field, len(PackageDetailColumns))
	for i, c := range PackageDetailColumns {
		fields[i] = flatten.Field{Path: flatten.KeyPath(c), Column: c}.Join(ListJoinDelimiter)
	}

	schema, err := flatten.NewSchema(fields, flatten.WithReporter(reporter))
	if err != nil {
		return tabular.Table{}, err
	}
	t := tabular.FromSchema(schema, editions)
	for _, r := range t.Rows {
		for i, c := range r.Columns {
			if c == "current" && r.Values[i] == "" {
				r.Values[i] = "false"
			}
		}
	}
	return t, nil
}

// NormalizeEditionPath makes edition urls comparable: lower case, https and
// no trailing slash.
func NormalizeEditionPath(path string) string {
	path = strings.ToLower(strings.TrimSpace(path))
	path = strings.Replace(path, "http://", "https://", 1)
	return strings.TrimRight(path, "/")
}

// ParentPackageListURL is the package-list.json of the guide an edition
// url belongs to, e.g. https://hl7.org/fhir/us/vrdr/STU3/ gives
// https://hl7.org/fhir/us/vrdr/package-list.json.
func ParentPackageListURL(editionURL string) (string, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(editionURL), "/")
	slash := strings.LastIndexByte(trimmed, '/')
	if slash < 0 || strings.HasSuffix(trimmed[:slash], ":/") {
		return "", fmt.Errorf("%q has no parent path", editionURL)
	}
	return PackageListURL(trimmed[:slash]), nil
}

// EditionsAtPath keeps the rows whose path is the given edition url.
func EditionsAtPath(t tabular.Table, editionURL string) tabular.Table {
	want := NormalizeEditionPath(editionURL)
	out := tabular.Table{Columns: t.Columns}
	for _, r := range t.Rows {
		if NormalizeEditionPath(r.Get("path")) == want {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// DetailsFileName names a per-package csv, dots in the id become
// underscores.
func DetailsFileName(packageID string) string {
	if packageID == "" {
		packageID = "unknown"
	}
	return strings.ReplaceAll(packageID, ".", "_") + "_entries.csv"
}
