package specs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"hl7tools/lib/flatten"
	"hl7tools/lib/htmlutil"
	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, doc string) any {
	t.Helper()
	v, err := flatten.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	return v
}

const specsListing = `[
	{"key": "FHIR-us-core", "name": "US Core (FHIR)", "defaultWorkgroup": "cgp", "url": "http://hl7.org/fhir/us/core"},
	{"key": "V2-core", "name": "V2 Core"},
	{"key": "OTHER-brief", "name": "Brief", "url": "http://www.hl7.org/implement/standards/product_brief.cfm?product_id=1"},
	{"name": "no key"},
	"junk"
]`

func TestParseSpecs(t *testing.T) {
	specs, err := ParseSpecs(decode(t, specsListing))
	require.NoError(t, err)
	expected := []Spec{
		{Key: "FHIR-us-core", Name: "US Core (FHIR)", DefaultWorkgroup: "cgp", URL: "http://hl7.org/fhir/us/core"},
		{Key: "V2-core", Name: "V2 Core"},
		{Key: "OTHER-brief", Name: "Brief", URL: "http://www.hl7.org/implement/standards/product_brief.cfm?product_id=1"},
	}
	if diff := cmp.Diff(expected, specs); diff != "" {
		t.Fatal(diff)
	}

	_, err = ParseSpecs(decode(t, `{"key": "x"}`))
	require.Error(t, err)
}

func TestParseWorkgroups(t *testing.T) {
	wgs, err := ParseWorkgroups(decode(t, `[
		{"key": "cgp", "name": "Cross-Group Projects"},
		{"key": "pa", "name": "Patient Administration &amp; Scheduling"},
		{"key": "empty"}
	]`))
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"cgp": "Cross-Group Projects",
		"pa":  "Patient Administration & Scheduling",
	}, wgs)
}

func TestTableListsMissingRealms(t *testing.T) {
	specs, err := ParseSpecs(decode(t, specsListing))
	require.NoError(t, err)

	table, missing := Table(specs, []string{UnitedStates, "", ""})
	require.Equal(t, []string{"key", "name", "defaultWorkgroup", "url", "realm"}, table.Columns)
	require.Equal(t, []string{UnitedStates, "", ""}, table.Column("realm"))
	require.Equal(t, []string{"V2-core", "http://www.hl7.org/implement/standards/product_brief.cfm?product_id=1"}, missing)
}

func TestRealmFromURL(t *testing.T) {
	cases := []struct {
		url   string
		realm string
		ok    bool
	}{
		{"http://hl7.org/fhir", Universal, true},
		{"http://hl7.org/fhir/uv/ips", Universal, true},
		{"http://hl7.org/fhir/us/core", UnitedStates, true},
		{"http://hl7.org/cda/us/ccda", UnitedStates, true},
		{"http://hl7.org/cda/stds/core", Universal, true},
		{"http://hl7.org/fhir/au/base", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		realm, ok := RealmFromURL(c.url)
		require.Equal(t, c.ok, ok, c.url)
		require.Equal(t, c.realm, realm, c.url)
	}
}

func TestNormalizeRealm(t *testing.T) {
	require.Equal(t, UnitedStates, NormalizeRealm(" US Realm "))
	require.Equal(t, "Australia", NormalizeRealm("Australia"))
}

func briefPage(t *testing.T, realm string) *goquery.Document {
	t.Helper()
	doc, err := htmlutil.ParseDocument([]byte(`<html><body>
		<h3>SUMMARY</h3><ul><li>Not this</li></ul>
		<h3> Realm </h3>
		<ul><li>` + realm + `</li><li>Other</li></ul>
	</body></html>`))
	require.NoError(t, err)
	return doc
}

func TestProductBriefRealm(t *testing.T) {
	require.Equal(t, UnitedStates, ProductBriefRealm(briefPage(t, "US Realm")))
	require.Equal(t, Universal, ProductBriefRealm(briefPage(t, "Universal")))

	doc, err := htmlutil.ParseDocument([]byte(`<h3>SUMMARY</h3><ul><li>x</li></ul>`))
	require.NoError(t, err)
	require.Equal(t, "", ProductBriefRealm(doc))
}

type fakeBriefs struct {
	pages map[string]string
	calls map[string]int
}

func (f *fakeBriefs) fetch(t *testing.T) BriefFetcher {
	return func(_ context.Context, url string) (*goquery.Document, error) {
		f.calls[url]++
		realm, ok := f.pages[url]
		if !ok {
			return nil, errors.New("404")
		}
		return briefPage(t, realm), nil
	}
}

func TestResolver(t *testing.T) {
	const briefURL = "http://www.hl7.org/implement/standards/product_brief.cfm?product_id=1"
	const brokenURL = "http://www.hl7.org/implement/standards/product_brief.cfm?product_id=2"
	catalog := ByKey([]Spec{
		{Key: "FHIR-us-core", URL: "http://hl7.org/fhir/us/core"},
		{Key: "OTHER-brief", URL: briefURL},
		{Key: "OTHER-brief-again", URL: briefURL},
		{Key: "OTHER-broken", URL: brokenURL},
		{Key: "OTHER-broken-again", URL: brokenURL},
		{Key: "OTHER-plain", URL: "https://example.org"},
	})
	briefs := &fakeBriefs{pages: map[string]string{briefURL: "US Realm"}, calls: map[string]int{}}
	recorder := &telemetry.Recorder{}

	mappings := NewMappings()
	mappings.BySpec["V2-core"] = Universal
	r := NewResolver(mappings, catalog, briefs.fetch(t), recorder)
	ctx := context.Background()

	require.Equal(t, Universal, r.Resolve(ctx, "V2-core"))
	require.False(t, r.Changed())

	require.Equal(t, UnitedStates, r.Resolve(ctx, "FHIR-us-core"))
	require.True(t, r.Changed())

	require.Equal(t, UnitedStates, r.Resolve(ctx, "OTHER-brief"))
	require.Equal(t, UnitedStates, r.Resolve(ctx, "OTHER-brief-again"))
	require.Equal(t, 1, briefs.calls[briefURL])

	require.Equal(t, "", r.Resolve(ctx, "OTHER-broken"))
	require.Equal(t, "", r.Resolve(ctx, "OTHER-broken-again"))
	require.Equal(t, 1, briefs.calls[brokenURL])

	require.Equal(t, "", r.Resolve(ctx, "OTHER-plain"))
	require.Equal(t, "", r.Resolve(ctx, "unknown"))
	require.Equal(t, "", r.Resolve(ctx, ""))

	require.Equal(t, []string{"product-brief"}, recorder.Warnings())
	require.Equal(t, UnitedStates, r.Mappings().ByURL[briefURL])
	require.Equal(t, UnitedStates, r.Mappings().BySpec["FHIR-us-core"])
}

func TestResolverWithoutFetcher(t *testing.T) {
	catalog := ByKey([]Spec{{Key: "OTHER-brief", URL: "http://x.org/brief?product_id=3"}})
	r := NewResolver(NewMappings(), catalog, nil, &telemetry.Recorder{})
	require.Equal(t, "", r.Resolve(context.Background(), "OTHER-brief"))
	require.False(t, r.Changed())
}

func TestMappingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "realm_mappings.csv")

	empty, err := ReadMappings(path, &telemetry.Recorder{})
	require.NoError(t, err)
	require.Empty(t, empty.BySpec)
	require.Empty(t, empty.ByURL)

	m := DefaultMappings()
	m.ByURL["http://x.org/brief?product_id=3"] = "Canada"
	require.NoError(t, tabular.WriteCSVFile(path, m.Table(), tabular.CSVOptions{}))

	read, err := ReadMappings(path, &telemetry.Recorder{})
	require.NoError(t, err)
	if diff := cmp.Diff(m, read); diff != "" {
		t.Fatal(diff)
	}

	merged := NewMappings()
	merged.BySpec["V2-core"] = "Override"
	merged.Merge(read)
	require.Equal(t, Universal, merged.BySpec["V2-core"])
	require.Equal(t, "Australia", merged.BySpec["FHIR-au-core"])

	_, err = os.Stat(path)
	require.NoError(t, err)
}
