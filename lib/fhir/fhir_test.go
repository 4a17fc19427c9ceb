package fhir

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"hl7tools/lib/flatten"
	"hl7tools/lib/restyutil"
	"hl7tools/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, doc string) any {
	t.Helper()
	v, err := flatten.Decode(strings.NewReader(doc))
	require.NoError(t, err)
	return v
}

const usCorePackageList = `{
	"package-id": "hl7.fhir.us.core",
	"title": "US Core",
	"canonical": "http://hl7.org/fhir/us/core",
	"introduction": "intro",
	"category": "National Base",
	"list": [
		{"version": "current", "desc": "CI Build", "path": "http://build.fhir.org/ig/HL7/US-Core", "status": "ci-build", "current": true},
		{"version": "6.1.0", "date": "2023-06-19", "desc": "STU6", "path": "http://hl7.org/fhir/us/core/STU6.1", "status": "trial-use", "sequence": "STU6", "fhirversion": "4.0.1", "title": "should be overwritten"}
	]
}`

func TestEditionsTable(t *testing.T) {
	editions, err := Editions(decode(t, usCorePackageList), nil)
	require.NoError(t, err)
	require.Len(t, editions, 2)

	table, err := EditionsTable(editions, PackageMetadataKeys, &telemetry.Recorder{})
	require.NoError(t, err)
	require.Equal(t, []string{
		"package-id", "title", "canonical", "introduction", "category",
		"current", "date", "desc", "fhirversion", "path", "sequence", "status", "version",
	}, table.Columns)

	first := table.Rows[0].Map()
	require.Equal(t, "true", first["current"])
	require.Equal(t, "", first["date"])
	require.Equal(t, "US Core", table.Rows[1].Get("title"))
	require.Equal(t, "6.1.0", table.Rows[1].Get("version"))
}

func TestEditionsRejectsNonObject(t *testing.T) {
	_, err := Editions(decode(t, `[]`), nil)
	require.Error(t, err)
}

func TestCrawlerSkipsBrokenGuides(t *testing.T) {
	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/registry.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"guides": [
			{"name": "US Core", "canonical": "` + server.URL + `/us/core/", "country": "us", "language": ["en", "es"]},
			{"name": "No canonical"},
			{"name": "Gone", "canonical": "` + server.URL + `/gone"},
			{"name": "Empty list", "canonical": "` + server.URL + `/empty"}
		]}`))
	})
	mux.HandleFunc("/us/core/package-list.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\ufeff" + usCorePackageList))
	})
	mux.HandleFunc("/empty/package-list.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"package-id": "x", "list": []}`))
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	recorder := &telemetry.Recorder{}
	crawler := NewCrawler(restyutil.NewClient(restyutil.Options{}), recorder)
	editions, err := crawler.Editions(context.Background(), server.URL+"/registry.json")
	require.NoError(t, err)
	require.Len(t, editions, 2)
	require.Equal(t, []string{"guide-canonical", "package-list"}, recorder.Warnings())

	table, err := EditionsTable(editions, RegistryFirstKeys, recorder)
	require.NoError(t, err)
	require.Equal(t, RegistryFirstKeys, table.Columns[:len(RegistryFirstKeys)])
	require.Equal(t, []string{"us", "us"}, table.Column("country"))
	require.Equal(t, []string{"en, es", "en, es"}, table.Column("language"))
}

func TestCrawlerFailsOnUnreadableRegistry(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	crawler := NewCrawler(restyutil.NewClient(restyutil.Options{}), &telemetry.Recorder{})
	_, err := crawler.Editions(context.Background(), server.URL+"/registry.json")
	require.Error(t, err)
}

func TestDependents(t *testing.T) {
	registry := decode(t, `{"packages": {
		"hl7.fhir.us.davinci-pdex": {"dependencies": {"hl7.fhir.us.core": "3.1.1", "hl7.fhir.r4.core": "4.0.1"}},
		"hl7.fhir.uv.ips": {"dependencies": {"hl7.fhir.r4.core": "4.0.1"}},
		"hl7.fhir.us.carin-bb": {"dependencies": {"hl7.fhir.us.core": "6.1.0"}},
		"broken": {"dependencies": null}
	}}`)

	table, err := Dependents(registry, "hl7.fhir.us.core")
	require.NoError(t, err)
	require.Equal(t, []string{"package", "hl7.fhir.us.core"}, table.Columns)
	require.Equal(t, [][]string{
		{"hl7.fhir.us.carin-bb", "6.1.0"},
		{"hl7.fhir.us.davinci-pdex", "3.1.1"},
	}, table.Values())

	_, err = Dependents(decode(t, `{"other": 1}`), "x")
	require.Error(t, err)
}

func TestBuildRepos(t *testing.T) {
	table, err := BuildRepos(decode(t, `["HL7/US-Core/branches/master/qa.json", "HL7/US-Core/branches/dev", "FHIR/ig-guidance", 7, "solo"]`))
	require.NoError(t, err)
	require.Equal(t, []string{"FHIR/ig-guidance", "HL7/US-Core", "solo"}, table.Column("repo"))

	table, err = BuildRepos(decode(t, `[]`))
	require.NoError(t, err)
	require.Empty(t, table.Rows)
}

func TestBuildTimes(t *testing.T) {
	recorder := &telemetry.Recorder{}
	table, err := BuildTimes(decode(t, `{
		"format-version": "1",
		"1.10.0": {"sync-date": "x", "date": "y", "us.core": {"time": 61500}, "ips": {"time": "slow"}},
		"1.9.2": {"us.core": {"time": 60000}, "ips": {}, "big": {"time": 12345678901234567890}},
		"broken": 3
	}`), recorder)
	require.NoError(t, err)

	expected := [][]string{
		{"big", "1.9.2", "12345678901234567.89"},
		{"ips", "1.9.2", ""},
		{"ips", "1.10.0", "slow"},
		{"us.core", "1.9.2", "60"},
		{"us.core", "1.10.0", "61.5"},
	}
	if diff := cmp.Diff(expected, table.Values()); diff != "" {
		t.Fatal(diff)
	}
	require.ElementsMatch(t, []string{"statistics-version", "cell"}, recorder.Warnings())
}

func TestCompareVersions(t *testing.T) {
	require.Negative(t, CompareVersions("1.9.2", "1.10.0"))
	require.Positive(t, CompareVersions("2.0", "1.99.99"))
	require.Zero(t, CompareVersions("1.0.0", "1.0.0"))
	require.Negative(t, CompareVersions("1.0", "1.0.1"))
	require.Negative(t, CompareVersions("1.0.0-a", "1.0.0-b"))
}

func TestPackageListURL(t *testing.T) {
	require.Equal(t, "http://hl7.org/fhir/us/core/package-list.json", PackageListURL("http://hl7.org/fhir/us/core/"))
}
