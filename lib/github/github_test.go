package github

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"hl7tools/lib/flatten"
	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestReleasesPaginates(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/repos/HL7/fhir/releases", r.URL.Path)
		require.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/HL7/fhir/releases?page=2>; rel="next"`, server.URL))
			w.Write([]byte(`[{"tag_name": "v5.0.0", "name": "R5", "published_at": "2023-03-26T15:00:00Z", "author": {"login": "grahamegrieve"}, "prerelease": false}]`))
			return
		}
		w.Write([]byte(`[{"tag_name": "v4.0.1", "published_at": "2019-10-30T12:00:00Z", "prerelease": true}]`))
	}))
	defer server.Close()

	client := NewClient(context.Background(), "gh-token")
	require.NoError(t, client.SetBaseURL(server.URL))

	releases, err := client.Releases(context.Background(), "HL7", "fhir")
	require.NoError(t, err)
	require.Len(t, releases, 2)

	schema := flatten.MustSchema(ReleaseFields(), flatten.WithReporter(&telemetry.Recorder{}))
	table := tabular.FromSchema(schema, releases)
	expected := [][]string{
		{"v5.0.0", "2023-03-26T15:00:00Z", "2023 03 26", "R5", "", "grahamegrieve", "false"},
		{"v4.0.1", "2019-10-30T12:00:00Z", "2019 10 30", "", "", "", "true"},
	}
	if diff := cmp.Diff(expected, table.Values()); diff != "" {
		t.Fatal(diff)
	}
}

func TestParseRepo(t *testing.T) {
	owner, repo, err := ParseRepo("HL7/fhir-ig-publisher")
	require.NoError(t, err)
	require.Equal(t, "HL7", owner)
	require.Equal(t, "fhir-ig-publisher", repo)

	for _, bad := range []string{"HL7", "/fhir", "a/b/c", ""} {
		_, _, err := ParseRepo(bad)
		require.Error(t, err, bad)
	}
}

func TestCleanup(t *testing.T) {
	recorder := &telemetry.Recorder{}
	table := Cleanup([][]string{
		{"v1.0.0", "2024-02-03T04:05:06Z", "First", "https://github.com/x/y/releases/v1.0.0"},
		{"v0.9.0", "not a date", "Beta", "u"},
		{"v0.1.0", "2020-01-01T00:00:00Z"},
	}, recorder)

	require.Equal(t, []string{"tag_name", "published_at", "published_day", "name", "html_url"}, table.Columns)
	require.Equal(t, [][]string{
		{"v1.0.0", "2024-02-03T04:05:06Z", "2024 02 03", "First", "https://github.com/x/y/releases/v1.0.0"},
		{"v0.9.0", "not a date", "", "Beta", "u"},
		{"v0.1.0", "2020-01-01T00:00:00Z", "2020 01 01", "", ""},
	}, table.Values())
	require.Len(t, recorder.Warnings(), 2)
}

func TestCleanupReadsReleaseListing(t *testing.T) {
	recorder := &telemetry.Recorder{}
	table := Cleanup([][]string{
		{"tag_name", "published_at", "published_day", "name", "html_url", "author", "prerelease"},
		{"v1.0.0", "2024-02-03T04:05:06Z", "2024 02 03", "First", "https://github.com/x/y/releases/v1.0.0", "dev", "false"},
	}, recorder)

	require.Equal(t, [][]string{
		{"v1.0.0", "2024-02-03T04:05:06Z", "2024 02 03", "First", "https://github.com/x/y/releases/v1.0.0"},
	}, table.Values())
	require.Empty(t, recorder.Warnings())
}
