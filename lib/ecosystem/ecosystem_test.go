package ecosystem

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"hl7tools/lib/restyutil"
	"hl7tools/lib/tabular"
	"hl7tools/lib/testutil"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const schema = `
CREATE TABLE Packages (PackageKey INTEGER PRIMARY KEY, Id TEXT NOT NULL, Title TEXT, Score REAL);
CREATE TABLE DependencyList (SourceKey INTEGER, TargetKey INTEGER);
INSERT INTO Packages VALUES (1, 'hl7.fhir.us.core', 'US Core', 1.5);
INSERT INTO Packages VALUES (2, 'hl7.fhir.r4.core', NULL, 2);
INSERT INTO Packages VALUES (3, 'hl7.terminology.r4', 'THO, "terminology"', NULL);
INSERT INTO Packages VALUES (4, 'hl7.fhir.uv.ips', 'IPS', NULL);
INSERT INTO DependencyList VALUES (1, 3);
INSERT INTO DependencyList VALUES (1, 2);
INSERT INTO DependencyList VALUES (4, 2);
`

func TestParseSource(t *testing.T) {
	require.Equal(t, Source{Url: "libsql://db.example.turso.io"}, ParseSource("libsql://db.example.turso.io"))
	require.Equal(t, Source{File: "data/package-feeds.db"}, ParseSource("data/package-feeds.db"))

	_, err := Source{}.OpenDB()
	require.Error(t, err)
}

func TestDependencies(t *testing.T) {
	db := testutil.OpenDB(t, testutil.DBParams{Schema: schema})
	ctx := context.Background()

	ids, err := Dependencies(ctx, db, "hl7.fhir.us.core")
	require.NoError(t, err)
	require.Equal(t, []string{"hl7.fhir.r4.core", "hl7.terminology.r4"}, ids)

	ids, err = Dependencies(ctx, db, "unknown.package")
	require.NoError(t, err)
	require.Empty(t, ids)

	table, err := DependenciesTable(ctx, db, "hl7.fhir.uv.ips")
	require.NoError(t, err)
	require.Equal(t, []string{"hl7.fhir.r4.core"}, table.Column("dependency"))
}

func TestReadTable(t *testing.T) {
	db := testutil.OpenDB(t, testutil.DBParams{Schema: schema})

	table, err := ReadTable(context.Background(), db, "Packages")
	require.NoError(t, err)
	require.Equal(t, []string{"PackageKey", "Id", "Title", "Score"}, table.Columns)
	expected := [][]string{
		{"1", "hl7.fhir.us.core", "US Core", "1.5"},
		{"2", "hl7.fhir.r4.core", "", "2"},
		{"3", "hl7.terminology.r4", `THO, "terminology"`, ""},
		{"4", "hl7.fhir.uv.ips", "IPS", ""},
	}
	if diff := cmp.Diff(expected, table.Values()); diff != "" {
		t.Fatal(diff)
	}
}

func TestExportTables(t *testing.T) {
	db := testutil.OpenDB(t, testutil.DBParams{Schema: schema})
	dir := filepath.Join(t.TempDir(), "csv")

	written, err := ExportTables(context.Background(), db, dir, tabular.CSVOptions{})
	require.NoError(t, err)
	require.Equal(t, []string{
		filepath.Join(dir, "DependencyList.csv"),
		filepath.Join(dir, "Packages.csv"),
	}, written)

	contents, err := os.ReadFile(filepath.Join(dir, "DependencyList.csv"))
	require.NoError(t, err)
	require.Equal(t, "SourceKey,TargetKey\n1,3\n1,2\n4,2\n", string(contents))
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("SQLite format 3\x00"))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "nested", "ecosystem.db")
	err := Download(context.Background(), restyutil.NewClient(restyutil.Options{}), server.URL, path)
	require.NoError(t, err)

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "SQLite format 3\x00", string(contents))
}
