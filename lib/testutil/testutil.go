package testutil

import (
	"database/sql"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

type DBParams struct {
	// if unspecified, the database starts empty
	Schema string
	// if unspecified, it will use `:memory:`
	Path string
}

// OpenDB opens a sqlite database for a test and closes it when the test ends.
// In-memory databases are limited to one connection so every query sees the
// same data.
func OpenDB(t testing.TB, params DBParams) *sql.DB {
	t.Helper()

	dbpath := ":memory:"
	if params.Path != "" {
		dbpath = params.Path
	}
	db, err := sql.Open("sqlite", dbpath)
	if err != nil {
		t.Fatal(err)
	}
	if dbpath == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	t.Cleanup(func() { db.Close() })

	if params.Schema != "" {
		_, err = db.Exec(params.Schema)
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			t.Fatal(err)
		}
	}
	return db
}
