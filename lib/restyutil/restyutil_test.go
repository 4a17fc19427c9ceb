package restyutil

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/list.json", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("content-type", "application/json")
		io.WriteString(w, "\ufeff"+`{"startAt": `+r.URL.Query().Get("startAt")+`, "ua": "`+r.UserAgent()+`", "n": 1.10}`)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestGetJSON(t *testing.T) {
	server := newServer(t)
	client := NewClient(Options{BaseURL: server.URL, BearerToken: "token", UserAgent: "hl7tools-test"})

	doc, err := GetJSON(context.Background(), client, "/list.json", url.Values{"startAt": {"50"}})
	require.NoError(t, err)

	obj := doc.(map[string]any)
	require.Equal(t, "50", obj["startAt"].(interface{ String() string }).String())
	require.Equal(t, "hl7tools-test", obj["ua"])
	require.Equal(t, "1.10", obj["n"].(interface{ String() string }).String())
}

func TestGetBytesStatusErrors(t *testing.T) {
	server := newServer(t)

	_, err := GetBytes(context.Background(), NewClient(Options{BaseURL: server.URL}), "/missing", nil)
	require.True(t, errors.Is(err, ErrStatus))

	_, err = GetBytes(context.Background(), NewClient(Options{BaseURL: server.URL}), "/list.json", nil)
	require.True(t, errors.Is(err, ErrStatus))
}

func TestReadSourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "builds.json")
	require.NoError(t, os.WriteFile(path, []byte("\ufeff[\"a/b/c\"]"), 0o600))

	doc, err := ReadJSONSource(context.Background(), NewClient(Options{}), path)
	require.NoError(t, err)
	require.Equal(t, []any{"a/b/c"}, doc)

	_, err = ReadSource(context.Background(), NewClient(Options{}), filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
}

func TestIsURL(t *testing.T) {
	require.True(t, IsURL("https://build.fhir.org/ig/builds.json"))
	require.False(t, IsURL("data/builds.json"))
}

func TestFilesystemOutputDumpsAtDebug(t *testing.T) {
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(previous) })

	server := newServer(t)
	output, err := NewFilesystemOutput(filepath.Join(t.TempDir(), "dump"))
	require.NoError(t, err)

	client := NewClient(Options{BaseURL: server.URL, BearerToken: "token", Output: output})
	_, err = GetBytes(context.Background(), client, "/list.json", nil)
	require.NoError(t, err)

	entries, err := os.ReadDir(output.Directory())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	dumped, err := os.ReadFile(filepath.Join(output.Directory(), entries[0].Name()))
	require.NoError(t, err)
	require.Contains(t, string(dumped), "---- RESPONSE ----")
	require.Contains(t, string(dumped), "Authorization: <redacted>")
	require.False(t, strings.Contains(string(dumped), "Bearer token"))
}

func TestFilesystemOutputKeepsExistingFiles(t *testing.T) {
	parent := t.TempDir()
	precious := filepath.Join(parent, "precious.csv")
	require.NoError(t, os.WriteFile(precious, []byte("a,b\n"), 0o600))

	first, err := NewFilesystemOutput(parent)
	require.NoError(t, err)
	second, err := NewFilesystemOutput(parent)
	require.NoError(t, err)
	require.NotEqual(t, first.Directory(), second.Directory())

	first.Write("1", "first")
	second.Write("1", "second")

	contents, err := os.ReadFile(precious)
	require.NoError(t, err)
	require.Equal(t, "a,b\n", string(contents))
	dumped, err := os.ReadFile(filepath.Join(first.Directory(), "1.txt"))
	require.NoError(t, err)
	require.Equal(t, "first", string(dumped))
}

func TestRateLimitedClient(t *testing.T) {
	server := newServer(t)
	client := NewClient(Options{BaseURL: server.URL, RequestsPerSecond: 1000})
	for i := 0; i < 3; i++ {
		_, err := GetBytes(context.Background(), client, "/missing", nil)
		require.True(t, errors.Is(err, ErrStatus))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GetBytes(ctx, NewClient(Options{BaseURL: server.URL, RequestsPerSecond: 1}), "/missing", nil)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrStatus))
}
