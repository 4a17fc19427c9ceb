package ecosystem

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Source is where the ecosystem database lives: a local file or a remote
// libsql server.
type Source struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// ParseSource treats libsql, http(s) and ws(s) urls as remote databases and
// anything else as a file path.
func ParseSource(s string) Source {
	for _, scheme := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(s, scheme) {
			return Source{Url: s}
		}
	}
	return Source{File: s}
}

func (s Source) String() string {
	if s.Url != "" {
		return s.Url
	}
	return s.File
}

func (s Source) OpenDB() (*sql.DB, error) {
	if s.Url == "" {
		if s.File == "" {
			return nil, fmt.Errorf("a database file or url was not specified")
		}
		return sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", s.File))
	}

	values := url.Values{}
	if s.AuthToken != "" {
		values.Add("authToken", s.AuthToken)
	}
	dsn := s.Url
	if len(values) > 0 {
		dsn += "?" + values.Encode()
	}
	db, err := sql.Open("libsql", dsn)
	if err != nil {
		return nil, err
	}
	return db, nil
}
