package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"hl7tools/lib/flatten"
	"hl7tools/lib/restyutil"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultSearchURL = "https://jira.hl7.org/rest/api/latest/search"
	BrowseURL        = "https://jira.hl7.org/browse/"
	DefaultPageSize  = 100
)

type Client struct {
	http      *resty.Client
	searchURL string
	pageSize  int
}

// NewClient expects an http client that already carries the bearer token.
func NewClient(http *resty.Client, searchURL string, pageSize int) Client {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Client{http: http, searchURL: searchURL, pageSize: pageSize}
}

// ParseFilter parses query parameters given as a JSON object, e.g.
// `{"jql": "filter = 16107"}`.
func ParseFilter(filter string) (url.Values, error) {
	doc, err := flatten.DecodeBytes([]byte(filter))
	if err != nil {
		return nil, fmt.Errorf("jira filter: %w", err)
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("jira filter must be a JSON object, got %s", filter)
	}

	params := url.Values{}
	for k, v := range obj {
		s, ok := flatten.ScalarString(v)
		if !ok {
			encoded, _ := json.Marshal(v)
			s = string(encoded)
		}
		params.Set(k, s)
	}
	return params, nil
}

// Search follows startAt pagination until every issue reported by `total`
// has been read, or the server returns an empty page.
func (c Client) Search(ctx context.Context, params url.Values) ([]any, error) {
	var issues []any
	startAt := 0
	for {
		query := url.Values{}
		for k, v := range params {
			query[k] = v
		}
		if query.Get("maxResults") == "" {
			query.Set("maxResults", strconv.Itoa(c.pageSize))
		}
		query.Set("startAt", strconv.Itoa(startAt))

		doc, err := restyutil.GetJSON(ctx, c.http, c.searchURL, query)
		if err != nil {
			return nil, fmt.Errorf("jira search: %w", err)
		}
		page, ok := doc.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("jira search: response is not an object")
		}
		pageIssues, ok := page["issues"].([]any)
		if !ok && page["issues"] != nil {
			return nil, fmt.Errorf("jira search: 'issues' is not a list")
		}
		issues = append(issues, pageIssues...)
		startAt += len(pageIssues)

		total := 0
		if s, ok := flatten.ScalarString(page["total"]); ok && s != "" {
			total, err = strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("jira search: invalid total %q", s)
			}
		}
		slog.Debug("jira page", "start_at", startAt, "total", total)

		if len(pageIssues) == 0 || startAt >= total {
			return issues, nil
		}
	}
}
