package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hl7tools/lib/flatten"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const DefaultTimeout = 30 * time.Second

// Client lists releases through the GitHub REST api.
type Client struct {
	gh      *gh.Client
	limiter *rate.Limiter
}

// NewClient authenticates with token when it is set, anonymous access works
// for public repositories under a lower rate limit.
func NewClient(ctx context.Context, token string) *Client {
	httpClient := &http.Client{Timeout: DefaultTimeout}
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(ctx, ts)
		httpClient.Timeout = DefaultTimeout
	}
	return &Client{
		gh:      gh.NewClient(httpClient),
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
}

// SetBaseURL points the client at another api root, e.g. GitHub Enterprise.
func (c *Client) SetBaseURL(raw string) error {
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	c.gh.BaseURL = u
	return nil
}

// ParseRepo splits `owner/repo`.
func ParseRepo(s string) (string, string, error) {
	owner, repo, ok := strings.Cut(strings.Trim(s, "/"), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("repository must be owner/repo, got %q", s)
	}
	return owner, repo, nil
}

// Releases returns every release of the repository as generic records, the
// same shape `gh api repos/{owner}/{repo}/releases` produces.
func (c *Client) Releases(ctx context.Context, owner, repo string) ([]any, error) {
	var all []*gh.RepositoryRelease
	opts := &gh.ListOptions{PerPage: 100}
	for {
		err := c.limiter.Wait(ctx)
		if err != nil {
			return nil, err
		}
		releases, resp, err := c.gh.Repositories.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("list releases of %s/%s: %w", owner, repo, err)
		}
		all = append(all, releases...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	encoded, err := json.Marshal(all)
	if err != nil {
		return nil, err
	}
	doc, err := flatten.DecodeBytes(encoded)
	if err != nil {
		return nil, err
	}
	records, _ := doc.([]any)
	return records, nil
}
