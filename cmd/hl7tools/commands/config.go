package commands

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hl7tools/lib/configutil"
	"hl7tools/lib/ecosystem"
	"hl7tools/lib/restyutil"

	"github.com/go-resty/resty/v2"
)

const configName = "hl7tools.json5"

type JiraConfig struct {
	SearchURL   string `json:"search_url"`
	PageSize    int    `json:"page_size"`
	BearerToken string `json:"bearer_token"`
}

type GitHubConfig struct {
	Token   string `json:"token"`
	BaseURL string `json:"base_url"`
}

type StandupsConfig struct {
	URL      string `json:"url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Config struct {
	// JiraBearerToken is the key used by the older data/config/config.json
	// files, jira.bearer_token takes precedence.
	JiraBearerToken string `json:"jira_bearer_token"`

	Jira     JiraConfig     `json:"jira"`
	GitHub   GitHubConfig   `json:"github"`
	Standups StandupsConfig `json:"standups"`
	// Ecosystem supplies the auth token for remote ecosystem databases.
	Ecosystem ecosystem.Source `json:"ecosystem"`

	UserAgent         string  `json:"user_agent"`
	Timeout           string  `json:"timeout"`
	Timezone          string  `json:"timezone"`
	RequestsPerSecond float64 `json:"requests_per_second"`
}

func loadConfig(explicit string) (Config, error) {
	err := configutil.LoadDotenv(".env")
	if err != nil {
		return Config{}, err
	}
	cfg, err := configutil.Load[Config](explicit, configName)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if cfg.Jira.BearerToken == "" {
		cfg.Jira.BearerToken = cfg.JiraBearerToken
	}
	cfg.Jira.BearerToken = configutil.EnvOr(cfg.Jira.BearerToken, "HL7_JIRA_TOKEN")
	cfg.GitHub.Token = configutil.EnvOr(cfg.GitHub.Token, "GITHUB_TOKEN")
	cfg.UserAgent = configutil.EnvOr(cfg.UserAgent, "HL7TOOLS_USER_AGENT")
	cfg.Ecosystem.AuthToken = configutil.EnvOr(cfg.Ecosystem.AuthToken, "HL7_ECOSYSTEM_TOKEN")
	return cfg, nil
}

func (c Config) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("config timeout: %w", err)
	}
	return d, nil
}

// newHTTPClient fills in the settings shared by every command.
func newHTTPClient(opts restyutil.Options) (*resty.Client, error) {
	timeout, err := cfg.timeout()
	if err != nil {
		return nil, err
	}
	if opts.Timeout == 0 {
		opts.Timeout = timeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = cfg.UserAgent
	}
	if opts.RequestsPerSecond == 0 {
		opts.RequestsPerSecond = cfg.RequestsPerSecond
	}
	if dumpHTTP != "" {
		out, err := httpDumpOutput()
		if err != nil {
			return nil, fmt.Errorf("http dump directory: %w", err)
		}
		opts.Output = out
	}
	return restyutil.NewClient(opts), nil
}

var (
	dumpOnce   sync.Once
	dumpOutput restyutil.FilesystemOutput
	dumpErr    error
)

// httpDumpOutput creates the run's dump directory on first use, every client
// of the run writes into it.
func httpDumpOutput() (restyutil.FilesystemOutput, error) {
	dumpOnce.Do(func() {
		dumpOutput, dumpErr = restyutil.NewFilesystemOutput(dumpHTTP)
		if dumpErr == nil {
			slog.Debug("dumping http exchanges", "dir", dumpOutput.Directory())
		}
	})
	return dumpOutput, dumpErr
}
