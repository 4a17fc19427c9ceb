package commands

import (
	"fmt"
	"os"

	"hl7tools/lib/flatten"
	"hl7tools/lib/github"
	"hl7tools/lib/restyutil"
	"hl7tools/lib/tabular"

	"github.com/spf13/cobra"
)

var githubCmd = &cobra.Command{
	Use:   "github",
	Short: "Lists GitHub releases.",
}

var (
	githubReleasesFile   string
	githubReleasesOutput *outputFlags
)

var githubReleasesCmd = &cobra.Command{
	Use:   "releases (<owner/repo> | --file <releases.json>)",
	Short: "Lists the releases of a repository, from the api or a saved JSON listing.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var releases []any
		switch {
		case githubReleasesFile != "":
			client, err := newHTTPClient(restyutil.Options{})
			if err != nil {
				return err
			}
			doc, err := restyutil.ReadJSONSource(cmd.Context(), client, githubReleasesFile)
			if err != nil {
				return err
			}
			releases, err = flatten.Records(doc, "")
			if err != nil {
				return fmt.Errorf("%s: %w", githubReleasesFile, err)
			}
		case len(args) == 1:
			owner, repo, err := github.ParseRepo(args[0])
			if err != nil {
				return err
			}
			client := github.NewClient(cmd.Context(), cfg.GitHub.Token)
			if cfg.GitHub.BaseURL != "" {
				err = client.SetBaseURL(cfg.GitHub.BaseURL)
				if err != nil {
					return err
				}
			}
			releases, err = client.Releases(cmd.Context(), owner, repo)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("give a repository or --file")
		}

		schema, err := flatten.NewSchema(github.ReleaseFields(), flatten.WithReporter(reporterFor("github-releases")))
		if err != nil {
			return err
		}
		links := map[string]func(string) string{"html_url": tabular.SelfLink}
		return githubReleasesOutput.write(cmd.Context(), "github-releases", tabular.FromSchema(schema, releases), links)
	},
}

var githubCleanupOutput *outputFlags

var githubCleanupCmd = &cobra.Command{
	Use:   "cleanup <releases.csv>",
	Short: "Adds the publication day to a release csv, headerless tag,published_at,name,url or a releases listing.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		rows, err := tabular.ReadCSVRows(f)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		table := github.Cleanup(rows, reporterFor("github-cleanup"))
		if githubCleanupOutput.output == "" {
			githubCleanupOutput.output = tabular.ParsedOutputPath(args[0])
		}
		return githubCleanupOutput.write(cmd.Context(), "github-cleanup", table, nil)
	},
}

func init() {
	githubReleasesOutput = addOutputFlags(githubReleasesCmd, tabular.Stdout, "csv")
	githubReleasesCmd.Flags().StringVar(&githubReleasesFile, "file", "", "Saved release listing (file or URL) in the shape of the releases api.")

	githubCleanupOutput = addOutputFlags(githubCleanupCmd, "", "csv")
	githubCleanupOutput.quoteAll = true
	githubCleanupCmd.Flags().Lookup("quote-all").DefValue = "true"

	githubCmd.AddCommand(githubReleasesCmd, githubCleanupCmd)
	rootCmd.AddCommand(githubCmd)
}
