package commands

import (
	"hl7tools/lib/flatten"
	"hl7tools/lib/restyutil"
	"hl7tools/lib/standups"
	"hl7tools/lib/tabular"
	"hl7tools/lib/timezone"

	"github.com/spf13/cobra"
)

var (
	standupsPage   int
	standupsOutput *outputFlags
)

var standupsCmd = &cobra.Command{
	Use:   "standups [--page <n>]",
	Short: "Lists the publication announcements posted on standups.hl7.org.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		postsURL := cfg.Standups.URL
		if postsURL == "" {
			postsURL = standups.PostsURL
		}
		client, err := newHTTPClient(restyutil.Options{})
		if err != nil {
			return err
		}
		if cfg.Standups.Username != "" {
			client.SetBasicAuth(cfg.Standups.Username, cfg.Standups.Password)
		}

		var posts []any
		if standupsPage > 0 {
			posts, err = standups.Page(cmd.Context(), client, postsURL, standupsPage)
		} else {
			posts, err = standups.All(cmd.Context(), client, postsURL)
		}
		if err != nil {
			return err
		}

		schema, err := flatten.NewSchema(standups.Fields(), flatten.WithReporter(reporterFor("standups")))
		if err != nil {
			return err
		}
		if standupsOutput.output == "" {
			standupsOutput.output = timezone.StampedName("standups.hl7.org")
		}
		return standupsOutput.write(cmd.Context(), "standups", tabular.FromSchema(schema, posts), nil)
	},
}

func init() {
	standupsOutput = addOutputFlags(standupsCmd, "", "csv")
	standupsCmd.Flags().IntVar(&standupsPage, "page", 0, "Only fetch this page of 100 posts, every page when 0.")
	rootCmd.AddCommand(standupsCmd)
}
