package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"hl7tools/lib/restyutil"
	"hl7tools/lib/specs"
	"hl7tools/lib/tabular"
	"hl7tools/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var specsCmd = &cobra.Command{
	Use:   "specs",
	Short: "Lists the HL7 Jira specification catalog.",
}

func readSpecs(ctx context.Context, client *resty.Client, source string) ([]specs.Spec, error) {
	doc, err := restyutil.ReadJSONSource(ctx, client, source)
	if err != nil {
		return nil, err
	}
	return specs.ParseSpecs(doc)
}

func readWorkgroups(ctx context.Context, client *resty.Client, source string) (map[string]string, error) {
	doc, err := restyutil.ReadJSONSource(ctx, client, source)
	if err != nil {
		return nil, err
	}
	return specs.ParseWorkgroups(doc)
}

// readRealmMappings layers the mapping file over the built in realms, an
// empty path only uses the built in ones.
func readRealmMappings(path string, reporter telemetry.API) (specs.Mappings, error) {
	mappings := specs.DefaultMappings()
	if path == "" {
		return mappings, nil
	}
	fromFile, err := specs.ReadMappings(path, reporter)
	if err != nil {
		return specs.Mappings{}, err
	}
	mappings.Merge(fromFile)
	return mappings, nil
}

func saveRealmMappings(path string, resolver *specs.Resolver) error {
	if path == "" || !resolver.Changed() {
		return nil
	}
	err := tabular.WriteCSVFile(path, resolver.Mappings().Table(), tabular.CSVOptions{})
	if err != nil {
		return fmt.Errorf("save realm mappings: %w", err)
	}
	slog.Info("saved realm mappings", "path", path)
	return nil
}

func writeMissingRealms(ctx context.Context, path string, missing []string) error {
	var b strings.Builder
	if len(missing) == 0 {
		b.WriteString("# Every specification has a realm\n")
	} else {
		b.WriteString("# Specifications with missing realm information\n\n")
		for _, m := range missing {
			b.WriteString(m + "\n")
		}
		fmt.Fprintf(&b, "\nTotal: %d\n", len(missing))
	}
	return writeText(ctx, "specs-missing", path, []byte(b.String()), len(missing))
}

var (
	specsListSource  string
	specsListMapping string
	specsListMissing string
	specsListNoFetch bool
	specsListOutput  *outputFlags
)

var specsListCmd = &cobra.Command{
	Use:   "list",
	Short: "Lists every specification of SPECS.json with its realm.",
	Long: `Lists every specification of SPECS.json with its realm. Realms come from
the mapping file, the specification url, or the REALM section of its product
brief page. Scraped realms are saved back to the mapping file.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		reporter := reporterFor("specs-list")
		client, err := newHTTPClient(restyutil.Options{})
		if err != nil {
			return err
		}
		catalog, err := readSpecs(ctx, client, specsListSource)
		if err != nil {
			return err
		}
		mappings, err := readRealmMappings(specsListMapping, reporter)
		if err != nil {
			return err
		}

		var fetch specs.BriefFetcher
		if !specsListNoFetch {
			fetch = specs.NewBriefFetcher(client)
		}
		resolver := specs.NewResolver(mappings, specs.ByKey(catalog), fetch, reporter)
		realms := make([]string, len(catalog))
		for i, s := range catalog {
			realms[i] = resolver.RealmOf(ctx, s)
		}
		table, missing := specs.Table(catalog, realms)

		err = saveRealmMappings(specsListMapping, resolver)
		if err != nil {
			return err
		}
		if specsListMissing != "" {
			err = writeMissingRealms(ctx, specsListMissing, missing)
			if err != nil {
				return err
			}
		}
		slog.Info("listed specifications", "specs", len(catalog), "missing_realm", len(missing))
		links := map[string]func(string) string{"url": tabular.SelfLink}
		return specsListOutput.write(ctx, "specs-list", table, links)
	},
}

func init() {
	specsListOutput = addOutputFlags(specsListCmd, "specs_extracted", "csv")
	specsListCmd.Flags().StringVar(&specsListSource, "specs", specs.SpecsURL, "SPECS.json url or file.")
	specsListCmd.Flags().StringVar(&specsListMapping, "mapping", "", "Realm mapping csv (key,url,realm) read as overrides and updated with scraped realms.")
	specsListCmd.Flags().StringVar(&specsListMissing, "missing", "missing_realms.txt", "File listing the specifications without a realm, empty skips it.")
	specsListCmd.Flags().BoolVar(&specsListNoFetch, "no-scrape", false, "Do not read realms off product brief pages.")

	specsCmd.AddCommand(specsListCmd)
	rootCmd.AddCommand(specsCmd)
}
