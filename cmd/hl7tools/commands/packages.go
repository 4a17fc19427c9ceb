package commands

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"hl7tools/lib/fhir"
	"hl7tools/lib/flatten"
	"hl7tools/lib/restyutil"
	"hl7tools/lib/tabular"

	"github.com/spf13/cobra"
)

var packagesCmd = &cobra.Command{
	Use:   "packages",
	Short: "Lists FHIR implementation guide packages and their editions.",
}

var packagesListOutput *outputFlags

var packagesListCmd = &cobra.Command{
	Use:   "list <canonical-url | package-list.json>",
	Short: "Lists the editions of one package-list.json.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := args[0]
		if restyutil.IsURL(source) && !strings.HasSuffix(source, ".json") {
			source = fhir.PackageListURL(source)
		}

		client, err := newHTTPClient(restyutil.Options{})
		if err != nil {
			return err
		}
		doc, err := restyutil.ReadJSONSource(cmd.Context(), client, source)
		if err != nil {
			return err
		}
		editions, err := fhir.Editions(doc, nil)
		if err != nil {
			return err
		}

		reporter := reporterFor("packages-list")
		table, err := fhir.EditionsTable(editions, fhir.PackageMetadataKeys, reporter)
		if err != nil {
			return err
		}
		links := map[string]func(string) string{"path": tabular.SelfLink, "canonical": tabular.SelfLink}
		return packagesListOutput.write(cmd.Context(), "packages-list", table, links)
	},
}

var (
	packagesRegistryURL    string
	packagesRegistryRate   float64
	packagesRegistryOutput *outputFlags
)

var packagesRegistryCmd = &cobra.Command{
	Use:   "registry",
	Short: "Lists every edition of every guide in the IG registry.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newHTTPClient(restyutil.Options{RequestsPerSecond: packagesRegistryRate})
		if err != nil {
			return err
		}

		reporter := reporterFor("packages-registry")
		editions, err := fhir.NewCrawler(client, reporter).Editions(cmd.Context(), packagesRegistryURL)
		if err != nil {
			return err
		}
		table, err := fhir.EditionsTable(editions, fhir.RegistryFirstKeys, reporter)
		if err != nil {
			return err
		}
		return packagesRegistryOutput.write(cmd.Context(), "packages-registry", table, nil)
	},
}

var (
	packagesDependentsTarget string
	packagesDependentsOutput *outputFlags
)

var packagesDependentsCmd = &cobra.Command{
	Use:   "dependents <ecosystem.json> --target <package-id>",
	Short: "Lists the packages that depend on a target package and the version they use.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newHTTPClient(restyutil.Options{})
		if err != nil {
			return err
		}
		doc, err := restyutil.ReadJSONSource(cmd.Context(), client, args[0])
		if err != nil {
			return err
		}
		table, err := fhir.Dependents(doc, packagesDependentsTarget)
		if err != nil {
			return err
		}
		return packagesDependentsOutput.write(cmd.Context(), "packages-dependents", table, nil)
	},
}

var (
	packagesMetadataRegistry string
	packagesMetadataFailed   string
	packagesMetadataOutput   *outputFlags
)

var packagesMetadataCmd = &cobra.Command{
	Use:   "metadata <package-ids.csv>",
	Short: "Looks up the registry editions of the package ids in the first column of a csv.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reporter := reporterFor("packages-metadata")
		input, err := readTable(args[0], reporter)
		if err != nil {
			return err
		}
		if len(input.Columns) == 0 {
			return fmt.Errorf("%s: no columns", args[0])
		}
		ids := input.Column(input.Columns[0])

		client, err := newHTTPClient(restyutil.Options{})
		if err != nil {
			return err
		}
		registry, err := restyutil.ReadJSONSource(cmd.Context(), client, packagesMetadataRegistry)
		if err != nil {
			return err
		}
		table, missing, err := fhir.RegistryMetadata(registry, ids, reporter)
		if err != nil {
			return err
		}

		err = packagesMetadataOutput.write(cmd.Context(), "packages-metadata", table, nil)
		if err != nil {
			return err
		}
		if len(missing) == 0 {
			return nil
		}
		failed := packagesMetadataFailed
		if failed == "" {
			failed = derivedPath(args[0], "-failed.csv")
		}
		slog.Info("package ids not in the registry", "count", len(missing), "path", failed)
		return packagesMetadataOutput.writeCSV(cmd.Context(), "packages-metadata", failed, fhir.MissingTable(missing))
	},
}

var (
	packagesPathRegistry string
	packagesPathAll      bool
	packagesPathOutput   *outputFlags
)

var packagesPathCmd = &cobra.Command{
	Use:   "path <edition-url>",
	Short: "Lists the package-list details of the edition published at a url, with the registry country.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		listURL, err := fhir.ParentPackageListURL(args[0])
		if err != nil {
			return err
		}
		client, err := newHTTPClient(restyutil.Options{})
		if err != nil {
			return err
		}
		packageList, err := restyutil.GetJSON(cmd.Context(), client, listURL, nil)
		if err != nil {
			return fmt.Errorf("read %s: %w", listURL, err)
		}
		registry, err := restyutil.ReadJSONSource(cmd.Context(), client, packagesPathRegistry)
		if err != nil {
			return err
		}
		guides, err := fhir.RegistryGuides(registry)
		if err != nil {
			return err
		}

		reporter := reporterFor("packages-path")
		doc, ok := packageList.(map[string]any)
		if !ok {
			return fmt.Errorf("%s is %T, not an object", listURL, packageList)
		}
		packageID, _ := flatten.ScalarString(doc["package-id"])
		table, err := fhir.PackageDetails(packageList, fhir.GuideCountry(guides, packageID), reporter)
		if err != nil {
			return err
		}
		if !packagesPathAll {
			table = fhir.EditionsAtPath(table, args[0])
			if len(table.Rows) == 0 {
				return fmt.Errorf("no edition of %s is published at %s", packageID, args[0])
			}
		}
		if packagesPathOutput.output == "" {
			packagesPathOutput.output = strings.TrimSuffix(fhir.DetailsFileName(packageID), ".csv")
		}
		return packagesPathOutput.write(cmd.Context(), "packages-path", table, nil)
	},
}

var (
	packagesListsColumn string
	packagesListsDir    string
	packagesListsOutput *outputFlags
)

var packagesListsCmd = &cobra.Command{
	Use:   "lists <canonicals.csv> --column <name>",
	Short: "Writes the package-list details of every canonical url in a csv column, one csv per package.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reporter := reporterFor("packages-lists")
		input, err := readTable(args[0], reporter)
		if err != nil {
			return err
		}
		if !slices.Contains(input.Columns, packagesListsColumn) {
			return fmt.Errorf("%s: no column %q", args[0], packagesListsColumn)
		}

		client, err := newHTTPClient(restyutil.Options{})
		if err != nil {
			return err
		}
		for _, canonical := range input.Column(packagesListsColumn) {
			if canonical == "" {
				continue
			}
			packageList, err := restyutil.GetJSON(cmd.Context(), client, fhir.PackageListURL(canonical), nil)
			if err != nil {
				if cmd.Context().Err() != nil {
					return cmd.Context().Err()
				}
				reporter.ReportWarning("package-list", "canonical", canonical, "err", err.Error())
				continue
			}
			doc, ok := packageList.(map[string]any)
			if !ok {
				reporter.ReportWarning("package-list", "canonical", canonical, "err", "not an object")
				continue
			}
			packageID, _ := flatten.ScalarString(doc["package-id"])
			table, err := fhir.PackageDetails(packageList, "", reporter)
			if err != nil {
				reporter.ReportWarning("package-list", "canonical", canonical, "err", err.Error())
				continue
			}
			path := filepath.Join(packagesListsDir, fhir.DetailsFileName(packageID))
			err = packagesListsOutput.writeCSV(cmd.Context(), "packages-lists", path, table)
			if err != nil {
				return err
			}
			slog.Info("wrote package details", "package", packageID, "path", path)
		}
		return nil
	},
}

func init() {
	packagesListOutput = addOutputFlags(packagesListCmd, tabular.Stdout, "csv")

	packagesRegistryOutput = addOutputFlags(packagesRegistryCmd, "fhir-ig-editions", "csv")
	packagesRegistryCmd.Flags().StringVar(&packagesRegistryURL, "registry", fhir.RegistryURL, "IG registry listing.")
	packagesRegistryCmd.Flags().Float64Var(&packagesRegistryRate, "rate", 2, "Package-list requests per second.")

	packagesDependentsOutput = addOutputFlags(packagesDependentsCmd, tabular.Stdout, "csv")
	packagesDependentsCmd.Flags().StringVar(&packagesDependentsTarget, "target", "", "Package id whose dependents are listed.")
	packagesDependentsCmd.MarkFlagRequired("target")

	packagesMetadataOutput = addOutputFlags(packagesMetadataCmd, "package-metadata", "csv")
	packagesMetadataCmd.Flags().StringVar(&packagesMetadataRegistry, "registry", fhir.RegistryURL, "IG registry listing, file or url.")
	packagesMetadataCmd.Flags().StringVar(&packagesMetadataFailed, "failed", "", "Csv for package ids missing from the registry, defaults to <input>-failed.csv.")

	packagesPathOutput = addOutputFlags(packagesPathCmd, "", "csv")
	packagesPathCmd.Flags().StringVar(&packagesPathRegistry, "registry", fhir.RegistryURL, "IG registry listing, file or url.")
	packagesPathCmd.Flags().BoolVar(&packagesPathAll, "all-editions", false, "Keep every edition of the package, not only the one at the url.")

	packagesListsOutput = addOutputFlags(packagesListsCmd, "", "csv")
	packagesListsCmd.Flags().StringVar(&packagesListsColumn, "column", "canonical", "Column holding the canonical urls.")
	packagesListsCmd.Flags().StringVar(&packagesListsDir, "dir", ".", "Directory for the per package csv files.")

	packagesCmd.AddCommand(packagesListCmd, packagesRegistryCmd, packagesDependentsCmd,
		packagesMetadataCmd, packagesPathCmd, packagesListsCmd)
	rootCmd.AddCommand(packagesCmd)
}
