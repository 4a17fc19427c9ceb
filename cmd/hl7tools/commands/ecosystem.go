package commands

import (
	"fmt"
	"log/slog"

	"hl7tools/lib/ecosystem"
	"hl7tools/lib/restyutil"
	"hl7tools/lib/tabular"

	"github.com/spf13/cobra"
)

var ecosystemCmd = &cobra.Command{
	Use:   "ecosystem",
	Short: "Reads the FHIR package ecosystem database.",
}

var (
	ecosystemExportDB     string
	ecosystemExportDir    string
	ecosystemExportOutput *outputFlags
)

var ecosystemExportCmd = &cobra.Command{
	Use:   "export <database-url> --db <local.db> --dir <csv-folder>",
	Short: "Downloads the ecosystem database and exports each table to a csv.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newHTTPClient(restyutil.Options{})
		if err != nil {
			return err
		}
		err = ecosystem.Download(cmd.Context(), client, args[0], ecosystemExportDB)
		if err != nil {
			return err
		}

		db, err := ecosystem.Source{File: ecosystemExportDB}.OpenDB()
		if err != nil {
			return fmt.Errorf("open %s: %w", ecosystemExportDB, err)
		}
		defer db.Close()

		opts, err := ecosystemExportOutput.options(nil)
		if err != nil {
			return err
		}
		written, err := ecosystem.ExportTables(cmd.Context(), db, ecosystemExportDir, opts.CSV)
		if err != nil {
			return err
		}
		slog.Info("export completed", "tables", len(written), "dir", ecosystemExportDir)
		return nil
	},
}

var (
	ecosystemDepsID     string
	ecosystemDepsOutput *outputFlags
)

var ecosystemDepsCmd = &cobra.Command{
	Use:   "deps <database-file | libsql-url> --id <package-id>",
	Short: "Lists the package ids a package depends on.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := ecosystem.ParseSource(args[0])
		if source.Url != "" {
			source.AuthToken = cfg.Ecosystem.AuthToken
		}
		db, err := source.OpenDB()
		if err != nil {
			return fmt.Errorf("open %s: %w", source, err)
		}
		defer db.Close()

		table, err := ecosystem.DependenciesTable(cmd.Context(), db, ecosystemDepsID)
		if err != nil {
			return err
		}
		return ecosystemDepsOutput.write(cmd.Context(), "ecosystem-deps", table, nil)
	},
}

func init() {
	ecosystemExportOutput = addOutputFlags(ecosystemExportCmd, "", "csv")
	ecosystemExportCmd.Flags().MarkHidden("output")
	ecosystemExportCmd.Flags().MarkHidden("format")
	ecosystemExportCmd.Flags().StringVar(&ecosystemExportDB, "db", "", "Where to save the downloaded database.")
	ecosystemExportCmd.Flags().StringVar(&ecosystemExportDir, "dir", "", "Folder for the exported csv files.")
	ecosystemExportCmd.MarkFlagRequired("db")
	ecosystemExportCmd.MarkFlagRequired("dir")

	ecosystemDepsOutput = addOutputFlags(ecosystemDepsCmd, tabular.Stdout, "csv")
	ecosystemDepsCmd.Flags().StringVar(&ecosystemDepsID, "id", "", "Package id from the Packages table.")
	ecosystemDepsCmd.MarkFlagRequired("id")

	ecosystemCmd.AddCommand(ecosystemExportCmd, ecosystemDepsCmd)
	rootCmd.AddCommand(ecosystemCmd)
}
