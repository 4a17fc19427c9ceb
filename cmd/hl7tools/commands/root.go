package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"hl7tools/lib/telemetry"
	"hl7tools/lib/timezone"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	dumpHTTP   string

	cfg Config
	tel telemetry.Telemetry

	setupTelemetry = telemetry.SetupFromEnv
)

var rootCmd = &cobra.Command{
	Use:           "hl7tools",
	Short:         "hl7tools gathers HL7 listings and reshapes them into csv, markdown and json.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		telemetry.InitSlog(verbose)

		var err error
		cfg, err = loadConfig(configPath)
		if err != nil {
			return err
		}
		err = timezone.SetLocation(cfg.Timezone)
		if err != nil {
			return err
		}

		tel, err = setupTelemetry(cmd.Context(), "hl7tools")
		if err != nil {
			return fmt.Errorf("setup telemetry: %w", err)
		}
		if tel.Enabled() {
			telemetry.InstrumentPerfStats(cmd.Context(), 5*time.Second)
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file, defaults to the nearest "+configName+".")
	flags.BoolVarP(&verbose, "verbose", "v", false, "Log at debug level.")
	flags.StringVar(&dumpHTTP, "dump-http", "", "Directory under which each run dumps its http exchanges into a new timestamped folder, needs --verbose.")
}

// ExecuteContext runs the command line and flushes telemetry whether or not
// the command failed.
func ExecuteContext(ctx context.Context) {
	err := execute(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	shutdownErr := tel.Shutdown(shutdownCtx)
	tel = telemetry.Telemetry{}
	if shutdownErr != nil {
		slog.Warn("telemetry shutdown failed", "err", shutdownErr)
	}
	return err
}
