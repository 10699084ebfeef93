package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toolforge/toolforge/pkg/telemetry"
)

var (
	// Global flags
	logLevel  string
	logFormat string
	stateDir  string
)

// ExitError carries an explicit process exit code out of a command.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "toolforge",
		Short: "toolforge - Resilient developer tooling installer",
		Long: `toolforge installs a curated catalog of developer and data tooling onto
the local machine, driven by a selected profile.

Features:
  - Profile-driven component selection with implied profiles
  - Ordered fallback install methods per component
  - Independent post-attempt verification; self-reported success is never trusted
  - Partial-failure tolerance with critical-component gating
  - Durable search-path handling visible within the same run
  - Auditable report and persistent run history`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", ".toolforge", "directory for run history state")

	// Add subcommands
	rootCmd.AddCommand(newInstallCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newProfilesCommand())
	rootCmd.AddCommand(newComponentsCommand())
	rootCmd.AddCommand(newFactsCommand())
	rootCmd.AddCommand(newReportCommand())

	return rootCmd
}

// newCommandLogger builds the structured logger from the persistent flags.
func newCommandLogger() (*telemetry.Logger, error) {
	return telemetry.NewLogger(telemetry.LoggingConfig{
		Level:      logLevel,
		Format:     logFormat,
		Output:     "stderr",
		TimeFormat: "rfc3339",
	})
}
