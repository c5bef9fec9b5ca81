package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"conformcheck/internal/engine"
	"conformcheck/internal/flags"
)

var (
	buildVersion = "dev"
	buildCommit  = "unknown"
	buildDate    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "conformcheck",
	Short: "Check a Flarum CI/CD tree against its conformance rules",
	Long: `conformcheck verifies that a Flarum CI/CD project has the files, directories,
manifest keys and PHP runtime it needs before a pipeline runs.

conformcheck is read-only: it inspects the tree and reports, it never repairs.

Examples:
	# Show available commands and global flags
	conformcheck --help

	# Check the current directory
	conformcheck check

	# List rules
	conformcheck rules list

	# Print build info
	conformcheck version

Output:
	By default, commands write human-readable output to stdout.
	The check command supports structured output (see "conformcheck check --help").`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().Bool(flags.FlagVerbose, false, "Enable verbose logging (rule evaluation, probe and config details on stderr)")
}

func SetBuildInfo(version, commit, date string) {
	if version != "" {
		buildVersion = version
	}
	if commit != "" {
		buildCommit = commit
	}
	if date != "" {
		buildDate = date
	}

	rootCmd.Version = fmt.Sprintf("%s (%s) %s", buildVersion, buildCommit, buildDate)
	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

func BuildInfo() (version, commit, date string) {
	return buildVersion, buildCommit, buildDate
}

// Execute runs the root command. An interrupt cancels the running check.
// Flag and argument errors are configuration errors and exit with
// engine.ExitFatal, never with the rule-failure code.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(engine.ExitFatal)
	}
}
