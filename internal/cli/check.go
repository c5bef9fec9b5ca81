package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"conformcheck/internal/config"
	"conformcheck/internal/engine"
	"conformcheck/internal/flags"
)

const checkHelpTemplate = `{{with (or .Long .Short)}}{{. | trimTrailingWhitespaces}}

{{end}}Usage:
  {{.UseLine}}

{{if .HasAvailableLocalFlags}}Flags:
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableInheritedFlags}}Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}Configuration:
	Settings are layered, highest precedence first:
	1) flags given on the command line
	2) CONFORMCHECK_* environment variables (CONFORMCHECK_RULES_FILE for --rules-file)
	3) the config file: --config, else .conformcheck.yaml or .conformcheck.yml in --root
	4) built-in defaults

	Example .conformcheck.yaml:
	  target:
	    subject: src
	  rules:
	    set:
	      - php-version.minimum=8.1
	  runtime:
	    strict: true
	    extensions: [json, mbstring, curl]
`

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a project tree against the conformance rules",
	Long: `Check a Flarum CI/CD project tree against the conformance rule table.

Root-scoped rules resolve against --root; subject-scoped rules resolve against
--subject (relative to --root unless absolute). Runtime rules use
--runtime-version and --extensions when given and otherwise query the PHP
binary named by --php. The binary is only run when a selected rule needs it.

Severity:
	Required rules fail when their target is missing.
	Optional rules are skipped when their target is missing; with --strict a
	skipped rule fails instead and every failure blocks.

Output:
	Console output is controlled by --format (default: text).
	Structured outputs can be written via:
	- --out / --out-format: write a JSON report or an NDJSON event stream to a file
	- --emit: write an additional structured stream to stdout (json or ndjson)
	- --report: write a Markdown report
	- --no-console: suppress the console sink (use with --emit/--out/--report)

	NDJSON mode emits one JSON object per line. Objects are lifecycle Events with a
	"type" field (run.started, rule.result, run.finished).

Exit codes:
	0 = every blocking rule passed
	1 = at least one blocking rule failed
	3 = fatal error (invalid configuration or rule table, unusable output, timeout)

Examples:
  # Check the current directory
  conformcheck check

  # Check a checkout with the forum in ./forum, failing on anything optional
  conformcheck check --root /srv/pipeline --subject forum --strict

  # Skip the PHP probe in a container without PHP
  conformcheck check --runtime-version 8.2.12 --extensions json,mbstring,curl

  # Only the runtime rules, as JSON
  conformcheck check --rules 'php-*' --format json

  # CI: Markdown report plus NDJSON events, nothing on the console
  conformcheck check --no-console --report conformance.md --out events.ndjson
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runCheck(cmd))
	},
}

// runCheck loads and validates the configuration, then runs the engine.
// It returns the process exit code.
func runCheck(cmd *cobra.Command) int {
	configFile, _ := cmd.Flags().GetString(flags.FlagConfig)
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return engine.ExitFatal
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		return engine.ExitFatal
	}

	eng := engine.NewEngine(newLogger(cmd, cfg.Runtime.Verbose))
	eng.Stdout = cmd.OutOrStdout()
	eng.Stderr = cmd.ErrOrStderr()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return eng.Run(ctx, cfg)
}

func newLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	if !verbose {
		return slog.New(slog.DiscardHandler)
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.SetHelpTemplate(checkHelpTemplate)

	// MAINTAINER NOTE: If you add/change/remove any check-affecting flags here,
	// keep internal/config/loader.go:flagKeys and the report reproducibility
	// command (internal/engine/engine.go:buildReproducibilityCommand) in sync.
	//
	// Flags are left unbound; config.Load picks up only those that were set.
	addCheckFlags(checkCmd.Flags())
}

func addCheckFlags(f *pflag.FlagSet) {
	d := config.New()

	f.String(flags.FlagConfig, "", "Config file (default: .conformcheck.yaml or .conformcheck.yml in --root)")

	// Target
	f.String(flags.FlagRoot, d.Target.Root, "Project root that root-scoped rules resolve against")
	f.String(flags.FlagSubject, d.Target.Subject, "Forum application directory, relative to --root unless absolute")

	// Rules
	f.String(flags.FlagRules, "", "Rule selector: comma-separated rule IDs or globs such as 'php-ext-*' (empty = all rules)")
	f.StringSlice(flags.FlagSet, nil, "Per-rule options as ruleID.option=value (repeatable; comma-separated accepted)")
	f.String(flags.FlagRulesFile, "", "YAML file with additional rules appended to the built-in table")

	// Output
	f.String(flags.FlagFormat, d.Output.Format, "Console output format: text|json|ndjson")
	f.StringSlice(flags.FlagFilterStatus, nil, "Filter console output by status (PASS, FAIL, SKIPPED). Comma-separated.")
	f.String(flags.FlagReport, "", "Write a Markdown report to this path")
	f.String(flags.FlagOut, "", "Write structured output to this path")
	f.String(flags.FlagOutFormat, "", "Structured output format for --out: json|ndjson (default: inferred from file extension)")
	f.StringSlice(flags.FlagEmit, nil, "Emit additional structured stream to stdout: json|ndjson (repeatable; comma-separated accepted)")
	f.Bool(flags.FlagNoConsole, false, "Suppress console output and progress lines (use with --emit/--out/--report)")

	// Runtime
	f.Bool(flags.FlagStrict, false, "Treat skipped optional rules as failures and make every failure blocking")
	f.String(flags.FlagRuntimeVersion, "", "PHP version to assume instead of probing (e.g. 8.2.12)")
	f.StringSlice(flags.FlagExtensions, nil, "Loaded PHP extensions to assume instead of probing (comma-separated; an explicit empty value means none)")
	f.String(flags.FlagPHP, d.Runtime.PHP, "PHP binary used to probe the runtime")
	f.Duration(flags.FlagProbeTimeout, d.Runtime.ProbeTimeout, "Timeout for each PHP probe invocation")
	f.Int(flags.FlagConcurrency, d.Runtime.Concurrency, "Concurrent rule evaluations")
	f.Duration(flags.FlagTimeout, d.Runtime.Timeout, "Global timeout for the check")
}
