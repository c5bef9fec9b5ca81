package flags

// Package flags defines canonical CLI flag names shared across the CLI, the
// config loader and the engine.
// Keeping these as constants avoids drift between Cobra flag wiring, the
// koanf key mapping in internal/config and report generation.
// IMPORTANT: These are flag *names* without leading dashes.
// Example usage:
//
//	cmd.Flags().StringVar(&cfg.Target.Root, flags.FlagRoot, ".", "...")
//	arg := "--" + flags.FlagRoot
const (
	// Target
	FlagRoot    = "root"
	FlagSubject = "subject"

	// Rules
	FlagRules     = "rules"
	FlagSet       = "set"
	FlagRulesFile = "rules-file"

	// Output
	FlagFormat       = "format"
	FlagFilterStatus = "filter-status"
	FlagReport       = "report"
	FlagOut          = "out"
	FlagOutFormat    = "out-format"
	FlagEmit         = "emit"
	FlagNoConsole    = "no-console"

	// Runtime
	FlagStrict         = "strict"
	FlagRuntimeVersion = "runtime-version"
	FlagExtensions     = "extensions"
	FlagPHP            = "php"
	FlagProbeTimeout   = "probe-timeout"
	FlagConcurrency    = "concurrency"
	FlagTimeout        = "timeout"
	FlagVerbose        = "verbose"

	// Config
	FlagConfig = "config"
)
