package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"conformcheck/internal/config"
	"conformcheck/internal/data"
	"conformcheck/internal/flags"
	"conformcheck/internal/output"
	"conformcheck/internal/probe"
	"conformcheck/internal/report"
	"conformcheck/internal/rules"
)

// Exit codes of a check run.
const (
	ExitPass  = 0
	ExitFail  = 1
	ExitFatal = 3
)

func exitCodeForRun(fatal, blockingFailures bool) int {
	// Exit code contract:
	// 0 = every blocking rule passed
	// 1 = at least one blocking rule failed
	// 3 = fatal error (invalid rule table, unusable target, broken sink, canceled run)
	if fatal {
		return ExitFatal
	}
	if blockingFailures {
		return ExitFail
	}
	return ExitPass
}

type Engine struct {
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger

	// probeRuntime is a test seam for PHP discovery.
	// If nil, Engine runs probe.PHP with the configured binary.
	probeRuntime func(ctx context.Context, cfg *config.Config) (data.RuntimeInfo, error)
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Logger: logger,
	}
}

func (e *Engine) progress(cfg *config.Config, format string, args ...any) {
	if cfg.Output.NoConsole {
		return
	}
	fmt.Fprintf(e.Stderr, format+"\n", args...)
}

func (e *Engine) setupOutputManager(cfg *config.Config) (*output.Manager, error) {
	outMgr := output.NewManager()

	// Console Sink
	if !cfg.Output.NoConsole {
		cs, err := output.NewConsoleSink(e.Stdout, cfg.Output.Format, cfg.Output.FilterStatus)
		if err != nil {
			return nil, err
		}
		if err := outMgr.AddSink(cs); err != nil {
			return nil, err
		}
	}

	// Emit Sinks (additional structured streams)
	for _, emit := range cfg.Output.Emit {
		es, err := output.NewEmitSink(e.Stdout, emit)
		if err != nil {
			_ = outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(es); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	// File Sink
	if cfg.Output.Out != "" {
		fs, err := output.NewFileSink(cfg.Output.Out, cfg.Output.OutFormat)
		if err != nil {
			_ = outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(fs); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	// Report Sink
	if cfg.Output.Report != "" {
		rs, err := output.NewReportSink(cfg.Output.Report)
		if err != nil {
			_ = outMgr.Close()
			return nil, err
		}
		if err := outMgr.AddSink(rs); err != nil {
			_ = outMgr.Close()
			return nil, err
		}
	}

	return outMgr, nil
}

// resolveRules builds the table for this run: the built-in rules plus any
// --rules-file additions, validated, with --set overrides applied, filtered
// by the --rules selector.
func resolveRules(cfg *config.Config) ([]rules.Rule, error) {
	table := rules.List()
	if cfg.Rules.File != "" {
		extra, err := rules.LoadFile(cfg.Rules.File)
		if err != nil {
			return nil, err
		}
		table = append(table, extra...)
	}
	if err := rules.Validate(table); err != nil {
		return nil, err
	}

	table, err := applyRuleOptions(table, cfg.Rules.Set)
	if err != nil {
		return nil, &rules.ConfigurationError{Err: err}
	}
	// Overrides can produce invalid rules (an unparsable minimum, say).
	if err := rules.Validate(table); err != nil {
		return nil, err
	}

	selected, err := rules.Select(table, cfg.Rules.Selector)
	if err != nil {
		return nil, &rules.ConfigurationError{Err: err}
	}
	return selected, nil
}

func needsRuntime(table []rules.Rule) (version, extensions bool) {
	for _, r := range table {
		switch r.Kind {
		case rules.KindVersionAtLeast:
			version = true
		case rules.KindExtensionLoaded:
			extensions = true
		}
	}
	return version, extensions
}

// resolveRuntime combines --runtime-version/--extensions with probing. The
// PHP binary is only invoked when a selected rule needs something the
// overrides do not provide.
func (e *Engine) resolveRuntime(ctx context.Context, cfg *config.Config, table []rules.Rule) data.RuntimeInfo {
	version := cfg.Runtime.Version
	var exts []string
	if cfg.Runtime.ExtensionsSet {
		exts = append([]string{}, cfg.Runtime.Extensions...)
	}
	source := "config"

	needVersion, needExts := needsRuntime(table)
	if (needVersion && version == "") || (needExts && exts == nil) {
		probeFn := e.probeRuntime
		if probeFn == nil {
			probeFn = func(ctx context.Context, cfg *config.Config) (data.RuntimeInfo, error) {
				return probe.PHP(ctx, cfg.Runtime.PHP, cfg.Runtime.ProbeTimeout)
			}
		}
		e.progress(cfg, "Probing PHP runtime...")
		probed, err := probeFn(ctx, cfg)
		if err != nil {
			fmt.Fprintf(e.Stderr, "Warning: PHP probe failed: %v\n", err)
		}
		e.Logger.Debug("runtime probed", "binary", cfg.Runtime.PHP, "source", probed.Source, "version", probed.Version, "extensions", len(probed.Extensions()))
		if version == "" {
			version = probed.Version
		}
		if exts == nil && probed.ExtensionsKnown() {
			exts = probed.Extensions()
		}
		if probed.Source != "" {
			source = probed.Source
		}
	}
	return data.NewRuntimeInfo(version, exts, source)
}

func describeRuntime(rt data.RuntimeInfo) string {
	v := rt.Version
	if v == "" {
		v = "unknown"
	}
	return fmt.Sprintf("PHP %s (%s)", v, rt.Source)
}

// Run executes one check and returns the process exit code.
func (e *Engine) Run(ctx context.Context, cfg *config.Config) int {
	if e.Logger == nil {
		e.Logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithTimeout(ctx, cfg.Runtime.Timeout)
	defer cancel()

	if cfg.File != "" {
		e.Logger.Debug("config file loaded", "path", cfg.File)
	}

	e.progress(cfg, "Resolving rules...")
	table, err := resolveRules(cfg)
	if err != nil {
		fmt.Fprintf(e.Stderr, "Error resolving rules: %v\n", err)
		return exitCodeForRun(true, false)
	}
	e.progress(cfg, "Selected %d rules.", len(table))

	rt := e.resolveRuntime(ctx, cfg, table)
	env, err := data.NewEnvironment(cfg.Target.Root, cfg.Target.Subject, rt)
	if err != nil {
		fmt.Fprintf(e.Stderr, "Error resolving target: %v\n", err)
		return exitCodeForRun(true, false)
	}
	e.Logger.Debug("environment resolved", "root", env.RootPath, "subject", env.SubjectPath, "runtime", describeRuntime(rt))

	outMgr, err := e.setupOutputManager(cfg)
	if err != nil {
		fmt.Fprintf(e.Stderr, "Error creating output sinks: %v\n", err)
		return exitCodeForRun(true, false)
	}

	_ = outMgr.Write(output.Event{
		Type:    output.EventRunStarted,
		Root:    env.RootPath,
		Subject: env.SubjectPath,
		Runtime: describeRuntime(rt),
		Command: buildReproducibilityCommand(cfg),
		Rules:   len(table),
	})

	code := e.evaluate(ctx, cfg, env, table, outMgr)

	if err := outMgr.Close(); err != nil || outMgr.Err() != nil {
		if err == nil {
			err = outMgr.Err()
		}
		fmt.Fprintf(e.Stderr, "Error writing output: %v\n", err)
		return exitCodeForRun(true, false)
	}
	return code
}

func (e *Engine) evaluate(ctx context.Context, cfg *config.Config, env *data.Environment, table []rules.Rule, outMgr *output.Manager) int {
	scheduler, err := NewScheduler(NewEvaluator(env, e.Logger), cfg.Runtime.Concurrency)
	if err != nil {
		fmt.Fprintf(e.Stderr, "Error creating scheduler: %v\n", err)
		code := exitCodeForRun(true, false)
		_ = outMgr.Write(output.RunFinished(nil, code))
		return code
	}

	builder := report.NewBuilder(cfg.Runtime.Strict)
	err = scheduler.Execute(ctx, table, func(_ int, res rules.Result) {
		stored := builder.Add(res)
		e.Logger.Debug("rule evaluated", "rule", stored.RuleID, "outcome", stored.Status, "message", stored.Message)
		_ = outMgr.Write(stored)
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			fmt.Fprintf(e.Stderr, "Error: check timed out after %s\n", cfg.Runtime.Timeout)
		} else {
			fmt.Fprintf(e.Stderr, "Error: check aborted: %v\n", err)
		}
		code := exitCodeForRun(true, false)
		_ = outMgr.Write(output.RunFinished(nil, code))
		return code
	}

	rep := builder.Finalize()
	code := exitCodeForRun(false, !rep.Passed())
	_ = outMgr.Write(rep)
	_ = outMgr.Write(output.RunFinished(rep, code))
	return code
}

// buildReproducibilityCommand renders the check invocation that reproduces
// this run's rule behavior. Output-only flags are left out.
func buildReproducibilityCommand(cfg *config.Config) string {
	args := []string{"conformcheck", "check",
		"--" + flags.FlagRoot, shellQuote(cfg.Target.Root),
		"--" + flags.FlagSubject, shellQuote(cfg.Target.Subject),
	}
	add := func(flag, value string) {
		if value != "" {
			args = append(args, "--"+flag, shellQuote(value))
		}
	}
	if cfg.Runtime.Strict {
		args = append(args, "--"+flags.FlagStrict)
	}
	add(flags.FlagRules, cfg.Rules.Selector)
	for _, s := range cfg.Rules.Set {
		add(flags.FlagSet, s)
	}
	add(flags.FlagRulesFile, cfg.Rules.File)
	add(flags.FlagRuntimeVersion, cfg.Runtime.Version)
	if cfg.Runtime.ExtensionsSet {
		args = append(args, "--"+flags.FlagExtensions, shellQuote(strings.Join(cfg.Runtime.Extensions, ",")))
	}
	if cfg.Runtime.PHP != "" && cfg.Runtime.PHP != probe.DefaultBinary {
		add(flags.FlagPHP, cfg.Runtime.PHP)
	}
	return strings.Join(args, " ")
}

func shellQuote(s string) string {
	if s == "" {
		return "''"
	}
	safe := true
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./,=:@+", r)) {
			safe = false
			break
		}
	}
	if safe {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
