package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"conformcheck/internal/rules"
)

type Config struct {
	// MAINTAINER NOTE: If you add/change/remove config fields that affect check
	// behavior, keep these in sync:
	// - CLI flags in internal/cli/check.go
	// - flag to key mapping in internal/config/loader.go:flagKeys
	// - report reproducibility command in internal/engine/engine.go:buildReproducibilityCommand
	Target  Target  `koanf:"target"`
	Rules   Rules   `koanf:"rules"`
	Output  Output  `koanf:"output"`
	Runtime Runtime `koanf:"runtime"`

	// File is the config file that was loaded, if any.
	File string `koanf:"-"`
}

type Target struct {
	// Root is the project root the root-scoped rules resolve against (see --root).
	Root string `koanf:"root"`

	// Subject is the application tree under inspection (see --subject).
	// Relative values are resolved against Root.
	Subject string `koanf:"subject"`
}

type Rules struct {
	// Selector selects which rules to run.
	// Empty means all rules; otherwise a comma-separated list of rule IDs or globs (see --rules).
	Selector string `koanf:"selector"`

	// Set provides per-rule option overrides.
	// Entries are of the form ruleID.option=value (repeatable; comma-separated accepted; see --set).
	Set []string `koanf:"set"`

	// File is a YAML file with additional rules appended after the built-in table (see --rules-file).
	File string `koanf:"file"`
}

type Output struct {
	// Format controls the console sink format (see --format).
	// Allowed values: text, json, ndjson.
	Format string `koanf:"format"`

	// FilterStatus filters console output by result status (see --filter-status).
	// Allowed values: PASS, FAIL, SKIPPED.
	FilterStatus []string `koanf:"filter_status"`

	// Report writes a Markdown report to this path (see --report).
	Report string `koanf:"report"`

	// Out writes structured output to this path (see --out).
	Out string `koanf:"out"`

	// OutFormat selects the format for --out (see --out-format).
	// Allowed values: json, ndjson. If empty, it is inferred from the --out file extension.
	OutFormat string `koanf:"out_format"`

	// Emit writes an additional structured event stream to stdout (see --emit).
	// Allowed values: json, ndjson.
	Emit []string `koanf:"emit"`

	// NoConsole suppresses the console sink (see --no-console).
	NoConsole bool `koanf:"no_console"`
}

type Runtime struct {
	// Strict promotes every skipped rule to a failure and makes every rule blocking (see --strict).
	Strict bool `koanf:"strict"`

	// Version overrides the probed PHP version (see --runtime-version).
	Version string `koanf:"version"`

	// Extensions overrides the probed extension list (see --extensions).
	// Only meaningful when ExtensionsSet is true; an explicit empty list means
	// no extensions are loaded.
	Extensions    []string `koanf:"extensions"`
	ExtensionsSet bool     `koanf:"-"`

	// PHP is the binary probed for version and extensions (see --php).
	PHP string `koanf:"php"`

	// ProbeTimeout bounds each PHP invocation (see --probe-timeout).
	ProbeTimeout time.Duration `koanf:"probe_timeout"`

	// Concurrency controls how many rules are evaluated in parallel (see --concurrency).
	// Must be >= 1.
	Concurrency int `koanf:"concurrency"`

	// Timeout is the global timeout for the run (see --timeout).
	// Must be > 0.
	Timeout time.Duration `koanf:"timeout"`

	// Verbose enables debug logging on stderr (see --verbose).
	Verbose bool `koanf:"verbose"`
}

func New() *Config {
	return &Config{
		Target: Target{
			Root:    ".",
			Subject: "src",
		},
		Output: Output{
			Format: "text",
		},
		Runtime: Runtime{
			PHP:          "php",
			ProbeTimeout: 10 * time.Second,
			Concurrency:  4,
			Timeout:      5 * time.Minute,
		},
	}
}

var statusLabels = []string{
	rules.StatusPass.Label(),
	rules.StatusFail.Label(),
	rules.StatusSkipped.Label(),
}

func (c *Config) Validate() error {
	// Normalize comma-delimited list inputs.
	c.Rules.Set = splitCommaList(c.Rules.Set)
	c.Output.Emit = splitCommaList(c.Output.Emit)
	c.Output.FilterStatus = splitCommaList(c.Output.FilterStatus)
	c.Runtime.Extensions = splitCommaList(c.Runtime.Extensions)

	// Target validation
	c.Target.Root = strings.TrimSpace(c.Target.Root)
	if c.Target.Root == "" {
		return errors.New("--root must not be empty")
	}
	c.Target.Subject = strings.TrimSpace(c.Target.Subject)
	if c.Target.Subject == "" {
		return errors.New("--subject must not be empty")
	}

	// Output validation
	c.Output.Format = normalizeEnumValue(c.Output.Format)
	if c.Output.Format == "" {
		return errors.New("--format must be one of: text, json, ndjson")
	}
	if c.Output.Format != "text" && c.Output.Format != "json" && c.Output.Format != "ndjson" {
		return fmt.Errorf("unsupported --format: %s (must be one of: text, json, ndjson)", c.Output.Format)
	}

	for i, emit := range c.Output.Emit {
		v := normalizeEnumValue(emit)
		if v != "json" && v != "ndjson" {
			return fmt.Errorf("unsupported --emit value: %s (must be one of: json, ndjson)", emit)
		}
		c.Output.Emit[i] = v
	}

	for i, st := range c.Output.FilterStatus {
		v := strings.ToUpper(strings.TrimSpace(st))
		if !contains(statusLabels, v) {
			return fmt.Errorf("unsupported --filter-status value: %s (must be one of: %s)", st, strings.Join(statusLabels, ", "))
		}
		c.Output.FilterStatus[i] = v
	}

	if c.Output.Out != "" {
		c.Output.OutFormat = normalizeEnumValue(c.Output.OutFormat)
		if c.Output.OutFormat == "" {
			ext := strings.ToLower(filepath.Ext(c.Output.Out))
			switch ext {
			case ".json":
				c.Output.OutFormat = "json"
			case ".ndjson":
				c.Output.OutFormat = "ndjson"
			default:
				if ext == "" {
					return errors.New("cannot infer output format from file extension (missing extension); use --out-format")
				}
				return fmt.Errorf("cannot infer output format from file extension %q; use --out-format", ext)
			}
		} else if c.Output.OutFormat != "json" && c.Output.OutFormat != "ndjson" {
			return fmt.Errorf("unsupported output format: %s", c.Output.OutFormat)
		}
	}

	// Runtime validation
	if c.Runtime.Concurrency <= 0 {
		return errors.New("--concurrency must be >= 1")
	}
	if c.Runtime.Timeout <= 0 {
		return errors.New("--timeout must be > 0")
	}
	if c.Runtime.ProbeTimeout <= 0 {
		return errors.New("--probe-timeout must be > 0")
	}
	c.Runtime.Version = strings.TrimSpace(c.Runtime.Version)
	if c.Runtime.Version != "" {
		if _, ok := rules.CanonicalVersion(c.Runtime.Version); !ok {
			return fmt.Errorf("invalid --runtime-version %q: expected a dotted numeric version", c.Runtime.Version)
		}
	}
	if len(c.Runtime.Extensions) > 0 {
		c.Runtime.ExtensionsSet = true
	}
	if strings.TrimSpace(c.Runtime.PHP) == "" {
		c.Runtime.PHP = "php"
	}

	// Rule option syntax validation (rule.option=value)
	if len(c.Rules.Set) > 0 {
		if _, err := ParseRuleOptionAssignments(c.Rules.Set); err != nil {
			return err
		}
	}

	return nil
}

func normalizeEnumValue(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// ParseRuleOptionAssignments parses values of the form "ruleID.option=value".
//
// Notes:
// - Entries may be provided via repeated flags and/or comma-delimited lists.
// - This validates syntax only; rule IDs and option names are checked by the engine.
// - Empty values are allowed ("rule.option=").
// - The option is the text after the last dot; values cannot contain commas.
func ParseRuleOptionAssignments(values []string) (map[string]map[string]string, error) {
	out := make(map[string]map[string]string)
	for _, raw := range splitCommaList(values) {
		left, value, ok := strings.Cut(raw, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set entry %q: expected rule.option=value", raw)
		}
		left = strings.TrimSpace(left)
		value = strings.TrimSpace(value)
		i := strings.LastIndex(left, ".")
		if i < 0 {
			return nil, fmt.Errorf("invalid --set entry %q: expected rule.option=value", raw)
		}
		ruleID := strings.TrimSpace(left[:i])
		opt := strings.TrimSpace(left[i+1:])
		if ruleID == "" || opt == "" {
			return nil, fmt.Errorf("invalid --set entry %q: expected non-empty rule and option", raw)
		}
		if _, ok := out[ruleID]; !ok {
			out[ruleID] = make(map[string]string)
		}
		out[ruleID][opt] = value
	}
	return out, nil
}

func splitCommaList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			p := strings.TrimSpace(part)
			if p == "" {
				continue
			}
			out = append(out, p)
		}
	}
	return out
}
