package rules

import (
	"fmt"
	"strings"
)

// Kind selects the predicate a rule evaluates.
type Kind string

const (
	KindFileExists      Kind = "file_exists"
	KindDirExists       Kind = "dir_exists"
	KindJSONKeyPresent  Kind = "json_key_present"
	KindYAMLKeyPresent  Kind = "yaml_key_present"
	KindStringContains  Kind = "string_contains"
	KindVersionAtLeast  Kind = "version_at_least"
	KindExtensionLoaded Kind = "extension_loaded"
)

var kinds = []Kind{
	KindFileExists,
	KindDirExists,
	KindJSONKeyPresent,
	KindYAMLKeyPresent,
	KindStringContains,
	KindVersionAtLeast,
	KindExtensionLoaded,
}

func (k Kind) Valid() bool {
	for _, known := range kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Severity decides what an absent target means for a rule.
type Severity string

const (
	SeverityRequired Severity = "required"
	SeverityOptional Severity = "optional"
)

func ParseSeverity(raw string) (Severity, error) {
	switch Severity(strings.ToLower(strings.TrimSpace(raw))) {
	case SeverityRequired:
		return SeverityRequired, nil
	case SeverityOptional:
		return SeverityOptional, nil
	}
	return "", fmt.Errorf("unsupported severity %q (must be one of: required, optional)", raw)
}

// Scope is the tree a rule's target path is resolved in.
type Scope string

const (
	ScopeRoot    Scope = "root"
	ScopeSubject Scope = "subject"
)

// Rule is a single declarative conformance assertion.
//
// Rules are values: the table hands out copies, and WithOption returns a new
// Rule instead of mutating the receiver.
type Rule struct {
	ID          string   `yaml:"id"`
	Description string   `yaml:"description"`
	Kind        Kind     `yaml:"kind"`
	Severity    Severity `yaml:"severity"`
	Scope       Scope    `yaml:"scope"`

	// Target is a slash-separated path relative to Scope for filesystem and
	// document kinds, or the extension name for KindExtensionLoaded.
	Target string `yaml:"target"`
	// Alternatives are extra candidate paths. Existence kinds pass if any
	// candidate matches; document kinds read the first candidate that exists.
	Alternatives []string `yaml:"alternatives,omitempty"`

	// KeyPath addresses a value inside a JSON or YAML document.
	KeyPath []string `yaml:"key_path,omitempty"`
	// Expect, when set, is the exact scalar the addressed value must equal.
	Expect string `yaml:"expect,omitempty"`

	Substring string `yaml:"substring,omitempty"`
	Minimum   string `yaml:"minimum,omitempty"`
}

func (r Rule) Required() bool {
	return r.Severity == SeverityRequired
}

// Candidates returns Target followed by Alternatives.
func (r Rule) Candidates() []string {
	out := make([]string, 0, 1+len(r.Alternatives))
	out = append(out, r.Target)
	out = append(out, r.Alternatives...)
	return out
}

// KeyPathString renders KeyPath the way it is written in --set values.
func (r Rule) KeyPathString() string {
	return strings.Join(r.KeyPath, ".")
}

type Option struct {
	Name        string
	Description string
	Default     string
}

// Options lists the per-rule overrides accepted via --set for this rule.
func (r Rule) Options() []Option {
	opts := []Option{
		{Name: "severity", Description: "Override the rule severity (required|optional).", Default: string(r.Severity)},
	}
	switch r.Kind {
	case KindFileExists, KindDirExists, KindJSONKeyPresent, KindYAMLKeyPresent, KindStringContains, KindExtensionLoaded:
		opts = append(opts, Option{Name: "target", Description: "Override the checked path (or extension name).", Default: r.Target})
	}
	switch r.Kind {
	case KindVersionAtLeast:
		opts = append(opts, Option{Name: "minimum", Description: "Minimum runtime version (dotted numeric).", Default: r.Minimum})
	case KindStringContains:
		opts = append(opts, Option{Name: "substring", Description: "Text the file must contain.", Default: r.Substring})
	case KindJSONKeyPresent, KindYAMLKeyPresent:
		opts = append(opts, Option{Name: "expect", Description: "Exact value the key must hold (empty = presence only).", Default: r.Expect})
	}
	return opts
}

// WithOption returns a copy of r with a single option applied.
func (r Rule) WithOption(name, value string) (Rule, error) {
	allowed := false
	for _, opt := range r.Options() {
		if opt.Name == name {
			allowed = true
			break
		}
	}
	if !allowed {
		return r, fmt.Errorf("unknown option %q for rule %q", name, r.ID)
	}

	out := r
	out.Alternatives = append([]string(nil), r.Alternatives...)
	out.KeyPath = append([]string(nil), r.KeyPath...)

	switch name {
	case "severity":
		sev, err := ParseSeverity(value)
		if err != nil {
			return r, err
		}
		out.Severity = sev
	case "target":
		if strings.TrimSpace(value) == "" {
			return r, fmt.Errorf("option target for rule %q must not be empty", r.ID)
		}
		out.Target = strings.TrimSpace(value)
		out.Alternatives = nil
	case "minimum":
		out.Minimum = strings.TrimSpace(value)
	case "substring":
		if value == "" {
			return r, fmt.Errorf("option substring for rule %q must not be empty", r.ID)
		}
		out.Substring = value
	case "expect":
		out.Expect = value
	}
	return out, nil
}
