package rules

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

// ConfigurationError reports a malformed rule table. It is the only fatal
// condition of a run and is raised before any rule is evaluated.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return "invalid rule table: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Validate checks every rule in the table and returns a *ConfigurationError
// describing all problems found, or nil.
func Validate(table []Rule) error {
	var errs []error
	seen := make(map[string]struct{}, len(table))
	for i, r := range table {
		if strings.TrimSpace(r.ID) == "" {
			errs = append(errs, fmt.Errorf("rule #%d: empty id", i+1))
			continue
		}
		if _, dup := seen[r.ID]; dup {
			errs = append(errs, fmt.Errorf("rule %s: duplicate id", r.ID))
		}
		seen[r.ID] = struct{}{}
		if err := validateRule(r); err != nil {
			errs = append(errs, fmt.Errorf("rule %s: %w", r.ID, err))
		}
	}
	if len(errs) > 0 {
		return &ConfigurationError{Err: errors.Join(errs...)}
	}
	return nil
}

func validateRule(r Rule) error {
	if !r.Kind.Valid() {
		return fmt.Errorf("unknown kind %q", r.Kind)
	}
	if r.Severity != SeverityRequired && r.Severity != SeverityOptional {
		return fmt.Errorf("unknown severity %q", r.Severity)
	}
	if strings.TrimSpace(r.Description) == "" {
		return errors.New("empty description")
	}

	switch r.Kind {
	case KindVersionAtLeast:
		if _, ok := CanonicalVersion(r.Minimum); !ok {
			return fmt.Errorf("unparsable minimum version %q", r.Minimum)
		}
		return nil
	case KindExtensionLoaded:
		if strings.TrimSpace(r.Target) == "" {
			return errors.New("missing extension name")
		}
		return nil
	}

	if r.Scope != ScopeRoot && r.Scope != ScopeSubject {
		return fmt.Errorf("unknown scope %q", r.Scope)
	}
	for _, c := range r.Candidates() {
		if err := validatePath(c); err != nil {
			return err
		}
	}

	switch r.Kind {
	case KindJSONKeyPresent, KindYAMLKeyPresent:
		if len(r.KeyPath) == 0 {
			return errors.New("missing key path")
		}
		for _, k := range r.KeyPath {
			if k == "" {
				return fmt.Errorf("empty segment in key path %q", r.KeyPathString())
			}
		}
	case KindStringContains:
		if r.Substring == "" {
			return errors.New("missing substring")
		}
	}
	return nil
}

// validatePath enforces the io/fs path rules, since targets are opened
// through fs.FS. "." names the scope root itself.
func validatePath(p string) error {
	if !fs.ValidPath(p) {
		return fmt.Errorf("target %q must be a clean slash-separated relative path", p)
	}
	return nil
}
