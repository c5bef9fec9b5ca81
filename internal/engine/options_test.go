package engine

import (
	"strings"
	"testing"

	"conformcheck/internal/rules"
)

func optionsTable() []rules.Rule {
	return []rules.Rule{
		{ID: "php-version", Description: "PHP runtime is 8.0 or newer", Kind: rules.KindVersionAtLeast, Severity: rules.SeverityRequired, Minimum: "8.0"},
		{ID: "subject-config", Description: "config.php is PHP", Kind: rules.KindStringContains, Severity: rules.SeverityOptional, Scope: rules.ScopeSubject, Target: "config.php", Substring: "<?php"},
	}
}

func TestApplyRuleOptions(t *testing.T) {
	table := optionsTable()
	out, err := applyRuleOptions(table, []string{"php-version.minimum=8.1", "subject-config.severity=required,subject-config.substring=return"})
	if err != nil {
		t.Fatalf("applyRuleOptions error: %v", err)
	}

	if out[0].Minimum != "8.1" {
		t.Fatalf("expected minimum 8.1, got %q", out[0].Minimum)
	}
	if out[1].Severity != rules.SeverityRequired || out[1].Substring != "return" {
		t.Fatalf("unexpected subject-config rule: %+v", out[1])
	}
	// The input table is left untouched.
	if table[0].Minimum != "8.0" || table[1].Severity != rules.SeverityOptional {
		t.Fatalf("input table was mutated: %+v", table)
	}
}

func TestApplyRuleOptions_NoAssignments(t *testing.T) {
	table := optionsTable()
	out, err := applyRuleOptions(table, nil)
	if err != nil {
		t.Fatalf("applyRuleOptions error: %v", err)
	}
	if len(out) != len(table) {
		t.Fatalf("expected table to be returned unchanged")
	}
}

func TestApplyRuleOptions_Errors(t *testing.T) {
	tests := []struct {
		name string
		set  []string
		want string
	}{
		{name: "unknown_rule", set: []string{"nope.severity=optional"}, want: `unknown rule ID "nope"`},
		{name: "unknown_option", set: []string{"php-version.substring=x"}, want: `unknown option "substring"`},
		{name: "bad_severity", set: []string{"php-version.severity=sometimes"}, want: "unsupported severity"},
		{name: "bad_syntax", set: []string{"php-version"}, want: "expected rule.option=value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := applyRuleOptions(optionsTable(), tt.set)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}
