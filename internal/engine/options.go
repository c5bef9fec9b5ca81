package engine

import (
	"fmt"
	"sort"

	"conformcheck/internal/config"
	"conformcheck/internal/rules"
)

// applyRuleOptions applies per-rule configuration supplied via repeated --set
// flags and returns the adjusted table. The input table is not modified.
//
// --set values are parsed as "ruleID.option=value" and applied through
// rules.Rule.WithOption, which rejects options the rule kind does not accept.
//
// Example:
//
//	conformcheck check --root . --set php-version.minimum=8.1 --set subject-config.severity=required
func applyRuleOptions(table []rules.Rule, set []string) ([]rules.Rule, error) {
	if len(set) == 0 {
		return table, nil
	}

	assignments, err := config.ParseRuleOptionAssignments(set)
	if err != nil {
		return nil, err
	}

	index := make(map[string]int, len(table))
	for i, r := range table {
		index[r.ID] = i
	}

	out := append([]rules.Rule(nil), table...)
	// Deterministic order so the first reported error is stable.
	ids := make([]string, 0, len(assignments))
	for id := range assignments {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		i, ok := index[id]
		if !ok {
			return nil, fmt.Errorf("unknown rule ID %q", id)
		}
		opts := assignments[id]
		names := make([]string, 0, len(opts))
		for name := range opts {
			names = append(names, name)
		}
		sort.Strings(names)

		r := out[i]
		for _, name := range names {
			r, err = r.WithOption(name, opts[name])
			if err != nil {
				return nil, fmt.Errorf("configure rule %q: %w", id, err)
			}
		}
		out[i] = r
	}
	return out, nil
}
