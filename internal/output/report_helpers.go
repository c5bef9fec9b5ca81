package output

import (
	"strings"

	"conformcheck/internal/rules"
)

// Categories
const (
	CategoryProjectLayout = "Project layout"
	CategoryDocker        = "Docker scaffolding"
	CategorySubject       = "Subject application"
	CategoryRuntime       = "PHP runtime"
	CategoryOther         = "Other"
)

// categoryOrder is the row order of the summary table.
var categoryOrder = []string{
	CategoryProjectLayout,
	CategoryDocker,
	CategorySubject,
	CategoryRuntime,
	CategoryOther,
}

// rulePrefixes assigns categories by rule ID prefix.
var rulePrefixes = []struct {
	prefix   string
	category string
}{
	{"root-", CategoryProjectLayout},
	{"docker-", CategoryDocker},
	{"subject-", CategorySubject},
	{"php-", CategoryRuntime},
}

func getCategory(ruleID string) string {
	for _, p := range rulePrefixes {
		if strings.HasPrefix(ruleID, p.prefix) {
			return p.category
		}
	}
	return CategoryOther
}

type categoryStats struct {
	Name    string
	Rules   int
	Pass    int
	Fail    int
	Skipped int
}

// computeCategoryStats returns per-category counts in categoryOrder, omitting
// empty categories.
func computeCategoryStats(results []rules.Result) []*categoryStats {
	byName := make(map[string]*categoryStats)
	for _, r := range results {
		name := getCategory(r.RuleID)
		cs, ok := byName[name]
		if !ok {
			cs = &categoryStats{Name: name}
			byName[name] = cs
		}
		cs.Rules++
		switch r.Status {
		case rules.StatusPass:
			cs.Pass++
		case rules.StatusFail:
			cs.Fail++
		case rules.StatusSkipped:
			cs.Skipped++
		}
	}

	var out []*categoryStats
	for _, name := range categoryOrder {
		if cs, ok := byName[name]; ok {
			out = append(out, cs)
		}
	}
	return out
}

// normalizeMessage collapses whitespace and truncates long messages so table
// rows stay readable.
func normalizeMessage(msg string) string {
	s := strings.Join(strings.Fields(msg), " ")
	if len(s) > 160 {
		return s[:157] + "..."
	}
	return s
}
