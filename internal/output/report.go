package output

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"conformcheck/internal/report"
	"conformcheck/internal/rules"
)

// ReportSink writes a Markdown report on Close.
type ReportSink struct {
	path     string
	file     *os.File
	mu       sync.Mutex
	started  Event
	results  []rules.Result
	rep      *report.Report
	exitCode *int
}

func NewReportSink(path string) (*ReportSink, error) {
	if path == "" {
		return nil, fmt.Errorf("report path required")
	}
	if err := ensureParentDir(path); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create report file: %w", err)
	}
	return &ReportSink{path: path, file: f}, nil
}

func (s *ReportSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case rules.Result:
		s.results = append(s.results, t)
	case *report.Report:
		s.rep = t
	case Event:
		switch t.Type {
		case EventRunStarted:
			s.started = t
		case EventRunFinished:
			s.exitCode = t.ExitCode
		}
	}
	return nil
}

func (s *ReportSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.file.WriteString(renderMarkdown(s.started, s.results, s.rep, s.exitCode))
	if closeErr := s.file.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	return err
}

func renderMarkdown(started Event, results []rules.Result, rep *report.Report, exitCode *int) string {
	if rep != nil {
		// The report holds the stored form of each result (strict promotion applied).
		results = rep.Results
	}

	var b strings.Builder
	b.WriteString("# Conformance Report\n\n")

	if started.Root != "" {
		fmt.Fprintf(&b, "- **Root:** `%s`\n", started.Root)
	}
	if started.Subject != "" {
		fmt.Fprintf(&b, "- **Subject:** `%s`\n", started.Subject)
	}
	if started.Runtime != "" {
		fmt.Fprintf(&b, "- **Runtime:** %s\n", started.Runtime)
	}
	if started.Command != "" {
		fmt.Fprintf(&b, "- **Reproduce:** `%s`\n", started.Command)
	}
	if rep != nil {
		status := "PASS"
		if !rep.Passed() {
			status = "FAIL"
		}
		strict := "no"
		if rep.Strict {
			strict = "yes"
		}
		fmt.Fprintf(&b, "- **Status:** %s\n", status)
		fmt.Fprintf(&b, "- **Strict:** %s\n", strict)
	} else {
		b.WriteString("- **Status:** incomplete (the run did not finish)\n")
	}
	if exitCode != nil {
		fmt.Fprintf(&b, "- **Exit code:** %d\n", *exitCode)
	}
	b.WriteString("\n")

	// --- Summary ---
	b.WriteString("## Summary\n\n")
	b.WriteString("| Category | Rules | Passed | Failed | Skipped |\n")
	b.WriteString("| --- | ---: | ---: | ---: | ---: |\n")
	var total categoryStats
	for _, cs := range computeCategoryStats(results) {
		fmt.Fprintf(&b, "| %s | %d | %d | %d | %d |\n", cs.Name, cs.Rules, cs.Pass, cs.Fail, cs.Skipped)
		total.Rules += cs.Rules
		total.Pass += cs.Pass
		total.Fail += cs.Fail
		total.Skipped += cs.Skipped
	}
	fmt.Fprintf(&b, "| **Total** | %d | %d | %d | %d |\n\n", total.Rules, total.Pass, total.Fail, total.Skipped)

	// --- Failures ---
	b.WriteString("## Failures\n\n")
	writeResultTable(&b, filterResults(results, rules.StatusFail), "No failures.")

	// --- Skipped ---
	b.WriteString("## Skipped\n\n")
	writeResultTable(&b, filterResults(results, rules.StatusSkipped), "No skipped rules.")

	// --- All results ---
	b.WriteString("## All Results\n\n")
	if len(results) == 0 {
		b.WriteString("No rules were evaluated.\n")
		return b.String()
	}
	b.WriteString("| Rule | Outcome | Severity | Description | Message |\n")
	b.WriteString("| --- | --- | --- | --- | --- |\n")
	for _, r := range results {
		fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s |\n",
			r.RuleID, r.Status.Label(), r.Severity, escapeCell(r.Description), escapeCell(normalizeMessage(r.Message)))
	}
	return b.String()
}

func writeResultTable(b *strings.Builder, results []rules.Result, empty string) {
	if len(results) == 0 {
		b.WriteString(empty + "\n\n")
		return
	}
	b.WriteString("| Rule | Severity | Message |\n")
	b.WriteString("| --- | --- | --- |\n")
	for _, r := range results {
		fmt.Fprintf(b, "| `%s` | %s | %s |\n", r.RuleID, r.Severity, escapeCell(normalizeMessage(r.Message)))
	}
	b.WriteString("\n")
}

func filterResults(results []rules.Result, status rules.Status) []rules.Result {
	var out []rules.Result
	for _, r := range results {
		if r.Status == status {
			out = append(out, r)
		}
	}
	return out
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
