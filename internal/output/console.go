package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"

	"conformcheck/internal/report"
	"conformcheck/internal/rules"
)

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
	skipColor = color.New(color.FgYellow)
)

// ConsoleSink renders results for humans (text) or machines (json, ndjson).
type ConsoleSink struct {
	writer          io.Writer
	format          string // "text", "json", "ndjson"
	mu              sync.Mutex
	enc             *structuredWriter
	allowedStatuses map[string]bool
}

func NewConsoleSink(w io.Writer, format string, filterStatuses []string) (*ConsoleSink, error) {
	if w == nil {
		w = os.Stdout
	}
	if format == "" {
		format = "text"
	}

	s := &ConsoleSink{
		writer: w,
		format: format,
	}

	if len(filterStatuses) > 0 {
		s.allowedStatuses = make(map[string]bool)
		for _, st := range filterStatuses {
			s.allowedStatuses[strings.ToUpper(strings.TrimSpace(st))] = true
		}
	}

	switch format {
	case "text":
	case "json", "ndjson":
		enc, err := newStructuredWriter(w, format, s.keep)
		if err != nil {
			return nil, err
		}
		s.enc = enc
	default:
		return nil, fmt.Errorf("unsupported console format: %s", format)
	}
	return s, nil
}

func (s *ConsoleSink) keep(r rules.Result) bool {
	return len(s.allowedStatuses) == 0 || s.allowedStatuses[r.Status.Label()]
}

func (s *ConsoleSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.enc != nil {
		return s.enc.write(v)
	}

	switch t := v.(type) {
	case rules.Result:
		if !s.keep(t) {
			return nil
		}
		if _, err := fmt.Fprintln(s.writer, FormatResultLine(t)); err != nil {
			return err
		}
	case *report.Report:
		if _, err := fmt.Fprintf(s.writer, "\n%s\n", FormatSummary(t)); err != nil {
			return err
		}
	default:
		// Lifecycle events are not shown in text mode.
		return nil
	}
	return flushIfPossible(s.writer)
}

func (s *ConsoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enc != nil {
		return s.enc.close()
	}
	return nil
}

func statusColor(st rules.Status) *color.Color {
	switch st {
	case rules.StatusPass:
		return passColor
	case rules.StatusFail:
		return failColor
	default:
		return skipColor
	}
}

func statusSymbol(st rules.Status) string {
	switch st {
	case rules.StatusPass:
		return "✓"
	case rules.StatusFail:
		return "✗"
	default:
		return "-"
	}
}

// FormatResultLine renders one result as "✓ [PASS] id - description: message".
func FormatResultLine(r rules.Result) string {
	c := statusColor(r.Status)
	var b strings.Builder
	b.WriteString(c.Sprint(statusSymbol(r.Status)))
	b.WriteString(" [")
	b.WriteString(c.Sprint(r.Status.Label()))
	b.WriteString("] ")
	b.WriteString(r.RuleID)
	if r.Description != "" {
		b.WriteString(" - ")
		b.WriteString(r.Description)
	}
	if r.Message != "" {
		b.WriteString(": ")
		b.WriteString(r.Message)
	}
	return b.String()
}

// FormatSummary renders the closing summary of a text report.
func FormatSummary(rep *report.Report) string {
	status := rules.StatusPass
	if !rep.Passed() {
		status = rules.StatusFail
	}
	mode := ""
	if rep.Strict {
		mode = " (strict)"
	}
	return fmt.Sprintf("%d rules: %s passed, %s failed, %s skipped\nResult: %s%s",
		rep.Counts.Total(),
		passColor.Sprint(rep.Counts.Passed),
		failColor.Sprint(rep.Counts.Failed),
		skipColor.Sprint(rep.Counts.Skipped),
		statusColor(status).Sprint(status.Label()),
		mode,
	)
}
