package output

import (
	"encoding/json"
	"fmt"
	"io"

	"conformcheck/internal/report"
	"conformcheck/internal/rules"
)

// structuredWriter renders the json and ndjson formats shared by the console,
// emit and file sinks. Callers serialize access.
//
//   - json: waits for the finalized *report.Report and writes it as one
//     indented document on close
//   - ndjson: streams Event values, one JSON object per line
type structuredWriter struct {
	w      io.Writer
	format string
	// keep filters rule results; nil keeps everything.
	keep func(rules.Result) bool
	doc  *report.Report
}

func newStructuredWriter(w io.Writer, format string, keep func(rules.Result) bool) (*structuredWriter, error) {
	if format != "json" && format != "ndjson" {
		return nil, fmt.Errorf("unsupported structured format: %s", format)
	}
	return &structuredWriter{w: w, format: format, keep: keep}, nil
}

func (s *structuredWriter) write(v any) error {
	switch s.format {
	case "json":
		if rep, ok := v.(*report.Report); ok {
			s.doc = rep
		}
		return nil
	case "ndjson":
		var ev Event
		switch t := v.(type) {
		case Event:
			ev = t
		case rules.Result:
			if s.keep != nil && !s.keep(t) {
				return nil
			}
			ev = eventFromResult(t)
		default:
			return nil
		}
		if err := json.NewEncoder(s.w).Encode(ev); err != nil {
			return err
		}
		return flushIfPossible(s.w)
	}
	return fmt.Errorf("unsupported structured format: %s", s.format)
}

func (s *structuredWriter) close() error {
	if s.format != "json" || s.doc == nil {
		return nil
	}
	doc := *s.doc
	if s.keep != nil {
		doc.Results = nil
		for _, r := range s.doc.Results {
			if s.keep(r) {
				doc.Results = append(doc.Results, r)
			}
		}
	}
	if doc.Results == nil {
		doc.Results = []rules.Result{}
	}
	encoder := json.NewEncoder(s.w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return err
	}
	return flushIfPossible(s.w)
}

type flusher interface {
	Flush() error
}

// flushIfPossible pushes buffered output through so NDJSON consumers see each
// line as soon as it is written.
func flushIfPossible(w io.Writer) error {
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}
