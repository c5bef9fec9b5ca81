package output

import (
	"fmt"
	"io"
	"sync"
)

// EmitSink writes an additional structured stream, typically to stdout next
// to a text console.
//
// Formats:
//   - json: the final report document, written on Close
//   - ndjson: lifecycle events, one JSON object per line
type EmitSink struct {
	mu  sync.Mutex
	enc *structuredWriter
}

func NewEmitSink(w io.Writer, format string) (*EmitSink, error) {
	if w == nil {
		return nil, fmt.Errorf("emit sink writer must not be nil")
	}
	enc, err := newStructuredWriter(w, format, nil)
	if err != nil {
		return nil, fmt.Errorf("unsupported emit format: %s", format)
	}
	return &EmitSink{enc: enc}, nil
}

func (s *EmitSink) Write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.write(v)
}

func (s *EmitSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.close()
}
