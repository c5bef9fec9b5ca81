package output

import (
	"errors"
	"fmt"

	"conformcheck/internal/report"
	"conformcheck/internal/rules"
)

// Sink receives the values of one check run in order: the run.started
// Event, one rules.Result per evaluated rule, the final *report.Report and
// the run.finished Event. Console, emit, file and Markdown report sinks
// implement it.
type Sink interface {
	Write(v any) error
	Close() error
}

// Manager routes a run's values to the configured sinks. A failing sink does
// not stop delivery to the others. The first failure is kept so the engine
// can turn a lost artifact into ExitFatal after the run.
type Manager struct {
	sinks []Sink
	err   error
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) AddSink(s Sink) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	if s == nil {
		return fmt.Errorf("sink must not be nil")
	}
	m.sinks = append(m.sinks, s)
	return nil
}

// Write delivers v to every sink. Values other than Event, rules.Result and
// *report.Report are rejected before any sink sees them.
func (m *Manager) Write(v any) error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	switch v.(type) {
	case Event, rules.Result, *report.Report:
	default:
		return m.keep(fmt.Errorf("unsupported output value %T", v))
	}

	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(v); err != nil {
			errs = append(errs, fmt.Errorf("write %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return m.keep(fmt.Errorf("errors writing to sinks: %w", errors.Join(errs...)))
	}
	return nil
}

// Close flushes and closes every sink, including the ones that fail.
func (m *Manager) Close() error {
	if m == nil {
		return fmt.Errorf("output manager is nil")
	}
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %T: %w", s, err))
		}
	}
	if len(errs) > 0 {
		return m.keep(fmt.Errorf("errors closing sinks: %w", errors.Join(errs...)))
	}
	return nil
}

// Err returns the first write or close error seen, if any.
func (m *Manager) Err() error {
	if m == nil {
		return nil
	}
	return m.err
}

func (m *Manager) keep(err error) error {
	if m.err == nil {
		m.err = err
	}
	return err
}
