// Package report aggregates rule results into the outcome of one run.
package report

import (
	"conformcheck/internal/rules"
)

type Status string

const (
	StatusPass Status = "pass"
	StatusFail Status = "fail"
)

type Counts struct {
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

func (c Counts) Total() int {
	return c.Passed + c.Failed + c.Skipped
}

// Report is the finalized, read-only outcome of a run. Results are in table
// order.
type Report struct {
	Status  Status         `json:"status"`
	Strict  bool           `json:"strict"`
	Results []rules.Result `json:"results"`
	Counts  Counts         `json:"counts"`
}

func (r *Report) Passed() bool {
	return r != nil && r.Status == StatusPass
}

// Builder collects results during a run. It is not safe for concurrent use;
// the scheduler already serializes emission.
type Builder struct {
	strict    bool
	results   []rules.Result
	counts    Counts
	blocking  int
	finalized *Report
}

func NewBuilder(strict bool) *Builder {
	return &Builder{strict: strict}
}

// Add records res and returns it as stored. In strict mode a Skipped result
// is promoted to Fail first.
//
// A failure is blocking when the rule is Required, or always in strict mode.
// Failures of Optional rules are counted but never flip the status.
func (b *Builder) Add(res rules.Result) rules.Result {
	if b.finalized != nil {
		panic("report: Add after Finalize")
	}
	if b.strict && res.Status == rules.StatusSkipped {
		res.Status = rules.StatusFail
		res.Message = "strict mode: " + res.Message
	}

	switch res.Status {
	case rules.StatusPass:
		b.counts.Passed++
	case rules.StatusSkipped:
		b.counts.Skipped++
	default:
		b.counts.Failed++
		if b.strict || res.Severity == rules.SeverityRequired {
			b.blocking++
		}
	}
	b.results = append(b.results, res)
	return res
}

// Finalize freezes the report. Further calls return the same Report.
func (b *Builder) Finalize() *Report {
	if b.finalized != nil {
		return b.finalized
	}
	status := StatusPass
	if b.blocking > 0 {
		status = StatusFail
	}
	b.finalized = &Report{
		Status:  status,
		Strict:  b.strict,
		Results: append([]rules.Result(nil), b.results...),
		Counts:  b.counts,
	}
	return b.finalized
}
