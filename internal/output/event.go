package output

import (
	"conformcheck/internal/report"
	"conformcheck/internal/rules"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - run.started
// - rule.result
// - run.finished
//
// JSON mode renders the finalized report.Report as a single document instead.
type Event struct {
	Type    string `json:"type"`
	Root    string `json:"root,omitempty"`
	Subject string `json:"subject,omitempty"`
	Runtime string `json:"runtime,omitempty"`
	Command string `json:"command,omitempty"`
	Rules   int    `json:"rules,omitempty"`
	*rules.Result
	Status   report.Status  `json:"status,omitempty"`
	Counts   *report.Counts `json:"counts,omitempty"`
	ExitCode *int           `json:"exit_code,omitempty"`
}

const (
	EventRunStarted  = "run.started"
	EventRuleResult  = "rule.result"
	EventRunFinished = "run.finished"
)

func eventFromResult(r rules.Result) Event {
	return Event{Type: EventRuleResult, Result: &r}
}

// RunFinished builds the closing event from the finalized report.
func RunFinished(rep *report.Report, exitCode int) Event {
	ev := Event{Type: EventRunFinished, ExitCode: &exitCode}
	if rep != nil {
		counts := rep.Counts
		ev.Status = rep.Status
		ev.Counts = &counts
	}
	return ev
}
