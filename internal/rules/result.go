package rules

import "strings"

type Status string

const (
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
	StatusSkipped Status = "skipped"
)

// Label is the upper-case form used by the text console and --filter-status.
func (s Status) Label() string {
	return strings.ToUpper(string(s))
}

type Result struct {
	RuleID      string   `json:"id"`
	Status      Status   `json:"outcome"`
	Message     string   `json:"message"`
	Severity    Severity `json:"severity,omitempty"`
	Description string   `json:"description,omitempty"`
	// Evidence contains simple key-value string pairs supporting the result.
	Evidence map[string]string `json:"evidence,omitempty"`
}
