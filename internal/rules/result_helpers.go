package rules

func NewResult(rule Rule, status Status, message string) Result {
	return Result{
		RuleID:      rule.ID,
		Status:      status,
		Message:     message,
		Severity:    rule.Severity,
		Description: rule.Description,
	}
}

func PassResult(rule Rule, message string) Result {
	return NewResult(rule, StatusPass, message)
}

func FailResult(rule Rule, message string) Result {
	return NewResult(rule, StatusFail, message)
}

func SkippedResult(rule Rule, message string) Result {
	return NewResult(rule, StatusSkipped, message)
}

// MissingResult applies the severity policy for an absent target: Required
// rules fail, Optional rules are skipped.
func MissingResult(rule Rule, message string) Result {
	if rule.Required() {
		return FailResult(rule, message)
	}
	return SkippedResult(rule, message)
}

// WithEvidence returns a copy of res carrying one more evidence pair.
func WithEvidence(res Result, key, value string) Result {
	ev := make(map[string]string, len(res.Evidence)+1)
	for k, v := range res.Evidence {
		ev[k] = v
	}
	ev[key] = value
	res.Evidence = ev
	return res
}
