package checks

import "conformcheck/internal/rules"

// Table returns the built-in rule table in evaluation order. It performs no
// I/O and returns a fresh slice on every call.
func Table() []rules.Rule {
	var out []rules.Rule
	out = append(out, projectLayoutRules()...)
	out = append(out, projectComposerRules()...)
	out = append(out, dockerRules()...)
	out = append(out, subjectLayoutRules()...)
	out = append(out, subjectComposerRules()...)
	out = append(out, subjectScriptRules()...)
	out = append(out, runtimeRules()...)
	return out
}

func init() {
	for _, r := range Table() {
		rules.Register(r)
	}
}

func required(r rules.Rule) rules.Rule {
	r.Severity = rules.SeverityRequired
	return r
}

func optional(r rules.Rule) rules.Rule {
	r.Severity = rules.SeverityOptional
	return r
}
