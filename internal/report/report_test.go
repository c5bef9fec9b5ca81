package report

import (
	"testing"

	"conformcheck/internal/rules"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func result(id string, status rules.Status, sev rules.Severity) rules.Result {
	return rules.Result{RuleID: id, Status: status, Severity: sev, Message: id + " message"}
}

func TestBuilder_CountsSumToTotal(t *testing.T) {
	b := NewBuilder(false)
	b.Add(result("a", rules.StatusPass, rules.SeverityRequired))
	b.Add(result("b", rules.StatusFail, rules.SeverityOptional))
	b.Add(result("c", rules.StatusSkipped, rules.SeverityOptional))
	b.Add(result("d", rules.StatusPass, rules.SeverityOptional))

	rep := b.Finalize()
	assert.Equal(t, Counts{Passed: 2, Failed: 1, Skipped: 1}, rep.Counts)
	assert.Equal(t, len(rep.Results), rep.Counts.Total())
}

func TestBuilder_StatusFailsOnlyOnRequiredFailures(t *testing.T) {
	tests := []struct {
		name string
		in   []rules.Result
		want Status
	}{
		{
			name: "all pass",
			in:   []rules.Result{result("a", rules.StatusPass, rules.SeverityRequired)},
			want: StatusPass,
		},
		{
			name: "optional failure and skip do not fail the run",
			in: []rules.Result{
				result("a", rules.StatusPass, rules.SeverityRequired),
				result("b", rules.StatusFail, rules.SeverityOptional),
				result("c", rules.StatusSkipped, rules.SeverityOptional),
			},
			want: StatusPass,
		},
		{
			name: "required failure fails the run",
			in: []rules.Result{
				result("a", rules.StatusFail, rules.SeverityRequired),
				result("b", rules.StatusPass, rules.SeverityOptional),
			},
			want: StatusFail,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder(false)
			for _, r := range tt.in {
				b.Add(r)
			}
			assert.Equal(t, tt.want, b.Finalize().Status)
		})
	}
}

func TestBuilder_StrictPromotesSkipsAndBlocksOnAnyFailure(t *testing.T) {
	b := NewBuilder(true)
	stored := b.Add(result("skip", rules.StatusSkipped, rules.SeverityOptional))
	assert.Equal(t, rules.StatusFail, stored.Status)
	assert.Equal(t, "strict mode: skip message", stored.Message)

	rep := b.Finalize()
	assert.Equal(t, StatusFail, rep.Status)
	assert.True(t, rep.Strict)
	assert.Equal(t, Counts{Failed: 1}, rep.Counts)

	b = NewBuilder(true)
	b.Add(result("opt", rules.StatusFail, rules.SeverityOptional))
	assert.Equal(t, StatusFail, b.Finalize().Status)
}

func TestBuilder_FinalizeIsStable(t *testing.T) {
	b := NewBuilder(false)
	b.Add(result("a", rules.StatusPass, rules.SeverityRequired))

	first := b.Finalize()
	second := b.Finalize()
	require.Same(t, first, second)
	assert.True(t, first.Passed())
	assert.Panics(t, func() { b.Add(result("b", rules.StatusPass, rules.SeverityRequired)) })
}
