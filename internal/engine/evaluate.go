package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"syscall"

	"conformcheck/internal/data"
	"conformcheck/internal/fetcher"
	"conformcheck/internal/rules"
)

// Evaluator interprets rules against one Environment. It is safe for
// concurrent use; document reads are shared through its Fetcher.
type Evaluator struct {
	env     *data.Environment
	fetcher *fetcher.Fetcher
}

func NewEvaluator(env *data.Environment, logger *slog.Logger) *Evaluator {
	return &Evaluator{env: env, fetcher: fetcher.NewFetcher(env, logger)}
}

// Evaluate runs a single rule against env with a fresh document cache.
func Evaluate(ctx context.Context, rule rules.Rule, env *data.Environment) rules.Result {
	return NewEvaluator(env, nil).Evaluate(ctx, rule)
}

// Evaluate never returns an error: every problem a rule can hit (absent
// target, malformed document, I/O failure) is folded into the Result.
func (e *Evaluator) Evaluate(ctx context.Context, rule rules.Rule) rules.Result {
	switch rule.Kind {
	case rules.KindFileExists:
		return e.existence(ctx, rule, false)
	case rules.KindDirExists:
		return e.existence(ctx, rule, true)
	case rules.KindJSONKeyPresent:
		return e.keyPresent(ctx, rule, fetcher.FormatJSON)
	case rules.KindYAMLKeyPresent:
		return e.keyPresent(ctx, rule, fetcher.FormatYAML)
	case rules.KindStringContains:
		return e.stringContains(ctx, rule)
	case rules.KindVersionAtLeast:
		return e.versionAtLeast(rule)
	case rules.KindExtensionLoaded:
		return e.extensionLoaded(rule)
	default:
		return rules.FailResult(rule, fmt.Sprintf("unsupported rule kind %q", rule.Kind))
	}
}

func (e *Evaluator) existence(ctx context.Context, rule rules.Rule, wantDir bool) rules.Result {
	want := "file"
	if wantDir {
		want = "directory"
	}

	var mismatch, ioErr string
	var shown []string
	for _, candidate := range rule.Candidates() {
		display := e.env.DisplayPath(rule.Scope, candidate)
		shown = append(shown, display)

		info, err := e.fetcher.Stat(ctx, rule.Scope, candidate)
		switch {
		case err == nil && info.IsDir() == wantDir:
			return rules.WithEvidence(rules.PassResult(rule, fmt.Sprintf("%s %s exists", want, display)), "path", display)
		case err == nil:
			if mismatch == "" {
				mismatch = fmt.Sprintf("%s exists but is not a %s", display, want)
			}
		case isMissing(err):
		default:
			if ioErr == "" {
				ioErr = fmt.Sprintf("cannot stat %s: %v", display, err)
			}
		}
	}

	switch {
	case mismatch != "":
		return rules.FailResult(rule, mismatch)
	case ioErr != "":
		return rules.FailResult(rule, ioErr)
	}
	return rules.MissingResult(rule, fmt.Sprintf("%s %s not found", want, strings.Join(shown, " or ")))
}

// fetchCandidate reads the first candidate of rule that exists. When none
// exists, the returned error is the not-found error and display lists every
// candidate.
func (e *Evaluator) fetchCandidate(ctx context.Context, rule rules.Rule, format fetcher.Format) (any, string, error) {
	var shown []string
	var lastErr error
	for _, candidate := range rule.Candidates() {
		display := e.env.DisplayPath(rule.Scope, candidate)
		doc, err := e.fetcher.Fetch(ctx, rule.Scope, candidate, format)
		if err == nil || !isMissing(err) {
			return doc, display, err
		}
		shown = append(shown, display)
		lastErr = err
	}
	return nil, strings.Join(shown, " or "), lastErr
}

func (e *Evaluator) keyPresent(ctx context.Context, rule rules.Rule, format fetcher.Format) rules.Result {
	doc, display, err := e.fetchCandidate(ctx, rule, format)
	if res, failed := e.readFailure(rule, display, err); failed {
		return res
	}

	key := rule.KeyPathString()
	val, ok := lookupKeyPath(doc, rule.KeyPath)
	if !ok {
		return rules.FailResult(rule, fmt.Sprintf("key %s missing from %s", key, display))
	}
	if rule.Expect != "" {
		got, scalar := scalarString(val)
		if !scalar {
			return rules.FailResult(rule, fmt.Sprintf("key %s in %s is not a scalar (expected %q)", key, display, rule.Expect))
		}
		if got != rule.Expect {
			return rules.FailResult(rule, fmt.Sprintf("key %s in %s is %q, expected %q", key, display, got, rule.Expect))
		}
		return rules.WithEvidence(rules.PassResult(rule, fmt.Sprintf("key %s in %s is %q", key, display, got)), "path", display)
	}
	return rules.WithEvidence(rules.PassResult(rule, fmt.Sprintf("key %s present in %s", key, display)), "path", display)
}

func (e *Evaluator) stringContains(ctx context.Context, rule rules.Rule) rules.Result {
	v, display, err := e.fetchCandidate(ctx, rule, fetcher.FormatText)
	if res, failed := e.readFailure(rule, display, err); failed {
		return res
	}

	text, _ := v.(string)
	if !strings.Contains(text, rule.Substring) {
		return rules.FailResult(rule, fmt.Sprintf("%s does not contain %q", display, rule.Substring))
	}
	return rules.WithEvidence(rules.PassResult(rule, fmt.Sprintf("%s contains %q", display, rule.Substring)), "path", display)
}

// readFailure maps a document read error onto the severity policy: absent
// targets follow the rule's severity, anything else is a failure.
func (e *Evaluator) readFailure(rule rules.Rule, display string, err error) (rules.Result, bool) {
	if err == nil {
		return rules.Result{}, false
	}
	if isMissing(err) {
		return rules.MissingResult(rule, fmt.Sprintf("%s not found", display)), true
	}
	var pe *fetcher.ParseError
	if errors.As(err, &pe) {
		return rules.FailResult(rule, pe.Error()), true
	}
	return rules.FailResult(rule, fmt.Sprintf("cannot read %s: %v", display, err)), true
}

func (e *Evaluator) versionAtLeast(rule rules.Rule) rules.Result {
	rt := e.env.Runtime
	if !rt.VersionKnown() {
		return rules.MissingResult(rule, "runtime version unknown")
	}
	cmp, ok := rules.CompareVersions(rt.Version, rule.Minimum)
	if !ok {
		return rules.FailResult(rule, fmt.Sprintf("cannot compare runtime version %q with minimum %q", rt.Version, rule.Minimum))
	}
	res := rules.FailResult(rule, fmt.Sprintf("runtime version %s is older than %s", rt.Version, rule.Minimum))
	if cmp >= 0 {
		res = rules.PassResult(rule, fmt.Sprintf("runtime version %s >= %s", rt.Version, rule.Minimum))
	}
	return rules.WithEvidence(res, "runtime_version", rt.Version)
}

func (e *Evaluator) extensionLoaded(rule rules.Rule) rules.Result {
	rt := e.env.Runtime
	if !rt.ExtensionsKnown() {
		return rules.MissingResult(rule, "loaded extensions unknown")
	}
	if rt.HasExtension(rule.Target) {
		return rules.PassResult(rule, fmt.Sprintf("extension %s loaded", rule.Target))
	}
	return rules.MissingResult(rule, fmt.Sprintf("extension %s not loaded", rule.Target))
}

// isMissing treats "a parent is a regular file" the same as "does not exist".
func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

func lookupKeyPath(doc any, path []string) (any, bool) {
	cur := doc
	for _, seg := range path {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case map[any]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, true
}

func scalarString(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case fmt.Stringer:
		// json.Number
		return t.String(), true
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(t), true
	default:
		return "", false
	}
}
