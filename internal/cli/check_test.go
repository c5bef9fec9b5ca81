package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"conformcheck/internal/flags"
	"conformcheck/internal/report"
)

// runCheckArgs parses args into a fresh check command and runs it in-process.
func runCheckArgs(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	cmd := &cobra.Command{Use: "check"}
	addCheckFlags(cmd.Flags())
	cmd.Flags().Bool(flags.FlagVerbose, false, "")
	if err := cmd.Flags().Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	code := runCheck(cmd)
	return code, stdout.String(), stderr.String()
}

func decodeReport(t *testing.T, out string) report.Report {
	t.Helper()
	var rep report.Report
	if err := json.Unmarshal([]byte(out), &rep); err != nil {
		t.Fatalf("invalid json report: %v\n%s", err, out)
	}
	return rep
}

func TestRunCheck_ExitCodes(t *testing.T) {
	empty := t.TempDir()
	withDocker := t.TempDir()
	if err := os.Mkdir(filepath.Join(withDocker, "docker"), 0o755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{name: "required_missing", args: []string{"--root", empty, "--rules", "root-docker-dir"}, wantCode: 1},
		{name: "required_present", args: []string{"--root", withDocker, "--rules", "root-docker-dir"}, wantCode: 0},
		{name: "optional_missing", args: []string{"--root", empty, "--rules", "subject-config"}, wantCode: 0},
		{name: "optional_missing_strict", args: []string{"--root", empty, "--rules", "subject-config", "--strict"}, wantCode: 1},
		{name: "bad_format", args: []string{"--root", empty, "--format", "xml"}, wantCode: 3, wantErr: "unsupported --format"},
		{name: "bad_set", args: []string{"--root", empty, "--set", "php-version"}, wantCode: 3, wantErr: "Error:"},
		{name: "unknown_rule", args: []string{"--root", empty, "--rules", "no-such-rule"}, wantCode: 3, wantErr: "rule not found"},
		{name: "old_runtime", args: []string{"--root", empty, "--rules", "php-version", "--runtime-version", "7.4"}, wantCode: 1},
		{name: "fourth_version_component", args: []string{"--root", empty, "--rules", "php-version", "--set", "php-version.minimum=8.1.2.5", "--runtime-version", "8.1.2.4"}, wantCode: 1},
		{name: "no_extensions", args: []string{"--root", empty, "--rules", "php-ext-json", "--extensions", ""}, wantCode: 1},
		{name: "extensions_given", args: []string{"--root", empty, "--rules", "php-ext-json", "--extensions", "json,curl"}, wantCode: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, stdout, stderr := runCheckArgs(t, tt.args...)
			if code != tt.wantCode {
				t.Fatalf("expected exit code %d, got %d\nstdout=%s\nstderr=%s", tt.wantCode, code, stdout, stderr)
			}
			if tt.wantErr != "" && !strings.Contains(stderr, tt.wantErr) {
				t.Fatalf("expected stderr to contain %q, got %s", tt.wantErr, stderr)
			}
		})
	}
}

func TestRunCheck_JSONReport(t *testing.T) {
	root := t.TempDir()
	code, stdout, _ := runCheckArgs(t, "--root", root, "--rules", "root-docker-dir,subject-config", "--format", "json")
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}

	rep := decodeReport(t, stdout)
	if rep.Status != report.StatusFail {
		t.Fatalf("expected fail status, got %q", rep.Status)
	}
	if rep.Counts.Failed != 1 || rep.Counts.Skipped != 1 || rep.Counts.Passed != 0 {
		t.Fatalf("unexpected counts: %+v", rep.Counts)
	}
	if rep.Results[0].RuleID != "root-docker-dir" || rep.Results[1].RuleID != "subject-config" {
		t.Fatalf("results out of table order: %+v", rep.Results)
	}
}

func TestRunCheck_ConfigFileInRoot(t *testing.T) {
	root := t.TempDir()
	cfgYAML := "rules:\n  selector: root-tests-dir\noutput:\n  format: json\n"
	if err := os.WriteFile(filepath.Join(root, ".conformcheck.yaml"), []byte(cfgYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(root, "tests"), 0o755); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := runCheckArgs(t, "--root", root)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d; stderr=%s", code, stderr)
	}
	rep := decodeReport(t, stdout)
	if len(rep.Results) != 1 || rep.Results[0].RuleID != "root-tests-dir" {
		t.Fatalf("expected only root-tests-dir, got %+v", rep.Results)
	}

	// Flags win over the file.
	_, stdout, _ = runCheckArgs(t, "--root", root, "--format", "text")
	if !strings.Contains(stdout, "[PASS] root-tests-dir") {
		t.Fatalf("expected text output, got %s", stdout)
	}
}

func TestRunCheck_EnvOverrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv("CONFORMCHECK_RULES", "root-scripts-dir")
	t.Setenv("CONFORMCHECK_FORMAT", "json")

	code, stdout, _ := runCheckArgs(t, "--root", root)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	rep := decodeReport(t, stdout)
	if len(rep.Results) != 1 || rep.Results[0].RuleID != "root-scripts-dir" {
		t.Fatalf("expected only root-scripts-dir, got %+v", rep.Results)
	}
}

func TestRunCheck_Verbose(t *testing.T) {
	root := t.TempDir()
	_, _, stderr := runCheckArgs(t, "--root", root, "--rules", "root-docker-dir", "--verbose")
	if !strings.Contains(stderr, "level=DEBUG") || !strings.Contains(stderr, "rule=root-docker-dir") {
		t.Fatalf("expected debug log lines on stderr, got %s", stderr)
	}

	_, _, stderr = runCheckArgs(t, "--root", root, "--rules", "root-docker-dir")
	if strings.Contains(stderr, "level=DEBUG") {
		t.Fatalf("expected no debug logs without --verbose, got %s", stderr)
	}
}

func TestRunCheck_NoConsoleWritesFiles(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(t.TempDir(), "run.json")
	md := filepath.Join(t.TempDir(), "run.md")

	code, stdout, stderr := runCheckArgs(t, "--root", root, "--rules", "root-docker-dir", "--no-console", "--out", out, "--report", md)
	if code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
	if stdout != "" || stderr != "" {
		t.Fatalf("expected silent console, got stdout=%q stderr=%q", stdout, stderr)
	}

	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read --out file: %v", err)
	}
	if rep := decodeReport(t, string(b)); rep.Counts.Failed != 1 {
		t.Fatalf("unexpected counts: %+v", rep.Counts)
	}
	if b, err := os.ReadFile(md); err != nil || !strings.Contains(string(b), "root-docker-dir") {
		t.Fatalf("expected markdown report mentioning the rule, err=%v", err)
	}
}
