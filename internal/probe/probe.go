// Package probe asks a PHP binary for its version and loaded extensions.
package probe

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"conformcheck/internal/data"
)

// DefaultBinary is looked up on PATH when no binary is configured.
const DefaultBinary = "php"

// ErrUnavailable is returned when the PHP binary cannot be found.
var ErrUnavailable = errors.New("php binary not available")

// Runner executes a command and returns its standard output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

type Prober struct {
	Binary  string
	Timeout time.Duration

	run      Runner
	lookPath func(string) (string, error)
}

func New(binary string, timeout time.Duration) *Prober {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Prober{Binary: binary, Timeout: timeout, run: execRunner, lookPath: exec.LookPath}
}

// WithRunner replaces command execution; the binary is then assumed present.
func (p *Prober) WithRunner(r Runner) *Prober {
	cp := *p
	cp.run = r
	cp.lookPath = func(name string) (string, error) { return name, nil }
	return &cp
}

// Probe reports the runtime version and loaded extensions. A missing binary
// yields ErrUnavailable; callers treat the runtime as unknown in that case.
func (p *Prober) Probe(ctx context.Context) (data.RuntimeInfo, error) {
	path, err := p.lookPath(p.Binary)
	if err != nil {
		return data.RuntimeInfo{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	out, err := p.run(ctx, path, "-r", "echo PHP_VERSION;")
	if err != nil {
		return data.RuntimeInfo{}, fmt.Errorf("query php version: %w", err)
	}
	version := strings.TrimSpace(string(out))
	if version == "" {
		return data.RuntimeInfo{}, errors.New("query php version: empty output")
	}

	out, err = p.run(ctx, path, "-m")
	if err != nil {
		return data.RuntimeInfo{}, fmt.Errorf("list php modules: %w", err)
	}
	return data.NewRuntimeInfo(version, ParseModules(string(out)), "probe"), nil
}

// ParseModules extracts module names from `php -m` output, which lists them
// one per line under "[PHP Modules]" and "[Zend Modules]" headers.
func ParseModules(out string) []string {
	mods := []string{}
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		mods = append(mods, strings.ToLower(line))
	}
	return mods
}

// PHP probes binary and treats a missing binary as an unknown runtime rather
// than an error. Version and extension rules then fall back to their severity.
func PHP(ctx context.Context, binary string, timeout time.Duration) (data.RuntimeInfo, error) {
	rt, err := New(binary, timeout).Probe(ctx)
	if errors.Is(err, ErrUnavailable) {
		return data.NewRuntimeInfo("", nil, "unavailable"), nil
	}
	return rt, err
}
