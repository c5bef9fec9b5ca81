package data

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"conformcheck/internal/rules"
)

// DefaultSubject is the subject directory, relative to the root, used when no
// subject path is given.
const DefaultSubject = "src"

// Environment is everything a rule evaluation may look at. Rules never read
// ambient process state; whatever they need is captured here up front.
type Environment struct {
	RootPath    string
	SubjectPath string

	Root    fs.FS
	Subject fs.FS

	Runtime RuntimeInfo
}

// NewEnvironment opens root and subject as read-only directory filesystems.
// A relative subject is resolved against root. Neither directory has to exist:
// a missing tree simply makes every target in it absent.
func NewEnvironment(root, subject string, rt RuntimeInfo) (*Environment, error) {
	if root == "" {
		return nil, fmt.Errorf("root path is required")
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}

	if subject == "" {
		subject = DefaultSubject
	}
	if !filepath.IsAbs(subject) {
		subject = filepath.Join(absRoot, subject)
	}
	subject = filepath.Clean(subject)

	return &Environment{
		RootPath:    absRoot,
		SubjectPath: subject,
		Root:        os.DirFS(absRoot),
		Subject:     os.DirFS(subject),
		Runtime:     rt,
	}, nil
}

// FS returns the filesystem a scope resolves in.
func (e *Environment) FS(scope rules.Scope) (fs.FS, error) {
	if e == nil {
		return nil, fmt.Errorf("environment is nil")
	}
	switch scope {
	case rules.ScopeRoot:
		if e.Root == nil {
			return nil, fmt.Errorf("root filesystem is not set")
		}
		return e.Root, nil
	case rules.ScopeSubject:
		if e.Subject == nil {
			return nil, fmt.Errorf("subject filesystem is not set")
		}
		return e.Subject, nil
	default:
		return nil, fmt.Errorf("unknown scope %q", scope)
	}
}

// DisplayPath renders a scope-relative target for messages. Paths inside the
// root are shown relative to it ("src/public"); anything else is absolute.
func (e *Environment) DisplayPath(scope rules.Scope, target string) string {
	if e == nil || e.RootPath == "" {
		return target
	}
	base := e.RootPath
	if scope == rules.ScopeSubject && e.SubjectPath != "" {
		base = e.SubjectPath
	}
	full := filepath.Join(base, filepath.FromSlash(target))
	rel, err := filepath.Rel(e.RootPath, full)
	if err != nil || strings.HasPrefix(rel, "..") {
		return full
	}
	return filepath.ToSlash(rel)
}
