package data

import (
	"sort"
	"strings"
)

// RuntimeInfo describes the PHP runtime the subject will run on.
type RuntimeInfo struct {
	// Version is the reported runtime version; empty when unknown.
	Version string
	// Source records where the information came from ("probe", "config").
	Source string

	extensions map[string]struct{}
	// extensionsKnown distinguishes "no extensions loaded" from "never probed".
	extensionsKnown bool
}

// NewRuntimeInfo builds a RuntimeInfo. Pass a nil extensions slice when the
// loaded extensions are unknown; names are matched case-insensitively.
func NewRuntimeInfo(version string, extensions []string, source string) RuntimeInfo {
	rt := RuntimeInfo{Version: strings.TrimSpace(version), Source: source}
	if extensions != nil {
		rt.extensionsKnown = true
		rt.extensions = make(map[string]struct{}, len(extensions))
		for _, ext := range extensions {
			ext = strings.ToLower(strings.TrimSpace(ext))
			if ext != "" {
				rt.extensions[ext] = struct{}{}
			}
		}
	}
	return rt
}

func (r RuntimeInfo) VersionKnown() bool {
	return r.Version != ""
}

func (r RuntimeInfo) ExtensionsKnown() bool {
	return r.extensionsKnown
}

func (r RuntimeInfo) HasExtension(name string) bool {
	_, ok := r.extensions[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Extensions returns the loaded extension names, sorted.
func (r RuntimeInfo) Extensions() []string {
	out := make([]string, 0, len(r.extensions))
	for ext := range r.extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
