package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ruleFile is the on-disk shape of --rules-file:
//
//	rules:
//	  - id: root-makefile
//	    description: Makefile exists at the root
//	    kind: file_exists
//	    target: Makefile
type ruleFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadFile reads additional rules from a YAML file. Scope defaults to root and
// severity to required. Decoding errors are returned as *ConfigurationError;
// the caller still runs Validate over the merged table.
func LoadFile(path string) ([]Rule, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseFile(b)
}

func ParseFile(b []byte) ([]Rule, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var rf ruleFile
	if err := dec.Decode(&rf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &ConfigurationError{Err: fmt.Errorf("decode rules file: %w", err)}
	}

	out := make([]Rule, 0, len(rf.Rules))
	for _, r := range rf.Rules {
		if r.Scope == "" {
			r.Scope = ScopeRoot
		}
		if r.Severity == "" {
			r.Severity = SeverityRequired
		}
		out = append(out, r)
	}
	return out, nil
}
