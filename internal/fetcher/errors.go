package fetcher

import "fmt"

// ParseError reports a document that exists but cannot be decoded.
type ParseError struct {
	Path   string
	Format Format
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s in %s: %v", formatLabel(e.Format), e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func formatLabel(f Format) string {
	switch f {
	case FormatJSON:
		return "JSON"
	case FormatYAML:
		return "YAML"
	default:
		return string(f)
	}
}
