package rules

import (
	"regexp"
	"strconv"
	"strings"
)

// leadingVersion matches the dotted numeric prefix of runtime version strings
// such as "8.1.2-1ubuntu22.04" or "7.4.33".
var leadingVersion = regexp.MustCompile(`^v?(\d+(?:\.\d+)*)`)

// ParseVersion returns the numeric components of the dotted prefix of raw.
// Anything after the prefix is ignored; every component is kept.
func ParseVersion(raw string) ([]int, bool) {
	m := leadingVersion.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return nil, false
	}
	parts := strings.Split(m[1], ".")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, false
		}
		out = append(out, n)
	}
	return out, true
}

// CanonicalVersion renders the numeric prefix of raw without leading zeros:
// "8.01.2-dev" becomes "8.1.2".
func CanonicalVersion(raw string) (string, bool) {
	parts, ok := ParseVersion(raw)
	if !ok {
		return "", false
	}
	s := make([]string, len(parts))
	for i, n := range parts {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, "."), true
}

// CompareVersions compares two dotted numeric versions component-wise; the
// shorter one is padded with zeros. ok is false if either side cannot be parsed.
func CompareVersions(a, b string) (cmp int, ok bool) {
	pa, okA := ParseVersion(a)
	pb, okB := ParseVersion(b)
	if !okA || !okB {
		return 0, false
	}
	for i := 0; i < max(len(pa), len(pb)); i++ {
		var x, y int
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
	}
	return 0, true
}
