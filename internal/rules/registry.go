package rules

import (
	"fmt"
	"path"
	"strings"
	"sync"
)

var (
	registry = make(map[string]Rule)
	order    []string
	mu       sync.RWMutex
)

// Register adds r to the built-in table. Table order is registration order.
func Register(r Rule) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[r.ID]; exists {
		panic(fmt.Sprintf("rule %s already registered", r.ID))
	}
	registry[r.ID] = r
	order = append(order, r.ID)
}

// List returns the registered rules in table order.
func List() []Rule {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]Rule, 0, len(order))
	for _, id := range order {
		out = append(out, registry[id])
	}
	return out
}

func Resolve(selector string) ([]Rule, error) {
	return Select(List(), selector)
}

// Select filters table by a comma-separated selector. Each element is either an
// exact rule ID or a path.Match glob ("php-ext-*"). Exact IDs must exist; globs
// may match nothing. The result keeps table order and contains no duplicates.
func Select(table []Rule, selector string) ([]Rule, error) {
	if strings.TrimSpace(selector) == "" {
		return table, nil
	}

	byID := make(map[string]struct{}, len(table))
	for _, r := range table {
		byID[r.ID] = struct{}{}
	}

	var patterns []string
	for _, part := range strings.Split(selector, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !strings.ContainsAny(part, "*?[") {
			if _, ok := byID[part]; !ok {
				return nil, fmt.Errorf("rule not found: %s", part)
			}
		} else if _, err := path.Match(part, ""); err != nil {
			return nil, fmt.Errorf("invalid rule pattern %q: %w", part, err)
		}
		patterns = append(patterns, part)
	}

	var selected []Rule
	for _, r := range table {
		for _, p := range patterns {
			if ok, _ := path.Match(p, r.ID); ok {
				selected = append(selected, r)
				break
			}
		}
	}
	return selected, nil
}

// Find returns the rule with the given ID from table.
func Find(table []Rule, id string) (Rule, bool) {
	for _, r := range table {
		if r.ID == id {
			return r, true
		}
	}
	return Rule{}, false
}
