package fetcher

import (
	"golang.org/x/sync/singleflight"
)

// Group collapses concurrent loads of the same document into one read.
type Group struct {
	g singleflight.Group
}

// Do runs load once per key among concurrent callers. shared reports whether
// the entry was produced for another caller as well.
func (g *Group) Do(key string, load func() entry) (e entry, shared bool) {
	v, _, shared := g.g.Do(key, func() (interface{}, error) {
		return load(), nil
	})
	return v.(entry), shared
}
