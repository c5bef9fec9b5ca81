package fetcher

import "sync"

// entry is a cached read outcome. Failures are cached as well so every rule
// looking at the same document during a run sees the same answer.
type entry struct {
	val any
	err error
}

type Cache struct {
	data sync.Map
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Get(key string) (entry, bool) {
	v, ok := c.data.Load(key)
	if !ok {
		return entry{}, false
	}
	return v.(entry), true
}

func (c *Cache) Set(key string, e entry) {
	c.data.Store(key, e)
}
