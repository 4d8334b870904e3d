package reminder

import "sync"

// dedupCache is a bounded, insertion-ordered set of notification identities.
// Once full, the oldest identity is evicted to make room; an identity
// inserted by the current tick cannot be evicted by that same insert.
type dedupCache struct {
	mu    sync.Mutex
	cap   int
	seen  map[string]struct{}
	order []string
}

func newDedupCache(capacity int) *dedupCache {
	if capacity <= 0 {
		capacity = 100
	}
	return &dedupCache{
		cap:  capacity,
		seen: make(map[string]struct{}, capacity),
	}
}

// ShouldSend records id and returns true if it was absent; a second call
// with the same id returns false until the id is evicted.
func (c *dedupCache) ShouldSend(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.seen[id]; ok {
		return false
	}
	if len(c.order) >= c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest)
	}
	c.seen[id] = struct{}{}
	c.order = append(c.order, id)
	return true
}

// Resize updates the capacity, evicting oldest-first until the current
// contents fit. Growing keeps every entry.
func (c *dedupCache) Resize(capacity int) {
	if capacity <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cap = capacity
	for len(c.order) > c.cap {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest)
	}
}

func (c *dedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}
