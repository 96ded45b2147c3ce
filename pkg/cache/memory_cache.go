package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

const defaultMaxEntries = 2048

// MemoryCache is an in-process LRU verdict cache with per-entry TTL.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
	maxEntries int
	ttl        time.Duration
}

type memoryEntry struct {
	key       string
	verdict   evidence.ValidationVerdict
	expiresAt time.Time
}

// NewMemoryCache builds an in-memory cache bounded to maxEntries.
func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	return &MemoryCache{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Get returns the cached verdict for key, expiring stale entries.
func (c *MemoryCache) Get(_ context.Context, key string) (*evidence.ValidationVerdict, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	entry := elem.Value.(*memoryEntry)
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(elem)
		delete(c.entries, key)
		return nil, false, nil
	}
	c.order.MoveToFront(elem)
	verdict := entry.verdict
	return &verdict, true, nil
}

// Set stores a copy of the verdict, evicting the least recently used
// entry when full.
func (c *MemoryCache) Set(_ context.Context, key string, verdict *evidence.ValidationVerdict) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		entry := elem.Value.(*memoryEntry)
		entry.verdict = *verdict
		entry.expiresAt = time.Now().Add(c.ttl)
		c.order.MoveToFront(elem)
		return nil
	}

	for c.order.Len() >= c.maxEntries {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*memoryEntry).key)
	}

	c.entries[key] = c.order.PushFront(&memoryEntry{
		key:       key,
		verdict:   *verdict,
		expiresAt: time.Now().Add(c.ttl),
	})
	return nil
}

// Close is a no-op for the in-memory backend.
func (c *MemoryCache) Close() error { return nil }
