package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/formwork/pkg/ports"
	"github.com/aretw0/formwork/pkg/resource"
)

type entry struct {
	items   []resource.Summary
	expires time.Time
}

// Cache implements ports.ResourceCache in memory.
// Safe for concurrent use.
type Cache struct {
	data map[string]entry
	mu   sync.RWMutex
	now  func() time.Time
}

// NewCache creates a new in-memory cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get retrieves a listing from memory.
func (c *Cache) Get(ctx context.Context, scope string) ([]resource.Summary, error) {
	c.mu.RLock()
	e, ok := c.data[scope]
	c.mu.RUnlock()

	if !ok || (!e.expires.IsZero() && !c.now().Before(e.expires)) {
		return nil, ports.ErrCacheMiss
	}
	// Copy on read so callers can't mutate cached listings.
	return copySummaries(e.items), nil
}

// Set stores a listing in memory.
func (c *Cache) Set(ctx context.Context, scope string, items []resource.Summary, ttl time.Duration) error {
	e := entry{items: copySummaries(items)}
	if ttl > 0 {
		e.expires = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[scope] = e
	return nil
}

// Invalidate removes every scope starting with prefix.
func (c *Cache) Invalidate(ctx context.Context, prefix string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func copySummaries(items []resource.Summary) []resource.Summary {
	out := make([]resource.Summary, len(items))
	for i, s := range items {
		if s.Detail != nil {
			d := make(map[string]string, len(s.Detail))
			for k, v := range s.Detail {
				d[k] = v
			}
			s.Detail = d
		}
		out[i] = s
	}
	return out
}
