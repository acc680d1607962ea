// Package memory is an in-process, TTL-bounded account option cache.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tinoosan/fintrack/internal/cache"
	"github.com/tinoosan/fintrack/internal/ledger"
)

type entry struct {
	opts      []ledger.AccountOption
	expiresAt time.Time
}

// Cache stores listings in a map guarded by an RWMutex. Expired entries are
// dropped lazily on read.
type Cache struct {
	mu   sync.RWMutex
	data map[uuid.UUID]entry
	ttl  time.Duration
	now  func() time.Time
}

// New creates a cache whose entries live for ttl (cache.DefaultTTL when ttl <= 0).
func New(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Cache{data: make(map[uuid.UUID]entry), ttl: ttl, now: time.Now}
}

func (c *Cache) Get(_ context.Context, ownerID uuid.UUID) ([]ledger.AccountOption, error) {
	c.mu.RLock()
	e, ok := c.data[ownerID]
	c.mu.RUnlock()
	if !ok {
		return nil, cache.ErrMiss
	}
	if !c.now().Before(e.expiresAt) {
		c.mu.Lock()
		if cur, ok := c.data[ownerID]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(c.data, ownerID)
		}
		c.mu.Unlock()
		return nil, cache.ErrMiss
	}
	return append([]ledger.AccountOption(nil), e.opts...), nil
}

func (c *Cache) Set(_ context.Context, ownerID uuid.UUID, opts []ledger.AccountOption) error {
	c.mu.Lock()
	c.data[ownerID] = entry{opts: append([]ledger.AccountOption(nil), opts...), expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}

func (c *Cache) Invalidate(_ context.Context, ownerID uuid.UUID) error {
	c.mu.Lock()
	delete(c.data, ownerID)
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, live or expired.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

func (c *Cache) Name() string { return "memory" }
func (c *Cache) Close() error { return nil }

var _ cache.AccountOptions = (*Cache)(nil)
