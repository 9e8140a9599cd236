// Package memory is the in-process domain.Cache used when no Redis is configured.
package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"sightseeing_ms/internal/adapters/observability"
)

type entry struct {
	val     []byte
	expires time.Time // zero means never
}

// Cache stores JSON-encoded values behind a RWMutex, matching the Redis adapter's semantics.
type Cache struct {
	mu  sync.RWMutex
	m   map[string]entry
	now func() time.Time
}

func New() *Cache {
	return &Cache{m: make(map[string]entry), now: time.Now}
}

func (c *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	c.mu.RUnlock()
	if ok && !e.expires.IsZero() && c.now().After(e.expires) {
		c.mu.Lock()
		if cur, still := c.m[key]; still && !cur.expires.IsZero() && c.now().After(cur.expires) {
			delete(c.m, key)
		}
		c.mu.Unlock()
		ok = false
	}
	if !ok {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(e.val, dst)
}

// Set stores v; ttlSec <= 0 keeps it for the process lifetime.
func (c *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := entry{val: b}
	if ttlSec > 0 {
		e.expires = c.now().Add(time.Duration(ttlSec) * time.Second)
	}
	c.mu.Lock()
	c.m[key] = e
	c.mu.Unlock()
	observability.ObserveCache("memory", "set")
	return nil
}

func (c *Cache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.m, key)
	c.mu.Unlock()
	observability.ObserveCache("memory", "del")
	return nil
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
