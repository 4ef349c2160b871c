package cache

import (
	"fmt"
	"sync"
	"time"
)

// Key identifies a summary by the exact query text and article count. The
// query is not normalized: "Acme" and "acme" are different keys.
type Key struct {
	Query       string
	MaxArticles int
}

func (k Key) String() string {
	return fmt.Sprintf("%q/%d", k.Query, k.MaxArticles)
}

// Store is one memoization tier for summaries.
type Store interface {
	Get(key Key) (string, bool)
	Put(key Key, summary string)
	Clear() int
}

type entry struct {
	summary  string
	storedAt time.Time
}

// Cache is an in-memory Store. Entries older than ttl are treated as absent
// and removed by a background sweep; a ttl of zero keeps entries until Clear.
type Cache struct {
	name          string
	mu            sync.RWMutex
	entries       map[Key]entry
	ttl           time.Duration
	hits          uint64
	misses        uint64
	now           func() time.Time
	cleanupTicker *time.Ticker
	stopChan      chan struct{}
	closeOnce     sync.Once
}

type Stats struct {
	Name    string `json:"name"`
	Entries int    `json:"entries"`
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	TTL     string `json:"ttl"`
}

func New(name string, ttl, cleanupInterval time.Duration) *Cache {
	c := &Cache{
		name:     name,
		entries:  make(map[Key]entry),
		ttl:      ttl,
		now:      time.Now,
		stopChan: make(chan struct{}),
	}

	if ttl > 0 && cleanupInterval > 0 {
		c.cleanupTicker = time.NewTicker(cleanupInterval)
		go c.cleanup()
	}

	return c
}

func (c *Cache) Name() string {
	return c.name
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// SetClock replaces the time source used for expiry.
func (c *Cache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

func (c *Cache) Get(key Key) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if ok && c.expired(e) {
		delete(c.entries, key)
		ok = false
	}
	if !ok {
		c.misses++
		return "", false
	}

	c.hits++
	return e.summary, true
}

func (c *Cache) Put(key Key, summary string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{summary: summary, storedAt: c.now()}
}

// Clear drops every entry and returns how many were removed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	c.entries = make(map[Key]entry)
	return n
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

func (c *Cache) expired(e entry) bool {
	return c.ttl > 0 && c.now().Sub(e.storedAt) >= c.ttl
}

func (c *Cache) cleanup() {
	for {
		select {
		case <-c.cleanupTicker.C:
			c.performCleanup()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Cache) performCleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		if c.cleanupTicker != nil {
			c.cleanupTicker.Stop()
		}
		close(c.stopChan)
	})
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ttl := "unbounded"
	if c.ttl > 0 {
		ttl = c.ttl.String()
	}

	return Stats{
		Name:    c.name,
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
		TTL:     ttl,
	}
}
