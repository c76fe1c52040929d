package recurrence

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"
	"time"
)

// CacheKey identifies one windowed expansion
type CacheKey struct {
	Mode        string // expansion mode, "native" or "rfc"
	AnchorStart time.Time
	AnchorEnd   time.Time
	Rule        string // canonical rule text
	WindowStart time.Time
	WindowEnd   time.Time
}

// hash includes the anchor locations: calendar steps follow the anchor's
// zone, so two anchors with the same offset can still step differently.
func (k CacheKey) hash() string {
	h := sha256.New()
	for _, part := range []string{
		k.Mode,
		k.AnchorStart.Format(time.RFC3339Nano),
		k.AnchorStart.Location().String(),
		k.AnchorEnd.Format(time.RFC3339Nano),
		k.AnchorEnd.Location().String(),
		k.Rule,
		k.WindowStart.Format(time.RFC3339Nano),
		k.WindowEnd.Format(time.RFC3339Nano),
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

type cacheEntry struct {
	spans     []TimeOccurrence
	expiresAt time.Time
	lastUse   uint64
}

// CacheConfig holds configuration for the expansion cache
type CacheConfig struct {
	TTL             time.Duration // How long entries stay valid
	MaxEntries      int           // Maximum number of entries before eviction
	CleanupInterval time.Duration // How often to drop expired entries
}

// DefaultCacheConfig provides sensible defaults for expansion caching
var DefaultCacheConfig = CacheConfig{
	TTL:             15 * time.Minute,
	MaxEntries:      1000,
	CleanupInterval: 5 * time.Minute,
}

// Cache keeps computed occurrence spans keyed by anchor, rule and window.
// It is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	config  CacheConfig
	hits    uint64
	misses  uint64
	clock   uint64 // bumped on every access, orders LRU eviction

	stop      chan struct{}
	closeOnce sync.Once
}

// NewCache creates a cache and starts its cleanup goroutine. Call Close to
// stop it.
func NewCache(config CacheConfig) *Cache {
	if config.TTL <= 0 {
		config.TTL = DefaultCacheConfig.TTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultCacheConfig.MaxEntries
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCacheConfig.CleanupInterval
	}

	c := &Cache{
		entries: make(map[string]*cacheEntry),
		config:  config,
		stop:    make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns a copy of the cached spans for key
func (c *Cache) Get(key CacheKey) ([]TimeOccurrence, bool) {
	k := key.hash()
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[k]
	if ok && now.After(entry.expiresAt) {
		delete(c.entries, k)
		ok = false
	}
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.clock++
	entry.lastUse = c.clock
	return append([]TimeOccurrence{}, entry.spans...), true
}

// Set stores a copy of spans under key
func (c *Cache) Set(key CacheKey, spans []TimeOccurrence) {
	now := time.Now()
	entry := &cacheEntry{
		spans:     append([]TimeOccurrence{}, spans...),
		expiresAt: now.Add(c.config.TTL),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.clock++
	entry.lastUse = c.clock
	c.entries[key.hash()] = entry
	if len(c.entries) > c.config.MaxEntries {
		c.evict(now)
	}
}

// evict drops expired entries, then the least recently used ones until the
// cache is back under its limit. Caller holds c.mu.
func (c *Cache) evict(now time.Time) {
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	if len(c.entries) <= c.config.MaxEntries {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].lastUse < c.entries[keys[j]].lastUse
	})
	for _, k := range keys[:len(keys)-c.config.MaxEntries] {
		delete(c.entries, k)
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.mu.Lock()
			c.evict(time.Now())
			c.mu.Unlock()
		case <-c.stop:
			return
		}
	}
}

// Close stops the cleanup goroutine and clears the cache. It is safe to call
// more than once.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		close(c.stop)
		c.mu.Lock()
		c.entries = make(map[string]*cacheEntry)
		c.mu.Unlock()
	})
}

// CacheStats provides information about cache usage
type CacheStats struct {
	TotalEntries   int
	ExpiredEntries int
	ActiveEntries  int
	Hits           uint64
	Misses         uint64
}

// Stats returns cache statistics
func (c *Cache) Stats() CacheStats {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	stats := CacheStats{TotalEntries: len(c.entries), Hits: c.hits, Misses: c.misses}
	for _, e := range c.entries {
		if now.After(e.expiresAt) {
			stats.ExpiredEntries++
		}
	}
	stats.ActiveEntries = stats.TotalEntries - stats.ExpiredEntries
	return stats
}
