// Package cache implements component F from spec.md §4.F: two
// byte-bounded caches (hover, document-symbol), keyed by a file's
// (path, size, mtimeNanos) so a stale file is never served from a prior
// version's entry.
package cache

import (
	"fmt"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/simplelru"
)

// FileKey identifies the exact file version an entry was computed
// against; any change to size or mtime invalidates it.
type FileKey struct {
	Path       string
	Size       int64
	MtimeNanos int64
}

func (k FileKey) String() string {
	return fmt.Sprintf("%s|%d|%d", k.Path, k.Size, k.MtimeNanos)
}

// KeyForFile stats path and builds its current FileKey.
func KeyForFile(path string) (FileKey, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileKey{}, err
	}
	return FileKey{Path: path, Size: info.Size(), MtimeNanos: info.ModTime().UnixNano()}, nil
}

// entry pairs a cached value with the byte cost it was charged at
// insertion, so eviction accounting stays exact even if Sizeof-style
// estimation drifts between calls.
type entry struct {
	value interface{}
	bytes int
}

// Cache is a byte-budgeted, least-recently-inserted-eviction cache. It
// wraps hashicorp/golang-lru's simplelru.LRU for storage and bookkeeping
// but drives eviction off its own cumulative byte budget rather than the
// library's own recency policy, per spec.md §4.F: entries are evicted in
// insertion order until the budget is satisfied, not by access recency.
type Cache struct {
	mu           sync.Mutex
	lru          *lru.LRU
	maxBytes     int
	currentBytes int
}

// New builds a Cache with the given byte budget. maxBytes <= 0 disables
// the cache (every Get misses, every Put is a no-op). daemon.New never
// passes such a budget: it replaces a non-positive one with its default.
func New(maxBytes int) *Cache {
	c := &Cache{maxBytes: maxBytes}
	// simplelru.LRU requires a positive size; our own byte-budget loop
	// does the real eviction, so give it a size that is never the
	// binding constraint.
	inner, err := lru.NewLRU(1<<31-1, c.onEvict)
	if err != nil {
		panic(fmt.Sprintf("cache: building simplelru: %v", err))
	}
	c.lru = inner
	return c
}

// onEvict is called synchronously by lru.Remove/RemoveOldest/Purge while
// the caller already holds c.mu.
func (c *Cache) onEvict(key interface{}, value interface{}) {
	if e, ok := value.(entry); ok {
		c.currentBytes -= e.bytes
	}
}

// Get returns the cached value for key if present. It looks up via Peek,
// not the underlying LRU's Get, so a read never promotes the entry to
// most-recently-used — Put's eviction loop removes by insertion order
// (RemoveOldest), and promoting on read would silently turn that into
// access-recency eviction.
func (c *Cache) Get(key FileKey) (interface{}, bool) {
	if c.maxBytes <= 0 {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.lru.Peek(key.String())
	if !ok {
		return nil, false
	}
	e := v.(entry)
	return e.value, true
}

// Put inserts value at key, charging valueBytes against the budget and
// evicting least-recently-inserted entries until it fits. A value larger
// than the entire budget is simply not cached (it would immediately
// evict itself and everything else for no benefit).
func (c *Cache) Put(key FileKey, value interface{}, valueBytes int) {
	if c.maxBytes <= 0 || valueBytes > c.maxBytes {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	k := key.String()
	if _, ok := c.lru.Peek(k); ok {
		// Remove fires onEvict, which uncharges the old entry's bytes.
		c.lru.Remove(k)
	}

	c.lru.Add(k, entry{value: value, bytes: valueBytes})
	c.currentBytes += valueBytes

	for c.currentBytes > c.maxBytes {
		if _, _, ok := c.lru.RemoveOldest(); !ok {
			break
		}
	}
}

// Invalidate drops any entry for key.
func (c *Cache) Invalidate(key FileKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key.String())
}

// Stats is the (currentBytes, maxBytes, entries) triple describeSession
// exposes per cache (spec.md §4.F).
type Stats struct {
	CurrentBytes int `json:"currentBytes"`
	MaxBytes     int `json:"maxBytes"`
	Entries      int `json:"entries"`
}

// Stats snapshots the cache's current size.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		CurrentBytes: c.currentBytes,
		MaxBytes:     c.maxBytes,
		Entries:      c.lru.Len(),
	}
}
