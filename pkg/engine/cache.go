package engine

import (
	"sync"

	"github.com/yourusername/ckengine/internal/positionid"
)

// Cache constants
const (
	DefaultCacheSize = 1 << 16 // 64K entries
)

// CacheEntry stores a cached search result
type CacheEntry struct {
	Key     positionid.PositionKey
	Context int32 // search context (depth, side)
	Move    Move
	Score   int
	Found   bool // false if the side had no move
	valid   bool
}

// MoveCache is a thread-safe cache of ChooseMove results.
// Uses a two-way associative cache with MurmurHash3-based indexing.
//
// Search is deterministic for a given position, side and depth, so a hit is
// always the move a fresh search would have returned.
type MoveCache struct {
	entries  []cacheNode
	size     uint32
	hashMask uint32

	// Statistics
	lookups uint64
	hits    uint64
	adds    uint64

	mu sync.RWMutex
}

// cacheNode holds primary and secondary entries for two-way associative cache
type cacheNode struct {
	primary   CacheEntry
	secondary CacheEntry
}

// NewMoveCache creates a new cache with the given size.
// Size will be adjusted to the nearest power of 2 (minimum 2).
func NewMoveCache(size uint32) *MoveCache {
	if size > 1<<24 {
		size = 1 << 24
	}
	if size < 2 {
		size = 2
	}

	// Find smallest power of 2 >= size
	p := uint32(1)
	for p < size {
		p <<= 1
	}
	size = p

	return &MoveCache{
		entries:  make([]cacheNode, size/2),
		size:     size,
		hashMask: (size / 2) - 1,
	}
}

// Flush clears all entries from the cache
func (c *MoveCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.entries {
		c.entries[i] = cacheNode{}
	}
	c.lookups = 0
	c.hits = 0
	c.adds = 0
}

// hash computes the slot for a key using MurmurHash3-style mixing
func (c *MoveCache) hash(key positionid.PositionKey, ctx int32) uint32 {
	const c1 = 0xcc9e2d51
	const c2 = 0x1b873593

	h := uint32(0)

	for _, k := range key.Data {
		k *= c1
		k = (k << 15) | (k >> 17)
		k *= c2

		h ^= k
		h = (h << 13) | (h >> 19)
		h = h*5 + 0xe6546b64
	}

	k := uint32(ctx)
	k *= c1
	k = (k << 15) | (k >> 17)
	k *= c2
	h ^= k

	// Finalization
	h ^= 24
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16

	return h & c.hashMask
}

func (e *CacheEntry) matches(key positionid.PositionKey, ctx int32) bool {
	return e.valid && e.Context == ctx && positionid.EqualKeys(e.Key, key)
}

// Lookup returns the cached entry for the key and context, if present.
func (c *MoveCache) Lookup(key positionid.PositionKey, ctx int32) (CacheEntry, bool) {
	slot := c.hash(key, ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lookups++
	node := &c.entries[slot]
	if node.primary.matches(key, ctx) {
		c.hits++
		return node.primary, true
	}
	if node.secondary.matches(key, ctx) {
		c.hits++
		return node.secondary, true
	}
	return CacheEntry{}, false
}

// Add stores a result, pushing the slot's primary entry to secondary.
func (c *MoveCache) Add(e CacheEntry) {
	slot := c.hash(e.Key, e.Context)
	e.valid = true

	c.mu.Lock()
	defer c.mu.Unlock()

	node := &c.entries[slot]
	node.secondary = node.primary
	node.primary = e
	c.adds++
}

// CacheStats reports cache usage.
type CacheStats struct {
	Size    uint32  `json:"size"`
	Lookups uint64  `json:"lookups"`
	Hits    uint64  `json:"hits"`
	Adds    uint64  `json:"adds"`
	HitRate float64 `json:"hit_rate"`
}

// Stats returns cache statistics
func (c *MoveCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := CacheStats{Size: c.size, Lookups: c.lookups, Hits: c.hits, Adds: c.adds}
	if c.lookups > 0 {
		s.HitRate = float64(c.hits) / float64(c.lookups) * 100
	}
	return s
}

// MakeSearchContext packs the search parameters into a cache context.
// Bits 0-7: depth, bit 8: side.
func MakeSearchContext(depth int, side Side) int32 {
	return int32(depth&0xFF) | int32(side&0x01)<<8
}
