package hictk

import (
	"container/list"
	"sync"

	"github.com/pbenner/threadpool"
)

// InteractionBlock is a decoded, immutable vector of pixels. Once handed
// out by the cache it is never mutated; callers hold a shared read-only
// reference.
type InteractionBlock struct {
	Pixels    []ThinPixel[float64]
	SizeBytes int64
}

// BlockKey identifies one stored block within a chromosome pair.
type BlockKey struct {
	ChromA  uint32
	ChromB  uint32
	BlockID uint32
}

// BlockLoader decodes the block identified by key. It is invoked at most
// once per key per concurrent burst of callers (single-flight).
type BlockLoader func(key BlockKey) (*InteractionBlock, error)

type cacheEntry struct {
	key   BlockKey
	block *InteractionBlock
	elem  *list.Element
}

type inflight struct {
	done  chan struct{}
	block *InteractionBlock
	err   error
}

// BlockCache is a shared, byte-budgeted LRU of decoded blocks with
// single-flight deduplication of concurrent loads for the same key. The
// mutex's critical section covers only map lookup and LRU bookkeeping;
// decoding runs outside the lock.
type BlockCache struct {
	mu         sync.Mutex
	capacity   int64
	used       int64
	lru        *list.List // most-recently-used at the front
	entries    map[BlockKey]*cacheEntry
	loading    map[BlockKey]*inflight
}

// DefaultCacheCapacity is the byte budget used when a file handle is
// opened without an explicit override (on the order of 500 MiB, per
// spec §5).
const DefaultCacheCapacity int64 = 500 * 1024 * 1024

// NewBlockCache creates a cache with the given byte capacity. A
// non-positive capacity is replaced with DefaultCacheCapacity.
func NewBlockCache(capacity int64) *BlockCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &BlockCache{
		capacity: capacity,
		lru:      list.New(),
		entries:  make(map[BlockKey]*cacheEntry),
		loading:  make(map[BlockKey]*inflight),
	}
}

// GetOrLoad returns the cached block for key, loading it via loader on a
// miss. Concurrent calls for the same key share one decode; the cache
// never panics on a loader failure, it releases the in-flight slot and
// propagates the error to every waiter.
func (c *BlockCache) GetOrLoad(key BlockKey, loader BlockLoader) (*InteractionBlock, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.lru.MoveToFront(e.elem)
		block := e.block
		c.mu.Unlock()
		return block, nil
	}
	if fl, ok := c.loading[key]; ok {
		c.mu.Unlock()
		<-fl.done
		return fl.block, fl.err
	}
	fl := &inflight{done: make(chan struct{})}
	c.loading[key] = fl
	c.mu.Unlock()

	block, err := loader(key)

	c.mu.Lock()
	delete(c.loading, key)
	fl.block, fl.err = block, err
	if err == nil {
		c.insertLocked(key, block)
	}
	c.mu.Unlock()
	close(fl.done)

	return block, err
}

func (c *BlockCache) insertLocked(key BlockKey, block *InteractionBlock) {
	if e, ok := c.entries[key]; ok {
		c.used -= e.block.SizeBytes
		e.block = block
		c.used += block.SizeBytes
		c.lru.MoveToFront(e.elem)
		c.evictLocked()
		return
	}
	e := &cacheEntry{key: key, block: block}
	e.elem = c.lru.PushFront(e)
	c.entries[key] = e
	c.used += block.SizeBytes
	c.evictLocked()
}

func (c *BlockCache) evictLocked() {
	for c.used > c.capacity {
		back := c.lru.Back()
		if back == nil {
			return
		}
		e := back.Value.(*cacheEntry)
		c.lru.Remove(back)
		delete(c.entries, e.key)
		c.used -= e.block.SizeBytes
	}
}

// Prefetch warms the cache for every key in keys, decoding misses
// concurrently across workers before a caller walks the row
// sequentially. GetOrLoad's single-flight already dedupes any key
// requested twice, so a key repeated across two rows' prefetch calls
// only decodes once. Errors from individual loads are collected and
// the first one is returned; every job still runs to completion.
func (c *BlockCache) Prefetch(keys []BlockKey, workers int, loader BlockLoader) error {
	if len(keys) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = 1
	}
	pool := threadpool.New(workers, 2*workers)
	return pool.RangeJob(0, len(keys), func(i int, pool threadpool.ThreadPool, erf func() error) error {
		_, err := c.GetOrLoad(keys[i], loader)
		return err
	})
}

// Evict drops key from the cache if present. It is a no-op for keys that
// are absent or currently loading.
func (c *BlockCache) Evict(key BlockKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return
	}
	c.lru.Remove(e.elem)
	delete(c.entries, key)
	c.used -= e.block.SizeBytes
}

// UsedBytes reports the current byte usage, for tests and diagnostics.
func (c *BlockCache) UsedBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Len reports the number of cached (not in-flight) entries.
func (c *BlockCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
