package consensus

import (
	"sync"

	"github.com/chronodrachma/chrd/pkg/core/consensus/bigint"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

// noWindowHeight is the sentinel window-end height stored when the chain is
// shorter than the averaging window: there is no window, so the cached
// target is simply the reference block's own decoded bits.
const noWindowHeight = -1

// uninitializedHeight is the height no real call ever produces, distinguishing
// a cache that has never been written from one holding noWindowHeight.
const uninitializedHeight = -2

// TargetCache memoizes exactly one (windowed average target, window-end
// height, algo, window-end block hash) tuple behind a single mutex. The key
// must include the window-end block hash, not just height, or a reorg that
// replaces blocks at the same heights would be served a stale average for
// a chain that no longer exists.
//
// The cache is bypassed entirely by callers when algo == -1: the missing-
// algorithm fallback walks the PoW/PoS predicate instead of the per-algorithm
// one and may sample an entirely different block sequence, so the two paths
// must never share a cache line.
type TargetCache struct {
	mu     sync.Mutex
	height int64
	algo   int
	hash   types.Hash
	target bigint.BigInt256
}

// NewTargetCache returns an empty cache.
func NewTargetCache() *TargetCache {
	return &TargetCache{
		height: uninitializedHeight,
		algo:   int(types.AlgoCount),
	}
}

// Lookup returns the cached target for the given window-end key, and true
// if it was a hit. A hit requires the height, algo and hash to all match the
// stored key and the stored target to be non-zero.
func (c *TargetCache) Lookup(windowEndHeight int64, algo int, windowEndHash types.Hash) (bigint.BigInt256, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.height != windowEndHeight || c.algo != algo || c.hash != windowEndHash || c.target.IsZero() {
		targetCacheMisses.Inc()
		return bigint.BigInt256{}, false
	}
	targetCacheHits.Inc()
	return c.target, true
}

// Store writes the averaging result for the given window-end key.
func (c *TargetCache) Store(windowEndHeight int64, algo int, windowEndHash types.Hash, target bigint.BigInt256) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.height = windowEndHeight
	c.algo = algo
	c.hash = windowEndHash
	c.target = target
}
