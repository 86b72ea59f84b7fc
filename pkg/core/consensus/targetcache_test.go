package consensus

import (
	"testing"

	"github.com/chronodrachma/chrd/pkg/core/consensus/bigint"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

func TestTargetCacheMissOnEmpty(t *testing.T) {
	c := NewTargetCache()
	if _, ok := c.Lookup(0, int(types.AlgoPOWSha256), types.ZeroHash); ok {
		t.Fatal("expected miss on a fresh cache")
	}
}

func TestTargetCacheHitAfterStore(t *testing.T) {
	c := NewTargetCache()
	hash := types.Hash{0x01, 0x02}
	target := bigint.NewBigInt256FromUint64(12345)

	c.Store(10, int(types.AlgoPOWSha256), hash, target)

	got, ok := c.Lookup(10, int(types.AlgoPOWSha256), hash)
	if !ok {
		t.Fatal("expected hit after store")
	}
	if got.Cmp(target) != 0 {
		t.Fatalf("cached value mismatch: got %v want %v", got.Bytes32(), target.Bytes32())
	}
}

func TestTargetCacheMissOnHashMismatch(t *testing.T) {
	c := NewTargetCache()
	target := bigint.NewBigInt256FromUint64(12345)
	c.Store(10, int(types.AlgoPOWSha256), types.Hash{0x01}, target)

	if _, ok := c.Lookup(10, int(types.AlgoPOWSha256), types.Hash{0x02}); ok {
		t.Fatal("a reorg that changes the window-end hash must not hit the stale entry")
	}
}

func TestTargetCacheMissOnAlgoMismatch(t *testing.T) {
	c := NewTargetCache()
	hash := types.Hash{0x01}
	target := bigint.NewBigInt256FromUint64(12345)
	c.Store(10, int(types.AlgoPOWSha256), hash, target)

	if _, ok := c.Lookup(10, int(types.AlgoPOWScrypt), hash); ok {
		t.Fatal("expected miss: different algorithm must not share a cache line")
	}
}

func TestTargetCacheMissOnHeightMismatch(t *testing.T) {
	c := NewTargetCache()
	hash := types.Hash{0x01}
	target := bigint.NewBigInt256FromUint64(12345)
	c.Store(10, int(types.AlgoPOWSha256), hash, target)

	if _, ok := c.Lookup(11, int(types.AlgoPOWSha256), hash); ok {
		t.Fatal("expected miss on height mismatch")
	}
}

func TestTargetCacheZeroTargetNeverHits(t *testing.T) {
	c := NewTargetCache()
	hash := types.Hash{0x01}
	c.Store(10, int(types.AlgoPOWSha256), hash, bigint.Zero256)

	if _, ok := c.Lookup(10, int(types.AlgoPOWSha256), hash); ok {
		t.Fatal("a stored zero target must never be served as a hit")
	}
}

func TestTargetCacheOverwritesPreviousEntry(t *testing.T) {
	c := NewTargetCache()
	h1, h2 := types.Hash{0x01}, types.Hash{0x02}
	t1 := bigint.NewBigInt256FromUint64(111)
	t2 := bigint.NewBigInt256FromUint64(222)

	c.Store(10, int(types.AlgoPOWSha256), h1, t1)
	c.Store(20, int(types.AlgoPOWSha256), h2, t2)

	if _, ok := c.Lookup(10, int(types.AlgoPOWSha256), h1); ok {
		t.Fatal("single-slot cache must not retain the earlier entry")
	}
	got, ok := c.Lookup(20, int(types.AlgoPOWSha256), h2)
	if !ok || got.Cmp(t2) != 0 {
		t.Fatal("expected the newer entry to be cached")
	}
}
