package types

// BlockIndex is the lightweight, append-only metadata record the
// retargeting engine walks. It is distinct from Block: a Block carries the
// full body (transactions), while a BlockIndex carries only what the
// consensus engine needs to retarget and validate proof of work — height,
// timing, the compact target, the algorithm/PoS tag, and a back-pointer to
// its parent. Once linked into the chain, a BlockIndex is never mutated or
// freed by the engine; callers own the arena.
type BlockIndex struct {
	Height    uint64
	Prev      *BlockIndex
	Timestamp int64 // unix seconds
	Bits      uint32
	Version   uint32
	HeightPoW uint64
	HeightPoS uint64
	BlockHash Hash
}

// IsProofOfStake reports whether this index node's version tags it as a
// proof-of-stake block.
func (bi *BlockIndex) IsProofOfStake() bool {
	if bi == nil {
		return false
	}
	h := BlockHeader{Version: bi.Version}
	return h.IsProofOfStake()
}

// AlgoType extracts the recognized algorithm tag, or -1 if unrecognized.
func (bi *BlockIndex) AlgoType() int {
	if bi == nil {
		return -1
	}
	h := BlockHeader{Version: bi.Version}
	return h.AlgoType()
}

// GetBlockTime returns the node's timestamp as an int64 unix second count,
// matching the naming used by the reference chain-index implementation this
// engine is modeled on.
func (bi *BlockIndex) GetBlockTime() int64 {
	if bi == nil {
		return 0
	}
	return bi.Timestamp
}

// NewBlockIndex builds the BlockIndex for a freshly appended block, deriving
// HeightPoW/HeightPoS from the parent's counters and this block's class.
func NewBlockIndex(header *BlockHeader, blockHash Hash, prev *BlockIndex) *BlockIndex {
	bi := &BlockIndex{
		Height:    header.Height,
		Prev:      prev,
		Timestamp: header.Timestamp.Unix(),
		Bits:      header.Bits,
		Version:   header.Version,
		BlockHash: blockHash,
	}

	var prevPoW, prevPoS uint64
	if prev != nil {
		prevPoW, prevPoS = prev.HeightPoW, prev.HeightPoS
	}

	if bi.IsProofOfStake() {
		bi.HeightPoW = prevPoW
		bi.HeightPoS = prevPoS + 1
	} else {
		bi.HeightPoW = prevPoW + 1
		bi.HeightPoS = prevPoS
	}

	return bi
}
