package consensus

import "github.com/chronodrachma/chrd/pkg/core/types"

// LastBlock walks Prev until it finds a node whose PoS-ness matches
// wantPos, or runs out of chain. It never mutates the chain and degrades
// gracefully at genesis by returning the last node it saw (possibly nil).
func LastBlock(p *types.BlockIndex, wantPos bool) *types.BlockIndex {
	for p != nil && p.IsProofOfStake() != wantPos && p.Prev != nil {
		p = p.Prev
	}
	return p
}

// LastBlockForAlgo walks Prev until it finds a node tagged with algo, or
// runs out of chain.
func LastBlockForAlgo(p *types.BlockIndex, algo int) *types.BlockIndex {
	for p != nil && p.AlgoType() != algo && p.Prev != nil {
		p = p.Prev
	}
	return p
}

// ASERTReferenceBlock returns the anchor ASERT schedules block times against.
// It repeatedly steps to LastBlockForAlgo(p.Prev, algo) so long as the
// current node's height is still at or above startHeight and the node has a
// parent, so the walk ends on the first node it reaches below startHeight,
// or on genesis. With startHeight 0 the result is genesis; a node already
// below startHeight is returned unchanged.
func ASERTReferenceBlock(p *types.BlockIndex, startHeight int64, algo int) *types.BlockIndex {
	if p == nil {
		return nil
	}
	for int64(p.Height) >= startHeight {
		pprev := LastBlockForAlgo(p.Prev, algo)
		if pprev == nil {
			break
		}
		p = pprev
	}
	return p
}

// lastBlockFiltered dispatches to LastBlock or LastBlockForAlgo depending on
// whether the algorithm tag is recognized, matching the fallback rule used
// throughout RetargetCore whenever a candidate header's algo is -1.
func lastBlockFiltered(p *types.BlockIndex, algoMissing bool, isProofOfStake bool, algo int) *types.BlockIndex {
	if algoMissing {
		return LastBlock(p, isProofOfStake)
	}
	return LastBlockForAlgo(p, algo)
}
