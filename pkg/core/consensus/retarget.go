package consensus

import (
	"github.com/chronodrachma/chrd/pkg/core/consensus/bigint"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

// asertStartHeight is the height ASERT became the active retarget for every
// algorithm on this chain. It has always been 0 on mainnet; kept as a named
// constant rather than a magic number because a future chain could raise it.
const asertStartHeight int64 = 0

// NextWorkRequired is RetargetCore's public entry point: given the chain
// tip and a candidate child header, it returns the compact target the
// child's hash must not exceed. cache is the engine's single-slot averaging
// cache (see TargetCache); passing a fresh cache changes nothing about the
// result, only how much work is repeated.
func NextWorkRequired(tip *types.BlockIndex, candidate *types.BlockHeader, params *Params, cache *TargetCache) uint32 {
	algo := candidate.AlgoType()
	powLimitCompact := params.PowLimitCompact(algo)

	if tip == nil {
		return powLimitCompact
	}
	if params.FPowNoRetargeting {
		return tip.Bits
	}

	if params.FPowAllowMinDifficultyBlocks && algo != -1 {
		prev := LastBlockForAlgo(tip, algo)
		if int64(prev.Height) > 10 && candidate.Timestamp.Unix() > prev.GetBlockTime()+30*60 {
			return powLimitCompact - 1
		}
		if prev.Prev != nil && prev.Bits == powLimitCompact-1 {
			pindex := prev
			for pindex.Prev != nil && (pindex.Bits == powLimitCompact-1 || pindex.AlgoType() != algo) {
				pindex = pindex.Prev
			}
			pprev := LastBlockForAlgo(pindex.Prev, algo)
			if pprev != nil && int64(pprev.Height) > 10 {
				if pprev.Bits != powLimitCompact-1 {
					return pprev.Bits
				}
				return pindex.Bits
			}
		}
	}

	return AverageTargetASERT(tip, candidate, params, cache)
}

// ancestorAtHeight walks Prev back to the node at the given height, or nil
// if the chain doesn't reach that far. The retargeting engine only ever
// borrows this arena, so it is always a backward walk, never an index.
func ancestorAtHeight(p *types.BlockIndex, height int64) *types.BlockIndex {
	for p != nil && int64(p.Height) > height {
		p = p.Prev
	}
	if p != nil && int64(p.Height) != height {
		return nil
	}
	return p
}

// GetNextWorkRequiredXEP is the legacy single-algorithm-SHA-256 interval
// retarget, kept available for chains (e.g. regtest-style deployments) that
// predate the multi-algo ASERT switch. tip must be non-nil: a nil tip here
// denotes a corrupted caller contract, not a recoverable condition.
func GetNextWorkRequiredXEP(tip *types.BlockIndex, candidateTime int64, params *Params) uint32 {
	if tip == nil {
		panic("consensus: GetNextWorkRequiredXEP called with nil tip")
	}
	powLimitCompact := params.PowLimit[types.AlgoPOWSha256].Compact()
	interval := params.DifficultyAdjustmentInterval()

	if (int64(tip.Height)+1)%interval != 0 {
		if params.FPowAllowMinDifficultyBlocks {
			if candidateTime > tip.GetBlockTime()+params.PowTargetSpacing*2 {
				return powLimitCompact
			}
			pindex := tip
			for pindex.Prev != nil && int64(pindex.Height)%interval != 0 && pindex.Bits == powLimitCompact {
				pindex = pindex.Prev
			}
			return pindex.Bits
		}
		return tip.Bits
	}

	heightFirst := int64(tip.Height) - (interval - 1)
	if heightFirst < 0 {
		panic("consensus: GetNextWorkRequiredXEP computed a negative first-block height")
	}
	first := ancestorAtHeight(tip, heightFirst)
	if first == nil {
		panic("consensus: GetNextWorkRequiredXEP could not find the retarget window's first block")
	}

	return CalculateNextWorkRequired(tip, first.GetBlockTime(), params)
}

// CalculateNextWorkRequired retargets from the actual elapsed time between
// tip and firstBlockTime, clamped to a factor of four either way of the
// target timespan.
func CalculateNextWorkRequired(tip *types.BlockIndex, firstBlockTime int64, params *Params) uint32 {
	if tip == nil {
		panic("consensus: CalculateNextWorkRequired called with nil tip")
	}
	if params.FPowNoRetargeting {
		return tip.Bits
	}

	actualTimespan := tip.GetBlockTime() - firstBlockTime
	if actualTimespan < params.PowTargetTimespan/4 {
		actualTimespan = params.PowTargetTimespan / 4
	}
	if actualTimespan > params.PowTargetTimespan*4 {
		actualTimespan = params.PowTargetTimespan * 4
	}

	powLimit := params.PowLimit[types.AlgoPOWSha256]
	newTarget, _, _ := bigint.SetCompact(tip.Bits)
	newTarget = newTarget.Mul(bigint.NewBigInt256FromUint64(uint64(actualTimespan)))
	newTarget = newTarget.Div(bigint.NewBigInt256FromUint64(uint64(params.PowTargetTimespan)))

	if newTarget.Cmp(powLimit) > 0 {
		newTarget = powLimit
	}
	return newTarget.Compact()
}

// powLimitForCandidate resolves which pow_limit entry governs a header,
// following the algo-missing fallback (PoS vs SHA-256) shared by WTEMA and
// ASERT.
func powLimitForCandidate(candidate *types.BlockHeader, params *Params) (limit bigint.BigInt256, algo int, algoMissing bool, isProofOfStake bool) {
	algo = candidate.AlgoType()
	algoMissing = algo == -1
	isProofOfStake = candidate.IsProofOfStake()

	idx := algo
	if algoMissing {
		if isProofOfStake {
			idx = int(types.AlgoPOS)
		} else {
			idx = int(types.AlgoPOWSha256)
		}
	}
	return params.PowLimit[idx], algo, algoMissing, isProofOfStake
}

// WeightedTargetExponentialMovingAverage retargets from the single most
// recent same-class solve time. AverageTargetASERT falls back to it for
// heights below asertStartHeight; with asertStartHeight at 0 that branch is
// never taken, and the bootstrap blocks (genesis, first, second) get
// pow_limit directly from AverageTargetASERT.
func WeightedTargetExponentialMovingAverage(tip *types.BlockIndex, candidate *types.BlockHeader, params *Params) uint32 {
	powLimit, algo, algoMissing, isProofOfStake := powLimitForCandidate(candidate, params)
	powLimitCompact := powLimit.Compact()

	if tip == nil {
		return powLimitCompact
	}

	prev := lastBlockFiltered(tip, algoMissing, isProofOfStake, algo)
	if prev.Prev == nil {
		return powLimitCompact
	}

	prevPrev := lastBlockFiltered(prev.Prev, algoMissing, isProofOfStake, algo)
	if prevPrev.Prev == nil {
		return powLimitCompact
	}

	actualSpacing := prev.GetBlockTime() - prevPrev.GetBlockTime()

	newTarget, _, _ := bigint.SetCompact(prev.Bits)
	targetSpacing := params.targetSpacing(isProofOfStake)
	interval := params.PowTargetTimespan / (targetSpacing * 2)

	numerator := max((interval-1)*targetSpacing+actualSpacing, 1)
	denominator := interval * targetSpacing

	new512 := newTarget.ToBigInt512().
		Mul(bigint.NewBigInt512FromUint64(uint64(numerator))).
		Div(bigint.NewBigInt512FromUint64(uint64(denominator)))
	trimmed := new512.Trim256()

	if new512.Cmp(powLimit.ToBigInt512()) > 0 || trimmed.IsZero() {
		return powLimitCompact
	}
	return trimmed.CompactRounded()
}

// sumWindow averages asertWindow same-class block targets ending at start
// (inclusive), skipping min-difficulty blocks and compensating by counting
// one extra block for each one skipped. Running out of chain before the
// window fills leaves the remaining slots implicitly contributing zero,
// which lowers the target (raises difficulty) rather than panicking.
func sumWindow(start *types.BlockIndex, algo int, algoMissing, isProofOfStake bool, asertWindow int64, powLimitCompact uint32, params *Params) bigint.BigInt256 {
	pindex := start
	denom := bigint.NewBigInt256FromUint64(uint64(asertWindow))
	var sum bigint.BigInt256

	for i := int64(0); i < asertWindow; i++ {
		if pindex == nil {
			break
		}
		if pindex.Bits != powLimitCompact-1 || !params.FPowAllowMinDifficultyBlocks {
			target, _, _ := bigint.SetCompact(pindex.Bits)
			sum = sum.Add(target.Div(denom))
		} else {
			i--
		}
		pindex = lastBlockFiltered(pindex.Prev, algoMissing, isProofOfStake, algo)
	}
	return sum
}

// windowedReferenceTarget implements §4.3.3 step 7: the averaged reference
// target over the last asertWindow same-class blocks ending at the window
// cutoff, or simply the reference block's own bits when the chain is still
// shorter than one full window. The cache is consulted (and bypassed for
// algoMissing) exactly as TargetCache documents.
func windowedReferenceTarget(prev, refBlock *types.BlockIndex, algo int, algoMissing, isProofOfStake bool, height, asertWindow int64, heightDiff uint64, powLimitCompact uint32, params *Params, cache *TargetCache) bigint.BigInt256 {
	blocksToSkip := heightDiff % uint64(asertWindow)
	pindex := prev
	for i := uint64(0); i < blocksToSkip && pindex != nil; i++ {
		pindex = lastBlockFiltered(pindex.Prev, algoMissing, isProofOfStake, algo)
	}

	if pindex != nil && asertWindow > 0 && height >= asertStartHeight+asertWindow && int64(heightDiff) >= asertWindow {
		windowEnd := pindex

		if algoMissing {
			targetCacheBypasses.Inc()
			return sumWindow(windowEnd, algo, algoMissing, isProofOfStake, asertWindow, powLimitCompact, params)
		}
		if cached, ok := cache.Lookup(int64(windowEnd.Height), algo, windowEnd.BlockHash); ok {
			return cached
		}
		sum := sumWindow(windowEnd, algo, algoMissing, isProofOfStake, asertWindow, powLimitCompact, params)
		cache.Store(int64(windowEnd.Height), algo, windowEnd.BlockHash, sum)
		return sum
	}

	if !algoMissing {
		if cached, ok := cache.Lookup(noWindowHeight, algo, types.ZeroHash); ok {
			return cached
		}
		val, _, _ := bigint.SetCompact(refBlock.Bits)
		cache.Store(noWindowHeight, algo, types.ZeroHash, val)
		return val
	}
	targetCacheBypasses.Inc()
	val, _, _ := bigint.SetCompact(refBlock.Bits)
	return val
}

// cubicPow2 computes the numerator and denominator of the cubic rational
// approximation to 2^(remainder/divisor) for 0 < remainder < divisor:
// (4r^3 + 11r^2*d + 35r*d^2 + 50d^3) / (50d^3). It is exact at the interval
// endpoints and monotone increasing in between, avoiding any discontinuity
// at integer exponent boundaries.
func cubicPow2(remainder, divisor int64) (poly, denom bigint.BigInt512) {
	r := bigint.NewBigInt512FromUint64(uint64(remainder))
	d := bigint.NewBigInt512FromUint64(uint64(divisor))

	r2 := r.Mul(r)
	r3 := r2.Mul(r)
	d2 := d.Mul(d)
	d3 := d2.Mul(d)

	poly = r3.MulUint64(4).Add(r2.Mul(d).MulUint64(11)).Add(r.Mul(d2).MulUint64(35)).Add(d3.MulUint64(50))
	denom = d3.MulUint64(50)
	return poly, denom
}

// AverageTargetASERT is the centerpiece retarget: an absolutely scheduled
// exponentially rising target anchored at each algorithm's reference block,
// with the reference target itself replaced by a windowed average to
// smooth out individual block-time noise.
func AverageTargetASERT(tip *types.BlockIndex, candidate *types.BlockHeader, params *Params, cache *TargetCache) uint32 {
	powLimit, algo, algoMissing, isProofOfStake := powLimitForCandidate(candidate, params)
	powLimitCompact := powLimit.Compact()
	targetSpacing := params.targetSpacing(isProofOfStake)

	if tip == nil {
		return powLimitCompact
	}

	prev := lastBlockFiltered(tip, algoMissing, isProofOfStake, algo)
	if prev.Prev == nil {
		return powLimitCompact
	}

	prevPrev := lastBlockFiltered(prev.Prev, algoMissing, isProofOfStake, algo)
	if prevPrev.Prev == nil {
		return powLimitCompact
	}

	asertWindow := 4 * params.PowTargetTimespan / targetSpacing
	height := int64(tip.Height) + 1
	if height < asertStartHeight {
		return WeightedTargetExponentialMovingAverage(tip, candidate, params)
	}

	var blocksPassed uint64
	if isProofOfStake {
		blocksPassed = tip.HeightPoS + 1
	} else {
		blocksPassed = tip.HeightPoW + 1
	}

	// The reference block itself is recomputed fresh on every call, since a
	// reorg can move it. The windowed average is memoized under a key that
	// includes the window-end block hash; in the no-window case the
	// reference block's decoded bits are cached under the fixed
	// (noWindowHeight, algo, zero hash) key.
	refBlock := ASERTReferenceBlock(prev, asertStartHeight, algo)
	refBlockPrev := lastBlockFiltered(refBlock.Prev, algoMissing, isProofOfStake, algo)

	var refTimestamp int64
	if refBlockPrev != nil {
		refTimestamp = refBlockPrev.GetBlockTime()
	} else {
		refTimestamp = refBlock.GetBlockTime() - targetSpacing
	}
	if isProofOfStake {
		for refTimestamp&params.StakeTimestampMask != 0 {
			refTimestamp++
		}
	}

	timeDiff := prev.GetBlockTime() - refTimestamp
	heightDiff := blocksPassed

	refTarget := windowedReferenceTarget(prev, refBlock, algo, algoMissing, isProofOfStake, height, asertWindow, heightDiff, powLimitCompact, params, cache)

	divisor := params.PowTargetTimespan
	dividend := timeDiff - targetSpacing*int64(heightDiff)
	positive := dividend >= 0
	exponent := dividend / divisor

	absDividend := dividend
	if !positive {
		absDividend = -dividend
	}
	remainder := absDividend % divisor

	numerator := bigint.NewBigInt512FromUint64(1)
	denominator := bigint.NewBigInt512FromUint64(1)

	if positive {
		if exponent > 0 {
			numerator = numerator.Lsh(uint(exponent))
		}
		if remainder != 0 {
			poly, denom := cubicPow2(remainder, divisor)
			numerator = numerator.Mul(poly)
			denominator = denominator.Mul(denom)
		}
	} else {
		if exponent < 0 {
			denominator = denominator.Lsh(uint(-exponent))
		}
		if remainder != 0 {
			poly, denom := cubicPow2(remainder, divisor)
			numerator = numerator.Mul(denom)
			denominator = denominator.Mul(poly)
		}
	}

	new512 := refTarget.ToBigInt512().Mul(numerator).Div(denominator)
	newTarget := new512.Trim256()

	if new512.Cmp(powLimit.ToBigInt512()) > 0 || newTarget.IsZero() {
		return powLimitCompact
	}
	return newTarget.CompactRounded()
}
