package consensus

import (
	"github.com/chronodrachma/chrd/pkg/core/consensus/bigint"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

// powTargetSpacingPoW is the hard-coded PoW block spacing used by WTEMA and
// ASERT regardless of what Params.PowTargetSpacing says. This is load-bearing
// for consensus on the deployed network and is not a bug to fix.
const powTargetSpacingPoW = 10 * 60

// Params carries the immutable, height-independent consensus constants the
// retargeting engine is parameterized by. A node builds exactly one Params
// value at startup (see pkg/config) and shares it across every Engine.
type Params struct {
	// PowLimit is the per-algorithm minimum-difficulty target.
	PowLimit [types.AlgoCount]bigint.BigInt256

	// PowTargetSpacing is the nominal spacing, in seconds, between stake
	// blocks. PoW retargets ignore this and use a hard-coded 600s spacing.
	PowTargetSpacing int64

	// PowTargetTimespan is the retarget window, in seconds; it also serves
	// as the ASERT half-life denominator.
	PowTargetTimespan int64

	// FPowNoRetargeting freezes difficulty when set (regression networks).
	FPowNoRetargeting bool

	// FPowAllowMinDifficultyBlocks enables the testnet min-difficulty rule.
	FPowAllowMinDifficultyBlocks bool

	// StakeTimestampMask is the bitmask PoS timestamps must be zero modulo
	// (mask+1) against.
	StakeTimestampMask int64
}

// DifficultyAdjustmentInterval is PowTargetTimespan / PowTargetSpacing,
// the legacy interval retarget's block count between adjustments.
func (p *Params) DifficultyAdjustmentInterval() int64 {
	return p.PowTargetTimespan / p.PowTargetSpacing
}

// targetSpacing returns the effective block spacing for the given class of
// block: a hard-coded 600s for PoW, and Params.PowTargetSpacing for PoS.
// Preserved verbatim from the reference implementation; see DESIGN.md.
func (p *Params) targetSpacing(isProofOfStake bool) int64 {
	if !isProofOfStake {
		return powTargetSpacingPoW
	}
	return p.PowTargetSpacing
}

// PowLimitCompact returns the compact encoding of the pow_limit for algo,
// falling back to ALGO_POW_SHA256 when algo is the -1 "unrecognized" sentinel.
func (p *Params) PowLimitCompact(algo int) uint32 {
	idx := algo
	if idx == -1 {
		idx = int(types.AlgoPOWSha256)
	}
	return p.PowLimit[idx].Compact()
}
