package consensus

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/chronodrachma/chrd/pkg/core/consensus/bigint"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

// CheckProofOfWork decodes bits, range-checks it, and reports whether hash
// satisfies the resulting target. It rejects out-of-range bits (negative,
// zero, overflowing, or exceeding the algorithm's pow_limit) before ever
// comparing the hash, and rejects algo values outside [-1, ALGO_COUNT) or
// equal to ALGO_POS (proof of stake has no proof of work to check).
func CheckProofOfWork(hash chainhash.Hash, bits uint32, algo int, params *Params) bool {
	target, negative, overflow := bigint.SetCompact(bits)

	if negative || target.IsZero() || overflow {
		return false
	}
	if algo < -1 || algo == int(types.AlgoPOS) || algo >= int(types.AlgoCount) {
		return false
	}

	limitIdx := algo
	if limitIdx == -1 {
		limitIdx = int(types.AlgoPOWSha256)
	}
	if target.Cmp(params.PowLimit[limitIdx]) > 0 {
		return false
	}

	hashValue := bigint.BigInt256FromBytes(hash[:])
	return hashValue.Cmp(target) <= 0
}
