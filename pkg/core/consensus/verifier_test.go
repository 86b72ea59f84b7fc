package consensus

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/chronodrachma/chrd/pkg/core/consensus/bigint"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

func maxTargetParams() *Params {
	p := &Params{}
	maxBytes := make([]byte, 32)
	for i := range maxBytes {
		maxBytes[i] = 0xff
	}
	maxTarget := bigint.BigInt256FromBytes(maxBytes)
	for i := range p.PowLimit {
		p.PowLimit[i] = maxTarget
	}
	return p
}

func TestCheckProofOfWorkNegativeMantissaRejected(t *testing.T) {
	// Scenario 7 from the spec: bits with the sign bit set must be
	// rejected regardless of the hash.
	params := maxTargetParams()
	var hash chainhash.Hash
	if CheckProofOfWork(hash, 0x03800000, int(types.AlgoPOWSha256), params) {
		t.Fatal("expected rejection on negative-mantissa bits")
	}
}

func TestCheckProofOfWorkZeroBitsRejected(t *testing.T) {
	params := maxTargetParams()
	var hash chainhash.Hash
	if CheckProofOfWork(hash, 0, int(types.AlgoPOWSha256), params) {
		t.Fatal("expected rejection on zero-target bits")
	}
}

func TestCheckProofOfWorkOverflowRejected(t *testing.T) {
	params := maxTargetParams()
	var hash chainhash.Hash
	if CheckProofOfWork(hash, 0x21010000, int(types.AlgoPOWSha256), params) {
		t.Fatal("expected rejection on overflowing bits")
	}
}

func TestCheckProofOfWorkRejectsProofOfStakeAlgo(t *testing.T) {
	params := maxTargetParams()
	var hash chainhash.Hash
	if CheckProofOfWork(hash, 0x1d00ffff, int(types.AlgoPOS), params) {
		t.Fatal("PoS has no proof of work to check")
	}
}

func TestCheckProofOfWorkRejectsOutOfRangeAlgo(t *testing.T) {
	params := maxTargetParams()
	var hash chainhash.Hash
	if CheckProofOfWork(hash, 0x1d00ffff, -2, params) {
		t.Fatal("expected rejection for algo < -1")
	}
	if CheckProofOfWork(hash, 0x1d00ffff, int(types.AlgoCount), params) {
		t.Fatal("expected rejection for algo >= AlgoCount")
	}
}

func TestCheckProofOfWorkRejectsTargetAboveLimit(t *testing.T) {
	params := &Params{}
	params.PowLimit[types.AlgoPOWSha256] = bigint.NewBigInt256FromUint64(100)
	var hash chainhash.Hash
	// 0x030000ff decodes to a target of 0xff (255), which exceeds the
	// pow_limit of 100 for this algorithm.
	if CheckProofOfWork(hash, 0x030000ff, int(types.AlgoPOWSha256), params) {
		t.Fatal("expected rejection for target exceeding pow_limit")
	}
}

func TestCheckProofOfWorkAcceptsHashAtOrBelowTarget(t *testing.T) {
	params := maxTargetParams()
	// bits 0x1d00ffff decodes to a large target; an all-zero hash always
	// satisfies it.
	var zeroHash chainhash.Hash
	if !CheckProofOfWork(zeroHash, 0x1d00ffff, int(types.AlgoPOWSha256), params) {
		t.Fatal("expected the zero hash to satisfy any positive target")
	}
}

func TestCheckProofOfWorkRejectsHashAboveTarget(t *testing.T) {
	params := &Params{}
	small := bigint.NewBigInt256FromUint64(1)
	params.PowLimit[types.AlgoPOWSha256] = small
	compact := small.Compact()

	var maxHash chainhash.Hash
	for i := range maxHash {
		maxHash[i] = 0xff
	}
	if CheckProofOfWork(maxHash, compact, int(types.AlgoPOWSha256), params) {
		t.Fatal("expected rejection: hash far exceeds the tiny target")
	}
}

func TestCheckProofOfWorkAlgoMissingFallsBackToSha256Limit(t *testing.T) {
	params := &Params{}
	params.PowLimit[types.AlgoPOWSha256] = bigint.NewBigInt256FromUint64(1000)
	params.PowLimit[types.AlgoPOWScrypt] = bigint.NewBigInt256FromUint64(1)

	target := bigint.NewBigInt256FromUint64(500)
	compact := target.Compact()
	var hash chainhash.Hash
	if !CheckProofOfWork(hash, compact, -1, params) {
		t.Fatal("algo -1 should be checked against the SHA-256 pow_limit, which permits this target")
	}
}
