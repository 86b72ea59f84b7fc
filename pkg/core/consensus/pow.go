package consensus

import "github.com/chronodrachma/chrd/pkg/core/types"

// Hasher computes Proof-of-Work hashes. Implementations include RandomXHasher
// (production, CGO) and SHA256Hasher (testing, pure Go). What counts as a
// passing hash is decided separately, by CheckProofOfWork against the
// compact target RetargetCore produced for this block — a Hasher only knows
// how to turn header bytes into a candidate hash.
type Hasher interface {
	// Hash computes the PoW hash of the given block header bytes.
	Hash(headerBytes []byte) (types.Hash, error)

	// Close releases any resources held by the hasher.
	Close()
}
