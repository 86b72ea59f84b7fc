package blockchain

import (
	"errors"
	"time"

	"github.com/chronodrachma/chrd/pkg/core/consensus"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

var (
	ErrInvalidPrevHash    = errors.New("block previous hash does not match parent")
	ErrInvalidHeight      = errors.New("block height is not parent height + 1")
	ErrInvalidTimestamp   = errors.New("block timestamp is invalid")
	ErrTimestampTooOld    = errors.New("block timestamp is before parent timestamp")
	ErrTimestampTooFar    = errors.New("block timestamp is too far in the future")
	ErrInvalidPoW         = errors.New("block PoW hash does not meet difficulty target")
	ErrUnrecognizedAlgo   = errors.New("block header names no recognized algorithm")
	ErrInvalidBlockHash   = errors.New("block hash does not match header")
	ErrInvalidMerkleRoot  = errors.New("merkle root does not match transactions")
	ErrNoCoinbaseTx       = errors.New("block must contain exactly one coinbase transaction")
	ErrInvalidCoinbaseAmt = errors.New("coinbase amount does not match block reward")
	ErrInvalidCoinbasePos = errors.New("coinbase transaction must be first in block")
	ErrPowHashMismatch    = errors.New("block PoW hash does not match re-execution")
)

// MaxFutureBlockTime is how far ahead of local time a block's timestamp can be.
const MaxFutureBlockTime = 2 * time.Hour

// ValidateBlock performs full validation of a block against its parent.
func ValidateBlock(block *types.Block, parent *types.Block, hasher consensus.Hasher, params *consensus.Params) error {
	if block.Header.Height != parent.Header.Height+1 {
		return ErrInvalidHeight
	}
	if block.Header.PrevBlockHash != parent.Hash {
		return ErrInvalidPrevHash
	}
	if !block.Header.Timestamp.After(parent.Header.Timestamp) {
		return ErrTimestampTooOld
	}
	if block.Header.Timestamp.After(time.Now().Add(MaxFutureBlockTime)) {
		return ErrTimestampTooFar
	}

	return validateBlockInternal(block, hasher, params)
}

// ValidateGenesis checks that the genesis block is well-formed.
func ValidateGenesis(genesis *types.Block, hasher consensus.Hasher, params *consensus.Params) error {
	if genesis.Header.Height != 0 {
		return ErrInvalidHeight
	}
	if genesis.Header.PrevBlockHash != types.ZeroHash {
		return ErrInvalidPrevHash
	}
	return validateBlockInternal(genesis, hasher, params)
}

// validateBlockInternal checks merkle root, block hash, PoW, and coinbase.
func validateBlockInternal(block *types.Block, hasher consensus.Hasher, params *consensus.Params) error {
	expectedMerkle := types.ComputeMerkleRoot(block.Transactions)
	if block.Header.MerkleRoot != expectedMerkle {
		return ErrInvalidMerkleRoot
	}

	expectedHash := block.ComputeHash()
	if block.Hash != expectedHash {
		return ErrInvalidBlockHash
	}

	algo := block.Header.AlgoType()
	if algo < 0 {
		return ErrUnrecognizedAlgo
	}

	headerBytes := block.Header.Serialize()
	computedPow, err := hasher.Hash(headerBytes)
	if err != nil {
		return err
	}
	if block.PowHash != computedPow {
		return ErrPowHashMismatch
	}

	if algo != int(types.AlgoPOS) {
		if !consensus.CheckProofOfWork(block.PowHash.ToChainHash(), block.Header.Bits, algo, params) {
			return ErrInvalidPoW
		}
	}

	coinbaseCount := 0
	for i, tx := range block.Transactions {
		if tx.Type == types.TxTypeCoinbase {
			if i != 0 {
				return ErrInvalidCoinbasePos
			}
			coinbaseCount++
		}
	}
	if coinbaseCount != 1 {
		return ErrNoCoinbaseTx
	}

	if block.Transactions[0].Amount != BlockReward(block.Header.Height) {
		return ErrInvalidCoinbaseAmt
	}

	return nil
}
