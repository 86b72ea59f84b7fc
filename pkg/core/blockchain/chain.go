package blockchain

import (
	"errors"
	"sync"
	"time"

	"github.com/chronodrachma/chrd/pkg/core/consensus"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

var (
	ErrChainAlreadyInitialized = errors.New("chain is already initialized with genesis")
	ErrBlockNotFound           = errors.New("block not found")
	ErrAncestorNotFound        = errors.New("ancestor not found at requested height")
)

// Chain represents the in-memory blockchain state, backed by a BlockStore
// for persistence and a consensus.Engine for retargeting and proof-of-work
// verification. Alongside the full blocks it keeps a parallel arena of
// lightweight types.BlockIndex nodes — the Engine only ever walks index
// nodes, never full block bodies.
type Chain struct {
	mu            sync.RWMutex
	store         BlockStore
	hasher        consensus.Hasher
	engine        *consensus.Engine
	blocks        []*types.Block
	blocksByHash  map[types.Hash]*types.Block
	indexByHeight []*types.BlockIndex
	indexByHash   map[types.Hash]*types.BlockIndex
	tip           *types.Block
	tipIndex      *types.BlockIndex
	genesisTime   time.Time
}

// NewChain creates a new chain backed by store, verifying proof of work with
// hasher and retargeting with engine.
func NewChain(store BlockStore, hasher consensus.Hasher, engine *consensus.Engine) (*Chain, error) {
	return &Chain{
		store:        store,
		hasher:       hasher,
		engine:       engine,
		blocksByHash: make(map[types.Hash]*types.Block),
		indexByHash:  make(map[types.Hash]*types.BlockIndex),
	}, nil
}

// InitGenesis creates, validates, and adds the genesis block to the chain,
// mined under the given algorithm.
func (c *Chain) InitGenesis(minerAddress types.Hash, algo int, timestamp time.Time) (*types.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.blocks) > 0 {
		return nil, ErrChainAlreadyInitialized
	}

	coinbase := &types.Transaction{
		Type:      types.TxTypeCoinbase,
		Timestamp: timestamp,
		From:      types.ZeroHash,
		To:        minerAddress,
		Amount:    types.BlockReward,
		Fee:       0,
		Nonce:     0,
	}
	coinbase.ID = coinbase.ComputeID()

	txs := []*types.Transaction{coinbase}

	header := types.BlockHeader{
		Version:       types.EncodeVersion(1, algo),
		Height:        0,
		Timestamp:     timestamp,
		PrevBlockHash: types.ZeroHash,
		MerkleRoot:    types.ComputeMerkleRoot(txs),
		Nonce:         0,
	}
	header.Bits = c.engine.NextWorkRequired(nil, &header)

	block := &types.Block{
		Header:       header,
		Transactions: txs,
	}
	block.Hash = block.ComputeHash()

	headerBytes := header.Serialize()
	powHash, err := c.hasher.Hash(headerBytes)
	if err != nil {
		return nil, err
	}
	block.PowHash = powHash

	if err := ValidateGenesis(block, c.hasher, c.engine.Params()); err != nil {
		return nil, err
	}

	if err := c.store.SaveBlock(block); err != nil {
		return nil, err
	}
	if err := c.store.SaveHead(block.Hash); err != nil {
		return nil, err
	}

	idx := types.NewBlockIndex(&block.Header, block.Hash, nil)

	c.blocks = append(c.blocks, block)
	c.blocksByHash[block.Hash] = block
	c.indexByHeight = append(c.indexByHeight, idx)
	c.indexByHash[block.Hash] = idx
	c.tip = block
	c.tipIndex = idx
	c.genesisTime = timestamp

	return block, nil
}

// AddBlock validates and appends a block to the chain, checking that its
// Bits field matches what the retargeting engine requires.
func (c *Chain) AddBlock(block *types.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.blocks) == 0 {
		return errors.New("chain not initialized: no genesis block")
	}

	parent := c.tip
	parentIndex := c.tipIndex

	requiredBits := c.engine.NextWorkRequired(parentIndex, &block.Header)
	if block.Header.Bits != requiredBits {
		return errors.New("block bits do not match required network target")
	}

	if err := ValidateBlock(block, parent, c.hasher, c.engine.Params()); err != nil {
		return err
	}

	if err := c.store.SaveBlock(block); err != nil {
		return err
	}
	if err := c.store.SaveHead(block.Hash); err != nil {
		return err
	}

	idx := types.NewBlockIndex(&block.Header, block.Hash, parentIndex)

	c.blocks = append(c.blocks, block)
	c.blocksByHash[block.Hash] = block
	c.indexByHeight = append(c.indexByHeight, idx)
	c.indexByHash[block.Hash] = idx
	c.tip = block
	c.tipIndex = idx

	return nil
}

// GetBlockByHeight returns the block at the given height.
func (c *Chain) GetBlockByHeight(height uint64) (*types.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if height >= uint64(len(c.blocks)) {
		return nil, ErrBlockNotFound
	}
	return c.blocks[height], nil
}

// GetBlockByHash returns the block with the given hash.
func (c *Chain) GetBlockByHash(hash types.Hash) (*types.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	block, ok := c.blocksByHash[hash]
	if !ok {
		return nil, ErrBlockNotFound
	}
	return block, nil
}

// GetBlocksRange returns up to maxCount consecutive blocks starting at
// fromHeight, for serving sync requests from peers.
func (c *Chain) GetBlocksRange(fromHeight uint64, maxCount int) ([]*types.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if fromHeight >= uint64(len(c.blocks)) {
		return nil, nil
	}
	end := fromHeight + uint64(maxCount)
	if end > uint64(len(c.blocks)) {
		end = uint64(len(c.blocks))
	}
	return c.blocks[fromHeight:end], nil
}

// GetAncestorAtHeight returns the block at the requested height from the
// chain's height-ordered block list; tip is not consulted.
func (c *Chain) GetAncestorAtHeight(tip *types.Block, height uint64) (*types.Block, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if height >= uint64(len(c.blocks)) {
		return nil, ErrAncestorNotFound
	}
	return c.blocks[height], nil
}

// GetAccountState scans every transaction recorded on the chain to compute
// addr's current balance and next expected nonce. This is a prototype-scale
// linear scan — block validation and retargeting never call it, so it sits
// outside the consensus-critical path.
func (c *Chain) GetAccountState(addr types.Hash) (types.Amount, uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var balance int64
	var nonce uint64
	for _, block := range c.blocks {
		for _, tx := range block.Transactions {
			if tx.To == addr {
				balance += int64(tx.Amount)
			}
			if tx.From == addr {
				balance -= int64(tx.Amount) + int64(tx.Fee)
				if tx.Nonce+1 > nonce {
					nonce = tx.Nonce + 1
				}
			}
		}
	}
	if balance < 0 {
		balance = 0
	}
	return types.Amount(balance), nonce, nil
}

// Tip returns the current chain tip.
func (c *Chain) Tip() *types.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tip
}

// TipIndex returns the types.BlockIndex node for the current chain tip, the
// value passed as Engine.NextWorkRequired's tip argument for the next block.
func (c *Chain) TipIndex() *types.BlockIndex {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tipIndex
}

// Height returns the height of the current chain tip. Returns 0 for empty chains.
func (c *Chain) Height() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tip == nil {
		return 0
	}
	return c.tip.Header.Height
}

// TotalSupply returns the total CHRD emitted up to the current chain tip.
func (c *Chain) TotalSupply() types.Amount {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.tip == nil {
		return 0
	}
	return TotalSupplyAtHeight(c.tip.Header.Height)
}

// Engine returns the chain's retargeting engine.
func (c *Chain) Engine() *consensus.Engine {
	return c.engine
}
