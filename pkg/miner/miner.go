package miner

import (
	"context"
	"log"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/chronodrachma/chrd/pkg/core/blockchain"
	"github.com/chronodrachma/chrd/pkg/core/consensus"
	"github.com/chronodrachma/chrd/pkg/core/mempool"
	"github.com/chronodrachma/chrd/pkg/core/types"
	"github.com/chronodrachma/chrd/pkg/p2p"
)

// Miner drives a single-algorithm CPU mining loop against the chain's
// current tip, pulling the target from the chain's consensus.Engine for
// every candidate rather than computing its own.
type Miner struct {
	chain     *blockchain.Chain
	hasher    consensus.Hasher // Must be initialized for mining (e.g. RandomX dataset)
	p2pServer *p2p.Server
	mempool   *mempool.Mempool
	address   types.Hash // Miner's address for coinbase
	algo      int
	quit      chan struct{}
	wg        sync.WaitGroup
}

func NewMiner(chain *blockchain.Chain, hasher consensus.Hasher, p2pServer *p2p.Server, mp *mempool.Mempool, address types.Hash, algo int) *Miner {
	return &Miner{
		chain:     chain,
		hasher:    hasher,
		p2pServer: p2pServer,
		mempool:   mp,
		address:   address,
		algo:      algo,
		quit:      make(chan struct{}),
	}
}

func (m *Miner) Start() {
	log.Println("Miner started. CPU threads:", runtime.NumCPU())
	m.wg.Add(1)
	go m.miningLoop()
}

func (m *Miner) Stop() {
	close(m.quit)
	m.wg.Wait()
	log.Println("Miner stopped")
}

func (m *Miner) miningLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.quit:
			return
		default:
			parent := m.chain.Tip()
			tipIndex := m.chain.TipIndex()

			block := m.createBlockTemplate(parent, tipIndex)

			if m.solveBlock(block) {
				log.Printf("Mined block! Hash: %x, Height: %d", block.Hash, block.Header.Height)

				if err := m.chain.AddBlock(block); err != nil {
					log.Printf("Miner: failed to add mined block: %v", err)
					continue
				}

				m.p2pServer.Broadcast(&p2p.MsgBlock{Block: block})
				m.mempool.RemoveTransactions(block.Transactions[1:]) // Skip coinbase
			}
		}
	}
}

func (m *Miner) createBlockTemplate(parent *types.Block, tipIndex *types.BlockIndex) *types.Block {
	timestamp := time.Now()
	if !timestamp.After(parent.Header.Timestamp) {
		timestamp = parent.Header.Timestamp.Add(time.Second)
	}

	coinbase := &types.Transaction{
		Type:      types.TxTypeCoinbase,
		Timestamp: timestamp,
		From:      types.ZeroHash,
		To:        m.address,
		Amount:    blockchain.BlockReward(parent.Header.Height + 1),
		Fee:       0,
		Nonce:     parent.Header.Height + 1,
	}
	coinbase.ID = coinbase.ComputeID()

	txs := []*types.Transaction{coinbase}

	// Limit to ~1000 for prototype.
	pending := m.mempool.GetPendingTransactions(1000)
	txs = append(txs, pending...)

	header := types.BlockHeader{
		Version:       types.EncodeVersion(1, m.algo),
		Height:        parent.Header.Height + 1,
		Timestamp:     timestamp,
		PrevBlockHash: parent.Hash,
		MerkleRoot:    types.ComputeMerkleRoot(txs),
		Nonce:         rand.Uint64(), // Start with random nonce
	}
	header.Bits = m.chain.Engine().NextWorkRequired(tipIndex, &header)

	return &types.Block{
		Header:       header,
		Transactions: txs,
	}
}

func (m *Miner) solveBlock(block *types.Block) bool {
	// Single-threaded search over a bounded window, then yield to re-check
	// the tip and quit channel — a production miner would fan this out
	// across runtime.NumCPU() workers sharing the nonce space.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	params := m.chain.Engine().Params()
	algo := block.Header.AlgoType()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-m.quit:
			return false
		default:
			headerBytes := block.Header.Serialize()
			hash, err := m.hasher.Hash(headerBytes)
			if err != nil {
				log.Printf("Miner hasher error: %v", err)
				return false
			}

			if consensus.CheckProofOfWork(hash.ToChainHash(), block.Header.Bits, algo, params) {
				block.Hash = block.ComputeHash()
				block.PowHash = hash
				return true
			}

			block.Header.Nonce++
		}
	}
}
