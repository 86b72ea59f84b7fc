package mempool

import (
	"crypto/ed25519"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/chronodrachma/chrd/pkg/core/blockchain"
	"github.com/chronodrachma/chrd/pkg/core/types"
)

var (
	ErrTxAlreadyInMempool = errors.New("transaction already in mempool")
	ErrInvalidSignature   = errors.New("invalid transaction signature")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidNonce       = errors.New("invalid nonce")
	ErrTxTooOld           = errors.New("transaction timestamp too old")
)

// Mempool manages pending transactions.
type Mempool struct {
	mu    sync.RWMutex
	txs   map[types.Hash]*types.Transaction
	chain *blockchain.Chain
}

// NewMempool creates a new transaction pool.
func NewMempool(chain *blockchain.Chain) *Mempool {
	return &Mempool{
		txs:   make(map[types.Hash]*types.Transaction),
		chain: chain,
	}
}

// Size returns the number of transactions in the pool.
func (mp *Mempool) Size() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return len(mp.txs)
}

// AddTransaction validates and adds a transaction to the pool.
func (mp *Mempool) AddTransaction(tx *types.Transaction) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, ok := mp.txs[tx.ID]; ok {
		return ErrTxAlreadyInMempool
	}

	// tx.From doubles as the Ed25519 public key; there's no separate
	// pubkey-hash indirection in this address scheme.
	if !ed25519.Verify(tx.From[:], tx.Serialize(), tx.Signature) {
		return ErrInvalidSignature
	}

	balance, currentNonce, err := mp.chain.GetAccountState(tx.From)
	if err != nil {
		return err
	}

	// Strict ordering, no gaps: account for already-pending txs from the
	// same sender when computing the nonce and balance this tx must satisfy.
	pendingNonce := currentNonce
	pendingDebit := types.Amount(0)

	for _, pending := range mp.txs {
		if pending.From == tx.From {
			if pending.Nonce >= pendingNonce {
				pendingNonce = pending.Nonce + 1
			}
			pendingDebit += pending.Amount + pending.Fee
		}
	}

	if tx.Nonce != pendingNonce {
		return ErrInvalidNonce
	}

	if balance < pendingDebit+tx.Amount+tx.Fee {
		return ErrInsufficientFunds
	}

	mp.txs[tx.ID] = tx
	return nil
}

// GetPendingTransactions returns up to maxCount transactions to mine,
// oldest timestamp first; fees play no part in the ordering.
func (mp *Mempool) GetPendingTransactions(maxCount int) []*types.Transaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	result := make([]*types.Transaction, 0, maxCount)

	allTxs := make([]*types.Transaction, 0, len(mp.txs))
	for _, tx := range mp.txs {
		allTxs = append(allTxs, tx)
	}

	sort.Slice(allTxs, func(i, j int) bool {
		return allTxs[i].Timestamp.Before(allTxs[j].Timestamp)
	})

	for _, tx := range allTxs {
		if len(result) >= maxCount {
			break
		}
		result = append(result, tx)
	}

	return result
}

// RemoveTransactions removes mined transactions from the pool.
func (mp *Mempool) RemoveTransactions(txs []*types.Transaction) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, tx := range txs {
		delete(mp.txs, tx.ID)
	}
}
