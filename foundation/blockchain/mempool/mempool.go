// Package mempool maintains the pool of donations waiting to be recorded in
// the next block.
package mempool

import (
	"errors"
	"sync"

	"github.com/donorchain/ledger/foundation/blockchain/database"
)

// Mempool represents a cache of transactions kept in admission order with a
// second key on the transaction id.
type Mempool struct {
	mu    sync.RWMutex
	pool  []database.BlockTx
	index map[string]int
}

// New constructs a new mempool.
func New() *Mempool {
	return &Mempool{
		index: make(map[string]int),
	}
}

// Count returns the current number of transaction in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds a transaction to the end of the pool. A transaction id that
// is already pending has its snapshot replaced in place.
func (mp *Mempool) Upsert(tx database.BlockTx) (int, error) {
	if tx.TransactionID == "" {
		return 0, errors.New("transaction id is required")
	}

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if i, exists := mp.index[tx.TransactionID]; exists {
		mp.pool[i] = tx
		return len(mp.pool), nil
	}

	mp.index[tx.TransactionID] = len(mp.pool)
	mp.pool = append(mp.pool, tx)

	return len(mp.pool), nil
}

// Delete removes the transactions with the specified ids from the pool.
// Ids that are not pending are ignored.
func (mp *Mempool) Delete(txIDs ...string) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	remove := make(map[string]bool, len(txIDs))
	for _, id := range txIDs {
		remove[id] = true
	}

	pool := make([]database.BlockTx, 0, len(mp.pool))
	index := make(map[string]int, len(mp.pool))
	for _, tx := range mp.pool {
		if remove[tx.TransactionID] {
			continue
		}
		index[tx.TransactionID] = len(pool)
		pool = append(pool, tx)
	}

	mp.pool = pool
	mp.index = index
}

// Get returns the pending transaction for the specified id.
func (mp *Mempool) Get(txID string) (database.BlockTx, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	i, exists := mp.index[txID]
	if !exists {
		return database.BlockTx{}, false
	}

	return mp.pool[i], true
}

// Copy returns a copy of the pool in admission order.
func (mp *Mempool) Copy() []database.BlockTx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return append([]database.BlockTx{}, mp.pool...)
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = nil
	mp.index = make(map[string]int)
}
