// Package memory implements the ability to read and write blocks to memory
// using a slice.
package memory

import (
	"fmt"
	"sync"

	"github.com/donorchain/ledger/foundation/blockchain/database"
)

// Memory represents the serialization implementation for reading and storing
// blocks in memory using a slice. This implements the database.Storage
// interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.BlockData
}

// New constructs an Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Close in this implementation has nothing to do since everything
// is in memory.
func (m *Memory) Close() error {
	return nil
}

// Write takes the specified database block and stores it in memory. The
// block must be the next index, an existing index is never replaced.
func (m *Memory) Write(blockData database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := uint64(len(m.blocks)) + 1

	switch {
	case blockData.Index != 0 && blockData.Index < next:
		return fmt.Errorf("block %d: %w", blockData.Index, database.ErrBlockPersistRejected)
	case blockData.Index != next:
		return fmt.Errorf("block %d, next %d: %w", blockData.Index, next, database.ErrStaleTip)
	}

	m.blocks = append(m.blocks, clone(blockData))

	return nil
}

// GetBlock returns the contents of the specified block by number.
func (m *Memory) GetBlock(num uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if num == 0 || num > uint64(len(m.blocks)) {
		return database.BlockData{}, fmt.Errorf("block %d: %w", num, database.ErrNotFound)
	}

	return clone(m.blocks[num-1]), nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (m *Memory) ForEach() database.Iterator {
	return &memoryIterator{storage: m}
}

// Tamper replaces the stored block at the block's index without any
// checks. It exists so tests can simulate a storage level modification.
func (m *Memory) Tamper(blockData database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if blockData.Index == 0 || blockData.Index > uint64(len(m.blocks)) {
		return fmt.Errorf("block %d: %w", blockData.Index, database.ErrNotFound)
	}

	m.blocks[blockData.Index-1] = clone(blockData)

	return nil
}

// clone copies the transactions so callers never share the stored slice.
func clone(blockData database.BlockData) database.BlockData {
	blockData.Transactions = append([]database.BlockTx{}, blockData.Transactions...)
	return blockData
}

// =============================================================================

// memoryIterator represents the iteration implementation for walking
// through the blocks in memory. This implements the database Iterator
// interface.
type memoryIterator struct {
	storage *Memory // Access to the storage API.
	current uint64  // Current block number being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from memory.
func (mi *memoryIterator) Next() (database.BlockData, error) {
	if mi.eoc {
		return database.BlockData{}, fmt.Errorf("end of chain: %w", database.ErrNotFound)
	}

	mi.current++
	blockData, err := mi.storage.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (mi *memoryIterator) Done() bool {
	return mi.eoc
}
