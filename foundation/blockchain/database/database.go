// Package database handles all the lower level support for maintaining the
// donation ledger: transactions and their canonical signing form, blocks and
// their hashing, the proof of work puzzle, chain validation and the guarded
// write path to storage.
package database

import (
	"errors"
	"fmt"
	"sync"
)

// ErrStaleTip is returned when a block does not extend the current tip of
// the chain.
var ErrStaleTip = errors.New("block does not extend the current tip")

// Storage interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain. Write
// must refuse a block whose index already exists with ErrBlockPersistRejected
// and a block that is not the next index with ErrStaleTip. GetBlock must
// report a missing block with ErrNotFound.
type Storage interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the guarded access to the blocks in storage.
type Database struct {
	mu          sync.RWMutex
	storage     Storage
	latestBlock BlockData
	evHandler   func(v string, args ...any)
}

// New constructs a database over the storage and locates the latest block.
// No validation is performed here, that is the job of ValidateChain. A read
// error stops the scan at the last readable block, ValidateChain reports it.
func New(storage Storage, evHandler func(v string, args ...any)) (*Database, error) {
	ev := evHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	db := Database{
		storage:   storage,
		evHandler: ev,
	}

	iter := storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			ev("database: New: WARNING: reading blocks after blk[%d]: %s", db.latestBlock.Index, err)
			break
		}
		db.latestBlock = blockData
	}

	ev("database: New: latest block[%d]", db.latestBlock.Index)

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() error {
	return db.storage.Close()
}

// LatestBlock returns the latest block and false when the chain is empty.
func (db *Database) LatestBlock() (BlockData, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	latest := db.latestBlock
	latest.Transactions = append([]BlockTx{}, latest.Transactions...)

	return latest, latest.Index != 0
}

// Write appends a new block to the chain. The block must extend the latest
// block: the next index and a previous hash equal to the latest hash. A
// block for an index that is already persisted is rejected.
func (db *Database) Write(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	latest := db.latestBlock

	db.evHandler("database: Write: blk[%d]: check: block extends tip[%d]", block.Number(), latest.Index)

	switch {
	case block.Number() <= latest.Index:
		return fmt.Errorf("block %d: %w", block.Number(), ErrBlockPersistRejected)

	case block.Number() != latest.Index+1:
		return fmt.Errorf("block %d, tip %d: %w", block.Number(), latest.Index, ErrStaleTip)

	case latest.Index > 0 && block.PrevBlockHash() != latest.Hash:
		return fmt.Errorf("block %d previous hash %s, tip hash %s: %w", block.Number(), block.PrevBlockHash(), latest.Hash, ErrStaleTip)
	}

	blockData := NewBlockData(block)
	if err := db.storage.Write(blockData); err != nil {
		return err
	}
	db.latestBlock = blockData

	db.evHandler("database: Write: blk[%d]: hash[%s]: persisted", block.Number(), block.Hash())

	return nil
}

// Update exists so any attempt to persist a change to a block is routed
// through the immutability check. A block that is already persisted is
// always rejected and the stored block is left untouched.
func (db *Database) Update(block Block) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if _, err := db.storage.GetBlock(block.Number()); err != nil {
		return fmt.Errorf("update block %d: %w", block.Number(), err)
	}

	db.evHandler("database: Update: blk[%d]: REJECTED", block.Number())

	return fmt.Errorf("block %d: %w", block.Number(), ErrBlockPersistRejected)
}

// GetBlock returns the stored block for the specified index.
func (db *Database) GetBlock(num uint64) (BlockData, error) {
	return db.storage.GetBlock(num)
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (db *Database) ForEach() Iterator {
	return db.storage.ForEach()
}

// Blocks returns every stored block in index order.
func (db *Database) Blocks() ([]BlockData, error) {
	var blocks []BlockData

	iter := db.storage.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, blockData)
	}

	return blocks, nil
}
