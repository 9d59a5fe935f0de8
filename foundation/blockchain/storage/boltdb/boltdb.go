// Package boltdb implements the ability to read and write blocks to an
// embedded bolt key value file. Blocks are stored as json under their big
// endian encoded index so the keys sort in chain order.
package boltdb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/donorchain/ledger/foundation/blockchain/database"
	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("blocks")

// Bolt represents the serialization implementation for reading and storing
// blocks in a bolt database. This implements the database.Storage interface.
type Bolt struct {
	db *bolt.DB
}

// New opens or creates the bolt file at the specified path.
func New(dbPath string) (*Bolt, error) {
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Bolt{db: db}, nil
}

// Close releases the bolt file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Write stores the block inside a single bolt transaction. The existence
// checks and the put happen under the same write lock.
func (b *Bolt) Write(blockData database.BlockData) error {
	if blockData.Index == 0 {
		return fmt.Errorf("block 0: %w", database.ErrStaleTip)
	}

	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketName)

		if bucket.Get(key(blockData.Index)) != nil {
			return fmt.Errorf("block %d: %w", blockData.Index, database.ErrBlockPersistRejected)
		}

		if blockData.Index > 1 && bucket.Get(key(blockData.Index-1)) == nil {
			return fmt.Errorf("block %d, previous missing: %w", blockData.Index, database.ErrStaleTip)
		}

		return bucket.Put(key(blockData.Index), data)
	})
}

// GetBlock returns the contents of the specified block by number.
func (b *Bolt) GetBlock(num uint64) (database.BlockData, error) {
	var blockData database.BlockData

	err := b.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucketName).Get(key(num))
		if data == nil {
			return fmt.Errorf("block %d: %w", num, database.ErrNotFound)
		}

		return json.Unmarshal(data, &blockData)
	})
	if err != nil {
		return database.BlockData{}, err
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (b *Bolt) ForEach() database.Iterator {
	return &boltIterator{storage: b}
}

func key(num uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, num)
	return k
}

// =============================================================================

// boltIterator represents the iteration implementation for walking
// through the blocks in the bolt file. This implements the database
// Iterator interface.
type boltIterator struct {
	storage *Bolt
	current uint64
	failed  bool
	eoc     bool
}

// Next retrieves the next block from the bolt file.
func (bi *boltIterator) Next() (database.BlockData, error) {
	if bi.eoc || bi.failed {
		bi.eoc = true
		return database.BlockData{}, fmt.Errorf("end of chain: %w", database.ErrNotFound)
	}

	bi.current++
	blockData, err := bi.storage.GetBlock(bi.current)
	switch {
	case errors.Is(err, database.ErrNotFound):
		bi.eoc = true
	case err != nil:
		bi.failed = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (bi *boltIterator) Done() bool {
	return bi.eoc
}
