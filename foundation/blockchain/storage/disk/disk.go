// Package disk implements the ability to read and write blocks to disk
// writing each block to a separate block numbered file.
package disk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/donorchain/ledger/foundation/blockchain/database"
)

// ErrMissingBlock is returned when a block file is missing while a later
// block file exists.
var ErrMissingBlock = errors.New("block missing from the middle of the chain")

// Disk represents the serialization implementation for reading and storing
// blocks in their own separate files on disk. This implements the database.Storage
// interface.
type Disk struct {
	mu     sync.Mutex
	dbPath string
}

// New constructs a Disk value for use.
func New(dbPath string) (*Disk, error) {
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, err
	}

	return &Disk{dbPath: dbPath}, nil
}

// Close in this implementation has nothing to do since a new file is
// written to disk for each new block and then immediately closed.
func (d *Disk) Close() error {
	return nil
}

// Write takes the specified database block and stores it on disk in a
// file labeled with the block number. A file that already exists is never
// opened for writing.
func (d *Disk) Write(blockData database.BlockData) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if blockData.Index == 0 {
		return fmt.Errorf("block 0: %w", database.ErrStaleTip)
	}

	if _, err := os.Stat(d.getPath(blockData.Index)); err == nil {
		return fmt.Errorf("block %d: %w", blockData.Index, database.ErrBlockPersistRejected)
	}

	highest, err := d.highestIndex()
	if err != nil {
		return err
	}
	if highest > blockData.Index {
		return fmt.Errorf("block %d, block %d exists: %w", blockData.Index, highest, database.ErrBlockPersistRejected)
	}

	if blockData.Index > 1 {
		if _, err := os.Stat(d.getPath(blockData.Index - 1)); err != nil {
			return fmt.Errorf("block %d, previous missing: %w", blockData.Index, database.ErrStaleTip)
		}
	}

	// Marshal the block for writing to disk in a more human readable format.
	data, err := json.MarshalIndent(blockData, "", "  ")
	if err != nil {
		return err
	}

	f, err := os.OpenFile(d.getPath(blockData.Index), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("block %d: %w", blockData.Index, database.ErrBlockPersistRejected)
		}
		return err
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}

	return f.Close()
}

// GetBlock searches the blockchain on disk to locate and return the
// contents of the specified block by number.
func (d *Disk) GetBlock(num uint64) (database.BlockData, error) {
	f, err := os.Open(d.getPath(num))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return database.BlockData{}, err
		}

		// A missing file is only the end of the chain when nothing was
		// written after it.
		highest, herr := d.highestIndex()
		if herr != nil {
			return database.BlockData{}, herr
		}
		if highest > num {
			return database.BlockData{}, fmt.Errorf("block %d missing, block %d exists: %w", num, highest, ErrMissingBlock)
		}

		return database.BlockData{}, fmt.Errorf("block %d: %w", num, database.ErrNotFound)
	}
	defer f.Close()

	var blockData database.BlockData
	if err := json.NewDecoder(f).Decode(&blockData); err != nil {
		return database.BlockData{}, fmt.Errorf("decode block %d: %w", num, err)
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (d *Disk) ForEach() database.Iterator {
	return &diskIterator{disk: d}
}

// highestIndex returns the largest block number stored in the directory.
func (d *Disk) highestIndex() (uint64, error) {
	entries, err := os.ReadDir(d.dbPath)
	if err != nil {
		return 0, err
	}

	var highest uint64
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".json")
		if !ok || entry.IsDir() {
			continue
		}

		index, err := strconv.ParseUint(name, 10, 64)
		if err != nil {
			continue
		}

		highest = max(highest, index)
	}

	return highest, nil
}

// getPath forms the path to the specified block.
func (d *Disk) getPath(blockNum uint64) string {
	name := strconv.FormatUint(blockNum, 10)
	return filepath.Join(d.dbPath, fmt.Sprintf("%s.json", name))
}

// =============================================================================

// diskIterator represents the iteration implementation for walking
// through and reading blocks on disk. This implements the database
// Iterator interface.
type diskIterator struct {
	disk    *Disk  // Access to the storage API.
	current uint64 // Current block number being iterated over.
	failed  bool   // A read error was returned on the last call.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from disk. A missing file at the end of the
// chain ends the iteration, any other read error including a missing block
// in the middle is handed to the caller once and then the chain ends.
func (di *diskIterator) Next() (database.BlockData, error) {
	if di.eoc || di.failed {
		di.eoc = true
		return database.BlockData{}, fmt.Errorf("end of chain: %w", database.ErrNotFound)
	}

	di.current++
	blockData, err := di.disk.GetBlock(di.current)
	switch {
	case errors.Is(err, database.ErrNotFound):
		di.eoc = true
	case err != nil:
		di.failed = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (di *diskIterator) Done() bool {
	return di.eoc
}
