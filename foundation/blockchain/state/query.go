package state

import (
	"fmt"

	"github.com/donorchain/ledger/foundation/blockchain/database"
)

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryTransaction returns the recorded snapshot of the transaction and the
// index of the block holding it.
func (s *State) QueryTransaction(txID string) (database.BlockTx, uint64, error) {
	blockData, err := s.blockFor(txID)
	if err != nil {
		return database.BlockTx{}, 0, err
	}

	for _, tx := range blockData.Transactions {
		if tx.TransactionID == txID {
			return tx, blockData.Index, nil
		}
	}

	return database.BlockTx{}, 0, fmt.Errorf("transaction %s: %w", txID, database.ErrNotFound)
}

// Receipt returns the inclusion receipt for a committed transaction.
func (s *State) Receipt(txID string) (database.Receipt, error) {
	blockData, err := s.blockFor(txID)
	if err != nil {
		return database.Receipt{}, err
	}

	return database.NewReceipt(blockData, txID)
}

// =============================================================================

// blockFor locates the block holding the transaction.
func (s *State) blockFor(txID string) (database.BlockData, error) {
	s.mu.Lock()
	index, exists := s.committed[txID]
	s.mu.Unlock()

	if !exists {
		return database.BlockData{}, fmt.Errorf("transaction %s: %w", txID, database.ErrNotFound)
	}

	return s.db.GetBlock(index)
}
