package state

import (
	"github.com/donorchain/ledger/foundation/blockchain/database"
)

// RetrieveChain returns every block in index order.
func (s *State) RetrieveChain() ([]database.BlockData, error) {
	return s.db.Blocks()
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() (database.BlockData, error) {
	latest, ok := s.db.LatestBlock()
	if !ok {
		return database.BlockData{}, database.ErrChainUninitialized
	}

	return latest, nil
}

// RetrieveMempool returns a copy of the mempool in admission order.
func (s *State) RetrieveMempool() []database.BlockTx {
	return s.mempool.Copy()
}

// RetrieveBlock returns the block for the specified index.
func (s *State) RetrieveBlock(index uint64) (database.BlockData, error) {
	return s.db.GetBlock(index)
}
