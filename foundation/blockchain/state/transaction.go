package state

import (
	"fmt"
	"time"

	"github.com/donorchain/ledger/foundation/blockchain/database"
)

// SubmitTransaction verifies the donation's signature and admits it to the
// pool. A donation that fails verification leaves the pool untouched.
func (s *State) SubmitTransaction(tx database.Tx) (database.BlockTx, error) {
	s.mu.Lock()
	btx, err := s.submit(tx)
	s.mu.Unlock()

	if err != nil {
		return database.BlockTx{}, err
	}

	if s.Worker != nil {
		s.Worker.SignalCommit()
	}

	return btx, nil
}

// SignTransaction signs the donation with the ledger's private key.
func (s *State) SignTransaction(tx database.Tx) (database.Tx, error) {
	return tx.Sign(s.signer)
}

// =============================================================================

// submit performs the admission. The caller must hold the lock.
func (s *State) submit(tx database.Tx) (database.BlockTx, error) {
	s.evHandler("state: submit: tx[%s]: check: signature", tx)

	if !tx.VerifySignature(s.verifier) {
		return database.BlockTx{}, fmt.Errorf("transaction %s: %w", tx.TransactionID, database.ErrSignatureInvalid)
	}

	if err := tx.Validate(); err != nil {
		return database.BlockTx{}, err
	}

	if err := s.writable(); err != nil {
		return database.BlockTx{}, err
	}

	if index, exists := s.committed[tx.TransactionID]; exists {
		return database.BlockTx{}, fmt.Errorf("transaction %s in block %d: %w", tx.TransactionID, index, database.ErrAlreadyCommitted)
	}

	if err := s.ensureGenesis(); err != nil {
		return database.BlockTx{}, err
	}

	btx := database.NewBlockTx(tx, time.Now())

	n, err := s.mempool.Upsert(btx)
	if err != nil {
		return database.BlockTx{}, err
	}

	s.evHandler("state: submit: tx[%s]: admitted: pool[%d]", btx, n)

	return btx, nil
}
