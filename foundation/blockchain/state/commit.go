package state

import (
	"context"
	"fmt"
	"time"

	"github.com/donorchain/ledger/foundation/blockchain/database"
)

// CommitBlock assembles every pending donation into a new block, solves the
// proof of work against the tip and persists it. The pool is only drained
// after the block is persisted.
func (s *State) CommitBlock(ctx context.Context) (database.BlockData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return database.BlockData{}, err
	}

	return s.commit(ctx)
}

// RecordDonation takes a donation through the whole recording flow: the
// source record is marked completed, the donation is signed, admitted and
// committed. Any failure moves the source record back to its review
// status and withdraws the donation from the pool.
func (s *State) RecordDonation(ctx context.Context, tx database.Tx) (database.Tx, database.BlockData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.writable(); err != nil {
		return database.Tx{}, database.BlockData{}, err
	}

	// A donation already on the chain keeps its completed record.
	if index, exists := s.committed[tx.TransactionID]; exists {
		return database.Tx{}, database.BlockData{}, fmt.Errorf("transaction %s in block %d: %w", tx.TransactionID, index, database.ErrAlreadyCommitted)
	}

	tx.Status = database.StatusCompleted
	if err := s.updateStatus(ctx, tx.TransactionID, database.StatusCompleted); err != nil {
		return database.Tx{}, database.BlockData{}, err
	}

	signed, blockData, err := s.record(ctx, tx)
	if err != nil {
		status := tx.ReviewStatus()
		s.evHandler("state: RecordDonation: tx[%s]: FAILED: reverting to %s: %s", tx, status, err)

		// The record goes back to review so its entry must not be
		// committed by a later block.
		s.mempool.Delete(tx.TransactionID)

		if uerr := s.updateStatus(ctx, tx.TransactionID, status); uerr != nil {
			s.evHandler("state: RecordDonation: tx[%s]: ERROR: revert status: %s", tx, uerr)
		}

		return database.Tx{}, database.BlockData{}, err
	}

	signed.Status = database.StatusCompleted

	return signed, blockData, nil
}

// =============================================================================

// record signs, admits and commits. The caller must hold the lock.
func (s *State) record(ctx context.Context, tx database.Tx) (database.Tx, database.BlockData, error) {
	signed, err := tx.Sign(s.signer)
	if err != nil {
		return database.Tx{}, database.BlockData{}, err
	}

	if _, err := s.submit(signed); err != nil {
		return database.Tx{}, database.BlockData{}, err
	}

	blockData, err := s.commit(ctx)
	if err != nil {
		return database.Tx{}, database.BlockData{}, err
	}

	return signed, blockData, nil
}

// commit performs the block assembly. The caller must hold the lock.
func (s *State) commit(ctx context.Context) (database.BlockData, error) {
	s.evHandler("state: commit: started")
	defer s.evHandler("state: commit: completed")

	if err := s.ensureGenesis(); err != nil {
		return database.BlockData{}, err
	}

	trans := s.mempool.Copy()
	if len(trans) == 0 {
		return database.BlockData{}, database.ErrNoTransactions
	}

	tip, _ := s.db.LatestBlock()

	s.evHandler("state: commit: tip[%d]: pool[%d]: perform POW", tip.Index, len(trans))

	if s.powTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.powTimeout)
		defer cancel()
	}

	args := database.POWArgs{
		PrevProof:   tip.Proof,
		MaxAttempts: s.powMaxAttempts,
		EvHandler:   s.evHandler,
	}

	proof, err := database.POW(ctx, args)
	if err != nil {
		return database.BlockData{}, fmt.Errorf("%w: %w", database.ErrBlockCommitFailed, err)
	}

	if !database.IsProofValid(proof, tip.Proof) {
		return database.BlockData{}, fmt.Errorf("%w: proof %d does not solve %d", database.ErrBlockCommitFailed, proof, tip.Proof)
	}

	block, err := database.NewBlock(tip.Index+1, time.Now(), trans, proof, tip.Hash)
	if err != nil {
		return database.BlockData{}, fmt.Errorf("%w: %w", database.ErrBlockCommitFailed, err)
	}

	s.evHandler("state: commit: blk[%d]: write to storage", block.Number())

	if err := s.db.Write(block); err != nil {
		return database.BlockData{}, fmt.Errorf("%w: %w", database.ErrBlockCommitFailed, err)
	}

	s.evHandler("state: commit: blk[%d]: remove from mempool", block.Number())

	ids := make([]string, len(trans))
	for i, tx := range trans {
		ids[i] = tx.TransactionID
		s.committed[tx.TransactionID] = block.Number()
	}
	s.mempool.Delete(ids...)

	s.evHandler("viewer: block[%d]: hash[%s]: transactions[%d]", block.Number(), block.Hash(), len(trans))

	return database.NewBlockData(block), nil
}

// updateStatus forwards a status change to the record workflow when one is
// configured.
func (s *State) updateStatus(ctx context.Context, txID string, status database.Status) error {
	if s.records == nil {
		return nil
	}

	if err := s.records.UpdateStatus(ctx, txID, status); err != nil {
		return fmt.Errorf("update status %s to %s: %w", txID, status, err)
	}

	return nil
}
