package worker

import (
	"context"
	"errors"

	"github.com/donorchain/ledger/foundation/blockchain/database"
)

// commitOperations handles commits signaled by new admissions.
func (w *Worker) commitOperations() {
	w.evHandler("worker: commitOperations: G started")
	defer w.evHandler("worker: commitOperations: G completed")

	for {
		select {
		case <-w.startCommit:
			if !w.isShutdown() {
				w.runCommitOperation()
			}
		case <-w.shut:
			w.evHandler("worker: commitOperations: received shut signal")
			return
		}
	}
}

// runCommitOperation commits whatever is pending in the pool. A shutdown
// cancels the proof of work search and the pool is left intact.
func (w *Worker) runCommitOperation() {
	w.evHandler("worker: runCommitOperation: started")
	defer w.evHandler("worker: runCommitOperation: completed")

	if w.state.Halted() {
		w.evHandler("worker: runCommitOperation: writes halted")
		return
	}

	if length := w.state.QueryMempoolLength(); length == 0 {
		w.evHandler("worker: runCommitOperation: no transactions to commit")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case <-w.shut:
			cancel()
		case <-ctx.Done():
		}
	}()

	blockData, err := w.state.CommitBlock(ctx)
	switch {
	case errors.Is(err, database.ErrNoTransactions):
		return
	case err != nil:
		w.evHandler("worker: runCommitOperation: ERROR: %s", err)
		return
	}

	w.evHandler("worker: runCommitOperation: blk[%d]: transactions[%d]", blockData.Index, len(blockData.Transactions))
}
