// Package ledgergrp maintains the group of handlers for the ledger.
package ledgergrp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/donorchain/ledger/business/web/errs"
	"github.com/donorchain/ledger/foundation/blockchain/database"
	"github.com/donorchain/ledger/foundation/blockchain/state"
	"github.com/donorchain/ledger/foundation/events"
	"github.com/donorchain/ledger/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of ledger endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	id, ch := h.Evts.Acquire()
	defer h.Evts.Release(id)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return nil
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// Chain returns the full chain in index order.
func (h Handlers) Chain(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blocks, err := h.State.RetrieveChain()
	if err != nil {
		return fmt.Errorf("retrieve chain: %w", err)
	}

	if blocks == nil {
		blocks = []database.BlockData{}
	}

	return web.Respond(ctx, w, chainInfo{Blocks: blocks, Length: len(blocks)}, http.StatusOK)
}

// Block returns the block stored at the specified index.
func (h Handlers) Block(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	index, err := strconv.ParseUint(web.Param(r, "index"), 10, 64)
	if err != nil {
		return errs.NewTrusted(errors.New("block index must be a positive number"), http.StatusBadRequest)
	}

	blockData, err := h.State.RetrieveBlock(index)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, blockData, http.StatusOK)
}

// Validate walks the chain and reports its validity. A corrupted chain is
// a diagnostic result, not a request failure.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := h.State.ValidateChain()
	if err != nil && !errors.Is(err, database.ErrChainCorrupted) {
		return fmt.Errorf("validate chain: %w", err)
	}

	return web.Respond(ctx, w, validity{Validity: v, Halted: h.State.Halted()}, http.StatusOK)
}

// Mempool returns the set of admitted but uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pool := h.State.RetrieveMempool()
	if pool == nil {
		pool = []database.BlockTx{}
	}

	return web.Respond(ctx, w, poolInfo{Transactions: pool, Length: len(pool)}, http.StatusOK)
}

// SubmitTransaction admits a signed donation to the pool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.Tx
	if err := web.Decode(r, &tx); err != nil {
		return err
	}

	h.Log.Infow("submit tx", "traceid", v.TraceID, "tx", tx)

	btx, err := h.State.SubmitTransaction(tx)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, submitted{Status: "transaction added to mempool", Transaction: btx}, http.StatusAccepted)
}

// RecordDonation signs a completed donation with the ledger key and commits
// it in its own block.
func (h Handlers) RecordDonation(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var tx database.Tx
	if err := web.Decode(r, &tx); err != nil {
		return err
	}

	h.Log.Infow("record donation", "traceid", v.TraceID, "tx", tx)

	signed, blockData, err := h.State.RecordDonation(ctx, tx)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, recorded{Transaction: signed, Block: blockData}, http.StatusCreated)
}

// CommitBlock commits the pending pool into a new block.
func (h Handlers) CommitBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	blockData, err := h.State.CommitBlock(ctx)
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, blockData, http.StatusCreated)
}

// Transaction returns the recorded snapshot of a committed transaction.
func (h Handlers) Transaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	btx, index, err := h.State.QueryTransaction(web.Param(r, "id"))
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, txInfo{Index: index, Transaction: btx}, http.StatusOK)
}

// Receipt returns the inclusion receipt of a committed transaction.
func (h Handlers) Receipt(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	receipt, err := h.State.Receipt(web.Param(r, "id"))
	if err != nil {
		return errs.FromLedger(err)
	}

	return web.Respond(ctx, w, receipt, http.StatusOK)
}

// VerifyReceipt checks a receipt offline against its merkle root.
func (h Handlers) VerifyReceipt(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var receipt database.Receipt
	if err := web.Decode(r, &receipt); err != nil {
		return err
	}

	ok, err := database.VerifyReceipt(receipt)
	if err != nil {
		return errs.NewTrusted(errors.New("receipt is malformed"), http.StatusBadRequest)
	}

	return web.Respond(ctx, w, verified{Valid: ok}, http.StatusOK)
}
