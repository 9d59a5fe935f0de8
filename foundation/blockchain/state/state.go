// Package state is the core API for the donation ledger and implements all
// the business rules and processing.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/donorchain/ledger/foundation/blockchain/database"
	"github.com/donorchain/ledger/foundation/blockchain/mempool"
	"github.com/donorchain/ledger/foundation/blockchain/signature"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for background commits and validation.
type Worker interface {
	Shutdown()
	SignalCommit()
}

// RecordUpdater represents the workflow holding the source donation
// records. The ledger moves a record to completed before recording it and
// back to its review status when recording fails.
type RecordUpdater interface {
	UpdateStatus(ctx context.Context, txID string, status database.Status) error
}

// =============================================================================

// Config represents the configuration required to start the ledger.
type Config struct {
	Storage        database.Storage
	Signer         signature.Signer
	Verifier       signature.Verifier
	POWTimeout     time.Duration
	POWMaxAttempts uint64
	Records        RecordUpdater
	EvHandler      EventHandler
}

// State manages the ledger: the pool of admitted donations, the guarded
// database and the keys. Admission, commits and record status changes are
// serialized by mu.
type State struct {
	mu sync.Mutex

	signer         signature.Signer
	verifier       signature.Verifier
	powTimeout     time.Duration
	powMaxAttempts uint64
	records        RecordUpdater
	evHandler      EventHandler

	db         *database.Database
	mempool    *mempool.Mempool
	committed  map[string]uint64
	corruption *database.CorruptionError

	Worker Worker
}

// New constructs the ledger over the configured storage. The chain is
// validated on the way up. A corrupted chain does not stop construction,
// it halts writes until ValidateChain passes.
func New(cfg Config) (*State, error) {
	if cfg.Storage == nil {
		return nil, errors.New("storage is required")
	}

	if cfg.Verifier == nil {
		return nil, errors.New("verifier is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	db, err := database.New(cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	state := State{
		signer:         cfg.Signer,
		verifier:       cfg.Verifier,
		powTimeout:     cfg.POWTimeout,
		powMaxAttempts: cfg.POWMaxAttempts,
		records:        cfg.Records,
		evHandler:      ev,

		db:        db,
		mempool:   mempool.New(),
		committed: make(map[string]uint64),
	}

	state.indexCommitted()

	if _, err := state.ValidateChain(); err != nil {
		ev("state: New: WARNING: %s", err)
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the ledger.

	return &state, nil
}

// Shutdown cleanly brings the ledger down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return s.db.Close()
}

// =============================================================================

// indexCommitted records the id of every transaction already on the chain.
// A read error stops the index at the last readable block, ValidateChain
// halts writes for it.
func (s *State) indexCommitted() {
	iter := s.db.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			s.evHandler("state: indexCommitted: WARNING: %s", err)
			break
		}

		for _, tx := range blockData.Transactions {
			s.committed[tx.TransactionID] = blockData.Index
		}
	}
}

// ensureGenesis writes the genesis block when the chain is empty. The
// caller must hold the lock.
func (s *State) ensureGenesis() error {
	if _, ok := s.db.LatestBlock(); ok {
		return nil
	}

	s.evHandler("state: ensureGenesis: chain is empty, writing genesis")

	genesis, err := database.Genesis(time.Now())
	if err != nil {
		return fmt.Errorf("%w: %w", database.ErrChainUninitialized, err)
	}

	if err := s.db.Write(genesis); err != nil {
		return fmt.Errorf("%w: %w", database.ErrChainUninitialized, err)
	}

	return nil
}

// writable returns the corruption that halted writes, if any. The caller
// must hold the lock.
func (s *State) writable() error {
	if s.corruption != nil {
		return fmt.Errorf("writes halted: %w", s.corruption)
	}

	return nil
}
