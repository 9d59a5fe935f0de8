// Package worker implements the background commit and chain validation
// operations for the ledger.
package worker

import (
	"sync"
	"time"

	"github.com/donorchain/ledger/foundation/blockchain/state"
)

// Config represents the settings for the background operations. A zero
// ValidateInterval turns periodic validation off.
type Config struct {
	AutoCommit       bool
	ValidateInterval time.Duration
}

// Worker manages the background workflows for the ledger.
type Worker struct {
	state       *state.State
	wg          sync.WaitGroup
	ticker      *time.Ticker
	shut        chan struct{}
	startCommit chan bool
	autoCommit  bool
	evHandler   state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler, cfg Config) *Worker {
	ev := evHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	w := Worker{
		state:       st,
		shut:        make(chan struct{}),
		startCommit: make(chan bool, 1),
		autoCommit:  cfg.AutoCommit,
		evHandler:   ev,
	}

	operations := []func(){
		w.commitOperations,
	}

	if cfg.ValidateInterval > 0 {
		w.ticker = time.NewTicker(cfg.ValidateInterval)
		operations = append(operations, w.validateOperations)
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for range g {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	if w.ticker != nil {
		w.evHandler("worker: shutdown: stop ticker")
		w.ticker.Stop()
	}

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalCommit starts a commit operation. If there is already a signal
// pending in the channel, just return since a commit operation will start.
func (w *Worker) SignalCommit() {
	if !w.autoCommit {
		return
	}

	select {
	case w.startCommit <- true:
	default:
	}
	w.evHandler("worker: SignalCommit: commit signaled")
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
