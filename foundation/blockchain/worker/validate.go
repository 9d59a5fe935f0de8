package worker

// validateOperations periodically validates the whole chain so a storage
// level modification is noticed without waiting for an operator.
func (w *Worker) validateOperations() {
	w.evHandler("worker: validateOperations: G started")
	defer w.evHandler("worker: validateOperations: G completed")

	for {
		select {
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runValidateOperation()
			}
		case <-w.shut:
			w.evHandler("worker: validateOperations: received shut signal")
			return
		}
	}
}

// runValidateOperation validates the chain and reports the outcome.
func (w *Worker) runValidateOperation() {
	validity, err := w.state.ValidateChain()
	if err != nil {
		w.evHandler("worker: runValidateOperation: ERROR: %s", err)
		return
	}

	w.evHandler("worker: runValidateOperation: blocks[%d]: VALID", validity.Blocks)
}
