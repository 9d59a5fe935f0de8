package database

import (
	"errors"
	"fmt"
)

// Set of errors the ledger reports to callers. Callers match these with
// errors.Is since most are wrapped with context on the way out.
var (
	ErrSignatureInvalid     = errors.New("signature invalid")
	ErrChainUninitialized   = errors.New("chain uninitialized")
	ErrBlockPersistRejected = errors.New("block modifications are not allowed")
	ErrBlockCommitFailed    = errors.New("block commit failed")
	ErrChainCorrupted       = errors.New("chain corrupted")
	ErrPOWExhausted         = errors.New("proof of work search exhausted")
	ErrNoTransactions       = errors.New("no transactions in pool")
	ErrAlreadyCommitted     = errors.New("transaction already committed")
	ErrNotFound             = errors.New("not found")
)

// =============================================================================

// Kind identifies which check a block failed during chain validation.
type Kind string

// Set of validation failures.
const (
	KindIndex   Kind = "index"
	KindGenesis Kind = "genesis"
	KindHash    Kind = "hash"
	KindLinkage Kind = "linkage"
	KindProof   Kind = "proof"
	KindStorage Kind = "storage"
)

// CorruptionError identifies the first block that failed validation and
// why. It matches ErrChainCorrupted with errors.Is.
type CorruptionError struct {
	Index  uint64 `json:"index"`
	Kind   Kind   `json:"kind"`
	Detail string `json:"detail"`
}

func corruption(index uint64, kind Kind, format string, args ...any) *CorruptionError {
	return &CorruptionError{
		Index:  index,
		Kind:   kind,
		Detail: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (ce *CorruptionError) Error() string {
	return fmt.Sprintf("chain corrupted at block %d: %s: %s", ce.Index, ce.Kind, ce.Detail)
}

// Is lets errors.Is match a CorruptionError against ErrChainCorrupted.
func (ce *CorruptionError) Is(target error) bool {
	return target == ErrChainCorrupted
}

// GetCorruption returns the CorruptionError in the error chain if one exists.
func GetCorruption(err error) *CorruptionError {
	var ce *CorruptionError
	if !errors.As(err, &ce) {
		return nil
	}
	return ce
}
