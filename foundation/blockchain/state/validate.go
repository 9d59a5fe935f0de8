package state

import (
	"github.com/donorchain/ledger/foundation/blockchain/database"
)

// Validity reports the outcome of a chain validation.
type Validity struct {
	Valid      bool                      `json:"valid"`
	Blocks     uint64                    `json:"blocks"`
	Corruption *database.CorruptionError `json:"corruption,omitempty"`
}

// ValidateChain walks the whole chain and checks every block. A corrupted
// chain halts admission and commits, a later passing validation lifts the
// halt. The returned error matches database.ErrChainCorrupted.
func (s *State) ValidateChain() (Validity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := database.ValidateChain(s.db.ForEach(), s.evHandler)
	if err != nil {
		ce := database.GetCorruption(err)
		if ce == nil {
			return Validity{Blocks: n}, err
		}

		s.corruption = ce
		s.evHandler("viewer: chain corrupted: blk[%d]: %s: writes halted", ce.Index, ce.Kind)

		return Validity{Blocks: n, Corruption: ce}, err
	}

	if s.corruption != nil {
		s.evHandler("viewer: chain valid: writes resumed")
	}
	s.corruption = nil

	return Validity{Valid: true, Blocks: n}, nil
}

// Halted reports whether writes are halted by a detected corruption.
func (s *State) Halted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.corruption != nil
}
