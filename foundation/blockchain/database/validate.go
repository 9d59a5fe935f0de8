package database

import (
	"errors"

	"github.com/donorchain/ledger/foundation/blockchain/signature"
)

// ValidateChain walks every block from the iterator in index order and
// checks index contiguity, the stored hash, the genesis shape, the linkage
// to the previous block and the proof of work. It returns the number of
// blocks checked. The first failure is returned as a *CorruptionError.
func ValidateChain(iter Iterator, evHandler func(v string, args ...any)) (uint64, error) {
	ev := evHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	var count uint64
	var prev *BlockData

	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return count, corruption(count+1, KindStorage, "reading block: %s", err)
		}

		if err := ValidateBlock(prev, blockData, ev); err != nil {
			return count, err
		}

		count++
		blk := blockData
		prev = &blk
	}

	ev("database: ValidateChain: blocks[%d]: VALID", count)

	return count, nil
}

// ValidateBlock checks a single block against the block before it. A nil
// previous block means the block must be the genesis block.
func ValidateBlock(prev *BlockData, curr BlockData, evHandler func(v string, args ...any)) error {
	ev := evHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	var expIndex uint64 = 1
	if prev != nil {
		expIndex = prev.Index + 1
	}

	ev("database: ValidateBlock: blk[%d]: check: block index is the next index", curr.Index)

	if curr.Index != expIndex {
		return corruption(curr.Index, KindIndex, "got index %d, exp %d", curr.Index, expIndex)
	}

	ev("database: ValidateBlock: blk[%d]: check: stored hash matches block contents", curr.Index)

	block, err := ToBlock(curr)
	if err != nil {
		return corruption(curr.Index, KindHash, "rebuilding block: %s", err)
	}

	if block.Hash() != curr.Hash {
		return corruption(curr.Index, KindHash, "stored %s, computed %s", curr.Hash, block.Hash())
	}

	if prev == nil {
		ev("database: ValidateBlock: blk[%d]: check: genesis block has no parent", curr.Index)

		if curr.PreviousHash != signature.ZeroHash {
			return corruption(curr.Index, KindGenesis, "genesis previous hash is %q", curr.PreviousHash)
		}

		return nil
	}

	ev("database: ValidateBlock: blk[%d]: check: parent hash does match parent block", curr.Index)

	if curr.PreviousHash != prev.Hash {
		return corruption(curr.Index, KindLinkage, "got previous hash %s, exp %s", curr.PreviousHash, prev.Hash)
	}

	ev("database: ValidateBlock: blk[%d]: check: proof of work is solved", curr.Index)

	if !IsProofValid(curr.Proof, prev.Proof) {
		return corruption(curr.Index, KindProof, "proof %d does not solve previous proof %d: %s", curr.Proof, prev.Proof, ProofHash(curr.Proof, prev.Proof))
	}

	return nil
}

// IsCorrupted reports whether the error came from chain validation.
func IsCorrupted(err error) bool {
	return errors.Is(err, ErrChainCorrupted)
}
