package database

import (
	"encoding/hex"
	"fmt"

	"github.com/donorchain/ledger/foundation/blockchain/merkle"
)

// Receipt lets a donor prove their transaction was recorded in a block
// without holding the rest of the chain. The proof hashes are replayed from
// the transaction hash to reach MerkleRoot.
type Receipt struct {
	Index       uint64   `json:"index"`
	BlockHash   string   `json:"block_hash"`
	Transaction BlockTx  `json:"transaction"`
	MerkleRoot  string   `json:"merkle_root"`
	Proof       []string `json:"proof"`
	Order       []int64  `json:"order"`
}

// MerkleRoot returns the hex encoded merkle root over the transactions of
// the block.
func MerkleRoot(blockData BlockData) (string, error) {
	if len(blockData.Transactions) == 0 {
		return "", fmt.Errorf("block %d has no transactions: %w", blockData.Index, ErrNotFound)
	}

	tree, err := merkle.NewTree(blockData.Transactions)
	if err != nil {
		return "", fmt.Errorf("block %d merkle tree: %w", blockData.Index, err)
	}

	return tree.RootHex(), nil
}

// NewReceipt constructs the inclusion receipt for the transaction id in the
// specified block.
func NewReceipt(blockData BlockData, txID string) (Receipt, error) {
	var tx BlockTx
	var found bool
	for _, btx := range blockData.Transactions {
		if btx.TransactionID == txID {
			tx = btx
			found = true
			break
		}
	}

	if !found {
		return Receipt{}, fmt.Errorf("transaction %s in block %d: %w", txID, blockData.Index, ErrNotFound)
	}

	tree, err := merkle.NewTree(blockData.Transactions)
	if err != nil {
		return Receipt{}, fmt.Errorf("block %d merkle tree: %w", blockData.Index, err)
	}

	proof, order, err := tree.Proof(tx)
	if err != nil {
		return Receipt{}, fmt.Errorf("transaction %s proof: %w", txID, err)
	}

	hexProof := make([]string, len(proof))
	for i, p := range proof {
		hexProof[i] = hex.EncodeToString(p)
	}

	receipt := Receipt{
		Index:       blockData.Index,
		BlockHash:   blockData.Hash,
		Transaction: tx,
		MerkleRoot:  tree.RootHex(),
		Proof:       hexProof,
		Order:       order,
	}

	return receipt, nil
}

// VerifyReceipt replays the receipt proof from the transaction it carries
// and reports whether it reaches the receipt's merkle root.
func VerifyReceipt(r Receipt) (bool, error) {
	root, err := hex.DecodeString(r.MerkleRoot)
	if err != nil {
		return false, fmt.Errorf("merkle root: %w", err)
	}

	proof := make([][]byte, len(r.Proof))
	for i, p := range r.Proof {
		if proof[i], err = hex.DecodeString(p); err != nil {
			return false, fmt.Errorf("proof[%d]: %w", i, err)
		}
	}

	leaf, err := r.Transaction.Hash()
	if err != nil {
		return false, err
	}

	return merkle.VerifyProof(leaf, proof, r.Order, root)
}
