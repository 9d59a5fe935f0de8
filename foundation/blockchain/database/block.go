package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/donorchain/ledger/foundation/blockchain/signature"
)

// TimeFormat is the fixed layout used for every timestamp that takes part
// in hashing. Timestamps are kept in UTC with microsecond precision.
const TimeFormat = "2006-01-02T15:04:05.000000Z07:00"

// FormatTime renders the time in the canonical timestamp layout.
func FormatTime(t time.Time) string {
	return t.UTC().Truncate(time.Microsecond).Format(TimeFormat)
}

// ParseTime parses a timestamp rendered with FormatTime.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeFormat, s)
}

// =============================================================================

// Block represents a group of transactions batched together. The fields are
// unexported so the hash computed at construction can never drift from the
// contents it was computed over.
type Block struct {
	number        uint64
	timeStamp     time.Time
	trans         []BlockTx
	proof         int64
	prevBlockHash string
	hash          string
}

// NewBlock constructs a block and fixes its hash from the other fields.
func NewBlock(number uint64, timeStamp time.Time, trans []BlockTx, proof int64, prevBlockHash string) (Block, error) {
	if number == 0 {
		return Block{}, fmt.Errorf("block number must start at 1")
	}

	b := Block{
		number:        number,
		timeStamp:     timeStamp.UTC().Truncate(time.Microsecond),
		trans:         append([]BlockTx{}, trans...),
		proof:         proof,
		prevBlockHash: prevBlockHash,
	}

	hash, err := ComputeHash(b.number, b.timeStamp, b.trans, b.proof, b.prevBlockHash)
	if err != nil {
		return Block{}, err
	}
	b.hash = hash

	return b, nil
}

// Genesis constructs the first block of the chain.
func Genesis(timeStamp time.Time) (Block, error) {
	return NewBlock(1, timeStamp, nil, 1, signature.ZeroHash)
}

// Number returns the block's index in the chain.
func (b Block) Number() uint64 {
	return b.number
}

// TimeStamp returns the time the block was created.
func (b Block) TimeStamp() time.Time {
	return b.timeStamp
}

// Transactions returns a copy of the transactions in the block.
func (b Block) Transactions() []BlockTx {
	return append([]BlockTx{}, b.trans...)
}

// Proof returns the proof of work nonce for the block.
func (b Block) Proof() int64 {
	return b.proof
}

// PrevBlockHash returns the hash of the previous block in the chain.
func (b Block) PrevBlockHash() string {
	return b.prevBlockHash
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	return b.hash
}

// =============================================================================

// hashData is the canonical form of a block used for hashing. Fields are
// declared in json key order.
type hashData struct {
	Index        uint64    `json:"index"`
	PreviousHash string    `json:"previous_hash"`
	Proof        int64     `json:"proof"`
	TimeStamp    string    `json:"timestamp"`
	Transactions []BlockTx `json:"transactions"`
}

// ComputeHash returns the hex encoded sha256 digest of the canonical form of
// the block fields.
func ComputeHash(number uint64, timeStamp time.Time, trans []BlockTx, proof int64, prevBlockHash string) (string, error) {
	if trans == nil {
		trans = []BlockTx{}
	}

	hd := hashData{
		Index:        number,
		PreviousHash: prevBlockHash,
		Proof:        proof,
		TimeStamp:    FormatTime(timeStamp),
		Transactions: trans,
	}

	data, err := json.Marshal(hd)
	if err != nil {
		return "", fmt.Errorf("marshal block %d: %w", number, err)
	}

	return signature.HashBytes(data), nil
}

// =============================================================================

// BlockData represents what is written to storage and returned to callers
// that display or export the chain. Hash is the value that was stored, it
// is checked against the other fields during validation.
type BlockData struct {
	Index        uint64    `json:"index"`
	TimeStamp    string    `json:"timestamp"`
	Transactions []BlockTx `json:"transactions"`
	Proof        int64     `json:"proof"`
	PreviousHash string    `json:"previous_hash"`
	Hash         string    `json:"hash"`
}

// NewBlockData constructs the value to serialize to storage.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Index:        block.number,
		TimeStamp:    FormatTime(block.timeStamp),
		Transactions: block.Transactions(),
		Proof:        block.proof,
		PreviousHash: block.prevBlockHash,
		Hash:         block.hash,
	}
}

// ToBlock converts the stored form back into a Block. The hash of the
// returned block is recomputed, it is not taken from the stored value.
func ToBlock(blockData BlockData) (Block, error) {
	timeStamp, err := ParseTime(blockData.TimeStamp)
	if err != nil {
		return Block{}, fmt.Errorf("block %d timestamp: %w", blockData.Index, err)
	}

	return NewBlock(blockData.Index, timeStamp, blockData.Transactions, blockData.Proof, blockData.PreviousHash)
}
