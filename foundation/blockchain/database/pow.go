package database

import (
	"context"
	"math/big"
	"strings"

	"github.com/donorchain/ledger/foundation/blockchain/signature"
)

// Difficulty is the number of leading hex zeros a proof hash must have.
const Difficulty = 4

// POWArgs represents the set of arguments required to run POW.
type POWArgs struct {
	PrevProof   int64
	MaxAttempts uint64
	EvHandler   func(v string, args ...any)
}

// POW searches for the smallest positive proof that solves the puzzle
// against the previous proof. The search stops when the context is done or
// MaxAttempts candidates have been tried. A zero MaxAttempts leaves the
// search bounded only by the context.
func POW(ctx context.Context, args POWArgs) (int64, error) {
	ev := args.EvHandler
	if ev == nil {
		ev = func(string, ...any) {}
	}

	ev("database: POW: MINING: started: prevProof[%d]", args.PrevProof)
	defer ev("database: POW: MINING: completed")

	var attempts uint64
	for proof := int64(1); ; proof++ {
		attempts++
		if attempts%100_000 == 0 {
			ev("database: POW: MINING: attempts[%d]", attempts)
		}

		// Did we timeout trying to solve the problem.
		if ctx.Err() != nil {
			ev("database: POW: MINING: CANCELLED")
			return 0, ctx.Err()
		}

		if args.MaxAttempts > 0 && attempts > args.MaxAttempts {
			ev("database: POW: MINING: EXHAUSTED: attempts[%d]", args.MaxAttempts)
			return 0, ErrPOWExhausted
		}

		if !IsProofValid(proof, args.PrevProof) {
			continue
		}

		ev("database: POW: MINING: SOLVED: proof[%d]: attempts[%d]", proof, attempts)

		return proof, nil
	}
}

// IsProofValid checks the proof complies with the POW rules against the
// previous proof.
func IsProofValid(proof int64, prevProof int64) bool {
	const match = "0000000000000000"

	return strings.HasPrefix(ProofHash(proof, prevProof), match[:Difficulty])
}

// ProofHash returns the hash of the decimal form of proof² - prevProof².
// Arbitrary precision is used so stored values can never overflow.
func ProofHash(proof int64, prevProof int64) string {
	p := big.NewInt(proof)
	p.Mul(p, p)

	pp := big.NewInt(prevProof)
	pp.Mul(pp, pp)

	return signature.HashBytes([]byte(p.Sub(p, pp).String()))
}
