package worker_test

import (
	"testing"
	"time"

	"github.com/donorchain/ledger/foundation/blockchain/database"
	"github.com/donorchain/ledger/foundation/blockchain/signature"
	"github.com/donorchain/ledger/foundation/blockchain/state"
	"github.com/donorchain/ledger/foundation/blockchain/storage/memory"
	"github.com/donorchain/ledger/foundation/blockchain/worker"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func newState(t *testing.T, strg database.Storage) *state.State {
	t.Helper()

	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		t.Fatalf("load key: %v", err)
	}

	signer, err := signature.NewECDSASigner(pk)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	st, err := state.New(state.Config{
		Storage:  strg,
		Signer:   signer,
		Verifier: signer.Verifier(),
	})
	if err != nil {
		t.Fatalf("new state: %v", err)
	}

	return st
}

// eventually polls the condition until it holds or the wait is over.
func eventually(wait time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(wait)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

// =============================================================================

func TestAutoCommit(t *testing.T) {
	t.Log("Given the need to commit admitted donations in the background.")
	{
		st := newState(t, memory.New())
		worker.Run(st, nil, worker.Config{AutoCommit: true})
		defer st.Shutdown()

		tx, err := st.SignTransaction(database.Tx{
			TransactionID: "GCASH-0000aaaa",
			FirstName:     "Ana",
			LastName:      "Reyes",
			Email:         "ana@example.com",
			Amount:        decimal.RequireFromString("300.00"),
			Date:          "2026-01-02",
			PaymentMethod: database.PaymentGCash,
			Status:        database.StatusCompleted,
		})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the donation: %v", failed, err)
		}

		if _, err := st.SubmitTransaction(tx); err != nil {
			t.Fatalf("\t%s\tShould be able to submit the donation: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to submit the donation.", success)

		committed := eventually(30*time.Second, func() bool {
			_, _, err := st.QueryTransaction("GCASH-0000aaaa")
			return err == nil
		})
		if !committed {
			t.Fatalf("\t%s\tShould commit the donation without an explicit call.", failed)
		}
		t.Logf("\t%s\tShould commit the donation without an explicit call.", success)
	}
}

func TestPeriodicValidation(t *testing.T) {
	t.Log("Given the need to notice a modified chain in the background.")
	{
		strg := memory.New()
		st := newState(t, strg)
		worker.Run(st, nil, worker.Config{ValidateInterval: 20 * time.Millisecond})
		defer st.Shutdown()

		genesis, err := database.Genesis(time.Now())
		if err != nil {
			t.Fatalf("\t%s\tShould be able to build a genesis block: %v", failed, err)
		}

		// Written behind the ledger's back with a hash that does not match.
		blockData := database.NewBlockData(genesis)
		blockData.Hash = "f00d"
		if err := strg.Write(blockData); err != nil {
			t.Fatalf("\t%s\tShould be able to write to storage: %v", failed, err)
		}

		if !eventually(5*time.Second, st.Halted) {
			t.Fatalf("\t%s\tShould halt writes after the next validation.", failed)
		}
		t.Logf("\t%s\tShould halt writes after the next validation.", success)
	}
}
