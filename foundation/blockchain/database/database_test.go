package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/donorchain/ledger/foundation/blockchain/database"
	"github.com/donorchain/ledger/foundation/blockchain/storage/memory"
	"github.com/shopspring/decimal"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func donation(id string, amount string) database.Tx {
	return database.Tx{
		TransactionID: id,
		FirstName:     "Juan",
		LastName:      "Dela Cruz",
		Email:         "juan@example.com",
		Amount:        decimal.RequireFromString(amount),
		Date:          "2026-01-02",
		PaymentMethod: database.PaymentGCash,
		Status:        database.StatusCompleted,
	}
}

// buildChain writes a genesis block followed by one block per transaction
// and returns the database holding them.
func buildChain(t *testing.T, txs ...database.Tx) (*database.Database, *memory.Memory) {
	t.Helper()

	strg := memory.New()
	db, err := database.New(strg, nil)
	if err != nil {
		t.Fatalf("new database: %v", err)
	}

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	genesis, err := database.Genesis(now)
	if err != nil {
		t.Fatalf("genesis: %v", err)
	}
	if err := db.Write(genesis); err != nil {
		t.Fatalf("write genesis: %v", err)
	}

	prev := genesis
	for i, tx := range txs {
		proof, err := database.POW(context.Background(), database.POWArgs{PrevProof: prev.Proof()})
		if err != nil {
			t.Fatalf("pow: %v", err)
		}

		ts := now.Add(time.Duration(i+1) * time.Minute)
		trans := []database.BlockTx{database.NewBlockTx(tx, ts)}

		block, err := database.NewBlock(prev.Number()+1, ts, trans, proof, prev.Hash())
		if err != nil {
			t.Fatalf("new block: %v", err)
		}
		if err := db.Write(block); err != nil {
			t.Fatalf("write block: %v", err)
		}
		prev = block
	}

	return db, strg
}

// =============================================================================

func TestGuard(t *testing.T) {
	t.Log("Given the need to only ever append to the chain.")
	{
		db, _ := buildChain(t, donation("TX-1", "1000.00"))

		latest, ok := db.LatestBlock()
		if !ok || latest.Index != 2 {
			t.Fatalf("\t%s\tShould have block 2 as the tip: %d", failed, latest.Index)
		}
		t.Logf("\t%s\tShould have block 2 as the tip.", success)

		block, err := database.ToBlock(latest)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to rebuild the tip: %v", failed, err)
		}

		if err := db.Write(block); !errors.Is(err, database.ErrBlockPersistRejected) {
			t.Fatalf("\t%s\tShould reject writing an existing block again: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject writing an existing block again.", success)

		trans := append([]database.BlockTx{}, latest.Transactions...)
		trans[0].Amount = "2000.00"
		changed, err := database.NewBlock(latest.Index, time.Now(), trans, latest.Proof, latest.PreviousHash)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the changed block: %v", failed, err)
		}

		if err := db.Update(changed); !errors.Is(err, database.ErrBlockPersistRejected) {
			t.Fatalf("\t%s\tShould reject updating a persisted block: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject updating a persisted block.", success)

		stored, err := db.GetBlock(2)
		if err != nil || stored.Transactions[0].Amount != "1000.00" || stored.Hash != latest.Hash {
			t.Fatalf("\t%s\tShould leave the stored block untouched: %+v", failed, stored)
		}
		t.Logf("\t%s\tShould leave the stored block untouched.", success)

		unknown, _ := database.NewBlock(9, time.Now(), nil, 1, "x")
		if err := db.Update(unknown); !errors.Is(err, database.ErrNotFound) {
			t.Fatalf("\t%s\tShould report a missing block on update: %v", failed, err)
		}
		t.Logf("\t%s\tShould report a missing block on update.", success)

		gap, _ := database.NewBlock(4, time.Now(), nil, 1, latest.Hash)
		if err := db.Write(gap); !errors.Is(err, database.ErrStaleTip) {
			t.Fatalf("\t%s\tShould reject a block that skips an index: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a block that skips an index.", success)

		fork, _ := database.NewBlock(3, time.Now(), nil, 1, "not-the-tip")
		if err := db.Write(fork); !errors.Is(err, database.ErrStaleTip) {
			t.Fatalf("\t%s\tShould reject a block that does not link to the tip: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a block that does not link to the tip.", success)

		blocks, err := db.Blocks()
		if err != nil || len(blocks) != 2 {
			t.Fatalf("\t%s\tShould still hold two blocks: %d %v", failed, len(blocks), err)
		}
		t.Logf("\t%s\tShould still hold two blocks.", success)
	}
}

func TestReload(t *testing.T) {
	t.Log("Given the need to locate the tip of an existing chain.")
	{
		_, strg := buildChain(t, donation("TX-1", "1.00"), donation("TX-2", "2.00"))

		db, err := database.New(strg, nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the existing chain: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to open the existing chain.", success)

		latest, ok := db.LatestBlock()
		if !ok || latest.Index != 3 {
			t.Fatalf("\t%s\tShould find block 3 as the tip: %d", failed, latest.Index)
		}
		t.Logf("\t%s\tShould find block 3 as the tip.", success)

		empty, err := database.New(memory.New(), nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open an empty chain: %v", failed, err)
		}
		if _, ok := empty.LatestBlock(); ok {
			t.Fatalf("\t%s\tShould report no tip for an empty chain.", failed)
		}
		t.Logf("\t%s\tShould report no tip for an empty chain.", success)
	}
}
