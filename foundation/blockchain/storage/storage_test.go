package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/donorchain/ledger/foundation/blockchain/database"
	"github.com/donorchain/ledger/foundation/blockchain/storage"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func blockData(index uint64) database.BlockData {
	return database.BlockData{
		Index:     index,
		TimeStamp: "2026-01-02T03:04:05.000000Z",
		Transactions: []database.BlockTx{
			{
				Amount:        "100.00",
				Date:          "2026-01-02",
				Donor:         "Juan Dela Cruz",
				Email:         "juan@example.com",
				PaymentMethod: "gcash",
				Status:        "completed",
				TimeStamp:     "2026-01-02T03:04:05.000000Z",
				TransactionID: "GCASH-0000000" + string(rune('0'+index)),
			},
		},
		Proof:        int64(index),
		PreviousHash: "prev",
		Hash:         "hash",
	}
}

func backends(t *testing.T) []storage.Config {
	dir := t.TempDir()

	cfgs := []storage.Config{
		{Kind: storage.KindMemory},
		{Kind: storage.KindDisk, Path: filepath.Join(dir, "blocks")},
		{Kind: storage.KindBolt, Path: filepath.Join(dir, "ledger.db")},
	}

	return cfgs
}

// =============================================================================

func TestAppendOnly(t *testing.T) {
	t.Log("Given the need for every backend to be append only.")
	{
		for testID, cfg := range backends(t) {
			f := func(t *testing.T) {
				strg, err := storage.Open(context.Background(), cfg)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to open the storage: %v", failed, testID, err)
				}
				defer strg.Close()
				t.Logf("\t%s\tTest %d:\tShould be able to open the storage.", success, testID)

				if _, err := strg.GetBlock(1); !errors.Is(err, database.ErrNotFound) {
					t.Fatalf("\t%s\tTest %d:\tShould get ErrNotFound on an empty chain: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould get ErrNotFound on an empty chain.", success, testID)

				if err := strg.Write(blockData(2)); !errors.Is(err, database.ErrStaleTip) {
					t.Fatalf("\t%s\tTest %d:\tShould refuse a block out of order: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould refuse a block out of order.", success, testID)

				for i := uint64(1); i <= 3; i++ {
					if err := strg.Write(blockData(i)); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to write block %d: %v", failed, testID, i, err)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould be able to write blocks in order.", success, testID)

				replace := blockData(2)
				replace.Transactions[0].Amount = "999.00"
				if err := strg.Write(replace); !errors.Is(err, database.ErrBlockPersistRejected) {
					t.Fatalf("\t%s\tTest %d:\tShould refuse to replace an existing block: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould refuse to replace an existing block.", success, testID)

				got, err := strg.GetBlock(2)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to read block 2: %v", failed, testID, err)
				}
				if got.Transactions[0].Amount != "100.00" {
					t.Fatalf("\t%s\tTest %d:\tShould keep the original block: got %s", failed, testID, got.Transactions[0].Amount)
				}
				t.Logf("\t%s\tTest %d:\tShould keep the original block.", success, testID)

				var indexes []uint64
				iter := strg.ForEach()
				for blk, err := iter.Next(); !iter.Done(); blk, err = iter.Next() {
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to iterate: %v", failed, testID, err)
					}
					indexes = append(indexes, blk.Index)
				}

				if len(indexes) != 3 || indexes[0] != 1 || indexes[2] != 3 {
					t.Fatalf("\t%s\tTest %d:\tShould iterate blocks in order: got %v", failed, testID, indexes)
				}
				t.Logf("\t%s\tTest %d:\tShould iterate blocks in order.", success, testID)
			}

			t.Run(cfg.Kind, f)
		}
	}
}

func TestReopen(t *testing.T) {
	dir := t.TempDir()

	cfgs := []storage.Config{
		{Kind: storage.KindDisk, Path: filepath.Join(dir, "blocks")},
		{Kind: storage.KindBolt, Path: filepath.Join(dir, "ledger.db")},
	}

	t.Log("Given the need for persistent backends to survive a restart.")
	{
		for testID, cfg := range cfgs {
			f := func(t *testing.T) {
				strg, err := storage.Open(context.Background(), cfg)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to open the storage: %v", failed, testID, err)
				}

				if err := strg.Write(blockData(1)); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to write a block: %v", failed, testID, err)
				}
				strg.Close()

				strg, err = storage.Open(context.Background(), cfg)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to reopen the storage: %v", failed, testID, err)
				}
				defer strg.Close()

				got, err := strg.GetBlock(1)
				if err != nil || got.Transactions[0].Donor != "Juan Dela Cruz" {
					t.Fatalf("\t%s\tTest %d:\tShould read the block back after reopen: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould read the block back after reopen.", success, testID)
			}

			t.Run(cfg.Kind, f)
		}
	}
}

func TestUnknownKind(t *testing.T) {
	t.Log("Given the need to reject an unknown backend.")
	{
		if _, err := storage.Open(context.Background(), storage.Config{Kind: "tape"}); err == nil {
			t.Fatalf("\t%s\tShould get an error for an unknown kind.", failed)
		}
		t.Logf("\t%s\tShould get an error for an unknown kind.", success)
	}
}
