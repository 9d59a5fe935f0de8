package disk_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/donorchain/ledger/foundation/blockchain/database"
	"github.com/donorchain/ledger/foundation/blockchain/storage/disk"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestMissingBlock(t *testing.T) {
	t.Log("Given the need to detect a block file removed from the middle of the chain.")
	{
		dir := t.TempDir()

		d, err := disk.New(dir)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to open the storage: %v", failed, err)
		}

		for i := uint64(1); i <= 3; i++ {
			if err := d.Write(database.BlockData{Index: i, PreviousHash: "prev", Hash: "hash"}); err != nil {
				t.Fatalf("\t%s\tShould be able to write block %d: %v", failed, i, err)
			}
		}

		if err := os.Remove(filepath.Join(dir, "2.json")); err != nil {
			t.Fatalf("\t%s\tShould be able to remove block 2: %v", failed, err)
		}

		if _, err := d.GetBlock(2); !errors.Is(err, disk.ErrMissingBlock) {
			t.Fatalf("\t%s\tShould report block 2 as missing: %v", failed, err)
		}
		t.Logf("\t%s\tShould report block 2 as missing.", success)

		if _, err := d.GetBlock(4); !errors.Is(err, database.ErrNotFound) {
			t.Fatalf("\t%s\tShould report block 4 as not found: %v", failed, err)
		}
		t.Logf("\t%s\tShould report block 4 as not found.", success)

		var readErr error
		var indexes []uint64
		iter := d.ForEach()
		for blk, err := iter.Next(); !iter.Done(); blk, err = iter.Next() {
			if err != nil {
				readErr = err
				continue
			}
			indexes = append(indexes, blk.Index)
		}

		if !errors.Is(readErr, disk.ErrMissingBlock) || len(indexes) != 1 {
			t.Fatalf("\t%s\tShould fail iteration at the gap: %v %v", failed, indexes, readErr)
		}
		t.Logf("\t%s\tShould fail iteration at the gap.", success)

		if err := d.Write(database.BlockData{Index: 2, PreviousHash: "prev", Hash: "hash"}); !errors.Is(err, database.ErrBlockPersistRejected) {
			t.Fatalf("\t%s\tShould refuse to fill the gap: %v", failed, err)
		}
		t.Logf("\t%s\tShould refuse to fill the gap.", success)
	}
}
