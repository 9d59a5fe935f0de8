package cmd

import (
	"context"
	"fmt"

	"github.com/donorchain/ledger/foundation/blockchain/database"
	"github.com/donorchain/ledger/foundation/blockchain/state"
)

// recordLookup serves audit lookups from an exported set of source records.
func recordLookup(records []database.Tx) state.RecordLookup {
	byID := make(map[string]database.Tx, len(records))
	for _, rec := range records {
		byID[rec.TransactionID] = rec
	}

	return func(ctx context.Context, txID string) (database.Tx, error) {
		rec, exists := byID[txID]
		if !exists {
			return database.Tx{}, fmt.Errorf("record %s: %w", txID, database.ErrNotFound)
		}
		return rec, nil
	}
}
