// Package storage selects and opens the block storage backend the ledger
// runs against.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/donorchain/ledger/foundation/blockchain/database"
	"github.com/donorchain/ledger/foundation/blockchain/storage/boltdb"
	"github.com/donorchain/ledger/foundation/blockchain/storage/disk"
	"github.com/donorchain/ledger/foundation/blockchain/storage/memory"
	"github.com/donorchain/ledger/foundation/blockchain/storage/postgres"
)

// Set of supported storage backends.
const (
	KindMemory   = "memory"
	KindDisk     = "disk"
	KindBolt     = "bolt"
	KindPostgres = "postgres"
)

// Config represents the settings for opening a storage backend. Path is
// the directory for disk and the file for bolt.
type Config struct {
	Kind         string
	Path         string
	PostgresURL  string
	MaxConns     int32
	QueryTimeout time.Duration
}

// Open constructs the storage backend named by the config.
func Open(ctx context.Context, cfg Config) (database.Storage, error) {
	switch cfg.Kind {
	case KindMemory:
		return memory.New(), nil

	case KindDisk:
		return disk.New(cfg.Path)

	case KindBolt:
		return boltdb.New(cfg.Path)

	case KindPostgres:
		pgCfg := postgres.Config{
			URL:          cfg.PostgresURL,
			MaxConns:     cfg.MaxConns,
			QueryTimeout: cfg.QueryTimeout,
		}
		return postgres.New(ctx, pgCfg)
	}

	return nil, fmt.Errorf("unknown storage kind %q", cfg.Kind)
}
