// Package postgres implements the ability to read and write blocks to a
// postgres table. The table is append only: a trigger refuses any update or
// delete of a stored block.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/donorchain/ledger/foundation/blockchain/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS blocks (
	block_index BIGINT PRIMARY KEY,
	hash        TEXT NOT NULL,
	data        JSONB NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE OR REPLACE FUNCTION blocks_append_only() RETURNS trigger AS $$
BEGIN
	RAISE EXCEPTION 'blocks are append only';
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS blocks_append_only ON blocks`,
	`CREATE TRIGGER blocks_append_only BEFORE UPDATE OR DELETE ON blocks
	FOR EACH ROW EXECUTE FUNCTION blocks_append_only()`,
}

// Config represents the settings for connecting to postgres.
type Config struct {
	URL          string
	MaxConns     int32
	QueryTimeout time.Duration
}

// Postgres represents the serialization implementation for reading and
// storing blocks in postgres. This implements the database.Storage interface.
type Postgres struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// New connects to postgres and makes sure the blocks table exists.
func New(ctx context.Context, cfg Config) (*Postgres, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	timeout := cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}

	return &Postgres{pool: pool, timeout: timeout}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}

// Write inserts the block only when it is the next index in the table.
func (p *Postgres) Write(blockData database.BlockData) error {
	if blockData.Index == 0 {
		return fmt.Errorf("block 0: %w", database.ErrStaleTip)
	}

	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	const q = `
INSERT INTO blocks (block_index, hash, data)
SELECT $1::BIGINT, $2, $3
WHERE (SELECT COALESCE(MAX(block_index), 0) FROM blocks) = $1::BIGINT - 1`

	tag, err := p.pool.Exec(ctx, q, int64(blockData.Index), blockData.Hash, data)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("block %d: %w", blockData.Index, database.ErrBlockPersistRejected)
		}
		return fmt.Errorf("insert block %d: %w", blockData.Index, err)
	}

	if tag.RowsAffected() == 1 {
		return nil
	}

	if _, err := p.GetBlock(blockData.Index); err == nil {
		return fmt.Errorf("block %d: %w", blockData.Index, database.ErrBlockPersistRejected)
	}

	return fmt.Errorf("block %d: %w", blockData.Index, database.ErrStaleTip)
}

// GetBlock returns the contents of the specified block by number.
func (p *Postgres) GetBlock(num uint64) (database.BlockData, error) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	var data []byte
	err := p.pool.QueryRow(ctx, `SELECT data FROM blocks WHERE block_index = $1`, int64(num)).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.BlockData{}, fmt.Errorf("block %d: %w", num, database.ErrNotFound)
		}
		return database.BlockData{}, fmt.Errorf("select block %d: %w", num, err)
	}

	var blockData database.BlockData
	if err := json.Unmarshal(data, &blockData); err != nil {
		return database.BlockData{}, fmt.Errorf("decode block %d: %w", num, err)
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (p *Postgres) ForEach() database.Iterator {
	return &postgresIterator{storage: p}
}

// =============================================================================

// postgresIterator represents the iteration implementation for walking
// through the blocks table. This implements the database Iterator interface.
type postgresIterator struct {
	storage *Postgres
	current uint64
	failed  bool
	eoc     bool
}

// Next retrieves the next block from the table.
func (pi *postgresIterator) Next() (database.BlockData, error) {
	if pi.eoc || pi.failed {
		pi.eoc = true
		return database.BlockData{}, fmt.Errorf("end of chain: %w", database.ErrNotFound)
	}

	pi.current++
	blockData, err := pi.storage.GetBlock(pi.current)
	switch {
	case errors.Is(err, database.ErrNotFound):
		pi.eoc = true
	case err != nil:
		pi.failed = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (pi *postgresIterator) Done() bool {
	return pi.eoc
}
