// Package cmd contains the admin commands for operating the ledger.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/donorchain/ledger/foundation/blockchain/signature"
	"github.com/donorchain/ledger/foundation/blockchain/state"
	"github.com/donorchain/ledger/foundation/blockchain/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	storageKind string
	storagePath string
	postgresURL string
	scheme      string
	privateKey  string
	publicKey   string
)

// log is set by Execute before any command runs.
var log = zap.NewNop().Sugar()

func init() {
	rootCmd.PersistentFlags().StringVar(&storageKind, "storage", storage.KindDisk, "Storage backend: memory, disk, bolt or postgres.")
	rootCmd.PersistentFlags().StringVar(&storagePath, "storage-path", "zblock/blocks", "Directory for disk storage or file for bolt storage.")
	rootCmd.PersistentFlags().StringVar(&postgresURL, "postgres-url", os.Getenv("LEDGER_STORAGE_POSTGRESURL"), "Connection url for postgres storage.")
	rootCmd.PersistentFlags().StringVarP(&scheme, "scheme", "s", signature.SchemeRSA, "Signature scheme: rsa or secp256k1.")
	rootCmd.PersistentFlags().StringVar(&privateKey, "private-key", "", "Path to the private key.")
	rootCmd.PersistentFlags().StringVar(&publicKey, "public-key", "zblock/keys/public.pem", "Path to the public key.")
}

var rootCmd = &cobra.Command{
	Use:           "admin",
	Short:         "Donation ledger administration",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command named on the command line.
func Execute(build string, l *zap.SugaredLogger) error {
	log = l
	rootCmd.Version = build
	return rootCmd.ExecuteContext(context.Background())
}

// =============================================================================

// openState constructs a ledger over the configured storage and keys. The
// caller must call Shutdown on the returned state.
func openState(ctx context.Context) (*state.State, error) {
	signer, verifier, err := signature.Load(scheme, privateKey, publicKey)
	if err != nil {
		return nil, fmt.Errorf("load keys: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	strg, err := storage.Open(ctx, storage.Config{
		Kind:         storageKind,
		Path:         storagePath,
		PostgresURL:  postgresURL,
		MaxConns:     2,
		QueryTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	ev := func(v string, args ...any) {
		log.Debugw(fmt.Sprintf(v, args...))
	}

	st, err := state.New(state.Config{
		Storage:   strg,
		Signer:    signer,
		Verifier:  verifier,
		EvHandler: ev,
	})
	if err != nil {
		strg.Close()
		return nil, err
	}

	return st, nil
}

// printJSON writes the value as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// readJSON decodes the JSON file into the value.
func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}
