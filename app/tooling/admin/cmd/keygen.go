package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/donorchain/ledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var keyDir string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new signing key pair",
	RunE:  keygenRun,
}

func init() {
	keygenCmd.Flags().StringVarP(&keyDir, "dir", "d", "zblock/keys", "Directory to write the key pair to.")
	rootCmd.AddCommand(keygenCmd)
}

func keygenRun(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(keyDir, 0755); err != nil {
		return err
	}

	var privPath, pubPath string
	switch scheme {
	case signature.SchemeRSA:
		privPath = filepath.Join(keyDir, "private.pem")
		pubPath = filepath.Join(keyDir, "public.pem")

		key, err := signature.GenerateRSAKey()
		if err != nil {
			return err
		}

		if err := signature.SaveRSAKeyPair(privPath, pubPath, key); err != nil {
			return err
		}

	case signature.SchemeSecp256k1:
		privPath = filepath.Join(keyDir, "private.ecdsa")
		pubPath = filepath.Join(keyDir, "public.ecdsa")

		key, err := crypto.GenerateKey()
		if err != nil {
			return err
		}

		if err := signature.SaveECDSAKeyPair(privPath, pubPath, key); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown signature scheme %q", scheme)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "private key: %s\npublic key:  %s\n", privPath, pubPath)

	return nil
}
