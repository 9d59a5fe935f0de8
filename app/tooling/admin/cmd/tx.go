package cmd

import (
	"fmt"

	"github.com/donorchain/ledger/foundation/blockchain/database"
	"github.com/donorchain/ledger/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

var txFile string

var txidCmd = &cobra.Command{
	Use:   "txid",
	Short: "Generate a new transaction id",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), database.NewTransactionID())
	},
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Sign a donation record with the private key",
	RunE:  signRun,
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify the signature of a donation record with the public key",
	RunE:  verifyRun,
}

func init() {
	signCmd.Flags().StringVarP(&txFile, "tx", "t", "", "Path to the donation record JSON file.")
	signCmd.MarkFlagRequired("tx")
	verifyCmd.Flags().StringVarP(&txFile, "tx", "t", "", "Path to the signed donation record JSON file.")
	verifyCmd.MarkFlagRequired("tx")

	rootCmd.AddCommand(txidCmd)
	rootCmd.AddCommand(signCmd)
	rootCmd.AddCommand(verifyCmd)
}

func signRun(cmd *cobra.Command, args []string) error {
	var tx database.Tx
	if err := readJSON(txFile, &tx); err != nil {
		return err
	}

	if err := tx.Validate(); err != nil {
		return err
	}

	signer, _, err := signature.Load(scheme, privateKey, "")
	if err != nil {
		return fmt.Errorf("load keys: %w", err)
	}

	signed, err := tx.Sign(signer)
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), signed)
}

func verifyRun(cmd *cobra.Command, args []string) error {
	var tx database.Tx
	if err := readJSON(txFile, &tx); err != nil {
		return err
	}

	_, verifier, err := signature.Load(scheme, "", publicKey)
	if err != nil {
		return fmt.Errorf("load keys: %w", err)
	}

	resp := struct {
		TransactionID string `json:"transaction_id"`
		Valid         bool   `json:"valid"`
	}{
		TransactionID: tx.TransactionID,
		Valid:         tx.VerifySignature(verifier),
	}

	return printJSON(cmd.OutOrStdout(), resp)
}
