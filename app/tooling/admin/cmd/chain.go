package cmd

import (
	"errors"

	"github.com/donorchain/ledger/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	recordsFile string
	receiptFile string
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Print the chain in index order",
	RunE:  chainRun,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every block of the chain",
	RunE:  validateRun,
}

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Cross check every recorded donation against its source record",
	RunE:  auditRun,
}

var receiptCmd = &cobra.Command{
	Use:   "receipt <transaction-id>",
	Short: "Print the inclusion receipt of a committed donation",
	Args:  cobra.ExactArgs(1),
	RunE:  receiptRun,
}

var verifyReceiptCmd = &cobra.Command{
	Use:   "verify-receipt",
	Short: "Check a receipt against its merkle root without the chain",
	RunE:  verifyReceiptRun,
}

func init() {
	auditCmd.Flags().StringVarP(&recordsFile, "records", "r", "", "Path to a JSON array of the source donation records.")
	auditCmd.MarkFlagRequired("records")
	verifyReceiptCmd.Flags().StringVarP(&receiptFile, "receipt", "r", "", "Path to the receipt JSON file.")
	verifyReceiptCmd.MarkFlagRequired("receipt")

	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(receiptCmd)
	rootCmd.AddCommand(verifyReceiptCmd)
}

func chainRun(cmd *cobra.Command, args []string) error {
	st, err := openState(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Shutdown()

	blocks, err := st.RetrieveChain()
	if err != nil {
		return err
	}

	if blocks == nil {
		blocks = []database.BlockData{}
	}

	return printJSON(cmd.OutOrStdout(), blocks)
}

// validateRun prints the validity and fails when the chain is corrupted so
// the command can gate scripts.
func validateRun(cmd *cobra.Command, args []string) error {
	st, err := openState(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Shutdown()

	v, err := st.ValidateChain()
	if err != nil && !errors.Is(err, database.ErrChainCorrupted) {
		return err
	}

	if perr := printJSON(cmd.OutOrStdout(), v); perr != nil {
		return perr
	}

	return err
}

func auditRun(cmd *cobra.Command, args []string) error {
	var records []database.Tx
	if err := readJSON(recordsFile, &records); err != nil {
		return err
	}

	st, err := openState(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Shutdown()

	report, err := st.Audit(cmd.Context(), recordLookup(records))
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), report)
}

func receiptRun(cmd *cobra.Command, args []string) error {
	st, err := openState(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Shutdown()

	receipt, err := st.Receipt(args[0])
	if err != nil {
		return err
	}

	return printJSON(cmd.OutOrStdout(), receipt)
}

func verifyReceiptRun(cmd *cobra.Command, args []string) error {
	var receipt database.Receipt
	if err := readJSON(receiptFile, &receipt); err != nil {
		return err
	}

	ok, err := database.VerifyReceipt(receipt)
	if err != nil {
		return err
	}

	resp := struct {
		TransactionID string `json:"transaction_id"`
		Index         uint64 `json:"index"`
		Valid         bool   `json:"valid"`
	}{
		TransactionID: receipt.Transaction.TransactionID,
		Index:         receipt.Index,
		Valid:         ok,
	}

	return printJSON(cmd.OutOrStdout(), resp)
}
