package state

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/donorchain/ledger/foundation/blockchain/database"
)

// Set of audit finding kinds.
const (
	FindingMissingRecord    = "missing_record"
	FindingLookupFailed     = "lookup_failed"
	FindingStatusMismatch   = "status_mismatch"
	FindingAmountMismatch   = "amount_mismatch"
	FindingDateMismatch     = "date_mismatch"
	FindingDateFormat       = "date_format"
	FindingSignatureInvalid = "signature_invalid"
)

// RecordLookup returns the source donation record for a transaction id. A
// missing record is reported with an error matching database.ErrNotFound.
type RecordLookup func(ctx context.Context, txID string) (database.Tx, error)

// Finding is one discrepancy between a recorded transaction and its source
// record.
type Finding struct {
	Index         uint64 `json:"index"`
	TransactionID string `json:"transaction_id"`
	Kind          string `json:"kind"`
	Detail        string `json:"detail"`
}

// AuditReport is the outcome of an audit.
type AuditReport struct {
	Validity     Validity  `json:"validity"`
	Transactions int       `json:"transactions"`
	Findings     []Finding `json:"findings"`
}

// Audit validates the chain and then cross checks every recorded
// transaction against its source record, including a fresh verification
// of the record's signature.
func (s *State) Audit(ctx context.Context, lookup RecordLookup) (AuditReport, error) {
	validity, err := s.ValidateChain()
	if err != nil && !database.IsCorrupted(err) {
		return AuditReport{}, err
	}

	report := AuditReport{
		Validity: validity,
		Findings: []Finding{},
	}

	iter := s.db.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return report, fmt.Errorf("audit: %w", err)
		}

		if err := ctx.Err(); err != nil {
			return report, err
		}

		for _, tx := range blockData.Transactions {
			report.Transactions++
			report.Findings = append(report.Findings, s.auditTx(ctx, blockData.Index, tx, lookup)...)
		}
	}

	s.evHandler("state: Audit: transactions[%d]: findings[%d]", report.Transactions, len(report.Findings))

	return report, nil
}

// auditTx compares a single recorded transaction with its source record.
func (s *State) auditTx(ctx context.Context, index uint64, tx database.BlockTx, lookup RecordLookup) []Finding {
	finding := func(kind string, format string, args ...any) Finding {
		return Finding{
			Index:         index,
			TransactionID: tx.TransactionID,
			Kind:          kind,
			Detail:        fmt.Sprintf(format, args...),
		}
	}

	rec, err := lookup(ctx, tx.TransactionID)
	switch {
	case errors.Is(err, database.ErrNotFound):
		return []Finding{finding(FindingMissingRecord, "no source record")}
	case err != nil:
		return []Finding{finding(FindingLookupFailed, "%s", err)}
	}

	var findings []Finding

	if rec.Status != database.StatusCompleted {
		findings = append(findings, finding(FindingStatusMismatch, "record status is %q", rec.Status))
	}

	if amount := rec.Amount.StringFixed(2); amount != tx.Amount {
		findings = append(findings, finding(FindingAmountMismatch, "record %s, ledger %s", amount, tx.Amount))
	}

	if _, err := time.Parse("2006-01-02", tx.Date); err != nil {
		findings = append(findings, finding(FindingDateFormat, "ledger date %q", tx.Date))
	} else if rec.Date != tx.Date {
		findings = append(findings, finding(FindingDateMismatch, "record %s, ledger %s", rec.Date, tx.Date))
	}

	if !rec.VerifySignature(s.verifier) {
		findings = append(findings, finding(FindingSignatureInvalid, "record signature does not verify"))
	}

	return findings
}
