package database

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/donorchain/ledger/foundation/blockchain/signature"
	"github.com/donorchain/ledger/foundation/validate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents where a donation is in the review workflow.
type Status string

// Set of donation statuses.
const (
	StatusPending       Status = "pending"
	StatusPendingManual Status = "pending_manual"
	StatusCompleted     Status = "completed"
	StatusFailed        Status = "failed"
)

// PaymentMethod represents how a donation was paid.
type PaymentMethod string

// Set of payment methods.
const (
	PaymentGCash  PaymentMethod = "gcash"
	PaymentManual PaymentMethod = "manual"
)

const (
	anonymous      = "Anonymous"
	anonymousEmail = "anonymous@example.com"
	notAvailable   = "N/A"
	canonicalSep   = ":"
	dateLayout     = "2006-01-02"
)

// NewTransactionID generates a new unique transaction id.
func NewTransactionID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "GCASH-" + id[:8]
}

// =============================================================================

// Tx is the donation record as provided by the approval workflow. Only the
// fields that make up the canonical form are covered by the signature.
type Tx struct {
	TransactionID string          `json:"transaction_id" validate:"required"`
	FirstName     string          `json:"first_name"`
	MiddleInitial string          `json:"middle_initial,omitempty"`
	LastName      string          `json:"last_name"`
	Email         string          `json:"email" validate:"omitempty,email"`
	Amount        decimal.Decimal `json:"amount"`
	Date          string          `json:"date" validate:"required,datetime=2006-01-02"`
	PaymentMethod PaymentMethod   `json:"payment_method" validate:"required,oneof=gcash manual"`
	Status        Status          `json:"status" validate:"omitempty,oneof=pending pending_manual completed failed"`
	IsAnonymous   bool            `json:"is_anonymous"`
	Signature     string          `json:"signature,omitempty"`
}

// Validate checks the transaction fields are well formed.
func (tx Tx) Validate() error {
	if err := validate.Check(tx); err != nil {
		return err
	}

	if !tx.Amount.IsPositive() {
		return validate.FieldErrors{{Field: "amount", Error: "amount must be greater than zero"}}
	}

	if !tx.Amount.Equal(tx.Amount.Round(2)) {
		return validate.FieldErrors{{Field: "amount", Error: "amount must have at most two decimal places"}}
	}

	if _, err := tx.Canonical(); err != nil {
		return validate.FieldErrors{{Field: "transaction", Error: err.Error()}}
	}

	return nil
}

// Canonical returns the fixed order representation of the signed fields.
// Any field containing the separator is rejected so two different
// transactions can never produce the same canonical form.
func (tx Tx) Canonical() ([]byte, error) {
	first := tx.FirstName
	if first == "" {
		first = anonymous
	}

	email := tx.Email
	if email == "" {
		email = anonymousEmail
	}

	date, err := time.Parse(dateLayout, tx.Date)
	if err != nil {
		return nil, fmt.Errorf("date %q: %w", tx.Date, err)
	}

	fields := []string{
		tx.TransactionID,
		first,
		tx.LastName,
		email,
		tx.Amount.StringFixed(2),
		date.Format(dateLayout),
		string(tx.PaymentMethod),
	}

	for _, field := range fields {
		if strings.Contains(field, canonicalSep) {
			return nil, fmt.Errorf("field %q contains the %q separator", field, canonicalSep)
		}
	}

	return []byte(strings.Join(fields, canonicalSep)), nil
}

// Sign uses the signer to sign the canonical form of the transaction and
// returns a copy carrying the base64 encoded signature.
func (tx Tx) Sign(signer signature.Signer) (Tx, error) {
	if signer == nil {
		return Tx{}, fmt.Errorf("sign %s: no signer configured", tx.TransactionID)
	}

	msg, err := tx.Canonical()
	if err != nil {
		return Tx{}, fmt.Errorf("sign %s: %w", tx.TransactionID, err)
	}

	sig, err := signer.Sign(msg)
	if err != nil {
		return Tx{}, fmt.Errorf("sign %s: %w", tx.TransactionID, err)
	}

	tx.Signature = base64.StdEncoding.EncodeToString(sig)

	return tx, nil
}

// VerifySignature recomputes the canonical form from the current field
// values and checks the transaction's signature against it.
func (tx Tx) VerifySignature(verifier signature.Verifier) bool {
	return Verify(tx, tx.Signature, verifier)
}

// Verify checks the base64 encoded signature against the canonical form of
// the transaction. A missing, malformed or mismatched signature reports
// false.
func Verify(tx Tx, sig string, verifier signature.Verifier) bool {
	if sig == "" || verifier == nil {
		return false
	}

	raw, err := base64.StdEncoding.DecodeString(sig)
	if err != nil {
		return false
	}

	msg, err := tx.Canonical()
	if err != nil {
		return false
	}

	return verifier.Verify(msg, raw) == nil
}

// DonorName returns the name shown in public records.
func (tx Tx) DonorName() string {
	if tx.IsAnonymous || tx.FirstName == "" || tx.FirstName == anonymous {
		return anonymous
	}

	return strings.TrimSpace(tx.FirstName + " " + tx.LastName)
}

// ReviewStatus returns the status a transaction goes back to when it could
// not be recorded on the ledger.
func (tx Tx) ReviewStatus() Status {
	if tx.PaymentMethod == PaymentGCash {
		return StatusPending
	}

	return StatusPendingManual
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s:%s", tx.TransactionID, tx.Amount.StringFixed(2))
}

// =============================================================================

// BlockTx represents the snapshot of a transaction as it's recorded in the
// pool and inside a block. Fields are declared in json key order so the
// encoding is canonical.
type BlockTx struct {
	Amount        string `json:"amount"`
	Date          string `json:"date"`
	Donor         string `json:"donor"`
	Email         string `json:"email"`
	PaymentMethod string `json:"payment_method"`
	Status        string `json:"status"`
	TimeStamp     string `json:"timestamp"`
	TransactionID string `json:"transaction_id"`
}

// NewBlockTx constructs the snapshot for a transaction admitted at the
// specified time.
func NewBlockTx(tx Tx, now time.Time) BlockTx {
	email := tx.Email
	if email == "" || tx.IsAnonymous {
		email = notAvailable
	}

	date := tx.Date
	if date == "" {
		date = notAvailable
	}

	return BlockTx{
		Amount:        tx.Amount.StringFixed(2),
		Date:          date,
		Donor:         tx.DonorName(),
		Email:         email,
		PaymentMethod: string(tx.PaymentMethod),
		Status:        string(tx.Status),
		TimeStamp:     FormatTime(now),
		TransactionID: tx.TransactionID,
	}
}

// Hash implements the merkle Hashable interface for providing a hash
// of a block transaction.
func (tx BlockTx) Hash() ([]byte, error) {
	data, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}

	hash := sha256.Sum256(data)
	return hash[:], nil
}

// Equals implements the merkle Hashable interface for providing an equality
// check between two block transactions.
func (tx BlockTx) Equals(otherTx BlockTx) bool {
	return tx == otherTx
}

// String implements the fmt.Stringer interface for logging.
func (tx BlockTx) String() string {
	return fmt.Sprintf("%s:%s", tx.TransactionID, tx.Amount)
}
