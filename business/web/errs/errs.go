// Package errs provides types and support related to web v1 functionality.
package errs

import (
	"errors"
	"net/http"

	"github.com/donorchain/ledger/foundation/blockchain/database"
)

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is used to pass an error during the request through the
// application with web specific context.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// Unwrap exposes the wrapped error to errors.Is and errors.As.
func (re *Trusted) Unwrap() error {
	return re.Err
}

// IsTrusted checks if an error of type Trusted exists.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted returns a copy of the Trusted pointer.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// =============================================================================

// ledgerErrors maps the ledger sentinel errors to the status and the
// message a client is allowed to see. Order matters, the first match wins.
var ledgerErrors = []struct {
	err    error
	status int
	msg    string
}{
	{database.ErrBlockCommitFailed, http.StatusInternalServerError, "block commit failed"},
	{database.ErrSignatureInvalid, http.StatusBadRequest, "transaction signature is invalid"},
	{database.ErrAlreadyCommitted, http.StatusConflict, "transaction is already committed"},
	{database.ErrNoTransactions, http.StatusConflict, "no transactions waiting to be committed"},
	{database.ErrChainCorrupted, http.StatusServiceUnavailable, "ledger is halted: chain failed validation"},
	{database.ErrBlockPersistRejected, http.StatusConflict, "block modifications are not allowed"},
	{database.ErrChainUninitialized, http.StatusInternalServerError, "ledger is not initialized"},
	{database.ErrNotFound, http.StatusNotFound, "not found"},
}

// FromLedger converts an error returned by the ledger into a trusted error
// carrying a generic message. The full error is kept for the logs by the
// caller. Unknown errors are returned as is.
func FromLedger(err error) error {
	if err == nil {
		return nil
	}

	for _, le := range ledgerErrors {
		if errors.Is(err, le.err) {
			return &Trusted{Err: errors.New(le.msg), Status: le.status}
		}
	}

	return err
}
