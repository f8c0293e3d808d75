// Package errs provides the error values the node API hands back to callers
// and the mapping from ledger failures to response status codes.
package errs

import (
	"context"
	"errors"
	"net/http"

	"github.com/ardanlabs/powledger/foundation/blockchain/consensus"
	"github.com/ardanlabs/powledger/foundation/blockchain/database"
	"github.com/ardanlabs/powledger/foundation/blockchain/state"
)

// Response is the body written for a failed request.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is an error whose message is safe to show the caller, paired with
// the status to respond with.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted pairs err with the status to respond with.
func NewTrusted(err error, status int) error {
	return &Trusted{Err: err, Status: status}
}

// Error implements the error interface.
func (t *Trusted) Error() string {
	return t.Err.Error()
}

// Unwrap gives errors.Is access to the ledger error being carried.
func (t *Trusted) Unwrap() error {
	return t.Err
}

// GetTrusted returns the Trusted error held in the chain of err or nil if
// there is none.
func GetTrusted(err error) *Trusted {
	var t *Trusted
	if !errors.As(err, &t) {
		return nil
	}
	return t
}

// =============================================================================

// ledgerStatus maps the ledger's sentinel errors to a response status. The
// first match wins.
var ledgerStatus = []struct {
	err    error
	status int
}{
	{database.ErrInvalidTx, http.StatusBadRequest},
	{database.ErrInvalidChain, http.StatusUnprocessableEntity},
	{consensus.ErrMalformedPeerChain, http.StatusUnprocessableEntity},
	{state.ErrStaleTip, http.StatusConflict},
	{context.Canceled, http.StatusServiceUnavailable},
	{context.DeadlineExceeded, http.StatusServiceUnavailable},
}

// Ledger marks err as Trusted when it carries one of the ledger's known
// failures. Anything else is returned untouched and is reported as an
// internal error.
func Ledger(err error) error {
	if err == nil || GetTrusted(err) != nil {
		return err
	}

	for _, ls := range ledgerStatus {
		if errors.Is(err, ls.err) {
			return NewTrusted(err, ls.status)
		}
	}

	return err
}
