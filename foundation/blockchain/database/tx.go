package database

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// ErrInvalidTx is returned when a transaction can't be encoded without loss.
var ErrInvalidTx = errors.New("invalid transaction")

// Tx is the transactional information between two parties. The field order
// here matches the canonical encoding and must not change.
type Tx struct {
	Amount    uint64 `json:"amount"`    // Value transferred from sender to recipient.
	Recipient string `json:"recipient"` // Address of the account receiving the value.
	Sender    string `json:"sender"`    // Address of the account sending the value.
}

// NewTx constructs a new transaction.
func NewTx(sender string, recipient string, amount uint64) Tx {
	return Tx{
		Amount:    amount,
		Recipient: recipient,
		Sender:    sender,
	}
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%d", tx.Sender, tx.Recipient, tx.Amount)
}

// Validate checks the transaction can be part of a block. Addresses must be
// valid UTF-8 since the encoder would otherwise replace the bad bytes and two
// different transactions could hash the same.
func (tx Tx) Validate() error {
	if !utf8.ValidString(tx.Sender) {
		return fmt.Errorf("%w: sender is not valid utf-8: %q", ErrInvalidTx, tx.Sender)
	}

	if !utf8.ValidString(tx.Recipient) {
		return fmt.Errorf("%w: recipient is not valid utf-8: %q", ErrInvalidTx, tx.Recipient)
	}

	return nil
}
