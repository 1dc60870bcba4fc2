package database

import (
	"fmt"
	"unicode/utf8"
)

// Tx is the transactional information between two parties. The field order
// is part of the hash input and must never change.
type Tx struct {
	Sender    string `json:"sender" validate:"required"`
	Recipient string `json:"recipient" validate:"required"`
	Amount    uint64 `json:"amount"`
}

// NewTx constructs a new transaction.
func NewTx(sender string, recipient string, amount uint64) Tx {
	return Tx{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	}
}

// String implements the fmt.Stringer interface for logging.
func (tx Tx) String() string {
	return fmt.Sprintf("%s->%s:%d", tx.Sender, tx.Recipient, tx.Amount)
}

// Validate checks the transaction can be hashed. The hash encoding replaces
// invalid UTF-8, so two different strings could share a hash.
func (tx Tx) Validate() error {
	if !utf8.ValidString(tx.Sender) {
		return fmt.Errorf("%w: sender %q is not valid UTF-8", ErrInvalidTx, tx.Sender)
	}

	if !utf8.ValidString(tx.Recipient) {
		return fmt.Errorf("%w: recipient %q is not valid UTF-8", ErrInvalidTx, tx.Recipient)
	}

	return nil
}

// validateTrans returns the position and error of the first transaction
// that fails validation.
func validateTrans(trans []Tx) (int, error) {
	for i, tx := range trans {
		if err := tx.Validate(); err != nil {
			return i, err
		}
	}

	return 0, nil
}

// copyTrans returns a copy of the transactions so a block never shares its
// backing array with a caller.
func copyTrans(trans []Tx) []Tx {
	if trans == nil {
		return []Tx{}
	}

	cpy := make([]Tx, len(trans))
	copy(cpy, trans)
	return cpy
}
