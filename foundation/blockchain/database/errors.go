package database

import (
	"errors"
	"fmt"
)

// Set of errors the chain rules can produce.
var (
	// ErrInvalidLinkage is returned when a block doesn't link to its parent,
	// its hash doesn't recompute, or its hash doesn't meet the difficulty.
	ErrInvalidLinkage = errors.New("invalid block linkage")

	// ErrMalformedCandidate is returned when a block or chain received from
	// a peer fails structural decoding.
	ErrMalformedCandidate = errors.New("malformed candidate")

	// ErrEmptyChain is returned when the chain has lost its genesis block.
	// This means the local state is corrupt.
	ErrEmptyChain = errors.New("chain has no blocks")

	// ErrStaleTip is returned when a block was mined against a tip that is
	// no longer the latest block in the chain.
	ErrStaleTip = errors.New("block mined against a stale tip")

	// ErrInvalidTx is returned when a transaction can't be part of a block.
	ErrInvalidTx = errors.New("invalid transaction")
)

// ValidationError identifies the block that failed chain validation.
type ValidationError struct {
	Index int
	Err   error
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	return fmt.Sprintf("block[%d]: %s", ve.Index, ve.Err)
}

// Unwrap provides support for errors.Is and errors.As.
func (ve *ValidationError) Unwrap() error {
	return ve.Err
}

// linkageError wraps ErrInvalidLinkage with the specific failure.
func linkageError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidLinkage, fmt.Sprintf(format, args...))
}

// malformedError wraps ErrMalformedCandidate with the specific failure.
func malformedError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedCandidate, fmt.Sprintf(format, args...))
}
