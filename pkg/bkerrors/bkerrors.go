// Package bkerrors defines the structured, fatal error kinds the batch
// engine can raise: DecodeError, StateMismatch, ProofInvalid, and
// InputInvariantViolated. All four are fatal at batch scope — the batch is
// abandoned with no partial emission and no retry.
package bkerrors

import (
	"errors"
	"fmt"
)

// Kind identifies one of the four fatal error categories.
type Kind string

const (
	// KindDecodeError marks malformed wire bytes, an unknown Side value, or
	// a structural mismatch on decode.
	KindDecodeError Kind = "DECODE_ERROR"
	// KindStateMismatch marks a BatchInput whose batch_index or prior_root
	// disagrees with the live on-chain values.
	KindStateMismatch Kind = "STATE_MISMATCH"
	// KindProofInvalid marks a UtxoWithProof that fails Merkle verification
	// against prior_root with its declared leaf count.
	KindProofInvalid Kind = "PROOF_INVALID"
	// KindInputInvariantViolated marks malformed batch input: a
	// zero-quantity order, a duplicate nonce, a non-unique existing UTXO
	// id, and similar.
	KindInputInvariantViolated Kind = "INPUT_INVARIANT_VIOLATED"
)

// Exit codes for the CLI, per the driver's process boundary.
const (
	ExitSuccess = 0
	ExitGeneral = 1
	ExitDecode  = 2
	ExitState   = 3
	ExitProof   = 4
	ExitInput   = 5
)

func exitCodeFor(kind Kind) int {
	switch kind {
	case KindDecodeError:
		return ExitDecode
	case KindStateMismatch:
		return ExitState
	case KindProofInvalid:
		return ExitProof
	case KindInputInvariantViolated:
		return ExitInput
	default:
		return ExitGeneral
	}
}

// BatchError is the structured error type raised by the core packages.
// ElementIndex is the offending element's index within the input it was
// found in, or -1 when not applicable.
type BatchError struct {
	Kind         Kind
	Message      string
	ElementIndex int
	Cause        error
}

// New creates a BatchError with no offending-element index.
func New(kind Kind, message string) *BatchError {
	return &BatchError{Kind: kind, Message: message, ElementIndex: -1}
}

// NewAt creates a BatchError naming the offending element's index.
func NewAt(kind Kind, message string, index int) *BatchError {
	return &BatchError{Kind: kind, Message: message, ElementIndex: index}
}

// Wrap wraps an existing error under one of the four kinds.
func Wrap(kind Kind, cause error, format string, args ...any) *BatchError {
	return &BatchError{Kind: kind, Message: fmt.Sprintf(format, args...), ElementIndex: -1, Cause: cause}
}

func (e *BatchError) Error() string {
	if e.ElementIndex >= 0 {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s (element %d): %v", e.Kind, e.Message, e.ElementIndex, e.Cause)
		}
		return fmt.Sprintf("%s: %s (element %d)", e.Kind, e.Message, e.ElementIndex)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *BatchError) Unwrap() error {
	return e.Cause
}

// Is matches BatchErrors by Kind, so callers can do
// errors.Is(err, bkerrors.New(bkerrors.KindProofInvalid, "")).
func (e *BatchError) Is(target error) bool {
	var t *BatchError
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// ExitCode returns the process exit code for err, or ExitSuccess if err is
// nil and ExitGeneral if err is not a *BatchError.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var be *BatchError
	if errors.As(err, &be) {
		return exitCodeFor(be.Kind)
	}
	return ExitGeneral
}

// KindOf returns the Kind of err, or "" if err is not a *BatchError.
func KindOf(err error) Kind {
	var be *BatchError
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}
