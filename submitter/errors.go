// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package submitter

import (
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
)

var (
	// ErrRejectedByProgram wraps the program error that failed the
	// transaction. The ledger state is unchanged.
	ErrRejectedByProgram = errors.New("rejected by program")

	// ErrRejectedByRuntime wraps a runtime error (missing funds, missing
	// signer, expiry) that failed an included transaction.
	ErrRejectedByRuntime = errors.New("rejected by runtime")

	// ErrRejectedByNetwork wraps the reason the node refused to queue the
	// transaction.
	ErrRejectedByNetwork = errors.New("rejected by network")

	// ErrNetworkTimeout means no outcome was observed before the deadline.
	// The transaction may still confirm; re-query before retrying.
	ErrNetworkTimeout = errors.New("network timeout: outcome unknown")

	// ErrSignatureInvalid means a required signature was missing or did not
	// verify.
	ErrSignatureInvalid = errors.New("signature invalid")

	// ErrAlreadyKnown means the node already holds this exact transaction.
	// It may have been applied; re-query before sending the intent again.
	ErrAlreadyKnown = errors.New("transaction already known: outcome unknown")

	// ErrAbandoned means the caller stopped waiting. It is not a failure:
	// the transaction may still confirm.
	ErrAbandoned = errors.New("abandoned by caller")
)

// PendingError is returned when a transaction left the client but its
// outcome is unknown. TxID lets the caller keep tracking it.
type PendingError struct {
	TxID ids.ID
	Err  error
}

func (e *PendingError) Error() string {
	return fmt.Sprintf("tx %s: %v", e.TxID, e.Err)
}

func (e *PendingError) Unwrap() error {
	return e.Err
}

// Action is what a caller should do about a submission error.
type Action uint8

const (
	// ActionNone means there was no error.
	ActionNone Action = iota
	// ActionShowError means the request was definitively refused and
	// resending it unchanged will fail the same way.
	ActionShowError
	// ActionRetry means nothing was applied and a fresh submission may
	// succeed.
	ActionRetry
	// ActionResync means the outcome is unknown: re-read ledger state before
	// deciding anything.
	ActionResync
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionShowError:
		return "show error"
	case ActionRetry:
		return "retry"
	default:
		return "resync"
	}
}

// Classify maps [err] to the action a caller should take.
func Classify(err error) Action {
	switch {
	case err == nil:
		return ActionNone
	case errors.Is(err, ErrNetworkTimeout), errors.Is(err, ErrAbandoned), errors.Is(err, ErrAlreadyKnown):
		return ActionResync
	case errors.Is(err, ErrRejectedByNetwork):
		return ActionRetry
	default:
		return ActionShowError
	}
}

// IsRetryable reports whether a fresh submission of the same intent may
// succeed without re-reading state first.
func IsRetryable(err error) bool {
	return Classify(err) == ActionRetry
}

// NeedsResync reports whether the caller must re-query ledger state because
// the transaction may or may not have been applied.
func NeedsResync(err error) bool {
	return Classify(err) == ActionResync
}
