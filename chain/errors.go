// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"errors"
	"fmt"
)

// RuntimeError is a deterministic failure raised by the ledger runtime
// itself (as opposed to the program it invokes). [Code] survives the wire.
type RuntimeError struct {
	Code uint32
	Name string
	msg  string
}

func (e *RuntimeError) Error() string {
	return e.msg
}

var runtimeErrors = map[uint32]*RuntimeError{}

func newRuntimeError(code uint32, name, msg string) *RuntimeError {
	err := &RuntimeError{Code: code, Name: name, msg: msg}
	runtimeErrors[code] = err
	return err
}

// Execution errors. A transaction failing with one of these was included in
// a slot and will never be applied.
var (
	ErrInsufficientFunds  = newRuntimeError(1, "InsufficientFunds", "insufficient funds")
	ErrAccountInUse       = newRuntimeError(2, "AccountInUse", "account already in use")
	ErrMissingAccount     = newRuntimeError(3, "MissingAccount", "missing required account")
	ErrMissingSignature   = newRuntimeError(4, "MissingRequiredSignature", "missing required signature")
	ErrUnknownProgram     = newRuntimeError(5, "UnknownProgram", "unknown program")
	ErrReadonlyAccount    = newRuntimeError(6, "ReadonlyAccount", "account is not writable")
	ErrUnbalancedLamports = newRuntimeError(7, "UnbalancedLamports", "sum of lamports changed")
)

// Submission errors. A transaction rejected with one of these never entered
// the queue.
var (
	ErrInvalidSignature = newRuntimeError(100, "InvalidSignature", "invalid signature")
	ErrDuplicateTx      = newRuntimeError(101, "DuplicateTransaction", "duplicate transaction")
	ErrExpiredTx        = newRuntimeError(102, "TransactionExpired", "transaction expired")
	ErrFutureTx         = newRuntimeError(103, "TransactionTooFarInFuture", "transaction expiry too far in the future")
	ErrWrongChain       = newRuntimeError(104, "WrongChain", "transaction targets another chain")
	ErrMempoolFull      = newRuntimeError(105, "MempoolFull", "pending queue is full")
	ErrTxTooLarge       = newRuntimeError(106, "TransactionTooLarge", "transaction too large")
	ErrMalformedTx      = newRuntimeError(107, "MalformedTransaction", "transaction could not be parsed")
)

// Encoding errors that never leave the process.
var (
	ErrTooManySigners  = errors.New("too many signers")
	ErrTooManyAccounts = errors.New("too many accounts")
	ErrUnexpectedBytes = errors.New("transaction has extra bytes")
	ErrNotSigned       = errors.New("transaction is not signed")
	ErrMissingSigner   = errors.New("no private key for required signer")
)

// RuntimeErrorFromCode returns the runtime error registered under [code].
func RuntimeErrorFromCode(code uint32) (*RuntimeError, bool) {
	err, ok := runtimeErrors[code]
	return err, ok
}

// CodeOf returns the wire code of a runtime error, if [err] wraps one.
func CodeOf(err error) (uint32, bool) {
	var rerr *RuntimeError
	if errors.As(err, &rerr) {
		return rerr.Code, true
	}
	return 0, false
}

// UnknownError is returned when a peer reports a code this build does not
// know about.
type UnknownError struct {
	Code    uint32
	Message string
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown error code %d: %s", e.Code, e.Message)
}
