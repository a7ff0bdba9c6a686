// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"errors"

	"github.com/hivefi/counterchain/chain"
)

// CustomErrorBase is the first code available to program-defined errors.
// Codes below it belong to the runtime.
const CustomErrorBase uint32 = 6000

// Error is a deterministic rejection raised by the counter program. The
// same instruction against the same state always produces the same Error.
type Error struct {
	Code uint32
	Name string
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

var programErrors = map[uint32]*Error{}

func newError(offset uint32, name, msg string) *Error {
	err := &Error{Code: CustomErrorBase + offset, Name: name, msg: msg}
	programErrors[err.Code] = err
	return err
}

var (
	ErrNotInitialized     = newError(0, "NotInitialized", "counter account is not initialized")
	ErrAlreadyInitialized = newError(1, "AlreadyInitialized", "counter account is already initialized")
	ErrOverflow           = newError(2, "Overflow", "counter would overflow")
	ErrUnderflow          = newError(3, "Underflow", "counter would underflow")
	ErrUnauthorizedClose  = newError(4, "UnauthorizedClose", "only the original payer may close the counter")
	ErrNotFound           = newError(5, "NotFound", "counter account not found")
	ErrMalformedAccount   = newError(6, "MalformedAccount", "malformed counter account")
	ErrInvalidInstruction = newError(7, "InvalidInstructionData", "invalid instruction data")
	ErrWrongOwner         = newError(8, "AccountOwnedByWrongProgram", "account is not owned by the counter program")
)

// ErrorCode returns the wire code for [err] when it is a program or runtime
// error.
func ErrorCode(err error) (uint32, bool) {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Code, true
	}
	return chain.CodeOf(err)
}

// ErrorFromCode maps a wire code back to the matching sentinel so callers
// can use errors.Is across process boundaries.
func ErrorFromCode(code uint32, message string) error {
	if err, ok := programErrors[code]; ok {
		return err
	}
	if err, ok := chain.RuntimeErrorFromCode(code); ok {
		return err
	}
	return &chain.UnknownError{Code: code, Message: message}
}

// IsProgramError reports whether [err] was raised by the program rather than
// the runtime or transport.
func IsProgramError(err error) bool {
	var perr *Error
	return errors.As(err, &perr)
}
