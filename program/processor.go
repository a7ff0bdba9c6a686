// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"fmt"

	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/consts"
)

// Context is what the runtime tells the program about an invocation. The
// runtime has already checked every signature and writability flag.
type Context struct {
	ProgramID codec.Address

	// Payer is the signer passed in the payer slot. It is empty for
	// instructions that do not take one.
	Payer codec.Address
}

// Result is the effect of a successful instruction.
type Result struct {
	// Account is the next state of the record, or nil once it is closed.
	Account *AccountView

	// Reclaimed is the number of lamports released to the payer.
	Reclaimed uint64
}

// Process applies [ix] to [acct]. It is a pure function: [acct] is never
// modified, nothing but the returned Result describes the effect, and the
// same inputs always produce the same output.
func Process(ctx Context, acct *AccountView, ix Instruction) (*Result, error) {
	state := acct.State()
	if state == Closed {
		return nil, ErrNotFound
	}
	if acct.Owner != ctx.ProgramID {
		return nil, ErrWrongOwner
	}

	if _, ok := ix.(Initialize); ok {
		return initialize(acct, state)
	}
	if state == Uninitialized {
		return nil, ErrNotInitialized
	}
	counter, err := Decode(acct.Data)
	if err != nil {
		return nil, err
	}

	switch ix := ix.(type) {
	case Increment:
		if counter.Count == consts.MaxUint64 {
			return nil, ErrOverflow
		}
		return withCount(acct, counter.Count+1), nil
	case Decrement:
		if counter.Count == 0 {
			return nil, ErrUnderflow
		}
		return withCount(acct, counter.Count-1), nil
	case Set:
		return withCount(acct, ix.Value), nil
	case Close:
		if ctx.Payer == codec.EmptyAddress || ctx.Payer != acct.Payer {
			return nil, ErrUnauthorizedClose
		}
		return &Result{Reclaimed: acct.Lamports}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported instruction %T", ErrInvalidInstruction, ix)
	}
}

func initialize(acct *AccountView, state State) (*Result, error) {
	if state == Active {
		return nil, ErrAlreadyInitialized
	}
	if len(acct.Data) != CounterAccountSize {
		return nil, fmt.Errorf("%w: allocated %d bytes but need %d", ErrMalformedAccount, len(acct.Data), CounterAccountSize)
	}
	for _, b := range acct.Data {
		if b != 0 {
			return nil, fmt.Errorf("%w: buffer is not zero-initialized", ErrMalformedAccount)
		}
	}
	return withCount(acct, 0), nil
}

func withCount(acct *AccountView, count uint64) *Result {
	next := acct.Clone()
	next.Data = EncodeCounter(count)
	return &Result{Account: next}
}
