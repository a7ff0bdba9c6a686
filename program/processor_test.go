// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/consts"
)

var (
	testRecord = codec.Address{0xaa}
	testPayer  = codec.Address{0xbb}
	testOther  = codec.Address{0xcc}
)

func allocated() *AccountView {
	return &AccountView{
		Address:  testRecord,
		Owner:    ID,
		Payer:    testPayer,
		Lamports: 1_000,
		Data:     make([]byte, CounterAccountSize),
	}
}

func active(count uint64) *AccountView {
	acct := allocated()
	acct.Data = EncodeCounter(count)
	return acct
}

type processTest struct {
	Name        string
	Payer       codec.Address
	Account     *AccountView
	Instruction Instruction
	ExpectedErr error
	Assertion   func(*require.Assertions, *Result)
}

func expectCount(count uint64) func(*require.Assertions, *Result) {
	return func(r *require.Assertions, res *Result) {
		r.NotNil(res.Account)
		acct, err := FromView(res.Account)
		r.NoError(err)
		r.Equal(count, acct.Count)
		r.Zero(res.Reclaimed)
	}
}

func TestProcess(t *testing.T) {
	wrongOwner := active(1)
	wrongOwner.Owner = testOther

	tests := []processTest{
		{
			Name:        "initialize",
			Payer:       testPayer,
			Account:     allocated(),
			Instruction: Initialize{},
			Assertion:   expectCount(0),
		},
		{
			Name:        "initialize twice",
			Payer:       testPayer,
			Account:     active(3),
			Instruction: Initialize{},
			ExpectedErr: ErrAlreadyInitialized,
		},
		{
			Name:        "initialize missing record",
			Payer:       testPayer,
			Instruction: Initialize{},
			ExpectedErr: ErrNotFound,
		},
		{
			Name:        "increment",
			Account:     active(41),
			Instruction: Increment{},
			Assertion:   expectCount(42),
		},
		{
			Name:        "increment at max",
			Account:     active(consts.MaxUint64),
			Instruction: Increment{},
			ExpectedErr: ErrOverflow,
		},
		{
			Name:        "increment uninitialized",
			Account:     allocated(),
			Instruction: Increment{},
			ExpectedErr: ErrNotInitialized,
		},
		{
			Name:        "decrement",
			Account:     active(1),
			Instruction: Decrement{},
			Assertion:   expectCount(0),
		},
		{
			Name:        "decrement at zero",
			Account:     active(0),
			Instruction: Decrement{},
			ExpectedErr: ErrUnderflow,
		},
		{
			Name:        "set",
			Account:     active(5),
			Instruction: Set{Value: consts.MaxUint64},
			Assertion:   expectCount(consts.MaxUint64),
		},
		{
			Name:        "set uninitialized",
			Account:     allocated(),
			Instruction: Set{Value: 1},
			ExpectedErr: ErrNotInitialized,
		},
		{
			Name:        "close by payer",
			Payer:       testPayer,
			Account:     active(9),
			Instruction: Close{},
			Assertion: func(r *require.Assertions, res *Result) {
				r.Nil(res.Account)
				r.Equal(uint64(1_000), res.Reclaimed)
			},
		},
		{
			Name:        "close by stranger",
			Payer:       testOther,
			Account:     active(9),
			Instruction: Close{},
			ExpectedErr: ErrUnauthorizedClose,
		},
		{
			Name:        "close without payer",
			Account:     active(9),
			Instruction: Close{},
			ExpectedErr: ErrUnauthorizedClose,
		},
		{
			Name:        "closed record",
			Account:     &AccountView{Address: testRecord, Owner: ID},
			Instruction: Increment{},
			ExpectedErr: ErrNotFound,
		},
		{
			Name:        "foreign owner",
			Account:     wrongOwner,
			Instruction: Increment{},
			ExpectedErr: ErrWrongOwner,
		},
		{
			Name: "corrupt buffer",
			Account: &AccountView{
				Address: testRecord,
				Owner:   ID,
				Data:    []byte{1, 2, 3},
			},
			Instruction: Increment{},
			ExpectedErr: ErrMalformedAccount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.Name, func(t *testing.T) {
			r := require.New(t)
			before := tt.Account.Clone()
			res, err := Process(Context{ProgramID: ID, Payer: tt.Payer}, tt.Account, tt.Instruction)
			r.ErrorIs(err, tt.ExpectedErr)
			r.Equal(before, tt.Account)
			if tt.ExpectedErr != nil {
				r.Nil(res)
				return
			}
			if tt.Assertion != nil {
				tt.Assertion(r, res)
			}
		})
	}
}

// A failed instruction leaves the record untouched, so retrying it against
// the same state fails identically.
func TestProcessDeterministicFailure(t *testing.T) {
	r := require.New(t)
	acct := active(0)
	ctx := Context{ProgramID: ID}

	_, err1 := Process(ctx, acct, Decrement{})
	_, err2 := Process(ctx, acct, Decrement{})
	r.ErrorIs(err1, ErrUnderflow)
	r.Equal(err1, err2)
	r.Equal(EncodeCounter(0), acct.Data)
}

func TestProcessLifecycle(t *testing.T) {
	r := require.New(t)
	ctx := Context{ProgramID: ID, Payer: testPayer}

	res, err := Process(ctx, allocated(), Initialize{})
	r.NoError(err)
	for _, ix := range []Instruction{Increment{}, Increment{}, Decrement{}, Set{Value: 100}, Increment{}} {
		res, err = Process(ctx, res.Account, ix)
		r.NoError(err)
	}
	acct, err := FromView(res.Account)
	r.NoError(err)
	r.Equal(uint64(101), acct.Count)
	r.Equal(testPayer, res.Account.Payer)

	res, err = Process(ctx, res.Account, Close{})
	r.NoError(err)
	r.Nil(res.Account)

	_, err = Process(ctx, res.Account, Increment{})
	r.ErrorIs(err, ErrNotFound)
}

// The stored count equals the count implied by replaying the successful
// instructions, and rejected ones never change it.
func TestProcessMatchesModel(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ctx := Context{ProgramID: ID}
		start := rapid.Uint64().Draw(t, "start")
		view := active(start)
		model := start

		steps := rapid.IntRange(0, 64).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			var (
				ix      Instruction
				wantErr error
			)
			switch rapid.IntRange(0, 2).Draw(t, "op") {
			case 0:
				ix = Increment{}
				if model == consts.MaxUint64 {
					wantErr = ErrOverflow
				}
			case 1:
				ix = Decrement{}
				if model == 0 {
					wantErr = ErrUnderflow
				}
			default:
				ix = Set{Value: rapid.OneOf(
					rapid.Just(uint64(0)),
					rapid.Just(consts.MaxUint64),
					rapid.Uint64(),
				).Draw(t, "value")}
			}

			res, err := Process(ctx, view, ix)
			if wantErr != nil {
				if err != wantErr {
					t.Fatalf("expected %v but got %v", wantErr, err)
				}
				continue
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch ix := ix.(type) {
			case Increment:
				model++
			case Decrement:
				model--
			case Set:
				model = ix.Value
			}
			view = res.Account
		}

		acct, err := FromView(view)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if acct.Count != model {
			t.Fatalf("count %d does not match model %d", acct.Count, model)
		}
	})
}
