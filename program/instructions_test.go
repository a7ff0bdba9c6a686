// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hivefi/counterchain/codec"
)

func TestParseInstruction(t *testing.T) {
	for _, ix := range []Instruction{
		Initialize{},
		Increment{},
		Decrement{},
		Set{Value: 42},
		Close{},
	} {
		t.Run(ix.Method(), func(t *testing.T) {
			require := require.New(t)
			parsed, err := ParseInstruction(ix.Data())
			require.NoError(err)
			require.Equal(ix, parsed)
		})
	}
}

func TestParseInstructionInvalid(t *testing.T) {
	setData := Set{Value: 1}.Data()
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "too short",
			data: []byte{1, 2, 3},
		},
		{
			name: "unknown discriminator",
			data: make([]byte, DiscriminatorLen),
		},
		{
			name: "set missing argument",
			data: setData[:DiscriminatorLen],
		},
		{
			name: "increment with argument",
			data: append(Increment{}.Data(), 1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInstruction(tt.data)
			require.ErrorIs(t, err, ErrInvalidInstruction)
		})
	}
}

func TestInstructionAccounts(t *testing.T) {
	require := require.New(t)
	counter, payer := codec.Address{1}, codec.Address{2}

	init := NewInitializeInstruction(ID, counter, payer)
	require.Len(init.Accounts, 2)
	require.True(init.Accounts[CounterAccountIndex].IsSigner)
	require.True(init.Accounts[PayerAccountIndex].IsSigner)

	inc := NewIncrementInstruction(ID, counter)
	require.Len(inc.Accounts, 1)
	require.True(inc.Accounts[CounterAccountIndex].IsWritable)
	require.False(inc.Accounts[CounterAccountIndex].IsSigner)

	set := NewSetInstruction(ID, counter, 7)
	parsed, err := ParseInstruction(set.Data)
	require.NoError(err)
	require.Equal(Set{Value: 7}, parsed)

	closeIx := NewCloseInstruction(ID, counter, payer)
	require.Equal(payer, closeIx.Accounts[PayerAccountIndex].Address)
	require.False(closeIx.Accounts[CounterAccountIndex].IsSigner)
}

func TestErrorCodes(t *testing.T) {
	require := require.New(t)

	code, ok := ErrorCode(ErrUnderflow)
	require.True(ok)
	require.Equal(uint32(6003), code)
	require.ErrorIs(ErrorFromCode(code, ""), ErrUnderflow)
	require.True(IsProgramError(ErrorFromCode(code, "")))
	require.False(IsProgramError(ErrorFromCode(1, "")))
	require.Contains(ErrorFromCode(424242, "boom").Error(), "boom")
}
