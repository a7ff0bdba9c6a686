// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"fmt"

	"github.com/near/borsh-go"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/codec"
)

// Instruction is one of the five counter instructions. Data layout is the
// method discriminator followed by borsh-encoded arguments.
type Instruction interface {
	Method() string
	Data() []byte

	// RequiresPayer reports whether the payer account must be supplied.
	RequiresPayer() bool
}

var (
	_ Instruction = Initialize{}
	_ Instruction = Increment{}
	_ Instruction = Decrement{}
	_ Instruction = Set{}
	_ Instruction = Close{}
)

const (
	MethodInitialize = "initialize"
	MethodIncrement  = "increment"
	MethodDecrement  = "decrement"
	MethodSet        = "set"
	MethodClose      = "close"
)

type Initialize struct{}

func (Initialize) Method() string      { return MethodInitialize }
func (Initialize) RequiresPayer() bool { return true }
func (i Initialize) Data() []byte      { return methodData(i.Method(), nil) }

type Increment struct{}

func (Increment) Method() string      { return MethodIncrement }
func (Increment) RequiresPayer() bool { return false }
func (i Increment) Data() []byte      { return methodData(i.Method(), nil) }

type Decrement struct{}

func (Decrement) Method() string      { return MethodDecrement }
func (Decrement) RequiresPayer() bool { return false }
func (d Decrement) Data() []byte      { return methodData(d.Method(), nil) }

type Set struct {
	Value uint64
}

func (Set) Method() string      { return MethodSet }
func (Set) RequiresPayer() bool { return false }
func (s Set) Data() []byte      { return methodData(s.Method(), s) }

type Close struct{}

func (Close) Method() string      { return MethodClose }
func (Close) RequiresPayer() bool { return true }
func (c Close) Data() []byte      { return methodData(c.Method(), nil) }

func methodData(method string, args any) []byte {
	d := NewDiscriminator("global", method)
	data := append([]byte{}, d[:]...)
	if args == nil {
		return data
	}
	b, err := borsh.Serialize(args)
	if err != nil {
		// Instruction arguments are fixed-width integers.
		panic(err)
	}
	return append(data, b...)
}

type parser func(args []byte) (Instruction, error)

var parsers = map[Discriminator]parser{
	NewDiscriminator("global", MethodInitialize): noArgs(Initialize{}),
	NewDiscriminator("global", MethodIncrement):  noArgs(Increment{}),
	NewDiscriminator("global", MethodDecrement):  noArgs(Decrement{}),
	NewDiscriminator("global", MethodClose):      noArgs(Close{}),
	NewDiscriminator("global", MethodSet): func(args []byte) (Instruction, error) {
		var s Set
		if len(args) != 8 {
			return nil, fmt.Errorf("%w: set expects 8 argument bytes but got %d", ErrInvalidInstruction, len(args))
		}
		if err := borsh.Deserialize(&s, args); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInstruction, err)
		}
		return s, nil
	},
}

func noArgs(ix Instruction) parser {
	return func(args []byte) (Instruction, error) {
		if len(args) != 0 {
			return nil, fmt.Errorf("%w: %s takes no arguments", ErrInvalidInstruction, ix.Method())
		}
		return ix, nil
	}
}

// ParseInstruction decodes instruction data produced by [Instruction.Data].
func ParseInstruction(data []byte) (Instruction, error) {
	if len(data) < DiscriminatorLen {
		return nil, fmt.Errorf("%w: data too short", ErrInvalidInstruction)
	}
	var d Discriminator
	copy(d[:], data)
	parse, ok := parsers[d]
	if !ok {
		return nil, fmt.Errorf("%w: unknown discriminator %x", ErrInvalidInstruction, d)
	}
	return parse(data[DiscriminatorLen:])
}

// Accounts of a counter instruction, by position.
const (
	CounterAccountIndex = 0
	PayerAccountIndex   = 1
)

// NewInitializeInstruction creates the counter at [counter], funded by
// [payer]. Both must sign: the record key proves the address is fresh.
func NewInitializeInstruction(programID, counter, payer codec.Address) *chain.Instruction {
	return &chain.Instruction{
		ProgramID: programID,
		Accounts: []chain.AccountMeta{
			{Address: counter, IsSigner: true, IsWritable: true},
			{Address: payer, IsSigner: true, IsWritable: true},
		},
		Data: Initialize{}.Data(),
	}
}

func NewIncrementInstruction(programID, counter codec.Address) *chain.Instruction {
	return mutation(programID, counter, Increment{})
}

func NewDecrementInstruction(programID, counter codec.Address) *chain.Instruction {
	return mutation(programID, counter, Decrement{})
}

func NewSetInstruction(programID, counter codec.Address, value uint64) *chain.Instruction {
	return mutation(programID, counter, Set{Value: value})
}

// NewCloseInstruction closes [counter] and returns its lamports to [payer],
// who must be the payer recorded at initialization.
func NewCloseInstruction(programID, counter, payer codec.Address) *chain.Instruction {
	return &chain.Instruction{
		ProgramID: programID,
		Accounts: []chain.AccountMeta{
			{Address: counter, IsWritable: true},
			{Address: payer, IsSigner: true, IsWritable: true},
		},
		Data: Close{}.Data(),
	}
}

func mutation(programID, counter codec.Address, ix Instruction) *chain.Instruction {
	return &chain.Instruction{
		ProgramID: programID,
		Accounts: []chain.AccountMeta{
			{Address: counter, IsWritable: true},
		},
		Data: ix.Data(),
	}
}
