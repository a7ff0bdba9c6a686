// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/consts"
)

const (
	// MaxAccounts bounds the account list of a single instruction.
	MaxAccounts = 16

	accountMetaSize = codec.AddressLen + 2*consts.BoolLen
)

// AccountMeta describes how an instruction uses an account.
type AccountMeta struct {
	Address    codec.Address `json:"address"`
	IsSigner   bool          `json:"isSigner"`
	IsWritable bool          `json:"isWritable"`
}

// Instruction is a single requested state transition: the program to
// invoke, the accounts it touches and opaque program-defined data.
type Instruction struct {
	ProgramID codec.Address `json:"programId"`
	Accounts  []AccountMeta `json:"accounts"`
	Data      []byte        `json:"data"`
}

// Account returns the [i]th account meta, if present.
func (ix *Instruction) Account(i int) (AccountMeta, bool) {
	if i < 0 || i >= len(ix.Accounts) {
		return AccountMeta{}, false
	}
	return ix.Accounts[i], true
}

func (ix *Instruction) Size() int {
	return codec.AddressLen + consts.ByteLen + len(ix.Accounts)*accountMetaSize + codec.BytesLen(ix.Data)
}

func (ix *Instruction) Marshal(p *codec.Packer) {
	p.PackAddress(ix.ProgramID)
	p.PackByte(byte(len(ix.Accounts)))
	for _, meta := range ix.Accounts {
		p.PackAddress(meta.Address)
		p.PackBool(meta.IsSigner)
		p.PackBool(meta.IsWritable)
	}
	p.PackBytes(ix.Data)
}

func UnmarshalInstruction(p *codec.Packer) (*Instruction, error) {
	var ix Instruction
	p.UnpackAddress(true, &ix.ProgramID)
	n := int(p.UnpackByte())
	if n > MaxAccounts {
		return nil, ErrTooManyAccounts
	}
	ix.Accounts = make([]AccountMeta, n)
	for i := range ix.Accounts {
		p.UnpackAddress(true, &ix.Accounts[i].Address)
		ix.Accounts[i].IsSigner = p.UnpackBool()
		ix.Accounts[i].IsWritable = p.UnpackBool()
	}
	p.UnpackBytes(consts.NetworkSizeLimit, false, &ix.Data)
	return &ix, p.Err()
}
