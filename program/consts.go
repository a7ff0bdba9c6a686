// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package program

import (
	"github.com/ava-labs/avalanchego/utils/hashing"

	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/consts"
)

const (
	Name = "counter"

	DiscriminatorLen = 8

	// CounterAccountSize is the fixed size of every counter buffer:
	// discriminator followed by a little-endian u64.
	CounterAccountSize = DiscriminatorLen + consts.Uint64Len
)

// Discriminator tags the start of account buffers and instruction data.
type Discriminator [DiscriminatorLen]byte

// NewDiscriminator hashes "<namespace>:<name>" and keeps the leading bytes,
// the layout Anchor programs use.
func NewDiscriminator(namespace, name string) Discriminator {
	var d Discriminator
	copy(d[:], hashing.ComputeHash256([]byte(namespace+":"+name)))
	return d
}

var (
	CounterDiscriminator = NewDiscriminator("account", "Counter")

	// ID is the default deployment of the counter program.
	ID = codec.Address(hashing.ComputeHash256Array([]byte("hivefi:" + Name)))

	// SystemProgramID owns accounts that only hold lamports.
	SystemProgramID = codec.EmptyAddress
)
