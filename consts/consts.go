// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package consts

import "github.com/ava-labs/avalanchego/utils/units"

const (
	ByteLen   = 1
	BoolLen   = 1
	IDLen     = 32
	IntLen    = 4
	Uint16Len = 2
	Uint32Len = 4
	Uint64Len = 8
	Int64Len  = 8
	MaxUint64 = ^uint64(0)
	MaxUint   = ^uint(0)
	MaxInt    = int(MaxUint >> 1)

	// NetworkSizeLimit bounds any single encoded transaction or RPC payload.
	NetworkSizeLimit = 2 * units.MiB

	// MillisecondsPerSecond is used when converting expiry timestamps.
	MillisecondsPerSecond = 1000
)
