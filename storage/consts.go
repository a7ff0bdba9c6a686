// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

// Namespace is the subdirectory of the data dir that holds ledger state.
const Namespace = "ledgerdb"

// State
// 0x0/ (accounts)
//   -> [address] => lamports|owner|payer|data
// 0x1/ (program index)
//   -> [program] => [address]...
// 0x2/ (tx status)
//   -> [txID] => status|slot|code|message
// 0x3/ (last slot)
const (
	accountPrefix byte = iota
	programIndexPrefix
	txStatusPrefix
	lastSlotPrefix
)

// maxIndexSize bounds the encoded program index.
const maxIndexSize = 64 * 1024 * 1024
