// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/program"
)

// Ledger is what the JSON-RPC server needs from the node.
type Ledger interface {
	Logger() logging.Logger
	ChainID() ids.ID
	ProgramID() codec.Address
	RentExemptMinimum(size int) uint64

	Submit(ctx context.Context, tx *chain.Transaction) error
	TxStatus(ctx context.Context, id ids.ID) (*chain.TxStatus, error)
	GetAccount(ctx context.Context, addr codec.Address) (*program.AccountView, bool, error)
	GetBalance(ctx context.Context, addr codec.Address) (uint64, error)
	GetProgramAccounts(ctx context.Context, programID codec.Address) ([]*program.AccountView, error)
	RequestAirdrop(ctx context.Context, addr codec.Address, lamports uint64) (uint64, error)
	LastSlot(ctx context.Context) (uint64, error)
}
