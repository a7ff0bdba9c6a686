// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"strings"
	"sync"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/program"
	"github.com/hivefi/counterchain/requester"
)

type JSONRPCClient struct {
	requester *requester.EndpointRequester

	mu        sync.Mutex
	chainID   ids.ID
	programID codec.Address
}

func NewJSONRPCClient(uri string) *JSONRPCClient {
	uri = strings.TrimSuffix(uri, "/")
	uri += JSONRPCEndpoint
	req := requester.New(uri, Name)
	return &JSONRPCClient{requester: req}
}

func (cli *JSONRPCClient) Ping(ctx context.Context) (bool, error) {
	resp := new(PingReply)
	err := cli.requester.SendRequest(ctx,
		"ping",
		nil,
		resp,
	)
	return resp.Success, err
}

// Network returns the chain ID and counter program ID the node serves. The
// answer never changes, so it is fetched once.
func (cli *JSONRPCClient) Network(ctx context.Context) (ids.ID, codec.Address, error) {
	cli.mu.Lock()
	chainID, programID := cli.chainID, cli.programID
	cli.mu.Unlock()
	if chainID != ids.Empty {
		return chainID, programID, nil
	}

	resp := new(NetworkReply)
	err := cli.requester.SendRequest(
		ctx,
		"network",
		nil,
		resp,
	)
	if err != nil {
		return ids.Empty, codec.EmptyAddress, err
	}
	cli.mu.Lock()
	cli.chainID = resp.ChainID
	cli.programID = resp.ProgramID
	cli.mu.Unlock()
	return resp.ChainID, resp.ProgramID, nil
}

// SubmitTx sends a signed transaction. A rejection by the node is returned
// as the matching chain sentinel error together with the tx ID.
func (cli *JSONRPCClient) SubmitTx(ctx context.Context, d []byte) (ids.ID, error) {
	resp := new(SubmitTxReply)
	err := cli.requester.SendRequest(
		ctx,
		"submitTx",
		&SubmitTxArgs{Tx: d},
		resp,
	)
	if err != nil {
		return ids.Empty, err
	}
	if resp.Code != 0 {
		return resp.TxID, program.ErrorFromCode(resp.Code, resp.Error)
	}
	return resp.TxID, nil
}

func (cli *JSONRPCClient) TxStatus(ctx context.Context, txID ids.ID) (*chain.TxStatus, error) {
	resp := new(TxStatusReply)
	err := cli.requester.SendRequest(
		ctx,
		"getTxStatus",
		&TxStatusArgs{TxID: txID},
		resp,
	)
	if err != nil {
		return nil, err
	}
	if resp.Status == nil {
		return &chain.TxStatus{ID: txID}, nil
	}
	return resp.Status, nil
}

func (cli *JSONRPCClient) GetAccount(ctx context.Context, addr codec.Address) (*program.AccountView, bool, error) {
	resp := new(AccountReply)
	err := cli.requester.SendRequest(
		ctx,
		"getAccount",
		&AccountArgs{Address: addr},
		resp,
	)
	if err != nil {
		return nil, false, err
	}
	if !resp.Found {
		return nil, false, nil
	}
	return resp.Account, true, nil
}

func (cli *JSONRPCClient) GetProgramAccounts(ctx context.Context, programID codec.Address) ([]*program.AccountView, error) {
	resp := new(ProgramAccountsReply)
	err := cli.requester.SendRequest(
		ctx,
		"getProgramAccounts",
		&ProgramAccountsArgs{ProgramID: programID},
		resp,
	)
	return resp.Accounts, err
}

func (cli *JSONRPCClient) GetBalance(ctx context.Context, addr codec.Address) (uint64, error) {
	resp := new(BalanceReply)
	err := cli.requester.SendRequest(
		ctx,
		"getBalance",
		&BalanceArgs{Address: addr},
		resp,
	)
	return resp.Lamports, err
}

func (cli *JSONRPCClient) RequestAirdrop(ctx context.Context, addr codec.Address, lamports uint64) (uint64, error) {
	resp := new(AirdropReply)
	err := cli.requester.SendRequest(
		ctx,
		"requestAirdrop",
		&AirdropArgs{Address: addr, Lamports: lamports},
		resp,
	)
	return resp.Balance, err
}

func (cli *JSONRPCClient) LastSlot(ctx context.Context) (uint64, error) {
	resp := new(LastSlotReply)
	err := cli.requester.SendRequest(
		ctx,
		"lastSlot",
		nil,
		resp,
	)
	return resp.Slot, err
}

func (cli *JSONRPCClient) GetMinimumBalanceForRentExemption(ctx context.Context, size int) (uint64, error) {
	resp := new(RentExemptionReply)
	err := cli.requester.SendRequest(
		ctx,
		"getMinimumBalanceForRentExemption",
		&RentExemptionArgs{Size: size},
		resp,
	)
	return resp.Lamports, err
}
