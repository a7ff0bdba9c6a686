// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"fmt"
	"net/http"

	"github.com/ava-labs/avalanchego/ids"
	"go.uber.org/zap"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/program"
)

type JSONRPCServer struct {
	ledger Ledger
}

func NewJSONRPCServer(ledger Ledger) *JSONRPCServer {
	return &JSONRPCServer{ledger}
}

type PingReply struct {
	Success bool `json:"success"`
}

func (j *JSONRPCServer) Ping(_ *http.Request, _ *struct{}, reply *PingReply) (err error) {
	j.ledger.Logger().Info("ping")
	reply.Success = true
	return nil
}

type NetworkReply struct {
	ChainID   ids.ID        `json:"chainId"`
	ProgramID codec.Address `json:"programId"`
}

func (j *JSONRPCServer) Network(_ *http.Request, _ *struct{}, reply *NetworkReply) (err error) {
	reply.ChainID = j.ledger.ChainID()
	reply.ProgramID = j.ledger.ProgramID()
	return nil
}

type SubmitTxArgs struct {
	Tx []byte `json:"tx"`
}

// SubmitTxReply carries rejections as codes so the client can map them back
// to the same sentinel errors. A zero Code means the tx is pending.
type SubmitTxReply struct {
	TxID  ids.ID `json:"txId"`
	Code  uint32 `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

func (j *JSONRPCServer) SubmitTx(
	req *http.Request,
	args *SubmitTxArgs,
	reply *SubmitTxReply,
) error {
	tx, err := chain.ParseTx(args.Tx)
	if err != nil {
		reply.Code = chain.ErrMalformedTx.Code
		reply.Error = fmt.Sprintf("%s: %v", chain.ErrMalformedTx, err)
		return nil
	}
	reply.TxID = tx.ID()
	if err := j.ledger.Submit(req.Context(), tx); err != nil {
		code, ok := chain.CodeOf(err)
		if !ok {
			return err
		}
		reply.Code = code
		reply.Error = err.Error()
		j.ledger.Logger().Debug("tx rejected",
			zap.Stringer("txID", reply.TxID),
			zap.Uint32("code", code),
		)
	}
	return nil
}

type TxStatusArgs struct {
	TxID ids.ID `json:"txId"`
}

type TxStatusReply struct {
	Status *chain.TxStatus `json:"status"`
}

func (j *JSONRPCServer) GetTxStatus(req *http.Request, args *TxStatusArgs, reply *TxStatusReply) error {
	status, err := j.ledger.TxStatus(req.Context(), args.TxID)
	if err != nil {
		return err
	}
	reply.Status = status
	return nil
}

type AccountArgs struct {
	Address codec.Address `json:"address"`
}

type AccountReply struct {
	Found   bool                 `json:"found"`
	Account *program.AccountView `json:"account,omitempty"`
}

func (j *JSONRPCServer) GetAccount(req *http.Request, args *AccountArgs, reply *AccountReply) error {
	acct, ok, err := j.ledger.GetAccount(req.Context(), args.Address)
	if err != nil {
		return err
	}
	reply.Found = ok
	reply.Account = acct
	return nil
}

type ProgramAccountsArgs struct {
	ProgramID codec.Address `json:"programId"`
}

type ProgramAccountsReply struct {
	Accounts []*program.AccountView `json:"accounts"`
}

func (j *JSONRPCServer) GetProgramAccounts(
	req *http.Request,
	args *ProgramAccountsArgs,
	reply *ProgramAccountsReply,
) error {
	accts, err := j.ledger.GetProgramAccounts(req.Context(), args.ProgramID)
	if err != nil {
		return err
	}
	reply.Accounts = accts
	return nil
}

type BalanceArgs struct {
	Address codec.Address `json:"address"`
}

type BalanceReply struct {
	Lamports uint64 `json:"lamports"`
}

func (j *JSONRPCServer) GetBalance(req *http.Request, args *BalanceArgs, reply *BalanceReply) error {
	bal, err := j.ledger.GetBalance(req.Context(), args.Address)
	if err != nil {
		return err
	}
	reply.Lamports = bal
	return nil
}

type AirdropArgs struct {
	Address  codec.Address `json:"address"`
	Lamports uint64        `json:"lamports"`
}

type AirdropReply struct {
	Balance uint64 `json:"balance"`
}

func (j *JSONRPCServer) RequestAirdrop(req *http.Request, args *AirdropArgs, reply *AirdropReply) error {
	bal, err := j.ledger.RequestAirdrop(req.Context(), args.Address, args.Lamports)
	if err != nil {
		return err
	}
	reply.Balance = bal
	return nil
}

type LastSlotReply struct {
	Slot uint64 `json:"slot"`
}

func (j *JSONRPCServer) LastSlot(req *http.Request, _ *struct{}, reply *LastSlotReply) error {
	slot, err := j.ledger.LastSlot(req.Context())
	if err != nil {
		return err
	}
	reply.Slot = slot
	return nil
}

type RentExemptionArgs struct {
	Size int `json:"size"`
}

type RentExemptionReply struct {
	Lamports uint64 `json:"lamports"`
}

func (j *JSONRPCServer) GetMinimumBalanceForRentExemption(
	_ *http.Request,
	args *RentExemptionArgs,
	reply *RentExemptionReply,
) error {
	if args.Size < 0 {
		return ErrInvalidSize
	}
	reply.Lamports = j.ledger.RentExemptMinimum(args.Size)
	return nil
}
