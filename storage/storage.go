// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/consts"
	"github.com/hivefi/counterchain/pebble"
	"github.com/hivefi/counterchain/program"
	"github.com/hivefi/counterchain/state"
	"github.com/hivefi/counterchain/utils"
)

// New opens the on-disk ledger database under [dataDir].
func New(cfg pebble.Config, dataDir string) (*pebble.Database, *prometheus.Registry, error) {
	path, err := utils.InitSubDirectory(dataDir, Namespace)
	if err != nil {
		return nil, nil, err
	}
	return pebble.New(path, cfg)
}

// [accountPrefix] + [address]
func AccountKey(addr codec.Address) []byte {
	k := make([]byte, consts.ByteLen+codec.AddressLen)
	k[0] = accountPrefix
	copy(k[1:], addr[:])
	return k
}

// [programIndexPrefix] + [program]
func ProgramIndexKey(programID codec.Address) []byte {
	k := make([]byte, consts.ByteLen+codec.AddressLen)
	k[0] = programIndexPrefix
	copy(k[1:], programID[:])
	return k
}

// [txStatusPrefix] + [txID]
func TxStatusKey(id ids.ID) []byte {
	k := make([]byte, consts.ByteLen+ids.IDLen)
	k[0] = txStatusPrefix
	copy(k[1:], id[:])
	return k
}

func LastSlotKey() []byte {
	return []byte{lastSlotPrefix}
}

func marshalAccount(acct *program.AccountView) []byte {
	p := codec.NewWriter(
		consts.Uint64Len+2*codec.AddressLen+codec.BytesLen(acct.Data),
		consts.NetworkSizeLimit,
	)
	p.PackUint64(acct.Lamports)
	p.PackAddress(acct.Owner)
	p.PackAddress(acct.Payer)
	p.PackBytes(acct.Data)
	return p.Bytes()
}

func unmarshalAccount(addr codec.Address, b []byte) (*program.AccountView, error) {
	p := codec.NewReader(b, consts.NetworkSizeLimit)
	acct := &program.AccountView{Address: addr}
	acct.Lamports = p.UnpackUint64(false)
	p.UnpackAddress(false, &acct.Owner)
	p.UnpackAddress(false, &acct.Payer)
	p.UnpackBytes(-1, false, &acct.Data)
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("%w: account %s: %w", ErrCorruptRecord, addr, err)
	}
	if !p.Empty() {
		return nil, fmt.Errorf("%w: account %s has trailing bytes", ErrCorruptRecord, addr)
	}
	return acct, nil
}

// GetAccount returns the record at [addr]. The bool is false when the
// address holds nothing.
func GetAccount(
	ctx context.Context,
	im state.Immutable,
	addr codec.Address,
) (*program.AccountView, bool, error) {
	v, err := im.GetValue(ctx, AccountKey(addr))
	return innerGetAccount(addr, v, err)
}

func innerGetAccount(
	addr codec.Address,
	v []byte,
	err error,
) (*program.AccountView, bool, error) {
	if errors.Is(err, database.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	acct, err := unmarshalAccount(addr, v)
	if err != nil {
		return nil, false, err
	}
	return acct, true, nil
}

func SetAccount(ctx context.Context, mu state.Mutable, acct *program.AccountView) error {
	return mu.Insert(ctx, AccountKey(acct.Address), marshalAccount(acct))
}

func DeleteAccount(ctx context.Context, mu state.Mutable, addr codec.Address) error {
	return mu.Remove(ctx, AccountKey(addr))
}

// GetBalance returns the lamports held at [addr], zero when it holds
// nothing.
func GetBalance(ctx context.Context, im state.Immutable, addr codec.Address) (uint64, error) {
	acct, ok, err := GetAccount(ctx, im, addr)
	if err != nil || !ok {
		return 0, err
	}
	return acct.Lamports, nil
}

// AddBalance credits [amount] to [addr], creating a system-owned account if
// it holds nothing yet.
func AddBalance(
	ctx context.Context,
	mu state.Mutable,
	addr codec.Address,
	amount uint64,
) (uint64, error) {
	acct, ok, err := GetAccount(ctx, mu, addr)
	if err != nil {
		return 0, err
	}
	if !ok {
		acct = &program.AccountView{Address: addr, Owner: program.SystemProgramID}
	}
	if acct.Lamports > consts.MaxUint64-amount {
		return 0, fmt.Errorf(
			"%w: could not add balance (bal=%d, addr=%s, amount=%d)",
			ErrInvalidBalance,
			acct.Lamports,
			addr,
			amount,
		)
	}
	acct.Lamports += amount
	return acct.Lamports, SetAccount(ctx, mu, acct)
}

// SubBalance debits [amount] from [addr]. System accounts left with no
// lamports are deleted rather than stored empty.
func SubBalance(
	ctx context.Context,
	mu state.Mutable,
	addr codec.Address,
	amount uint64,
) (uint64, error) {
	acct, ok, err := GetAccount(ctx, mu, addr)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrInvalidBalance
	}
	if acct.Lamports < amount {
		return 0, fmt.Errorf(
			"%w: could not subtract balance (bal=%d, addr=%s, amount=%d)",
			ErrInvalidBalance,
			acct.Lamports,
			addr,
			amount,
		)
	}
	nbal := acct.Lamports - amount
	if nbal == 0 && acct.Owner == program.SystemProgramID && len(acct.Data) == 0 {
		return 0, DeleteAccount(ctx, mu, addr)
	}
	acct.Lamports = nbal
	return nbal, SetAccount(ctx, mu, acct)
}

// GetProgramAccounts lists the addresses owned by [programID] in insertion
// order.
func GetProgramAccounts(
	ctx context.Context,
	im state.Immutable,
	programID codec.Address,
) ([]codec.Address, error) {
	v, err := im.GetValue(ctx, ProgramIndexKey(programID))
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p := codec.NewReader(v, maxIndexSize)
	n := int(p.UnpackInt(false))
	if n*codec.AddressLen > len(v) {
		return nil, fmt.Errorf("%w: program index claims %d entries", ErrCorruptRecord, n)
	}
	addrs := make([]codec.Address, n)
	for i := range addrs {
		p.UnpackAddress(false, &addrs[i])
	}
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("%w: program index: %w", ErrCorruptRecord, err)
	}
	return addrs, nil
}

func setProgramAccounts(
	ctx context.Context,
	mu state.Mutable,
	programID codec.Address,
	addrs []codec.Address,
) error {
	k := ProgramIndexKey(programID)
	if len(addrs) == 0 {
		return mu.Remove(ctx, k)
	}
	p := codec.NewWriter(consts.IntLen+len(addrs)*codec.AddressLen, maxIndexSize)
	p.PackInt(uint32(len(addrs)))
	for _, addr := range addrs {
		p.PackAddress(addr)
	}
	if err := p.Err(); err != nil {
		return err
	}
	return mu.Insert(ctx, k, p.Bytes())
}

// AddProgramAccount appends [addr] to the index of [programID]. Adding an
// address twice is a no-op.
func AddProgramAccount(
	ctx context.Context,
	mu state.Mutable,
	programID codec.Address,
	addr codec.Address,
) error {
	addrs, err := GetProgramAccounts(ctx, mu, programID)
	if err != nil {
		return err
	}
	for _, a := range addrs {
		if a == addr {
			return nil
		}
	}
	return setProgramAccounts(ctx, mu, programID, append(addrs, addr))
}

func RemoveProgramAccount(
	ctx context.Context,
	mu state.Mutable,
	programID codec.Address,
	addr codec.Address,
) error {
	addrs, err := GetProgramAccounts(ctx, mu, programID)
	if err != nil {
		return err
	}
	kept := addrs[:0]
	for _, a := range addrs {
		if a != addr {
			kept = append(kept, a)
		}
	}
	return setProgramAccounts(ctx, mu, programID, kept)
}

func GetTxStatus(ctx context.Context, im state.Immutable, id ids.ID) (*chain.TxStatus, bool, error) {
	v, err := im.GetValue(ctx, TxStatusKey(id))
	if errors.Is(err, database.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	s, err := chain.UnmarshalTxStatus(id, v)
	if err != nil {
		return nil, false, fmt.Errorf("%w: status %s: %w", ErrCorruptRecord, id, err)
	}
	return s, true, nil
}

func SetTxStatus(ctx context.Context, mu state.Mutable, s *chain.TxStatus) error {
	p := codec.NewWriter(
		consts.ByteLen+consts.Uint64Len+consts.Uint32Len+codec.StringLen(s.Message),
		consts.NetworkSizeLimit,
	)
	s.Marshal(p)
	if err := p.Err(); err != nil {
		return err
	}
	return mu.Insert(ctx, TxStatusKey(s.ID), p.Bytes())
}

func DeleteTxStatus(ctx context.Context, mu state.Mutable, id ids.ID) error {
	return mu.Remove(ctx, TxStatusKey(id))
}

func GetLastSlot(ctx context.Context, im state.Immutable) (uint64, error) {
	v, err := im.GetValue(ctx, LastSlotKey())
	if errors.Is(err, database.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return database.ParseUInt64(v)
}

func SetLastSlot(ctx context.Context, mu state.Mutable, slot uint64) error {
	return mu.Insert(ctx, LastSlotKey(), database.PackUInt64(slot))
}
