// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package chain

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/consts"
)

type Status uint8

const (
	// StatusUnknown means the ledger has no record of the transaction. It
	// may never have arrived or it may have aged out of the status window.
	StatusUnknown Status = iota
	StatusPending
	StatusConfirmed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// TxStatus is the ledger's view of a submitted transaction.
type TxStatus struct {
	ID     ids.ID `json:"id"`
	Status Status `json:"status"`
	Slot   uint64 `json:"slot"`

	// Code and Message describe why a failed transaction was not applied.
	Code    uint32 `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *TxStatus) Done() bool {
	return s.Status == StatusConfirmed || s.Status == StatusFailed
}

func (s *TxStatus) Marshal(p *codec.Packer) {
	p.PackByte(byte(s.Status))
	p.PackUint64(s.Slot)
	p.PackInt(s.Code)
	p.PackString(s.Message)
}

func UnmarshalTxStatus(id ids.ID, b []byte) (*TxStatus, error) {
	p := codec.NewReader(b, consts.NetworkSizeLimit)
	s := &TxStatus{ID: id}
	s.Status = Status(p.UnpackByte())
	s.Slot = p.UnpackUint64(false)
	s.Code = p.UnpackInt(false)
	s.Message = p.UnpackString(false)
	return s, p.Err()
}
