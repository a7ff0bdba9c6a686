// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"github.com/ava-labs/avalanchego/ids"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/consts"
)

const (
	SlotMode byte = 0
	TxMode   byte = 1
)

// SlotMessage is the notification streamed to slot listeners.
type SlotMessage struct {
	Slot      uint64
	Timestamp int64
	Statuses  []*chain.TxStatus
}

func packStatus(p *codec.Packer, s *chain.TxStatus) {
	p.PackID(s.ID)
	s.Marshal(p)
}

func unpackStatus(p *codec.Packer) *chain.TxStatus {
	s := &chain.TxStatus{}
	p.UnpackID(true, &s.ID)
	s.Status = chain.Status(p.UnpackByte())
	s.Slot = p.UnpackUint64(false)
	s.Code = p.UnpackInt(false)
	s.Message = p.UnpackString(false)
	return s
}

func packSlotMessage(m *SlotMessage) ([]byte, error) {
	p := codec.NewWriter(consts.ByteLen+consts.Uint64Len+consts.Int64Len, consts.NetworkSizeLimit)
	p.PackByte(SlotMode)
	p.PackUint64(m.Slot)
	p.PackInt64(m.Timestamp)
	p.PackInt(uint32(len(m.Statuses)))
	for _, s := range m.Statuses {
		packStatus(p, s)
	}
	return p.Bytes(), p.Err()
}

func unpackSlotMessage(b []byte) (*SlotMessage, error) {
	p := codec.NewReader(b, consts.NetworkSizeLimit)
	if mode := p.UnpackByte(); mode != SlotMode {
		return nil, ErrUnknownMessage
	}
	m := &SlotMessage{
		Slot:      p.UnpackUint64(true),
		Timestamp: p.UnpackInt64(false),
	}
	n := p.UnpackInt(false)
	// Each status is at least an ID.
	if int(n) > len(b)/consts.IDLen {
		return nil, ErrInvalidSize
	}
	m.Statuses = make([]*chain.TxStatus, 0, n)
	for i := uint32(0); i < n; i++ {
		m.Statuses = append(m.Statuses, unpackStatus(p))
	}
	return m, p.Err()
}

// packTxMessage packs the final status of a watched transaction. A tx that
// expired before reaching a slot is reported with chain.StatusUnknown.
func packTxMessage(s *chain.TxStatus) ([]byte, error) {
	p := codec.NewWriter(consts.ByteLen+consts.IDLen, consts.NetworkSizeLimit)
	p.PackByte(TxMode)
	packStatus(p, s)
	return p.Bytes(), p.Err()
}

func unpackTxMessage(b []byte) (*chain.TxStatus, error) {
	p := codec.NewReader(b, consts.NetworkSizeLimit)
	if mode := p.UnpackByte(); mode != TxMode {
		return nil, ErrUnknownMessage
	}
	s := unpackStatus(p)
	return s, p.Err()
}

func expiredStatus(id ids.ID) *chain.TxStatus {
	return &chain.TxStatus{ID: id, Status: chain.StatusUnknown}
}
