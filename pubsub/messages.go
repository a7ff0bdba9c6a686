// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/consts"
)

// CreateBatchMessage packs [msgs] into a single websocket frame.
func CreateBatchMessage(maxSize int, msgs [][]byte) ([]byte, error) {
	size := consts.IntLen
	for _, msg := range msgs {
		size += codec.BytesLen(msg)
	}
	if size > maxSize {
		return nil, ErrMessageTooLarge
	}
	p := codec.NewWriter(size, maxSize)
	p.PackInt(uint32(len(msgs)))
	for _, msg := range msgs {
		p.PackBytes(msg)
	}
	return p.Bytes(), p.Err()
}

// ParseBatchMessage splits a frame produced by CreateBatchMessage.
func ParseBatchMessage(maxSize int, msg []byte) ([][]byte, error) {
	p := codec.NewReader(msg, maxSize)
	n := p.UnpackInt(false)
	// Every item carries at least a length prefix.
	if int(n) > len(msg)/consts.IntLen {
		return nil, ErrMessageTooLarge
	}
	msgs := make([][]byte, 0, n)
	for i := uint32(0); i < n; i++ {
		var m []byte
		p.UnpackBytes(maxSize, false, &m)
		msgs = append(msgs, m)
	}
	if err := p.Err(); err != nil {
		return nil, err
	}
	if !p.Empty() {
		return nil, ErrExtraBytes
	}
	return msgs, nil
}
