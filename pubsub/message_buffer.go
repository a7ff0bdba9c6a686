// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/ava-labs/avalanchego/utils/timer"
	"go.uber.org/zap"

	"github.com/hivefi/counterchain/consts"
)

// MessageBuffer groups outbound messages into batches. A batch is flushed
// when it would exceed [maxSize] or when [timeout] elapses after its first
// message.
type MessageBuffer struct {
	Queue chan []byte

	l            sync.Mutex
	log          logging.Logger
	pending      [][]byte
	pendingSize  int
	maxSize      int
	timeout      time.Duration
	pendingTimer *timer.Timer
	closed       bool
}

func NewMessageBuffer(log logging.Logger, pending int, maxSize int, timeout time.Duration) *MessageBuffer {
	m := &MessageBuffer{
		Queue: make(chan []byte, pending),

		log:         log,
		pending:     [][]byte{},
		pendingSize: consts.IntLen,
		maxSize:     maxSize,
		timeout:     timeout,
	}
	m.pendingTimer = timer.NewTimer(func() {
		m.l.Lock()
		defer m.l.Unlock()

		if m.closed {
			return
		}
		l := len(m.pending)
		if l == 0 {
			return
		}
		m.clearPending()
		log.Verbo("flushed pending messages", zap.Int("count", l))
	})
	go m.pendingTimer.Dispatch()
	return m
}

func (m *MessageBuffer) Close() error {
	m.l.Lock()
	defer m.l.Unlock()

	if m.closed {
		return ErrClosed
	}

	// The caller must drain Queue before the connection is closed for these
	// to reach the peer.
	m.clearPending()

	m.pendingTimer.Stop()
	m.closed = true
	close(m.Queue)
	return nil
}

func (m *MessageBuffer) clearPending() {
	if len(m.pending) == 0 {
		return
	}
	bm, err := CreateBatchMessage(m.maxSize, m.pending)
	if err != nil {
		m.log.Warn("unable to create batch", zap.Error(err))
	} else {
		select {
		case m.Queue <- bm:
		default:
			m.log.Debug("dropped pending batch", zap.Int("count", len(m.pending)))
		}
	}

	m.pendingSize = consts.IntLen
	m.pending = [][]byte{}
}

func (m *MessageBuffer) Send(msg []byte) error {
	m.l.Lock()
	defer m.l.Unlock()

	if m.closed {
		return ErrClosed
	}

	l := consts.IntLen + len(msg)
	if consts.IntLen+l > m.maxSize {
		return ErrMessageTooLarge
	}

	if m.pendingSize+l > m.maxSize {
		m.pendingTimer.Cancel()
		m.clearPending()
	}

	m.pendingSize += l
	m.pending = append(m.pending, msg)
	if len(m.pending) == 1 {
		m.pendingTimer.SetTimeoutIn(m.timeout)
	}
	return nil
}
