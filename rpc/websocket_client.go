// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/consts"
	"github.com/hivefi/counterchain/pubsub"
)

const (
	wsHandshakeTimeout = 10 * time.Second
	wsPendingMessages  = 1_024
)

// WebSocketClient streams slots and transaction outcomes from a node.
type WebSocketClient struct {
	conn *websocket.Conn
	wl   sync.Mutex

	slots chan *SlotMessage
	txs   chan *chain.TxStatus

	readErr error
	closing chan struct{}
	done    chan struct{}
	cl      sync.Once
}

// NewWebSocketClient dials the websocket endpoint of the node at [uri],
// which has the same form as the JSON-RPC client URI.
func NewWebSocketClient(uri string) (*WebSocketClient, error) {
	uri = strings.TrimSuffix(uri, "/")
	uri = strings.Replace(uri, "http://", "ws://", 1)
	uri = strings.Replace(uri, "https://", "wss://", 1)
	uri += WebSocketEndpoint

	dialer := websocket.Dialer{
		HandshakeTimeout: wsHandshakeTimeout,
	}
	conn, resp, err := dialer.Dial(uri, nil)
	if err != nil {
		return nil, err
	}
	_ = resp.Body.Close()

	c := &WebSocketClient{
		conn:    conn,
		slots:   make(chan *SlotMessage, wsPendingMessages),
		txs:     make(chan *chain.TxStatus, wsPendingMessages),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *WebSocketClient) readLoop() {
	defer close(c.done)

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.readErr = err
			return
		}
		msgs, err := pubsub.ParseBatchMessage(consts.NetworkSizeLimit, msg)
		if err != nil {
			c.readErr = err
			return
		}
		for _, m := range msgs {
			if len(m) == 0 {
				continue
			}
			switch m[0] {
			case SlotMode:
				sm, err := unpackSlotMessage(m)
				if err != nil {
					c.readErr = err
					return
				}
				select {
				case c.slots <- sm:
				case <-c.closing:
					return
				}
			case TxMode:
				status, err := unpackTxMessage(m)
				if err != nil {
					c.readErr = err
					return
				}
				select {
				case c.txs <- status:
				case <-c.closing:
					return
				}
			}
		}
	}
}

func (c *WebSocketClient) write(msg []byte) error {
	batch, err := pubsub.CreateBatchMessage(consts.NetworkSizeLimit, [][]byte{msg})
	if err != nil {
		return err
	}

	c.wl.Lock()
	defer c.wl.Unlock()

	return c.conn.WriteMessage(websocket.BinaryMessage, batch)
}

// RegisterSlots subscribes to every produced slot.
func (c *WebSocketClient) RegisterSlots() error {
	return c.write([]byte{SlotMode})
}

// RegisterTx submits [tx] and subscribes to its outcome.
func (c *WebSocketClient) RegisterTx(tx *chain.Transaction) error {
	return c.write(append([]byte{TxMode}, tx.Bytes()...))
}

// ListenSlot blocks until the next slot arrives.
func (c *WebSocketClient) ListenSlot(ctx context.Context) (*SlotMessage, error) {
	select {
	case sm := <-c.slots:
		return sm, nil
	case <-c.done:
		return nil, c.err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ListenTx blocks until the outcome of a registered transaction arrives.
func (c *WebSocketClient) ListenTx(ctx context.Context) (*chain.TxStatus, error) {
	select {
	case status := <-c.txs:
		return status, nil
	case <-c.done:
		return nil, c.err()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *WebSocketClient) err() error {
	if c.readErr != nil {
		return c.readErr
	}
	return ErrClosed
}

func (c *WebSocketClient) Close() error {
	var err error
	c.cl.Do(func() {
		close(c.closing)
		err = c.conn.Close()
		<-c.done
	})
	return err
}
