// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import (
	"context"
	"errors"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"go.uber.org/zap"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/emap"
	"github.com/hivefi/counterchain/ledger"
	"github.com/hivefi/counterchain/pubsub"
)

var _ ledger.SlotListener = (*WebSocketServer)(nil)

// WebSocketServer streams produced slots and the outcome of transactions
// submitted over the socket.
type WebSocketServer struct {
	ledger Ledger
	tracer trace.Tracer

	s *pubsub.Server

	slotListeners *pubsub.Connections

	txL         sync.Mutex
	txListeners map[ids.ID]*pubsub.Connections
	// Every watched tx is answered by its expiry at the latest.
	expiringTxs *emap.EMap[*chain.Transaction]
}

func NewWebSocketServer(
	l Ledger,
	tracer trace.Tracer,
	cfg pubsub.ServerConfig,
) (*WebSocketServer, *pubsub.Server) {
	w := &WebSocketServer{
		ledger:        l,
		tracer:        tracer,
		slotListeners: pubsub.NewConnections(),
		txListeners:   map[ids.ID]*pubsub.Connections{},
		expiringTxs:   emap.NewEMap[*chain.Transaction](),
	}
	w.s = pubsub.New(l.Logger(), cfg, w.MessageCallback())
	return w, w.s
}

func (w *WebSocketServer) AddTxListener(tx *chain.Transaction, c *pubsub.Connection) {
	w.txL.Lock()
	defer w.txL.Unlock()

	txID := tx.ID()
	connections, ok := w.txListeners[txID]
	if !ok {
		connections = pubsub.NewConnections()
		w.txListeners[txID] = connections
	}
	connections.Add(c)
	w.expiringTxs.Add([]*chain.Transaction{tx})
}

// publishTx answers every listener of [status.ID]. Must hold [txL].
func (w *WebSocketServer) publishTx(status *chain.TxStatus) {
	listeners, ok := w.txListeners[status.ID]
	if !ok {
		return
	}
	msg, err := packTxMessage(status)
	if err != nil {
		w.ledger.Logger().Warn("unable to pack tx message",
			zap.Stringer("txID", status.ID),
			zap.Error(err),
		)
		return
	}
	// Inactive connections are dropped with the listener set.
	_ = w.s.Publish(msg, listeners)
	delete(w.txListeners, status.ID)
	// [expiringTxs] does not support removal and is cleared by SetMin.
}

func (w *WebSocketServer) setMinTx(t int64) {
	expired := w.expiringTxs.SetMin(t)
	for _, id := range expired {
		w.publishTx(expiredStatus(id))
	}
	if exp := len(expired); exp > 0 {
		w.ledger.Logger().Debug("expired listeners", zap.Int("count", exp))
	}
}

func (w *WebSocketServer) AcceptSlot(ctx context.Context, res *ledger.SlotResult) error {
	_, span := w.tracer.Start(ctx, "WebSocketServer.AcceptSlot")
	defer span.End()

	if w.slotListeners.Len() > 0 {
		msg, err := packSlotMessage(&SlotMessage{
			Slot:      res.Slot,
			Timestamp: res.Timestamp,
			Statuses:  res.Statuses,
		})
		if err != nil {
			return err
		}
		w.slotListeners.RemoveAll(w.s.Publish(msg, w.slotListeners))
	}

	w.txL.Lock()
	defer w.txL.Unlock()

	for _, status := range res.Statuses {
		w.publishTx(status)
	}
	w.setMinTx(res.Timestamp)
	return nil
}

func (w *WebSocketServer) MessageCallback() pubsub.Callback {
	log := w.ledger.Logger()
	return func(msgBytes []byte, c *pubsub.Connection) {
		ctx, span := w.tracer.Start(context.Background(), "WebSocketServer.Callback")
		defer span.End()

		if len(msgBytes) == 0 {
			log.Debug("empty websocket message")
			return
		}

		switch msgBytes[0] {
		case SlotMode:
			if !w.slotListeners.Add(c) {
				log.Debug("slot listener already registered")
				return
			}
			log.Debug("added slot listener")
		case TxMode:
			tx, err := chain.ParseTx(msgBytes[1:])
			if err != nil {
				log.Debug("failed to unmarshal tx",
					zap.Int("len", len(msgBytes)),
					zap.Error(err),
				)
				return
			}

			w.AddTxListener(tx, c)

			txID := tx.ID()
			err = w.ledger.Submit(ctx, tx)
			switch {
			case err == nil:
				log.Debug("submitted tx", zap.Stringer("txID", txID))
			case errors.Is(err, chain.ErrDuplicateTx):
				// The earlier copy answers the listener.
			default:
				code, _ := chain.CodeOf(err)
				w.txL.Lock()
				w.publishTx(&chain.TxStatus{
					ID:      txID,
					Status:  chain.StatusFailed,
					Code:    code,
					Message: err.Error(),
				})
				w.txL.Unlock()
				log.Debug("failed to submit tx",
					zap.Stringer("txID", txID),
					zap.Error(err),
				)
			}
		default:
			log.Debug("unexpected message type",
				zap.Int("len", len(msgBytes)),
				zap.Uint8("mode", msgBytes[0]),
			)
		}
	}
}
