// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"net/http"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Server upgrades HTTP requests to websocket connections and fans out
// published messages to them. It is mounted like any other http.Handler.
type Server struct {
	log      logging.Logger
	config   ServerConfig
	upgrader websocket.Upgrader

	conns *Connections

	// Called for every message read from a peer, if not nil.
	callback Callback
}

func New(log logging.Logger, config ServerConfig, callback Callback) *Server {
	return &Server{
		log:    log,
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
		conns:    NewConnections(),
		callback: callback,
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	wsConn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("failed to upgrade",
			zap.Error(err),
		)
		return
	}
	conn := &Connection{
		s:    s,
		conn: wsConn,
		mb: NewMessageBuffer(
			s.log,
			s.config.MaxPendingMessages,
			s.config.MaxWriteMessageSize,
			s.config.TargetWriteDuration,
		),
	}
	conn.active.Store(true)
	s.conns.Add(conn)

	go conn.writePump()
	go conn.readPump()
}

// Publish sends [msg] to every connection in [toConns] still held by [s]
// and returns the connections that are gone.
func (s *Server) Publish(msg []byte, toConns *Connections) []*Connection {
	var inactive []*Connection
	for _, conn := range toConns.Conns() {
		if !s.conns.Has(conn) {
			inactive = append(inactive, conn)
			continue
		}
		if !conn.Send(msg) {
			s.log.Verbo(
				"dropping message to subscribed connection due to too many pending messages",
			)
		}
	}
	return inactive
}

// Connections returns the number of live peers.
func (s *Server) Connections() int {
	return s.conns.Len()
}

func (s *Server) removeConnection(conn *Connection) {
	s.conns.Remove(conn)
}
