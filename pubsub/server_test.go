// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	return conn
}

func readBatch(t *testing.T, conn *websocket.Conn) [][]byte {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	msgs, err := ParseBatchMessage(NewDefaultServerConfig().MaxWriteMessageSize, msg)
	require.NoError(t, err)
	return msgs
}

func TestServerPublish(t *testing.T) {
	require := require.New(t)

	server := New(logging.NoLog{}, NewDefaultServerConfig(), nil)
	srv := httptest.NewServer(server)
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(func() bool {
		return server.Connections() == 1
	}, 5*time.Second, 5*time.Millisecond)

	subscribers := NewConnections()
	subscribers.Add(server.conns.Conns()[0])
	require.Empty(server.Publish([]byte("slot"), subscribers))
	require.Equal([][]byte{[]byte("slot")}, readBatch(t, conn))

	require.NoError(conn.Close())
	require.Eventually(func() bool {
		return server.Connections() == 0
	}, 5*time.Second, 5*time.Millisecond)

	inactive := server.Publish([]byte("gone"), subscribers)
	require.Len(inactive, 1)
}

func TestServerCallback(t *testing.T) {
	require := require.New(t)

	// Echo every message back to its sender.
	server := New(logging.NoLog{}, NewDefaultServerConfig(), func(msg []byte, c *Connection) {
		c.Send(append([]byte("echo:"), msg...))
	})
	srv := httptest.NewServer(server)
	defer srv.Close()

	conn := dial(t, srv)
	defer conn.Close()

	batch, err := CreateBatchMessage(1024, [][]byte{[]byte("a"), []byte("b")})
	require.NoError(err)
	require.NoError(conn.WriteMessage(websocket.BinaryMessage, batch))

	var got [][]byte
	for len(got) < 2 {
		got = append(got, readBatch(t, conn)...)
	}
	require.Equal([][]byte{[]byte("echo:a"), []byte("echo:b")}, got)
	require.Equal(1, server.Connections())
}
