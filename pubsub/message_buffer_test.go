// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"
)

func TestMessageBufferFlushOnSize(t *testing.T) {
	require := require.New(t)

	// Room for exactly two three-byte messages.
	mb := NewMessageBuffer(logging.NoLog{}, 10, 18, time.Hour)
	require.NoError(mb.Send([]byte("abc")))
	require.NoError(mb.Send([]byte("def")))
	require.Empty(mb.Queue)
	require.NoError(mb.Send([]byte("ghi")))

	batch := <-mb.Queue
	msgs, err := ParseBatchMessage(18, batch)
	require.NoError(err)
	require.Equal([][]byte{[]byte("abc"), []byte("def")}, msgs)

	require.NoError(mb.Close())
	batch, ok := <-mb.Queue
	require.True(ok)
	msgs, err = ParseBatchMessage(18, batch)
	require.NoError(err)
	require.Equal([][]byte{[]byte("ghi")}, msgs)

	_, ok = <-mb.Queue
	require.False(ok)
	require.ErrorIs(mb.Close(), ErrClosed)
	require.ErrorIs(mb.Send([]byte("x")), ErrClosed)
}

func TestMessageBufferFlushOnTimeout(t *testing.T) {
	require := require.New(t)

	mb := NewMessageBuffer(logging.NoLog{}, 10, 1024, 10*time.Millisecond)
	defer func() {
		require.NoError(mb.Close())
	}()
	require.NoError(mb.Send([]byte("hello")))

	select {
	case batch := <-mb.Queue:
		msgs, err := ParseBatchMessage(1024, batch)
		require.NoError(err)
		require.Equal([][]byte{[]byte("hello")}, msgs)
	case <-time.After(5 * time.Second):
		require.FailNow("batch not flushed")
	}
}

func TestMessageBufferTooLarge(t *testing.T) {
	mb := NewMessageBuffer(logging.NoLog{}, 10, 8, time.Hour)
	require.ErrorIs(t, mb.Send(make([]byte, 8)), ErrMessageTooLarge)
	require.NoError(t, mb.Close())
}

func TestParseBatchMessage(t *testing.T) {
	require := require.New(t)

	msg, err := CreateBatchMessage(1024, [][]byte{{1}, {2, 3}, {}})
	require.NoError(err)
	msgs, err := ParseBatchMessage(1024, msg)
	require.NoError(err)
	require.Len(msgs, 3)
	require.Equal([]byte{2, 3}, msgs[1])

	_, err = ParseBatchMessage(1024, append(msg, 0))
	require.ErrorIs(err, ErrExtraBytes)

	_, err = ParseBatchMessage(1024, []byte{0xff, 0xff, 0xff, 0xff})
	require.ErrorIs(err, ErrMessageTooLarge)

	_, err = CreateBatchMessage(4, [][]byte{{1}})
	require.ErrorIs(err, ErrMessageTooLarge)
}
