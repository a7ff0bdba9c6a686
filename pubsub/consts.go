// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"time"

	"github.com/ava-labs/avalanchego/utils/units"
)

type ServerConfig struct {
	// Size of the ws read and write buffers.
	ReadBufferSize  int `yaml:"readBufferSize"`
	WriteBufferSize int `yaml:"writeBufferSize"`

	// Maximum number of pending messages to send to a peer.
	MaxPendingMessages int `yaml:"maxPendingMessages"`

	// Maximum size of a batch read from a peer.
	MaxReadMessageSize int `yaml:"maxReadMessageSize"`

	// Maximum size of a batch written to a peer.
	MaxWriteMessageSize int `yaml:"maxWriteMessageSize"`

	// How long messages are held before a partial batch is flushed.
	TargetWriteDuration time.Duration `yaml:"targetWriteDuration"`

	// Time allowed to write a message to the peer.
	WriteWait time.Duration `yaml:"writeWait"`

	// Time allowed to read the next pong message from the peer.
	PongWait time.Duration `yaml:"pongWait"`

	// Send pings to peer with this period. Must be less than PongWait.
	PingPeriod time.Duration `yaml:"pingPeriod"`
}

func NewDefaultServerConfig() ServerConfig {
	return ServerConfig{
		ReadBufferSize:      units.KiB,
		WriteBufferSize:     units.KiB,
		MaxPendingMessages:  1_024,
		MaxReadMessageSize:  256 * units.KiB,
		MaxWriteMessageSize: 2 * units.MiB,
		TargetWriteDuration: 10 * time.Millisecond,
		WriteWait:           10 * time.Second,
		PongWait:            60 * time.Second,
		PingPeriod:          54 * time.Second,
	}
}
