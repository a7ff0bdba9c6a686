// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package rpc

import "errors"

var (
	ErrInvalidSize    = errors.New("invalid account size")
	ErrClosed         = errors.New("websocket client closed")
	ErrUnknownMessage = errors.New("unknown websocket message")
)
