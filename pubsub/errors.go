// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import "errors"

var (
	ErrClosed          = errors.New("message buffer closed")
	ErrMessageTooLarge = errors.New("message too large")
	ErrExtraBytes      = errors.New("extra bytes in batch")
)
