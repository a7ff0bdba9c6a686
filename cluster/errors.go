// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package cluster

import "errors"

var (
	ErrUnknownNetwork = errors.New("unknown network")
	ErrInvalidTable   = errors.New("invalid program table")
)
