// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import "errors"

var (
	ErrKeyNotSpecified  = errors.New("key not specified")
	ErrWriteNotAllowed  = errors.New("write not allowed")
	ErrAllocateDisabled = errors.New("allocation not allowed")
)
