// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package config

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid config")
	ErrUnknownEndpoint = errors.New("no endpoint configured for network")
)
