// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package querycache

import "errors"

var ErrNoSource = errors.New("no source for network")
