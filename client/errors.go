// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package client

import "errors"

var ErrProgramMismatch = errors.New("node serves a different counter program")
