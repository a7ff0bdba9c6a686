// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package requester

import "errors"

// ErrRequestFailed means the request never produced a JSON-RPC response, so
// its effect on the server is unknown.
var ErrRequestFailed = errors.New("request failed")
