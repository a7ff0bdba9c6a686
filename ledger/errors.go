// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import "errors"

var (
	ErrInvalidConfig   = errors.New("invalid config")
	ErrFaucetDisabled  = errors.New("faucet disabled")
	ErrAirdropTooLarge = errors.New("airdrop too large")
	ErrInvalidAirdrop  = errors.New("airdrop amount must be positive")
)
