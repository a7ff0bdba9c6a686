// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/ids"

	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/program"
)

// Solana's defaults: an account must hold two years of rent to be exempt,
// and every account is charged for 128 bytes of metadata on top of its data.
const (
	DefaultLamportsPerByteYear = 3_480
	DefaultExemptionThreshold  = 2
	AccountStorageOverhead     = 128
)

type Config struct {
	ChainID   ids.ID
	ProgramID codec.Address

	// SlotInterval is how often queued transactions are applied.
	SlotInterval time.Duration

	// ValidityWindow bounds how far in the future a transaction may expire.
	ValidityWindow time.Duration

	// StatusRetention is how long statuses and replay protection outlive a
	// transaction's expiry.
	StatusRetention time.Duration

	MaxPending     int
	ExecutionCores int

	LamportsPerByteYear uint64
	ExemptionThreshold  uint64

	// MaxAirdrop caps a single faucet request. Zero disables the faucet.
	MaxAirdrop uint64
}

func NewDefaultConfig() Config {
	return Config{
		ChainID:             ids.ID{'c', 'o', 'u', 'n', 't', 'e', 'r'},
		ProgramID:           program.ID,
		SlotInterval:        400 * time.Millisecond,
		ValidityWindow:      60 * time.Second,
		StatusRetention:     2 * time.Minute,
		MaxPending:          4_096,
		ExecutionCores:      4,
		LamportsPerByteYear: DefaultLamportsPerByteYear,
		ExemptionThreshold:  DefaultExemptionThreshold,
		MaxAirdrop:          100_000_000_000,
	}
}

func (c *Config) Validate() error {
	switch {
	case c.ChainID == ids.Empty:
		return fmt.Errorf("%w: chainID is empty", ErrInvalidConfig)
	case c.ProgramID == codec.EmptyAddress:
		return fmt.Errorf("%w: programID is empty", ErrInvalidConfig)
	case c.SlotInterval <= 0:
		return fmt.Errorf("%w: slotInterval must be positive", ErrInvalidConfig)
	case c.ValidityWindow <= 0:
		return fmt.Errorf("%w: validityWindow must be positive", ErrInvalidConfig)
	case c.MaxPending <= 0:
		return fmt.Errorf("%w: maxPending must be positive", ErrInvalidConfig)
	case c.ExemptionThreshold == 0:
		return fmt.Errorf("%w: exemptionThreshold must be positive", ErrInvalidConfig)
	}
	return nil
}

// RentExemptMinimum is the balance an account of [size] data bytes must
// hold to never be charged rent.
func (c *Config) RentExemptMinimum(size int) uint64 {
	return (AccountStorageOverhead + uint64(size)) * c.LamportsPerByteYear * c.ExemptionThreshold
}
