// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package cluster maps network names to the deployed counter program.
package cluster

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"

	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/program"
)

const (
	Localnet = "localnet"
	Devnet   = "devnet"
	Testnet  = "testnet"
	Mainnet  = "mainnet-beta"
)

// Resolver is an immutable network -> program ID table. It is safe for
// concurrent use.
type Resolver struct {
	programs map[string]codec.Address
}

// New copies [programs] into a new Resolver. Later changes to the map have
// no effect.
func New(programs map[string]codec.Address) (*Resolver, error) {
	r := &Resolver{programs: make(map[string]codec.Address, len(programs))}
	for network, programID := range programs {
		if network == "" {
			return nil, fmt.Errorf("%w: empty network name", ErrInvalidTable)
		}
		if programID == codec.EmptyAddress {
			return nil, fmt.Errorf("%w: empty program ID for %s", ErrInvalidTable, network)
		}
		r.programs[network] = programID
	}
	return r, nil
}

// Default resolves every well-known network to the canonical deployment.
func Default() *Resolver {
	r, err := New(map[string]codec.Address{
		Localnet: program.ID,
		Devnet:   program.ID,
		Testnet:  program.ID,
		Mainnet:  program.ID,
	})
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the counter program ID on [network].
func (r *Resolver) Resolve(network string) (codec.Address, error) {
	programID, ok := r.programs[network]
	if !ok {
		return codec.EmptyAddress, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}
	return programID, nil
}

// Networks lists the known networks in sorted order.
func (r *Resolver) Networks() []string {
	networks := maps.Keys(r.programs)
	slices.Sort(networks)
	return networks
}
