// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package client is the data-access layer for counter accounts on one
// network. Mutations go through the submitter and reads through the query
// cache; every confirmed mutation refreshes the affected entry.
package client

import (
	"context"
	"fmt"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/cluster"
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/crypto/ed25519"
	"github.com/hivefi/counterchain/program"
	"github.com/hivefi/counterchain/querycache"
	"github.com/hivefi/counterchain/submitter"
)

// Mutation is the outcome of a confirmed instruction.
type Mutation struct {
	TxID    ids.ID        `json:"txId"`
	Slot    uint64        `json:"slot"`
	Address codec.Address `json:"address"`

	// Account is the value read back after confirmation. It is nil after a
	// close, or if the read-back failed.
	Account *program.CounterAccount `json:"account,omitempty"`
}

type Client struct {
	log       logging.Logger
	network   string
	programID codec.Address
	submitter *submitter.Submitter
	cache     *querycache.Cache
}

// New binds a client to [network]. The program ID comes from [resolver].
func New(
	log logging.Logger,
	network string,
	resolver *cluster.Resolver,
	sub *submitter.Submitter,
	cache *querycache.Cache,
) (*Client, error) {
	programID, err := resolver.Resolve(network)
	if err != nil {
		return nil, err
	}
	return &Client{
		log:       log,
		network:   network,
		programID: programID,
		submitter: sub,
		cache:     cache,
	}, nil
}

func (c *Client) Network() string {
	return c.network
}

func (c *Client) ProgramID() codec.Address {
	return c.programID
}

// CheckNetwork confirms the node behind [cli] hosts the program this client
// was resolved to.
func (c *Client) CheckNetwork(ctx context.Context, cli submitter.LedgerClient) error {
	_, programID, err := cli.Network(ctx)
	if err != nil {
		return err
	}
	if programID != c.programID {
		return fmt.Errorf("%w: expected %s but node has %s", ErrProgramMismatch, c.programID, programID)
	}
	return nil
}

// Initialize creates a counter at a freshly generated address funded by
// [payer].
func (c *Client) Initialize(ctx context.Context, payer ed25519.PrivateKey) (*Mutation, error) {
	record, err := ed25519.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return c.InitializeWith(ctx, payer, record)
}

// InitializeWith creates a counter at the address of [record].
func (c *Client) InitializeWith(ctx context.Context, payer ed25519.PrivateKey, record ed25519.PrivateKey) (*Mutation, error) {
	addr := record.Address()
	ix := program.NewInitializeInstruction(c.programID, addr, payer.Address())
	return c.mutate(ctx, addr, ix, payer, record)
}

func (c *Client) Increment(ctx context.Context, payer ed25519.PrivateKey, addr codec.Address) (*Mutation, error) {
	return c.mutate(ctx, addr, program.NewIncrementInstruction(c.programID, addr), payer)
}

func (c *Client) Decrement(ctx context.Context, payer ed25519.PrivateKey, addr codec.Address) (*Mutation, error) {
	return c.mutate(ctx, addr, program.NewDecrementInstruction(c.programID, addr), payer)
}

func (c *Client) Set(ctx context.Context, payer ed25519.PrivateKey, addr codec.Address, value uint64) (*Mutation, error) {
	return c.mutate(ctx, addr, program.NewSetInstruction(c.programID, addr, value), payer)
}

// Close deletes the counter at [addr]. [payer] must be the key that funded
// its initialization.
func (c *Client) Close(ctx context.Context, payer ed25519.PrivateKey, addr codec.Address) (*Mutation, error) {
	return c.mutate(ctx, addr, program.NewCloseInstruction(c.programID, addr, payer.Address()), payer)
}

// Fetch returns the counter at [addr], or found=false if none exists.
func (c *Client) Fetch(ctx context.Context, addr codec.Address) (*program.CounterAccount, bool, error) {
	return c.cache.Fetch(ctx, c.network, addr)
}

// FetchAll lists every counter on the network that passes [filter].
func (c *Client) FetchAll(ctx context.Context, filter querycache.Filter) ([]*program.CounterAccount, error) {
	return c.cache.FetchAll(ctx, c.network, filter)
}

func (c *Client) mutate(
	ctx context.Context,
	addr codec.Address,
	ix *chain.Instruction,
	payer ed25519.PrivateKey,
	signers ...ed25519.PrivateKey,
) (*Mutation, error) {
	conf, err := c.submitter.Submit(ctx, ix, payer, signers...)
	if err != nil {
		// The cached value may be what led to the rejection, or the
		// transaction may still land.
		c.cache.Invalidate(c.network, addr)
		return nil, err
	}
	c.log.Info("transaction confirmed",
		zap.String("network", c.network),
		zap.Stringer("txID", conf.TxID),
		zap.Uint64("slot", conf.Slot),
		zap.Stringer("address", addr),
	)

	m := &Mutation{TxID: conf.TxID, Slot: conf.Slot, Address: addr}
	acct, found, err := c.cache.Refresh(ctx, c.network, addr)
	switch {
	case err != nil:
		// The entry stays invalidated so the next read goes to the node.
		c.log.Warn("unable to read back counter",
			zap.Stringer("address", addr),
			zap.Error(err),
		)
	case found:
		m.Account = acct
	}
	return m, nil
}
