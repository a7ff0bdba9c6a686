// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hivefi/counterchain/cli/prompt"
	"github.com/hivefi/counterchain/client"
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/crypto/ed25519"
	"github.com/hivefi/counterchain/program"
	"github.com/hivefi/counterchain/submitter"
)

var (
	skipConfirm bool
	errAborted  = errors.New("aborted")
)

var counterCmd = &cobra.Command{
	Use:   "counter",
	Short: "Create, mutate and read counters",
}

type mutateFunc func(ctx context.Context, c *client.Client, payer ed25519.PrivateKey, args []string) (*client.Mutation, error)

// mutationCmd wires a mutating subcommand. Every mutation is signed by the
// stored key. Missing arguments are prompted for.
func mutationCmd(use, short string, nargs int, f mutateFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.RangeArgs(0, nargs),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			defer e.close()
			payer, err := e.key()
			if err != nil {
				return err
			}
			m, err := f(context.Background(), e.client, payer, args)
			if err != nil {
				return fmt.Errorf("%w (next step: %s)", err, submitter.Classify(err))
			}
			return printValue(cmd, mutationResponse{Mutation: m})
		},
	}
}

func parseAddress(s string) (codec.Address, error) {
	addr, err := codec.ParseAddress(s)
	if err != nil {
		return codec.EmptyAddress, fmt.Errorf("invalid counter address: %w", err)
	}
	return addr, nil
}

// addressArg returns args[0] or asks for it.
func addressArg(args []string) (codec.Address, error) {
	if len(args) > 0 {
		return parseAddress(args[0])
	}
	return prompt.Address("counter address")
}

// valueArg returns args[1] or asks for it.
func valueArg(args []string) (uint64, error) {
	if len(args) > 1 {
		value, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid value: %w", err)
		}
		return value, nil
	}
	return prompt.Uint("value")
}

var counterInitCmd = mutationCmd("init", "Create a counter at a fresh address", 0,
	func(ctx context.Context, c *client.Client, payer ed25519.PrivateKey, _ []string) (*client.Mutation, error) {
		return c.Initialize(ctx, payer)
	},
)

var counterIncrementCmd = mutationCmd("increment [address]", "Add one to a counter", 1,
	func(ctx context.Context, c *client.Client, payer ed25519.PrivateKey, args []string) (*client.Mutation, error) {
		addr, err := addressArg(args)
		if err != nil {
			return nil, err
		}
		return c.Increment(ctx, payer, addr)
	},
)

var counterDecrementCmd = mutationCmd("decrement [address]", "Subtract one from a counter", 1,
	func(ctx context.Context, c *client.Client, payer ed25519.PrivateKey, args []string) (*client.Mutation, error) {
		addr, err := addressArg(args)
		if err != nil {
			return nil, err
		}
		return c.Decrement(ctx, payer, addr)
	},
)

var counterSetCmd = mutationCmd("set [address] [value]", "Overwrite a counter", 2,
	func(ctx context.Context, c *client.Client, payer ed25519.PrivateKey, args []string) (*client.Mutation, error) {
		addr, err := addressArg(args)
		if err != nil {
			return nil, err
		}
		value, err := valueArg(args)
		if err != nil {
			return nil, err
		}
		return c.Set(ctx, payer, addr, value)
	},
)

var counterCloseCmd = mutationCmd("close [address]", "Delete a counter and reclaim its rent", 1,
	func(ctx context.Context, c *client.Client, payer ed25519.PrivateKey, args []string) (*client.Mutation, error) {
		addr, err := addressArg(args)
		if err != nil {
			return nil, err
		}
		if !skipConfirm {
			ok, err := prompt.Continue(fmt.Sprintf("close %s and reclaim its rent", addr))
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, errAborted
			}
		}
		return c.Close(ctx, payer, addr)
	},
)

var counterGetCmd = &cobra.Command{
	Use:   "get [address]",
	Short: "Read a counter",
	Args:  cobra.RangeArgs(0, 1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := addressArg(args)
		if err != nil {
			return err
		}
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		acct, found, err := e.client.Fetch(context.Background(), addr)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("%w: %s", program.ErrNotFound, addr)
		}
		return printValue(cmd, accountResponse{acct})
	},
}

var counterListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every counter on the network",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		accts, err := e.client.FetchAll(context.Background(), nil)
		if err != nil {
			return err
		}
		return printValue(cmd, listResponse{Network: e.network, Accounts: accts})
	},
}

type mutationResponse struct {
	*client.Mutation
}

func (r mutationResponse) String() string {
	if r.Account == nil {
		return fmt.Sprintf("tx %s confirmed in slot %d, %s closed", r.TxID, r.Slot, r.Address)
	}
	return fmt.Sprintf("tx %s confirmed in slot %d, %s = %d", r.TxID, r.Slot, r.Address, r.Account.Count)
}

type accountResponse struct {
	*program.CounterAccount
}

func (r accountResponse) String() string {
	return fmt.Sprintf("%s = %d", r.Address, r.Count)
}

type listResponse struct {
	Network  string                    `json:"network"`
	Accounts []*program.CounterAccount `json:"accounts"`
}

func (r listResponse) String() string {
	if len(r.Accounts) == 0 {
		return "no counters on " + r.Network
	}
	lines := make([]string, len(r.Accounts))
	for i, acct := range r.Accounts {
		lines[i] = accountResponse{acct}.String()
	}
	return strings.Join(lines, "\n")
}

func init() {
	counterCloseCmd.Flags().BoolVarP(&skipConfirm, "yes", "y", false, "Close without asking for confirmation")
	counterCmd.AddCommand(
		counterInitCmd,
		counterIncrementCmd,
		counterDecrementCmd,
		counterSetCmd,
		counterCloseCmd,
		counterGetCmd,
		counterListCmd,
	)
	rootCmd.AddCommand(counterCmd)
}
