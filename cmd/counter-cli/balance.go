// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hivefi/counterchain/utils"
)

var airdropCmd = &cobra.Command{
	Use:   "airdrop [amount]",
	Short: "Request lamports from the node faucet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		lamports, err := utils.ParseLamports(args[0])
		if err != nil {
			return err
		}
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		key, err := e.key()
		if err != nil {
			return err
		}
		bal, err := e.rpc.RequestAirdrop(context.Background(), key.Address(), lamports)
		if err != nil {
			return err
		}
		return printValue(cmd, balanceResponse{Address: key.Address().String(), Lamports: bal})
	},
}

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print the balance of the stored key",
	RunE: func(cmd *cobra.Command, _ []string) error {
		e, err := newEnv(cmd)
		if err != nil {
			return err
		}
		defer e.close()
		key, err := e.key()
		if err != nil {
			return err
		}
		bal, err := e.rpc.GetBalance(context.Background(), key.Address())
		if err != nil {
			return err
		}
		return printValue(cmd, balanceResponse{Address: key.Address().String(), Lamports: bal})
	},
}

type balanceResponse struct {
	Address  string `json:"address"`
	Lamports uint64 `json:"lamports"`
}

func (r balanceResponse) String() string {
	return fmt.Sprintf("%s: %s SOL", r.Address, utils.FormatLamports(r.Lamports))
}

func init() {
	rootCmd.AddCommand(airdropCmd, balanceCmd)
}
