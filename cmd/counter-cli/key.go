// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hivefi/counterchain/crypto/ed25519"
	"github.com/hivefi/counterchain/utils"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Manage the payer key",
}

var keyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key and store it in the key file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(cfg.Client.KeyFile); err == nil && !force {
			return fmt.Errorf("%s already exists, pass --force to replace it", cfg.Client.KeyFile)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		key, err := ed25519.GeneratePrivateKey()
		if err != nil {
			return err
		}
		if err := utils.SaveBytes(cfg.Client.KeyFile, key[:]); err != nil {
			return err
		}
		return printValue(cmd, keyResponse{Address: key.Address().String(), File: cfg.Client.KeyFile})
	},
}

var keyAddressCmd = &cobra.Command{
	Use:   "address",
	Short: "Print the address of the stored key",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		key, err := loadKey(cfg.Client.KeyFile)
		if err != nil {
			return err
		}
		return printValue(cmd, keyResponse{Address: key.Address().String(), File: cfg.Client.KeyFile})
	},
}

type keyResponse struct {
	Address string `json:"address"`
	File    string `json:"file"`
}

func (r keyResponse) String() string {
	return r.Address
}

func init() {
	keyGenerateCmd.Flags().Bool("force", false, "Overwrite an existing key file")
	keyCmd.AddCommand(keyGenerateCmd, keyAddressCmd)
	rootCmd.AddCommand(keyCmd)
}
