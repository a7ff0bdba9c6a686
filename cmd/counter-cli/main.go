// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "counter-cli",
	Short: "CLI for the counter program",
	Long:  `A CLI for creating, mutating and reading counter accounts on a counter ledger.`,
}

func init() {
	rootCmd.PersistentFlags().StringP("output", "o", "text", "Output format (text or json)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("network", "", "Override the configured network")
	rootCmd.PersistentFlags().String("endpoint", "", "Override the node URI for the network")
	rootCmd.PersistentFlags().String("key-file", "", "Override the configured key file")
	rootCmd.SilenceUsage = true
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(0)
}
