// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/hivefi/counterchain/client"
	"github.com/hivefi/counterchain/config"
	"github.com/hivefi/counterchain/crypto/ed25519"
	"github.com/hivefi/counterchain/logger"
	"github.com/hivefi/counterchain/querycache"
	"github.com/hivefi/counterchain/rpc"
	"github.com/hivefi/counterchain/submitter"
	"github.com/hivefi/counterchain/utils"
)

// env is everything a command needs to talk to one network.
type env struct {
	cfg     *config.Config
	network string
	log     logging.Logger
	rpc     *rpc.JSONRPCClient
	client  *client.Client
	close   func()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}
	if v, _ := cmd.Flags().GetString("network"); v != "" {
		cfg.Client.Network = v
	}
	if v, _ := cmd.Flags().GetString("endpoint"); v != "" {
		cfg.Client.Endpoints[cfg.Client.Network] = v
	}
	if v, _ := cmd.Flags().GetString("key-file"); v != "" {
		cfg.Client.KeyFile = v
	}
	return cfg, nil
}

func newEnv(cmd *cobra.Command) (*env, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	network := cfg.Client.Network
	resolver, err := cfg.Client.Resolver()
	if err != nil {
		return nil, err
	}
	uri, err := cfg.Client.Endpoint(network)
	if err != nil {
		return nil, err
	}

	// The CLI logs to file only; results go to stdout.
	logCfg := cfg.Log
	logCfg.DisableDisplay = true
	logFactory, err := logger.NewFactory(logCfg)
	if err != nil {
		return nil, err
	}
	log, err := logFactory.Make("cli")
	if err != nil {
		logFactory.Close()
		return nil, err
	}

	cli := rpc.NewJSONRPCClient(uri)
	cache, err := querycache.New(
		log,
		cfg.Client.Cache,
		resolver,
		map[string]querycache.Source{network: cli},
		prometheus.NewRegistry(),
	)
	if err != nil {
		logFactory.Close()
		return nil, err
	}
	sub := submitter.New(log, cli, cfg.Client.Submitter)
	c, err := client.New(log, network, resolver, sub, cache)
	if err != nil {
		logFactory.Close()
		return nil, err
	}
	return &env{
		cfg:     cfg,
		network: network,
		log:     log,
		rpc:     cli,
		client:  c,
		close:   logFactory.Close,
	}, nil
}

func loadKey(path string) (ed25519.PrivateKey, error) {
	b, err := utils.LoadBytes(path, ed25519.PrivateKeyLen)
	if err != nil {
		return ed25519.EmptyPrivateKey, fmt.Errorf("unable to load key from %s: %w", path, err)
	}
	return ed25519.PrivateKey(b), nil
}

func (e *env) key() (ed25519.PrivateKey, error) {
	return loadKey(e.cfg.Client.KeyFile)
}

func isJSONOutputRequested(cmd *cobra.Command) bool {
	output, _ := cmd.Flags().GetString("output")
	return strings.ToLower(output) == "json"
}

func printValue(cmd *cobra.Command, v fmt.Stringer) error {
	if isJSONOutputRequested(cmd) {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(b))
		return nil
	}
	fmt.Println(v.String())
	return nil
}
