// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads the YAML file shared by the node and the CLI.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"gopkg.in/yaml.v2"

	"github.com/hivefi/counterchain/cluster"
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/ledger"
	"github.com/hivefi/counterchain/logger"
	"github.com/hivefi/counterchain/pebble"
	"github.com/hivefi/counterchain/pubsub"
	"github.com/hivefi/counterchain/querycache"
	"github.com/hivefi/counterchain/rpc"
	"github.com/hivefi/counterchain/server"
	"github.com/hivefi/counterchain/submitter"
	"github.com/hivefi/counterchain/trace"
)

type Config struct {
	Log    logger.Config `yaml:"log"`
	Node   NodeConfig    `yaml:"node"`
	Client ClientConfig  `yaml:"client"`
}

type NodeConfig struct {
	ListenAddress   string            `yaml:"listenAddress"`
	HTTP            server.HTTPConfig `yaml:"http"`
	AllowedOrigins  []string          `yaml:"allowedOrigins"`
	AllowedHosts    []string          `yaml:"allowedHosts"`
	ShutdownTimeout time.Duration     `yaml:"shutdownTimeout"`

	// DataDir holds the pebble database. An empty DataDir keeps state in
	// memory.
	DataDir string        `yaml:"dataDir"`
	Pebble  pebble.Config `yaml:"pebble"`

	// ChainID is cb58 and ProgramID is base58.
	ChainID   string `yaml:"chainID"`
	ProgramID string `yaml:"programID"`

	SlotInterval    time.Duration `yaml:"slotInterval"`
	ValidityWindow  time.Duration `yaml:"validityWindow"`
	StatusRetention time.Duration `yaml:"statusRetention"`
	MaxPending      int           `yaml:"maxPending"`
	ExecutionCores  int           `yaml:"executionCores"`

	LamportsPerByteYear uint64 `yaml:"lamportsPerByteYear"`
	ExemptionThreshold  uint64 `yaml:"exemptionThreshold"`
	MaxAirdrop          uint64 `yaml:"maxAirdrop"`

	WebSocket pubsub.ServerConfig `yaml:"websocket"`
	Trace     trace.Config        `yaml:"trace"`
}

type ClientConfig struct {
	// Network selects the entries of Endpoints and Programs the CLI uses.
	Network string `yaml:"network"`

	// Endpoints maps a network to the URI of a node serving it.
	Endpoints map[string]string `yaml:"endpoints"`

	// Programs overrides the default network -> program ID table.
	Programs map[string]string `yaml:"programs"`

	// KeyFile holds the hex private key that pays for transactions.
	KeyFile string `yaml:"keyFile"`

	Submitter submitter.Config  `yaml:"submitter"`
	Cache     querycache.Config `yaml:"cache"`
}

func Default() *Config {
	lcfg := ledger.NewDefaultConfig()
	return &Config{
		Log: logger.NewDefaultConfig(),
		Node: NodeConfig{
			ListenAddress:       "127.0.0.1:8899",
			HTTP:                server.NewDefaultHTTPConfig(),
			AllowedOrigins:      []string{"*"},
			AllowedHosts:        []string{"localhost"},
			ShutdownTimeout:     10 * time.Second,
			Pebble:              pebble.NewDefaultConfig(),
			ChainID:             lcfg.ChainID.String(),
			ProgramID:           lcfg.ProgramID.String(),
			SlotInterval:        lcfg.SlotInterval,
			ValidityWindow:      lcfg.ValidityWindow,
			StatusRetention:     lcfg.StatusRetention,
			MaxPending:          lcfg.MaxPending,
			ExecutionCores:      lcfg.ExecutionCores,
			LamportsPerByteYear: lcfg.LamportsPerByteYear,
			ExemptionThreshold:  lcfg.ExemptionThreshold,
			MaxAirdrop:          lcfg.MaxAirdrop,
			WebSocket:           pubsub.NewDefaultServerConfig(),
			Trace:               trace.NewDefaultConfig(),
		},
		Client: ClientConfig{
			Network: cluster.Localnet,
			Endpoints: map[string]string{
				cluster.Localnet: "http://127.0.0.1:8899/" + rpc.Name,
			},
			KeyFile:   ".counter.pk",
			Submitter: submitter.NewDefaultConfig(),
			Cache:     querycache.NewDefaultConfig(),
		},
	}
}

// Load reads [path] over the defaults. Unknown fields are rejected.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

func Parse(b []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(b, cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	lcfg, err := c.Node.LedgerConfig()
	if err != nil {
		return err
	}
	if err := lcfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	resolver, err := c.Client.Resolver()
	if err != nil {
		return err
	}
	if ws := c.Node.WebSocket; ws.PingPeriod <= 0 || ws.PingPeriod >= ws.PongWait {
		return fmt.Errorf("%w: websocket ping period must be positive and below pong wait", ErrInvalidConfig)
	}
	if ws := c.Node.WebSocket; ws.MaxPendingMessages <= 0 || ws.MaxWriteMessageSize <= 0 {
		return fmt.Errorf("%w: websocket buffers must be positive", ErrInvalidConfig)
	}
	if c.Node.Trace.Enabled && c.Node.Trace.Endpoint == "" {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, trace.ErrMissingEndpoint)
	}
	if _, err := resolver.Resolve(c.Client.Network); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if c.Client.Submitter.PollInterval <= 0 || c.Client.Submitter.ConfirmTimeout <= 0 {
		return fmt.Errorf("%w: submitter intervals must be positive", ErrInvalidConfig)
	}
	if c.Client.Cache.Size <= 0 {
		return fmt.Errorf("%w: cache size must be positive", ErrInvalidConfig)
	}
	return nil
}

// LedgerConfig converts the node section into a ledger.Config.
func (n *NodeConfig) LedgerConfig() (ledger.Config, error) {
	chainID, err := ids.FromString(n.ChainID)
	if err != nil {
		return ledger.Config{}, fmt.Errorf("%w: chainID: %w", ErrInvalidConfig, err)
	}
	programID, err := codec.ParseAddress(n.ProgramID)
	if err != nil {
		return ledger.Config{}, fmt.Errorf("%w: programID: %w", ErrInvalidConfig, err)
	}
	return ledger.Config{
		ChainID:             chainID,
		ProgramID:           programID,
		SlotInterval:        n.SlotInterval,
		ValidityWindow:      n.ValidityWindow,
		StatusRetention:     n.StatusRetention,
		MaxPending:          n.MaxPending,
		ExecutionCores:      n.ExecutionCores,
		LamportsPerByteYear: n.LamportsPerByteYear,
		ExemptionThreshold:  n.ExemptionThreshold,
		MaxAirdrop:          n.MaxAirdrop,
	}, nil
}

// Resolver returns the default program table with Programs applied on top.
func (c *ClientConfig) Resolver() (*cluster.Resolver, error) {
	if len(c.Programs) == 0 {
		return cluster.Default(), nil
	}
	def := cluster.Default()
	table := make(map[string]codec.Address, len(c.Programs))
	for _, network := range def.Networks() {
		programID, err := def.Resolve(network)
		if err != nil {
			return nil, err
		}
		table[network] = programID
	}
	for network, s := range c.Programs {
		programID, err := codec.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("%w: program for %s: %w", ErrInvalidConfig, network, err)
		}
		table[network] = programID
	}
	return cluster.New(table)
}

// Endpoint returns the node URI configured for [network].
func (c *ClientConfig) Endpoint(network string) (string, error) {
	uri, ok := c.Endpoints[network]
	if !ok || uri == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownEndpoint, network)
	}
	return uri, nil
}
