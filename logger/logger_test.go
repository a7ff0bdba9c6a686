// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(t *testing.T) Config {
	cfg := NewDefaultConfig()
	cfg.Directory = t.TempDir()
	cfg.Format = "json"
	cfg.DisableDisplay = true
	return cfg
}

func TestMakeWritesFile(t *testing.T) {
	require := require.New(t)
	cfg := testConfig(t)
	f, err := NewFactory(cfg)
	require.NoError(err)

	log, err := f.Make("node")
	require.NoError(err)
	log.Info("hello", zap.Int("slot", 1))
	f.Close()

	b, err := os.ReadFile(filepath.Join(cfg.Directory, "node.log"))
	require.NoError(err)
	require.Contains(string(b), "hello")
}

func TestMakeDuplicate(t *testing.T) {
	require := require.New(t)
	f, err := NewFactory(testConfig(t))
	require.NoError(err)
	defer f.Close()

	_, err = f.Make("cli")
	require.NoError(err)
	_, err = f.Make("cli")
	require.ErrorIs(err, ErrDuplicateLogger)
}

func TestSetLevels(t *testing.T) {
	require := require.New(t)
	cfg := testConfig(t)
	f, err := NewFactory(cfg)
	require.NoError(err)

	log, err := f.Make("node")
	require.NoError(err)
	log.Debug("hidden")
	require.NoError(f.SetLevels("node", logging.Debug, logging.Off))
	log.Debug("shown")
	require.ErrorIs(f.SetLevels("other", logging.Debug, logging.Debug), ErrUnknownLogger)
	f.Close()

	b, err := os.ReadFile(filepath.Join(cfg.Directory, "node.log"))
	require.NoError(err)
	require.NotContains(string(b), "hidden")
	require.Contains(string(b), "shown")

	_, err = f.Make("late")
	require.ErrorIs(err, ErrClosed)
}

func TestInvalidLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Level = "loud"
	_, err := NewFactory(cfg)
	require.Error(t, err)
}
