// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"io"
	"net"
	"os/signal"
	"syscall"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/neilotoole/errgroup"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hivefi/counterchain/config"
	"github.com/hivefi/counterchain/ledger"
	"github.com/hivefi/counterchain/logger"
	"github.com/hivefi/counterchain/rpc"
	"github.com/hivefi/counterchain/server"
	"github.com/hivefi/counterchain/storage"
	"github.com/hivefi/counterchain/trace"
	"github.com/hivefi/counterchain/utils"
)

type store interface {
	database.KeyValueReaderWriterDeleter
	io.Closer
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
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
		cfg.Log.DisplayLevel = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.Node.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("listen"); v != "" {
		cfg.Node.ListenAddress = v
	}
	return cfg, cfg.Validate()
}

func runNode(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	lcfg, err := cfg.Node.LedgerConfig()
	if err != nil {
		return err
	}

	logFactory, err := logger.NewFactory(cfg.Log)
	if err != nil {
		return err
	}
	defer logFactory.Close()
	log, err := logFactory.Make("node")
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	gatherers := prometheus.Gatherers{registry}
	var db store
	if cfg.Node.DataDir == "" {
		log.Warn("no data directory configured, state will not persist")
		db = memdb.New()
	} else {
		pdb, dbRegistry, err := storage.New(cfg.Node.Pebble, cfg.Node.DataDir)
		if err != nil {
			return err
		}
		db = pdb
		gatherers = append(gatherers, dbRegistry)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("unable to close database", zap.Error(err))
		}
	}()

	tracer, err := trace.New(cfg.Node.Trace)
	if err != nil {
		return err
	}
	defer func() {
		if err := tracer.Close(); err != nil {
			log.Warn("unable to flush traces", zap.Error(err))
		}
	}()

	l, err := ledger.New(log, tracer, lcfg, db, registry)
	if err != nil {
		return err
	}
	ws, wsHandler := rpc.NewWebSocketServer(l, tracer, cfg.Node.WebSocket)
	l.AddListener(ws)

	listener, err := net.Listen("tcp", cfg.Node.ListenAddress)
	if err != nil {
		return err
	}
	srv := server.New(
		"",
		log,
		listener,
		cfg.Node.HTTP,
		cfg.Node.AllowedOrigins,
		cfg.Node.AllowedHosts,
		cfg.Node.ShutdownTimeout,
	)
	handler, err := rpc.NewJSONRPCHandler(rpc.Name, rpc.NewJSONRPCServer(l))
	if err != nil {
		return err
	}
	if err := srv.AddRoute(handler, rpc.Name, rpc.JSONRPCEndpoint); err != nil {
		return err
	}
	if err := srv.AddRoute(wsHandler, rpc.Name, rpc.WebSocketEndpoint); err != nil {
		return err
	}
	if err := srv.AddRoute(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}), "metrics", ""); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	utils.Outf("{{green}}chainID:{{/}} %s\n", lcfg.ChainID)
	utils.Outf("{{green}}programID:{{/}} %s\n", lcfg.ProgramID)
	utils.Outf("{{green}}listening:{{/}} http://%s/%s%s\n", srv.Addr(), rpc.Name, rpc.JSONRPCEndpoint)
	utils.Outf("{{green}}streaming:{{/}} ws://%s/%s%s\n", srv.Addr(), rpc.Name, rpc.WebSocketEndpoint)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return l.Run(gctx)
	})
	g.Go(srv.Dispatch)
	g.Go(func() error {
		<-gctx.Done()
		return srv.Shutdown()
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("node stopped")
	return nil
}
