// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/program"
	"github.com/hivefi/counterchain/rpc"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream produced slots until interrupted",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		uri, err := cfg.Client.Endpoint(cfg.Client.Network)
		if err != nil {
			return err
		}
		ws, err := rpc.NewWebSocketClient(uri)
		if err != nil {
			return err
		}
		defer ws.Close()
		if err := ws.RegisterSlots(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		for {
			sm, err := ws.ListenSlot(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			if err != nil {
				return err
			}
			if err := printValue(cmd, slotResponse{sm}); err != nil {
				return err
			}
		}
	},
}

type slotResponse struct {
	*rpc.SlotMessage
}

func (r slotResponse) String() string {
	s := fmt.Sprintf("slot %d: %d txs", r.Slot, len(r.Statuses))
	for _, status := range r.Statuses {
		if status.Status == chain.StatusFailed {
			s += fmt.Sprintf("\n  %s failed: %v", status.ID, program.ErrorFromCode(status.Code, status.Message))
			continue
		}
		s += fmt.Sprintf("\n  %s %s", status.ID, status.Status)
	}
	return s
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
