// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package submitter

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"go.uber.org/zap"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/crypto/ed25519"
	"github.com/hivefi/counterchain/program"
	"github.com/hivefi/counterchain/utils"
)

// LedgerClient is the subset of the node API the submitter drives.
type LedgerClient interface {
	Network(ctx context.Context) (ids.ID, codec.Address, error)
	SubmitTx(ctx context.Context, tx []byte) (ids.ID, error)
	TxStatus(ctx context.Context, txID ids.ID) (*chain.TxStatus, error)
}

type Config struct {
	// ConfirmTimeout bounds how long Submit waits for an outcome.
	ConfirmTimeout time.Duration `yaml:"confirmTimeout"`
	PollInterval   time.Duration `yaml:"pollInterval"`

	// ValidityWindow is how far in the future new transactions expire.
	ValidityWindow time.Duration `yaml:"validityWindow"`
}

func NewDefaultConfig() Config {
	return Config{
		ConfirmTimeout: 30 * time.Second,
		PollInterval:   250 * time.Millisecond,
		ValidityWindow: 30 * time.Second,
	}
}

// Confirmation is the receipt of an applied transaction.
type Confirmation struct {
	TxID ids.ID `json:"txId"`
	Slot uint64 `json:"slot"`
}

type Submitter struct {
	log logging.Logger
	cli LedgerClient
	cfg Config
}

func New(log logging.Logger, cli LedgerClient, cfg Config) *Submitter {
	return &Submitter{log: log, cli: cli, cfg: cfg}
}

// Build signs a single-instruction transaction. Each call produces a new
// transaction ID, even for identical instructions.
func (s *Submitter) Build(
	ctx context.Context,
	ix *chain.Instruction,
	feePayer ed25519.PrivateKey,
	signers ...ed25519.PrivateKey,
) (*chain.Transaction, error) {
	chainID, _, err := s.cli.Network(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrAbandoned, ctx.Err())
		}
		return nil, fmt.Errorf("%w: unable to fetch network: %w", ErrNetworkTimeout, err)
	}
	nonce, err := randomNonce()
	if err != nil {
		return nil, err
	}
	base := &chain.Base{
		ChainID:  chainID,
		Expiry:   utils.UnixRMilli(-1, s.cfg.ValidityWindow.Milliseconds()),
		Nonce:    nonce,
		FeePayer: feePayer.Address(),
	}
	keys := append([]ed25519.PrivateKey{feePayer}, signers...)
	tx, err := chain.NewTx(base, ix).Sign(keys...)
	if err != nil {
		if errors.Is(err, chain.ErrMissingSigner) {
			return nil, fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
		}
		return nil, err
	}
	return tx, nil
}

// Submit sends [ix] in its own transaction and waits for the outcome.
//
// If [ctx] is cancelled after the transaction was sent, Submit returns
// ErrAbandoned inside a PendingError; the transaction is not cancelled.
func (s *Submitter) Submit(
	ctx context.Context,
	ix *chain.Instruction,
	feePayer ed25519.PrivateKey,
	signers ...ed25519.PrivateKey,
) (*Confirmation, error) {
	tx, err := s.Build(ctx, ix, feePayer, signers...)
	if err != nil {
		return nil, err
	}
	if err := s.Send(ctx, tx); err != nil {
		return nil, err
	}
	return s.Wait(ctx, tx.ID())
}

// Send hands [tx] to the node without waiting for it to land.
func (s *Submitter) Send(ctx context.Context, tx *chain.Transaction) error {
	txID := tx.ID()
	_, err := s.cli.SubmitTx(ctx, tx.Bytes())
	switch {
	case err == nil:
		s.log.Debug("sent transaction", zap.Stringer("txID", txID))
		return nil
	case errors.Is(err, chain.ErrInvalidSignature):
		return fmt.Errorf("%w: %w", ErrSignatureInvalid, err)
	case errors.Is(err, chain.ErrDuplicateTx):
		return &PendingError{TxID: txID, Err: fmt.Errorf("%w: %w", ErrAlreadyKnown, err)}
	case isRuntimeError(err):
		// The node answered and refused; nothing was queued.
		return fmt.Errorf("%w: %w", ErrRejectedByNetwork, err)
	case ctx.Err() != nil:
		return &PendingError{TxID: txID, Err: fmt.Errorf("%w: %w", ErrAbandoned, ctx.Err())}
	default:
		// The request may have reached the node before failing.
		return &PendingError{TxID: txID, Err: fmt.Errorf("%w: send failed: %w", ErrNetworkTimeout, err)}
	}
}

// Wait polls the status of [txID] until it is applied, fails, or the
// confirmation deadline passes.
func (s *Submitter) Wait(ctx context.Context, txID ids.ID) (*Confirmation, error) {
	deadline := time.NewTimer(s.cfg.ConfirmTimeout)
	defer deadline.Stop()
	poll := time.NewTicker(s.cfg.PollInterval)
	defer poll.Stop()

	for {
		status, err := s.cli.TxStatus(ctx, txID)
		switch {
		case err != nil:
			if ctx.Err() == nil {
				s.log.Debug("unable to fetch status",
					zap.Stringer("txID", txID),
					zap.Error(err),
				)
			}
		case status.Status == chain.StatusConfirmed:
			return &Confirmation{TxID: txID, Slot: status.Slot}, nil
		case status.Status == chain.StatusFailed:
			return nil, failure(status)
		}

		select {
		case <-poll.C:
		case <-deadline.C:
			return nil, &PendingError{TxID: txID, Err: ErrNetworkTimeout}
		case <-ctx.Done():
			return nil, &PendingError{TxID: txID, Err: fmt.Errorf("%w: %w", ErrAbandoned, ctx.Err())}
		}
	}
}

func failure(status *chain.TxStatus) error {
	err := program.ErrorFromCode(status.Code, status.Message)
	if program.IsProgramError(err) {
		return fmt.Errorf("%w: %w", ErrRejectedByProgram, err)
	}
	return fmt.Errorf("%w: %w", ErrRejectedByRuntime, err)
}

// isRuntimeError reports whether the node answered with a coded rejection.
func isRuntimeError(err error) bool {
	var (
		rerr *chain.RuntimeError
		uerr *chain.UnknownError
	)
	return errors.As(err, &rerr) || errors.As(err, &uerr)
}

func randomNonce() (uint64, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}
