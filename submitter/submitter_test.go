// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package submitter

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/crypto/ed25519"
	"github.com/hivefi/counterchain/program"
)

var (
	testChainID   = ids.GenerateTestID()
	testProgramID = codec.Address{0xc0}
)

func testConfig() Config {
	return Config{
		ConfirmTimeout: time.Second,
		PollInterval:   time.Millisecond,
		ValidityWindow: 10 * time.Second,
	}
}

func newTestSubmitter(t *testing.T, cfg Config) (*Submitter, *MockLedgerClient) {
	ctrl := gomock.NewController(t)
	cli := NewMockLedgerClient(ctrl)
	cli.EXPECT().Network(gomock.Any()).Return(testChainID, testProgramID, nil).AnyTimes()
	return New(logging.NoLog{}, cli, cfg), cli
}

func newKey(t *testing.T) ed25519.PrivateKey {
	k, err := ed25519.GeneratePrivateKey()
	require.NoError(t, err)
	return k
}

// expectSend accepts the submission and reports its ID through [sent].
func expectSend(cli *MockLedgerClient, sent *ids.ID) {
	cli.EXPECT().SubmitTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, b []byte) (ids.ID, error) {
			tx, err := chain.ParseTx(b)
			if err != nil {
				return ids.Empty, err
			}
			*sent = tx.ID()
			return tx.ID(), nil
		},
	)
}

func TestSubmitConfirmed(t *testing.T) {
	require := require.New(t)
	s, cli := newTestSubmitter(t, testConfig())
	payer := newKey(t)
	counter := newKey(t)

	var sent ids.ID
	expectSend(cli, &sent)
	gomock.InOrder(
		cli.EXPECT().TxStatus(gomock.Any(), gomock.Any()).Return(&chain.TxStatus{Status: chain.StatusPending}, nil),
		cli.EXPECT().TxStatus(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, id ids.ID) (*chain.TxStatus, error) {
				return &chain.TxStatus{ID: id, Status: chain.StatusConfirmed, Slot: 7}, nil
			},
		),
	)

	ix := program.NewInitializeInstruction(testProgramID, counter.Address(), payer.Address())
	conf, err := s.Submit(context.Background(), ix, payer, counter)
	require.NoError(err)
	require.Equal(sent, conf.TxID)
	require.Equal(uint64(7), conf.Slot)
}

func TestSubmitFailedStatus(t *testing.T) {
	tests := []struct {
		name     string
		code     uint32
		expected error
		cause    error
	}{
		{
			name:     "program error",
			code:     program.ErrUnderflow.Code,
			expected: ErrRejectedByProgram,
			cause:    program.ErrUnderflow,
		},
		{
			name:     "runtime error",
			code:     chain.ErrInsufficientFunds.Code,
			expected: ErrRejectedByRuntime,
			cause:    chain.ErrInsufficientFunds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			s, cli := newTestSubmitter(t, testConfig())
			payer := newKey(t)

			var sent ids.ID
			expectSend(cli, &sent)
			cli.EXPECT().TxStatus(gomock.Any(), gomock.Any()).Return(
				&chain.TxStatus{Status: chain.StatusFailed, Slot: 3, Code: tt.code}, nil,
			)

			ix := program.NewDecrementInstruction(testProgramID, codec.Address{1})
			_, err := s.Submit(context.Background(), ix, payer)
			require.ErrorIs(err, tt.expected)
			require.ErrorIs(err, tt.cause)
			require.Equal(ActionShowError, Classify(err))
		})
	}
}

func TestSubmitRejectedByNode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected error
		action   Action
	}{
		{
			name:     "duplicate",
			err:      chain.ErrDuplicateTx,
			expected: ErrAlreadyKnown,
			action:   ActionResync,
		},
		{
			name:     "too large",
			err:      chain.ErrTxTooLarge,
			expected: ErrRejectedByNetwork,
			action:   ActionRetry,
		},
		{
			name:     "malformed",
			err:      chain.ErrMalformedTx,
			expected: ErrRejectedByNetwork,
			action:   ActionRetry,
		},
		{
			name:     "expired",
			err:      chain.ErrExpiredTx,
			expected: ErrRejectedByNetwork,
			action:   ActionRetry,
		},
		{
			name:     "bad signature",
			err:      chain.ErrInvalidSignature,
			expected: ErrSignatureInvalid,
			action:   ActionShowError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			s, cli := newTestSubmitter(t, testConfig())
			cli.EXPECT().SubmitTx(gomock.Any(), gomock.Any()).Return(ids.Empty, tt.err)

			ix := program.NewIncrementInstruction(testProgramID, codec.Address{1})
			_, err := s.Submit(context.Background(), ix, newKey(t))
			require.ErrorIs(err, tt.expected)
			require.ErrorIs(err, tt.err)
			require.Equal(tt.action, Classify(err))
		})
	}
}

func TestSubmitMissingSigner(t *testing.T) {
	require := require.New(t)
	s, _ := newTestSubmitter(t, testConfig())
	payer := newKey(t)

	// The record key is required to initialize but not supplied.
	ix := program.NewInitializeInstruction(testProgramID, codec.Address{1}, payer.Address())
	_, err := s.Submit(context.Background(), ix, payer)
	require.ErrorIs(err, ErrSignatureInvalid)
	require.ErrorIs(err, chain.ErrMissingSigner)
}

func TestSubmitSendFailure(t *testing.T) {
	require := require.New(t)
	s, cli := newTestSubmitter(t, testConfig())
	cli.EXPECT().SubmitTx(gomock.Any(), gomock.Any()).Return(ids.Empty, errors.New("connection reset"))

	ix := program.NewIncrementInstruction(testProgramID, codec.Address{1})
	_, err := s.Submit(context.Background(), ix, newKey(t))
	require.ErrorIs(err, ErrNetworkTimeout)
	require.True(NeedsResync(err))

	var perr *PendingError
	require.ErrorAs(err, &perr)
	require.NotEqual(ids.Empty, perr.TxID)
}

func TestSubmitTimeout(t *testing.T) {
	require := require.New(t)
	cfg := testConfig()
	cfg.ConfirmTimeout = 20 * time.Millisecond
	s, cli := newTestSubmitter(t, cfg)

	var sent ids.ID
	expectSend(cli, &sent)
	cli.EXPECT().TxStatus(gomock.Any(), gomock.Any()).Return(&chain.TxStatus{Status: chain.StatusPending}, nil).AnyTimes()

	ix := program.NewIncrementInstruction(testProgramID, codec.Address{1})
	_, err := s.Submit(context.Background(), ix, newKey(t))
	require.ErrorIs(err, ErrNetworkTimeout)
	require.Equal(ActionResync, Classify(err))

	var perr *PendingError
	require.ErrorAs(err, &perr)
	require.Equal(sent, perr.TxID)
}

func TestSubmitAbandoned(t *testing.T) {
	require := require.New(t)
	s, cli := newTestSubmitter(t, testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var sent ids.ID
	expectSend(cli, &sent)
	cli.EXPECT().TxStatus(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, ids.ID) (*chain.TxStatus, error) {
			cancel()
			return &chain.TxStatus{Status: chain.StatusPending}, nil
		},
	).AnyTimes()

	ix := program.NewSetInstruction(testProgramID, codec.Address{1}, 5)
	_, err := s.Submit(ctx, ix, newKey(t))
	require.ErrorIs(err, ErrAbandoned)
	require.ErrorIs(err, context.Canceled)
	require.True(NeedsResync(err))
	require.False(IsRetryable(err))

	var perr *PendingError
	require.ErrorAs(err, &perr)
	require.Equal(sent, perr.TxID)
}

func TestStatusErrorsArePolled(t *testing.T) {
	require := require.New(t)
	s, cli := newTestSubmitter(t, testConfig())

	var sent ids.ID
	expectSend(cli, &sent)
	gomock.InOrder(
		cli.EXPECT().TxStatus(gomock.Any(), gomock.Any()).Return(nil, errors.New("unavailable")),
		cli.EXPECT().TxStatus(gomock.Any(), gomock.Any()).Return(&chain.TxStatus{Status: chain.StatusConfirmed, Slot: 1}, nil),
	)

	ix := program.NewIncrementInstruction(testProgramID, codec.Address{1})
	conf, err := s.Submit(context.Background(), ix, newKey(t))
	require.NoError(err)
	require.Equal(sent, conf.TxID)
}

func TestBuildFreshIDs(t *testing.T) {
	require := require.New(t)
	s, _ := newTestSubmitter(t, testConfig())
	payer := newKey(t)
	ix := program.NewIncrementInstruction(testProgramID, codec.Address{1})

	tx1, err := s.Build(context.Background(), ix, payer)
	require.NoError(err)
	tx2, err := s.Build(context.Background(), ix, payer)
	require.NoError(err)
	require.NotEqual(tx1.ID(), tx2.ID())
	require.NoError(tx1.Verify())
	require.Equal(testChainID, tx1.Base.ChainID)
}

func TestClassify(t *testing.T) {
	require := require.New(t)
	require.Equal(ActionNone, Classify(nil))
	require.Equal(ActionShowError, Classify(errors.New("boom")))
	require.Equal(ActionRetry, Classify(ErrRejectedByNetwork))
	require.Equal(ActionResync, Classify(&PendingError{Err: ErrAbandoned}))
	require.Equal("resync", ActionResync.String())
}
