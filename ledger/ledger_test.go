// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ava-labs/avalanchego/database/memdb"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/crypto/ed25519"
	"github.com/hivefi/counterchain/program"
	"github.com/hivefi/counterchain/trace"
)

const testAirdrop = 10_000_000_000

var nonce atomic.Uint64

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := New(logging.NoLog{}, trace.Noop, NewDefaultConfig(), memdb.New(), prometheus.NewRegistry())
	require.NoError(t, err)
	return l
}

func newKey(t *testing.T) ed25519.PrivateKey {
	t.Helper()
	k, err := ed25519.GeneratePrivateKey()
	require.NoError(t, err)
	return k
}

func fundedKey(t *testing.T, l *Ledger) ed25519.PrivateKey {
	t.Helper()
	k := newKey(t)
	_, err := l.RequestAirdrop(context.Background(), k.Address(), testAirdrop)
	require.NoError(t, err)
	return k
}

func signTx(
	t *testing.T,
	l *Ledger,
	expiry time.Time,
	ix *chain.Instruction,
	feePayer ed25519.PrivateKey,
	keys ...ed25519.PrivateKey,
) *chain.Transaction {
	t.Helper()
	base := &chain.Base{
		ChainID:  l.ChainID(),
		Expiry:   expiry.UnixMilli(),
		Nonce:    nonce.Inc(),
		FeePayer: feePayer.Address(),
	}
	tx, err := chain.NewTx(base, ix).Sign(append(keys, feePayer)...)
	require.NoError(t, err)
	return tx
}

func newTx(
	t *testing.T,
	l *Ledger,
	ix *chain.Instruction,
	feePayer ed25519.PrivateKey,
	keys ...ed25519.PrivateKey,
) *chain.Transaction {
	return signTx(t, l, time.Now().Add(30*time.Second), ix, feePayer, keys...)
}

// apply submits [tx], produces a slot and returns the resulting status.
func apply(t *testing.T, l *Ledger, tx *chain.Transaction) *chain.TxStatus {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, l.Submit(ctx, tx))
	_, err := l.ProduceSlot(ctx)
	require.NoError(t, err)
	status, err := l.TxStatus(ctx, tx.ID())
	require.NoError(t, err)
	require.True(t, status.Done())
	return status
}

func requireConfirmed(t *testing.T, status *chain.TxStatus) {
	t.Helper()
	require.Equal(t, chain.StatusConfirmed, status.Status, status.Message)
}

func requireFailed(t *testing.T, status *chain.TxStatus, err error) {
	t.Helper()
	require.Equal(t, chain.StatusFailed, status.Status)
	require.ErrorIs(t, program.ErrorFromCode(status.Code, status.Message), err)
}

func initCounter(t *testing.T, l *Ledger, payer ed25519.PrivateKey) ed25519.PrivateKey {
	t.Helper()
	record := newKey(t)
	ix := program.NewInitializeInstruction(l.ProgramID(), record.Address(), payer.Address())
	requireConfirmed(t, apply(t, l, newTx(t, l, ix, payer, record)))
	return record
}

func count(t *testing.T, l *Ledger, addr codec.Address) uint64 {
	t.Helper()
	view, ok, err := l.GetAccount(context.Background(), addr)
	require.NoError(t, err)
	require.True(t, ok)
	acct, err := program.FromView(view)
	require.NoError(t, err)
	return acct.Count
}

func TestInitialize(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	l := newTestLedger(t)
	payer := fundedKey(t, l)

	record := initCounter(t, l, payer)
	rent := l.RentExemptMinimum(program.CounterAccountSize)

	view, ok, err := l.GetAccount(ctx, record.Address())
	require.NoError(err)
	require.True(ok)
	require.Equal(l.ProgramID(), view.Owner)
	require.Equal(payer.Address(), view.Payer)
	require.Equal(rent, view.Lamports)
	require.Equal(program.EncodeCounter(0), view.Data)

	bal, ok, err := l.GetAccount(ctx, payer.Address())
	require.NoError(err)
	require.True(ok)
	require.Equal(uint64(testAirdrop)-rent, bal.Lamports)

	accts, err := l.GetProgramAccounts(ctx, l.ProgramID())
	require.NoError(err)
	require.Len(accts, 1)
	require.Equal(record.Address(), accts[0].Address)

	// A second initialize of the same record is a program error.
	ix := program.NewInitializeInstruction(l.ProgramID(), record.Address(), payer.Address())
	requireFailed(t, apply(t, l, newTx(t, l, ix, payer, record)), program.ErrAlreadyInitialized)
}

func TestInitializeInsufficientFunds(t *testing.T) {
	l := newTestLedger(t)
	payer := newKey(t)
	record := newKey(t)

	ix := program.NewInitializeInstruction(l.ProgramID(), record.Address(), payer.Address())
	requireFailed(t, apply(t, l, newTx(t, l, ix, payer, record)), chain.ErrInsufficientFunds)

	_, ok, err := l.GetAccount(context.Background(), record.Address())
	require.NoError(t, err)
	require.False(t, ok)
}

func TestInitializeOverWallet(t *testing.T) {
	l := newTestLedger(t)
	payer := fundedKey(t, l)
	wallet := fundedKey(t, l)

	ix := program.NewInitializeInstruction(l.ProgramID(), wallet.Address(), payer.Address())
	requireFailed(t, apply(t, l, newTx(t, l, ix, payer, wallet)), chain.ErrAccountInUse)
}

func TestInitializeRequiresRecordSignature(t *testing.T) {
	l := newTestLedger(t)
	payer := fundedKey(t, l)
	record := newKey(t)

	ix := program.NewInitializeInstruction(l.ProgramID(), record.Address(), payer.Address())
	ix.Accounts[program.CounterAccountIndex].IsSigner = false
	requireFailed(t, apply(t, l, newTx(t, l, ix, payer)), chain.ErrMissingSignature)
}

func TestMutations(t *testing.T) {
	l := newTestLedger(t)
	payer := fundedKey(t, l)
	record := initCounter(t, l, payer)
	addr := record.Address()

	for _, ix := range []*chain.Instruction{
		program.NewIncrementInstruction(l.ProgramID(), addr),
		program.NewIncrementInstruction(l.ProgramID(), addr),
		program.NewDecrementInstruction(l.ProgramID(), addr),
	} {
		requireConfirmed(t, apply(t, l, newTx(t, l, ix, payer)))
	}
	require.Equal(t, uint64(1), count(t, l, addr))

	requireConfirmed(t, apply(t, l, newTx(t, l, program.NewSetInstruction(l.ProgramID(), addr, 42), payer)))
	require.Equal(t, uint64(42), count(t, l, addr))
}

func TestUnderflowLeavesStateUnchanged(t *testing.T) {
	l := newTestLedger(t)
	payer := fundedKey(t, l)
	record := initCounter(t, l, payer)
	addr := record.Address()

	ix := program.NewDecrementInstruction(l.ProgramID(), addr)
	status := apply(t, l, newTx(t, l, ix, payer))
	requireFailed(t, status, program.ErrUnderflow)
	require.Equal(t, uint32(6003), status.Code)
	require.Zero(t, count(t, l, addr))
}

func TestOverflow(t *testing.T) {
	l := newTestLedger(t)
	payer := fundedKey(t, l)
	addr := initCounter(t, l, payer).Address()

	requireConfirmed(t, apply(t, l, newTx(t, l, program.NewSetInstruction(l.ProgramID(), addr, ^uint64(0)), payer)))
	requireFailed(t, apply(t, l, newTx(t, l, program.NewIncrementInstruction(l.ProgramID(), addr), payer)), program.ErrOverflow)
	require.Equal(t, ^uint64(0), count(t, l, addr))
}

func TestClose(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	l := newTestLedger(t)
	payer := fundedKey(t, l)
	stranger := fundedKey(t, l)
	addr := initCounter(t, l, payer).Address()

	// Only the original payer may close.
	ix := program.NewCloseInstruction(l.ProgramID(), addr, stranger.Address())
	requireFailed(t, apply(t, l, newTx(t, l, ix, stranger)), program.ErrUnauthorizedClose)
	require.Zero(count(t, l, addr))

	ix = program.NewCloseInstruction(l.ProgramID(), addr, payer.Address())
	requireConfirmed(t, apply(t, l, newTx(t, l, ix, payer)))

	_, ok, err := l.GetAccount(ctx, addr)
	require.NoError(err)
	require.False(ok)

	// Every lamport went back to the payer.
	bal, _, err := l.GetAccount(ctx, payer.Address())
	require.NoError(err)
	require.Equal(uint64(testAirdrop), bal.Lamports)

	accts, err := l.GetProgramAccounts(ctx, l.ProgramID())
	require.NoError(err)
	require.Empty(accts)

	requireFailed(t, apply(t, l, newTx(t, l, program.NewIncrementInstruction(l.ProgramID(), addr), payer)), program.ErrNotFound)
}

func TestUnknownProgram(t *testing.T) {
	l := newTestLedger(t)
	payer := fundedKey(t, l)

	ix := program.NewIncrementInstruction(codec.Address{9}, codec.Address{1})
	requireFailed(t, apply(t, l, newTx(t, l, ix, payer)), chain.ErrUnknownProgram)
}

func TestInvalidInstructionData(t *testing.T) {
	l := newTestLedger(t)
	payer := fundedKey(t, l)
	addr := initCounter(t, l, payer).Address()

	ix := program.NewIncrementInstruction(l.ProgramID(), addr)
	ix.Data = []byte{1, 2, 3}
	requireFailed(t, apply(t, l, newTx(t, l, ix, payer)), program.ErrInvalidInstruction)
}

func TestSubmitRejections(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	payer := fundedKey(t, l)
	ix := program.NewIncrementInstruction(l.ProgramID(), codec.Address{1})

	tx := newTx(t, l, ix, payer)
	require.NoError(t, l.Submit(ctx, tx))
	require.ErrorIs(t, l.Submit(ctx, tx), chain.ErrDuplicateTx)

	expired := signTx(t, l, time.Now().Add(-time.Second), ix, payer)
	require.ErrorIs(t, l.Submit(ctx, expired), chain.ErrExpiredTx)

	future := signTx(t, l, time.Now().Add(time.Hour), ix, payer)
	require.ErrorIs(t, l.Submit(ctx, future), chain.ErrFutureTx)

	other, err := chain.NewTx(&chain.Base{
		ChainID:  ids.GenerateTestID(),
		Expiry:   time.Now().Add(time.Second * 10).UnixMilli(),
		FeePayer: payer.Address(),
	}, ix).Sign(payer)
	require.NoError(t, err)
	require.ErrorIs(t, l.Submit(ctx, other), chain.ErrWrongChain)

	forged := newTx(t, l, ix, payer)
	forged.Signatures[0].Value[0]++
	require.ErrorIs(t, l.Submit(ctx, forged), chain.ErrInvalidSignature)

	status, err := l.TxStatus(ctx, forged.ID())
	require.NoError(t, err)
	require.Equal(t, chain.StatusUnknown, status.Status)
	require.Equal(t, 1, l.Pending())
}

func TestMempoolFull(t *testing.T) {
	ctx := context.Background()
	cfg := NewDefaultConfig()
	cfg.MaxPending = 1
	l, err := New(logging.NoLog{}, trace.Noop, cfg, memdb.New(), prometheus.NewRegistry())
	require.NoError(t, err)
	payer := newKey(t)
	ix := program.NewIncrementInstruction(l.ProgramID(), codec.Address{1})

	require.NoError(t, l.Submit(ctx, newTx(t, l, ix, payer)))
	full := newTx(t, l, ix, payer)
	require.ErrorIs(t, l.Submit(ctx, full), chain.ErrMempoolFull)

	// A rejected transaction can be resubmitted once there is room.
	_, err = l.ProduceSlot(ctx)
	require.NoError(t, err)
	require.NoError(t, l.Submit(ctx, full))
}

func TestExpiresWhilePending(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	payer := fundedKey(t, l)
	addr := initCounter(t, l, payer).Address()

	tx := newTx(t, l, program.NewIncrementInstruction(l.ProgramID(), addr), payer)
	require.NoError(t, l.Submit(ctx, tx))
	l.clock = func() time.Time { return time.Now().Add(time.Minute) }
	_, err := l.ProduceSlot(ctx)
	require.NoError(t, err)

	status, err := l.TxStatus(ctx, tx.ID())
	require.NoError(t, err)
	requireFailed(t, status, chain.ErrExpiredTx)
	require.Zero(t, count(t, l, addr))
}

func TestStatusPruned(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	payer := fundedKey(t, l)

	tx := newTx(t, l, program.NewIncrementInstruction(l.ProgramID(), codec.Address{1}), payer)
	status := apply(t, l, tx)
	require.True(t, status.Done())

	l.clock = func() time.Time { return time.Now().Add(time.Hour) }
	_, err := l.ProduceSlot(ctx)
	require.NoError(t, err)
	status, err = l.TxStatus(ctx, tx.ID())
	require.NoError(t, err)
	require.Equal(t, chain.StatusUnknown, status.Status)
}

// Conflicting increments in one slot all apply, and disjoint counters are
// unaffected by each other.
func TestConcurrentSubmissions(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	l := newTestLedger(t)
	payer := fundedKey(t, l)
	a := initCounter(t, l, payer).Address()
	b := initCounter(t, l, payer).Address()

	const n = 32
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		for _, addr := range []codec.Address{a, b} {
			tx := newTx(t, l, program.NewIncrementInstruction(l.ProgramID(), addr), payer)
			wg.Add(1)
			go func() {
				defer wg.Done()
				require.NoError(l.Submit(ctx, tx))
			}()
		}
	}
	wg.Wait()
	slot, err := l.ProduceSlot(ctx)
	require.NoError(err)
	require.Equal(uint64(n), count(t, l, a))
	require.Equal(uint64(n), count(t, l, b))

	last, err := l.LastSlot(ctx)
	require.NoError(err)
	require.Equal(slot, last)
}

// Conflicting transactions run in submission order within a slot.
func TestSubmissionOrder(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t)
	payer := fundedKey(t, l)
	addr := initCounter(t, l, payer).Address()

	inc := newTx(t, l, program.NewIncrementInstruction(l.ProgramID(), addr), payer)
	dec := newTx(t, l, program.NewDecrementInstruction(l.ProgramID(), addr), payer)
	require.NoError(t, l.Submit(ctx, inc))
	require.NoError(t, l.Submit(ctx, dec))
	_, err := l.ProduceSlot(ctx)
	require.NoError(t, err)

	for _, tx := range []*chain.Transaction{inc, dec} {
		status, err := l.TxStatus(ctx, tx.ID())
		require.NoError(t, err)
		requireConfirmed(t, status)
	}
	require.Zero(t, count(t, l, addr))
}

func TestAirdrop(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	l := newTestLedger(t)
	addr := newKey(t).Address()

	_, err := l.RequestAirdrop(ctx, addr, 0)
	require.ErrorIs(err, ErrInvalidAirdrop)
	_, err = l.RequestAirdrop(ctx, addr, NewDefaultConfig().MaxAirdrop+1)
	require.ErrorIs(err, ErrAirdropTooLarge)

	bal, err := l.RequestAirdrop(ctx, addr, 5)
	require.NoError(err)
	require.Equal(uint64(5), bal)
	bal, err = l.RequestAirdrop(ctx, addr, 5)
	require.NoError(err)
	require.Equal(uint64(10), bal)
}

func TestRun(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.SlotInterval = 10 * time.Millisecond
	l, err := New(logging.NoLog{}, trace.Noop, cfg, memdb.New(), prometheus.NewRegistry())
	require.NoError(t, err)
	payer := fundedKey(t, l)
	record := newKey(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- l.Run(ctx)
	}()

	ix := program.NewInitializeInstruction(l.ProgramID(), record.Address(), payer.Address())
	tx := newTx(t, l, ix, payer, record)
	require.NoError(t, l.Submit(ctx, tx))
	require.Eventually(t, func() bool {
		status, err := l.TxStatus(ctx, tx.ID())
		return err == nil && status.Status == chain.StatusConfirmed
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestConfigValidate(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	require.Equal(t, uint64(1_002_240), cfg.RentExemptMinimum(program.CounterAccountSize))

	cfg.SlotInterval = 0
	require.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
}

type recordingListener struct {
	results []*SlotResult
}

func (r *recordingListener) AcceptSlot(_ context.Context, res *SlotResult) error {
	r.results = append(r.results, res)
	return nil
}

func TestSlotListener(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	l := newTestLedger(t)
	rl := &recordingListener{}
	l.AddListener(rl)

	payer := fundedKey(t, l)
	record := newKey(t)
	initTx := newTx(t, l, program.NewInitializeInstruction(l.ProgramID(), record.Address(), payer.Address()), payer, record)
	decTx := newTx(t, l, program.NewDecrementInstruction(l.ProgramID(), record.Address()), payer)
	require.NoError(l.Submit(ctx, initTx))
	require.NoError(l.Submit(ctx, decTx))

	slot, err := l.ProduceSlot(ctx)
	require.NoError(err)
	require.Len(rl.results, 1)
	res := rl.results[0]
	require.Equal(slot, res.Slot)
	require.Len(res.Statuses, 2)
	require.Equal(initTx.ID(), res.Statuses[0].ID)
	require.Equal(chain.StatusConfirmed, res.Statuses[0].Status)
	require.Equal(decTx.ID(), res.Statuses[1].ID)
	requireFailed(t, res.Statuses[1], program.ErrUnderflow)

	// Empty slots are still announced.
	_, err = l.ProduceSlot(ctx)
	require.NoError(err)
	require.Len(rl.results, 2)
	require.Empty(rl.results[1].Statuses)
}
