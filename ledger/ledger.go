// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ledger is an in-process account ledger that hosts the counter
// program. It queues signed transactions, applies them slot by slot and
// serves the reads a client needs.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/trace"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/hivefi/counterchain/chain"
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/consts"
	"github.com/hivefi/counterchain/emap"
	"github.com/hivefi/counterchain/executor"
	"github.com/hivefi/counterchain/lockmap"
	"github.com/hivefi/counterchain/program"
	"github.com/hivefi/counterchain/state"
	"github.com/hivefi/counterchain/storage"
)

// SlotResult describes a produced slot. Statuses are in submission order.
type SlotResult struct {
	Slot      uint64
	Timestamp int64
	Statuses  []*chain.TxStatus
}

// SlotListener is notified after every produced slot.
type SlotListener interface {
	AcceptSlot(ctx context.Context, res *SlotResult) error
}

type Ledger struct {
	log     logging.Logger
	tracer  trace.Tracer
	cfg     Config
	metrics *metrics
	clock   func() time.Time

	db    *state.Database
	locks *lockmap.Lockmap
	seen  *emap.EMap[*chain.Transaction]

	// slotLock serializes slot production.
	slotLock sync.Mutex

	pendingLock sync.Mutex
	pending     []*chain.Transaction

	listenersLock sync.RWMutex
	listeners     []SlotListener
}

// New creates a ledger over [db]. Metrics are registered with [r].
func New(
	log logging.Logger,
	tracer trace.Tracer,
	cfg Config,
	db database.KeyValueReaderWriterDeleter,
	r prometheus.Registerer,
) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := newMetrics(r)
	if err != nil {
		return nil, err
	}
	return &Ledger{
		log:     log,
		tracer:  tracer,
		cfg:     cfg,
		metrics: m,
		clock:   time.Now,
		db:      state.NewDatabase(db),
		locks:   lockmap.New(cfg.MaxPending),
		seen:    emap.NewEMap[*chain.Transaction](),
	}, nil
}

func (l *Ledger) ChainID() ids.ID {
	return l.cfg.ChainID
}

func (l *Ledger) ProgramID() codec.Address {
	return l.cfg.ProgramID
}

func (l *Ledger) Logger() logging.Logger {
	return l.log
}

func (l *Ledger) RentExemptMinimum(size int) uint64 {
	return l.cfg.RentExemptMinimum(size)
}

// AddListener registers [sl] for slot notifications. Listeners are called
// in registration order from the goroutine producing the slot.
func (l *Ledger) AddListener(sl SlotListener) {
	l.listenersLock.Lock()
	defer l.listenersLock.Unlock()

	l.listeners = append(l.listeners, sl)
}

// Submit checks [tx] and queues it for the next slot. A nil error means the
// transaction is pending; it does not mean it will succeed.
func (l *Ledger) Submit(ctx context.Context, tx *chain.Transaction) error {
	ctx, span := l.tracer.Start(ctx, "Ledger.Submit")
	defer span.End()

	if err := l.precheck(tx); err != nil {
		l.metrics.txsRejected.Inc()
		l.log.Debug("rejected transaction",
			zap.Stringer("txID", tx.ID()),
			zap.Error(err),
		)
		return err
	}

	l.pendingLock.Lock()
	if len(l.pending) >= l.cfg.MaxPending {
		l.pendingLock.Unlock()
		l.metrics.txsRejected.Inc()
		return chain.ErrMempoolFull
	}
	// Replay protection is claimed under the pending lock so a full queue
	// never burns the ID.
	if !l.seen.TryAdd(tx) {
		l.pendingLock.Unlock()
		l.metrics.txsRejected.Inc()
		return chain.ErrDuplicateTx
	}
	err := storage.SetTxStatus(ctx, l.db, &chain.TxStatus{ID: tx.ID(), Status: chain.StatusPending})
	if err != nil {
		l.pendingLock.Unlock()
		return err
	}
	l.pending = append(l.pending, tx)
	l.metrics.pending.Set(float64(len(l.pending)))
	l.pendingLock.Unlock()

	l.metrics.txsSubmitted.Inc()
	l.log.Debug("queued transaction",
		zap.Stringer("txID", tx.ID()),
		zap.Stringer("feePayer", tx.Base.FeePayer),
	)
	return nil
}

func (l *Ledger) precheck(tx *chain.Transaction) error {
	if tx.Size() > consts.NetworkSizeLimit {
		return chain.ErrTxTooLarge
	}
	if tx.Base.ChainID != l.cfg.ChainID {
		return chain.ErrWrongChain
	}
	now := l.clock().UnixMilli()
	if tx.Expiry() < now {
		return chain.ErrExpiredTx
	}
	if tx.Expiry() > now+l.cfg.ValidityWindow.Milliseconds() {
		return chain.ErrFutureTx
	}
	if err := tx.Verify(); err != nil {
		return fmt.Errorf("%w: %w", chain.ErrInvalidSignature, err)
	}
	return nil
}

// TxStatus reports what happened to [id]. Unknown IDs report
// chain.StatusUnknown rather than an error.
func (l *Ledger) TxStatus(ctx context.Context, id ids.ID) (*chain.TxStatus, error) {
	s, ok, err := storage.GetTxStatus(ctx, l.db, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &chain.TxStatus{ID: id, Status: chain.StatusUnknown}, nil
	}
	return s, nil
}

// GetAccount returns the record at [addr]. The bool is false when nothing
// lives there.
func (l *Ledger) GetAccount(ctx context.Context, addr codec.Address) (*program.AccountView, bool, error) {
	return storage.GetAccount(ctx, l.db, addr)
}

// GetBalance returns the lamports held at [addr].
func (l *Ledger) GetBalance(ctx context.Context, addr codec.Address) (uint64, error) {
	return storage.GetBalance(ctx, l.db, addr)
}

// GetProgramAccounts returns every account currently owned by [programID].
func (l *Ledger) GetProgramAccounts(ctx context.Context, programID codec.Address) ([]*program.AccountView, error) {
	addrs, err := storage.GetProgramAccounts(ctx, l.db, programID)
	if err != nil {
		return nil, err
	}
	accts := make([]*program.AccountView, 0, len(addrs))
	for _, addr := range addrs {
		acct, ok, err := storage.GetAccount(ctx, l.db, addr)
		if err != nil {
			return nil, err
		}
		// The index and the record are separate keys, so a concurrent close
		// can remove the record first.
		if !ok || acct.Owner != programID {
			continue
		}
		accts = append(accts, acct)
	}
	return accts, nil
}

// RequestAirdrop credits [lamports] to [addr] immediately and returns the
// new balance.
func (l *Ledger) RequestAirdrop(ctx context.Context, addr codec.Address, lamports uint64) (uint64, error) {
	switch {
	case l.cfg.MaxAirdrop == 0:
		return 0, ErrFaucetDisabled
	case lamports == 0:
		return 0, ErrInvalidAirdrop
	case lamports > l.cfg.MaxAirdrop:
		return 0, fmt.Errorf("%w: %d > %d", ErrAirdropTooLarge, lamports, l.cfg.MaxAirdrop)
	}

	key := string(storage.AccountKey(addr))
	l.locks.Lock(key)
	defer l.locks.Unlock(key)

	bal, err := storage.AddBalance(ctx, l.db, addr, lamports)
	if err != nil {
		return 0, err
	}
	l.metrics.airdrops.Inc()
	l.log.Info("airdrop",
		zap.Stringer("address", addr),
		zap.Uint64("lamports", lamports),
		zap.Uint64("balance", bal),
	)
	return bal, nil
}

func (l *Ledger) LastSlot(ctx context.Context) (uint64, error) {
	return storage.GetLastSlot(ctx, l.db)
}

// Pending returns the number of queued transactions.
func (l *Ledger) Pending() int {
	l.pendingLock.Lock()
	defer l.pendingLock.Unlock()

	return len(l.pending)
}

// ProduceSlot applies every queued transaction and returns the new slot.
// Transactions touching disjoint accounts execute in parallel; conflicting
// ones run in the order they were submitted.
func (l *Ledger) ProduceSlot(ctx context.Context) (uint64, error) {
	l.slotLock.Lock()
	defer l.slotLock.Unlock()

	start := time.Now()
	l.pendingLock.Lock()
	txs := l.pending
	l.pending = nil
	l.metrics.pending.Set(0)
	l.pendingLock.Unlock()

	ctx, span := l.tracer.Start(ctx, "Ledger.ProduceSlot", oteltrace.WithAttributes(
		attribute.Int("txs", len(txs)),
	))
	defer span.End()

	last, err := storage.GetLastSlot(ctx, l.db)
	if err != nil {
		return 0, err
	}
	slot := last + 1
	now := l.clock().UnixMilli()

	statuses := make([]*chain.TxStatus, len(txs))
	e := executor.New(len(txs), l.cfg.ExecutionCores, l.metrics.executorMetrics)
	for i, tx := range txs {
		i, tx := i, tx
		inv, resolveErr := l.resolve(tx)
		if resolveErr != nil {
			// Failures that need no state are recorded without waiting on
			// anything.
			e.Run(state.Keys{}, func() error {
				var err error
				statuses[i], err = l.finish(ctx, tx, slot, resolveErr)
				return err
			})
			continue
		}
		keys := l.stateKeys(inv)
		e.Run(keys, func() error {
			var err error
			if tx.Expiry() < now {
				statuses[i], err = l.finish(ctx, tx, slot, chain.ErrExpiredTx)
				return err
			}
			sorted := keys.Sorted()
			l.locks.LockAll(sorted)
			execErr := l.execute(ctx, l.db, inv, keys)
			l.locks.UnlockAll(sorted)
			statuses[i], err = l.finish(ctx, tx, slot, execErr)
			return err
		})
	}
	if err := e.Wait(); err != nil {
		return 0, err
	}
	if err := storage.SetLastSlot(ctx, l.db, slot); err != nil {
		return 0, err
	}
	l.prune(ctx, now)

	l.metrics.slots.Inc()
	l.metrics.slotExecution.Observe(float64(time.Since(start)))
	if len(txs) > 0 {
		l.log.Info("produced slot",
			zap.Uint64("slot", slot),
			zap.Int("txs", len(txs)),
			zap.Duration("t", time.Since(start)),
		)
	}
	l.notify(ctx, &SlotResult{Slot: slot, Timestamp: now, Statuses: statuses})
	return slot, nil
}

func (l *Ledger) notify(ctx context.Context, res *SlotResult) {
	l.listenersLock.RLock()
	defer l.listenersLock.RUnlock()

	for _, sl := range l.listeners {
		if err := sl.AcceptSlot(ctx, res); err != nil {
			l.log.Warn("slot listener failed",
				zap.Uint64("slot", res.Slot),
				zap.Error(err),
			)
		}
	}
}

// finish records the outcome of [tx]. Deterministic execution failures
// become a failed status; anything else aborts the slot.
func (l *Ledger) finish(ctx context.Context, tx *chain.Transaction, slot uint64, execErr error) (*chain.TxStatus, error) {
	status := &chain.TxStatus{ID: tx.ID(), Status: chain.StatusConfirmed, Slot: slot}
	if execErr != nil {
		code, ok := program.ErrorCode(execErr)
		if !ok {
			return nil, fmt.Errorf("unable to execute %s: %w", tx.ID(), execErr)
		}
		status.Status = chain.StatusFailed
		status.Code = code
		status.Message = execErr.Error()
		l.metrics.txsFailed.Inc()
		l.log.Debug("transaction failed",
			zap.Stringer("txID", tx.ID()),
			zap.Uint32("code", code),
			zap.Error(execErr),
		)
	} else {
		l.metrics.txsConfirmed.Inc()
	}
	return status, storage.SetTxStatus(ctx, l.db, status)
}

// prune forgets transactions whose expiry passed more than StatusRetention
// ago. Their IDs can no longer be replayed because they are expired.
func (l *Ledger) prune(ctx context.Context, now int64) {
	for _, id := range l.seen.SetMin(now - l.cfg.StatusRetention.Milliseconds()) {
		if err := storage.DeleteTxStatus(ctx, l.db, id); err != nil {
			l.log.Warn("unable to prune status",
				zap.Stringer("txID", id),
				zap.Error(err),
			)
		}
	}
}

// Run produces a slot every SlotInterval until [ctx] is done.
func (l *Ledger) Run(ctx context.Context) error {
	l.log.Info("ledger started",
		zap.Stringer("chainID", l.cfg.ChainID),
		zap.Stringer("programID", l.cfg.ProgramID),
		zap.Duration("slotInterval", l.cfg.SlotInterval),
	)
	t := time.NewTicker(l.cfg.SlotInterval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if _, err := l.ProduceSlot(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				l.log.Error("unable to produce slot", zap.Error(err))
				return err
			}
		case <-ctx.Done():
			l.log.Info("ledger stopped")
			return nil
		}
	}
}
