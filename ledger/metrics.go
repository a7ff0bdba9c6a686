// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package ledger

import (
	"github.com/ava-labs/avalanchego/utils/metric"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hivefi/counterchain/executor"
)

var _ executor.Metrics = (*executorMetrics)(nil)

type executorMetrics struct {
	blocked    prometheus.Counter
	executable prometheus.Counter
}

func (em *executorMetrics) RecordBlocked() {
	em.blocked.Inc()
}

func (em *executorMetrics) RecordExecutable() {
	em.executable.Inc()
}

type metrics struct {
	txsSubmitted prometheus.Counter
	txsRejected  prometheus.Counter
	txsConfirmed prometheus.Counter
	txsFailed    prometheus.Counter
	airdrops     prometheus.Counter
	slots        prometheus.Counter
	pending      prometheus.Gauge

	slotExecution metric.Averager

	executorMetrics *executorMetrics
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	slotExecution, err := metric.NewAverager(
		"ledger_slot_execution",
		"time spent applying a slot",
		r,
	)
	if err != nil {
		return nil, err
	}
	m := &metrics{
		txsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "txs_submitted",
			Help:      "number of transactions accepted into the queue",
		}),
		txsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "txs_rejected",
			Help:      "number of transactions rejected on submission",
		}),
		txsConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "txs_confirmed",
			Help:      "number of transactions applied",
		}),
		txsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "txs_failed",
			Help:      "number of transactions included but not applied",
		}),
		airdrops: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "airdrops",
			Help:      "number of faucet requests served",
		}),
		slots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "slots",
			Help:      "number of slots produced",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ledger",
			Name:      "pending",
			Help:      "number of transactions waiting for a slot",
		}),
		slotExecution: slotExecution,
		executorMetrics: &executorMetrics{
			blocked: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "ledger",
				Name:      "executor_blocked",
				Help:      "number of transactions that waited on a conflicting one",
			}),
			executable: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "ledger",
				Name:      "executor_executable",
				Help:      "number of transactions that ran without waiting",
			}),
		},
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.txsSubmitted),
		r.Register(m.txsRejected),
		r.Register(m.txsConfirmed),
		r.Register(m.txsFailed),
		r.Register(m.airdrops),
		r.Register(m.slots),
		r.Register(m.pending),
		r.Register(m.executorMetrics.blocked),
		r.Register(m.executorMetrics.executable),
	)
	return m, errs.Err
}
