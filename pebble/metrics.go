// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"time"

	"github.com/ava-labs/avalanchego/utils/metric"
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

// namespace prefixes every metric of the ledger store so it can share the
// node's /metrics endpoint with the ledger and the query cache.
const namespace = "ledger_db"

var nowFunc = time.Now

type metrics struct {
	// Only touched from pebble's event listener, which serializes stall
	// begin/end pairs.
	delayStart time.Time
	writeStall metric.Averager

	getLatency metric.Averager

	l0Compactions     prometheus.Counter
	otherCompactions  prometheus.Counter
	activeCompactions prometheus.Gauge

	// Refreshed from db.Metrics() every Config.MetricsInterval.
	diskUsage          prometheus.Gauge
	tombstoneCount     prometheus.Gauge
	obsoleteTableSize  prometheus.Gauge
	obsoleteTableCount prometheus.Gauge
	zombieTableSize    prometheus.Gauge
	zombieTableCount   prometheus.Gauge
	obsoleteWALSize    prometheus.Gauge
	obsoleteWALCount   prometheus.Gauge
}

func newGauge(name, help string) prometheus.Gauge {
	return prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

func newCounter(name, help string) prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
	})
}

func newMetrics() (*prometheus.Registry, *metrics, error) {
	r := prometheus.NewRegistry()
	writeStall, err := metric.NewAverager(
		namespace+"_write_stall",
		"time spent waiting for disk write",
		r,
	)
	if err != nil {
		return nil, nil, err
	}
	getLatency, err := metric.NewAverager(
		namespace+"_read_latency",
		"time spent waiting for an account or status read",
		r,
	)
	if err != nil {
		return nil, nil, err
	}
	m := &metrics{
		writeStall:         writeStall,
		getLatency:         getLatency,
		l0Compactions:      newCounter("l0_compactions", "number of l0 compactions"),
		otherCompactions:   newCounter("other_compactions", "number of l1+ compactions"),
		activeCompactions:  newGauge("active_compactions", "number of active compactions"),
		diskUsage:          newGauge("disk_usage", "bytes on disk used by the ledger store"),
		tombstoneCount:     newGauge("tombstone_count", "approximate count of internal tombstones left by closed counters and pruned statuses"),
		obsoleteTableSize:  newGauge("obsolete_table_size", "number of bytes present in tables no longer referenced by the db"),
		obsoleteTableCount: newGauge("obsolete_table_count", "number of table files no longer referenced by the db"),
		zombieTableSize:    newGauge("zombie_table_size", "number of bytes present in tables no longer referenced by the db that are referenced by iterators"),
		zombieTableCount:   newGauge("zombie_table_count", "number of table files no longer referenced by the db that are referenced by iterators"),
		obsoleteWALSize:    newGauge("obsolete_wal_size", "number of bytes present in WAL no longer needed by the db"),
		obsoleteWALCount:   newGauge("obsolete_wal_count", "number of WAL files no longer needed by the db"),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.l0Compactions),
		r.Register(m.otherCompactions),
		r.Register(m.activeCompactions),
		r.Register(m.diskUsage),
		r.Register(m.tombstoneCount),
		r.Register(m.obsoleteTableSize),
		r.Register(m.obsoleteTableCount),
		r.Register(m.zombieTableSize),
		r.Register(m.zombieTableCount),
		r.Register(m.obsoleteWALSize),
		r.Register(m.obsoleteWALCount),
	)
	return r, m, errs.Err
}

func (db *Database) onCompactionBegin(info pebble.CompactionInfo) {
	db.metrics.activeCompactions.Inc()
	// Flushes report no inputs.
	if len(info.Input) > 0 && info.Input[0].Level == 0 {
		db.metrics.l0Compactions.Inc()
	} else {
		db.metrics.otherCompactions.Inc()
	}
}

func (db *Database) onCompactionEnd(pebble.CompactionInfo) {
	db.metrics.activeCompactions.Dec()
}

func (db *Database) onWriteStallBegin(pebble.WriteStallBeginInfo) {
	db.metrics.delayStart = nowFunc()
}

func (db *Database) onWriteStallEnd() {
	db.metrics.writeStall.Observe(float64(nowFunc().Sub(db.metrics.delayStart)))
}

func (db *Database) updateMetrics() {
	metrics := db.db.Metrics()
	db.metrics.diskUsage.Set(float64(metrics.DiskSpaceUsage()))
	db.metrics.tombstoneCount.Set(float64(metrics.Keys.TombstoneCount))
	db.metrics.obsoleteTableSize.Set(float64(metrics.Table.ObsoleteSize))
	db.metrics.obsoleteTableCount.Set(float64(metrics.Table.ObsoleteCount))
	db.metrics.zombieTableSize.Set(float64(metrics.Table.ZombieSize))
	db.metrics.zombieTableCount.Set(float64(metrics.Table.ZombieCount))
	db.metrics.obsoleteWALSize.Set(float64(metrics.WAL.ObsoletePhysicalSize))
	db.metrics.obsoleteWALCount.Set(float64(metrics.WAL.ObsoleteFiles))
}

func (db *Database) collectMetrics(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			db.updateMetrics()
		case <-db.closing:
			return
		}
	}
}
