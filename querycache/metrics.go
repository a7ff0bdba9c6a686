// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package querycache

import (
	"github.com/ava-labs/avalanchego/utils/wrappers"
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	refetches     prometheus.Counter
	invalidations prometheus.Counter
}

func newMetrics(r prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "querycache",
			Name:      "hits",
			Help:      "number of reads served from a fresh entry",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "querycache",
			Name:      "misses",
			Help:      "number of reads that found no fresh entry",
		}),
		refetches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "querycache",
			Name:      "refetches",
			Help:      "number of account reads sent to a node",
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "querycache",
			Name:      "invalidations",
			Help:      "number of entries marked stale",
		}),
	}
	errs := wrappers.Errs{}
	errs.Add(
		r.Register(m.hits),
		r.Register(m.misses),
		r.Register(m.refetches),
		r.Register(m.invalidations),
	)
	return m, errs.Err
}
