// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/ava-labs/avalanchego/database"
	"github.com/cockroachdb/pebble"
	"github.com/prometheus/client_golang/prometheus"
)

var _ database.KeyValueReaderWriterDeleter = (*Database)(nil)

var ErrInvalidMetricsInterval = errors.New("metrics interval must be positive")

type Config struct {
	CacheSize    int  `yaml:"cacheSize"`
	BytesPerSync int  `yaml:"bytesPerSync"`
	MaxOpenFiles int  `yaml:"maxOpenFiles"`
	Sync         bool `yaml:"sync"`

	// MetricsInterval is how often store-level gauges are refreshed.
	MetricsInterval time.Duration `yaml:"metricsInterval"`
}

func NewDefaultConfig() Config {
	return Config{
		CacheSize:    64 * 1024 * 1024,
		BytesPerSync: 1024 * 1024,
		MaxOpenFiles: 4_096,
		Sync:         true,

		MetricsInterval: 10 * time.Second,
	}
}

// Database stores ledger state on disk. It implements the subset of the
// avalanchego database interface the ledger reads and writes through.
type Database struct {
	db      *pebble.DB
	metrics *metrics

	writeOpts *pebble.WriteOptions

	closeOnce sync.Once
	closing   chan struct{}
	done      sync.WaitGroup
}

// New opens (or creates) the database at [file] and returns the registry
// holding its metrics.
func New(file string, cfg Config) (*Database, *prometheus.Registry, error) {
	if cfg.MetricsInterval <= 0 {
		return nil, nil, ErrInvalidMetricsInterval
	}
	registry, m, err := newMetrics()
	if err != nil {
		return nil, nil, err
	}
	db := &Database{
		metrics:   m,
		writeOpts: &pebble.WriteOptions{Sync: cfg.Sync},
		closing:   make(chan struct{}),
	}
	cache := pebble.NewCache(int64(cfg.CacheSize))
	defer cache.Unref()
	opts := &pebble.Options{
		Cache:        cache,
		BytesPerSync: cfg.BytesPerSync,
		MaxOpenFiles: cfg.MaxOpenFiles,
		EventListener: &pebble.EventListener{
			CompactionBegin: db.onCompactionBegin,
			CompactionEnd:   db.onCompactionEnd,
			WriteStallBegin: db.onWriteStallBegin,
			WriteStallEnd:   db.onWriteStallEnd,
		},
	}
	d, err := pebble.Open(file, opts)
	if err != nil {
		return nil, nil, err
	}
	db.db = d
	db.done.Add(1)
	go func() {
		defer db.done.Done()
		db.collectMetrics(cfg.MetricsInterval)
	}()
	return db, registry, nil
}

func (db *Database) Has(key []byte) (bool, error) {
	_, err := db.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Get returns a copy of the value at [key] or database.ErrNotFound.
func (db *Database) Get(key []byte) ([]byte, error) {
	start := nowFunc()
	defer func() {
		db.metrics.getLatency.Observe(float64(nowFunc().Sub(start)))
	}()

	v, closer, err := db.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	value := slices.Clone(v)
	return value, closer.Close()
}

func (db *Database) Put(key []byte, value []byte) error {
	return db.db.Set(key, value, db.writeOpts)
}

func (db *Database) Delete(key []byte) error {
	return db.db.Delete(key, db.writeOpts)
}

func (db *Database) Close() error {
	var err error
	db.closeOnce.Do(func() {
		close(db.closing)
		db.done.Wait()
		err = db.db.Close()
	})
	return err
}
