// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package querycache keeps the last known value of counter accounts per
// (network, address).
package querycache

import (
	"context"
	"fmt"
	"sync"

	"github.com/ava-labs/avalanchego/cache"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hivefi/counterchain/cluster"
	"github.com/hivefi/counterchain/codec"
	"github.com/hivefi/counterchain/program"
)

// Source reads accounts from a node on one network.
type Source interface {
	GetAccount(ctx context.Context, addr codec.Address) (*program.AccountView, bool, error)
	GetProgramAccounts(ctx context.Context, programID codec.Address) ([]*program.AccountView, error)
}

type Config struct {
	// Size is the maximum number of entries kept across all networks.
	Size int `yaml:"size"`
}

func NewDefaultConfig() Config {
	return Config{Size: 4_096}
}

type Key struct {
	Network string
	Address codec.Address
}

func (k Key) String() string {
	return k.Network + "/" + k.Address.String()
}

// entry is an immutable snapshot. It is fresh while [readAt] is not older
// than the last invalidation of its key or of its network.
type entry struct {
	readAt  uint64
	account *program.CounterAccount
	found   bool
}

// Filter selects accounts returned by FetchAll. A nil Filter keeps all.
type Filter func(*program.CounterAccount) bool

type Cache struct {
	log      logging.Logger
	resolver *cluster.Resolver
	sources  map[string]Source
	metrics  *metrics

	entries *cache.LRU[Key, *entry]
	flights singleflight.Group

	// clock advances on every invalidation. gens and epochs hold the clock
	// value of the last invalidation of a key and of a network. reads counts
	// in-flight node reads by the clock value they started at.
	//
	// A key mark is dropped once no in-flight read started before it.
	genLock sync.Mutex
	clock   uint64
	gens    map[Key]uint64
	epochs  map[string]uint64
	reads   map[uint64]int
	pruneAt int
}

// New creates a cache reading each network through its entry in [sources].
// The map is copied.
func New(
	log logging.Logger,
	cfg Config,
	resolver *cluster.Resolver,
	sources map[string]Source,
	registerer prometheus.Registerer,
) (*Cache, error) {
	m, err := newMetrics(registerer)
	if err != nil {
		return nil, err
	}
	c := &Cache{
		log:      log,
		resolver: resolver,
		sources:  make(map[string]Source, len(sources)),
		metrics:  m,
		entries:  &cache.LRU[Key, *entry]{Size: cfg.Size},
		gens:     map[Key]uint64{},
		epochs:   map[string]uint64{},
		reads:    map[uint64]int{},
		pruneAt:  minPrune,
	}
	for network, src := range sources {
		c.sources[network] = src
	}
	return c, nil
}

const minPrune = 256

func (c *Cache) invalidatedAt(k Key) uint64 {
	c.genLock.Lock()
	defer c.genLock.Unlock()

	return c.invalidatedAtLocked(k)
}

func (c *Cache) invalidatedAtLocked(k Key) uint64 {
	return max(c.gens[k], c.epochs[k.Network])
}

// beginRead registers a node read and returns the clock value it started at.
func (c *Cache) beginRead() uint64 {
	c.genLock.Lock()
	defer c.genLock.Unlock()

	c.reads[c.clock]++
	return c.clock
}

func (c *Cache) endRead(start uint64) {
	c.genLock.Lock()
	defer c.genLock.Unlock()

	c.reads[start]--
	if c.reads[start] == 0 {
		delete(c.reads, start)
	}
	if len(c.reads) == 0 {
		clear(c.gens)
		return
	}
	if len(c.gens) < c.pruneAt {
		return
	}
	oldest := c.clock
	for at := range c.reads {
		oldest = min(oldest, at)
	}
	for k, at := range c.gens {
		if at <= oldest || at <= c.epochs[k.Network] {
			delete(c.gens, k)
		}
	}
	c.pruneAt = max(2*len(c.gens), minPrune)
}

func (c *Cache) source(network string) (Source, codec.Address, error) {
	programID, err := c.resolver.Resolve(network)
	if err != nil {
		return nil, codec.EmptyAddress, err
	}
	src, ok := c.sources[network]
	if !ok {
		return nil, codec.EmptyAddress, fmt.Errorf("%w: %s", ErrNoSource, network)
	}
	return src, programID, nil
}

// Fetch returns the counter at [addr] on [network]. found is false when no
// counter exists there, which is not an error.
//
// A value read after Invalidate returns always reflects a node read that
// started after the Invalidate call.
func (c *Cache) Fetch(ctx context.Context, network string, addr codec.Address) (*program.CounterAccount, bool, error) {
	src, programID, err := c.source(network)
	if err != nil {
		return nil, false, err
	}
	k := Key{Network: network, Address: addr}
	for {
		inv := c.invalidatedAt(k)
		if e, ok := c.entries.Get(k); ok && e.readAt >= inv {
			c.metrics.hits.Inc()
			return e.account, e.found, nil
		}
		c.metrics.misses.Inc()

		e, err := c.refetch(ctx, k, src, programID)
		if err != nil {
			return nil, false, err
		}
		if e.readAt >= inv {
			return e.account, e.found, nil
		}
		// Joined a read that started before the last invalidation.
	}
}

// refetch reads [k] from the node. Concurrent callers for the same key
// share one read so reads of a key never overlap.
func (c *Cache) refetch(ctx context.Context, k Key, src Source, programID codec.Address) (*entry, error) {
	ch := c.flights.DoChan(k.String(), func() (interface{}, error) {
		start := c.beginRead()
		defer c.endRead(start)
		c.metrics.refetches.Inc()

		// The read outlives any single caller that gives up.
		view, found, err := src.GetAccount(context.WithoutCancel(ctx), k.Address)
		if err != nil {
			return nil, err
		}
		e := &entry{readAt: start, found: found}
		if found {
			e.account, err = decode(view, programID)
			if err != nil {
				return nil, err
			}
		}
		c.store(k, e)
		return e, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*entry), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// store keeps [e] unless [k] was invalidated while it was being read.
func (c *Cache) store(k Key, e *entry) {
	c.genLock.Lock()
	defer c.genLock.Unlock()

	if e.readAt < c.invalidatedAtLocked(k) {
		return
	}
	c.entries.Put(k, e)
}

// FetchAll reads every counter owned by the program on [network] and
// refreshes the per-address entries it observes. Ordering across addresses
// is whatever the node returns.
func (c *Cache) FetchAll(ctx context.Context, network string, filter Filter) ([]*program.CounterAccount, error) {
	src, programID, err := c.source(network)
	if err != nil {
		return nil, err
	}
	ch := c.flights.DoChan("all/"+network, func() (interface{}, error) {
		start := c.beginRead()
		defer c.endRead(start)
		c.metrics.refetches.Inc()
		views, err := src.GetProgramAccounts(context.WithoutCancel(ctx), programID)
		if err != nil {
			return nil, err
		}
		accounts := make([]*program.CounterAccount, 0, len(views))
		for _, view := range views {
			acct, err := decode(view, programID)
			if err != nil {
				c.log.Debug("skipping undecodable program account",
					zap.Stringer("address", view.Address),
					zap.Error(err),
				)
				continue
			}
			accounts = append(accounts, acct)
			c.store(Key{Network: network, Address: acct.Address}, &entry{
				readAt:  start,
				account: acct,
				found:   true,
			})
		}
		return accounts, nil
	})

	var accounts []*program.CounterAccount
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		accounts = res.Val.([]*program.CounterAccount)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if filter == nil {
		return accounts, nil
	}
	filtered := make([]*program.CounterAccount, 0, len(accounts))
	for _, acct := range accounts {
		if filter(acct) {
			filtered = append(filtered, acct)
		}
	}
	return filtered, nil
}

// Invalidate marks [addr] on [network] stale. The next Fetch reads the
// node.
func (c *Cache) Invalidate(network string, addr codec.Address) {
	k := Key{Network: network, Address: addr}

	c.genLock.Lock()
	c.clock++
	if len(c.reads) > 0 {
		c.gens[k] = c.clock
	}
	c.entries.Evict(k)
	c.genLock.Unlock()

	c.metrics.invalidations.Inc()
}

// InvalidateAll marks every entry on [network] stale.
func (c *Cache) InvalidateAll(network string) {
	c.genLock.Lock()
	c.clock++
	c.epochs[network] = c.clock
	c.genLock.Unlock()

	c.metrics.invalidations.Inc()
}

// Refresh invalidates [addr] and reads it again.
func (c *Cache) Refresh(ctx context.Context, network string, addr codec.Address) (*program.CounterAccount, bool, error) {
	c.Invalidate(network, addr)
	return c.Fetch(ctx, network, addr)
}

// Len is the number of entries held, fresh or not.
func (c *Cache) Len() int {
	return c.entries.Len()
}

func decode(view *program.AccountView, programID codec.Address) (*program.CounterAccount, error) {
	if view.Owner != programID {
		return nil, fmt.Errorf("%w: %s is owned by %s", program.ErrWrongOwner, view.Address, view.Owner)
	}
	return program.FromView(view)
}
