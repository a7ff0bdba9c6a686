// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package emap

import (
	"container/heap"
	"sync"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/ava-labs/avalanchego/utils/set"
)

type bucket struct {
	t     int64    // Timestamp
	items []ids.ID // Array of AvalancheGo ids
}

// bucketHeap is a min-heap of buckets ordered by timestamp.
type bucketHeap struct {
	buckets []*bucket
}

func (bh *bucketHeap) Len() int { return len(bh.buckets) }

func (bh *bucketHeap) Less(i, j int) bool { return bh.buckets[i].t < bh.buckets[j].t }

func (bh *bucketHeap) Swap(i, j int) { bh.buckets[i], bh.buckets[j] = bh.buckets[j], bh.buckets[i] }

func (bh *bucketHeap) Push(x any) { bh.buckets = append(bh.buckets, x.(*bucket)) }

func (bh *bucketHeap) Pop() any {
	n := len(bh.buckets)
	b := bh.buckets[n-1]
	bh.buckets[n-1] = nil
	bh.buckets = bh.buckets[:n-1]
	return b
}

func (bh *bucketHeap) peek() *bucket {
	if len(bh.buckets) == 0 {
		return nil
	}
	return bh.buckets[0]
}

// Item defines an interface accepted by EMap
type Item interface {
	ID() ids.ID    // method for returning an id of the item
	Expiry() int64 // method for returning this items timestamp
}

// EMap is an eviction map that remembers the IDs of items until their
// expiry passes. The ledger uses it to reject replayed transactions inside
// their validity window.
type EMap[T Item] struct {
	mu sync.RWMutex

	bh    *bucketHeap
	seen  set.Set[ids.ID]   // Stores a set of unique tx ids
	times map[int64]*bucket // Uses timestamp as keys to map to buckets of ids.
}

// NewEMap returns a pointer to a instance of an empty EMap struct.
func NewEMap[T Item]() *EMap[T] {
	return &EMap[T]{
		seen:  set.Set[ids.ID]{},
		times: make(map[int64]*bucket),
		bh:    &bucketHeap{buckets: make([]*bucket, 0, 120)},
	}
}

// Add adds a list of items to the EMap.
func (e *EMap[T]) Add(items []T) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, item := range items {
		e.add(item.ID(), item.Expiry())
	}
}

// TryAdd records [item] and reports whether it was new. The check and the
// insertion happen under one lock, so exactly one concurrent caller wins.
func (e *EMap[T]) TryAdd(item T) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := item.ID()
	if e.seen.Contains(id) {
		return false
	}
	e.add(id, item.Expiry())
	return true
}

// add places [id] into the bucket for [t], creating the bucket if needed.
// Items with a zero timestamp are never tracked.
func (e *EMap[T]) add(id ids.ID, t int64) {
	if t == 0 {
		return
	}
	if e.seen.Contains(id) {
		return
	}
	e.seen.Add(id)

	t = reducePrecision(t)
	if b, ok := e.times[t]; ok {
		b.items = append(b.items, id)
		return
	}
	b := &bucket{
		t:     t,
		items: []ids.ID{id},
	}
	e.times[t] = b
	heap.Push(e.bh, b)
}

// SetMin removes all buckets with a lower timestamp than [t] and returns
// the evicted IDs.
func (e *EMap[T]) SetMin(t int64) []ids.ID {
	e.mu.Lock()
	defer e.mu.Unlock()

	t = reducePrecision(t)
	evicted := []ids.ID{}
	for {
		b := e.bh.peek()
		if b == nil || b.t >= t {
			break
		}
		heap.Pop(e.bh)
		for _, id := range b.items {
			e.seen.Remove(id)
			evicted = append(evicted, id)
		}
		delete(e.times, b.t)
	}
	return evicted
}

// Any returns true if any of [items] has been seen.
func (e *EMap[T]) Any(items []T) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, item := range items {
		if e.seen.Contains(item.ID()) {
			return true
		}
	}
	return false
}

func (e *EMap[T]) Has(id ids.ID) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.seen.Contains(id)
}

func (e *EMap[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.seen.Len()
}
