// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"context"
	"sync"

	"go.uber.org/atomic"
	"golang.org/x/sync/semaphore"

	"github.com/hivefi/counterchain/state"
)

// Metrics observes how often tasks had to wait on a conflict.
type Metrics interface {
	RecordBlocked()
	RecordExecutable()
}

// Executor sequences the concurrent execution of tasks with arbitrary
// conflicts on-the-fly.
//
// Executor ensures that conflicting tasks are executed in the order they
// were queued. Tasks with no conflicts are executed immediately, bounded by
// the configured concurrency.
type Executor struct {
	metrics Metrics
	sem     *semaphore.Weighted

	added int
	tasks []*task
	edges map[string]int

	outstanding sync.WaitGroup

	err atomic.Error
}

// New creates an [Executor] for at most [items] tasks, running no more
// than [concurrency] of them at once.
func New(items, concurrency int, metrics Metrics) *Executor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Executor{
		metrics: metrics,
		sem:     semaphore.NewWeighted(int64(concurrency)),
		tasks:   make([]*task, items),
		edges:   make(map[string]int, items*2),
	}
}

type task struct {
	f func() error

	l        sync.Mutex
	waiters  map[int]*sync.WaitGroup
	executed bool
}

// Run executes [f] after all previously enqueued [f] with overlapping
// [conflicts] are executed. Every key conflicts regardless of its
// permissions.
//
// Run is not safe to call concurrently.
func (e *Executor) Run(conflicts state.Keys, f func() error) {
	if e.added >= len(e.tasks) {
		e.err.CompareAndSwap(nil, ErrTooManyTasks)
		return
	}

	id := e.added
	e.added++
	t := &task{
		f:       f,
		waiters: map[int]*sync.WaitGroup{},
	}
	e.tasks[id] = t
	e.outstanding.Add(1)

	// Record dependencies. A task may share several keys with the same
	// predecessor but only waits on it once.
	wg := &sync.WaitGroup{}
	blocked := false
	for k := range conflicts {
		latest, ok := e.edges[k]
		e.edges[k] = id
		if !ok {
			continue
		}
		lt := e.tasks[latest]
		lt.l.Lock()
		if _, waiting := lt.waiters[id]; !lt.executed && !waiting {
			wg.Add(1)
			lt.waiters[id] = wg
			blocked = true
		}
		lt.l.Unlock()
	}
	if e.metrics != nil {
		if blocked {
			e.metrics.RecordBlocked()
		} else {
			e.metrics.RecordExecutable()
		}
	}

	go func() {
		// Block until our dependencies have been executed
		wg.Wait()

		// Ensure we unblock our dependents
		defer func() {
			t.l.Lock()
			for _, w := range t.waiters {
				w.Done()
			}
			t.waiters = nil
			t.executed = true
			t.l.Unlock()
			e.outstanding.Done()
		}()

		// Stop early if executor is stopped
		if e.err.Load() != nil {
			return
		}

		_ = e.sem.Acquire(context.Background(), 1)
		defer e.sem.Release(1)
		if err := t.f(); err != nil {
			e.err.CompareAndSwap(nil, err)
		}
	}()
}

// Stop prevents tasks that have not started from running.
func (e *Executor) Stop() {
	e.err.CompareAndSwap(nil, ErrStopped)
}

// Wait returns as soon as all enqueued [f] are executed.
//
// You should not call [Run] after [Wait] is called.
func (e *Executor) Wait() error {
	e.outstanding.Wait()
	return e.err.Load()
}
