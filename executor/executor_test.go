// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package executor

import (
	"errors"
	"sync"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
	"go.uber.org/goleak"

	"github.com/hivefi/counterchain/state"
)

// Run several times to catch non-determinism
const numIterations = 10

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type countingMetrics struct {
	blocked    atomic.Int64
	executable atomic.Int64
}

func (m *countingMetrics) RecordBlocked()    { m.blocked.Inc() }
func (m *countingMetrics) RecordExecutable() { m.executable.Inc() }

func randomKeys(n int) state.Keys {
	s := make(state.Keys, n)
	for k := 0; k < n; k++ {
		s.Add(ids.GenerateTestID().String(), state.All)
	}
	return s
}

func TestExecutorNoConflicts(t *testing.T) {
	var (
		require   = require.New(t)
		l         sync.Mutex
		completed = make([]int, 0, 100)
		metrics   = &countingMetrics{}
		e         = New(100, 4, metrics)
	)
	for i := 0; i < 100; i++ {
		ti := i
		e.Run(randomKeys(i+1), func() error {
			l.Lock()
			completed = append(completed, ti)
			l.Unlock()
			return nil
		})
	}
	require.NoError(e.Wait())
	require.Len(completed, 100)
	require.Equal(int64(100), metrics.executable.Load())
	require.Zero(metrics.blocked.Load())
}

func TestExecutorSimpleConflict(t *testing.T) {
	var (
		require     = require.New(t)
		conflictKey = ids.GenerateTestID().String()
		l           sync.Mutex
		completed   = make([]int, 0, 100)
		e           = New(100, 4, nil)
		slow        = make(chan struct{})
	)
	for i := 0; i < 100; i++ {
		s := randomKeys(i + 1)
		if i%10 == 0 {
			s.Add(conflictKey, state.Write)
		}
		ti := i
		e.Run(s, func() error {
			if ti == 0 {
				<-slow
			}

			l.Lock()
			completed = append(completed, ti)
			if len(completed) == 90 {
				close(slow)
			}
			l.Unlock()
			return nil
		})
	}
	require.NoError(e.Wait())
	require.Equal([]int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}, completed[90:])
}

// W->W->W->...
func TestManyWrites(t *testing.T) {
	for j := 0; j < numIterations; j++ {
		var (
			require     = require.New(t)
			conflictKey = ids.GenerateTestID().String()
			l           sync.Mutex
			completed   = make([]int, 0, 100)
			answer      = make([]int, 0, 100)
			e           = New(100, 4, nil)
			slow        = make(chan struct{})
		)
		for i := 0; i < 100; i++ {
			answer = append(answer, i)
			s := randomKeys(i + 1)
			s.Add(conflictKey, state.Write)
			ti := i
			e.Run(s, func() error {
				if ti == 0 {
					<-slow
				}

				l.Lock()
				completed = append(completed, ti)
				l.Unlock()
				return nil
			})
		}
		close(slow)
		require.NoError(e.Wait())
		require.Equal(answer, completed)
	}
}

// Two keys shared with the same predecessor must not double count it.
func TestSharedPredecessor(t *testing.T) {
	var (
		require   = require.New(t)
		a         = ids.GenerateTestID().String()
		b         = ids.GenerateTestID().String()
		l         sync.Mutex
		completed = make([]int, 0, 3)
		e         = New(3, 2, nil)
	)
	for i := 0; i < 3; i++ {
		s := state.Keys{}
		s.Add(a, state.Write)
		s.Add(b, state.Write)
		ti := i
		e.Run(s, func() error {
			l.Lock()
			completed = append(completed, ti)
			l.Unlock()
			return nil
		})
	}
	require.NoError(e.Wait())
	require.Equal([]int{0, 1, 2}, completed)
}

func TestConcurrencyLimit(t *testing.T) {
	var (
		require = require.New(t)
		running atomic.Int64
		peak    atomic.Int64
		e       = New(64, 2, nil)
	)
	for i := 0; i < 64; i++ {
		e.Run(randomKeys(1), func() error {
			n := running.Inc()
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			running.Dec()
			return nil
		})
	}
	require.NoError(e.Wait())
	require.LessOrEqual(peak.Load(), int64(2))
}

func TestEarlyExit(t *testing.T) {
	var (
		require   = require.New(t)
		l         sync.Mutex
		completed = make([]int, 0, 500)
		e         = New(500, 4, nil)
		terr      = errors.New("uh oh")
	)
	for i := 0; i < 500; i++ {
		ti := i
		e.Run(randomKeys(i+1), func() error {
			l.Lock()
			completed = append(completed, ti)
			l.Unlock()
			if ti == 200 {
				return terr
			}
			return nil
		})
	}
	require.ErrorIs(e.Wait(), terr)
	require.LessOrEqual(len(completed), 500)
}

func TestStop(t *testing.T) {
	var (
		require     = require.New(t)
		conflictKey = ids.GenerateTestID().String()
		l           sync.Mutex
		completed   = make([]int, 0, 100)
		e           = New(100, 4, nil)
	)
	for i := 0; i < 100; i++ {
		s := state.Keys{}
		s.Add(conflictKey, state.Write)
		ti := i
		e.Run(s, func() error {
			l.Lock()
			completed = append(completed, ti)
			l.Unlock()
			if ti == 20 {
				e.Stop()
			}
			return nil
		})
	}
	require.ErrorIs(e.Wait(), ErrStopped)
	require.Len(completed, 21)
}

func TestTooManyTasks(t *testing.T) {
	e := New(1, 1, nil)
	e.Run(randomKeys(1), func() error { return nil })
	e.Run(randomKeys(1), func() error { return nil })
	require.ErrorIs(t, e.Wait(), ErrTooManyTasks)
}
