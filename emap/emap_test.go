// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package emap

import (
	"sync"
	"testing"

	"github.com/ava-labs/avalanchego/ids"
	"github.com/stretchr/testify/require"
)

type testTx struct {
	id ids.ID
	t  int64
}

func (tx *testTx) ID() ids.ID    { return tx.id }
func (tx *testTx) Expiry() int64 { return tx.t }

func TestEMapAdd(t *testing.T) {
	require := require.New(t)
	e := NewEMap[*testTx]()

	tx := &testTx{id: ids.GenerateTestID(), t: 1_500}
	e.Add([]*testTx{tx})
	require.True(e.Has(tx.id))
	require.True(e.Any([]*testTx{tx}))
	require.Len(e.times, 1)

	// Same second lands in the same bucket.
	other := &testTx{id: ids.GenerateTestID(), t: 1_999}
	e.Add([]*testTx{other})
	require.Len(e.times, 1)
	require.Len(e.times[1_000].items, 2)
}

func TestEMapIgnoresZeroExpiry(t *testing.T) {
	require := require.New(t)
	e := NewEMap[*testTx]()

	e.Add([]*testTx{{id: ids.GenerateTestID()}})
	require.Zero(e.Len())
}

func TestEMapSetMin(t *testing.T) {
	require := require.New(t)
	e := NewEMap[*testTx]()

	early := &testTx{id: ids.GenerateTestID(), t: 1_000}
	mid := &testTx{id: ids.GenerateTestID(), t: 3_000}
	late := &testTx{id: ids.GenerateTestID(), t: 5_000}
	e.Add([]*testTx{late, early, mid})

	evicted := e.SetMin(3_000)
	require.Equal([]ids.ID{early.id}, evicted)
	require.False(e.Has(early.id))
	require.True(e.Has(mid.id))

	evicted = e.SetMin(10_000)
	require.ElementsMatch([]ids.ID{mid.id, late.id}, evicted)
	require.Zero(e.Len())
	require.Empty(e.times)
}

func TestEMapTryAddOnce(t *testing.T) {
	require := require.New(t)
	e := NewEMap[*testTx]()
	tx := &testTx{id: ids.GenerateTestID(), t: 2_000}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if e.TryAdd(tx) {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(1, wins)
}
