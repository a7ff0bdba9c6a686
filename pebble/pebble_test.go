// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pebble

import (
	"crypto/rand"
	"testing"

	"github.com/ava-labs/avalanchego/database"
	"github.com/stretchr/testify/require"
)

func randBytes() []byte {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		panic(err)
	}
	return b
}

func newTestDB(t *testing.T) *Database {
	cfg := NewDefaultConfig()
	cfg.Sync = false
	db, registry, err := New(t.TempDir(), cfg)
	require.NoError(t, err)
	require.NotNil(t, registry)
	return db
}

func TestPutGetDelete(t *testing.T) {
	require := require.New(t)
	db := newTestDB(t)

	key, value := randBytes(), randBytes()
	has, err := db.Has(key)
	require.NoError(err)
	require.False(has)

	_, err = db.Get(key)
	require.ErrorIs(err, database.ErrNotFound)

	require.NoError(db.Put(key, value))
	got, err := db.Get(key)
	require.NoError(err)
	require.Equal(value, got)

	// Returned values are owned by the caller.
	got[0]++
	again, err := db.Get(key)
	require.NoError(err)
	require.Equal(value, again)

	require.NoError(db.Delete(key))
	_, err = db.Get(key)
	require.ErrorIs(err, database.ErrNotFound)

	require.NoError(db.Close())
	require.NoError(db.Close())
}

func TestReopen(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	cfg := NewDefaultConfig()

	db, _, err := New(dir, cfg)
	require.NoError(err)
	require.NoError(db.Put([]byte("k"), []byte("v")))
	require.NoError(db.Close())

	db, _, err = New(dir, cfg)
	require.NoError(err)
	v, err := db.Get([]byte("k"))
	require.NoError(err)
	require.Equal([]byte("v"), v)
	require.NoError(db.Close())
}

func BenchmarkPut(b *testing.B) {
	cfg := NewDefaultConfig()
	cfg.Sync = false
	db, _, err := New(b.TempDir(), cfg)
	if err != nil {
		b.Fatal(err)
	}
	defer db.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := db.Put(randBytes(), randBytes()); err != nil {
			b.Fatal(err)
		}
	}
}

func TestMetrics(t *testing.T) {
	require := require.New(t)
	cfg := NewDefaultConfig()
	cfg.Sync = false
	db, registry, err := New(t.TempDir(), cfg)
	require.NoError(err)

	require.NoError(db.Put([]byte("k"), []byte("v")))
	db.updateMetrics()

	families, err := registry.Gather()
	require.NoError(err)
	names := make([]string, 0, len(families))
	for _, family := range families {
		names = append(names, family.GetName())
	}
	require.Contains(names, "ledger_db_l0_compactions")
	require.Contains(names, "ledger_db_disk_usage")
	require.Contains(names, "ledger_db_obsolete_wal_count")
	require.Contains(names, "ledger_db_zombie_table_count")
	require.NoError(db.Close())
}

func TestInvalidMetricsInterval(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MetricsInterval = 0
	_, _, err := New(t.TempDir(), cfg)
	require.ErrorIs(t, err, ErrInvalidMetricsInterval)
}
