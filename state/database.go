// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"

	"github.com/ava-labs/avalanchego/database"
)

var _ Mutable = (*Database)(nil)

// Database exposes an avalanchego key-value store (memdb, pebble, ...) as
// [Mutable] state.
type Database struct {
	db database.KeyValueReaderWriterDeleter
}

func NewDatabase(db database.KeyValueReaderWriterDeleter) *Database {
	return &Database{db: db}
}

func (d *Database) GetValue(_ context.Context, key []byte) ([]byte, error) {
	return d.db.Get(key)
}

func (d *Database) Insert(_ context.Context, key []byte, value []byte) error {
	return d.db.Put(key, value)
}

func (d *Database) Remove(_ context.Context, key []byte) error {
	return d.db.Delete(key)
}
