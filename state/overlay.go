// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"context"
	"errors"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/maybe"
)

var _ Mutable = (*Overlay)(nil)

// Overlay buffers the writes of a single transaction on top of [parent].
// Every access is checked against the declared [Keys]; nothing reaches
// [parent] until [Commit].
type Overlay struct {
	parent  Immutable
	scope   Keys
	changes map[string]maybe.Maybe[[]byte]
}

func NewOverlay(parent Immutable, scope Keys) *Overlay {
	return &Overlay{
		parent:  parent,
		scope:   scope,
		changes: make(map[string]maybe.Maybe[[]byte], len(scope)),
	}
}

func (o *Overlay) GetValue(ctx context.Context, key []byte) ([]byte, error) {
	k := string(key)
	if !o.scope[k].Has(Read) {
		return nil, ErrKeyNotSpecified
	}
	if v, ok := o.changes[k]; ok {
		if v.IsNothing() {
			return nil, database.ErrNotFound
		}
		return v.Value(), nil
	}
	return o.parent.GetValue(ctx, key)
}

func (o *Overlay) Insert(ctx context.Context, key []byte, value []byte) error {
	k := string(key)
	perms := o.scope[k]
	if !perms.Has(Write) {
		return ErrWriteNotAllowed
	}
	if !perms.Has(Allocate) {
		if _, err := o.GetValue(ctx, key); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrAllocateDisabled
			}
			return err
		}
	}
	o.changes[k] = maybe.Some(value)
	return nil
}

func (o *Overlay) Remove(_ context.Context, key []byte) error {
	k := string(key)
	if !o.scope[k].Has(Write) {
		return ErrWriteNotAllowed
	}
	o.changes[k] = maybe.Nothing[[]byte]()
	return nil
}

// Len returns the number of keys changed so far.
func (o *Overlay) Len() int {
	return len(o.changes)
}

// Commit writes every buffered change to [mu].
func (o *Overlay) Commit(ctx context.Context, mu Mutable) error {
	for k, v := range o.changes {
		if v.IsNothing() {
			if err := mu.Remove(ctx, []byte(k)); err != nil {
				return err
			}
			continue
		}
		if err := mu.Insert(ctx, []byte(k), v.Value()); err != nil {
			return err
		}
	}
	return nil
}
