// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package state

import (
	"slices"

	"golang.org/x/exp/maps"
)

const (
	Read     Permissions = 1
	Allocate             = 1<<1 | Read
	Write                = 1<<2 | Read

	None Permissions = 0
	All              = Read | Allocate | Write
)

// Keys holds the name of each key and its permission (Read/Allocate/Write).
// To prevent duplicate insertions from overriding the original permissions,
// use the Add function below.
type Keys map[string]Permissions

// All acceptable permission options
type Permissions byte

// Add takes the union of [permission] and any permission already held for
// [name].
func (k Keys) Add(name string, permission Permissions) {
	k[name] |= permission
}

// Sorted returns the key names in ascending order. Acquiring per-key locks
// in this order keeps concurrent executors from deadlocking.
func (k Keys) Sorted() []string {
	names := maps.Keys(k)
	slices.Sort(names)
	return names
}

// Has returns true if [p] has all the permissions that are contained in require
func (p Permissions) Has(require Permissions) bool {
	return require&^p == 0
}
