// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package lockmap hands out read/write locks by key. Entries exist only
// while some goroutine holds or waits on them.
package lockmap

import "sync"

type holderLock struct {
	holders int
	mu      sync.RWMutex
}

type Lockmap struct {
	l sync.Mutex
	m map[string]*holderLock
}

func New(initSize int) *Lockmap {
	return &Lockmap{
		m: make(map[string]*holderLock, initSize),
	}
}

func (l *Lockmap) Lock(key string) {
	l.lock(key, true)
}

func (l *Lockmap) Unlock(key string) {
	l.unlock(key, true)
}

func (l *Lockmap) RLock(key string) {
	l.lock(key, false)
}

func (l *Lockmap) RUnlock(key string) {
	l.unlock(key, false)
}

func (l *Lockmap) lock(key string, write bool) {
	l.l.Lock()
	hl, ok := l.m[key]
	if !ok {
		hl = &holderLock{}
		l.m[key] = hl
	}
	hl.holders++
	l.l.Unlock()

	if write {
		hl.mu.Lock()
	} else {
		hl.mu.RLock()
	}
}

func (l *Lockmap) unlock(key string, write bool) {
	l.l.Lock()
	defer l.l.Unlock()

	hl, ok := l.m[key]
	if !ok {
		panic("lockmap: unlock of unlocked key " + key)
	}
	if write {
		hl.mu.Unlock()
	} else {
		hl.mu.RUnlock()
	}
	hl.holders--
	if hl.holders == 0 {
		delete(l.m, key)
	}
}

// LockAll write-locks [keys] in the given order. Callers that lock more
// than one key must pass them sorted to avoid deadlock.
func (l *Lockmap) LockAll(keys []string) {
	for _, k := range keys {
		l.Lock(k)
	}
}

func (l *Lockmap) UnlockAll(keys []string) {
	for i := len(keys) - 1; i >= 0; i-- {
		l.Unlock(keys[i])
	}
}

func (l *Lockmap) Locks() int {
	l.l.Lock()
	defer l.l.Unlock()

	return len(l.m)
}
