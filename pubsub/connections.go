// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package pubsub

import (
	"sync"

	"github.com/ava-labs/avalanchego/utils/set"
)

// Connections is a concurrency-safe set of subscribed peers. A peer appears
// at most once, so subscribing twice to the same stream delivers each
// message once.
type Connections struct {
	lock  sync.RWMutex
	conns set.Set[*Connection]
}

func NewConnections() *Connections {
	return &Connections{}
}

// Conns returns a snapshot of the connections in [c]. Publishing iterates
// the snapshot so subscribers can change concurrently.
func (c *Connections) Conns() []*Connection {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.conns.List()
}

func (c *Connections) Has(conn *Connection) bool {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.conns.Contains(conn)
}

// Add subscribes [conn] and reports whether it was not already subscribed.
func (c *Connections) Add(conn *Connection) bool {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.conns.Contains(conn) {
		return false
	}
	c.conns.Add(conn)
	return true
}

func (c *Connections) Remove(conn *Connection) {
	c.lock.Lock()
	defer c.lock.Unlock()

	c.conns.Remove(conn)
}

// RemoveAll unsubscribes every connection in [conns], typically the
// inactive peers returned by Server.Publish.
func (c *Connections) RemoveAll(conns []*Connection) {
	if len(conns) == 0 {
		return
	}
	c.lock.Lock()
	defer c.lock.Unlock()

	c.conns.Remove(conns...)
}

func (c *Connections) Len() int {
	c.lock.RLock()
	defer c.lock.RUnlock()

	return c.conns.Len()
}
