// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package server

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/ava-labs/avalanchego/utils/set"
	"github.com/gorilla/mux"
)

type router struct {
	lock   sync.RWMutex
	router *mux.Router

	routes map[string]set.Set[string] // url -> endpoints
}

func newRouter() *router {
	return &router{
		router: mux.NewRouter(),
		routes: make(map[string]set.Set[string]),
	}
}

func (r *router) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	r.router.ServeHTTP(writer, request)
}

func (r *router) AddRouter(base, endpoint string, handler http.Handler) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	endpoints := r.routes[base]
	if endpoints.Contains(endpoint) {
		return fmt.Errorf("%w: %s%s", ErrDuplicateRoute, base, endpoint)
	}
	if endpoints == nil {
		endpoints = set.Set[string]{}
		r.routes[base] = endpoints
	}
	endpoints.Add(endpoint)
	r.router.Handle(base+endpoint, handler)
	return nil
}
