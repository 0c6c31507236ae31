/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"fmt"
	"sync"

	"github.com/suparena/modelstore/datastore/keyexpr"
	"github.com/suparena/modelstore/storagemodels"
)

// DecodeFunc turns a raw record into a model value.
type DecodeFunc func(raw storagemodels.Record) (any, error)

var (
	namespaces   = make(map[string]DecodeFunc)
	namespacesMu sync.RWMutex
)

// RegisterNamespace registers the decoder for records whose primary key lives in namespace.
// Registering a namespace twice panics.
func RegisterNamespace(namespace string, fn DecodeFunc) {
	namespacesMu.Lock()
	defer namespacesMu.Unlock()

	if _, exists := namespaces[namespace]; exists {
		panic(fmt.Sprintf("registry: namespace %q already registered", namespace))
	}
	namespaces[namespace] = fn
}

// LookupNamespace returns the decoder registered for namespace.
func LookupNamespace(namespace string) (DecodeFunc, error) {
	namespacesMu.RLock()
	defer namespacesMu.RUnlock()

	fn, ok := namespaces[namespace]
	if !ok {
		return nil, fmt.Errorf("registry: no model registered for namespace %q", namespace)
	}
	return fn, nil
}

// Decode decodes raw with the decoder of the namespace of key. Label scans may return
// records of several models; Decode picks the right one per item.
func Decode(key string, raw storagemodels.Record) (any, error) {
	ns, _ := keyexpr.Split(key)
	fn, err := LookupNamespace(ns)
	if err != nil {
		return nil, err
	}
	return fn(raw)
}
