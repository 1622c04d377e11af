// Package store provides the pluggable key-value persistence used by the
// ledger: an in-memory implementation for tests and a JSON-file
// implementation for deployments. The ledger serializes its whole state as a
// single record under one key.
package store

import "errors"

// ErrKeyNotFound is returned by Get when no value exists for the key.
var ErrKeyNotFound = errors.New("key not found")

// KV is a minimal key-value store.
type KV interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
}
