// Package storage provides the key-value back ends used to persist local
// registry overrides.
//
// A Storage plays the part of a browser profile's local storage: a flat map
// of string keys to opaque values, scoped to a single user or machine. Three
// back ends are provided:
//
//   - Memory: process-local, optionally quota-limited (tests, ephemeral runs)
//   - File: one file per key inside a directory
//   - SQLite: a single database file (modernc.org/sqlite, no cgo)
//
// Failing is a test double whose operations always return errors.
package storage

import (
	"context"
	"errors"
)

// DefaultKey is the key under which registry overrides are stored.
const DefaultKey = "userApps"

// ErrQuotaExceeded indicates the value did not fit in the remaining quota.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Storage is a flat key-value store.
//
// Get returns ok=false with a nil error when the key is absent.
// Implementations must be safe for concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Compile-time interface compliance checks
var (
	_ Storage = (*Memory)(nil)
	_ Storage = (*Failing)(nil)
	_ Storage = (*File)(nil)
	_ Storage = (*SQLite)(nil)
)
