// Package storage provides the key-value capability every storage binding writes to,
// with one adapter per store kind.
package storage

import (
	"context"

	"github.com/jrsteele09/go-browserstore/kvstore"
	"github.com/pkg/errors"
)

// Kind names a backing store shape.
type Kind string

const (
	// KindSession is volatile: its contents live as long as the process.
	KindSession Kind = "session"
	// KindLocal is persistent: a folder per origin, one sub-folder per key.
	KindLocal Kind = "local"
	// KindIndexedDB is a generic asynchronous key-value driver backed by SQLite.
	KindIndexedDB Kind = "indexedDB"
)

// Configuration errors, returned synchronously when a binding is declared.
var (
	ErrNoKind          = errors.New("no storage type was specified")
	ErrUnsupportedKind = errors.New("unsupported storage type")
	ErrUnavailable     = errors.New("environment does not support storage type")
)

// ErrQuotaExceeded is returned by SetItem when the store has no room for the value.
var ErrQuotaExceeded = kvstore.ErrQuotaExceeded

// Store is the capability a storage binding needs from a backing store.
type Store interface {
	// GetItem returns the value stored under key; ok is false when the key is absent.
	GetItem(ctx context.Context, key string) (value []byte, ok bool, err error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key string, value []byte) error
	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error
	// Length returns the number of keys held.
	Length(ctx context.Context) (int, error)
	// Keys returns every key held, in key order.
	Keys(ctx context.Context) ([]string, error)
	// Close releases the store.
	Close() error
}
