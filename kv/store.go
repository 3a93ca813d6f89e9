// Package kv stores ordcode-encoded keys in ordered key-value engines.
//
// Store abstracts an ordered byte-keyed engine. MemStore keeps entries in a
// B-tree and PebbleStore in a Pebble LSM. Table layers typed keys and values
// on top of any Store: because ordcode preserves order, iterating the store
// visits keys in the order of the Go values, ascending or descending
// depending on the key parameters. Catalog registers the tables sharing one
// store and rejects overlapping namespaces or parameter changes.
package kv

import (
	"errors"

	"go.uber.org/zap"

	"github.com/arloliu/ordcode/internal/options"
)

// ErrNotFound is returned when a key is not present in a store.
var ErrNotFound = errors.New("kv: key not found")

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("kv: store closed")

// Store is an ordered byte-keyed store.
//
// Scan visits keys starting with prefix in ascending byte order until fn
// returns false. The slices passed to fn are only valid during the call and
// must not be modified. fn must not write to the store.
type Store interface {
	Get(key []byte) ([]byte, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	Scan(prefix []byte, fn func(key, value []byte) bool) error
	Close() error
}

// PrefixUpperBound returns the smallest key greater than every key starting
// with prefix, or nil if no such key exists (prefix is empty or all 0xFF).
func PrefixUpperBound(prefix []byte) []byte {
	u := make([]byte, len(prefix))
	copy(u, prefix)
	for i := len(u) - 1; i >= 0; i-- {
		u[i]++
		if u[i] != 0 {
			return u[:i+1]
		}
	}

	return nil
}

type storeConfig struct {
	logger *zap.Logger
	degree int
	sync   bool
}

func newStoreConfig(opts []StoreOption) (*storeConfig, error) {
	cfg := &storeConfig{logger: zap.NewNop(), degree: 32}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// StoreOption configures MemStore and PebbleStore.
type StoreOption = options.Option[*storeConfig]

// WithLogger sets the logger used for store lifecycle events.
func WithLogger(l *zap.Logger) StoreOption {
	return options.NoError(func(c *storeConfig) {
		if l != nil {
			c.logger = l
		}
	})
}

// WithDegree sets the B-tree degree of a MemStore.
func WithDegree(degree int) StoreOption {
	return options.New(func(c *storeConfig) error {
		if degree < 2 {
			return errors.New("kv: btree degree must be at least 2")
		}
		c.degree = degree

		return nil
	})
}

// WithSync makes PebbleStore writes wait for the WAL to be synced.
func WithSync(sync bool) StoreOption {
	return options.NoError(func(c *storeConfig) {
		c.sync = sync
	})
}
