package kv

import (
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"go.uber.org/zap"
)

// PebbleStore is a Store backed by a Pebble database.
type PebbleStore struct {
	db     *pebble.DB
	wo     *pebble.WriteOptions
	logger *zap.Logger
}

var _ Store = (*PebbleStore)(nil)

// OpenPebble opens or creates a Pebble database in dir. An empty dir opens
// an in-memory database that is discarded on Close.
func OpenPebble(dir string, opts ...StoreOption) (*PebbleStore, error) {
	cfg, err := newStoreConfig(opts)
	if err != nil {
		return nil, err
	}

	pebbleOpts := &pebble.Options{}
	if dir == "" {
		pebbleOpts.FS = vfs.NewMem()
	}

	db, err := pebble.Open(dir, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("kv: open pebble at %q: %w", dir, err)
	}

	wo := pebble.NoSync
	if cfg.sync {
		wo = pebble.Sync
	}
	cfg.logger.Debug("pebble store opened", zap.String("dir", dir), zap.Bool("sync", cfg.sync))

	return &PebbleStore{db: db, wo: wo, logger: cfg.logger}, nil
}

func (s *PebbleStore) Get(key []byte) ([]byte, error) {
	v, closer, err := s.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	out := make([]byte, len(v))
	copy(out, v)

	return out, nil
}

func (s *PebbleStore) Set(key, value []byte) error {
	return s.db.Set(key, value, s.wo)
}

func (s *PebbleStore) Delete(key []byte) error {
	return s.db.Delete(key, s.wo)
}

func (s *PebbleStore) Scan(prefix []byte, fn func(key, value []byte) bool) error {
	iter := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: PrefixUpperBound(prefix),
	})
	for valid := iter.First(); valid; valid = iter.Next() {
		if !fn(iter.Key(), iter.Value()) {
			break
		}
	}

	return iter.Close()
}

func (s *PebbleStore) Close() error {
	if err := s.db.Close(); err != nil {
		s.logger.Warn("pebble store close failed", zap.Error(err))
		return err
	}
	s.logger.Debug("pebble store closed")

	return nil
}
