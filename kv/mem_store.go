package kv

import (
	"bytes"
	"sync"

	"github.com/google/btree"
	"go.uber.org/zap"
)

type memItem struct {
	key   []byte
	value []byte
}

func (it *memItem) Less(other btree.Item) bool {
	return bytes.Compare(it.key, other.(*memItem).key) < 0 //nolint:forcetypeassert
}

// MemStore is an in-memory Store backed by a B-tree.
//
// It is safe for concurrent use. Keys and values are copied on Set and Get.
type MemStore struct {
	mu     sync.RWMutex
	tree   *btree.BTree
	closed bool
	logger *zap.Logger
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty MemStore.
func NewMemStore(opts ...StoreOption) (*MemStore, error) {
	cfg, err := newStoreConfig(opts)
	if err != nil {
		return nil, err
	}
	cfg.logger.Debug("memstore created", zap.Int("degree", cfg.degree))

	return &MemStore{tree: btree.New(cfg.degree), logger: cfg.logger}, nil
}

func (s *MemStore) Get(key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrClosed
	}
	item := s.tree.Get(&memItem{key: key})
	if item == nil {
		return nil, ErrNotFound
	}

	return bytes.Clone(item.(*memItem).value), nil //nolint:forcetypeassert
}

func (s *MemStore) Set(key, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.tree.ReplaceOrInsert(&memItem{key: bytes.Clone(key), value: append([]byte{}, value...)})

	return nil
}

func (s *MemStore) Delete(key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.tree.Delete(&memItem{key: key})

	return nil
}

func (s *MemStore) Scan(prefix []byte, fn func(key, value []byte) bool) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return ErrClosed
	}

	visit := func(i btree.Item) bool {
		it := i.(*memItem) //nolint:forcetypeassert
		return fn(it.key, it.value)
	}
	upper := PrefixUpperBound(prefix)
	if upper == nil {
		s.tree.AscendGreaterOrEqual(&memItem{key: prefix}, visit)
	} else {
		s.tree.AscendRange(&memItem{key: prefix}, &memItem{key: upper}, visit)
	}

	return nil
}

// Len returns the number of entries.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.tree.Len()
}

func (s *MemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Debug("memstore closed", zap.Int("entries", s.tree.Len()))
	s.tree = btree.New(2)

	return nil
}
