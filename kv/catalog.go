package kv

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/arloliu/ordcode"
	"github.com/arloliu/ordcode/errs"
	"github.com/arloliu/ordcode/internal/collision"
	"github.com/arloliu/ordcode/internal/options"
	"github.com/arloliu/ordcode/params"
)

// metaNamespace holds one catalog entry per registered namespace.
const metaNamespace = "\x00ordcode/meta/"

// tableMeta is the catalog entry of a namespace.
type tableMeta struct {
	Version          uint32
	KeyFingerprint   uint64
	ValueFingerprint uint64
}

// Catalog hands out tables of one store and guards its layout: namespaces
// must not overlap, and a namespace reopened later must use the parameters
// it was first written with.
type Catalog struct {
	mu      sync.Mutex
	store   Store
	tracker *collision.Tracker
	logger  *zap.Logger
}

// NewCatalog creates a Catalog over store.
func NewCatalog(store Store, opts ...StoreOption) (*Catalog, error) {
	if store == nil {
		return nil, errors.New("kv: nil store")
	}
	cfg, err := newStoreConfig(opts)
	if err != nil {
		return nil, err
	}

	tracker := collision.NewTracker()
	if err := tracker.Track(metaNamespace); err != nil {
		return nil, err
	}

	return &Catalog{store: store, tracker: tracker, logger: cfg.logger}, nil
}

// Store returns the underlying store.
func (c *Catalog) Store() Store {
	return c.store
}

// Namespaces returns the registered namespaces in registration order.
func (c *Catalog) Namespaces() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := c.tracker.Names()
	out := make([]string, 0, len(names))
	for _, ns := range names {
		if ns != metaNamespace {
			out = append(out, ns)
		}
	}

	return out
}

// Register creates the table for namespace ns.
//
// It fails with errs.ErrNamespaceCollision if ns overlaps another namespace
// of this catalog, errs.ErrNamespaceRegistered if ns was registered before,
// and errs.ErrFingerprintMismatch if the store already holds ns written with
// different key or value parameters.
func Register[K, V any](c *Catalog, ns string, opts ...TableOption) (*Table[K, V], error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.tracker.Track(ns); err != nil {
		return nil, err
	}

	t, err := NewTable[K, V](c.store, options.Group(opts...), WithNamespace(ns))
	if err == nil {
		err = c.checkMeta(ns, t.keyP, t.valueP)
	}
	if err != nil {
		c.tracker.Untrack(ns)
		return nil, err
	}

	return t, nil
}

func (c *Catalog) checkMeta(ns string, keyP, valueP params.Params) error {
	want := tableMeta{
		Version:          ordcode.FormatVersion,
		KeyFingerprint:   keyP.Fingerprint(),
		ValueFingerprint: valueP.Fingerprint(),
	}
	metaKey := []byte(metaNamespace + ns)

	raw, err := c.store.Get(metaKey)
	if errors.Is(err, ErrNotFound) {
		val, err := ordcode.MarshalOrdered(want, params.PortableBinary)
		if err != nil {
			return err
		}
		c.logger.Info("namespace created", zap.String("namespace", ns),
			zap.Stringer("key_params", keyP), zap.Stringer("value_params", valueP))

		return c.store.Set(metaKey, val)
	}
	if err != nil {
		return err
	}

	var got tableMeta
	if err := ordcode.UnmarshalOrdered(raw, &got, params.PortableBinary); err != nil {
		return fmt.Errorf("kv: decode catalog entry of %q: %w", ns, err)
	}
	if got != want {
		c.logger.Warn("namespace fingerprint mismatch", zap.String("namespace", ns),
			zap.Uint64("stored_key", got.KeyFingerprint), zap.Uint64("requested_key", want.KeyFingerprint))

		return fmt.Errorf("%w: namespace %q (format v%d)", errs.ErrFingerprintMismatch, ns, got.Version)
	}
	c.logger.Debug("namespace reopened", zap.String("namespace", ns))

	return nil
}
