package kv

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/arloliu/ordcode"
	"github.com/arloliu/ordcode/internal/options"
	"github.com/arloliu/ordcode/params"
)

// Table is a typed view over a Store. Keys of type K are encoded with the
// key parameters, so a scan visits them in K order; values of type V are
// encoded with the value parameters.
//
// Entries of different tables sharing a store are separated by the
// namespace prefix given with WithNamespace; no namespace may be a prefix
// of another in the same store.
type Table[K, V any] struct {
	store     Store
	namespace []byte
	keyP      params.Params
	valueP    params.Params
}

type tableConfig struct {
	namespace []byte
	keyP      params.Params
	valueP    params.Params
}

// TableOption configures a Table.
type TableOption = options.Option[*tableConfig]

// WithNamespace prefixes every key of the table with ns.
func WithNamespace(ns string) TableOption {
	return options.NoError(func(c *tableConfig) {
		c.namespace = []byte(ns)
	})
}

// WithKeyParams sets how keys are encoded. It defaults to params.AscendingOrder.
func WithKeyParams(p params.Params) TableOption {
	return options.New(func(c *tableConfig) error {
		if err := p.Validate(); err != nil {
			return err
		}
		c.keyP = p

		return nil
	})
}

// WithValueParams sets how values are encoded. It defaults to params.PortableBinary.
func WithValueParams(p params.Params) TableOption {
	return options.New(func(c *tableConfig) error {
		if err := p.Validate(); err != nil {
			return err
		}
		c.valueP = p

		return nil
	})
}

// NewTable creates a Table over store.
func NewTable[K, V any](store Store, opts ...TableOption) (*Table[K, V], error) {
	if store == nil {
		return nil, errors.New("kv: nil store")
	}

	cfg := &tableConfig{keyP: params.AscendingOrder, valueP: params.PortableBinary}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Table[K, V]{
		store:     store,
		namespace: cfg.namespace,
		keyP:      cfg.keyP,
		valueP:    cfg.valueP,
	}, nil
}

// KeyParams returns the parameters keys are encoded with.
func (t *Table[K, V]) KeyParams() params.Params {
	return t.keyP
}

func (t *Table[K, V]) withKey(key any, fn func(encoded []byte) error) error {
	if len(t.namespace) == 0 {
		return ordcode.WithEncoded(key, t.keyP, fn)
	}

	encoded, err := ordcode.AppendOrdered(bytes.Clone(t.namespace), key, t.keyP)
	if err != nil {
		return err
	}

	return fn(encoded)
}

// Put stores value under key, replacing any previous value.
func (t *Table[K, V]) Put(key K, value V) error {
	val, err := ordcode.MarshalOrdered(value, t.valueP)
	if err != nil {
		return fmt.Errorf("kv: encode value: %w", err)
	}

	return t.withKey(key, func(k []byte) error {
		return t.store.Set(k, val)
	})
}

// Get returns the value stored under key, or ErrNotFound.
func (t *Table[K, V]) Get(key K) (V, error) {
	var value V
	var raw []byte
	err := t.withKey(key, func(k []byte) error {
		var err error
		raw, err = t.store.Get(k)

		return err
	})
	if err != nil {
		return value, err
	}

	// stores return copies, so in-place inversion is safe
	if err := ordcode.UnmarshalOrdered(raw, &value, t.valueP); err != nil {
		return value, fmt.Errorf("kv: decode value: %w", err)
	}

	return value, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (t *Table[K, V]) Delete(key K) error {
	return t.withKey(key, t.store.Delete)
}

// Scan visits every entry in key order until fn returns false.
func (t *Table[K, V]) Scan(fn func(key K, value V) bool) error {
	return t.scan(t.namespace, fn)
}

// ScanPrefix visits entries whose encoded key starts with the encoding of
// prefix, in key order, until fn returns false.
//
// prefix must be made of the leading fixed-width fields of K, for example a
// struct holding the first fields of a composite key. Plain variable-length
// fields write metadata at the end of the encoding and cannot act as a
// prefix; string and []byte fields tagged `ordcode:"esc"` are written in
// place and can.
func (t *Table[K, V]) ScanPrefix(prefix any, fn func(key K, value V) bool) error {
	p, err := ordcode.AppendOrdered(bytes.Clone(t.namespace), prefix, t.keyP)
	if err != nil {
		return fmt.Errorf("kv: encode prefix: %w", err)
	}

	return t.scan(p, fn)
}

func (t *Table[K, V]) scan(prefix []byte, fn func(key K, value V) bool) error {
	var decodeErr error
	err := t.store.Scan(prefix, func(k, v []byte) bool {
		var key K
		var value V
		// store memory must not be written
		if decodeErr = ordcode.UnmarshalReadOnly(k[len(t.namespace):], &key, t.keyP); decodeErr != nil {
			decodeErr = fmt.Errorf("kv: decode key %x: %w", k, decodeErr)
			return false
		}
		if decodeErr = ordcode.UnmarshalReadOnly(v, &value, t.valueP); decodeErr != nil {
			decodeErr = fmt.Errorf("kv: decode value of key %x: %w", k, decodeErr)
			return false
		}

		return fn(key, value)
	})
	if err != nil {
		return err
	}

	return decodeErr
}
