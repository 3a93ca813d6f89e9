package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arloliu/ordcode/errs"
	"github.com/arloliu/ordcode/params"
)

func TestCatalog_Register(t *testing.T) {
	store, err := NewMemStore()
	require.NoError(t, err)
	defer store.Close()

	cat, err := NewCatalog(store, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	require.Same(t, Store(store), cat.Store())

	users, err := Register[uint32, string](cat, "users/")
	require.NoError(t, err)
	require.NoError(t, users.Put(1, "alice"))

	_, err = Register[uint32, string](cat, "groups/", WithKeyParams(params.DescendingOrder))
	require.NoError(t, err)
	require.Equal(t, []string{"users/", "groups/"}, cat.Namespaces())

	_, err = Register[uint32, string](cat, "users/")
	require.ErrorIs(t, err, errs.ErrNamespaceRegistered)

	_, err = Register[uint32, string](cat, "users/archive/")
	require.ErrorIs(t, err, errs.ErrNamespaceCollision)

	_, err = Register[uint32, string](cat, "")
	require.ErrorIs(t, err, errs.ErrNamespaceCollision)

	// catalog entries stay out of table scans
	count := 0
	require.NoError(t, users.Scan(func(uint32, string) bool {
		count++
		return true
	}))
	require.Equal(t, 1, count)
}

func TestCatalog_FingerprintMismatch(t *testing.T) {
	store, err := OpenPebble("")
	require.NoError(t, err)
	defer store.Close()

	first, err := NewCatalog(store)
	require.NoError(t, err)
	_, err = Register[int64, string](first, "events/", WithKeyParams(params.DescendingOrder))
	require.NoError(t, err)

	// a later process reopening the same store
	second, err := NewCatalog(store)
	require.NoError(t, err)

	_, err = Register[int64, string](second, "events/")
	require.ErrorIs(t, err, errs.ErrFingerprintMismatch)
	require.Empty(t, second.Namespaces())

	tbl, err := Register[int64, string](second, "events/", WithKeyParams(params.DescendingOrder))
	require.NoError(t, err)
	require.Equal(t, params.DescendingOrder, tbl.KeyParams())
}

func TestNewCatalog_NilStore(t *testing.T) {
	_, err := NewCatalog(nil)
	require.Error(t, err)
}
