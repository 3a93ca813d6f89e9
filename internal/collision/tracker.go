package collision

import (
	"fmt"
	"strings"

	"github.com/arloliu/ordcode/errs"
	"github.com/arloliu/ordcode/internal/hash"
)

// Tracker tracks key namespaces sharing one store and detects overlaps.
//
// Two namespaces overlap when one is a byte prefix of the other: a scan of
// the shorter one would then visit keys of the longer one.
type Tracker struct {
	names   map[uint64]string // ID → namespace, for exact duplicates
	ordered []string          // registration order
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		names:   make(map[uint64]string),
		ordered: make([]string, 0),
	}
}

// Track registers ns.
// It returns errs.ErrNamespaceRegistered if ns was already tracked and
// errs.ErrNamespaceCollision if ns overlaps a tracked namespace.
func (t *Tracker) Track(ns string) error {
	id := hash.ID(ns)
	if existing, ok := t.names[id]; ok && existing == ns {
		return fmt.Errorf("%w: %q", errs.ErrNamespaceRegistered, ns)
	}

	for _, other := range t.ordered {
		if strings.HasPrefix(ns, other) || strings.HasPrefix(other, ns) {
			return fmt.Errorf("%w: %q and %q", errs.ErrNamespaceCollision, ns, other)
		}
	}

	t.names[id] = ns
	t.ordered = append(t.ordered, ns)

	return nil
}

// Untrack removes ns. It is a no-op for namespaces that are not tracked.
func (t *Tracker) Untrack(ns string) {
	id := hash.ID(ns)
	if existing, ok := t.names[id]; !ok || existing != ns {
		return
	}
	delete(t.names, id)
	for i, name := range t.ordered {
		if name == ns {
			t.ordered = append(t.ordered[:i], t.ordered[i+1:]...)
			break
		}
	}
}

// Contains reports whether ns is tracked.
func (t *Tracker) Contains(ns string) bool {
	existing, ok := t.names[hash.ID(ns)]
	return ok && existing == ns
}

// Names returns the tracked namespaces in registration order.
func (t *Tracker) Names() []string {
	return t.ordered
}

// Count returns the number of tracked namespaces.
func (t *Tracker) Count() int {
	return len(t.ordered)
}

// Reset clears all tracked namespaces.
func (t *Tracker) Reset() {
	for k := range t.names {
		delete(t.names, k)
	}
	t.ordered = t.ordered[:0]
}
