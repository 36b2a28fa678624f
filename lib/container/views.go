package container

import (
	"iter"

	"github.com/ValentinKolb/dRel/lib/container/maps"
)

// --------------------------------------------------------------------------
// Inner View
// --------------------------------------------------------------------------

// InnerView is a read-only view over a single-level index (key -> entry),
// e.g. the cols of one row or the whole col index of a OneToMany.
//
// A view borrows the index of its container. It must not be used after the
// container has been mutated.
type InnerView[K comparable, E any] struct {
	index maps.Map[K, int]
	arena *arena[E]
}

func (v InnerView[K, E]) Empty() bool { return v.index.Len() == 0 }
func (v InnerView[K, E]) Size() int   { return v.index.Len() }

// Has reports whether key is present in the view.
func (v InnerView[K, E]) Has(key K) bool {
	_, ok := v.index.Load(key)
	return ok
}

// Get returns the entry stored for key.
func (v InnerView[K, E]) Get(key K) (E, bool) {
	slot, ok := v.index.Load(key)
	if !ok {
		var zero E
		return zero, false
	}
	return v.arena.get(slot), true
}

// All iterates over (key, entry) pairs in the order of the underlying map strategy.
// Every call starts a new iteration.
func (v InnerView[K, E]) All() iter.Seq2[K, E] {
	return func(yield func(K, E) bool) {
		v.index.Range(func(key K, slot int) bool {
			return yield(key, v.arena.get(slot))
		})
	}
}

// Keys iterates over the keys of the view.
func (v InnerView[K, E]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		v.index.Range(func(key K, _ int) bool {
			return yield(key)
		})
	}
}

// --------------------------------------------------------------------------
// Outer View
// --------------------------------------------------------------------------

// OuterView is a read-only view over a two-level index (outer key -> inner key -> entry),
// e.g. the rows of a OneToMany. Each element is itself an InnerView.
//
// The same lifetime rules as for InnerView apply.
type OuterView[K1, K2 comparable, E any] struct {
	index maps.Map[K1, maps.Map[K2, int]]
	arena *arena[E]
}

func (v OuterView[K1, K2, E]) Empty() bool { return v.index.Len() == 0 }
func (v OuterView[K1, K2, E]) Size() int   { return v.index.Len() }

// Has reports whether the outer key is present. Outer buckets are never empty.
func (v OuterView[K1, K2, E]) Has(key K1) bool {
	_, ok := v.index.Load(key)
	return ok
}

// Get returns the inner view for the outer key.
func (v OuterView[K1, K2, E]) Get(key K1) (InnerView[K2, E], bool) {
	inner, ok := v.index.Load(key)
	if !ok {
		return InnerView[K2, E]{}, false
	}
	return InnerView[K2, E]{index: inner, arena: v.arena}, true
}

// All iterates over (outer key, inner view) pairs in the order of the outer map strategy.
func (v OuterView[K1, K2, E]) All() iter.Seq2[K1, InnerView[K2, E]] {
	return func(yield func(K1, InnerView[K2, E]) bool) {
		v.index.Range(func(key K1, inner maps.Map[K2, int]) bool {
			return yield(key, InnerView[K2, E]{index: inner, arena: v.arena})
		})
	}
}

// Keys iterates over the outer keys.
func (v OuterView[K1, K2, E]) Keys() iter.Seq[K1] {
	return func(yield func(K1) bool) {
		v.index.Range(func(key K1, _ maps.Map[K2, int]) bool {
			return yield(key)
		})
	}
}
