// Package maps provides the associative structures the containers build their
// indices on. A Strategy selects between a hash based map with amortized
// constant time access (Unordered) and a btree with sorted iteration (Ordered).
//
// None of the implementations is meant to be shared between goroutines while
// one of them writes; the containers are single-writer by contract.
package maps

import (
	"fmt"

	"github.com/google/btree"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Strategy
// --------------------------------------------------------------------------

// Strategy selects the backing structure of a Map.
type Strategy uint8

const (
	Unordered Strategy = iota // hash map, unspecified iteration order
	Ordered                   // btree, ascending iteration order
)

func (s Strategy) String() string {
	switch s {
	case Unordered:
		return "Unordered"
	case Ordered:
		return "Ordered"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// --------------------------------------------------------------------------
// Map Interface
// --------------------------------------------------------------------------

// Map is the minimal map capability the container indices need.
type Map[K comparable, V any] interface {
	// Load returns the value stored for key. The boolean reports whether a value was found.
	Load(key K) (value V, ok bool)
	// Store inserts or overwrites the value for key.
	Store(key K, value V)
	// Delete removes key. Deleting a missing key is a no-op.
	Delete(key K)
	// Len returns the number of stored keys.
	Len() int
	// Range calls f for every key/value pair in the order of the strategy until f returns false.
	// f must not modify the map.
	Range(f func(key K, value V) bool)
}

// New creates an empty map using the given strategy.
// The less function is only used (and then required) by the Ordered strategy.
//
// Selecting Ordered without a less function is a programming error and panics.
func New[K comparable, V any](strategy Strategy, less func(a, b K) bool) Map[K, V] {
	switch strategy {
	case Unordered:
		return NewUnordered[K, V]()
	case Ordered:
		if less == nil {
			panic(fmt.Sprintf("maps: ordered strategy requires a less function for key type %T", *new(K)))
		}
		return NewOrdered[K, V](less)
	default:
		panic(fmt.Sprintf("maps: unknown strategy %s", strategy))
	}
}

// --------------------------------------------------------------------------
// Unordered (xsync)
// --------------------------------------------------------------------------

type unorderedMap[K comparable, V any] struct {
	data *xsync.MapOf[K, V]
}

// NewUnordered creates a hash based map.
func NewUnordered[K comparable, V any]() Map[K, V] {
	return &unorderedMap[K, V]{data: xsync.NewMapOf[K, V]()}
}

func (m *unorderedMap[K, V]) Load(key K) (V, bool) { return m.data.Load(key) }
func (m *unorderedMap[K, V]) Store(key K, value V) { m.data.Store(key, value) }
func (m *unorderedMap[K, V]) Delete(key K)         { m.data.Delete(key) }
func (m *unorderedMap[K, V]) Len() int             { return m.data.Size() }

func (m *unorderedMap[K, V]) Range(f func(key K, value V) bool) {
	m.data.Range(f)
}

// --------------------------------------------------------------------------
// Ordered (btree)
// --------------------------------------------------------------------------

// btreeDegree is the branching factor of the ordered maps
const btreeDegree = 16

type pair[K comparable, V any] struct {
	key   K
	value V
}

type orderedMap[K comparable, V any] struct {
	tree *btree.BTreeG[pair[K, V]]
}

// NewOrdered creates a btree based map iterating in ascending key order (as defined by less).
func NewOrdered[K comparable, V any](less func(a, b K) bool) Map[K, V] {
	return &orderedMap[K, V]{
		tree: btree.NewG[pair[K, V]](btreeDegree, func(a, b pair[K, V]) bool {
			return less(a.key, b.key)
		}),
	}
}

func (m *orderedMap[K, V]) Load(key K) (V, bool) {
	p, ok := m.tree.Get(pair[K, V]{key: key})
	return p.value, ok
}

func (m *orderedMap[K, V]) Store(key K, value V) {
	m.tree.ReplaceOrInsert(pair[K, V]{key: key, value: value})
}

func (m *orderedMap[K, V]) Delete(key K) {
	m.tree.Delete(pair[K, V]{key: key})
}

func (m *orderedMap[K, V]) Len() int { return m.tree.Len() }

func (m *orderedMap[K, V]) Range(f func(key K, value V) bool) {
	m.tree.Ascend(func(p pair[K, V]) bool {
		return f(p.key, p.value)
	})
}
