package container

import (
	"iter"

	"github.com/ValentinKolb/dRel/lib/journal"
)

// RESTBehavior tells the exposition layer how to render a container.
type RESTBehavior string

const (
	// BehaviorMatrix marks containers addressed by two keys (row and col).
	BehaviorMatrix RESTBehavior = "matrix"
)

// Matrix is the topology-neutral surface shared by OneToOne, OneToMany and ManyToMany.
// It is what the store layer programs against.
type Matrix[R, C comparable, E Record[R, C]] interface {
	// Name returns the field name carried by every event of the container.
	Name() string

	// Add inserts or overwrites entry, evicting whatever the topology forbids to coexist with it.
	Add(entry E)
	// Erase removes the entry at key (no-op if absent).
	Erase(key Key[R, C])
	// EraseCol removes the entries of col (no-op if absent).
	EraseCol(col C)

	// Get returns the entry at key.
	Get(key Key[R, C]) (E, bool)
	// DoesNotConflict reports whether Add(key) would not evict any other entry.
	DoesNotConflict(key Key[R, C]) bool
	// RowEntries iterates over the entries of row.
	RowEntries(row R) iter.Seq2[C, E]
	// ColEntries iterates over the entries of col.
	ColEntries(col C) iter.Seq2[R, E]
	// RowKeys iterates over all rows having at least one entry.
	RowKeys() iter.Seq[R]
	// ColKeys iterates over all cols having at least one entry.
	ColKeys() iter.Seq[C]
	// All iterates over all entries in store order.
	All() iter.Seq2[Key[R, C], E]

	// Replay applies an Update or Delete event without logging it.
	// It returns false if the event was not produced by a container of this type.
	Replay(event journal.Event) bool

	Size() int
	Empty() bool
	TypeName() string
	RESTBehavior() RESTBehavior
}

// single yields exactly one (key, value) pair.
func single[K, V any](key K, value V) iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		yield(key, value)
	}
}

func empty[K, V any]() iter.Seq2[K, V] {
	return func(func(K, V) bool) {}
}
