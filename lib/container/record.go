package container

import (
	"cmp"

	"github.com/ValentinKolb/dRel/lib/container/maps"
	"github.com/ValentinKolb/dRel/lib/journal"
)

// --------------------------------------------------------------------------
// Record Capability
// --------------------------------------------------------------------------

// Record is the capability every entry type stored in a container must provide:
// two extractable keys, the "row" and the "col".
type Record[R, C comparable] interface {
	RowKey() R
	ColKey() C
}

// Cloner can optionally be implemented by entry types holding reference types (slices, maps, pointers).
// If implemented, containers clone entries handed to Add and to the replay entry points,
// so the container never shares memory with the caller.
type Cloner[E any] interface {
	Clone() E
}

// Key is the primary-store key of an entry.
type Key[R, C comparable] struct {
	Row R
	Col C
}

// KeyOf extracts the key of an entry.
func KeyOf[R, C comparable, E Record[R, C]](entry E) Key[R, C] {
	return Key[R, C]{Row: entry.RowKey(), Col: entry.ColKey()}
}

func cloneEntry[E any](entry E) E {
	if c, ok := any(entry).(Cloner[E]); ok {
		return c.Clone()
	}
	return entry
}

// Journal is the part of the mutation journal a container depends on.
// journal.MutationJournal implements it.
type Journal interface {
	LogMutation(event journal.Event, undo journal.Undo)
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// Config selects the map strategy of each index level.
// The strategies are fixed for the lifetime of a container.
type Config[R, C comparable] struct {
	Rows       maps.Strategy // outer level of the row index
	Cols       maps.Strategy // inner level of the row index
	Transposed maps.Strategy // col index

	// RowLess and ColLess order the keys. They are required by every level that uses maps.Ordered.
	RowLess func(a, b R) bool
	ColLess func(a, b C) bool
}

// Unordered returns the configuration using hash maps on all levels.
func Unordered[R, C comparable]() Config[R, C] {
	return Config[R, C]{
		Rows:       maps.Unordered,
		Cols:       maps.Unordered,
		Transposed: maps.Unordered,
	}
}

// Ordered returns the configuration using sorted maps on all levels.
func Ordered[R, C cmp.Ordered]() Config[R, C] {
	return Config[R, C]{
		Rows:       maps.Ordered,
		Cols:       maps.Ordered,
		Transposed: maps.Ordered,
		RowLess:    cmp.Less[R],
		ColLess:    cmp.Less[C],
	}
}

// validate panics if a level uses maps.Ordered without the less function of its key type.
// ManyToMany uses the Rows strategy and RowLess for the inner level of its col index.
func (c Config[R, C]) validate(name string) {
	if c.Rows == maps.Ordered && c.RowLess == nil {
		panic("container: " + name + ": ordered rows require RowLess")
	}
	if c.Cols == maps.Ordered && c.ColLess == nil {
		panic("container: " + name + ": ordered cols require ColLess")
	}
	if c.Transposed == maps.Ordered && c.ColLess == nil {
		panic("container: " + name + ": ordered transposed index requires ColLess")
	}
}

// preset returns the name prefix of the configuration ("Unordered", "Ordered" or "Generic" for mixed strategies).
func (c Config[R, C]) preset() string {
	switch {
	case c.Rows == maps.Unordered && c.Cols == maps.Unordered && c.Transposed == maps.Unordered:
		return "Unordered"
	case c.Rows == maps.Ordered && c.Cols == maps.Ordered && c.Transposed == maps.Ordered:
		return "Ordered"
	default:
		return "Generic"
	}
}
