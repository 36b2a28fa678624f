package container

import (
	"iter"

	"github.com/ValentinKolb/dRel/lib/container/maps"
	"github.com/ValentinKolb/dRel/lib/journal"
)

// ManyToMany is an indexed container without cardinality constraints: rows and cols
// may be associated arbitrarily, only the (row, col) key is unique.
//
// Derived indices: forward (row -> col -> entry) and transposed (col -> row -> entry).
// Buckets of both indices are never empty.
//
// Thread-safety: none (see OneToMany).
type ManyToMany[R, C comparable, E Record[R, C]] struct {
	core[R, C, E]
	forward    maps.Map[R, maps.Map[C, int]]
	transposed maps.Map[C, maps.Map[R, int]]
}

// NewManyToMany creates an empty ManyToMany container logging to j.
// The inner level of the transposed index uses the Rows strategy.
func NewManyToMany[R, C comparable, E Record[R, C]](name string, j Journal, cfg Config[R, C]) *ManyToMany[R, C, E] {
	return &ManyToMany[R, C, E]{
		core:       newCore[R, C, E](name, "ManyToMany", j, cfg),
		forward:    maps.New[R, maps.Map[C, int]](cfg.Rows, cfg.RowLess),
		transposed: maps.New[C, maps.Map[R, int]](cfg.Transposed, cfg.ColLess),
	}
}

// --------------------------------------------------------------------------
// Mutations
// --------------------------------------------------------------------------

// Add inserts entry or overwrites the entry with the same row and col. Nothing is evicted.
func (m *ManyToMany[R, C, E]) Add(entry E) {
	entry = cloneEntry(entry)
	key := KeyOf[R, C](entry)

	if slot, ok := m.store.lookup(key); ok {
		previous := m.store.arena.get(slot)
		m.journal.LogMutation(m.updateEvent(entry), m.reinsert(m, key, previous))
	} else {
		m.journal.LogMutation(m.updateEvent(entry), m.remove(m, key))
	}

	m.doAdd(key, entry)
}

// Erase removes the entry at key. Missing keys are ignored.
func (m *ManyToMany[R, C, E]) Erase(key Key[R, C]) {
	m.logErase(m, key)
}

// EraseRowCol is Erase for an explicit row and col.
func (m *ManyToMany[R, C, E]) EraseRowCol(row R, col C) {
	m.Erase(Key[R, C]{Row: row, Col: col})
}

// EraseRow removes every entry of row, each with its own delete event.
func (m *ManyToMany[R, C, E]) EraseRow(row R) {
	inner, ok := m.forward.Load(row)
	if !ok {
		return
	}
	// collect first, the index must not change while it is iterated
	var cols []C
	inner.Range(func(col C, _ int) bool {
		cols = append(cols, col)
		return true
	})
	for _, col := range cols {
		m.Erase(Key[R, C]{Row: row, Col: col})
	}
}

// EraseCol removes every entry of col, each with its own delete event.
func (m *ManyToMany[R, C, E]) EraseCol(col C) {
	inner, ok := m.transposed.Load(col)
	if !ok {
		return
	}
	var rows []R
	inner.Range(func(row R, _ int) bool {
		rows = append(rows, row)
		return true
	})
	for _, row := range rows {
		m.Erase(Key[R, C]{Row: row, Col: col})
	}
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

// DoesNotConflict reports whether key is absent. Adding to a ManyToMany never evicts
// another entry, only an existing entry at the same key is overwritten.
func (m *ManyToMany[R, C, E]) DoesNotConflict(key Key[R, C]) bool {
	_, ok := m.store.lookup(key)
	return !ok
}

// Rows returns a view of the forward index (row -> cols of the row).
func (m *ManyToMany[R, C, E]) Rows() OuterView[R, C, E] {
	return OuterView[R, C, E]{index: m.forward, arena: &m.store.arena}
}

// Cols returns a view of the transposed index (col -> rows of the col).
func (m *ManyToMany[R, C, E]) Cols() OuterView[C, R, E] {
	return OuterView[C, R, E]{index: m.transposed, arena: &m.store.arena}
}

func (m *ManyToMany[R, C, E]) RowEntries(row R) iter.Seq2[C, E] {
	if inner, ok := m.Rows().Get(row); ok {
		return inner.All()
	}
	return empty[C, E]()
}

func (m *ManyToMany[R, C, E]) ColEntries(col C) iter.Seq2[R, E] {
	if inner, ok := m.Cols().Get(col); ok {
		return inner.All()
	}
	return empty[R, E]()
}

func (m *ManyToMany[R, C, E]) RowKeys() iter.Seq[R] { return m.Rows().Keys() }
func (m *ManyToMany[R, C, E]) ColKeys() iter.Seq[C] { return m.Cols().Keys() }

// --------------------------------------------------------------------------
// Replay entry points
// --------------------------------------------------------------------------

func (m *ManyToMany[R, C, E]) ApplyUpdate(e Update[R, C, E]) { m.replay(m, e) }
func (m *ManyToMany[R, C, E]) ApplyDelete(e Delete[R, C, E]) { m.replay(m, e) }

// Replay applies an Update or Delete event of this container type.
func (m *ManyToMany[R, C, E]) Replay(event journal.Event) bool {
	return m.replay(m, event)
}

// --------------------------------------------------------------------------
// Physical mutations (no logging)
// --------------------------------------------------------------------------

func (m *ManyToMany[R, C, E]) doAdd(key Key[R, C], entry E) {
	slot := m.store.put(key, entry)

	row, ok := m.forward.Load(key.Row)
	if !ok {
		row = maps.New[C, int](m.cfg.Cols, m.cfg.ColLess)
		m.forward.Store(key.Row, row)
	}
	row.Store(key.Col, slot)

	col, ok := m.transposed.Load(key.Col)
	if !ok {
		col = maps.New[R, int](m.cfg.Rows, m.cfg.RowLess)
		m.transposed.Store(key.Col, col)
	}
	col.Store(key.Row, slot)
}

func (m *ManyToMany[R, C, E]) doErase(key Key[R, C]) {
	if _, ok := m.store.remove(key); !ok {
		return
	}

	if row, ok := m.forward.Load(key.Row); ok {
		row.Delete(key.Col)
		if row.Len() == 0 {
			m.forward.Delete(key.Row)
		}
	}
	if col, ok := m.transposed.Load(key.Col); ok {
		col.Delete(key.Row)
		if col.Len() == 0 {
			m.transposed.Delete(key.Col)
		}
	}
}
