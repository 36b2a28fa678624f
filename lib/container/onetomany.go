package container

import (
	"iter"

	"github.com/ValentinKolb/dRel/lib/container/maps"
	"github.com/ValentinKolb/dRel/lib/journal"
)

// OneToMany is an indexed container where every col is owned by at most one row,
// while a row may own any number of cols.
//
// Besides the primary store (key -> entry) it maintains two derived indices:
//   - forward:    row -> col -> entry
//   - transposed: col -> entry
//
// An entry is reachable from the primary store if and only if it is reachable from
// both derived indices. Row buckets of the forward index are never empty.
//
// Every mutation is logged to the journal before it is applied.
//
// Thread-safety: none. A container has a single writer, coordinated by the outer layer.
type OneToMany[R, C comparable, E Record[R, C]] struct {
	core[R, C, E]
	forward    maps.Map[R, maps.Map[C, int]]
	transposed maps.Map[C, int]
}

// NewOneToMany creates an empty OneToMany container logging to j.
// Misconfigured strategies (ordered without less function) panic.
func NewOneToMany[R, C comparable, E Record[R, C]](name string, j Journal, cfg Config[R, C]) *OneToMany[R, C, E] {
	return &OneToMany[R, C, E]{
		core:       newCore[R, C, E](name, "OneToMany", j, cfg),
		forward:    maps.New[R, maps.Map[C, int]](cfg.Rows, cfg.RowLess),
		transposed: maps.New[C, int](cfg.Transposed, cfg.ColLess),
	}
}

// --------------------------------------------------------------------------
// Mutations
// --------------------------------------------------------------------------

// Add inserts entry, overwriting an existing entry with the same row and col.
// An entry of another row owning the same col is evicted first.
//
// Journal order: [Delete(evicted)], Update(entry); the evicted entry is removed
// between both emissions, the new entry is written last.
func (m *OneToMany[R, C, E]) Add(entry E) {
	entry = cloneEntry(entry)
	key := KeyOf[R, C](entry)

	if slot, ok := m.store.lookup(key); ok {
		// overwrite: the col is already owned by this key
		previous := m.store.arena.get(slot)
		m.journal.LogMutation(m.updateEvent(entry), m.reinsert(m, key, previous))
	} else {
		if slot, ok := m.transposed.Load(key.Col); ok {
			previous := m.store.arena.get(slot)
			previousKey := Key[R, C]{Row: previous.RowKey(), Col: key.Col}
			m.journal.LogMutation(m.deleteEvent(previousKey, previous), m.reinsert(m, previousKey, previous))
			m.doErase(previousKey)
		}
		m.journal.LogMutation(m.updateEvent(entry), m.remove(m, key))
	}

	m.doAdd(key, entry)
}

// Erase removes the entry at key. Missing keys are ignored and nothing is logged.
func (m *OneToMany[R, C, E]) Erase(key Key[R, C]) {
	m.logErase(m, key)
}

// EraseRowCol is Erase for an explicit row and col.
func (m *OneToMany[R, C, E]) EraseRowCol(row R, col C) {
	m.Erase(Key[R, C]{Row: row, Col: col})
}

// EraseCol removes the entry currently owning col, whichever row it belongs to.
func (m *OneToMany[R, C, E]) EraseCol(col C) {
	slot, ok := m.transposed.Load(col)
	if !ok {
		return
	}
	owner := m.store.arena.get(slot)
	m.Erase(Key[R, C]{Row: owner.RowKey(), Col: col})
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

// GetEntryFromCol returns the entry currently owning col.
func (m *OneToMany[R, C, E]) GetEntryFromCol(col C) (E, bool) {
	return m.Cols().Get(col)
}

// DoesNotConflict reports whether no entry owns the col of key, i.e. whether
// Add at key would not evict anything.
func (m *OneToMany[R, C, E]) DoesNotConflict(key Key[R, C]) bool {
	_, owned := m.transposed.Load(key.Col)
	return !owned
}

// DoesNotConflictRowCol is DoesNotConflict for an explicit row and col.
func (m *OneToMany[R, C, E]) DoesNotConflictRowCol(row R, col C) bool {
	return m.DoesNotConflict(Key[R, C]{Row: row, Col: col})
}

// Rows returns a view of the forward index (row -> cols of the row).
func (m *OneToMany[R, C, E]) Rows() OuterView[R, C, E] {
	return OuterView[R, C, E]{index: m.forward, arena: &m.store.arena}
}

// Cols returns a view of the transposed index (col -> owning entry).
func (m *OneToMany[R, C, E]) Cols() InnerView[C, E] {
	return InnerView[C, E]{index: m.transposed, arena: &m.store.arena}
}

func (m *OneToMany[R, C, E]) RowEntries(row R) iter.Seq2[C, E] {
	if inner, ok := m.Rows().Get(row); ok {
		return inner.All()
	}
	return empty[C, E]()
}

func (m *OneToMany[R, C, E]) ColEntries(col C) iter.Seq2[R, E] {
	if entry, ok := m.GetEntryFromCol(col); ok {
		return single(entry.RowKey(), entry)
	}
	return empty[R, E]()
}

func (m *OneToMany[R, C, E]) RowKeys() iter.Seq[R] { return m.Rows().Keys() }
func (m *OneToMany[R, C, E]) ColKeys() iter.Seq[C] { return m.Cols().Keys() }

// --------------------------------------------------------------------------
// Replay entry points
// --------------------------------------------------------------------------

// ApplyUpdate writes the entry of an already decided update event. Nothing is logged.
func (m *OneToMany[R, C, E]) ApplyUpdate(e Update[R, C, E]) {
	m.replay(m, e)
}

// ApplyDelete removes the key of an already decided delete event. Nothing is logged.
func (m *OneToMany[R, C, E]) ApplyDelete(e Delete[R, C, E]) {
	m.replay(m, e)
}

// Replay applies an Update or Delete event of this container type.
func (m *OneToMany[R, C, E]) Replay(event journal.Event) bool {
	return m.replay(m, event)
}

// --------------------------------------------------------------------------
// Physical mutations (no logging)
// --------------------------------------------------------------------------

func (m *OneToMany[R, C, E]) doAdd(key Key[R, C], entry E) {
	slot := m.store.put(key, entry)

	row, ok := m.forward.Load(key.Row)
	if !ok {
		row = maps.New[C, int](m.cfg.Cols, m.cfg.ColLess)
		m.forward.Store(key.Row, row)
	}
	row.Store(key.Col, slot)
	m.transposed.Store(key.Col, slot)
}

func (m *OneToMany[R, C, E]) doErase(key Key[R, C]) {
	slot, ok := m.store.remove(key)
	if !ok {
		return
	}

	if row, ok := m.forward.Load(key.Row); ok {
		row.Delete(key.Col)
		if row.Len() == 0 {
			m.forward.Delete(key.Row)
		}
	}
	if owner, ok := m.transposed.Load(key.Col); ok && owner == slot {
		m.transposed.Delete(key.Col)
	}
}
