package container

import (
	"iter"

	"github.com/ValentinKolb/dRel/lib/container/maps"
	"github.com/ValentinKolb/dRel/lib/journal"
)

// OneToOne is an indexed container where every row owns at most one col and every
// col is owned by at most one row.
//
// Derived indices: forward (row -> entry) and transposed (col -> entry).
// Adding an entry evicts the previous entry of its row and the previous owner of
// its col, each with its own delete event, before the update event is logged.
//
// Thread-safety: none (see OneToMany).
type OneToOne[R, C comparable, E Record[R, C]] struct {
	core[R, C, E]
	forward    maps.Map[R, int]
	transposed maps.Map[C, int]
}

// NewOneToOne creates an empty OneToOne container logging to j.
// The Cols strategy of cfg is unused since there is no inner row level.
func NewOneToOne[R, C comparable, E Record[R, C]](name string, j Journal, cfg Config[R, C]) *OneToOne[R, C, E] {
	return &OneToOne[R, C, E]{
		core:       newCore[R, C, E](name, "OneToOne", j, cfg),
		forward:    maps.New[R, int](cfg.Rows, cfg.RowLess),
		transposed: maps.New[C, int](cfg.Transposed, cfg.ColLess),
	}
}

// --------------------------------------------------------------------------
// Mutations
// --------------------------------------------------------------------------

// Add inserts entry, overwriting an existing entry with the same row and col.
// Entries sharing only the row or only the col are evicted first (row owner before col owner).
func (m *OneToOne[R, C, E]) Add(entry E) {
	entry = cloneEntry(entry)
	key := KeyOf[R, C](entry)

	if slot, ok := m.store.lookup(key); ok {
		previous := m.store.arena.get(slot)
		m.journal.LogMutation(m.updateEvent(entry), m.reinsert(m, key, previous))
	} else {
		if slot, ok := m.forward.Load(key.Row); ok {
			m.evict(KeyOf[R, C](m.store.arena.get(slot)))
		}
		if slot, ok := m.transposed.Load(key.Col); ok {
			m.evict(KeyOf[R, C](m.store.arena.get(slot)))
		}
		m.journal.LogMutation(m.updateEvent(entry), m.remove(m, key))
	}

	m.doAdd(key, entry)
}

func (m *OneToOne[R, C, E]) evict(key Key[R, C]) {
	m.logErase(m, key)
}

// Erase removes the entry at key. Missing keys are ignored.
func (m *OneToOne[R, C, E]) Erase(key Key[R, C]) {
	m.logErase(m, key)
}

// EraseRowCol is Erase for an explicit row and col.
func (m *OneToOne[R, C, E]) EraseRowCol(row R, col C) {
	m.Erase(Key[R, C]{Row: row, Col: col})
}

// EraseRow removes the entry owned by row.
func (m *OneToOne[R, C, E]) EraseRow(row R) {
	if entry, ok := m.GetEntryFromRow(row); ok {
		m.Erase(KeyOf[R, C](entry))
	}
}

// EraseCol removes the entry owning col.
func (m *OneToOne[R, C, E]) EraseCol(col C) {
	if entry, ok := m.GetEntryFromCol(col); ok {
		m.Erase(KeyOf[R, C](entry))
	}
}

// --------------------------------------------------------------------------
// Queries
// --------------------------------------------------------------------------

func (m *OneToOne[R, C, E]) GetEntryFromRow(row R) (E, bool) { return m.Rows().Get(row) }
func (m *OneToOne[R, C, E]) GetEntryFromCol(col C) (E, bool) { return m.Cols().Get(col) }

// DoesNotConflict reports whether neither the row nor the col of key is owned by another entry.
func (m *OneToOne[R, C, E]) DoesNotConflict(key Key[R, C]) bool {
	_, rowOwned := m.forward.Load(key.Row)
	_, colOwned := m.transposed.Load(key.Col)
	return !rowOwned && !colOwned
}

// DoesNotConflictRowCol is DoesNotConflict for an explicit row and col.
func (m *OneToOne[R, C, E]) DoesNotConflictRowCol(row R, col C) bool {
	return m.DoesNotConflict(Key[R, C]{Row: row, Col: col})
}

// Rows returns a view of the forward index (row -> entry).
func (m *OneToOne[R, C, E]) Rows() InnerView[R, E] {
	return InnerView[R, E]{index: m.forward, arena: &m.store.arena}
}

// Cols returns a view of the transposed index (col -> entry).
func (m *OneToOne[R, C, E]) Cols() InnerView[C, E] {
	return InnerView[C, E]{index: m.transposed, arena: &m.store.arena}
}

func (m *OneToOne[R, C, E]) RowEntries(row R) iter.Seq2[C, E] {
	if entry, ok := m.GetEntryFromRow(row); ok {
		return single(entry.ColKey(), entry)
	}
	return empty[C, E]()
}

func (m *OneToOne[R, C, E]) ColEntries(col C) iter.Seq2[R, E] {
	if entry, ok := m.GetEntryFromCol(col); ok {
		return single(entry.RowKey(), entry)
	}
	return empty[R, E]()
}

func (m *OneToOne[R, C, E]) RowKeys() iter.Seq[R] { return m.Rows().Keys() }
func (m *OneToOne[R, C, E]) ColKeys() iter.Seq[C] { return m.Cols().Keys() }

// --------------------------------------------------------------------------
// Replay entry points
// --------------------------------------------------------------------------

func (m *OneToOne[R, C, E]) ApplyUpdate(e Update[R, C, E]) { m.replay(m, e) }
func (m *OneToOne[R, C, E]) ApplyDelete(e Delete[R, C, E]) { m.replay(m, e) }

// Replay applies an Update or Delete event of this container type.
func (m *OneToOne[R, C, E]) Replay(event journal.Event) bool {
	return m.replay(m, event)
}

// --------------------------------------------------------------------------
// Physical mutations (no logging)
// --------------------------------------------------------------------------

func (m *OneToOne[R, C, E]) doAdd(key Key[R, C], entry E) {
	slot := m.store.put(key, entry)
	m.forward.Store(key.Row, slot)
	m.transposed.Store(key.Col, slot)
}

func (m *OneToOne[R, C, E]) doErase(key Key[R, C]) {
	slot, ok := m.store.remove(key)
	if !ok {
		return
	}
	if owner, ok := m.forward.Load(key.Row); ok && owner == slot {
		m.forward.Delete(key.Row)
	}
	if owner, ok := m.transposed.Load(key.Col); ok && owner == slot {
		m.transposed.Delete(key.Col)
	}
}
