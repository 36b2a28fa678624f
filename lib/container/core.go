package container

import (
	"iter"

	"github.com/ValentinKolb/dRel/lib/journal"
)

// core holds the state and behavior shared by all topologies:
// the primary store, the journal and the event/undo constructors.
type core[R, C comparable, E Record[R, C]] struct {
	name     string
	topology string
	cfg      Config[R, C]
	journal  Journal
	store    primary[R, C, E]
}

func newCore[R, C comparable, E Record[R, C]](name, topology string, j Journal, cfg Config[R, C]) core[R, C, E] {
	if j == nil {
		panic("container: " + name + " requires a journal")
	}
	cfg.validate(name)
	return core[R, C, E]{
		name:     name,
		topology: topology,
		cfg:      cfg,
		journal:  j,
		store:    newPrimary[R, C, E](),
	}
}

// Name returns the field name of the container. It is carried by every emitted event.
func (c *core[R, C, E]) Name() string { return c.name }

// Empty reports whether the container holds no entries.
func (c *core[R, C, E]) Empty() bool { return c.store.elements.Len() == 0 }

// Size returns the number of entries.
func (c *core[R, C, E]) Size() int { return c.store.elements.Len() }

// Get returns the entry stored at key.
// The returned entry shares memory with the container and must be treated as read-only.
func (c *core[R, C, E]) Get(key Key[R, C]) (E, bool) {
	slot, ok := c.store.lookup(key)
	if !ok {
		var zero E
		return zero, false
	}
	return c.store.arena.get(slot), true
}

// GetRowCol is Get for an explicit row and col.
func (c *core[R, C, E]) GetRowCol(row R, col C) (E, bool) {
	return c.Get(Key[R, C]{Row: row, Col: col})
}

// All iterates over all live entries in store order, independent of any index grouping.
func (c *core[R, C, E]) All() iter.Seq2[Key[R, C], E] {
	return func(yield func(Key[R, C], E) bool) {
		c.store.elements.Range(func(key Key[R, C], slot int) bool {
			return yield(key, c.store.arena.get(slot))
		})
	}
}

// TypeName returns the human-readable type name consumed by the type system,
// e.g. "UnorderedOneToMany" or "OrderedOneToMany".
func (c *core[R, C, E]) TypeName() string { return c.cfg.preset() + c.topology }

// RESTBehavior returns the relational shape marker consumed by the exposition layer.
func (c *core[R, C, E]) RESTBehavior() RESTBehavior { return BehaviorMatrix }

// --------------------------------------------------------------------------
// Event and undo constructors
// --------------------------------------------------------------------------

func (c *core[R, C, E]) updateEvent(entry E) Update[R, C, E] {
	return Update[R, C, E]{Source: c.name, Data: entry}
}

func (c *core[R, C, E]) deleteEvent(key Key[R, C], entry E) Delete[R, C, E] {
	return Delete[R, C, E]{Source: c.name, Key: key, Data: entry}
}

func (c *core[R, C, E]) reinsert(target undoTarget[R, C, E], key Key[R, C], entry E) *UndoAction[R, C, E] {
	return &UndoAction[R, C, E]{source: c.name, kind: journal.UndoTReinsert, key: key, entry: entry, target: target}
}

func (c *core[R, C, E]) remove(target undoTarget[R, C, E], key Key[R, C]) *UndoAction[R, C, E] {
	return &UndoAction[R, C, E]{source: c.name, kind: journal.UndoTRemove, key: key, target: target}
}

// logErase emits the delete event for the entry at key and removes it physically.
// Missing keys are ignored.
func (c *core[R, C, E]) logErase(target undoTarget[R, C, E], key Key[R, C]) {
	slot, ok := c.store.lookup(key)
	if !ok {
		return
	}
	previous := c.store.arena.get(slot)
	c.journal.LogMutation(c.deleteEvent(key, previous), c.reinsert(target, key, previous))
	target.doErase(key)
}

// replay dispatches an event of this container to the physical mutation surface.
// Events may arrive as values or pointers (e.g. after decoding).
func (c *core[R, C, E]) replay(target undoTarget[R, C, E], event journal.Event) bool {
	switch e := event.(type) {
	case Update[R, C, E]:
		target.doAdd(KeyOf[R, C](e.Data), cloneEntry(e.Data))
	case *Update[R, C, E]:
		target.doAdd(KeyOf[R, C](e.Data), cloneEntry(e.Data))
	case Delete[R, C, E]:
		target.doErase(e.Key)
	case *Delete[R, C, E]:
		target.doErase(e.Key)
	default:
		return false
	}
	return true
}
