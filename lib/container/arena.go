package container

import "github.com/ValentinKolb/dRel/lib/container/maps"

// --------------------------------------------------------------------------
// Arena
// --------------------------------------------------------------------------

// arena is a slot allocator owning all live entries of a container.
// Freed slots are reused, so slot numbers are only stable while the entry is alive.
type arena[E any] struct {
	slots []E
	free  []int
}

func (a *arena[E]) alloc(entry E) int {
	if n := len(a.free); n > 0 {
		slot := a.free[n-1]
		a.free = a.free[:n-1]
		a.slots[slot] = entry
		return slot
	}
	a.slots = append(a.slots, entry)
	return len(a.slots) - 1
}

func (a *arena[E]) get(slot int) E {
	return a.slots[slot]
}

func (a *arena[E]) set(slot int, entry E) {
	a.slots[slot] = entry
}

func (a *arena[E]) release(slot int) {
	var zero E
	a.slots[slot] = zero // drop references held by the entry
	a.free = append(a.free, slot)
}

// --------------------------------------------------------------------------
// Primary Store
// --------------------------------------------------------------------------

// primary is the authoritative set of live entries: key -> slot in the arena.
// All derived indices of a container store slots handed out by this store.
type primary[R, C comparable, E any] struct {
	elements maps.Map[Key[R, C], int]
	arena    arena[E]
}

func newPrimary[R, C comparable, E any]() primary[R, C, E] {
	return primary[R, C, E]{
		elements: maps.NewUnordered[Key[R, C], int](),
	}
}

// lookup returns the slot of key.
func (p *primary[R, C, E]) lookup(key Key[R, C]) (int, bool) {
	return p.elements.Load(key)
}

// put inserts or overwrites the entry at key and returns its slot.
// Overwrites keep the slot.
func (p *primary[R, C, E]) put(key Key[R, C], entry E) int {
	if slot, ok := p.elements.Load(key); ok {
		p.arena.set(slot, entry)
		return slot
	}
	slot := p.arena.alloc(entry)
	p.elements.Store(key, slot)
	return slot
}

// remove deletes key and frees its slot. The freed slot number is returned.
func (p *primary[R, C, E]) remove(key Key[R, C]) (int, bool) {
	slot, ok := p.elements.Load(key)
	if !ok {
		return 0, false
	}
	p.elements.Delete(key)
	p.arena.release(slot)
	return slot, true
}
