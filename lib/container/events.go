package container

import (
	"fmt"

	"github.com/ValentinKolb/dRel/lib/journal"
)

// --------------------------------------------------------------------------
// Events (wire contract for persistence and replication)
// --------------------------------------------------------------------------

// Update describes the insert or overwrite of one entry.
type Update[R, C comparable, E Record[R, C]] struct {
	Source string // name of the emitting container
	Data   E
}

func (e Update[R, C, E]) EventType() journal.EventType { return journal.EventTUpdate }
func (e Update[R, C, E]) Field() string                { return e.Source }

func (e Update[R, C, E]) String() string {
	return fmt.Sprintf("Update %s: key=(%v, %v)", e.Source, e.Data.RowKey(), e.Data.ColKey())
}

// Delete describes the removal of one entry.
type Delete[R, C comparable, E Record[R, C]] struct {
	Source string // name of the emitting container
	Key    Key[R, C]
	Data   E // the removed entry
}

func (e Delete[R, C, E]) EventType() journal.EventType { return journal.EventTDelete }
func (e Delete[R, C, E]) Field() string                { return e.Source }

func (e Delete[R, C, E]) String() string {
	return fmt.Sprintf("Delete %s: key=(%v, %v)", e.Source, e.Key.Row, e.Key.Col)
}

// --------------------------------------------------------------------------
// Undo Commands
// --------------------------------------------------------------------------

// undoTarget is the physical (non-logging) mutation surface of a container.
type undoTarget[R, C comparable, E any] interface {
	doAdd(key Key[R, C], entry E)
	doErase(key Key[R, C])
}

// UndoAction is the tagged undo command emitted by all containers.
// It either re-inserts a captured entry at its key (journal.UndoTReinsert)
// or removes a key that did not exist before (journal.UndoTRemove).
type UndoAction[R, C comparable, E any] struct {
	source string
	kind   journal.UndoKind
	key    Key[R, C]
	entry  E
	target undoTarget[R, C, E]
}

func (u *UndoAction[R, C, E]) Kind() journal.UndoKind { return u.kind }

// Key returns the key the command operates on.
func (u *UndoAction[R, C, E]) Key() Key[R, C] { return u.key }

// Entry returns the captured entry. The boolean is false for remove commands.
func (u *UndoAction[R, C, E]) Entry() (E, bool) {
	return u.entry, u.kind == journal.UndoTReinsert
}

// Apply performs the physical reversal on the container that created the command.
func (u *UndoAction[R, C, E]) Apply() {
	switch u.kind {
	case journal.UndoTReinsert:
		u.target.doAdd(u.key, u.entry)
	case journal.UndoTRemove:
		u.target.doErase(u.key)
	}
}

func (u *UndoAction[R, C, E]) String() string {
	return fmt.Sprintf("%s: %s key=(%v, %v)", u.source, u.kind, u.key.Row, u.key.Col)
}
