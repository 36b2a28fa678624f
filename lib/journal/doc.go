// Package journal implements the mutation journal the containers report to.
//
// Every state change of a container is announced to the journal before it is
// applied physically. Each announcement is a pair of
//
//   - an Event describing the change (an update or a delete of one entry), and
//   - an Undo command that exactly reverses the physical effect of the change.
//
// The journal collects these pairs for the currently open transaction. The outer
// coordinator then decides what happens with them:
//
//   - Commit: the events of the transaction are handed to the first registered sink
//     (e.g. the badger write-ahead log in journal/wal), which decides whether the
//     commit succeeds. Further sinks observe committed transactions only. The undo
//     commands are discarded.
//   - Rollback: the undo commands are applied in reverse chronological order, which
//     restores the state the containers had when the transaction started.
//
// Containers never apply their own undo commands. Undo commands are explicit tagged
// values (see UndoKind) rather than opaque callbacks, so they can be inspected and
// logged before they are applied.
//
// Thread-safety: a MutationJournal has exactly one writer, the transaction that
// currently owns the containers reporting to it. Callers must serialize access.
package journal
