// Package container provides generic, transactional, indexed relational containers.
//
// A container stores entries that expose two keys, a row key and a col key (see Record).
// Every entry is stored once in a primary store keyed by (row, col) and is reachable
// through two derived indices: the forward index grouped by row and the transposed
// index grouped by col. The topology decides how many cols a row may own and how many
// rows may own a col:
//
//   - OneToOne:   a row owns at most one col, a col is owned by at most one row
//   - OneToMany:  a row owns any number of cols, a col is owned by at most one row
//   - ManyToMany: no restriction, only the (row, col) key is unique
//
// Adding an entry that violates the topology silently evicts the entries it
// conflicts with. DoesNotConflict can be used to check for that before adding.
//
// Key Components:
//
//   - Journal: Every mutation is reported to a journal as an (event, undo) pair before
//     it takes effect. Events (Update, Delete) are the wire contract for persistence and
//     replication. Undo commands (UndoAction) restore the previous physical state and are
//     applied by the journal on rollback, never by the container itself.
//
//   - Replay: ApplyUpdate, ApplyDelete and Replay apply already decided events without
//     logging them. Replaying the events of a container in log order into an empty
//     container of the same type reproduces its state.
//
//   - Views: Rows and Cols return read-only views (InnerView, OuterView) that borrow the
//     indices of the container. A view must not be used after the next mutation.
//
//   - Config: Every index level uses its own map strategy (see package maps), either
//     unordered (hash based) or ordered (sorted iteration). The Unordered and Ordered
//     presets configure all levels at once.
//
// Containers are not safe for concurrent use. The outer layer (see package store)
// provides mutual exclusion and owns the transaction boundaries.
package container
