// Package store provides a high-level interface for relational matrix storage
// with atomic batches and unified error handling. It serves as an abstraction layer
// over the container package, serving string keyed cells with opaque byte values.
//
// Key Components:
//
//   - IStore Interface: The core abstraction defining operations on a matrix of
//     cells (row, col, value). All implementations share this common interface,
//     allowing applications to switch between a local and a replicated backend
//     without code changes. The interface methods return *Error values carrying a
//     RetCode.
//
//   - Engine: Binds a container, a mutation journal and the commit sinks. Every
//     write is a transaction: all ops of a batch are applied in order and either
//     committed together or rolled back together through the undo actions recorded
//     in the journal.
//
//   - MatrixFactory: Describes which topology (one-to-one, one-to-many,
//     many-to-many) and which map strategy (unordered, ordered) backs a store.
//
//   - Snapshots: WriteSnapshot and ReadSnapshot persist the cells of a matrix in a
//     versioned binary format, Engine.Restore rebuilds a matrix from them.
//
// Implementations:
//
//	- Local Store (lstore): A single-node implementation guarded by a single
//	  writer lock, optionally persisting committed transactions to a WAL.
//
//	- Distributed Store (dstore): A replicated implementation using the RAFT
//	  consensus algorithm (via dragonboat), applying every transaction on all replicas.
//
// Usage Example:
//
//	s := lstore.NewLocalStore(store.MatrixFactory{
//		Name:     "loans",
//		Topology: store.TopologyOneToMany,
//		Strategy: maps.Ordered,
//	})
//
//	if err := s.Add("alice", "book-1", nil); err != nil {
//		// handle error
//	}
//
//	err := s.Batch([]store.Op{
//		{Type: store.OpTAddIfNoConflict, Row: "bob", Col: "book-1"},
//		{Type: store.OpTAdd, Row: "bob", Col: "book-2"},
//	})
//	// err has code RetCConflict, nothing was applied
package store
