// Package lstore implements a local, single-node matrix store based on the
// store.IStore interface. It is a thin, thread-safe wrapper around a store.Engine.
//
// Key Features:
//   - In-memory matrix of any topology (see store.MatrixFactory)
//   - Every write is an atomic transaction, Batch groups several writes
//   - Optional durability by passing a journal.Sink (e.g. wal.WAL) that receives
//     every committed transaction
//   - Recovery by replaying persisted transactions (see Recover)
//
// Thread Safety:
//
//	Writers are serialized by a single mutex, readers share a read lock. The
//	containers underneath are not thread-safe themselves; the store provides the
//	mutual exclusion they require.
//
// Usage Example:
//
//	w, _ := wal.Open(wal.Config{Path: "/var/lib/drel/wal", SyncWrites: true})
//	f := store.MatrixFactory{Name: "loans", Topology: store.TopologyOneToMany, Strategy: maps.Unordered}
//
//	s, err := lstore.Recover(f, func(fn func(uint64, journal.Transaction) error) error {
//		return w.Replay(ctx, fn)
//	}, w)
//
//	err = s.Add("alice", "book-1", []byte("due 2024-05-01"))
//
// For replicated deployments use the dstore package, which provides a RAFT-based
// implementation of the same interface.
package lstore
