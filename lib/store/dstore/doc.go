// Package dstore implements a replicated, fault-tolerant matrix store using the
// Dragonboat RAFT consensus library. It provides a strongly consistent implementation
// of the store.IStore interface that can operate across multiple nodes.
//
// Architecture:
//
//   - Store Client: Implements the store.IStore interface and communicates with
//     the RAFT cluster. It serializes write operations into commands, sends them to
//     the consensus layer, and processes responses.
//
//   - State Machine: A Dragonboat IConcurrentStateMachine implementation that holds a
//     store.Engine on every replica. Each committed log entry is one transaction and is
//     applied atomically: a conflicting op rolls the whole transaction back on every
//     replica alike, so all replicas stay identical.
//
//   - Communication Protocol: Defined in the internal package, this consists of Command
//     and Query structures with serialization logic.
//
// Write Operations:
//
//	1. The ops are serialized into a Command
//	2. The Command is proposed to the RAFT cluster via SyncPropose
//	3. Once committed, the Command is applied by the state machine of every replica
//	4. The result code (store.RetCode) and message are returned to the client
//
// Read Operations:
//
//	Reads use SyncRead (linearizable) by default. GetInfo uses StaleRead since the
//	metadata is informational only.
//
// Snapshotting and Recovery:
//
//	PrepareSnapshot copies all cells under a read lock, SaveSnapshot writes the copy
//	in the store snapshot format without blocking updates. RecoverFromSnapshot
//	rebuilds a fresh matrix by replaying the cells through the replay entry points of
//	the container, then the replica receives the log entries committed after the
//	snapshot.
//
// Usage:
//
//	nh, err := dragonboat.NewNodeHost(nodeHostConfig)
//
//	factory := store.MatrixFactory{Name: "loans", Topology: store.TopologyOneToMany}
//	err = nh.StartConcurrentReplica(members, false, dstore.CreateStateMachineFactory(factory), shardConfig)
//
//	s := dstore.NewDistributedStore(nh, shardID, 5*time.Second)
//
// For scenarios where consensus is not required, use the simpler and faster lstore package.
package dstore
