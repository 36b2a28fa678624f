// Package internal provides the communication protocol structures and serialization
// logic for the dstore package. It defines the wire format used to transmit operations
// between the store client and the replicated state machine.
//
// This package is intended for internal use by the dstore implementation and should
// not be imported directly by external code.
//
// The package consists of two main components:
//
//   - Command System: A Command is one transaction, an ordered list of store.Op values.
//     Commands are serialized and proposed to the RAFT cluster, then applied atomically
//     on the state machine of every replica.
//
//   - Query System: Defines read operations (Get, Row, Cols, etc.) that retrieve data
//     from the matrix without modifying its state. Queries are executed locally on the
//     state machine and therefore do not require serialization.
//
// Command Format:
//
//	- 4 bytes: number of ops (uint32, big endian)
//	- per op:
//	  - 1 byte: op type (Add, AddIfNoConflict, Erase, EraseCol)
//	  - 4 bytes + N bytes: row
//	  - 4 bytes + N bytes: col
//	  - 4 bytes + N bytes: value
//
// Thread Safety:
//
//	The types in this package are not thread-safe. The RAFT protocol ensures sequential
//	processing of commands on the state machine.
package internal
