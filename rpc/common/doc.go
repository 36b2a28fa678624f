// Package common provides the data structures shared by the dRel RPC client and server.
//
// Key Components:
//
//   - Message: Core data structure for all RPC communication. Requests and responses
//     share the structure, the message type decides which fields are used. Errors carry
//     the store.RetCode of the failed operation, so clients can rebuild the *store.Error.
//
//   - ServerConfig: Configuration for server nodes, including the shards (store type,
//     topology, map strategy), RAFT parameters and the WAL directory. Provides utilities
//     for converting to Dragonboat-specific configurations.
//
//   - ClientConfig: Configuration for client components, controlling endpoints,
//     timeouts and retries.
//
//   - Logger: Custom logging implementation that integrates with Dragonboat's
//     logging system while providing consistent formatting across the application.
package common
