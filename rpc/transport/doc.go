// Package transport defines the interfaces for RPC communication in dRel.
// It provides a common contract for transport implementations, so the server and
// client only deal with serialized messages addressed to a shard.
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handles connection management and request sending.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     receives requests and routes them to appropriate handlers. It also exposes the
//     server metrics.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
//
// The http subpackage holds the implementation used by the drel binary.
package transport
