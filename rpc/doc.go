// Package rpc exposes dRel matrix stores over the network.
//
// The package is organized into several subpackages:
//
//   - common: The Message protocol, server and client configuration and the logger setup.
//
//   - transport: Network communication abstractions, implemented over HTTP.
//
//   - serializer: Message serialization (JSON, GOB).
//
//   - client: An RPC client implementing store.IStore.
//
//   - server: The RPC server hosting local and distributed shards.
package rpc
