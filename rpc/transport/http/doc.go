// Package http implements the HTTP transport of the dRel RPC system.
//
// The server routes POST /{shardId} to the registered handler and serves the
// server metrics at GET /metrics. The client spreads requests round-robin across
// all configured endpoints; a failed request is retried on the next endpoint.
//
// The client transport is safe for concurrent use once connected.
package http
