// Package server implements the RPC server of dRel. A server hosts any number of
// shards, each a matrix store of its own topology, and routes incoming messages to
// them by shard id.
//
// Shards are either local (lstore, optionally recovered from and persisted to a
// badger WAL) or distributed (dstore, replicated with dragonboat). The server keeps
// request counters and latency histograms per shard and message type, the
// transport exposes them at /metrics.
package server
