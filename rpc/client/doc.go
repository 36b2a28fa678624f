// Package client implements the RPC client of dRel: a store.IStore that forwards
// every operation to a remote shard.
//
// Errors of the remote store arrive as *store.Error with their original RetCode,
// so callers can tell a conflicting batch (RetCConflict) from a transport failure
// (RetCInternalError).
//
// Usage Example:
//
//	config := common.ClientConfig{
//		Endpoints:     []string{"http://localhost:8080"},
//		TimeoutSecond: 5,
//		RetryCount:    3,
//	}
//
//	s, err := client.NewRPCStore(100, config, http.NewHttpClientTransport(), serializer.NewJSONSerializer())
//
//	err = s.Add("alice", "book-1", []byte("2024-05-01"))
//	cell, ok, err := s.GetByCol("book-1")
//
// The client is safe for concurrent use.
package client
