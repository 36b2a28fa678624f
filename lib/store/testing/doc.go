// Package testing provides a standardised test suite for store.IStore implementations.
//
// The suite is shared by the local store, the raft backed store and the rpc client,
// so every way of reaching a matrix behaves the same.
//
// Example usage:
//
//	testing.RunStoreTests(t, "LocalStore", func(t *testing.T, f store.MatrixFactory) store.IStore {
//		return lstore.NewLocalStore(f)
//	})
package testing
