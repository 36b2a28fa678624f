// Package testing provides a standardised test suite for container implementations
// that satisfy the container.Matrix interface.
//
// The suite checks the properties every topology must hold regardless of its
// cardinality rules: index consistency, event emission, rollback through the journal
// and deterministic replay.
//
// Example usage:
//
//	factory := func(name string, j container.Journal) container.Matrix[string, string, testing.Cell] {
//		return container.NewOneToMany[string, string, testing.Cell](name, j, container.Unordered[string, string]())
//	}
//
//	testing.RunMatrixTests(t, "UnorderedOneToMany", factory)
package testing
