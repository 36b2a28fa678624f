// Package cmd implements the command-line interface of dRel. It provides a
// hierarchical command structure for running the server and interacting with it
// as a client.
//
// The package is organized into several subpackages:
//
//   - matrix: Client commands for matrix operations (add, get, erase, batch, ...)
//   - serve: Starting and configuring the dRel server
//   - replay: Rebuilding a matrix from a write-ahead log directory
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See drel --help for a list of all commands.
package cmd
