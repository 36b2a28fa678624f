package internal

import "github.com/ValentinKolb/dRel/lib/store"

// QueryType defines the possible queries for the state machine.
type QueryType uint8

const (
	QueryTGet             QueryType = iota // Retrieve the value of a cell.
	QueryTGetByCol                         // Retrieve the cell owning a col.
	QueryTDoesNotConflict                  // Check whether a cell could be added without evictions.
	QueryTRow                              // Retrieve all cells of a row.
	QueryTCol                              // Retrieve all cells of a col.
	QueryTRows                             // Retrieve all rows.
	QueryTCols                             // Retrieve all cols.
	QueryTGetInfo                          // Retrieve metadata about the matrix underlying the machine.
)

func (q QueryType) String() string {
	switch q {
	case QueryTGet:
		return "Get"
	case QueryTGetByCol:
		return "GetByCol"
	case QueryTDoesNotConflict:
		return "DoesNotConflict"
	case QueryTRow:
		return "Row"
	case QueryTCol:
		return "Col"
	case QueryTRows:
		return "Rows"
	case QueryTCols:
		return "Cols"
	case QueryTGetInfo:
		return "GetInfo"
	default:
		return "Unknown"
	}
}

// Query defines the structure for lookup requests (read-only) sent via SyncRead or ReadStale
type Query struct {
	Type QueryType // The type of Query to perform.
	Row  string    // The row for the Query (empty for some queries).
	Col  string    // The col for the Query (empty for some queries).
}

// QueryResult is the result of a QueryTGet operation.
// All other query results are primitive types or predefined structs (bool, []string, []store.Cell, store.Info).
type QueryResult struct {
	Ok    bool
	Value []byte
}

// CellResult is the result of a QueryTGetByCol operation.
type CellResult struct {
	Ok   bool
	Cell store.Cell
}
