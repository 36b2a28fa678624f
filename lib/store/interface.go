package store

import (
	"bytes"
	"fmt"

	"github.com/ValentinKolb/dRel/lib/container"
	"github.com/ValentinKolb/dRel/lib/util"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IStore is the generic interface for interacting with a relational matrix store.
// All write operations return only a *Error (nil on success),
// while read operations return the requested data along with a *Error (nil on success).
//
// Every write operation is a transaction of its own. Batch groups several
// operations into a single atomic transaction.
type IStore interface {
	// Add inserts or overwrites the cell (row, col). Cells the topology does not allow
	// to coexist with it are evicted.
	Add(row, col string, value []byte) (err error)
	// Erase removes the cell (row, col). No error is returned if it does not exist.
	Erase(row, col string) (err error)
	// EraseCol removes all cells of col. No error is returned if there are none.
	EraseCol(col string) (err error)
	// Batch applies ops in order as a single transaction. Either all ops take effect or none.
	// A failing OpTAddIfNoConflict aborts the batch with RetCConflict.
	Batch(ops []Op) (err error)
	// Get returns the value of the cell (row, col). The boolean return value indicates whether the cell was found.
	Get(row, col string) (value []byte, loaded bool, err error)
	// GetByCol returns the cell owning col. It is not supported for many-to-many topologies.
	GetByCol(col string) (cell Cell, loaded bool, err error)
	// DoesNotConflict reports whether adding (row, col) would neither overwrite nor evict any cell.
	DoesNotConflict(row, col string) (ok bool, err error)
	// Row returns all cells of row.
	Row(row string) (cells []Cell, err error)
	// Col returns all cells of col.
	Col(col string) (cells []Cell, err error)
	// Rows returns all rows holding at least one cell.
	Rows() (rows []string, err error)
	// Cols returns all cols holding at least one cell.
	Cols() (cols []string, err error)
	// GetInfo returns metadata about the matrix underlying the store.
	// It is not guaranteed that all fields are filled in or that the information is up-to-date!
	GetInfo() (info Info, err error)
}

// --------------------------------------------------------------------------
// Cells
// --------------------------------------------------------------------------

// Cell is the entry type served by all stores: a value addressed by a row and a col.
type Cell struct {
	Row   string `json:"row"`
	Col   string `json:"col"`
	Value []byte `json:"value"`
}

func (c Cell) RowKey() string { return c.Row }
func (c Cell) ColKey() string { return c.Col }

// Clone returns a copy of the cell that does not share the value buffer.
func (c Cell) Clone() Cell {
	if c.Value != nil {
		c.Value = bytes.Clone(c.Value)
	}
	return c
}

func (c Cell) String() string {
	return fmt.Sprintf("(%s, %s) = %q", c.Row, c.Col, c.Value)
}

// Matrix is the container type every store is built on.
type Matrix = container.Matrix[string, string, Cell]

// --------------------------------------------------------------------------
// Operations
// --------------------------------------------------------------------------

// OpType defines the write operations a transaction consists of.
type OpType uint8

const (
	OpTAdd             OpType = iota // Insert or overwrite a cell, evicting conflicting cells.
	OpTAddIfNoConflict               // Insert a cell, abort the transaction if it conflicts.
	OpTErase                         // Remove a cell.
	OpTEraseCol                      // Remove all cells of a col.
)

func (t OpType) String() string {
	switch t {
	case OpTAdd:
		return "Add"
	case OpTAddIfNoConflict:
		return "AddIfNoConflict"
	case OpTErase:
		return "Erase"
	case OpTEraseCol:
		return "EraseCol"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// Op is a single write operation of a transaction. Row and Value are ignored where not needed.
type Op struct {
	Type  OpType `json:"type"`
	Row   string `json:"row,omitempty"`
	Col   string `json:"col"`
	Value []byte `json:"value,omitempty"`
}

// --------------------------------------------------------------------------
// Store Information
// --------------------------------------------------------------------------

// Info describes the matrix underlying a store.
type Info struct {
	Name         string                 `json:"name"`
	TypeName     string                 `json:"type_name"`
	Topology     Topology               `json:"topology"`
	Entries      int                    `json:"entries"`
	Rows         int                    `json:"rows"`
	Cols         int                    `json:"cols"`
	Transactions uint64                 `json:"transactions"` // committed transactions
	Rollbacks    uint64                 `json:"rollbacks"`    // aborted transactions
	RowFanout    util.DistributionStats `json:"row_fanout"`   // cells per row
	ValueSizes   util.SizeSummary       `json:"value_sizes"`  // sizes of written values
	Metadata     map[string]any         `json:"metadata,omitempty"`
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("StoreError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new store error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by the topology.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCConflict                            // 4: Transaction aborted because of a conflicting cell.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCConflict:
		return "Conflict"
	default:
		return "Unknown"
	}
}
