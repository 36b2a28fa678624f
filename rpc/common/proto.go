package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ValentinKolb/dRel/lib/store"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Row   string `json:"row,omitempty"`   // Used for: Add, Erase, Get, DoesNotConflict, Row
	Col   string `json:"col,omitempty"`   // Used for: Add, Erase, EraseCol, Get, GetByCol, DoesNotConflict, Col
	Value []byte `json:"value,omitempty"` // Used for: Add (request), Get (response)

	// Batch only field
	Ops []store.Op `json:"ops,omitempty"`

	// Response only fields
	Ok    bool         `json:"ok,omitempty"`    // Used for: Get, GetByCol, DoesNotConflict responses
	Cells []store.Cell `json:"cells,omitempty"` // Used for: GetByCol, Row, Col responses
	Keys  []string     `json:"keys,omitempty"`  // Used for: Rows, Cols responses
	Code  uint8        `json:"code,omitempty"`  // store.RetCode of the error, if any
	Err   string       `json:"err,omitempty"`   // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Used for: GetInfo responses (json encoded store.Info)
}

// AsError returns the error carried by the message as *store.Error, or nil.
func (m *Message) AsError() error {
	if m.MsgType != MsgTError && m.Err == "" {
		return nil
	}
	code := store.RetCode(m.Code)
	if code == store.RetCSuccess {
		code = store.RetCInternalError
	}
	return store.NewError(code, m.Err)
}

// withErr sets the error fields of the message, keeping the store.RetCode if err carries one.
func (m *Message) withErr(err error) *Message {
	if err == nil {
		return m
	}
	m.Err = err.Error()
	m.Code = uint8(store.RetCInternalError)

	var storeErr *store.Error
	if errors.As(err, &storeErr) {
		m.Err = storeErr.Msg
		m.Code = uint8(storeErr.Code)
	}
	return m
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewAddRequest creates a new Add request
func NewAddRequest(row, col string, value []byte) *Message {
	return &Message{MsgType: MsgTAdd, Row: row, Col: col, Value: value}
}

// NewEraseRequest creates a new Erase request
func NewEraseRequest(row, col string) *Message {
	return &Message{MsgType: MsgTErase, Row: row, Col: col}
}

// NewEraseColRequest creates a new EraseCol request
func NewEraseColRequest(col string) *Message {
	return &Message{MsgType: MsgTEraseCol, Col: col}
}

// NewBatchRequest creates a new Batch request
func NewBatchRequest(ops []store.Op) *Message {
	return &Message{MsgType: MsgTBatch, Ops: ops}
}

// NewWriteResponse creates the response to any write request (Add, Erase, EraseCol, Batch)
func NewWriteResponse(t MessageType, err error) *Message {
	return (&Message{MsgType: t}).withErr(err)
}

// NewGetRequest creates a new Get request
func NewGetRequest(row, col string) *Message {
	return &Message{MsgType: MsgTGet, Row: row, Col: col}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value []byte, ok bool, err error) *Message {
	return (&Message{MsgType: MsgTGet, Value: value, Ok: ok}).withErr(err)
}

// NewGetByColRequest creates a new GetByCol request
func NewGetByColRequest(col string) *Message {
	return &Message{MsgType: MsgTGetByCol, Col: col}
}

// NewGetByColResponse creates a new GetByCol response
func NewGetByColResponse(cell store.Cell, ok bool, err error) *Message {
	msg := &Message{MsgType: MsgTGetByCol, Ok: ok}
	if ok {
		msg.Cells = []store.Cell{cell}
	}
	return msg.withErr(err)
}

// NewDoesNotConflictRequest creates a new DoesNotConflict request
func NewDoesNotConflictRequest(row, col string) *Message {
	return &Message{MsgType: MsgTDoesNotConflict, Row: row, Col: col}
}

// NewDoesNotConflictResponse creates a new DoesNotConflict response
func NewDoesNotConflictResponse(ok bool, err error) *Message {
	return (&Message{MsgType: MsgTDoesNotConflict, Ok: ok}).withErr(err)
}

// NewRowRequest creates a new Row request
func NewRowRequest(row string) *Message {
	return &Message{MsgType: MsgTRow, Row: row}
}

// NewColRequest creates a new Col request
func NewColRequest(col string) *Message {
	return &Message{MsgType: MsgTCol, Col: col}
}

// NewCellsResponse creates the response to a Row or Col request
func NewCellsResponse(t MessageType, cells []store.Cell, err error) *Message {
	return (&Message{MsgType: t, Cells: cells}).withErr(err)
}

// NewKeysRequest creates a new Rows or Cols request
func NewKeysRequest(t MessageType) *Message {
	return &Message{MsgType: t}
}

// NewKeysResponse creates the response to a Rows or Cols request
func NewKeysResponse(t MessageType, keys []string, err error) *Message {
	return (&Message{MsgType: t, Keys: keys}).withErr(err)
}

// NewGetInfoRequest creates a new GetInfo request
func NewGetInfoRequest() *Message {
	return &Message{MsgType: MsgTGetInfo}
}

// NewGetInfoResponse creates a new GetInfo response, the info is carried json encoded in Meta
func NewGetInfoResponse(info store.Info, err error) *Message {
	msg := &Message{MsgType: MsgTGetInfo}
	if err != nil {
		return msg.withErr(err)
	}
	meta, err := json.Marshal(info)
	if err != nil {
		return msg.withErr(fmt.Errorf("failed to encode info: %w", err))
	}
	msg.Meta = meta
	return msg
}

// Info decodes the store.Info of a GetInfo response
func (m *Message) Info() (store.Info, error) {
	var info store.Info
	if err := json.Unmarshal(m.Meta, &info); err != nil {
		return store.Info{}, fmt.Errorf("failed to decode info: %w", err)
	}
	return info, nil
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Code:    uint8(store.RetCInternalError),
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

var messageTypeNames = map[MessageType]string{
	MsgTSuccess:         "success",
	MsgTError:           "error",
	MsgTAdd:             "add",
	MsgTErase:           "erase",
	MsgTEraseCol:        "eraseCol",
	MsgTBatch:           "batch",
	MsgTGet:             "get",
	MsgTGetByCol:        "getByCol",
	MsgTDoesNotConflict: "doesNotConflict",
	MsgTRow:             "row",
	MsgTCol:             "col",
	MsgTRows:            "rows",
	MsgTCols:            "cols",
	MsgTGetInfo:         "getInfo",
}

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	if name, ok := messageTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	for msgType, name := range messageTypeNames {
		if name == s {
			*t = msgType
			return nil
		}
	}
	return fmt.Errorf("unknown message type: %s", s)
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// IStore write operations

	MsgTAdd      // Insert or overwrite a cell
	MsgTErase    // Remove a cell
	MsgTEraseCol // Remove all cells of a col
	MsgTBatch    // Apply several ops as one transaction

	// IStore read operations

	MsgTGet             // Get the value of a cell
	MsgTGetByCol        // Get the cell owning a col
	MsgTDoesNotConflict // Check whether a cell could be added without eviction
	MsgTRow             // All cells of a row
	MsgTCol             // All cells of a col
	MsgTRows            // All rows
	MsgTCols            // All cols
	MsgTGetInfo         // Store metadata
)
