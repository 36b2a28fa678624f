package internal

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dRel/lib/store"
)

// Command represents a transaction to be executed by the state machine (a single entry in the raft log).
// All ops of a command are applied atomically.
type Command struct {
	Ops []store.Op
}

const (
	headerSize = 4             // op count
	opOverhead = 1 + 4 + 4 + 4 // type + row length + col length + value length
)

// SizeBytes returns the exact number of bytes needed to serialize this command
func (command *Command) SizeBytes() int {
	size := headerSize
	for _, op := range command.Ops {
		size += opOverhead + len(op.Row) + len(op.Col) + len(op.Value)
	}
	return size
}

// Serialize serializes a command into a byte array with the format:
// 4 bytes for the number of ops (big endian), then per op:
// 1 byte for the operation type,
// 4 bytes for row length, N bytes for row data,
// 4 bytes for col length, N bytes for col data,
// 4 bytes for value length, N bytes for value data
func (command *Command) Serialize() []byte {
	result := make([]byte, command.SizeBytes())

	binary.BigEndian.PutUint32(result[0:4], uint32(len(command.Ops)))
	offset := headerSize

	putField := func(field []byte) {
		binary.BigEndian.PutUint32(result[offset:offset+4], uint32(len(field)))
		offset += 4
		offset += copy(result[offset:], field)
	}

	for _, op := range command.Ops {
		result[offset] = byte(op.Type)
		offset++
		putField([]byte(op.Row))
		putField([]byte(op.Col))
		putField(op.Value)
	}

	return result
}

// Deserialize extracts all Command fields from a byte array.
func (command *Command) Deserialize(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("data too short for command")
	}

	count := binary.BigEndian.Uint32(data[0:4])
	offset := headerSize

	// every op needs at least its fixed overhead
	if uint64(count)*opOverhead > uint64(len(data)-offset) {
		return fmt.Errorf("data too short for %d ops", count)
	}

	readField := func(name string) ([]byte, error) {
		if len(data) < offset+4 {
			return nil, fmt.Errorf("data too short for %s length", name)
		}
		n := int(binary.BigEndian.Uint32(data[offset : offset+4]))
		offset += 4
		if len(data) < offset+n {
			return nil, fmt.Errorf("data too short for %s of length %d", name, n)
		}
		field := data[offset : offset+n]
		offset += n
		return field, nil
	}

	command.Ops = make([]store.Op, 0, count)
	for i := uint32(0); i < count; i++ {
		if len(data) < offset+1 {
			return fmt.Errorf("data too short for op %d", i)
		}
		op := store.Op{Type: store.OpType(data[offset])}
		offset++

		row, err := readField("row")
		if err != nil {
			return fmt.Errorf("op %d: %w", i, err)
		}
		col, err := readField("col")
		if err != nil {
			return fmt.Errorf("op %d: %w", i, err)
		}
		value, err := readField("value")
		if err != nil {
			return fmt.Errorf("op %d: %w", i, err)
		}

		op.Row = string(row)
		op.Col = string(col)
		if len(value) > 0 {
			op.Value = make([]byte, len(value))
			copy(op.Value, value)
		}
		command.Ops = append(command.Ops, op)
	}

	if offset != len(data) {
		return fmt.Errorf("%d trailing bytes after command", len(data)-offset)
	}
	return nil
}
