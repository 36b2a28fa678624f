package store

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

const (
	snapshotMagic   = "DREL"
	snapshotVersion = 1
)

// WriteSnapshot writes cells in the snapshot format:
//
//	4 bytes magic ("DREL"), 1 byte version, 8 bytes cell count,
//	per cell: 4 bytes row length, row, 4 bytes col length, col, 4 bytes value length, value
//
// All integers are big endian.
func WriteSnapshot(w io.Writer, cells []Cell) error {
	bw := bufio.NewWriterSize(w, 1024*1024)

	if _, err := bw.WriteString(snapshotMagic); err != nil {
		return err
	}
	if err := bw.WriteByte(snapshotVersion); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, uint64(len(cells))); err != nil {
		return err
	}

	for _, cell := range cells {
		for _, field := range [][]byte{[]byte(cell.Row), []byte(cell.Col), cell.Value} {
			if err := binary.Write(bw, binary.BigEndian, uint32(len(field))); err != nil {
				return err
			}
			if _, err := bw.Write(field); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

// ReadSnapshot reads cells written by WriteSnapshot.
func ReadSnapshot(r io.Reader) ([]Cell, error) {
	br := bufio.NewReaderSize(r, 1024*1024)

	magic := make([]byte, len(snapshotMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, err
	}
	if string(magic) != snapshotMagic {
		return nil, fmt.Errorf("invalid snapshot format: magic number mismatch")
	}

	version, err := br.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != snapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %d (expected %d)", version, snapshotVersion)
	}

	var count uint64
	if err := binary.Read(br, binary.BigEndian, &count); err != nil {
		return nil, err
	}

	readField := func() ([]byte, error) {
		var n uint32
		if err := binary.Read(br, binary.BigEndian, &n); err != nil {
			return nil, err
		}
		buf := make([]byte, n)
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, err
		}
		return buf, nil
	}

	cells := make([]Cell, 0, min(count, 1<<16))
	for i := uint64(0); i < count; i++ {
		row, err := readField()
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		col, err := readField()
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		value, err := readField()
		if err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		cells = append(cells, Cell{Row: string(row), Col: string(col), Value: value})
	}
	return cells, nil
}
