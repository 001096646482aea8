package memstore

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// MagicBytes identify a snapshot file.
	MagicBytes = "ADRC"
	// FormatVersion is the current snapshot format version.
	FormatVersion = 1
	// FileExtension is the conventional extension for snapshot files.
	FileExtension = ".adrc"

	// flagUncompressed marks a payload stored raw because LZ4 could not
	// shrink it.
	flagUncompressed uint8 = 1 << 0
)

// FileHeader sits at the front of every snapshot file.
type FileHeader struct {
	Magic    [4]byte
	Version  uint8
	Flags    uint8
	Reserved [2]byte
}

// WriteHeader writes a snapshot header with the given flags.
func WriteHeader(w io.Writer, flags uint8) error {
	header := FileHeader{
		Magic:   [4]byte{'A', 'D', 'R', 'C'},
		Version: FormatVersion,
		Flags:   flags,
	}
	return binary.Write(w, binary.LittleEndian, header)
}

// ReadHeader reads and validates a snapshot header.
func ReadHeader(r io.Reader) (*FileHeader, error) {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if string(header.Magic[:]) != MagicBytes {
		return nil, fmt.Errorf("invalid snapshot format: expected %s, got %s", MagicBytes, string(header.Magic[:]))
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version: %d", header.Version)
	}
	return &header, nil
}

// snapshotData is the on-disk layout of a snapshot: raw documents plus
// enough bookkeeping to rebuild insertion order and indexes on load.
type snapshotData struct {
	Collections map[string]map[string]interface{} `msgpack:"collections"`
	Sequences   map[string]map[string]int64       `msgpack:"sequences,omitempty"`
	Indexes     map[string][]indexSnapshot        `msgpack:"indexes,omitempty"`
}

type indexSnapshot struct {
	Field  string `msgpack:"field"`
	Unique bool   `msgpack:"unique,omitempty"`
	Sparse bool   `msgpack:"sparse,omitempty"`
}

func newSnapshotData() *snapshotData {
	return &snapshotData{
		Collections: make(map[string]map[string]interface{}),
		Sequences:   make(map[string]map[string]int64),
		Indexes:     make(map[string][]indexSnapshot),
	}
}
