package memstore

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/pierrec/lz4/v4"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// SaveToFile writes every collection, including insertion order and
// index definitions, to a single compressed snapshot file. The file is
// written to a temporary path first and renamed into place.
func (e *Engine) SaveToFile(filename string) error {
	e.mu.RLock()
	data := newSnapshotData()
	for name, coll := range e.collections {
		coll.mu.RLock()
		docs := make(map[string]interface{}, len(coll.docs))
		seqs := make(map[string]int64, len(coll.seq))
		for id, doc := range coll.docs {
			docs[id] = map[string]interface{}(doc.Copy())
		}
		for id, seq := range coll.seq {
			seqs[id] = seq
		}
		snapshots := make([]indexSnapshot, 0, len(coll.indexes))
		for _, ix := range coll.indexes {
			snapshots = append(snapshots, indexSnapshot{Field: ix.field, Unique: ix.unique, Sparse: ix.sparse})
		}
		coll.mu.RUnlock()

		sort.Slice(snapshots, func(i, j int) bool { return snapshots[i].Field < snapshots[j].Field })
		data.Collections[name] = docs
		data.Sequences[name] = seqs
		if len(snapshots) > 0 {
			data.Indexes[name] = snapshots
		}
	}
	e.mu.RUnlock()

	payload, err := msgpack.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode MessagePack: %w", err)
	}

	compressed := make([]byte, lz4.CompressBlockBound(len(payload)))
	var hashTable [1 << 16]int
	n, err := lz4.CompressBlock(payload, compressed, hashTable[:])
	if err != nil {
		return fmt.Errorf("failed to compress data: %w", err)
	}

	var flags uint8
	body := compressed[:n]
	if n == 0 {
		// LZ4 could not shrink the payload, store it raw.
		flags = flagUncompressed
		body = payload
	}

	var buf bytes.Buffer
	if err := WriteHeader(&buf, flags); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := buf.Write(body); err != nil {
		return fmt.Errorf("failed to write snapshot body: %w", err)
	}

	tempFile := filename + ".tmp"
	if err := os.WriteFile(tempFile, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write snapshot file: %w", err)
	}
	if err := os.Rename(tempFile, filename); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename snapshot file: %w", err)
	}
	return nil
}

// LoadFromFile replaces the engine's contents with a snapshot. A missing
// file is not an error, the engine just starts empty.
func (e *Engine) LoadFromFile(filename string) error {
	raw, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open snapshot: %w", err)
	}

	reader := bytes.NewReader(raw)
	header, err := ReadHeader(reader)
	if err != nil {
		return fmt.Errorf("invalid snapshot header: %w", err)
	}
	body := make([]byte, reader.Len())
	if _, err := io.ReadFull(reader, body); err != nil {
		return fmt.Errorf("failed to read snapshot body: %w", err)
	}

	payload := body
	if header.Flags&flagUncompressed == 0 {
		payload, err = decompress(body)
		if err != nil {
			return fmt.Errorf("failed to decompress snapshot: %w", err)
		}
	}

	var data snapshotData
	if err := msgpack.Unmarshal(payload, &data); err != nil {
		return fmt.Errorf("failed to decode MessagePack: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.collections = make(map[string]*collection, len(data.Collections))
	for name, docs := range data.Collections {
		coll := newCollection(name)
		for id, rawDoc := range docs {
			m, ok := rawDoc.(map[string]interface{})
			if !ok {
				continue
			}
			coll.docs[id] = domain.Document(m)
		}

		for id, seq := range data.Sequences[name] {
			if _, ok := coll.docs[id]; !ok {
				continue
			}
			coll.seq[id] = seq
			if seq > coll.nextSeq {
				coll.nextSeq = seq
			}
		}
		// Documents from older snapshots without sequence data keep a
		// stable, if arbitrary, order.
		var orphans []string
		for id := range coll.docs {
			if _, ok := coll.seq[id]; !ok {
				orphans = append(orphans, id)
			}
		}
		sort.Strings(orphans)
		for _, id := range orphans {
			coll.nextSeq++
			coll.seq[id] = coll.nextSeq
		}

		for _, snap := range data.Indexes[name] {
			ix := newFieldIndex(snap.Field, snap.Unique, snap.Sparse)
			for _, id := range coll.idsInOrder() {
				ix.add(id, coll.docs[id])
			}
			coll.indexes[snap.Field] = ix
		}
		e.collections[name] = coll
	}
	log.Printf("INFO: Loaded snapshot from %s (%d collections)", filename, len(e.collections))
	return nil
}

// decompress inflates an LZ4 block, growing the buffer until it fits.
func decompress(body []byte) ([]byte, error) {
	size := len(body)*4 + 1024
	for attempt := 0; attempt < 4; attempt++ {
		dst := make([]byte, size)
		n, err := lz4.UncompressBlock(body, dst)
		if err == nil {
			return dst[:n], nil
		}
		size *= 4
	}
	return nil, fmt.Errorf("decompressed data exceeds %d bytes", size)
}
