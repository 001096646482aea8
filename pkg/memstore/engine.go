package memstore

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// Engine is an in-memory document store with the same observable
// behavior as the MongoDB backend: schemaless collections, string
// identifiers, unique and plain secondary indexes, and a small
// aggregation pipeline. Snapshots can be saved to and loaded from a
// single compressed file.
type Engine struct {
	mu          sync.RWMutex
	collections map[string]*collection

	dataFile     string
	autoSave     bool
	saveInterval time.Duration

	dirty        atomic.Bool
	stopChan     chan struct{}
	backgroundWg sync.WaitGroup
}

// NewEngine creates an empty engine. Options configure persistence; by
// default nothing is ever written to disk.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		collections:  make(map[string]*collection),
		saveInterval: 5 * time.Minute,
		stopChan:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Collections returns the names of all collections in sorted order.
func (e *Engine) Collections() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.collections))
	for name := range e.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// lookup returns the named collection, or nil if it does not exist.
func (e *Engine) lookup(name string) *collection {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.collections[name]
}

// getOrCreate returns the named collection, creating it on first use the
// way MongoDB does on first write.
func (e *Engine) getOrCreate(name string) *collection {
	e.mu.RLock()
	coll := e.collections[name]
	e.mu.RUnlock()
	if coll != nil {
		return coll
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if coll = e.collections[name]; coll == nil {
		coll = newCollection(name)
		e.collections[name] = coll
	}
	return coll
}

// drop removes a collection and everything in it. Dropping a collection
// that does not exist is a no-op.
func (e *Engine) drop(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.collections[name]; ok {
		delete(e.collections, name)
		e.dirty.Store(true)
	}
}

// ensureIndexes creates the given indexes on a collection, building each
// new index from the documents already present. Creating an index that
// already exists is a no-op. A unique index over existing duplicate
// values fails with domain.ErrDuplicateKey and leaves the collection
// untouched.
func (e *Engine) ensureIndexes(name string, indexes []domain.IndexDescriptor) error {
	coll := e.getOrCreate(name)
	coll.mu.Lock()
	defer coll.mu.Unlock()

	for _, desc := range indexes {
		if len(desc.Keys) != 1 {
			return fmt.Errorf("compound indexes are not supported, got %d keys", len(desc.Keys))
		}
		var field string
		for f := range desc.Keys {
			field = f
		}
		if _, exists := coll.indexes[field]; exists {
			continue
		}

		ix := newFieldIndex(field, desc.Unique, desc.Sparse)
		for _, id := range coll.idsInOrder() {
			doc := coll.docs[id]
			val, present := doc[field]
			if (!present || val == nil) && ix.sparse {
				continue
			}
			key, hashable := indexKey(val)
			if !hashable {
				continue
			}
			if ix.unique && len(ix.inverted[key]) > 0 {
				return fmt.Errorf("%w: field %q value %v", domain.ErrDuplicateKey, field, val)
			}
			ix.inverted[key] = append(ix.inverted[key], id)
		}
		coll.indexes[field] = ix
		e.dirty.Store(true)
	}
	return nil
}

// indexFields returns the indexed field names of a collection in sorted
// order, or nil when the collection does not exist.
func (e *Engine) indexFields(name string) []string {
	coll := e.lookup(name)
	if coll == nil {
		return nil
	}
	coll.mu.RLock()
	defer coll.mu.RUnlock()
	fields := make([]string, 0, len(coll.indexes))
	for field := range coll.indexes {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}
