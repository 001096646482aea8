package memstore

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// insert stores a batch of documents and returns their identifiers in
// order. The batch is all or nothing: identifiers and unique indexes are
// validated across the batch and the existing data before anything is
// written. Documents without an "_id" get a generated one.
func (e *Engine) insert(name string, docs []domain.Document) ([]interface{}, error) {
	coll := e.getOrCreate(name)
	coll.mu.Lock()
	defer coll.mu.Unlock()

	if err := coll.validateInsert(docs); err != nil {
		return nil, err
	}

	ids := make([]interface{}, len(docs))
	for i, doc := range docs {
		stored := doc.Copy()
		if stored == nil {
			stored = domain.Document{}
		}
		id, ok := stored["_id"].(string)
		if !ok {
			id = uuid.NewString()
			stored["_id"] = id
		}
		coll.docs[id] = stored
		coll.nextSeq++
		coll.seq[id] = coll.nextSeq
		for _, ix := range coll.indexes {
			ix.add(id, stored)
		}
		ids[i] = id
	}
	e.dirty.Store(true)
	return ids, nil
}

// validateInsert rejects a batch that would collide on identifiers or on
// a unique index, either with existing documents or within itself.
// Callers must hold the collection lock.
func (c *collection) validateInsert(docs []domain.Document) error {
	seenIDs := make(map[string]bool, len(docs))
	for _, doc := range docs {
		raw, ok := doc["_id"]
		if !ok {
			continue
		}
		id, ok := raw.(string)
		if !ok {
			return fmt.Errorf("document _id must be a string, got %T", raw)
		}
		if seenIDs[id] {
			return fmt.Errorf("%w: _id %q", domain.ErrDuplicateKey, id)
		}
		if _, exists := c.docs[id]; exists {
			return fmt.Errorf("%w: _id %q", domain.ErrDuplicateKey, id)
		}
		seenIDs[id] = true
	}

	for _, ix := range c.indexes {
		if !ix.unique {
			continue
		}
		seen := make(map[interface{}]bool)
		for _, doc := range docs {
			val, present := doc[ix.field]
			if (!present || val == nil) && ix.sparse {
				continue
			}
			key, hashable := indexKey(val)
			if !hashable {
				continue
			}
			if seen[key] || len(ix.inverted[key]) > 0 {
				return fmt.Errorf("%w: field %q value %v", domain.ErrDuplicateKey, ix.field, val)
			}
			seen[key] = true
		}
	}
	return nil
}

// find returns copies of every document matching filter, ordered by the
// sort keys or, absent those, by insertion. A missing collection yields
// an empty result, not an error.
func (e *Engine) find(name string, filter domain.Document, opts domain.FindOptions) ([]domain.Document, error) {
	coll := e.lookup(name)
	if coll == nil {
		return []domain.Document{}, nil
	}
	coll.mu.RLock()
	defer coll.mu.RUnlock()

	ids := coll.matching(filter)
	if len(opts.Sort) > 0 {
		coll.sortByKeys(ids, opts.Sort)
	}
	ids = window(ids, opts.Skip, opts.Limit)

	out := make([]domain.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, coll.docs[id].Copy())
	}
	return out, nil
}

// sortByKeys orders ids by the given sort keys, falling back to insertion
// order for ties. Callers must hold the collection lock.
func (c *collection) sortByKeys(ids []string, keys []domain.SortKey) {
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := c.docs[ids[i]], c.docs[ids[j]]
		for _, key := range keys {
			cmp := compareValues(a[key.Field], b[key.Field])
			if cmp == 0 {
				continue
			}
			if key.Desc {
				return cmp > 0
			}
			return cmp < 0
		}
		return c.seq[ids[i]] < c.seq[ids[j]]
	})
}

func window(ids []string, skip, limit int64) []string {
	if skip > 0 {
		if skip >= int64(len(ids)) {
			return nil
		}
		ids = ids[skip:]
	}
	if limit > 0 && limit < int64(len(ids)) {
		ids = ids[:limit]
	}
	return ids
}

// update applies set to every document matching filter and returns how
// many matched. Unique indexes are validated before the first document
// is touched, so a conflicting update changes nothing.
func (e *Engine) update(name string, filter, set domain.Document) (int64, error) {
	coll := e.lookup(name)
	if coll == nil {
		return 0, nil
	}
	coll.mu.Lock()
	defer coll.mu.Unlock()

	ids := coll.matching(filter)
	if len(ids) == 0 {
		return 0, nil
	}
	if err := coll.validateUpdate(ids, set); err != nil {
		return 0, err
	}

	for _, id := range ids {
		doc := coll.docs[id]
		old := doc.Copy()
		for k, v := range set {
			if k == "_id" {
				continue
			}
			doc[k] = v
		}
		for _, ix := range coll.indexes {
			ix.remove(id, old)
			ix.add(id, doc)
		}
	}
	e.dirty.Store(true)
	return int64(len(ids)), nil
}

// validateUpdate rejects a set document that would leave a unique index
// with duplicate values. Callers must hold the collection lock.
func (c *collection) validateUpdate(ids []string, set domain.Document) error {
	for _, ix := range c.indexes {
		if !ix.unique {
			continue
		}
		val, present := set[ix.field]
		if !present {
			continue
		}
		if val == nil && ix.sparse {
			continue
		}
		key, hashable := indexKey(val)
		if !hashable {
			continue
		}
		if len(ids) > 1 {
			return fmt.Errorf("%w: field %q value %v", domain.ErrDuplicateKey, ix.field, val)
		}
		updating := map[string]bool{}
		for _, id := range ids {
			updating[id] = true
		}
		for _, holder := range ix.inverted[key] {
			if !updating[holder] {
				return fmt.Errorf("%w: field %q value %v", domain.ErrDuplicateKey, ix.field, val)
			}
		}
	}
	return nil
}

// remove deletes every document matching filter and returns the removed
// identifiers in insertion order.
func (e *Engine) remove(name string, filter domain.Document) ([]interface{}, error) {
	coll := e.lookup(name)
	if coll == nil {
		return []interface{}{}, nil
	}
	coll.mu.Lock()
	defer coll.mu.Unlock()

	ids := coll.matching(filter)
	removed := make([]interface{}, 0, len(ids))
	for _, id := range ids {
		doc := coll.docs[id]
		for _, ix := range coll.indexes {
			ix.remove(id, doc)
		}
		delete(coll.docs, id)
		delete(coll.seq, id)
		removed = append(removed, id)
	}
	if len(removed) > 0 {
		e.dirty.Store(true)
	}
	return removed, nil
}
