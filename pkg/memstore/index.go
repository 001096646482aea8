package memstore

import (
	"time"
)

// fieldIndex is an inverted index over a single field, mapping each value
// to the ids of the documents holding it. A sparse index skips documents
// where the field is missing or nil; a non-sparse index files them under
// nil, which is how unique collisions on absent values happen.
type fieldIndex struct {
	field    string
	unique   bool
	sparse   bool
	inverted map[interface{}][]string
}

func newFieldIndex(field string, unique, sparse bool) *fieldIndex {
	return &fieldIndex{
		field:    field,
		unique:   unique,
		sparse:   sparse,
		inverted: make(map[interface{}][]string),
	}
}

// add files a document under its current value for the indexed field.
// Uniqueness is checked by the write paths before anything is committed,
// so add itself cannot fail.
func (ix *fieldIndex) add(docID string, doc map[string]interface{}) {
	val, present := doc[ix.field]
	if (!present || val == nil) && ix.sparse {
		return
	}
	key, hashable := indexKey(val)
	if !hashable {
		return
	}
	ix.inverted[key] = append(ix.inverted[key], docID)
}

// remove takes a document out of the index using the value it was filed
// under.
func (ix *fieldIndex) remove(docID string, doc map[string]interface{}) {
	val, present := doc[ix.field]
	if (!present || val == nil) && ix.sparse {
		return
	}
	key, hashable := indexKey(val)
	if !hashable {
		return
	}
	ids := ix.inverted[key]
	for i, id := range ids {
		if id == docID {
			ids = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	if len(ids) == 0 {
		delete(ix.inverted, key)
	} else {
		ix.inverted[key] = ids
	}
}

// lookup returns the ids filed under a value. The second return reports
// whether the value was usable as an index key at all.
func (ix *fieldIndex) lookup(val interface{}) ([]string, bool) {
	key, hashable := indexKey(val)
	if !hashable {
		return nil, false
	}
	return ix.inverted[key], true
}

// timeKey keeps time values from colliding with plain integers in the
// inverted map.
type timeKey int64

// indexKey normalizes a value into something usable as a map key.
// Numbers collapse onto float64 so 42 and 42.0 land in the same bucket,
// matching how filters compare them. Slices, maps, and other unhashable
// values are not indexable.
func indexKey(v interface{}) (interface{}, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case string:
		return t, true
	case bool:
		return t, true
	case time.Time:
		return timeKey(t.UnixNano()), true
	default:
		if f, ok := toFloat64(v); ok {
			return f, true
		}
	}
	return nil, false
}
