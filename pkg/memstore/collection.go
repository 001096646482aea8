package memstore

import (
	"sort"
	"sync"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// collection holds the documents of one collection together with their
// insertion order and secondary indexes. The mutex guards everything in
// the struct; the engine only guards the collection map itself.
type collection struct {
	mu      sync.RWMutex
	name    string
	docs    map[string]domain.Document
	seq     map[string]int64
	nextSeq int64
	indexes map[string]*fieldIndex
}

func newCollection(name string) *collection {
	return &collection{
		name:    name,
		docs:    make(map[string]domain.Document),
		seq:     make(map[string]int64),
		indexes: make(map[string]*fieldIndex),
	}
}

// idsInOrder returns every document id sorted by insertion sequence.
// Callers must hold the collection lock.
func (c *collection) idsInOrder() []string {
	ids := make([]string, 0, len(c.docs))
	for id := range c.docs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return c.seq[ids[i]] < c.seq[ids[j]]
	})
	return ids
}

// sortBySeq orders an arbitrary id subset by insertion sequence. Callers
// must hold the collection lock.
func (c *collection) sortBySeq(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		return c.seq[ids[i]] < c.seq[ids[j]]
	})
}

// matching returns the ids of all documents matching filter, in insertion
// order. An indexed equality term narrows the scan when one is available.
// Callers must hold the collection lock.
func (c *collection) matching(filter domain.Document) []string {
	candidates, narrowed := c.candidateIDs(filter)
	if !narrowed {
		candidates = c.idsInOrder()
	} else {
		candidates = append([]string(nil), candidates...)
		c.sortBySeq(candidates)
	}

	if len(filter) == 0 {
		return candidates
	}
	matched := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if matchesFilter(c.docs[id], filter) {
			matched = append(matched, id)
		}
	}
	return matched
}

// candidateIDs picks the smallest candidate set offered by an index over
// a plain equality term of the filter. Operator terms and nil values
// cannot use an index: documents missing a field are not indexed, yet a
// nil filter term must still match them.
func (c *collection) candidateIDs(filter domain.Document) ([]string, bool) {
	var best []string
	found := false
	for field, cond := range filter {
		if cond == nil {
			continue
		}
		switch cond.(type) {
		case map[string]interface{}, domain.Document:
			continue
		}
		ix, ok := c.indexes[field]
		if !ok {
			continue
		}
		ids, ok := ix.lookup(cond)
		if !ok {
			continue
		}
		if !found || len(ids) < len(best) {
			best = ids
			found = true
		}
	}
	return best, found
}
