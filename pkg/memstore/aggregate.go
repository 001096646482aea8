package memstore

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// aggregate runs a pipeline of $match and $group stages over a
// collection. Groups are emitted in the order they are first seen, which
// follows insertion order of the underlying documents.
func (e *Engine) aggregate(name string, pipeline []domain.Document) ([]domain.Document, error) {
	coll := e.lookup(name)
	if coll == nil {
		return []domain.Document{}, nil
	}
	coll.mu.RLock()
	current := make([]domain.Document, 0, len(coll.docs))
	for _, id := range coll.idsInOrder() {
		current = append(current, coll.docs[id].Copy())
	}
	coll.mu.RUnlock()

	for i, stage := range pipeline {
		if len(stage) != 1 {
			return nil, fmt.Errorf("pipeline stage %d must hold exactly one operator, got %d", i, len(stage))
		}
		for op, arg := range stage {
			spec, ok := asDocument(arg)
			if !ok {
				return nil, fmt.Errorf("pipeline stage %d: %s takes a document, got %T", i, op, arg)
			}
			var err error
			switch op {
			case "$match":
				filtered := current[:0]
				for _, doc := range current {
					if matchesFilter(doc, spec) {
						filtered = append(filtered, doc)
					}
				}
				current = filtered
			case "$group":
				current, err = groupDocs(current, spec)
			default:
				err = fmt.Errorf("unsupported pipeline stage %q", op)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return current, nil
}

type accumulator struct {
	op    string
	ref   interface{}
	sum   float64
	count int64
	best  interface{}
	seen  bool
}

type groupState struct {
	id     interface{}
	accums map[string]*accumulator
}

// groupDocs implements a $group stage: the _id entry names the grouping
// fields, every other entry is a single-operator accumulator like
// {"$sum": "$amount"}.
func groupDocs(docs []domain.Document, spec domain.Document) ([]domain.Document, error) {
	idSpec, hasID := spec["_id"]
	if !hasID {
		return nil, fmt.Errorf("$group requires an _id entry")
	}

	type accumSpec struct {
		name string
		op   string
		ref  interface{}
	}
	var accumSpecs []accumSpec
	for name, raw := range spec {
		if name == "_id" {
			continue
		}
		accDoc, ok := asDocument(raw)
		if !ok || len(accDoc) != 1 {
			return nil, fmt.Errorf("$group field %q must be a single-operator document", name)
		}
		for op, ref := range accDoc {
			switch op {
			case "$sum", "$avg", "$min", "$max":
				accumSpecs = append(accumSpecs, accumSpec{name: name, op: op, ref: ref})
			default:
				return nil, fmt.Errorf("unsupported accumulator %q for field %q", op, name)
			}
		}
	}
	sort.Slice(accumSpecs, func(i, j int) bool { return accumSpecs[i].name < accumSpecs[j].name })

	groups := make(map[string]*groupState)
	var order []string
	for _, doc := range docs {
		id := resolveGroupID(doc, idSpec)
		key := groupKey(id)
		state, ok := groups[key]
		if !ok {
			state = &groupState{id: id, accums: make(map[string]*accumulator, len(accumSpecs))}
			for _, as := range accumSpecs {
				state.accums[as.name] = &accumulator{op: as.op, ref: as.ref}
			}
			groups[key] = state
			order = append(order, key)
		}
		for _, as := range accumSpecs {
			state.accums[as.name].feed(doc)
		}
	}

	out := make([]domain.Document, 0, len(order))
	for _, key := range order {
		state := groups[key]
		doc := domain.Document{"_id": state.id}
		for _, as := range accumSpecs {
			doc[as.name] = state.accums[as.name].result()
		}
		out = append(out, doc)
	}
	return out, nil
}

func (a *accumulator) feed(doc domain.Document) {
	val := resolveRef(doc, a.ref)
	switch a.op {
	case "$sum", "$avg":
		f, ok := toFloat64(val)
		if !ok {
			return
		}
		a.sum += f
		a.count++
	case "$min":
		if val == nil {
			return
		}
		if !a.seen || compareValues(val, a.best) < 0 {
			a.best = val
			a.seen = true
		}
	case "$max":
		if val == nil {
			return
		}
		if !a.seen || compareValues(val, a.best) > 0 {
			a.best = val
			a.seen = true
		}
	}
}

func (a *accumulator) result() interface{} {
	switch a.op {
	case "$sum":
		return a.sum
	case "$avg":
		if a.count == 0 {
			return nil
		}
		return a.sum / float64(a.count)
	default:
		if !a.seen {
			return nil
		}
		return a.best
	}
}

// resolveGroupID materializes the group identifier for one document. A
// document spec maps output names to field references; anything else is
// taken literally, so _id: nil collapses everything into one group.
func resolveGroupID(doc domain.Document, idSpec interface{}) interface{} {
	spec, ok := asDocument(idSpec)
	if !ok {
		return idSpec
	}
	id := make(domain.Document, len(spec))
	for name, ref := range spec {
		id[name] = resolveRef(doc, ref)
	}
	return id
}

// resolveRef follows a "$field" reference into the document; any other
// value is a literal, so {"$sum": 1} counts documents.
func resolveRef(doc domain.Document, ref interface{}) interface{} {
	if s, ok := ref.(string); ok && strings.HasPrefix(s, "$") {
		return doc[strings.TrimPrefix(s, "$")]
	}
	return ref
}

// groupKey flattens a group identifier into a map key with its fields in
// deterministic order.
func groupKey(id interface{}) string {
	spec, ok := asDocument(id)
	if !ok {
		return fmt.Sprintf("%T=%v", id, id)
	}
	names := make([]string, 0, len(spec))
	for name := range spec {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		fmt.Fprintf(&b, "%s=%T:%v\x1f", name, spec[name], spec[name])
	}
	return b.String()
}

func asDocument(v interface{}) (domain.Document, bool) {
	switch d := v.(type) {
	case domain.Document:
		return d, true
	case map[string]interface{}:
		return domain.Document(d), true
	default:
		return nil, false
	}
}
