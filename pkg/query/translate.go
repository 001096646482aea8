package query

import (
	"sort"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// Pipeline renders an aggregating query as a two stage pipeline: a $match
// over the filter followed by a $group. The group identifier references
// every groupBy field, and each calculation accumulates back into the
// field it reads from.
func (q *Query) Pipeline() []domain.Document {
	match := q.Where
	if match == nil {
		match = domain.Document{}
	}

	groupID := domain.Document{}
	group := domain.Document{"_id": groupID}
	if q.Group != nil {
		for _, field := range q.Group.By {
			groupID[field] = "$" + field
		}
		for _, field := range q.Group.Sum {
			group[field] = domain.Document{"$sum": "$" + field}
		}
		for _, field := range q.Group.Average {
			group[field] = domain.Document{"$avg": "$" + field}
		}
		for _, field := range q.Group.Min {
			group[field] = domain.Document{"$min": "$" + field}
		}
		for _, field := range q.Group.Max {
			group[field] = domain.Document{"$max": "$" + field}
		}
	}

	return []domain.Document{
		{"$match": match},
		{"$group": group},
	}
}

// FlattenGroups lifts the grouping fields out of each result's synthetic
// _id and drops the _id itself, so aggregation rows look like plain
// records. Grouping fields win over a calculation of the same name.
func FlattenGroups(results []domain.Document) []domain.Document {
	out := make([]domain.Document, 0, len(results))
	for _, r := range results {
		doc := make(domain.Document, len(r))
		for k, v := range r {
			if k != "_id" {
				doc[k] = v
			}
		}
		switch id := r["_id"].(type) {
		case domain.Document:
			for k, v := range id {
				doc[k] = v
			}
		case map[string]interface{}:
			for k, v := range id {
				doc[k] = v
			}
		}
		out = append(out, doc)
	}
	return out
}

// FindOptions converts the parsed modifiers into the driver's form. Sort
// fields are emitted in name order so the same criteria always produces
// the same ordering.
func (q *Query) FindOptions() domain.FindOptions {
	opts := domain.FindOptions{
		Skip:  q.Options.Skip,
		Limit: q.Options.Limit,
	}
	if len(q.Options.Sort) == 0 {
		return opts
	}
	fields := make([]string, 0, len(q.Options.Sort))
	for field := range q.Options.Sort {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	for _, field := range fields {
		opts.Sort = append(opts.Sort, domain.SortKey{Field: field, Desc: q.Options.Sort[field] < 0})
	}
	return opts
}
