package schema

import (
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// Indexes derives the secondary indexes a collection needs from its
// field declarations. Unique fields get a unique sparse index so that
// documents missing the field do not collide on null. Fields flagged
// index get a plain one; unique wins when both are set. The identifier
// field is handled natively by every backend and is skipped, as are
// associations and autoIncrement counters.
func (s *Schema) Indexes() []domain.IndexDescriptor {
	if s == nil {
		return nil
	}
	var out []domain.IndexDescriptor
	for _, name := range s.FieldNames() {
		if name == "id" || name == "_id" {
			continue
		}
		spec := s.fields[name]
		if spec.Collection != "" || spec.AutoIncrement {
			continue
		}
		switch {
		case spec.Unique:
			out = append(out, domain.IndexDescriptor{
				Keys:   map[string]int{name: 1},
				Unique: true,
				Sparse: true,
			})
		case spec.Index:
			out = append(out, domain.IndexDescriptor{
				Keys: map[string]int{name: 1},
			})
		}
	}
	return out
}
