package document

import (
	"fmt"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/schema"
)

// Shape prepares caller supplied values for storage: every declared field
// is coerced through the schema and the public "id" key is moved to the
// native "_id". The input map is never mutated.
func Shape(values domain.Document, s *schema.Schema) (domain.Document, error) {
	out := make(domain.Document, len(values))
	for k, v := range values {
		switch k {
		case "id", "_id":
			out["_id"] = v
		default:
			coerced, err := s.CoerceValue(k, v)
			if err != nil {
				return nil, err
			}
			out[k] = coerced
		}
	}
	return out, nil
}

// ShapeAll shapes a batch of value maps, failing on the first bad one.
func ShapeAll(values []domain.Document, s *schema.Schema) ([]domain.Document, error) {
	out := make([]domain.Document, len(values))
	for i, v := range values {
		shaped, err := Shape(v, s)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		out[i] = shaped
	}
	return out, nil
}

// StripIdentifiers returns a copy of values without any identifier keys.
// Update payloads go through this so a stray id never overwrites the
// identifier of matched documents.
func StripIdentifiers(values domain.Document) domain.Document {
	out := make(domain.Document, len(values))
	for k, v := range values {
		if k == "id" || k == "_id" {
			continue
		}
		out[k] = v
	}
	return out
}
