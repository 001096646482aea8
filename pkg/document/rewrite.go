package document

import (
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// RewriteID returns a copy of doc with the native "_id" renamed to the
// public "id". Documents without a native identifier come back unchanged.
func RewriteID(doc domain.Document) domain.Document {
	out := doc.Copy()
	if v, ok := out["_id"]; ok {
		out["id"] = v
		delete(out, "_id")
	}
	return out
}

// RewriteIDs rewrites a whole result set. The result is never nil, so an
// empty find still serializes as an empty list.
func RewriteIDs(docs []domain.Document) []domain.Document {
	out := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, RewriteID(doc))
	}
	return out
}

// IDRecords normalizes whatever identifier shape a backend reports for a
// removal into a uniform list of {id: ...} records. Accepted shapes are a
// single identifier, a list of identifiers, or a list of documents that
// carry their identifier.
func IDRecords(result interface{}) []domain.Document {
	switch v := result.(type) {
	case nil:
		return []domain.Document{}
	case []interface{}:
		out := make([]domain.Document, 0, len(v))
		for _, item := range v {
			out = append(out, domain.Document{"id": idOf(item)})
		}
		return out
	case []string:
		out := make([]domain.Document, 0, len(v))
		for _, id := range v {
			out = append(out, domain.Document{"id": id})
		}
		return out
	case []domain.Document:
		out := make([]domain.Document, 0, len(v))
		for _, doc := range v {
			out = append(out, domain.Document{"id": idOf(doc)})
		}
		return out
	default:
		return []domain.Document{{"id": idOf(v)}}
	}
}

func idOf(v interface{}) interface{} {
	switch doc := v.(type) {
	case domain.Document:
		if id, ok := doc["_id"]; ok {
			return id
		}
		return doc["id"]
	case map[string]interface{}:
		if id, ok := doc["_id"]; ok {
			return id
		}
		return doc["id"]
	default:
		return v
	}
}
