package mongostore

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// toFilter converts a filter document to BSON, upgrading hex strings
// under "_id" to ObjectIDs so callers can filter on the identifiers they
// were handed back. A nil filter becomes the match-everything document.
func toFilter(filter domain.Document) bson.M {
	out := bson.M{}
	for k, v := range filter {
		if k == "_id" {
			out[k] = objectifyID(v)
			continue
		}
		out[k] = toValue(v)
	}
	return out
}

// toDoc converts a document for storage. Unlike filters, only a direct
// "_id" value is upgraded.
func toDoc(doc domain.Document) bson.M {
	out := bson.M{}
	for k, v := range doc {
		if k == "_id" {
			if oid, ok := hexToObjectID(v); ok {
				out[k] = oid
				continue
			}
		}
		out[k] = toValue(v)
	}
	return out
}

// objectifyID upgrades identifier values wherever they can appear in a
// filter term: bare, inside an operator document like {$in: [...]}, or
// in a list.
func objectifyID(v interface{}) interface{} {
	if oid, ok := hexToObjectID(v); ok {
		return oid
	}
	switch t := v.(type) {
	case domain.Document:
		out := bson.M{}
		for op, arg := range t {
			out[op] = objectifyID(arg)
		}
		return out
	case map[string]interface{}:
		out := bson.M{}
		for op, arg := range t {
			out[op] = objectifyID(arg)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = objectifyID(item)
		}
		return out
	case []string:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = objectifyID(item)
		}
		return out
	default:
		return toValue(v)
	}
}

func hexToObjectID(v interface{}) (primitive.ObjectID, bool) {
	s, ok := v.(string)
	if !ok {
		return primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return oid, true
}

func toValue(v interface{}) interface{} {
	switch t := v.(type) {
	case domain.Document:
		return toDocValue(t)
	case map[string]interface{}:
		return toDocValue(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = toValue(item)
		}
		return out
	default:
		return v
	}
}

func toDocValue(m map[string]interface{}) bson.M {
	out := bson.M{}
	for k, v := range m {
		out[k] = toValue(v)
	}
	return out
}

// toIndexKeys renders an index key map as an ordered BSON document. Key
// order is alphabetical so the same descriptor always produces the same
// index name on the server.
func toIndexKeys(keys map[string]int) bson.D {
	fields := make([]string, 0, len(keys))
	for field := range keys {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	doc := make(bson.D, 0, len(fields))
	for _, field := range fields {
		doc = append(doc, bson.E{Key: field, Value: keys[field]})
	}
	return doc
}

// fromValue converts a decoded BSON value into the plain Go shapes the
// rest of the adapter works with: ObjectIDs become hex strings, BSON
// date times become time.Time, and containers convert recursively.
func fromValue(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.ObjectID:
		return t.Hex()
	case primitive.DateTime:
		return t.Time()
	case bson.M:
		return fromDoc(t)
	case bson.D:
		out := make(domain.Document, len(t))
		for _, e := range t {
			out[e.Key] = fromValue(e.Value)
		}
		return out
	case primitive.A:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = fromValue(item)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = fromValue(item)
		}
		return out
	default:
		return v
	}
}

func fromDoc(m bson.M) domain.Document {
	out := make(domain.Document, len(m))
	for k, v := range m {
		out[k] = fromValue(v)
	}
	return out
}

func fromDocs(raw []bson.M) []domain.Document {
	out := make([]domain.Document, 0, len(raw))
	for _, m := range raw {
		out = append(out, fromDoc(m))
	}
	return out
}
