package domain

// Document represents a single record as stored by a backend. Keys are
// field names, values are whatever the backend handed back. The native
// identifier, when present, lives under "_id".
type Document map[string]interface{}

// Copy returns a shallow copy of the document.
func (d Document) Copy() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
