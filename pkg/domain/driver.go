package domain

import "context"

// SortKey orders results by a single field.
type SortKey struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc,omitempty"`
}

// FindOptions carries the non-filter parts of a query down to a backend.
// A zero Limit or Skip means "not set".
type FindOptions struct {
	Sort  []SortKey
	Skip  int64
	Limit int64
}

// IndexDescriptor describes a single secondary index. Keys maps field
// names to a sort direction (1 ascending, -1 descending).
type IndexDescriptor struct {
	Keys   map[string]int `json:"keys"`
	Unique bool           `json:"unique,omitempty"`
	Sparse bool           `json:"sparse,omitempty"`
}

// Connector opens connections to a document store. Implementations are
// expected to be cheap to copy around and safe for concurrent use; every
// operation gets its own Conn which must be closed when the operation
// finishes.
type Connector interface {
	Connect(ctx context.Context) (Conn, error)
}

// Conn is a single live connection to a document store.
type Conn interface {
	// Collection returns a handle scoped to the named collection. The
	// handle is only valid until the connection is closed.
	Collection(name string) CollectionHandle

	// Close releases the connection. It is safe to call after a failed
	// operation.
	Close(ctx context.Context) error
}

// CollectionHandle exposes the native operations of one collection.
type CollectionHandle interface {
	// Find returns the documents matching filter. A nil filter matches
	// everything.
	Find(ctx context.Context, filter Document, opts FindOptions) ([]Document, error)

	// Insert stores docs as one batch and returns the native identifier
	// of each inserted document, in order.
	Insert(ctx context.Context, docs []Document) ([]interface{}, error)

	// Update applies set to every document matching filter and returns
	// the number of matched documents.
	Update(ctx context.Context, filter Document, set Document) (int64, error)

	// Remove deletes every document matching filter. The result shape is
	// backend specific: a removal count, a single identifier, or a list
	// of identifiers or documents.
	Remove(ctx context.Context, filter Document) (interface{}, error)

	// Aggregate runs a pipeline of stages against the collection.
	Aggregate(ctx context.Context, pipeline []Document) ([]Document, error)

	// EnsureIndexes creates any of the given indexes that do not exist yet.
	EnsureIndexes(ctx context.Context, indexes []IndexDescriptor) error

	// Drop removes the collection and its indexes. Dropping a collection
	// that does not exist is not an error.
	Drop(ctx context.Context) error
}
