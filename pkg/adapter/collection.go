// Package adapter maps ORM style criteria and document conventions onto
// a document store. A Collection is constructed once per model
// registration and translates every operation into native driver calls:
// open a connection, translate the criteria, shape the documents, run
// the operation, rewrite identifiers in the result, close the
// connection.
package adapter

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/connection"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/document"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/mongostore"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/query"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/schema"
)

// Definition is the declarative description of one collection: its
// identity, how to reach the store, and the schema its documents are
// shaped against.
type Definition struct {
	Identity string                 `yaml:"identity" json:"identity"`
	Config   connection.Config      `yaml:"config,omitempty" json:"config,omitempty"`
	Schema   map[string]interface{} `yaml:"schema,omitempty" json:"schema,omitempty"`
}

// Collection exposes find, insert, update and destroy over one named
// collection. Instances are immutable after construction and safe for
// concurrent use; every operation runs on its own connection.
type Collection struct {
	identity  string
	connector domain.Connector
	schema    *schema.Schema
	indexes   []domain.IndexDescriptor
}

// NewCollection validates a definition and builds the collection façade
// around it. The identity is lower-cased and used verbatim as the store
// collection name. When connector is nil, one is built from the
// definition's connection config.
func NewCollection(def Definition, connector domain.Connector) (*Collection, error) {
	identity := strings.ToLower(strings.TrimSpace(def.Identity))
	if identity == "" {
		return nil, ErrIdentityRequired
	}

	s, err := schema.Parse(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("collection %q: %w", identity, err)
	}

	if connector == nil {
		connector = mongostore.NewConnector(def.Config)
	}

	return &Collection{
		identity:  identity,
		connector: connector,
		schema:    s,
		indexes:   s.Indexes(),
	}, nil
}

// Identity returns the store collection name this façade operates on.
func (c *Collection) Identity() string {
	return c.identity
}

// Indexes returns the secondary indexes derived from the schema.
func (c *Collection) Indexes() []domain.IndexDescriptor {
	out := make([]domain.IndexDescriptor, len(c.indexes))
	copy(out, c.indexes)
	return out
}

// withConnection opens a connection, hands fn a handle scoped to this
// collection, and closes the connection on every exit path.
func (c *Collection) withConnection(ctx context.Context, fn func(h domain.CollectionHandle) error) error {
	conn, err := c.connector.Connect(ctx)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer func() {
		if cerr := conn.Close(ctx); cerr != nil {
			log.Printf("WARN: closing connection for %s: %v", c.identity, cerr)
		}
	}()
	return fn(conn.Collection(c.identity))
}

// Register ensures the collection's secondary indexes exist in the
// store. It is called once when the collection is registered with a
// manager and is safe to repeat.
func (c *Collection) Register(ctx context.Context) error {
	return c.withConnection(ctx, func(h domain.CollectionHandle) error {
		return h.EnsureIndexes(ctx, c.indexes)
	})
}

// Find runs a criteria query and returns the matching records with
// their identifiers rewritten to the public "id" key. Grouping criteria
// run as an aggregation pipeline instead and return one flat record per
// group.
func (c *Collection) Find(ctx context.Context, criteria map[string]interface{}) ([]domain.Document, error) {
	q, err := query.Parse(criteria)
	if err != nil {
		return nil, err
	}

	var records []domain.Document
	err = c.withConnection(ctx, func(h domain.CollectionHandle) error {
		if q.Aggregate() {
			rows, err := h.Aggregate(ctx, q.Pipeline())
			if err != nil {
				return err
			}
			records = query.FlattenGroups(rows)
			return nil
		}

		docs, err := h.Find(ctx, q.Where, q.FindOptions())
		if err != nil {
			return err
		}
		records = document.RewriteIDs(docs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Insert shapes each value map through the schema, persists them as one
// batch, and returns the stored records carrying their generated
// identifiers. The result always has one record per input, in order.
func (c *Collection) Insert(ctx context.Context, values ...domain.Document) ([]domain.Document, error) {
	shaped, err := document.ShapeAll(values, c.schema)
	if err != nil {
		return nil, err
	}
	if len(shaped) == 0 {
		return []domain.Document{}, nil
	}

	var records []domain.Document
	err = c.withConnection(ctx, func(h domain.CollectionHandle) error {
		ids, err := h.Insert(ctx, shaped)
		if err != nil {
			return err
		}
		records = make([]domain.Document, 0, len(shaped))
		for i, doc := range shaped {
			rec := doc.Copy()
			if i < len(ids) {
				rec["_id"] = ids[i]
			}
			records = append(records, document.RewriteID(rec))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Update applies values to every record matching the criteria and
// returns the post-update state of exactly those records. The matching
// identifiers are captured before the write so the response reflects
// the updated set even when documents stop matching the filter
// afterwards. Matching zero records reports ErrNoRecordsUpdated and no
// write is attempted.
func (c *Collection) Update(ctx context.Context, criteria map[string]interface{}, values domain.Document) ([]domain.Document, error) {
	q, err := query.Parse(criteria)
	if err != nil {
		return nil, err
	}
	shaped, err := document.Shape(values, c.schema)
	if err != nil {
		return nil, err
	}
	// The store rejects identifier mutation, so a caller supplied id
	// never reaches the write.
	set := document.StripIdentifiers(shaped)

	var records []domain.Document
	err = c.withConnection(ctx, func(h domain.CollectionHandle) error {
		matched, err := h.Find(ctx, q.Where, domain.FindOptions{})
		if err != nil {
			return err
		}
		ids := make([]interface{}, 0, len(matched))
		for _, doc := range matched {
			if id, ok := doc["_id"]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return ErrNoRecordsUpdated
		}

		if len(set) > 0 {
			if _, err := h.Update(ctx, q.Where, set); err != nil {
				return err
			}
		}

		refetched, err := h.Find(ctx, domain.Document{"_id": domain.Document{"$in": ids}}, domain.FindOptions{})
		if err != nil {
			return err
		}
		records = document.RewriteIDs(refetched)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Destroy removes every record matching the criteria and returns one
// {id} record per removed document, whatever shape the store reports
// the removal in. The identifiers are captured before the write.
func (c *Collection) Destroy(ctx context.Context, criteria map[string]interface{}) ([]domain.Document, error) {
	q, err := query.Parse(criteria)
	if err != nil {
		return nil, err
	}

	var records []domain.Document
	err = c.withConnection(ctx, func(h domain.CollectionHandle) error {
		matched, err := h.Find(ctx, q.Where, domain.FindOptions{})
		if err != nil {
			return err
		}
		ids := make([]interface{}, 0, len(matched))
		for _, doc := range matched {
			if id, ok := doc["_id"]; ok {
				ids = append(ids, id)
			}
		}

		if _, err := h.Remove(ctx, q.Where); err != nil {
			return err
		}
		records = document.IDRecords(ids)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// Drop removes the collection and everything in it from the store.
func (c *Collection) Drop(ctx context.Context) error {
	return c.withConnection(ctx, func(h domain.CollectionHandle) error {
		return h.Drop(ctx)
	})
}
