package memstore

import (
	"context"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// Connect makes the engine usable as a domain.Connector. Connections are
// free here, but callers go through the same open-use-close cycle they
// would with a real server.
func (e *Engine) Connect(ctx context.Context) (domain.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &conn{engine: e}, nil
}

type conn struct {
	engine *Engine
}

func (c *conn) Collection(name string) domain.CollectionHandle {
	return &handle{engine: c.engine, name: name}
}

func (c *conn) Close(ctx context.Context) error {
	return nil
}

// handle adapts one collection of the engine to the driver contract.
type handle struct {
	engine *Engine
	name   string
}

func (h *handle) Find(ctx context.Context, filter domain.Document, opts domain.FindOptions) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.engine.find(h.name, filter, opts)
}

func (h *handle) Insert(ctx context.Context, docs []domain.Document) ([]interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.engine.insert(h.name, docs)
}

func (h *handle) Update(ctx context.Context, filter domain.Document, set domain.Document) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return h.engine.update(h.name, filter, set)
}

// Remove reports the removed ids as a list, one of the result shapes the
// adapter normalizes.
func (h *handle) Remove(ctx context.Context, filter domain.Document) (interface{}, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.engine.remove(h.name, filter)
}

func (h *handle) Aggregate(ctx context.Context, pipeline []domain.Document) ([]domain.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h.engine.aggregate(h.name, pipeline)
}

func (h *handle) EnsureIndexes(ctx context.Context, indexes []domain.IndexDescriptor) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.engine.ensureIndexes(h.name, indexes)
}

func (h *handle) Drop(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.engine.drop(h.name)
	return nil
}
