package mongostore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// handle runs driver operations against one collection.
type handle struct {
	col *mongo.Collection
}

func (h *handle) Find(ctx context.Context, filter domain.Document, opts domain.FindOptions) ([]domain.Document, error) {
	findOpts := options.Find()
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if len(opts.Sort) > 0 {
		sortDoc := make(bson.D, 0, len(opts.Sort))
		for _, key := range opts.Sort {
			dir := 1
			if key.Desc {
				dir = -1
			}
			sortDoc = append(sortDoc, bson.E{Key: key.Field, Value: dir})
		}
		findOpts.SetSort(sortDoc)
	}

	cur, err := h.col.Find(ctx, toFilter(filter), findOpts)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("read find results: %w", err)
	}
	return fromDocs(raw), nil
}

func (h *handle) Insert(ctx context.Context, docs []domain.Document) ([]interface{}, error) {
	payload := make([]interface{}, len(docs))
	for i, doc := range docs {
		payload[i] = toDoc(doc)
	}
	res, err := h.col.InsertMany(ctx, payload)
	if err != nil {
		return nil, translateError("insert", err)
	}
	ids := make([]interface{}, len(res.InsertedIDs))
	for i, id := range res.InsertedIDs {
		ids[i] = fromValue(id)
	}
	return ids, nil
}

func (h *handle) Update(ctx context.Context, filter domain.Document, set domain.Document) (int64, error) {
	res, err := h.col.UpdateMany(ctx, toFilter(filter), bson.M{"$set": toDoc(set)})
	if err != nil {
		return 0, translateError("update", err)
	}
	return res.MatchedCount, nil
}

// Remove reports a bare removal count, the other result shape the
// adapter normalizes.
func (h *handle) Remove(ctx context.Context, filter domain.Document) (interface{}, error) {
	res, err := h.col.DeleteMany(ctx, toFilter(filter))
	if err != nil {
		return nil, fmt.Errorf("remove: %w", err)
	}
	return res.DeletedCount, nil
}

func (h *handle) Aggregate(ctx context.Context, pipeline []domain.Document) ([]domain.Document, error) {
	stages := make([]bson.M, len(pipeline))
	for i, stage := range pipeline {
		stages[i] = toDoc(stage)
	}
	cur, err := h.col.Aggregate(ctx, stages)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("read aggregate results: %w", err)
	}
	return fromDocs(raw), nil
}

func (h *handle) EnsureIndexes(ctx context.Context, indexes []domain.IndexDescriptor) error {
	if len(indexes) == 0 {
		return nil
	}
	models := make([]mongo.IndexModel, 0, len(indexes))
	for _, desc := range indexes {
		model := mongo.IndexModel{Keys: toIndexKeys(desc.Keys)}
		idxOpts := options.Index()
		if desc.Unique {
			idxOpts.SetUnique(true)
		}
		if desc.Sparse {
			idxOpts.SetSparse(true)
		}
		model.Options = idxOpts
		models = append(models, model)
	}
	if _, err := h.col.Indexes().CreateMany(ctx, models); err != nil {
		return translateError("create indexes", err)
	}
	return nil
}

func (h *handle) Drop(ctx context.Context) error {
	if err := h.col.Drop(ctx); err != nil {
		return fmt.Errorf("drop collection: %w", err)
	}
	return nil
}

// translateError maps driver errors onto the shared sentinels so callers
// never have to import the driver to classify a failure.
func translateError(op string, err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w: %v", op, domain.ErrDuplicateKey, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
