package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

func uniqueIndex(field string) domain.IndexDescriptor {
	return domain.IndexDescriptor{Keys: map[string]int{field: 1}, Unique: true, Sparse: true}
}

func plainIndex(field string) domain.IndexDescriptor {
	return domain.IndexDescriptor{Keys: map[string]int{field: 1}}
}

func TestEnsureIndexesCreatesCollection(t *testing.T) {
	e := NewEngine()
	h := testHandle(t, e, "users")

	require.NoError(t, h.EnsureIndexes(context.Background(), []domain.IndexDescriptor{plainIndex("city")}))
	assert.Equal(t, []string{"users"}, e.Collections())
	assert.Equal(t, []string{"city"}, e.indexFields("users"))

	// Idempotent.
	require.NoError(t, h.EnsureIndexes(context.Background(), []domain.IndexDescriptor{plainIndex("city")}))
	assert.Equal(t, []string{"city"}, e.indexFields("users"))
}

func TestEnsureIndexesRejectsCompound(t *testing.T) {
	e := NewEngine()
	h := testHandle(t, e, "users")

	err := h.EnsureIndexes(context.Background(), []domain.IndexDescriptor{
		{Keys: map[string]int{"a": 1, "b": 1}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "compound indexes")
}

func TestUniqueIndexRejectsDuplicates(t *testing.T) {
	e := NewEngine()
	h := testHandle(t, e, "users")
	require.NoError(t, h.EnsureIndexes(context.Background(), []domain.IndexDescriptor{uniqueIndex("email")}))

	_, err := h.Insert(context.Background(), []domain.Document{{"email": "a@x.io"}})
	require.NoError(t, err)

	t.Run("against existing documents", func(t *testing.T) {
		_, err := h.Insert(context.Background(), []domain.Document{{"email": "a@x.io"}})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	})

	t.Run("within one batch", func(t *testing.T) {
		_, err := h.Insert(context.Background(), []domain.Document{
			{"email": "b@x.io"},
			{"email": "b@x.io"},
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	})

	t.Run("via update", func(t *testing.T) {
		_, err := h.Insert(context.Background(), []domain.Document{{"_id": "z", "email": "z@x.io"}})
		require.NoError(t, err)
		_, err = h.Update(context.Background(), domain.Document{"_id": "z"}, domain.Document{"email": "a@x.io"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)

		// Nothing was applied.
		docs, err := h.Find(context.Background(), domain.Document{"_id": "z"}, domain.FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, "z@x.io", docs[0]["email"])
	})

	t.Run("update fanning one value onto many", func(t *testing.T) {
		_, err := h.Update(context.Background(), nil, domain.Document{"email": "same@x.io"})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrDuplicateKey)
	})

	t.Run("updating a value back onto its own holder", func(t *testing.T) {
		_, err := h.Update(context.Background(), domain.Document{"_id": "z"}, domain.Document{"email": "z@x.io"})
		assert.NoError(t, err)
	})
}

func TestSparseUniqueIndexAllowsMissingValues(t *testing.T) {
	e := NewEngine()
	h := testHandle(t, e, "users")
	require.NoError(t, h.EnsureIndexes(context.Background(), []domain.IndexDescriptor{uniqueIndex("email")}))

	_, err := h.Insert(context.Background(), []domain.Document{
		{"name": "Alice"},
		{"name": "Bob"},
		{"name": "Cleo", "email": nil},
	})
	assert.NoError(t, err)
}

func TestEnsureIndexOverExistingDuplicates(t *testing.T) {
	e := NewEngine()
	h := testHandle(t, e, "users")

	_, err := h.Insert(context.Background(), []domain.Document{
		{"email": "a@x.io"},
		{"email": "a@x.io"},
	})
	require.NoError(t, err)

	err = h.EnsureIndexes(context.Background(), []domain.IndexDescriptor{uniqueIndex("email")})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	// The failed build must not leave a half-built index behind.
	assert.Empty(t, e.indexFields("users"))
}

func TestIndexStaysConsistentAcrossWrites(t *testing.T) {
	e := NewEngine()
	h := testHandle(t, e, "users")
	require.NoError(t, h.EnsureIndexes(context.Background(), []domain.IndexDescriptor{plainIndex("city")}))

	_, err := h.Insert(context.Background(), []domain.Document{
		{"_id": "a", "city": "Oslo"},
		{"_id": "b", "city": "Oslo"},
		{"_id": "c", "city": "Bergen"},
	})
	require.NoError(t, err)

	// The indexed lookup and a full scan must agree after each write.
	find := func(city string) []domain.Document {
		docs, err := h.Find(context.Background(), domain.Document{"city": city}, domain.FindOptions{})
		require.NoError(t, err)
		return docs
	}
	assert.Len(t, find("Oslo"), 2)

	_, err = h.Update(context.Background(), domain.Document{"_id": "b"}, domain.Document{"city": "Bergen"})
	require.NoError(t, err)
	assert.Len(t, find("Oslo"), 1)
	assert.Len(t, find("Bergen"), 2)

	_, err = h.Remove(context.Background(), domain.Document{"city": "Bergen"})
	require.NoError(t, err)
	assert.Len(t, find("Bergen"), 0)
	assert.Len(t, find("Oslo"), 1)
}

func TestIndexSkipsUnhashableValues(t *testing.T) {
	e := NewEngine()
	h := testHandle(t, e, "users")
	require.NoError(t, h.EnsureIndexes(context.Background(), []domain.IndexDescriptor{plainIndex("tags")}))

	_, err := h.Insert(context.Background(), []domain.Document{
		{"_id": "a", "tags": []interface{}{"x"}},
		{"_id": "b", "tags": "solo"},
	})
	require.NoError(t, err)

	// Scalar probes still work; the unhashable value is only reachable
	// by scan, which an equality probe for a scalar never needs.
	docs, err := h.Find(context.Background(), domain.Document{"tags": "solo"}, domain.FindOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "b", docs[0]["_id"])
}
