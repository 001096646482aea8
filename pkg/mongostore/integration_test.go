package mongostore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/connection"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

// integrationConnector dials the deployment named by MONGO_TEST_URL, or
// skips the test when none is configured.
func integrationConnector(t *testing.T) *Connector {
	t.Helper()
	raw := os.Getenv("MONGO_TEST_URL")
	if raw == "" {
		t.Skip("set MONGO_TEST_URL to run mongodb integration tests")
	}
	cfg, err := connection.ParseURL(raw)
	require.NoError(t, err)
	return NewConnector(cfg)
}

func TestRoundTripAgainstServer(t *testing.T) {
	connector := integrationConnector(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := connector.Connect(ctx)
	require.NoError(t, err)
	defer conn.Close(ctx)

	h := conn.Collection("mongostore_integration_test")
	defer func() { _ = h.Drop(ctx) }()
	require.NoError(t, h.Drop(ctx))

	ids, err := h.Insert(ctx, []domain.Document{
		{"name": "Alice", "age": int64(30)},
		{"name": "Bob", "age": int64(25)},
	})
	require.NoError(t, err)
	require.Len(t, ids, 2)
	// Generated identifiers come back as hex strings.
	_, isString := ids[0].(string)
	assert.True(t, isString)

	docs, err := h.Find(ctx, domain.Document{"_id": ids[0]}, domain.FindOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, ids[0], docs[0]["_id"])
	assert.Equal(t, "Alice", docs[0]["name"])

	matched, err := h.Update(ctx, domain.Document{"name": "Bob"}, domain.Document{"age": int64(26)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), matched)

	rows, err := h.Aggregate(ctx, []domain.Document{
		{"$match": domain.Document{}},
		{"$group": domain.Document{"_id": nil, "age": domain.Document{"$sum": "$age"}}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	result, err := h.Remove(ctx, domain.Document{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result)
}

func TestUniqueIndexAgainstServer(t *testing.T) {
	connector := integrationConnector(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := connector.Connect(ctx)
	require.NoError(t, err)
	defer conn.Close(ctx)

	h := conn.Collection("mongostore_integration_unique_test")
	defer func() { _ = h.Drop(ctx) }()
	require.NoError(t, h.Drop(ctx))

	err = h.EnsureIndexes(ctx, []domain.IndexDescriptor{
		{Keys: map[string]int{"email": 1}, Unique: true, Sparse: true},
	})
	require.NoError(t, err)

	_, err = h.Insert(ctx, []domain.Document{{"email": "a@x.io"}})
	require.NoError(t, err)

	_, err = h.Insert(ctx, []domain.Document{{"email": "a@x.io"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}
