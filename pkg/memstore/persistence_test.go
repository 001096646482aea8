package memstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
)

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot"+FileExtension)

	e := NewEngine()
	h := testHandle(t, e, "users")
	require.NoError(t, h.EnsureIndexes(context.Background(), []domain.IndexDescriptor{uniqueIndex("email")}))
	_, err := h.Insert(context.Background(), []domain.Document{
		{"_id": "a", "name": "Alice", "email": "a@x.io", "age": int64(30)},
		{"_id": "b", "name": "Bob", "email": "b@x.io", "age": int64(25)},
	})
	require.NoError(t, err)
	require.NoError(t, e.SaveToFile(path))

	restored := NewEngine()
	require.NoError(t, restored.LoadFromFile(path))
	rh := testHandle(t, restored, "users")

	docs, err := rh.Find(context.Background(), nil, domain.FindOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	// Insertion order survives the round trip.
	assert.Equal(t, "a", docs[0]["_id"])
	assert.Equal(t, "b", docs[1]["_id"])

	// Indexes are rebuilt, so uniqueness still holds.
	assert.Equal(t, []string{"email"}, restored.indexFields("users"))
	_, err = rh.Insert(context.Background(), []domain.Document{{"email": "a@x.io"}})
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)

	// And new inserts keep extending the order.
	_, err = rh.Insert(context.Background(), []domain.Document{{"_id": "c", "email": "c@x.io"}})
	require.NoError(t, err)
	docs, err = rh.Find(context.Background(), nil, domain.FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, "c", docs[2]["_id"])
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	e := NewEngine()
	assert.NoError(t, e.LoadFromFile(filepath.Join(t.TempDir(), "nope"+FileExtension)))
	assert.Empty(t, e.Collections())
}

func TestLoadRejectsForeignFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage"+FileExtension)
	require.NoError(t, os.WriteFile(path, []byte("GODB not ours at all"), 0644))

	e := NewEngine()
	err := e.LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid snapshot")
}

func TestSaveIsAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot"+FileExtension)

	e := NewEngine()
	h := testHandle(t, e, "users")
	_, err := h.Insert(context.Background(), []domain.Document{{"name": "Alice"}})
	require.NoError(t, err)
	require.NoError(t, e.SaveToFile(path))

	// No temp file left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "snapshot"+FileExtension, entries[0].Name())
}

func TestBackgroundWorkerSavesDirtyData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auto"+FileExtension)

	e := NewEngine(WithDataFile(path), WithAutoSave(10*time.Millisecond))
	h := testHandle(t, e, "users")
	_, err := h.Insert(context.Background(), []domain.Document{{"name": "Alice"}})
	require.NoError(t, err)

	e.StartBackgroundWorkers()
	defer e.StopBackgroundWorkers()

	require.Eventually(t, func() bool {
		_, err := os.Stat(path)
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	restored := NewEngine()
	require.NoError(t, restored.LoadFromFile(path))
	assert.Equal(t, []string{"users"}, restored.Collections())
}

func TestStopBackgroundWorkersTwice(t *testing.T) {
	e := NewEngine(WithDataFile(filepath.Join(t.TempDir(), "x"+FileExtension)), WithAutoSave(time.Hour))
	e.StartBackgroundWorkers()
	e.StopBackgroundWorkers()
	e.StopBackgroundWorkers()
}
