package adapter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/memstore"
)

func TestManagerRegisterAndGet(t *testing.T) {
	m := NewManager(memstore.NewEngine())

	c, err := m.Register(context.Background(), Definition{
		Identity: "Users",
		Schema:   map[string]interface{}{"name": "string"},
	})
	require.NoError(t, err)
	assert.Equal(t, "users", c.Identity())

	got, err := m.Get("USERS")
	require.NoError(t, err)
	assert.Same(t, c, got)

	_, err = m.Get("nope")
	assert.ErrorIs(t, err, ErrNotRegistered)
}

func TestManagerRegisterRejectsBadDefinitions(t *testing.T) {
	m := NewManager(memstore.NewEngine())

	_, err := m.Register(context.Background(), Definition{Identity: ""})
	assert.ErrorIs(t, err, ErrIdentityRequired)
	assert.Empty(t, m.Identities())
}

func TestManagerIdentitiesSorted(t *testing.T) {
	m := NewManager(memstore.NewEngine())

	for _, identity := range []string{"pets", "accounts", "users"} {
		_, err := m.Register(context.Background(), Definition{Identity: identity})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"accounts", "pets", "users"}, m.Identities())
}

func TestManagerReRegisterReplaces(t *testing.T) {
	m := NewManager(memstore.NewEngine())

	first, err := m.Register(context.Background(), Definition{Identity: "users"})
	require.NoError(t, err)

	second, err := m.Register(context.Background(), Definition{
		Identity: "users",
		Schema:   map[string]interface{}{"name": "string"},
	})
	require.NoError(t, err)
	require.NotSame(t, first, second)

	got, err := m.Get("users")
	require.NoError(t, err)
	assert.Same(t, second, got)
	assert.Equal(t, []string{"users"}, m.Identities())
}

func TestManagerTeardown(t *testing.T) {
	engine := memstore.NewEngine()
	m := NewManager(engine)

	c, err := m.Register(context.Background(), Definition{Identity: "users"})
	require.NoError(t, err)
	_, err = c.Insert(context.Background(), domain.Document{"name": "a"})
	require.NoError(t, err)

	require.NoError(t, m.Teardown("users"))
	_, err = m.Get("users")
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.ErrorIs(t, m.Teardown("users"), ErrNotRegistered)

	// Teardown only forgets the registration; the stored documents
	// survive until the collection is dropped.
	c2, err := m.Register(context.Background(), Definition{Identity: "users"})
	require.NoError(t, err)
	records, err := c2.Find(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
