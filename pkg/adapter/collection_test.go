package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChechaValerii/adoric-sails-mongo/pkg/domain"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/memstore"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/query"
	"github.com/ChechaValerii/adoric-sails-mongo/pkg/schema"
)

func testCollection(t *testing.T, schemaDef map[string]interface{}) *Collection {
	t.Helper()
	c, err := NewCollection(Definition{Identity: "users", Schema: schemaDef}, memstore.NewEngine())
	require.NoError(t, err)
	require.NoError(t, c.Register(context.Background()))
	return c
}

func TestNewCollectionValidation(t *testing.T) {
	engine := memstore.NewEngine()

	tests := []struct {
		name    string
		def     Definition
		wantErr error
	}{
		{
			name:    "missing identity",
			def:     Definition{Identity: "   "},
			wantErr: ErrIdentityRequired,
		},
		{
			name: "bad schema",
			def: Definition{
				Identity: "users",
				Schema:   map[string]interface{}{"name": "nonsense"},
			},
			wantErr: schema.ErrInvalidSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCollection(tt.def, engine)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	c, err := NewCollection(Definition{Identity: "  UserTable "}, engine)
	require.NoError(t, err)
	assert.Equal(t, "usertable", c.Identity())
}

func TestInsertSingle(t *testing.T) {
	c := testCollection(t, map[string]interface{}{"name": "string"})

	records, err := c.Insert(context.Background(), domain.Document{"name": "a"})
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "a", rec["name"])
	assert.NotEmpty(t, rec["id"])
	assert.NotContains(t, rec, "_id")
}

func TestInsertBatchKeepsOrder(t *testing.T) {
	c := testCollection(t, map[string]interface{}{"name": "string"})

	records, err := c.Insert(context.Background(),
		domain.Document{"name": "a"},
		domain.Document{"name": "b"},
		domain.Document{"name": "c"},
	)
	require.NoError(t, err)
	require.Len(t, records, 3)

	seen := map[interface{}]bool{}
	for i, want := range []string{"a", "b", "c"} {
		assert.Equal(t, want, records[i]["name"])
		assert.False(t, seen[records[i]["id"]], "identifiers must be distinct")
		seen[records[i]["id"]] = true
	}
}

func TestInsertNothing(t *testing.T) {
	c := testCollection(t, nil)

	records, err := c.Insert(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestInsertCoercesDeclaredFields(t *testing.T) {
	c := testCollection(t, map[string]interface{}{
		"name": "string",
		"age":  "integer",
	})

	records, err := c.Insert(context.Background(), domain.Document{"name": "a", "age": float64(30)})
	require.NoError(t, err)
	assert.Equal(t, int64(30), records[0]["age"])

	_, err = c.Insert(context.Background(), domain.Document{"age": "not a number"})
	assert.ErrorIs(t, err, schema.ErrInvalidValue)

	all, err := c.Find(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, all, 1, "a failed insert must not persist anything")
}

func TestFindWhereAndShorthand(t *testing.T) {
	c := testCollection(t, map[string]interface{}{"name": "string"})
	seed(t, c,
		domain.Document{"name": "a"},
		domain.Document{"name": "b"},
	)

	explicit, err := c.Find(context.Background(), map[string]interface{}{
		"where": map[string]interface{}{"name": "b"},
	})
	require.NoError(t, err)
	require.Len(t, explicit, 1)
	assert.Equal(t, "b", explicit[0]["name"])

	// A map without criteria modifiers is shorthand for {where: ...}.
	shorthand, err := c.Find(context.Background(), map[string]interface{}{"name": "b"})
	require.NoError(t, err)
	assert.Equal(t, explicit, shorthand)
}

func TestFindByPublicID(t *testing.T) {
	c := testCollection(t, map[string]interface{}{"name": "string"})
	records := seed(t, c,
		domain.Document{"name": "a"},
		domain.Document{"name": "b"},
	)

	found, err := c.Find(context.Background(), map[string]interface{}{
		"where": map[string]interface{}{"id": records[1]["id"]},
	})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, records[1]["id"], found[0]["id"])
	assert.Equal(t, "b", found[0]["name"])
}

func TestFindSortSkipLimit(t *testing.T) {
	c := testCollection(t, map[string]interface{}{"name": "string", "age": "integer"})
	seed(t, c,
		domain.Document{"name": "a", "age": 30},
		domain.Document{"name": "b", "age": 25},
		domain.Document{"name": "c", "age": 35},
	)

	found, err := c.Find(context.Background(), map[string]interface{}{
		"sort":  map[string]interface{}{"age": -1},
		"skip":  1,
		"limit": 2,
	})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "a", found[0]["name"])
	assert.Equal(t, "b", found[1]["name"])
}

func TestFindRejectsMalformedCriteria(t *testing.T) {
	c := testCollection(t, nil)

	_, err := c.Find(context.Background(), map[string]interface{}{
		"where": map[string]interface{}{"name": "a"},
		"ordre": "name",
	})
	assert.ErrorIs(t, err, query.ErrInvalidCriteria)
}

func TestFindEmptyResultIsAList(t *testing.T) {
	c := testCollection(t, nil)

	found, err := c.Find(context.Background(), map[string]interface{}{"name": "missing"})
	require.NoError(t, err)
	assert.NotNil(t, found)
	assert.Empty(t, found)
}

func TestFindGroupedAggregation(t *testing.T) {
	c := testCollection(t, map[string]interface{}{"dept": "string", "salary": "float"})
	seed(t, c,
		domain.Document{"dept": "eng", "salary": 1500.0},
		domain.Document{"dept": "ops", "salary": 900.0},
		domain.Document{"dept": "eng", "salary": 2000.0},
	)

	rows, err := c.Find(context.Background(), map[string]interface{}{
		"groupBy": "dept",
		"sum":     "salary",
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Grouped fields come back at the top level with no synthetic
	// identifier left behind.
	for _, row := range rows {
		assert.NotContains(t, row, "_id")
		assert.NotContains(t, row, "id")
	}
	assert.ElementsMatch(t, []domain.Document{
		{"dept": "eng", "salary": float64(3500)},
		{"dept": "ops", "salary": float64(900)},
	}, rows)
}

func TestFindCalculationWithoutGroupBy(t *testing.T) {
	c := testCollection(t, map[string]interface{}{"salary": "float"})
	seed(t, c,
		domain.Document{"salary": 1000.0},
		domain.Document{"salary": 3000.0},
	)

	rows, err := c.Find(context.Background(), map[string]interface{}{"average": "salary"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, float64(2000), rows[0]["salary"])
}

func TestFindGroupByWithoutCalculationFails(t *testing.T) {
	c := testCollection(t, nil)

	_, err := c.Find(context.Background(), map[string]interface{}{"groupBy": "dept"})
	assert.ErrorIs(t, err, query.ErrInvalidGroupBy)
}

func TestFindAggregationHonorsWhere(t *testing.T) {
	c := testCollection(t, map[string]interface{}{"dept": "string", "salary": "float"})
	seed(t, c,
		domain.Document{"dept": "eng", "salary": 1500.0},
		domain.Document{"dept": "ops", "salary": 900.0},
		domain.Document{"dept": "eng", "salary": 2000.0},
	)

	rows, err := c.Find(context.Background(), map[string]interface{}{
		"where":   map[string]interface{}{"dept": "eng"},
		"groupBy": "dept",
		"max":     "salary",
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "eng", rows[0]["dept"])
	assert.Equal(t, 2000.0, rows[0]["salary"])
}

func TestUpdateZeroMatchesIsAnError(t *testing.T) {
	c := testCollection(t, map[string]interface{}{"name": "string"})
	seed(t, c, domain.Document{"name": "a"})

	_, err := c.Update(context.Background(),
		map[string]interface{}{"where": map[string]interface{}{"name": "zz"}},
		domain.Document{"name": "b"},
	)
	assert.ErrorIs(t, err, ErrNoRecordsUpdated)

	// Nothing was written.
	all, err := c.Find(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "a", all[0]["name"])
}

func TestUpdateReturnsRecordsMatchedBeforeWrite(t *testing.T) {
	c := testCollection(t, map[string]interface{}{"name": "string"})
	records := seed(t, c,
		domain.Document{"name": "a"},
		domain.Document{"name": "other"},
	)

	// The update rewrites the very field the criteria matched on, so a
	// post-write re-query of the filter would come back empty. The result
	// must still carry the updated record.
	updated, err := c.Update(context.Background(),
		map[string]interface{}{"where": map[string]interface{}{"name": "a"}},
		domain.Document{"name": "b"},
	)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, records[0]["id"], updated[0]["id"])
	assert.Equal(t, "b", updated[0]["name"])
}

func TestUpdateAppliesToAllMatches(t *testing.T) {
	c := testCollection(t, map[string]interface{}{"dept": "string", "level": "integer"})
	seed(t, c,
		domain.Document{"dept": "eng", "level": 1},
		domain.Document{"dept": "eng", "level": 1},
		domain.Document{"dept": "ops", "level": 1},
	)

	updated, err := c.Update(context.Background(),
		map[string]interface{}{"where": map[string]interface{}{"dept": "eng"}},
		domain.Document{"level": 2},
	)
	require.NoError(t, err)
	require.Len(t, updated, 2)
	for _, rec := range updated {
		assert.Equal(t, "eng", rec["dept"])
		assert.Equal(t, int64(2), rec["level"])
	}

	untouched, err := c.Find(context.Background(), map[string]interface{}{"dept": "ops"})
	require.NoError(t, err)
	require.Len(t, untouched, 1)
	assert.Equal(t, int64(1), untouched[0]["level"])
}

func TestUpdateStripsCallerSuppliedIdentifiers(t *testing.T) {
	c := testCollection(t, map[string]interface{}{"name": "string"})
	records := seed(t, c, domain.Document{"name": "a"})

	updated, err := c.Update(context.Background(),
		map[string]interface{}{"where": map[string]interface{}{"name": "a"}},
		domain.Document{"id": "forged", "name": "b"},
	)
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, records[0]["id"], updated[0]["id"])
	assert.Equal(t, "b", updated[0]["name"])
}

func TestDestroyReturnsIDRecords(t *testing.T) {
	c := testCollection(t, map[string]interface{}{"dept": "string"})
	records := seed(t, c,
		domain.Document{"dept": "eng"},
		domain.Document{"dept": "eng"},
		domain.Document{"dept": "ops"},
	)

	removed, err := c.Destroy(context.Background(), map[string]interface{}{
		"where": map[string]interface{}{"dept": "eng"},
	})
	require.NoError(t, err)
	require.Len(t, removed, 2)
	assert.ElementsMatch(t,
		[]domain.Document{{"id": records[0]["id"]}, {"id": records[1]["id"]}},
		removed,
	)

	remaining, err := c.Find(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "ops", remaining[0]["dept"])
}

func TestDestroyNothingMatched(t *testing.T) {
	c := testCollection(t, nil)
	seed(t, c, domain.Document{"name": "a"})

	removed, err := c.Destroy(context.Background(), map[string]interface{}{"name": "zz"})
	require.NoError(t, err)
	assert.NotNil(t, removed)
	assert.Empty(t, removed)
}

func TestDestroyEverything(t *testing.T) {
	c := testCollection(t, nil)
	seed(t, c,
		domain.Document{"name": "a"},
		domain.Document{"name": "b"},
	)

	removed, err := c.Destroy(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, removed, 2)

	remaining, err := c.Find(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestRegisterBuildsUniqueIndexes(t *testing.T) {
	c := testCollection(t, map[string]interface{}{
		"email": map[string]interface{}{"type": "string", "unique": true},
	})

	_, err := c.Insert(context.Background(), domain.Document{"email": "a@x.io"})
	require.NoError(t, err)

	_, err = c.Insert(context.Background(), domain.Document{"email": "a@x.io"})
	assert.ErrorIs(t, err, domain.ErrDuplicateKey)
}

func TestDrop(t *testing.T) {
	c := testCollection(t, nil)
	seed(t, c, domain.Document{"name": "a"})

	require.NoError(t, c.Drop(context.Background()))

	remaining, err := c.Find(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

type failingConnector struct {
	err error
}

func (f failingConnector) Connect(ctx context.Context) (domain.Conn, error) {
	return nil, f.err
}

func TestConnectionFailureSurfaces(t *testing.T) {
	dialErr := errors.New("no route to host")
	c, err := NewCollection(Definition{Identity: "users"}, failingConnector{err: dialErr})
	require.NoError(t, err)

	_, err = c.Find(context.Background(), nil)
	assert.ErrorIs(t, err, dialErr)

	_, err = c.Insert(context.Background(), domain.Document{"name": "a"})
	assert.ErrorIs(t, err, dialErr)
}

func TestCancelledContext(t *testing.T) {
	c := testCollection(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Find(ctx, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

// seed inserts fixtures and returns the stored records with their
// generated identifiers.
func seed(t *testing.T, c *Collection, values ...domain.Document) []domain.Document {
	t.Helper()
	records, err := c.Insert(context.Background(), values...)
	require.NoError(t, err)
	require.Len(t, records, len(values))
	return records
}
