package sqlstats

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`
		CREATE TABLE cars (name TEXT, origin TEXT, horsepower REAL, cylinders INTEGER);
		INSERT INTO cars VALUES
			('a', 'USA', 130, 8),
			('b', 'Japan', 95, 4),
			('c', 'USA', NULL, 8),
			('d', 'Europe', 46, 4),
			('e', NULL, 220, 6);
	`)
	require.NoError(t, err)
	return db
}

func TestStore_Load(t *testing.T) {
	s := NewStore(testDB(t))
	summary, err := s.Load(context.Background(), "cars", "horsepower", "origin")
	require.NoError(t, err)

	hp, ok := summary.FieldStats("horsepower")
	require.True(t, ok)
	assert.Equal(t, 5, hp.Count)
	assert.Equal(t, 1, hp.Missing)
	assert.Equal(t, 4, hp.Distinct)
	assert.True(t, hp.Numeric)
	assert.Equal(t, 46.0, hp.Min)
	assert.Equal(t, 220.0, hp.Max)
	assert.Len(t, hp.Sample, 4)

	origin, ok := summary.FieldStats("origin")
	require.True(t, ok)
	assert.False(t, origin.Numeric)
	assert.Equal(t, 3, origin.Distinct)
	assert.Equal(t, 1, origin.Missing)
	assert.Equal(t, []any{"Europe", "Japan", "USA"}, origin.Sample)

	_, ok = summary.FieldStats("name")
	assert.False(t, ok)
}

func TestStore_LoadAllColumns(t *testing.T) {
	s := NewStore(testDB(t))
	summary, err := s.Load(context.Background(), "cars")
	require.NoError(t, err)
	assert.Len(t, summary, 4)

	cyl := summary["cylinders"]
	assert.True(t, cyl.Numeric)
	assert.Equal(t, 3, cyl.Distinct)
	assert.Equal(t, 4.0, cyl.Min)
	assert.Equal(t, 8.0, cyl.Max)
}

func TestStore_LoadUnknownTable(t *testing.T) {
	_, err := NewStore(testDB(t)).Load(context.Background(), "planes", "x")
	assert.Error(t, err)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"a""b"`, quote(`a"b`))
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.db")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE t (k TEXT, v REAL); INSERT INTO t VALUES ('a', 1), ('b', 4), ('b', NULL);`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	summary, err := Open(context.Background(), "sqlite", path, "t")
	require.NoError(t, err)
	assert.Len(t, summary, 2)

	v, ok := summary.FieldStats("v")
	require.True(t, ok)
	assert.Equal(t, 1, v.Missing)
	assert.Equal(t, 4.0, v.Max)

	_, err = Open(context.Background(), "sqlite", path, "missing")
	assert.Error(t, err)
}
