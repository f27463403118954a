package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/vegalite/internal/spec"
	"github.com/matthewbaird/vegalite/internal/vega"
)

func filter(expr string) vega.Transform {
	return &vega.Filter{Expr: expr}
}

func tableNames(ts []*table) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.name
	}
	return out
}

func TestNameMap_FollowsChains(t *testing.T) {
	n := nameMap{}
	n.rename("a", "b")
	n.rename("b", "c")
	n.rename("d", "d")

	assert.Equal(t, "c", n.get("a"))
	assert.Equal(t, "c", n.get("b"))
	assert.Equal(t, "d", n.get("d"))
	assert.Len(t, n, 2)
}

func TestMergeTables_ReusesIdenticalTables(t *testing.T) {
	m := &Model{dataNames: nameMap{}}
	out := m.mergeTables([]*table{
		{name: "a_source", data: &spec.Data{URL: "cars.json"}, parse: map[string]string{"hp": "number"}},
		{name: "a_raw", source: "a_source", transforms: []vega.Transform{filter("datum.hp > 100")}},
		{name: "b_source", data: &spec.Data{URL: "cars.json"}, parse: map[string]string{"year": "date"}},
		{name: "b_raw", source: "b_source", transforms: []vega.Transform{filter("datum.hp > 100")}},
	})

	assert.Equal(t, []string{"a_source", "a_raw"}, tableNames(out))
	assert.Equal(t, map[string]string{"hp": "number", "year": "date"}, out[0].parse)
	assert.Equal(t, "a_source", m.dataNames.get("b_source"))
	assert.Equal(t, "a_raw", m.dataNames.get("b_raw"))
}

func TestMergeTables_KeepsDifferentSources(t *testing.T) {
	m := &Model{dataNames: nameMap{}}
	out := m.mergeTables([]*table{
		{name: "a_source", data: &spec.Data{URL: "cars.json"}},
		{name: "b_source", data: &spec.Data{URL: "movies.json"}},
		{name: "a_raw", source: "a_source", transforms: []vega.Transform{filter("datum.x")}},
		{name: "b_raw", source: "b_source", transforms: []vega.Transform{filter("datum.x")}},
	})
	assert.Equal(t, []string{"a_source", "b_source", "a_raw", "b_raw"}, tableNames(out))
	assert.Empty(t, m.dataNames)
}

func TestSplitPrefixes(t *testing.T) {
	f1, f2, f3 := filter("datum.a"), filter("datum.b"), filter("datum.c")

	t.Run("common prefix gets its own table", func(t *testing.T) {
		out := splitPrefixes([]*table{
			{name: "src", data: &spec.Data{URL: "d.json"}},
			{name: "a_raw", source: "src", transforms: []vega.Transform{f1, f2}},
			{name: "b_raw", source: "src", transforms: []vega.Transform{f1, f3}},
		})
		require.Equal(t, []string{"src", "a_raw_shared", "a_raw", "b_raw"}, tableNames(out))
		assert.Equal(t, "src", out[1].source)
		assert.Equal(t, []vega.Transform{f1}, out[1].transforms)
		assert.Equal(t, "a_raw_shared", out[2].source)
		assert.Equal(t, []vega.Transform{f2}, out[2].transforms)
		assert.Equal(t, "a_raw_shared", out[3].source)
		assert.Equal(t, []vega.Transform{f3}, out[3].transforms)
	})

	t.Run("whole pipeline as prefix", func(t *testing.T) {
		out := splitPrefixes([]*table{
			{name: "a_raw", source: "src", transforms: []vega.Transform{f1}},
			{name: "b_raw", source: "src", transforms: []vega.Transform{f1, f2}},
		})
		require.Equal(t, []string{"a_raw", "b_raw"}, tableNames(out))
		assert.Equal(t, "a_raw", out[1].source)
		assert.Equal(t, []vega.Transform{f2}, out[1].transforms)
	})

	t.Run("no common prefix", func(t *testing.T) {
		out := splitPrefixes([]*table{
			{name: "a_raw", source: "src", transforms: []vega.Transform{f1}},
			{name: "b_raw", source: "src", transforms: []vega.Transform{f2}},
		})
		assert.Equal(t, "src", out[1].source)
		assert.Len(t, out, 2)
	})
}

func TestUniqueTableName(t *testing.T) {
	ts := []*table{{name: "x_shared"}, {name: "x_shared_2"}}
	assert.Equal(t, "x_shared_3", uniqueTableName(ts, "x_shared"))
	assert.Equal(t, "y", uniqueTableName(ts, "y"))
}
