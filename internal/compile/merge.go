package compile

import (
	"slices"
	"strconv"

	"github.com/matthewbaird/vegalite/internal/spec"
	"github.com/matthewbaird/vegalite/internal/vega"
)

// mergeChildData pulls the children's tables up to m, reusing tables that
// are already defined.
func mergeChildData(m *Model) error {
	var in []*table
	for _, child := range m.children {
		in = append(in, child.component.data...)
	}
	m.component.data = m.mergeTables(in)
	return nil
}

// mergeTables dedupes in and records every rename in m's table. Loaded
// tables match on content and union their parse directives; derived
// tables match on source and pipeline.
func (m *Model) mergeTables(in []*table) []*table {
	var out []*table
	for _, t := range in {
		cp := *t
		cp.source = m.dataNames.get(cp.source)
		if dup := findTable(out, &cp); dup != nil {
			m.dataNames.rename(cp.name, dup.name)
			if dup.loaded() {
				dup.parse = unionParse(dup.parse, cp.parse)
			}
			continue
		}
		out = append(out, &cp)
	}
	return splitPrefixes(out)
}

func findTable(ts []*table, t *table) *table {
	for _, have := range ts {
		switch {
		case have.loaded() != t.loaded():
		case t.loaded():
			if have.name == t.name || have.key() == t.key() {
				return have
			}
		case have.source == t.source && vega.EqualTransforms(have.transforms, t.transforms):
			return have
		}
	}
	return nil
}

// unionParse returns a new map with the entries of a, then those of b that
// a does not set.
func unionParse(a, b map[string]string) map[string]string {
	if len(b) == 0 {
		return a
	}
	out := make(map[string]string, len(a)+len(b))
	for k, v := range b {
		out[k] = v
	}
	for k, v := range a {
		out[k] = v
	}
	return out
}

// splitPrefixes makes derived tables that read the same source and start
// with the same transforms share one table computing that prefix.
func splitPrefixes(ts []*table) []*table {
	for {
		i, j, k := sharedPrefix(ts)
		if k == 0 {
			return ts
		}
		a, b := ts[i], ts[j]
		if k == len(a.transforms) {
			b.source, b.transforms = a.name, b.transforms[k:]
			continue
		}
		shared := &table{
			name:       uniqueTableName(ts, a.name+"_shared"),
			source:     a.source,
			transforms: a.transforms[:k:k],
		}
		a.source, a.transforms = shared.name, a.transforms[k:]
		b.source, b.transforms = shared.name, b.transforms[k:]
		ts = slices.Insert(ts, i, shared)
	}
}

// sharedPrefix finds the first pair of derived tables i < j with a common
// source and a non-empty common transform prefix of length k.
func sharedPrefix(ts []*table) (i, j, k int) {
	for i, a := range ts {
		if a.loaded() || len(a.transforms) == 0 {
			continue
		}
		for j := i + 1; j < len(ts); j++ {
			b := ts[j]
			if b.loaded() || b.source != a.source {
				continue
			}
			if k := vega.CommonPrefix(a.transforms, b.transforms); k > 0 {
				return i, j, k
			}
		}
	}
	return 0, 0, 0
}

func uniqueTableName(ts []*table, base string) string {
	taken := func(name string) bool {
		return slices.ContainsFunc(ts, func(t *table) bool { return t.name == name })
	}
	name := base
	for n := 2; taken(name); n++ {
		name = base + "_" + strconv.Itoa(n)
	}
	return name
}

// parseFacetData merges the child tables and adds one layout table per
// faceted channel listing the distinct values of the facet field.
func parseFacetData(f *Model) error {
	if err := mergeChildData(f); err != nil {
		return err
	}
	first := f.units()[0]
	source := first.resolveDataUntil(first.component.raw, f)
	for _, ch := range []spec.Channel{spec.Row, spec.Column} {
		fd := f.facet.Get(ch)
		if fd == nil {
			continue
		}
		f.component.data = append(f.component.data, &table{
			name:   f.layoutTable(ch),
			source: source,
			transforms: []vega.Transform{&vega.Aggregate{
				Groupby: []string{spec.FieldRef(fd, spec.FieldRefOptions{})},
			}},
		})
	}
	return nil
}

// layoutTable names the table listing the distinct values of a facet
// channel.
func (m *Model) layoutTable(ch spec.Channel) string {
	return m.getName(string(ch) + "_domain")
}
