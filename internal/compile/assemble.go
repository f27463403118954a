package compile

import (
	"strconv"

	"github.com/matthewbaird/vegalite/internal/spec"
	"github.com/matthewbaird/vegalite/internal/timeunit"
	"github.com/matthewbaird/vegalite/internal/vega"
)

// assembleLayer draws the children on top of each other in one group.
// Scales and guides shared at the layer come first.
func assembleLayer(l *Model) error {
	g := &group{
		scales:  assembleScales(l.component.scales),
		axes:    assembleAxes(l.component.axes),
		legends: assembleLegends(l.component.legends),
	}
	for _, child := range l.children {
		cg := child.component.group
		g.marks = append(g.marks, cg.marks...)
		g.scales = append(g.scales, cg.scales...)
		g.axes = append(g.axes, cg.axes...)
		g.legends = append(g.legends, cg.legends...)
	}
	l.component.group = g
	return nil
}

// assembleFacet places the child in one cell group per facet partition.
// Marks reading different tables get a cell group each; the first cell
// carries the shared axes and the child's guides.
func assembleFacet(f *Model) error {
	cg := f.children[0].component.group
	l := f.component.layout

	var tables []string
	byTable := make(map[string][]*vega.Mark)
	for _, mk := range cg.marks {
		t := markData(mk)
		if _, ok := byTable[t]; !ok {
			tables = append(tables, t)
		}
		byTable[t] = append(byTable[t], mk)
	}

	var groupby []string
	cell := vega.Props{
		"width":  l.cellWidth.ref(),
		"height": l.cellHeight.ref(),
	}
	for _, ch := range []spec.Channel{spec.Row, spec.Column} {
		fd := f.facet.Get(ch)
		if fd == nil {
			continue
		}
		ref := spec.FieldRef(fd, spec.FieldRefOptions{})
		groupby = append(groupby, ref)
		pos := "y"
		if ch == spec.Column {
			pos = "x"
		}
		cell[pos] = scaled(f.scaleName(ch), ref)
	}

	var inner, outer []*vega.Axis
	for _, ac := range f.component.axes {
		if ac.channel.IsSpatial() {
			inner = append(inner, ac.axis)
		} else {
			outer = append(outer, ac.axis)
		}
	}

	g := &group{
		scales:  assembleScales(f.component.scales),
		axes:    outer,
		legends: assembleLegends(f.component.legends),
	}
	for i, t := range tables {
		suffix := ""
		if i > 0 {
			suffix = "_" + strconv.Itoa(i)
		}
		name := f.getName("facet" + suffix)
		mk := &vega.Mark{
			Name:   f.getName("cell" + suffix),
			Type:   "group",
			From:   &vega.From{Facet: &vega.Facet{Name: name, Data: t, Groupby: groupby}},
			Encode: &vega.Encode{Update: cell},
			Scales: cg.scales,
			Marks:  readFrom(byTable[t], t, name),
		}
		if i == 0 {
			mk.Axes = append(inner, cg.axes...)
			mk.Legends = cg.legends
		}
		g.marks = append(g.marks, mk)
	}
	f.component.group = g
	return nil
}

// markData returns the table a mark, or the facet of a path group, reads.
func markData(mk *vega.Mark) string {
	if mk.From == nil {
		return ""
	}
	if mk.From.Facet != nil {
		return mk.From.Facet.Data
	}
	return mk.From.Data
}

// readFrom rewrites marks reading table to read the facet partition name.
func readFrom(marks []*vega.Mark, table, name string) []*vega.Mark {
	out := make([]*vega.Mark, len(marks))
	for i, mk := range marks {
		cp := *mk
		if mk.From != nil {
			from := *mk.From
			switch {
			case from.Facet != nil && from.Facet.Data == table:
				facet := *from.Facet
				facet.Data = name
				from.Facet = &facet
			case from.Data == table:
				from.Data = name
			}
			cp.From = &from
		}
		out[i] = &cp
	}
	return out
}

// assembleGrid wraps every child in its own group mark and lays the
// groups out in a grid.
func assembleGrid(m *Model) error {
	g := &group{
		scales:  assembleScales(m.component.scales),
		axes:    assembleAxes(m.component.axes),
		legends: assembleLegends(m.component.legends),
		layout: &vega.Layout{
			Padding: m.config.ConcatSpacing,
			Columns: m.columns,
			Bounds:  "full",
		},
	}
	for _, child := range m.children {
		cg := child.component.group
		l := child.component.layout
		g.marks = append(g.marks, &vega.Mark{
			Name: child.getName("group"),
			Type: "group",
			Encode: &vega.Encode{Update: vega.Props{
				"width":  l.width.ref(),
				"height": l.height.ref(),
			}},
			Layout:  cg.layout,
			Scales:  cg.scales,
			Axes:    cg.axes,
			Legends: cg.legends,
			Marks:   cg.marks,
		})
	}
	m.component.group = g
	return nil
}

// assemble builds the output specification from the root's results.
func (c *compiler) assemble(root *Model) *vega.Spec {
	g := root.component.group
	l := root.component.layout
	cfg := root.config

	out := &vega.Spec{
		Schema:      vega.SchemaURL,
		Description: root.spec.Description,
		Width:       l.width.value,
		Height:      l.height.value,
		Background:  cfg.Background,
		Scales:      g.scales,
		Axes:        g.axes,
		Legends:     g.legends,
		Layout:      g.layout,
		Marks:       g.marks,
	}
	if p, ok := cfg.Padding.(float64); ok {
		out.Padding = p
	}
	if root.kind == spec.KindConcat || root.kind == spec.KindRepeat {
		out.Autosize = "pad"
	}

	for _, s := range []struct {
		name string
		size size
	}{
		{"width", l.width},
		{"height", l.height},
	} {
		if s.size.expr != "" {
			out.Signals = append(out.Signals, &vega.Signal{Name: s.name, Value: s.size.value, Update: s.size.expr})
		}
	}
	for _, sc := range root.component.selections {
		out.Signals = append(out.Signals, sc.assembleSignals()...)
	}

	for _, t := range root.component.data {
		out.Data = append(out.Data, t.assemble())
	}
	for _, u := range c.lookups {
		lk, _ := u.Lookup()
		out.Data = append(out.Data, &vega.Data{
			Name:      lk.Name,
			Values:    lk.Values,
			Transform: []vega.Transform{&vega.Formula{Expr: lk.Expr, As: timeunit.LookupField}},
		})
	}
	for _, sc := range root.component.selections {
		out.Data = append(out.Data, sc.assembleData())
	}
	return out
}
