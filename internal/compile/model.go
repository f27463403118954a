package compile

import (
	"fmt"
	"strconv"

	"github.com/matthewbaird/vegalite/internal/spec"
	"github.com/matthewbaird/vegalite/internal/vega"
)

// Model is one node of the compile tree. Units carry a mark and an
// encoding; composition nodes carry children. Every node owns two rename
// tables that only it writes, after its children have been processed.
type Model struct {
	kind     spec.Kind
	spec     *spec.Spec
	config   *spec.Config
	parent   *Model
	children []*Model
	name     string

	mark     spec.Mark
	encoding *spec.Encoding
	facet    *spec.FacetMapping
	columns  int

	dataNames  nameMap
	scaleNames nameMap

	c         *compiler
	component component
}

// component collects what the passes produce for a node.
type component struct {
	data       []*table
	raw        string
	main       string
	stack      *stackInfo
	selections []*selectionComponent
	scales     []*scaleComponent
	layout     layoutComponent
	axes       []*axisComponent
	legends    []*legendComponent
	group      *group
}

// group is the assembled content of a node: what it contributes to the
// enclosing group mark (or the top level).
type group struct {
	marks   []*vega.Mark
	scales  []*vega.Scale
	axes    []*vega.Axis
	legends []*vega.Legend
	layout  *vega.Layout
}

// nameMap records renames made by one node. Chains are followed, so a
// name renamed twice at the same level still resolves.
type nameMap map[string]string

func (n nameMap) rename(from, to string) {
	if from != to {
		n[from] = to
	}
}

func (n nameMap) get(name string) string {
	for range len(n) {
		next, ok := n[name]
		if !ok {
			break
		}
		name = next
	}
	return name
}

// getName prefixes s with the node's name.
func (m *Model) getName(s string) string {
	if m.name == "" {
		return s
	}
	return m.name + "_" + s
}

// resolveData returns the final name of a table created under the name
// name anywhere at or below m.
func (m *Model) resolveData(name string) string {
	for n := m; n != nil; n = n.parent {
		name = n.dataNames.get(name)
	}
	return name
}

// resolveDataUntil applies the rename tables from m up to and including
// top.
func (m *Model) resolveDataUntil(name string, top *Model) string {
	for n := m; n != nil; n = n.parent {
		name = n.dataNames.get(name)
		if n == top {
			break
		}
	}
	return name
}

func (m *Model) resolveScale(name string) string {
	for n := m; n != nil; n = n.parent {
		name = n.scaleNames.get(name)
	}
	return name
}

// scaleName returns the final name of the scale serving ch on m.
func (m *Model) scaleName(ch spec.Channel) string {
	return m.resolveScale(m.getName(string(ch)))
}

func (m *Model) fieldDef(ch spec.Channel) *spec.FieldDef {
	return m.encoding.Get(ch)
}

// has reports whether ch is bound to data on a unit.
func (m *Model) has(ch spec.Channel) bool {
	return m.encoding != nil && m.encoding.Has(ch)
}

// field returns the column name of ch. Binned fields default to the
// suffix matching the channel's scale type.
func (m *Model) field(ch spec.Channel, opts spec.FieldRefOptions) string {
	fd := m.fieldDef(ch)
	if fd.Bin != nil && opts.BinSuffix == "" {
		opts.BinSuffix = spec.BinStart
		if m.scaleType(ch).IsDiscrete() {
			opts.BinSuffix = spec.BinRange
		}
	}
	return spec.FieldRef(fd, opts)
}

// scaleType is the scale type of ch on the unit. Categorical positions
// become band scales under bars and rects and point scales otherwise.
func (m *Model) scaleType(ch spec.Channel) spec.ScaleType {
	t := scaleType(ch, m.fieldDef(ch))
	if t != spec.ScaleOrdinal || (ch != spec.X && ch != spec.Y) {
		return t
	}
	if m.mark == spec.MarkBar || m.mark == spec.MarkRect {
		return spec.ScaleBand
	}
	return spec.ScalePoint
}

// isDimension reports whether ch is bound to a dimension field.
func (m *Model) isDimension(ch spec.Channel) bool {
	return m.has(ch) && m.fieldDef(ch).IsDimension()
}

func (m *Model) isMeasure(ch spec.Channel) bool {
	return m.has(ch) && m.fieldDef(ch).IsMeasure()
}

func (m *Model) isDiscrete(ch spec.Channel) bool {
	return m.has(ch) && m.scaleType(ch).IsDiscrete()
}

// binding is a field bound to a channel of a unit or of an enclosing
// facet.
type binding struct {
	ch spec.Channel
	fd *spec.FieldDef
}

// facetBindings returns the row and column fields of every enclosing
// facet, outermost first.
func (m *Model) facetBindings() []binding {
	var out []binding
	for n := m.parent; n != nil; n = n.parent {
		if n.kind != spec.KindFacet {
			continue
		}
		var here []binding
		for _, ch := range []spec.Channel{spec.Row, spec.Column} {
			if fd := n.facet.Get(ch); fd != nil {
				here = append(here, binding{ch, fd})
			}
		}
		out = append(here, out...)
	}
	return out
}

// bindings returns the facet bindings followed by the unit's own data
// bindings in channel order.
func (m *Model) bindings() []binding {
	out := m.facetBindings()
	for _, ch := range spec.Channels {
		if m.has(ch) {
			out = append(out, binding{ch, m.fieldDef(ch)})
		}
	}
	return out
}

// transforms returns the user transforms that apply to m, outermost first.
func (m *Model) transforms() []*spec.Transform {
	var out []*spec.Transform
	for n := m; n != nil; n = n.parent {
		if n.spec.Transform != nil {
			out = append([]*spec.Transform{n.spec.Transform}, out...)
		}
	}
	return out
}

// dataOwner returns the nearest node at or above m that declares data,
// or the root.
func (m *Model) dataOwner() *Model {
	n := m
	for ; n.parent != nil; n = n.parent {
		if n.spec.Data != nil {
			return n
		}
	}
	return n
}

func (m *Model) root() *Model {
	n := m
	for n.parent != nil {
		n = n.parent
	}
	return n
}

// units returns the unit nodes at or below m in pre-order.
func (m *Model) units() []*Model {
	if m.kind == spec.KindUnit {
		return []*Model{m}
	}
	var out []*Model
	for _, child := range m.children {
		out = append(out, child.units()...)
	}
	return out
}

// build creates the node for s and its subtree.
func (c *compiler) build(s *spec.Spec, parent *Model, name string) (*Model, error) {
	cfg := c.config
	if parent != nil {
		cfg = parent.config
	}
	if len(s.Config) > 0 {
		var err error
		if cfg, err = cfg.Overlay(s.Config); err != nil {
			return nil, err
		}
	}

	kind, err := s.Kind()
	if err != nil {
		return nil, err
	}
	if kind == spec.KindUnit && s.Encoding != nil && (s.Encoding.Row != nil || s.Encoding.Column != nil) {
		s = unitAsFacet(s)
		kind = spec.KindFacet
	}
	if s.Name != "" {
		name = s.Name
	}

	m := &Model{
		kind:       kind,
		spec:       s,
		config:     cfg,
		parent:     parent,
		name:       name,
		dataNames:  make(nameMap),
		scaleNames: make(nameMap),
		c:          c,
	}

	add := func(child *spec.Spec, childName string) error {
		cm, err := c.build(child, m, childName)
		if err != nil {
			return err
		}
		m.children = append(m.children, cm)
		return nil
	}

	switch kind {
	case spec.KindUnit:
		m.mark = s.Mark
		m.encoding = s.Encoding
		if m.encoding == nil {
			m.encoding = &spec.Encoding{}
		}
	case spec.KindLayer:
		for i, child := range s.Layer {
			if err := add(child, m.getName("layer_"+strconv.Itoa(i))); err != nil {
				return nil, err
			}
		}
	case spec.KindFacet:
		m.facet = s.Facet
		if err := add(s.Spec, m.getName("child")); err != nil {
			return nil, err
		}
	case spec.KindConcat:
		children := s.HConcat
		m.columns = len(s.HConcat)
		if children == nil {
			children = s.VConcat
			m.columns = 1
		}
		for i, child := range children {
			if err := add(child, m.getName("concat_"+strconv.Itoa(i))); err != nil {
				return nil, err
			}
		}
	case spec.KindRepeat:
		rows, cols := s.Repeat.Row, s.Repeat.Column
		if len(rows) == 0 {
			rows = []string{""}
		}
		if len(cols) == 0 {
			cols = []string{""}
		}
		m.columns = len(cols)
		for r, row := range rows {
			for col, column := range cols {
				child := substituteRepeat(s.Spec, row, column)
				if err := add(child, m.getName(fmt.Sprintf("child_%d_%d", r, col))); err != nil {
					return nil, err
				}
			}
		}
	}
	return m, nil
}

// unitAsFacet lifts the row and column channels of a unit into a facet
// over the rest of the unit. Data and transforms move to the facet so the
// cell tables can be partitioned.
func unitAsFacet(s *spec.Spec) *spec.Spec {
	enc := *s.Encoding
	facet := &spec.FacetMapping{Row: enc.Row, Column: enc.Column}
	enc.Row, enc.Column = nil, nil

	child := *s
	child.Name = ""
	child.Data = nil
	child.Transform = nil
	child.Config = nil
	child.Resolve = nil
	child.Encoding = &enc

	return &spec.Spec{
		Schema:      s.Schema,
		Name:        s.Name,
		Description: s.Description,
		Data:        s.Data,
		Transform:   s.Transform,
		Config:      s.Config,
		Facet:       facet,
		Spec:        &child,
	}
}

// substituteRepeat copies s, replacing repeat field references with the
// given row and column fields. A nested repeat rebinds the references
// below it and is left alone.
func substituteRepeat(s *spec.Spec, row, column string) *spec.Spec {
	cp := *s
	if s.Encoding != nil {
		enc := *s.Encoding
		for _, ch := range spec.Channels {
			if fd := enc.Get(ch); fd != nil && fd.Repeat != "" {
				enc.Set(ch, repeatField(fd, row, column))
			}
		}
		cp.Encoding = &enc
	}
	if s.Facet != nil {
		facet := *s.Facet
		if facet.Row != nil && facet.Row.Repeat != "" {
			facet.Row = repeatField(facet.Row, row, column)
		}
		if facet.Column != nil && facet.Column.Repeat != "" {
			facet.Column = repeatField(facet.Column, row, column)
		}
		cp.Facet = &facet
	}
	if s.Spec != nil && s.Repeat == nil {
		cp.Spec = substituteRepeat(s.Spec, row, column)
	}
	cp.Layer = substituteAll(s.Layer, row, column)
	cp.HConcat = substituteAll(s.HConcat, row, column)
	cp.VConcat = substituteAll(s.VConcat, row, column)
	return &cp
}

func substituteAll(specs []*spec.Spec, row, column string) []*spec.Spec {
	if specs == nil {
		return nil
	}
	out := make([]*spec.Spec, len(specs))
	for i, s := range specs {
		out[i] = substituteRepeat(s, row, column)
	}
	return out
}

func repeatField(fd *spec.FieldDef, row, column string) *spec.FieldDef {
	sub := *fd
	if fd.Repeat == "row" {
		sub.Field = row
	} else {
		sub.Field = column
	}
	sub.Repeat = ""
	return &sub
}
