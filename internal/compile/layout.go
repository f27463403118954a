package compile

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/matthewbaird/vegalite/internal/spec"
	"github.com/matthewbaird/vegalite/internal/vega"
)

// size is a view extent. value is exact when expr is empty and an
// estimate otherwise; expr computes the extent at render time.
type size struct {
	value float64
	expr  string
}

func (s size) String() string {
	if s.expr != "" {
		return s.expr
	}
	return formatNum(s.value)
}

func (s size) ref() *vega.ValueRef {
	if s.expr != "" {
		return &vega.ValueRef{Signal: s.expr}
	}
	return &vega.ValueRef{Value: s.value}
}

func formatNum(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// layoutComponent sizes a node. For a facet, cell is the size of one cell.
type layoutComponent struct {
	width, height         size
	cellWidth, cellHeight size
}

func (l *layoutComponent) get(ch spec.Channel) size {
	if ch == spec.Y {
		return l.height
	}
	return l.width
}

func parseUnitLayout(u *Model) error {
	u.component.layout = layoutComponent{width: u.unitSize(spec.X), height: u.unitSize(spec.Y)}
	return nil
}

// unitSize is the extent of a unit along ch: the explicit size, the
// number of categories times the step for discrete positions, or the cell
// size.
func (u *Model) unitSize(ch spec.Channel) size {
	if v := u.explicitSize(ch); v != nil {
		return size{value: *v}
	}
	if !u.has(ch) {
		return size{value: u.defaultStep(ch)}
	}
	if !u.isDiscrete(ch) {
		return size{value: u.cellSize(ch)}
	}
	step := u.rangeStep(ch)
	n := u.cardinality(u.fieldDef(ch))
	return size{
		value: float64(n) * step,
		expr:  fmt.Sprintf("max(length(domain('%s')), 1) * %s", u.scaleName(ch), formatNum(step)),
	}
}

// cardinality estimates the number of distinct values of fd from the
// source statistics. Unknown fields count as one.
func (m *Model) cardinality(fd *spec.FieldDef) int {
	if fd.Bin != nil {
		return fd.Bin.Bins()
	}
	if lk, ok := fd.TimeUnit.Lookup(); ok {
		return len(lk.Values)
	}
	if f, ok := m.c.statsFor(m.dataOwner()).FieldStats(fd.Field); ok && f.Distinct > 0 {
		return f.Distinct
	}
	return 1
}

func parseLayerLayout(l *Model) error {
	var widths, heights []size
	for _, child := range l.children {
		widths = append(widths, child.component.layout.width)
		heights = append(heights, child.component.layout.height)
	}
	l.component.layout = layoutComponent{width: maxSize(widths), height: maxSize(heights)}
	return nil
}

// maxSize is the largest of sizes.
func maxSize(sizes []size) size {
	var out size
	var terms []string
	for _, s := range sizes {
		out.value = math.Max(out.value, s.value)
		if t := s.String(); !slices.Contains(terms, t) {
			terms = append(terms, t)
		}
	}
	dynamic := false
	for _, s := range sizes {
		dynamic = dynamic || s.expr != ""
	}
	switch {
	case !dynamic:
	case len(terms) == 1:
		out.expr = terms[0]
	default:
		out.expr = "max(" + strings.Join(terms, ", ") + ")"
	}
	return out
}

// parseFacetLayout sizes a facet as the cell size times the number of
// rows or columns, spaced by the facet spacing.
func parseFacetLayout(f *Model) error {
	child := f.children[0].component.layout
	l := layoutComponent{cellWidth: child.width, cellHeight: child.height}
	for _, ch := range []spec.Channel{spec.X, spec.Y} {
		cell := child.get(ch)
		if cell.expr != "" && f.scaleResolve(ch) == spec.Independent {
			f.c.warn(WarnFacetIndependentSize, "%s: cells with independent scales cannot size by their domain; using %s", ch, formatNum(cell.value))
			cell = size{value: cell.value}
		}
		if ch == spec.X {
			l.cellWidth = cell
		} else {
			l.cellHeight = cell
		}
	}

	spacing := f.config.Scale.FacetSpacing
	l.width = f.facetSize(spec.Column, l.cellWidth, spacing)
	l.height = f.facetSize(spec.Row, l.cellHeight, spacing)
	f.component.layout = l
	return nil
}

func (f *Model) facetSize(ch spec.Channel, cell size, spacing float64) size {
	fd := f.facet.Get(ch)
	if fd == nil {
		return cell
	}
	n := float64(f.cardinality(fd))
	return size{
		value: n * (cell.value + spacing),
		expr: fmt.Sprintf("length(data('%s')) * (%s + %s)",
			f.resolveData(f.layoutTable(ch)), cell.String(), formatNum(spacing)),
	}
}

// parseGridLayout sizes a concat or repeat grid from the children's
// estimates: columns are as wide as their widest child and rows as tall
// as their tallest.
func parseGridLayout(m *Model) error {
	cols := max(m.columns, 1)
	rows := (len(m.children) + cols - 1) / cols
	colW := make([]float64, cols)
	rowH := make([]float64, rows)
	for i, child := range m.children {
		r, c := i/cols, i%cols
		l := child.component.layout
		colW[c] = math.Max(colW[c], l.width.value)
		rowH[r] = math.Max(rowH[r], l.height.value)
	}
	spacing := m.config.ConcatSpacing
	m.component.layout = layoutComponent{
		width:  size{value: sum(colW) + spacing*float64(cols-1)},
		height: size{value: sum(rowH) + spacing*float64(rows-1)},
	}
	return nil
}

func sum(xs []float64) float64 {
	var s float64
	for _, x := range xs {
		s += x
	}
	return s
}
