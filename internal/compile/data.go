package compile

import (
	"encoding/json"
	"strings"

	"github.com/matthewbaird/vegalite/internal/bin"
	"github.com/matthewbaird/vegalite/internal/spec"
	"github.com/matthewbaird/vegalite/internal/vega"
)

// Table roles.
const (
	roleSource    = "source"
	roleRaw       = "raw"
	roleAggregate = "aggregate"
	roleStacked   = "stacked"
)

// table is one named table of a data component. Loaded tables carry data;
// derived tables read source through transforms.
type table struct {
	name       string
	source     string
	data       *spec.Data
	parse      map[string]string
	transforms []vega.Transform
}

func (t *table) loaded() bool { return t.data != nil }

// key identifies the content of a loaded table.
func (t *table) key() string {
	values, _ := json.Marshal(t.data.Values)
	var typ string
	if t.data.Format != nil {
		typ = t.data.Format.Type
	}
	return strings.Join([]string{t.data.Name, t.data.URL, string(values), typ}, "\x00")
}

func (t *table) assemble() *vega.Data {
	d := &vega.Data{Name: t.name, Source: t.source, Transform: t.transforms}
	if t.data == nil {
		return d
	}
	d.URL = t.data.URL
	d.Values = t.data.Values
	var typ string
	if t.data.Format != nil {
		typ = t.data.Format.Type
	}
	if typ != "" || len(t.parse) > 0 {
		d.Format = &vega.Format{Type: typ, Parse: t.parse}
	}
	return d
}

// stackInfo describes how a unit stacks its measure.
type stackInfo struct {
	measure    spec.Channel
	dimension  spec.Channel
	field      string
	groupby    []string
	stackBy    []string
	offset     spec.StackOffset
	descending bool
}

func (st *stackInfo) start() string    { return st.field + spec.BinStart }
func (st *stackInfo) end() string      { return st.field + spec.BinEnd }
func (st *stackInfo) sumField() string { return "sum_" + st.field }

func (st *stackInfo) transforms(mark spec.Mark, dimField string) []vega.Transform {
	var out []vega.Transform
	if mark == spec.MarkArea && dimField != "" {
		out = append(out, &vega.Impute{
			Field:   st.field,
			Key:     dimField,
			Groupby: st.stackBy,
			Method:  "value",
			Value:   0,
		})
	}
	order := make([]string, len(st.stackBy))
	for i := range order {
		order[i] = string(spec.Ascending)
		if st.descending {
			order[i] = string(spec.Descending)
		}
	}
	out = append(out, &vega.Stack{
		Groupby: nonNil(st.groupby),
		Field:   st.field,
		Sort:    &vega.Compare{Field: st.stackBy, Order: order},
		Offset:  string(st.offset),
		As:      [2]string{st.start(), st.end()},
	})
	return out
}

func (st *stackInfo) sum() *vega.Aggregate {
	return &vega.Aggregate{
		Groupby: nonNil(st.groupby),
		Fields:  []string{st.field},
		Ops:     []string{string(spec.AggSum)},
		As:      []string{st.sumField()},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// parseUnitData builds the tables of a unit: its source, the raw table
// with derivations and filters, and the aggregate and stacked tables when
// the encoding needs them.
func parseUnitData(u *Model) error {
	owner := u.dataOwner()
	calculated := make(map[string]bool)
	for _, t := range u.transforms() {
		for _, calc := range t.Calculate {
			calculated[calc.As] = true
		}
	}

	src := &table{
		name:  owner.getName(roleSource),
		data:  owner.spec.Data,
		parse: u.formatParse(owner, calculated),
	}
	if src.data == nil {
		src.data = &spec.Data{}
	}
	tables := []*table{src}

	st := u.stackInfo()
	agg := u.aggregateTransform()
	raw := &table{name: u.getName(roleRaw), source: src.name, transforms: u.rawTransforms(owner)}
	u.component.raw = raw.name
	if len(raw.transforms) == 0 && (agg != nil || st == nil) {
		u.dataNames.rename(raw.name, src.name)
	} else {
		tables = append(tables, raw)
	}

	main := raw
	if agg != nil {
		main = &table{
			name:       u.getName(roleAggregate),
			source:     u.dataNames.get(raw.name),
			transforms: []vega.Transform{agg},
		}
		tables = append(tables, main)
	}
	if st != nil {
		var dimField string
		if st.dimension != "" {
			dimField = u.field(st.dimension, spec.FieldRefOptions{})
		}
		main.transforms = append(main.transforms, st.transforms(u.mark, dimField)...)
		tables = append(tables, &table{
			name:       u.getName(roleStacked),
			source:     main.name,
			transforms: []vega.Transform{st.sum()},
		})
	}

	u.component.stack = st
	u.component.main = main.name
	u.component.data = tables
	return nil
}

// formatParse returns the parse directives for the source fields u reads.
// Entries in the data's own format win.
func (u *Model) formatParse(owner *Model, calculated map[string]bool) map[string]string {
	d := owner.spec.Data
	parse := make(map[string]string)
	for _, b := range u.bindings() {
		fd := b.fd
		if fd.Field == "" || fd.IsCount() || calculated[fd.Field] {
			continue
		}
		switch fd.Type {
		case spec.Temporal:
			parse[fd.Field] = "date"
		case spec.Quantitative:
			if d != nil && d.URL == "" && numericValues(d.Values, fd.Field) {
				continue
			}
			parse[fd.Field] = "number"
		}
	}
	if d != nil && d.Format != nil {
		for k, v := range d.Format.Parse {
			parse[k] = v
		}
	}
	if len(parse) == 0 {
		return nil
	}
	return parse
}

// numericValues reports whether field already holds numbers in rows.
func numericValues(rows []map[string]any, field string) bool {
	for _, row := range rows {
		switch row[field].(type) {
		case nil:
			continue
		case float64, json.Number, int:
			return true
		}
		return false
	}
	return false
}

// rawTransforms derives calculated, time-unit and bin fields and then
// filters the rows.
func (u *Model) rawTransforms(owner *Model) []vega.Transform {
	var out []vega.Transform
	var preds []string
	for _, t := range u.transforms() {
		for _, calc := range t.Calculate {
			out = append(out, &vega.Formula{Expr: calc.Expr, As: calc.As})
		}
		for _, p := range t.Filter {
			preds = append(preds, p.Expr())
		}
	}

	bindings := u.bindings()
	seen := make(map[string]bool)
	for _, b := range bindings {
		fd := b.fd
		if fd.TimeUnit == "" || fd.Field == "" {
			continue
		}
		as := spec.FieldRef(&spec.FieldDef{Field: fd.Field, TimeUnit: fd.TimeUnit}, spec.FieldRefOptions{})
		if seen[as] {
			continue
		}
		seen[as] = true
		out = append(out, &vega.Formula{Expr: fd.TimeUnit.Expr(spec.Datum(fd.Field)), As: as})
	}

	ranged := u.rangedBins()
	for _, b := range bindings {
		fd := b.fd
		if fd.Bin == nil || seen["bin:"+fd.Field] {
			continue
		}
		seen["bin:"+fd.Field] = true
		out = append(out, u.binTransforms(owner, fd, ranged[fd.Field])...)
	}

	for _, b := range u.facetBindings() {
		if b.fd.Field != "" {
			preds = append(preds, notNull(b.fd))
		}
	}
	for _, b := range bindings {
		fd := b.fd
		if fd.Field != "" && !fd.IsCount() && u.config.FilterNull.For(fd.Type) {
			preds = append(preds, notNull(fd))
		}
	}
	if preds = dedupe(preds); len(preds) > 0 {
		out = append(out, &vega.Filter{Expr: strings.Join(preds, " && ")})
	}

	for _, b := range bindings {
		if b.fd.Field == "" || scaleType(b.ch, b.fd) != spec.ScaleLog || seen["log:"+b.fd.Field] {
			continue
		}
		seen["log:"+b.fd.Field] = true
		out = append(out, &vega.Filter{Expr: spec.Datum(b.fd.Field) + " > 0"})
	}
	return out
}

// notNull rejects missing values of fd's field. Numeric and temporal
// fields also reject NaN.
func notNull(fd *spec.FieldDef) string {
	if fd.Type == spec.Quantitative || fd.Type == spec.Temporal {
		return spec.NotNull(fd.Field).Expr()
	}
	return spec.Predicate{Field: fd.Field, Op: spec.OpNEQ}.Expr()
}

func dedupe(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := ss[:0]
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// rangedBins reports the binned fields that some channel shows on a
// discrete scale and so need a range label.
func (u *Model) rangedBins() map[string]bool {
	out := make(map[string]bool)
	for _, b := range u.bindings() {
		if b.fd.Bin != nil && scaleType(b.ch, b.fd).IsDiscrete() {
			out[b.fd.Field] = true
		}
	}
	return out
}

// binTransforms bins fd. Nice boundaries are computed from the source
// statistics when they are known; otherwise the extent is measured at
// render time.
func (u *Model) binTransforms(owner *Model, fd *spec.FieldDef, ranged bool) []vega.Transform {
	ref := func(suffix string) string {
		return spec.FieldRef(fd, spec.FieldRefOptions{BinSuffix: suffix})
	}
	start, end := ref(spec.BinStart), ref(spec.BinEnd)
	maxbins := fd.Bin.Bins()
	b := &vega.Bin{Field: fd.Field, MaxBins: maxbins, As: [2]string{start, end}}

	var out []vega.Transform
	if f, ok := u.c.statsFor(owner).FieldStats(fd.Field); ok && f.Numeric {
		if bins, err := bin.Compute(f.Min, f.Max, maxbins); err == nil {
			b.Extent = []float64{bins.Start, bins.Stop}
			b.Step = bins.Step
		}
	}
	if b.Extent == nil {
		signal := "bin_" + fd.Field + "_extent"
		out = append(out, &vega.Extent{Field: fd.Field, Signal: signal})
		b.Extent = &vega.SignalRef{Signal: signal}
	}
	out = append(out, b, &vega.Formula{
		Expr: "(" + spec.Datum(start) + " + " + spec.Datum(end) + ") / 2",
		As:   ref(spec.BinMid),
	})
	if ranged {
		out = append(out, &vega.Formula{
			Expr: "format(" + spec.Datum(start) + ", 's') + ' - ' + format(" + spec.Datum(end) + ", 's')",
			As:   ref(spec.BinRange),
		})
	}
	return out
}

// aggregateTransform groups by every un-aggregated field when some channel
// aggregates. Count is computed once whatever field carried it.
func (u *Model) aggregateTransform() *vega.Aggregate {
	agg := &vega.Aggregate{Groupby: []string{}}
	seen := make(map[string]bool)
	group := func(name string) {
		if !seen[name] {
			seen[name] = true
			agg.Groupby = append(agg.Groupby, name)
		}
	}
	ranged := u.rangedBins()
	measures := 0
	for _, b := range u.bindings() {
		fd := b.fd
		switch {
		case fd.IsCount():
			measures++
			if !seen[spec.CountField] {
				seen[spec.CountField] = true
				agg.Fields = append(agg.Fields, "*")
				agg.Ops = append(agg.Ops, string(spec.AggCount))
				agg.As = append(agg.As, spec.CountField)
			}
		case fd.Aggregate != "" && fd.Bin == nil:
			measures++
			as := spec.FieldRef(fd, spec.FieldRefOptions{})
			if !seen[as] {
				seen[as] = true
				agg.Fields = append(agg.Fields, fd.Field)
				agg.Ops = append(agg.Ops, string(fd.Aggregate))
				agg.As = append(agg.As, as)
			}
		case fd.Bin != nil:
			for _, suffix := range []string{spec.BinStart, spec.BinEnd, spec.BinMid} {
				group(spec.FieldRef(fd, spec.FieldRefOptions{BinSuffix: suffix}))
			}
			if ranged[fd.Field] {
				group(spec.FieldRef(fd, spec.FieldRefOptions{BinSuffix: spec.BinRange}))
			}
		default:
			group(spec.FieldRef(fd, spec.FieldRefOptions{}))
		}
	}
	if measures == 0 {
		return nil
	}
	return agg
}

// stackInfo decides whether the unit stacks: bar and area marks with
// exactly one unbinned measure on x or y, split by a color or detail
// dimension.
func (u *Model) stackInfo() *stackInfo {
	if u.config.Stack.Disabled || (u.mark != spec.MarkBar && u.mark != spec.MarkArea) {
		return nil
	}
	xm, ym := u.isMeasure(spec.X), u.isMeasure(spec.Y)
	if xm == ym {
		return nil
	}
	measure, dim := spec.X, spec.Y
	if ym {
		measure, dim = spec.Y, spec.X
	}

	var stackBy []string
	for _, ch := range []spec.Channel{spec.Color, spec.Detail} {
		if u.isDimension(ch) {
			stackBy = append(stackBy, u.field(ch, spec.FieldRefOptions{}))
		}
	}
	if len(stackBy) == 0 {
		return nil
	}

	st := &stackInfo{
		measure:    measure,
		field:      u.field(measure, spec.FieldRefOptions{}),
		stackBy:    stackBy,
		offset:     u.config.Stack.Offset,
		descending: u.config.Stack.Sort == spec.Descending,
	}
	if st.offset == "" {
		st.offset = spec.StackZero
	}
	if u.has(dim) {
		st.dimension = dim
		st.groupby = append(st.groupby, u.field(dim, spec.FieldRefOptions{}))
	}
	for _, b := range u.facetBindings() {
		st.groupby = append(st.groupby, spec.FieldRef(b.fd, spec.FieldRefOptions{}))
	}
	return st
}
