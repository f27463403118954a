// Package vega defines the rendering specification the compiler emits:
// named data tables with transform pipelines, scales, guides and a nested
// tree of group and primitive marks.
package vega

// SchemaURL identifies the output format.
const SchemaURL = "https://vega.github.io/schema/vega/v3.json"

// Spec is a complete rendering specification.
type Spec struct {
	Schema      string    `json:"$schema"`
	Description string    `json:"description,omitempty"`
	Autosize    string    `json:"autosize,omitempty"`
	Width       float64   `json:"width"`
	Height      float64   `json:"height"`
	Padding     any       `json:"padding,omitempty"`
	Background  string    `json:"background,omitempty"`
	Signals     []*Signal `json:"signals,omitempty"`
	Data        []*Data   `json:"data,omitempty"`
	Scales      []*Scale  `json:"scales,omitempty"`
	Axes        []*Axis   `json:"axes,omitempty"`
	Legends     []*Legend `json:"legends,omitempty"`
	Layout      *Layout   `json:"layout,omitempty"`
	Marks       []*Mark   `json:"marks,omitempty"`
}

// Signal is a named dynamic value. Update is an expression.
type Signal struct {
	Name   string `json:"name"`
	Value  any    `json:"value"`
	Update string `json:"update,omitempty"`
}

// SignalRef points at a signal or inline expression.
type SignalRef struct {
	Signal string `json:"signal"`
}

// Data is a named table, either loaded (URL, Values) or derived from
// another table (Source) through Transform.
type Data struct {
	Name      string           `json:"name"`
	Source    string           `json:"source,omitempty"`
	URL       string           `json:"url,omitempty"`
	Values    []map[string]any `json:"values,omitempty"`
	Format    *Format          `json:"format,omitempty"`
	Transform []Transform      `json:"transform,omitempty"`
}

// Format describes how loaded data is decoded.
type Format struct {
	Type  string            `json:"type,omitempty"`
	Parse map[string]string `json:"parse,omitempty"`
}

// Scale maps data values to visual values.
type Scale struct {
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	Domain    any        `json:"domain,omitempty"`
	DomainRaw *SignalRef `json:"domainRaw,omitempty"`
	Range     any        `json:"range,omitempty"`
	Round     *bool      `json:"round,omitempty"`
	Clamp     *bool      `json:"clamp,omitempty"`
	Nice      *bool      `json:"nice,omitempty"`
	Zero      *bool      `json:"zero,omitempty"`
	Padding   *float64   `json:"padding,omitempty"`
	Reverse   *bool      `json:"reverse,omitempty"`
	Exponent  *float64   `json:"exponent,omitempty"`
}

// DataRef reads a domain from one table. Either Field or Fields is set.
type DataRef struct {
	Data   string   `json:"data"`
	Field  string   `json:"field,omitempty"`
	Fields []string `json:"fields,omitempty"`
	Sort   any      `json:"sort,omitempty"`
}

// MultiDataRef unions domains read from several tables.
type MultiDataRef struct {
	Fields []*DataRef `json:"fields"`
	Sort   any        `json:"sort,omitempty"`
}

// DomainSort orders a discrete domain by an aggregate of a field.
type DomainSort struct {
	Field string `json:"field,omitempty"`
	Op    string `json:"op,omitempty"`
	Order string `json:"order,omitempty"`
}

// RangeStep sizes a discrete range by step. Step may be a number or a
// SignalRef.
type RangeStep struct {
	Step any `json:"step"`
}

// RangeScheme names a color scheme.
type RangeScheme struct {
	Scheme string `json:"scheme"`
}

// Axis is a positional guide.
type Axis struct {
	Scale     string             `json:"scale"`
	Orient    string             `json:"orient"`
	Title     string             `json:"title,omitempty"`
	Format    string             `json:"format,omitempty"`
	Grid      bool               `json:"grid,omitempty"`
	Layer     string             `json:"layer,omitempty"`
	TickCount *int               `json:"tickCount,omitempty"`
	TickSize  *float64           `json:"tickSize,omitempty"`
	Offset    *float64           `json:"offset,omitempty"`
	Encode    map[string]*Encode `json:"encode,omitempty"`
}

// Legend is a guide for a non-positional scale. Exactly one of the scale
// members is usually set; shared legends may set several.
type Legend struct {
	Fill    string             `json:"fill,omitempty"`
	Stroke  string             `json:"stroke,omitempty"`
	Size    string             `json:"size,omitempty"`
	Shape   string             `json:"shape,omitempty"`
	Opacity string             `json:"opacity,omitempty"`
	Title   string             `json:"title,omitempty"`
	Format  string             `json:"format,omitempty"`
	Orient  string             `json:"orient,omitempty"`
	Values  []any              `json:"values,omitempty"`
	Encode  map[string]*Encode `json:"encode,omitempty"`
}

// Scales returns every scale name the legend reads.
func (l *Legend) Scales() []string {
	var out []string
	for _, s := range []string{l.Fill, l.Stroke, l.Size, l.Shape, l.Opacity} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Layout arranges the group marks of a composition in a grid.
type Layout struct {
	Padding float64 `json:"padding"`
	Columns int     `json:"columns,omitempty"`
	Bounds  string  `json:"bounds,omitempty"`
}

// Mark is a primitive mark or, with Type "group", a container holding its
// own scales, guides and child marks.
type Mark struct {
	Name    string    `json:"name,omitempty"`
	Type    string    `json:"type"`
	Role    string    `json:"role,omitempty"`
	From    *From     `json:"from,omitempty"`
	Sort    *Compare  `json:"sort,omitempty"`
	Encode  *Encode   `json:"encode,omitempty"`
	Layout  *Layout   `json:"layout,omitempty"`
	Signals []*Signal `json:"signals,omitempty"`
	Scales  []*Scale  `json:"scales,omitempty"`
	Axes    []*Axis   `json:"axes,omitempty"`
	Legends []*Legend `json:"legends,omitempty"`
	Marks   []*Mark   `json:"marks,omitempty"`
}

// From binds a mark to a table or partitions a table per group.
type From struct {
	Data  string `json:"data,omitempty"`
	Facet *Facet `json:"facet,omitempty"`
}

// Facet partitions Data by Groupby; each partition is exposed to the
// group's children as the table Name.
type Facet struct {
	Name    string   `json:"name"`
	Data    string   `json:"data"`
	Groupby []string `json:"groupby"`
}

// Compare orders mark items.
type Compare struct {
	Field any `json:"field"`
	Order any `json:"order,omitempty"`
}

// Encode holds encoding property sets.
type Encode struct {
	Enter  Props `json:"enter,omitempty"`
	Update Props `json:"update,omitempty"`
}

// Props maps visual properties to value references.
type Props map[string]*ValueRef

// ValueRef produces a visual value: a literal, a field passed through a
// scale, a band position, or a signal expression.
type ValueRef struct {
	Value  any      `json:"value,omitempty"`
	Field  any      `json:"field,omitempty"`
	Scale  string   `json:"scale,omitempty"`
	Band   any      `json:"band,omitempty"`
	Offset any      `json:"offset,omitempty"`
	Mult   *float64 `json:"mult,omitempty"`
	Signal string   `json:"signal,omitempty"`
}

// GroupField references a property of the enclosing group, e.g. its width.
type GroupField struct {
	Group string `json:"group"`
}
