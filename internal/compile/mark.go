package compile

import (
	"fmt"

	"github.com/matthewbaird/vegalite/internal/spec"
	"github.com/matthewbaird/vegalite/internal/vega"
)

// markRules encode each mark type. Every rule handles the presence or
// absence of each channel the mark supports.
var markRules = map[spec.Mark]func(*Model) vega.Props{
	spec.MarkBar:    barProps,
	spec.MarkPoint:  pointProps,
	spec.MarkCircle: pointProps,
	spec.MarkSquare: pointProps,
	spec.MarkTick:   tickProps,
	spec.MarkLine:   lineProps,
	spec.MarkArea:   areaProps,
	spec.MarkText:   textProps,
	spec.MarkRect:   rectProps,
}

func scaled(scale, field string) *vega.ValueRef {
	return &vega.ValueRef{Scale: scale, Field: field}
}

func value(v any) *vega.ValueRef {
	return &vega.ValueRef{Value: v}
}

func groupField(name string) *vega.ValueRef {
	return &vega.ValueRef{Field: vega.GroupField{Group: name}}
}

// pos returns the column drawn on ch. Binned fields on a continuous scale
// are drawn at the bin middle.
func (u *Model) pos(ch spec.Channel) string {
	if u.fieldDef(ch).Bin != nil && !u.isDiscrete(ch) {
		return u.field(ch, spec.FieldRefOptions{BinSuffix: spec.BinMid})
	}
	return u.field(ch, spec.FieldRefOptions{})
}

// bandScale reports whether the merged scale of the x or y channel ch is
// a band scale.
func (u *Model) bandScale(ch spec.Channel) bool {
	if !u.has(ch) || (ch != spec.X && ch != spec.Y) {
		return false
	}
	name := u.scaleName(ch)
	for n := u; n != nil; n = n.parent {
		for _, sc := range n.component.scales {
			if sc.name == name {
				return sc.typ == spec.ScaleBand
			}
		}
	}
	return false
}

// position returns the scaled field drawn on ch, centered in its band on
// band scales.
func (u *Model) position(ch spec.Channel) *vega.ValueRef {
	ref := scaled(u.scaleName(ch), u.pos(ch))
	if u.bandScale(ch) {
		ref.Band = 0.5
	}
	return ref
}

// encodeChannel returns the scaled field of ch, the literal value it was
// given, or def.
func (u *Model) encodeChannel(ch spec.Channel, def any) *vega.ValueRef {
	if u.has(ch) {
		return u.position(ch)
	}
	if fd := u.fieldDef(ch); fd != nil && fd.Value != nil {
		return value(fd.Value)
	}
	if def == nil {
		return nil
	}
	return value(def)
}

// paint sets the color and opacity of the mark.
func (u *Model) paint(p vega.Props) {
	filled := u.filled()
	key := "stroke"
	if filled {
		key = "fill"
	}
	p[key] = u.encodeChannel(spec.Color, u.config.Mark.Color)
	if !filled {
		p["strokeWidth"] = value(u.config.Mark.StrokeWidth)
	}

	var def any
	switch {
	case u.config.Mark.Opacity != nil:
		def = *u.config.Mark.Opacity
	case !filled && (u.mark == spec.MarkPoint || u.mark == spec.MarkCircle || u.mark == spec.MarkSquare):
		def = 0.7
	}
	if ref := u.encodeChannel(spec.Opacity, def); ref != nil {
		p["opacity"] = ref
	}
}

func barProps(u *Model) vega.Props {
	p := vega.Props{}
	cfg := u.config.Bar
	st := u.component.stack

	xs, ys := u.scaleName(spec.X), u.scaleName(spec.Y)
	switch {
	case st != nil && st.measure == spec.X:
		p["x"] = scaled(xs, st.start())
		p["x2"] = scaled(xs, st.end())
	case u.has(spec.X) && u.fieldDef(spec.X).Bin != nil && !u.isDiscrete(spec.X):
		p["x"] = &vega.ValueRef{Scale: xs, Field: u.field(spec.X, spec.FieldRefOptions{BinSuffix: spec.BinStart}), Offset: cfg.BinSpacing}
		p["x2"] = scaled(xs, u.field(spec.X, spec.FieldRefOptions{BinSuffix: spec.BinEnd}))
	case u.isMeasure(spec.X):
		p["x"] = scaled(xs, u.pos(spec.X))
		if !u.has(spec.Y) || u.isDimension(spec.Y) {
			p["x2"] = &vega.ValueRef{Scale: xs, Value: 0}
		}
	case u.has(spec.X):
		p["xc"] = u.position(spec.X)
	default:
		p["x"] = &vega.ValueRef{Value: 0, Offset: cfg.SingleBarOffset}
	}
	if p["x2"] == nil {
		p["width"] = u.barSize(spec.X)
	}

	switch {
	case st != nil && st.measure == spec.Y:
		p["y"] = scaled(ys, st.start())
		p["y2"] = scaled(ys, st.end())
	case u.has(spec.Y) && u.fieldDef(spec.Y).Bin != nil && !u.isDiscrete(spec.Y):
		p["y"] = scaled(ys, u.field(spec.Y, spec.FieldRefOptions{BinSuffix: spec.BinStart}))
		p["y2"] = &vega.ValueRef{Scale: ys, Field: u.field(spec.Y, spec.FieldRefOptions{BinSuffix: spec.BinEnd}), Offset: cfg.BinSpacing}
	case u.isMeasure(spec.Y):
		p["y"] = scaled(ys, u.pos(spec.Y))
		if !u.has(spec.X) || u.isDimension(spec.X) {
			p["y2"] = &vega.ValueRef{Scale: ys, Value: 0}
		}
	case u.has(spec.Y):
		p["yc"] = u.position(spec.Y)
	default:
		p["y2"] = &vega.ValueRef{Field: vega.GroupField{Group: "height"}, Offset: -cfg.SingleBarOffset}
	}
	if p["y2"] == nil || !u.has(spec.Y) {
		p["height"] = u.barSize(spec.Y)
	}

	u.paint(p)
	return p
}

// barSize is the thickness of a bar across ch.
func (u *Model) barSize(ch spec.Channel) *vega.ValueRef {
	if u.has(ch) && !u.isDiscrete(ch) {
		return value(u.config.Bar.ContinuousBandSize)
	}
	if u.has(spec.Size) {
		return scaled(u.scaleName(spec.Size), u.pos(spec.Size))
	}
	if u.bandScale(ch) {
		return &vega.ValueRef{Scale: u.scaleName(ch), Band: true, Offset: -1}
	}
	return &vega.ValueRef{Value: u.rangeStep(ch), Offset: -1}
}

func pointProps(u *Model) vega.Props {
	p := vega.Props{}
	sym := u.config.Symbol(u.mark)
	p["x"] = u.encodeChannel(spec.X, u.defaultStep(spec.X)/2)
	p["y"] = u.encodeChannel(spec.Y, u.defaultStep(spec.Y)/2)
	p["size"] = u.encodeChannel(spec.Size, sym.Size)
	switch u.mark {
	case spec.MarkPoint:
		p["shape"] = u.encodeChannel(spec.Shape, sym.Shape)
	default:
		p["shape"] = value(string(u.mark))
	}
	u.paint(p)
	return p
}

func tickProps(u *Model) vega.Props {
	p := vega.Props{}
	cfg := u.config.Tick
	band := u.minXYStep()
	if cfg.BandSize != nil {
		band = *cfg.BandSize
	}

	for _, ch := range []spec.Channel{spec.X, spec.Y} {
		key, extent := string(ch), "width"
		if ch == spec.Y {
			extent = "height"
		}
		if u.has(ch) {
			ref := u.position(ch)
			if u.isDimension(ch) {
				ref.Offset = -band / 3
			}
			p[key] = ref
		} else {
			p[key] = value(0)
		}
		if !u.has(ch) || u.isDimension(ch) {
			p[extent] = value(band / 1.5)
		} else {
			p[extent] = value(cfg.Thickness)
		}
	}
	u.paint(p)
	return p
}

func lineProps(u *Model) vega.Props {
	p := vega.Props{}
	p["x"] = u.encodeChannel(spec.X, 0)
	if u.has(spec.Y) {
		p["y"] = u.position(spec.Y)
	} else {
		p["y"] = groupField("height")
	}
	if u.config.Mark.Interpolate != "" {
		p["interpolate"] = value(u.config.Mark.Interpolate)
	}
	u.paint(p)
	return p
}

func areaProps(u *Model) vega.Props {
	p := vega.Props{}
	st := u.component.stack
	xs, ys := u.scaleName(spec.X), u.scaleName(spec.Y)
	horizontal := (st != nil && st.measure == spec.X) || (u.isMeasure(spec.X) && !u.isMeasure(spec.Y))
	if horizontal {
		p["orient"] = value("horizontal")
	}

	switch {
	case st != nil && st.measure == spec.X:
		p["x"] = scaled(xs, st.start())
		p["x2"] = scaled(xs, st.end())
	case u.has(spec.X):
		p["x"] = u.position(spec.X)
		if horizontal {
			p["x2"] = &vega.ValueRef{Scale: xs, Value: 0}
		}
	default:
		p["x"] = value(0)
	}

	switch {
	case st != nil && st.measure == spec.Y:
		p["y"] = scaled(ys, st.start())
		p["y2"] = scaled(ys, st.end())
	case u.has(spec.Y):
		p["y"] = u.position(spec.Y)
		if !horizontal && u.isMeasure(spec.Y) {
			p["y2"] = &vega.ValueRef{Scale: ys, Value: 0}
		}
	default:
		p["y"] = groupField("height")
	}

	if u.config.Mark.Interpolate != "" {
		p["interpolate"] = value(u.config.Mark.Interpolate)
	}
	u.paint(p)
	return p
}

func textProps(u *Model) vega.Props {
	p := vega.Props{}
	cfg := u.config.Text
	fd := u.fieldDef(spec.Text)

	switch {
	case u.has(spec.X):
		p["x"] = u.position(spec.X)
	case fd != nil && fd.Type == spec.Quantitative:
		p["x"] = &vega.ValueRef{Field: vega.GroupField{Group: "width"}, Offset: -5}
	default:
		p["x"] = value(u.defaultStep(spec.X) / 2)
	}
	p["y"] = u.encodeChannel(spec.Y, u.defaultStep(spec.Y)/2)
	p["fontSize"] = u.encodeChannel(spec.Size, cfg.FontSize)

	switch {
	case u.has(spec.Text) && (fd.Type == spec.Quantitative || fd.IsCount()):
		format := cfg.Format
		if format == "" {
			format = u.config.NumberFormat
		}
		p["text"] = &vega.ValueRef{Signal: fmt.Sprintf("format(%s, '%s')", u.field(spec.Text, spec.FieldRefOptions{Datum: true}), format)}
	case u.has(spec.Text):
		p["text"] = &vega.ValueRef{Field: u.field(spec.Text, spec.FieldRefOptions{})}
	case fd != nil && fd.Value != nil:
		p["text"] = value(fd.Value)
	}

	p["fill"] = value(cfg.Color)
	if cfg.Align != "" {
		p["align"] = value(cfg.Align)
	}
	if cfg.Baseline != "" {
		p["baseline"] = value(cfg.Baseline)
	}
	if ref := u.encodeChannel(spec.Opacity, nil); ref != nil {
		p["opacity"] = ref
	} else if u.config.Mark.Opacity != nil {
		p["opacity"] = value(*u.config.Mark.Opacity)
	}
	return p
}

func rectProps(u *Model) vega.Props {
	p := vega.Props{}
	for _, ch := range []spec.Channel{spec.X, spec.Y} {
		key, extent := string(ch), "width"
		if ch == spec.Y {
			extent = "height"
		}
		scale := u.scaleName(ch)
		fd := u.fieldDef(ch)
		switch {
		case !u.has(ch):
			p[key] = value(0)
			p[extent] = groupField(extent)
		case fd.Bin != nil && !u.isDiscrete(ch):
			p[key] = scaled(scale, u.field(ch, spec.FieldRefOptions{BinSuffix: spec.BinStart}))
			p[key+"2"] = scaled(scale, u.field(ch, spec.FieldRefOptions{BinSuffix: spec.BinEnd}))
		case u.bandScale(ch):
			p[key] = scaled(scale, u.pos(ch))
			p[extent] = &vega.ValueRef{Scale: scale, Band: true}
		case u.isDiscrete(ch):
			p[key+"c"] = scaled(scale, u.pos(ch))
			p[extent] = value(u.rangeStep(ch))
		default:
			p[key] = scaled(scale, u.pos(ch))
			p[extent] = value(u.config.Bar.ContinuousBandSize)
		}
	}
	u.paint(p)
	return p
}

// parseUnitMarks encodes the unit's mark and gathers what the unit
// contributes to its enclosing group.
func parseUnitMarks(u *Model) error {
	rule, ok := markRules[u.mark]
	if !ok {
		return &InvariantError{Op: "mark", Err: fmt.Errorf("no encoding rule for mark %q", u.mark)}
	}
	data := u.resolveData(u.component.main)
	main := &vega.Mark{
		Name:   u.getName("marks"),
		Type:   spec.Marks.Lookup(u.mark).Render,
		From:   &vega.From{Data: data},
		Encode: &vega.Encode{Update: rule(u)},
	}
	if u.mark == spec.MarkLine && u.has(spec.X) {
		main.Sort = &vega.Compare{Field: u.field(spec.X, spec.FieldRefOptions{Datum: true})}
	}

	var marks []*vega.Mark
	if u.mark == spec.MarkText && u.has(spec.Color) {
		marks = append(marks, &vega.Mark{
			Name: u.getName("background"),
			Type: "rect",
			From: &vega.From{Data: data},
			Encode: &vega.Encode{Update: vega.Props{
				"x":      value(0),
				"y":      value(0),
				"width":  groupField("width"),
				"height": groupField("height"),
				"fill":   scaled(u.scaleName(spec.Color), u.field(spec.Color, spec.FieldRefOptions{})),
			}},
		})
	}

	if groupby := u.pathGroupby(); len(groupby) > 0 {
		facet := u.getName("pathgroup_facet")
		main.From = &vega.From{Data: facet}
		marks = append(marks, &vega.Mark{
			Name: u.getName("pathgroup"),
			Type: "group",
			From: &vega.From{Facet: &vega.Facet{Name: facet, Data: data, Groupby: groupby}},
			Encode: &vega.Encode{Update: vega.Props{
				"width":  groupField("width"),
				"height": groupField("height"),
			}},
			Marks: []*vega.Mark{main},
		})
	} else {
		marks = append(marks, main)
	}

	u.component.group = &group{
		marks:   marks,
		scales:  assembleScales(u.component.scales),
		axes:    assembleAxes(u.component.axes),
		legends: assembleLegends(u.component.legends),
	}
	return nil
}

// pathGroupby lists the fields splitting a line or area into one path per
// series.
func (u *Model) pathGroupby() []string {
	if u.mark != spec.MarkLine && u.mark != spec.MarkArea {
		return nil
	}
	var out []string
	for _, ch := range []spec.Channel{spec.Color, spec.Detail} {
		if u.has(ch) {
			out = append(out, u.field(ch, spec.FieldRefOptions{}))
		}
	}
	return out
}

func assembleAxes(acs []*axisComponent) []*vega.Axis {
	out := make([]*vega.Axis, len(acs))
	for i, ac := range acs {
		out[i] = ac.axis
	}
	return out
}

func assembleLegends(lcs []*legendComponent) []*vega.Legend {
	out := make([]*vega.Legend, len(lcs))
	for i, lc := range lcs {
		out[i] = lc.legend
	}
	return out
}
