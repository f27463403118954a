package compile

import (
	"slices"
	"strconv"
	"strings"

	"github.com/matthewbaird/vegalite/internal/spec"
	"github.com/matthewbaird/vegalite/internal/vega"
)

// axisComponent is an axis and the titles of the views it serves.
type axisComponent struct {
	channel spec.Channel
	axis    *vega.Axis
	titles  []string
}

// axisRuleInput is what an axis rule sees. m is the unit, or the facet for
// row and column axes.
type axisRuleInput struct {
	m   *Model
	ch  spec.Channel
	fd  *spec.FieldDef
	def *spec.Axis
}

// axisRules fill an axis in order.
var axisRules = []struct {
	name string
	rule func(axisRuleInput, *vega.Axis)
}{
	{"orient", orientRule},
	{"title", titleRule},
	{"format", formatRule},
	{"grid", gridRule},
	{"ticks", ticksRule},
	{"tickSize", tickSizeRule},
	{"offset", offsetRule},
	{"labels", labelsRule},
}

func orientRule(in axisRuleInput, a *vega.Axis) {
	if in.def.Orient != "" {
		a.Orient = in.def.Orient
		return
	}
	switch in.ch {
	case spec.X:
		a.Orient = "bottom"
	case spec.Y:
		a.Orient = "left"
	case spec.Column:
		a.Orient = "top"
	case spec.Row:
		a.Orient = "right"
		if in.m.childAxisOrient(spec.Y) == "right" {
			a.Orient = "left"
		}
	}
}

func titleRule(in axisRuleInput, a *vega.Axis) {
	if in.def.Title != "" {
		a.Title = in.def.Title
		return
	}
	a.Title = spec.DefaultTitle(in.fd)
	limit := 0
	switch {
	case in.def.TitleMaxLength != nil:
		limit = *in.def.TitleMaxLength
	case in.ch.IsSpatial():
		if s := in.m.component.layout.get(in.ch); s.expr == "" && in.m.config.Axis.CharacterWidth > 0 {
			limit = int(s.value / in.m.config.Axis.CharacterWidth)
		}
	}
	a.Title = truncate(a.Title, limit)
}

// truncate shortens s to at most n runes, ending with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func formatRule(in axisRuleInput, a *vega.Axis) {
	switch {
	case in.def.Format != "":
		a.Format = in.def.Format
	case in.fd.Type == spec.Quantitative || in.fd.IsCount():
		a.Format = in.m.config.NumberFormat
	case in.fd.Type == spec.Temporal:
		a.Format = in.fd.TimeUnit.Format()
		if a.Format == "" {
			a.Format = in.m.config.TimeFormat
		}
	}
}

func gridRule(in axisRuleInput, a *vega.Axis) {
	switch {
	case in.def.Grid != nil:
		a.Grid = *in.def.Grid
	case in.ch.IsSpatial():
		a.Grid = !in.m.isDiscrete(in.ch) && in.fd.Bin == nil
	}
	if a.Grid {
		a.Layer = "back"
	}
}

func ticksRule(in axisRuleInput, a *vega.Axis) {
	switch {
	case in.def.Ticks != nil:
		a.TickCount = intPtr(*in.def.Ticks)
	case in.ch == spec.X && in.fd.Bin == nil && !in.m.isDiscrete(in.ch):
		a.TickCount = intPtr(in.m.config.Axis.TickCount)
	}
}

func tickSizeRule(in axisRuleInput, a *vega.Axis) {
	switch {
	case in.def.TickSize != nil:
		a.TickSize = floatPtr(*in.def.TickSize)
	case in.ch.IsFacet():
		a.TickSize = floatPtr(0)
	}
}

func offsetRule(in axisRuleInput, a *vega.Axis) {
	if in.def.Offset != nil {
		a.Offset = floatPtr(*in.def.Offset)
	}
}

func labelsRule(in axisRuleInput, a *vega.Axis) {
	labels := vega.Props{}
	if in.ch == spec.X && (in.fd.IsDimension() || in.fd.Type == spec.Temporal) {
		angle := 270.0
		if in.def.LabelAngle != nil {
			angle = *in.def.LabelAngle
		}
		labels["angle"] = &vega.ValueRef{Value: angle}
		labels["align"] = &vega.ValueRef{Value: "right"}
		if a.Orient == "top" {
			labels["align"] = &vega.ValueRef{Value: "left"}
		}
		labels["baseline"] = &vega.ValueRef{Value: "middle"}
	} else if in.def.LabelAngle != nil {
		labels["angle"] = &vega.ValueRef{Value: *in.def.LabelAngle}
	}
	if in.fd.Type == spec.Nominal || in.fd.Type == spec.Ordinal {
		n := in.m.config.Axis.LabelMaxLength
		if in.def.LabelMaxLength != nil {
			n = *in.def.LabelMaxLength
		}
		if n > 0 {
			labels["text"] = &vega.ValueRef{Signal: "truncate(datum.value, " + strconv.Itoa(n) + ")"}
		}
	}
	if in.ch == spec.Row && a.Orient == "right" {
		labels["angle"] = &vega.ValueRef{Value: 90}
		labels["align"] = &vega.ValueRef{Value: "center"}
		labels["baseline"] = &vega.ValueRef{Value: "bottom"}
	}

	enc := make(map[string]*vega.Encode)
	if len(labels) > 0 {
		enc["labels"] = &vega.Encode{Update: labels}
	}
	if in.ch.IsFacet() {
		enc["domain"] = &vega.Encode{Update: vega.Props{"opacity": {Value: 0}}}
	}
	if len(enc) > 0 {
		a.Encode = enc
	}
}

// axis builds the axis of ch on m with scale scale.
func (m *Model) axis(ch spec.Channel, fd *spec.FieldDef, scale string) *axisComponent {
	def := fd.Axis
	if def == nil {
		def = &spec.Axis{}
	}
	a := &vega.Axis{Scale: scale}
	in := axisRuleInput{m: m, ch: ch, fd: fd, def: def}
	for _, r := range axisRules {
		r.rule(in, a)
	}
	return &axisComponent{channel: ch, axis: a, titles: []string{a.Title}}
}

func parseUnitAxes(u *Model) error {
	for _, ch := range []spec.Channel{spec.X, spec.Y} {
		if !u.has(ch) {
			continue
		}
		fd := u.fieldDef(ch)
		if fd.Axis != nil && fd.Axis.Disabled {
			continue
		}
		u.component.axes = append(u.component.axes, u.axis(ch, fd, u.scaleName(ch)))
	}
	return nil
}

// mergeChildAxes moves shared x and y axes of the children up to m, one
// axis per channel titled after every view it serves. Independent axes of
// layered views after the first move to the opposite side.
func mergeChildAxes(m *Model) error {
	for _, ch := range []spec.Channel{spec.X, spec.Y} {
		var found []*axisComponent
		for _, child := range m.children {
			for _, ac := range child.component.axes {
				if ac.channel == ch {
					found = append(found, ac)
				}
			}
		}
		if len(found) == 0 {
			continue
		}
		if m.guideResolve(ch) == spec.Independent {
			if m.kind == spec.KindLayer {
				for _, ac := range found[1:] {
					flipOrient(ac.axis)
				}
			}
			continue
		}

		merged := &axisComponent{channel: ch}
		cp := *found[0].axis
		merged.axis = &cp
		for _, ac := range found {
			for _, t := range ac.titles {
				if !slices.Contains(merged.titles, t) {
					merged.titles = append(merged.titles, t)
				}
			}
		}
		merged.axis.Title = strings.Join(merged.titles, ", ")
		for _, child := range m.children {
			child.component.axes = slices.DeleteFunc(child.component.axes, func(ac *axisComponent) bool {
				return ac.channel == ch
			})
		}
		m.component.axes = append(m.component.axes, merged)
	}
	return nil
}

func flipOrient(a *vega.Axis) {
	switch a.Orient {
	case "bottom":
		a.Orient = "top"
	case "left":
		a.Orient = "right"
	}
}

// parseFacetAxes takes over the cell's shared axes and adds the row and
// column header axes.
func parseFacetAxes(f *Model) error {
	if err := mergeChildAxes(f); err != nil {
		return err
	}
	for _, ch := range []spec.Channel{spec.Column, spec.Row} {
		fd := f.facet.Get(ch)
		if fd == nil || (fd.Axis != nil && fd.Axis.Disabled) {
			continue
		}
		f.component.axes = append(f.component.axes, f.axis(ch, fd, f.scaleName(ch)))
	}
	return nil
}

// childAxisOrient returns the orient of the first axis of ch at or below
// m, or "".
func (m *Model) childAxisOrient(ch spec.Channel) string {
	for _, ac := range m.component.axes {
		if ac.channel == ch {
			return ac.axis.Orient
		}
	}
	for _, child := range m.children {
		if o := child.childAxisOrient(ch); o != "" {
			return o
		}
	}
	return ""
}
