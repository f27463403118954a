package compile

import (
	"slices"
	"strings"

	"github.com/matthewbaird/vegalite/internal/spec"
	"github.com/matthewbaird/vegalite/internal/vega"
)

var legendChannels = []spec.Channel{spec.Color, spec.Size, spec.Shape, spec.Opacity}

type legendComponent struct {
	channel spec.Channel
	legend  *vega.Legend
	titles  []string
}

func parseUnitLegends(u *Model) error {
	for _, ch := range legendChannels {
		if !u.has(ch) {
			continue
		}
		fd := u.fieldDef(ch)
		def := fd.Legend
		if def == nil {
			def = &spec.Legend{}
		}
		if def.Disabled {
			continue
		}

		l := &vega.Legend{
			Title:  def.Title,
			Format: def.Format,
			Orient: def.Orient,
			Values: def.Values,
		}
		if l.Title == "" {
			l.Title = spec.DefaultTitle(fd)
		}
		if l.Orient == "" {
			l.Orient = u.config.Legend.Orient
		}
		if l.Format == "" && fd.Type == spec.Temporal {
			l.Format = fd.TimeUnit.Format()
		}

		scale := u.scaleName(ch)
		switch ch {
		case spec.Color:
			if u.filled() {
				l.Fill = scale
			} else {
				l.Stroke = scale
			}
		case spec.Size:
			l.Size = scale
		case spec.Shape:
			l.Shape = scale
		case spec.Opacity:
			l.Opacity = scale
		}
		if symbols := u.legendSymbols(); len(symbols) > 0 {
			l.Encode = map[string]*vega.Encode{"symbols": {Update: symbols}}
		}
		u.component.legends = append(u.component.legends, &legendComponent{channel: ch, legend: l, titles: []string{l.Title}})
	}
	return nil
}

// filled reports whether the unit's mark paints its interior.
func (u *Model) filled() bool {
	switch u.mark {
	case spec.MarkPoint, spec.MarkCircle, spec.MarkSquare:
		return u.config.Symbol(u.mark).Filled
	}
	return spec.Marks.Lookup(u.mark).Filled
}

// legendSymbols styles legend symbols after the mark.
func (u *Model) legendSymbols() vega.Props {
	p := vega.Props{}
	switch u.mark {
	case spec.MarkBar, spec.MarkTick, spec.MarkText, spec.MarkRect, spec.MarkArea:
		p["shape"] = &vega.ValueRef{Value: "square"}
	case spec.MarkCircle, spec.MarkSquare:
		p["shape"] = &vega.ValueRef{Value: string(u.mark)}
	case spec.MarkLine:
		return p
	}
	if u.filled() {
		p["stroke"] = &vega.ValueRef{Value: "transparent"}
	} else {
		p["fill"] = &vega.ValueRef{Value: "transparent"}
		p["strokeWidth"] = &vega.ValueRef{Value: u.config.Mark.StrokeWidth}
	}
	return p
}

// mergeChildLegends moves shared legends of the children up to m. Legends
// of one channel merge into one, titled after every view it serves.
func mergeChildLegends(m *Model) error {
	for _, ch := range legendChannels {
		var found []*legendComponent
		for _, child := range m.children {
			for _, lc := range child.component.legends {
				if lc.channel == ch {
					found = append(found, lc)
				}
			}
		}
		if len(found) == 0 || m.guideResolve(ch) == spec.Independent {
			continue
		}

		cp := *found[0].legend
		merged := &legendComponent{channel: ch, legend: &cp}
		for _, lc := range found {
			for _, t := range lc.titles {
				if !slices.Contains(merged.titles, t) {
					merged.titles = append(merged.titles, t)
				}
			}
			if merged.legend.Fill == "" {
				merged.legend.Fill = lc.legend.Fill
			}
			if merged.legend.Stroke == "" {
				merged.legend.Stroke = lc.legend.Stroke
			}
		}
		merged.legend.Title = strings.Join(merged.titles, ", ")
		for _, child := range m.children {
			child.component.legends = slices.DeleteFunc(child.component.legends, func(lc *legendComponent) bool {
				return lc.channel == ch
			})
		}
		m.component.legends = append(m.component.legends, merged)
	}
	return nil
}
