package compile

import (
	"slices"
	"sort"

	"github.com/matthewbaird/vegalite/internal/spec"
	"github.com/matthewbaird/vegalite/internal/vega"
)

// selectionComponent is the compiled structure of one named selection.
type selectionComponent struct {
	name       string
	typ        spec.SelectionType
	owner      *Model
	fields     []projectedField
	bindScales []spec.Channel
}

type projectedField struct {
	field   string
	channel spec.Channel
}

func (s *selectionComponent) store() string       { return s.name + "_store" }
func (s *selectionComponent) tupleFields() string { return s.name + "_tuple_fields" }

func (s *selectionComponent) scaleSignal(ch spec.Channel) string {
	return s.name + "_" + string(ch)
}

// parseUnitSelection compiles the selections declared on a unit. Only the
// structure is produced: the store table, the projected fields and the
// signals bound scales read their domain from.
func parseUnitSelection(u *Model) error {
	names := make([]string, 0, len(u.spec.Selection))
	for name := range u.spec.Selection {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sel := u.spec.Selection[name]
		sc := &selectionComponent{name: name, typ: sel.Type, owner: u}
		sc.fields = u.projection(sel)

		if sel.BindsScales() {
			if sel.Type != spec.SelectInterval {
				u.c.warn(WarnSelectionTransform, "selection %q: binding scales requires an interval selection", name)
			} else {
				for _, f := range sc.fields {
					if f.channel.IsSpatial() && !u.isDiscrete(f.channel) {
						sc.bindScales = append(sc.bindScales, f.channel)
					}
				}
			}
		}
		for _, t := range []struct {
			name string
			on   bool
		}{
			{"translate", spec.Enabled(sel.Translate)},
			{"zoom", spec.Enabled(sel.Zoom)},
		} {
			if t.on && sel.Type != spec.SelectInterval {
				u.c.warn(WarnSelectionTransform, "selection %q: %s is only supported for interval selections", name, t.name)
			}
		}
		u.component.selections = append(u.component.selections, sc)
	}
	return nil
}

// projection lists the fields a selection records. Interval selections
// default to the encoded x and y fields; point selections to the row id.
func (u *Model) projection(sel *spec.Selection) []projectedField {
	var out []projectedField
	if p := sel.Project; p != nil {
		for _, f := range p.Fields {
			out = append(out, projectedField{field: f})
		}
		for _, ch := range p.Encodings {
			if u.has(ch) {
				out = append(out, projectedField{field: u.field(ch, spec.FieldRefOptions{}), channel: ch})
			}
		}
		return out
	}
	if sel.Type == spec.SelectInterval {
		for _, ch := range []spec.Channel{spec.X, spec.Y} {
			if u.has(ch) {
				out = append(out, projectedField{field: u.field(ch, spec.FieldRefOptions{}), channel: ch})
			}
		}
		return out
	}
	return []projectedField{{field: "_vgsid_"}}
}

// collectSelections gathers the children's selections so they can be
// referenced across views. Names are global to a specification.
func collectSelections(m *Model) error {
	for _, child := range m.children {
		for _, sc := range child.component.selections {
			if slices.ContainsFunc(m.component.selections, func(have *selectionComponent) bool {
				return have.name == sc.name
			}) {
				return &spec.ValidationError{Path: "$.selection." + sc.name, Message: "duplicate selection name"}
			}
			m.component.selections = append(m.component.selections, sc)
		}
	}
	return nil
}

// selectionDomain returns the signal a bound scale on ch reads its domain
// from, if any.
func (u *Model) selectionDomain(ch spec.Channel) string {
	for _, sc := range u.component.selections {
		if slices.Contains(sc.bindScales, ch) {
			return sc.scaleSignal(ch)
		}
	}
	return ""
}

func (s *selectionComponent) assembleSignals() []*vega.Signal {
	tuple := make([]map[string]any, len(s.fields))
	for i, f := range s.fields {
		t := map[string]any{"field": f.field, "type": "E"}
		if f.channel != "" {
			t["channel"] = string(f.channel)
		}
		if s.typ == spec.SelectInterval {
			t["type"] = "R"
		}
		tuple[i] = t
	}
	out := []*vega.Signal{{Name: s.tupleFields(), Value: tuple}}
	for _, ch := range s.bindScales {
		out = append(out, &vega.Signal{Name: s.scaleSignal(ch)})
	}
	return out
}

func (s *selectionComponent) assembleData() *vega.Data {
	return &vega.Data{Name: s.store()}
}
