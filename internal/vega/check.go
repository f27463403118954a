package vega

import (
	"fmt"
	"regexp"
	"sort"
)

// RefError reports a reference to a name that is not defined in scope.
type RefError struct {
	Kind  string // "data", "scale" or "signal"
	Name  string
	Where string
}

func (e *RefError) Error() string {
	return fmt.Sprintf("%s: undefined %s %q", e.Where, e.Kind, e.Name)
}

// builtinSignals are defined by the renderer in every scope.
var builtinSignals = []string{"width", "height", "padding", "autosize", "background"}

var (
	exprRef   = regexp.MustCompile(`\b(domain|data|scale|bandwidth|range)\('([^']+)'\)`)
	signalRef = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
)

// scope holds the names visible at one level of the mark tree. Names from
// enclosing scopes stay visible.
type scope struct {
	parent  *scope
	data    map[string]bool
	scales  map[string]bool
	signals map[string]bool
}

func newScope(parent *scope) *scope {
	return &scope{
		parent:  parent,
		data:    make(map[string]bool),
		scales:  make(map[string]bool),
		signals: make(map[string]bool),
	}
}

func (s *scope) has(kind, name string) bool {
	for sc := s; sc != nil; sc = sc.parent {
		var m map[string]bool
		switch kind {
		case "data":
			m = sc.data
		case "scale":
			m = sc.scales
		case "signal":
			m = sc.signals
		}
		if m[name] {
			return true
		}
	}
	return false
}

// Check verifies that every data, scale and signal reference in s resolves
// to a definition visible from where it is used. A group's own encoding is
// checked inside the group's scope.
func Check(s *Spec) error {
	root := newScope(nil)
	for _, name := range builtinSignals {
		root.signals[name] = true
	}
	c := &checker{}
	c.block(root, "$", s.Signals, s.Data, s.Scales, s.Axes, s.Legends, s.Marks)
	if len(c.errs) > 0 {
		return c.errs[0]
	}
	return nil
}

type checker struct {
	errs []error
}

func (c *checker) need(sc *scope, kind, name, where string) {
	if name == "" || sc.has(kind, name) {
		return
	}
	c.errs = append(c.errs, &RefError{Kind: kind, Name: name, Where: where})
}

func (c *checker) expr(sc *scope, expr, where string) {
	if signalRef.MatchString(expr) {
		c.need(sc, "signal", expr, where)
		return
	}
	for _, m := range exprRef.FindAllStringSubmatch(expr, -1) {
		kind := "scale"
		if m[1] == "data" {
			kind = "data"
		}
		c.need(sc, kind, m[2], where)
	}
}

func (c *checker) block(sc *scope, where string, signals []*Signal, data []*Data, scales []*Scale, axes []*Axis, legends []*Legend, marks []*Mark) {
	for _, sig := range signals {
		sc.signals[sig.Name] = true
	}
	for _, d := range data {
		sc.data[d.Name] = true
	}
	for _, s := range scales {
		sc.scales[s.Name] = true
	}

	for _, sig := range signals {
		if sig.Update != "" {
			c.expr(sc, sig.Update, where+".signals."+sig.Name)
		}
	}
	for _, d := range data {
		c.need(sc, "data", d.Source, where+".data."+d.Name)
	}
	for _, s := range scales {
		c.scale(sc, s, where+".scales."+s.Name)
	}
	for i, a := range axes {
		c.need(sc, "scale", a.Scale, fmt.Sprintf("%s.axes[%d]", where, i))
	}
	for i, l := range legends {
		for _, name := range l.Scales() {
			c.need(sc, "scale", name, fmt.Sprintf("%s.legends[%d]", where, i))
		}
	}
	for i, m := range marks {
		c.mark(sc, m, fmt.Sprintf("%s.marks[%d]", where, i))
	}
}

func (c *checker) scale(sc *scope, s *Scale, where string) {
	switch d := s.Domain.(type) {
	case *DataRef:
		c.need(sc, "data", d.Data, where+".domain")
	case *MultiDataRef:
		for _, ref := range d.Fields {
			c.need(sc, "data", ref.Data, where+".domain")
		}
	case *SignalRef:
		c.expr(sc, d.Signal, where+".domain")
	}
	if s.DomainRaw != nil {
		c.expr(sc, s.DomainRaw.Signal, where+".domainRaw")
	}
	if r, ok := s.Range.(*RangeStep); ok {
		if sig, ok := r.Step.(*SignalRef); ok {
			c.expr(sc, sig.Signal, where+".range.step")
		}
	}
}

func (c *checker) mark(sc *scope, m *Mark, where string) {
	inner := sc
	if m.Type == "group" {
		inner = newScope(sc)
	}
	if m.From != nil {
		c.need(sc, "data", m.From.Data, where+".from")
		if f := m.From.Facet; f != nil {
			c.need(sc, "data", f.Data, where+".from.facet")
			if m.Type == "group" {
				inner.data[f.Name] = true
			}
		}
	}
	if m.Type == "group" {
		for _, s := range m.Scales {
			inner.scales[s.Name] = true
		}
		for _, sig := range m.Signals {
			inner.signals[sig.Name] = true
		}
	}
	c.encode(inner, m.Encode, where+".encode")
	if m.Type == "group" {
		c.block(inner, where, m.Signals, nil, m.Scales, m.Axes, m.Legends, m.Marks)
	}
}

func (c *checker) encode(sc *scope, e *Encode, where string) {
	if e == nil {
		return
	}
	for _, props := range []Props{e.Enter, e.Update} {
		names := make([]string, 0, len(props))
		for name := range props {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			ref := props[name]
			if ref == nil {
				continue
			}
			c.need(sc, "scale", ref.Scale, where+"."+name)
			if ref.Signal != "" {
				c.expr(sc, ref.Signal, where+"."+name)
			}
		}
	}
}
