package compile

import (
	"fmt"
	"reflect"
	"slices"

	"github.com/matthewbaird/vegalite/internal/spec"
	"github.com/matthewbaird/vegalite/internal/timeunit"
	"github.com/matthewbaird/vegalite/internal/vega"
)

// scaleComponent is a scale before assembly. Data domains are kept as
// parts naming tables by their local names; they are resolved when the
// scale is assembled, after every rename is known.
type scaleComponent struct {
	name    string
	channel spec.Channel
	typ     spec.ScaleType
	fd      *spec.FieldDef

	domain    []any
	parts     []domainPart
	domainRaw string

	rng         any
	rngExplicit bool

	props    map[string]any
	explicit map[string]bool
}

// domainPart reads a domain from one table. A nil owner means data is a
// global name.
type domainPart struct {
	owner  *Model
	data   string
	fields []string
	sort   any
}

// scaleType picks the scale type of ch for fd.
func scaleType(ch spec.Channel, fd *spec.FieldDef) spec.ScaleType {
	switch ch {
	case spec.Row, spec.Column, spec.Shape:
		return spec.ScaleOrdinal
	}
	if fd.Scale != nil && fd.Scale.Type != "" {
		return fd.Scale.Type
	}
	switch fd.Type {
	case spec.Nominal, spec.Ordinal:
		return spec.ScaleOrdinal
	case spec.Temporal:
		if ch == spec.Color {
			return spec.ScaleTime
		}
		if fd.TimeUnit.Cyclical() {
			return spec.ScaleOrdinal
		}
		return spec.ScaleTime
	}
	if fd.Bin != nil && ch != spec.X && ch != spec.Y && ch != spec.Color {
		return spec.ScaleOrdinal
	}
	return spec.ScaleLinear
}

// scaleRuleInput is what a property rule sees.
type scaleRuleInput struct {
	u   *Model
	ch  spec.Channel
	typ spec.ScaleType
	fd  *spec.FieldDef
}

// scaleProperties are applied in order. A rule returns nil to leave the
// property unset. Explicit values on the field's scale win over the rule.
var scaleProperties = []struct {
	name string
	rule func(scaleRuleInput) any
}{
	{"round", roundRule},
	{"clamp", nil},
	{"nice", niceRule},
	{"exponent", nil},
	{"zero", zeroRule},
	{"padding", paddingRule},
	{"reverse", reverseRule},
}

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func roundRule(in scaleRuleInput) any {
	switch in.ch {
	case spec.X, spec.Y, spec.Row, spec.Column, spec.Size:
		return boolPtr(true)
	}
	return nil
}

func niceRule(in scaleRuleInput) any {
	if in.ch.IsSpatial() && !in.typ.IsDiscrete() && in.typ != spec.ScaleTime && in.typ != spec.ScaleUTC &&
		in.typ.SupportsProperty("nice") {
		return boolPtr(true)
	}
	return nil
}

func zeroRule(in scaleRuleInput) any {
	if !in.typ.SupportsProperty("zero") {
		return nil
	}
	switch {
	case in.fd.Bin != nil:
		return boolPtr(false)
	case in.fd.TimeUnit == timeunit.Year:
		return boolPtr(false)
	case in.ch.IsSpatial() && in.fd.Type != spec.Temporal && in.typ == spec.ScaleLinear &&
		(in.fd.Scale == nil || len(in.fd.Scale.Domain) == 0):
		return boolPtr(true)
	}
	return nil
}

// paddingRule pads point scales by half a step at each end. Band scales
// keep no padding; their marks leave one pixel between bands.
func paddingRule(in scaleRuleInput) any {
	if in.typ == spec.ScalePoint {
		return floatPtr(in.u.config.Scale.Padding)
	}
	return nil
}

func reverseRule(in scaleRuleInput) any {
	if in.typ.IsDiscrete() && in.fd.Sort.Descending() {
		return boolPtr(true)
	}
	return nil
}

// explicitProp returns the user value of a property, if set.
func explicitProp(s *spec.Scale, name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	var b *bool
	var f *float64
	switch name {
	case "round":
		b = s.Round
	case "clamp":
		b = s.Clamp
	case "nice":
		b = s.Nice
	case "zero":
		b = s.Zero
	case "reverse":
		b = s.Reverse
	case "padding":
		f = s.Padding
	case "exponent":
		f = s.Exponent
	}
	switch {
	case b != nil:
		return b, true
	case f != nil:
		return f, true
	}
	return nil, false
}

// parseUnitScales creates one scale per scaled channel of a unit.
func parseUnitScales(u *Model) error {
	for _, ch := range spec.ScaleChannels {
		if !u.has(ch) {
			continue
		}
		sc, err := u.parseScale(ch)
		if err != nil {
			return err
		}
		u.component.scales = append(u.component.scales, sc)
	}
	return nil
}

func (u *Model) parseScale(ch spec.Channel) (*scaleComponent, error) {
	fd := u.fieldDef(ch)
	typ := u.scaleType(ch)
	sc := &scaleComponent{
		name:     u.getName(string(ch)),
		channel:  ch,
		typ:      typ,
		fd:       fd,
		props:    make(map[string]any),
		explicit: make(map[string]bool),
	}

	if s := fd.Scale; s != nil {
		for _, p := range []struct {
			name string
			set  bool
		}{
			{"rangeStep", s.RangeStep != nil},
			{"useRawDomain", s.UseRawDomain != nil && *s.UseRawDomain},
			{"clamp", s.Clamp != nil},
			{"nice", s.Nice != nil},
			{"zero", s.Zero != nil},
			{"padding", s.Padding != nil},
			{"exponent", s.Exponent != nil},
		} {
			if p.set && !typ.SupportsProperty(p.name) {
				u.c.warn(WarnScalePropertyUnsupported, "%s: %s is not supported by %s scales; dropped", ch, p.name, typ)
			}
		}
		if s.RangeStep != nil && typ.IsDiscrete() && u.explicitSize(ch) != nil {
			u.c.warn(WarnRangeStepDropped, "%s: rangeStep is dropped because the view has an explicit %s", ch, sizeProp(ch))
		}
	}

	sc.domain, sc.parts = u.scaleDomain(ch, typ, fd)
	sc.domainRaw = u.selectionDomain(ch)

	rng, explicit, err := u.scaleRange(ch, typ, fd)
	if err != nil {
		return nil, err
	}
	sc.rng, sc.rngExplicit = rng, explicit

	in := scaleRuleInput{u: u, ch: ch, typ: typ, fd: fd}
	for _, p := range scaleProperties {
		if v, ok := explicitProp(fd.Scale, p.name); ok {
			if typ.SupportsProperty(p.name) {
				sc.props[p.name] = v
				sc.explicit[p.name] = true
			}
			continue
		}
		if p.rule == nil {
			continue
		}
		if v := p.rule(in); v != nil {
			sc.props[p.name] = v
		}
	}
	return sc, nil
}

// useRawDomain reports whether the scale can read its domain from the
// unaggregated table.
func (u *Model) useRawDomain(fd *spec.FieldDef, typ spec.ScaleType) bool {
	use := u.config.Scale.UseRawDomain
	if fd.Scale != nil && fd.Scale.UseRawDomain != nil {
		use = *fd.Scale.UseRawDomain
	}
	if !use || !typ.SupportsProperty("useRawDomain") || !fd.Aggregate.PreservesDomain() {
		return false
	}
	return (fd.Type == spec.Quantitative && fd.Bin == nil) ||
		(fd.Type == spec.Temporal && (typ == spec.ScaleTime || typ == spec.ScaleUTC))
}

// scaleDomain returns either a literal domain or the table parts the
// domain is read from.
func (u *Model) scaleDomain(ch spec.Channel, typ spec.ScaleType, fd *spec.FieldDef) ([]any, []domainPart) {
	if fd.Scale != nil && len(fd.Scale.Domain) > 0 {
		return fd.Scale.Domain, nil
	}
	if fd.Type == spec.Temporal && typ.IsDiscrete() {
		if lk, ok := fd.TimeUnit.Lookup(); ok {
			u.c.useLookup(fd.TimeUnit)
			return nil, []domainPart{{data: lk.Name, fields: []string{timeunit.LookupField}, sort: true}}
		}
	}
	if st := u.component.stack; st != nil && st.measure == ch {
		if st.offset == spec.StackNormalize {
			return []any{0, 1}, nil
		}
		return nil, []domainPart{{owner: u, data: u.getName(roleStacked), fields: []string{st.sumField()}}}
	}

	ref := u.field(ch, spec.FieldRefOptions{})
	if u.useRawDomain(fd, typ) {
		raw := spec.FieldRef(fd, spec.FieldRefOptions{NoAggregate: true})
		return nil, []domainPart{{owner: u, data: u.component.raw, fields: []string{raw}}}
	}
	if fd.Bin != nil {
		start := u.field(ch, spec.FieldRefOptions{BinSuffix: spec.BinStart})
		if typ.IsDiscrete() {
			return nil, []domainPart{{
				owner:  u,
				data:   u.component.main,
				fields: []string{u.field(ch, spec.FieldRefOptions{BinSuffix: spec.BinRange})},
				sort:   &vega.DomainSort{Field: start, Op: "min"},
			}}
		}
		end := u.field(ch, spec.FieldRefOptions{BinSuffix: spec.BinEnd})
		return nil, []domainPart{{owner: u, data: u.component.main, fields: []string{start, end}}}
	}
	if typ.IsDiscrete() && fd.Sort != nil && fd.Sort.Op != "" {
		raw := spec.FieldRef(fd, spec.FieldRefOptions{NoAggregate: true})
		sort := &vega.DomainSort{Field: fd.Sort.Field, Op: string(fd.Sort.Op)}
		if fd.Sort.Op == spec.AggCount {
			sort.Field = ""
		}
		return nil, []domainPart{{owner: u, data: u.component.raw, fields: []string{raw}, sort: sort}}
	}
	var sort any
	if typ.IsDiscrete() {
		sort = true
	}
	return nil, []domainPart{{owner: u, data: u.component.main, fields: []string{ref}, sort: sort}}
}

// scaleRange returns the range of ch and whether it was given explicitly.
func (u *Model) scaleRange(ch spec.Channel, typ spec.ScaleType, fd *spec.FieldDef) (any, bool, error) {
	if s := fd.Scale; s != nil {
		if s.Range != nil {
			return s.Range, true, nil
		}
		if s.Scheme != "" {
			return &vega.RangeScheme{Scheme: s.Scheme}, true, nil
		}
	}

	switch ch {
	case spec.X, spec.Y:
		if typ.IsDiscrete() {
			if size := u.explicitSize(ch); size != nil {
				return []any{0, *size}, false, nil
			}
			return &vega.RangeStep{Step: u.rangeStep(ch)}, false, nil
		}
		if ch == spec.X {
			return []any{0, u.cellSize(ch)}, false, nil
		}
		return []any{u.cellSize(ch), 0}, false, nil

	case spec.Size:
		rng, err := u.sizeRange(fd)
		return rng, false, err

	case spec.Shape:
		return "symbol", false, nil

	case spec.Color:
		if typ.IsDiscrete() {
			if fd.Type == spec.Nominal {
				scheme := "category10"
				if f, ok := u.c.statsFor(u.dataOwner()).FieldStats(fd.Field); ok && f.Distinct > 10 {
					scheme = "category20"
				}
				return &vega.RangeScheme{Scheme: scheme}, false, nil
			}
			// The renderer samples the sequential ordinal ramp once per
			// category.
			return "ordinal", false, nil
		}
		if u.mark == spec.MarkRect {
			return &vega.RangeScheme{Scheme: "heatmap"}, false, nil
		}
		return []any{"#AFC6A3", "#09622A"}, false, nil

	case spec.Opacity:
		return []any{u.config.Mark.MinOpacity, u.config.Mark.MaxOpacity}, false, nil
	}
	return nil, false, nil
}

// sizeRange returns the size range for the unit's mark.
func (u *Model) sizeRange(fd *spec.FieldDef) (any, error) {
	cfg := u.config
	step := u.minXYStep()
	var lo, hi float64
	switch u.mark {
	case spec.MarkBar:
		lo = cfg.Bar.ContinuousBandSize
		if cfg.Bar.MinBandSize != nil {
			lo = *cfg.Bar.MinBandSize
		}
		hi = step - 1
		if cfg.Bar.MaxBandSize != nil {
			hi = *cfg.Bar.MaxBandSize
		}
	case spec.MarkTick:
		lo = cfg.Tick.MinBandSize
		hi = step - 1
		if cfg.Tick.MaxBandSize != nil {
			hi = *cfg.Tick.MaxBandSize
		}
	case spec.MarkText:
		lo, hi = cfg.Text.MinFontSize, cfg.Text.MaxFontSize
	case spec.MarkPoint, spec.MarkCircle, spec.MarkSquare:
		sym := cfg.Symbol(u.mark)
		lo = sym.MinSize
		hi = (step - 2) * (step - 2)
		if sym.MaxSize != nil {
			hi = *sym.MaxSize
		}
	default:
		return nil, &InvariantError{
			Op:  "size range",
			Err: fmt.Errorf("%w: size on %s", spec.ErrUnsupportedChannelForMark, u.mark),
		}
	}
	if fd.Scale != nil && fd.Scale.Zero != nil && *fd.Scale.Zero {
		lo = 0
	}
	return []any{lo, hi}, nil
}

// minXYStep is the smallest band of the unit's discrete positions.
func (u *Model) minXYStep() float64 {
	var steps []float64
	for _, ch := range []spec.Channel{spec.X, spec.Y} {
		if u.explicitSize(ch) != nil {
			continue
		}
		if !u.has(ch) || u.isDiscrete(ch) {
			steps = append(steps, u.rangeStep(ch))
		}
	}
	if len(steps) == 0 {
		return u.config.Scale.RangeStep
	}
	return slices.Min(steps)
}

// rangeStep is the band of one category on ch.
func (u *Model) rangeStep(ch spec.Channel) float64 {
	if u.has(ch) {
		if s := u.fieldDef(ch).Scale; s != nil && s.RangeStep != nil && u.scaleType(ch).IsDiscrete() {
			return *s.RangeStep
		}
	}
	return u.defaultStep(ch)
}

func (u *Model) defaultStep(ch spec.Channel) float64 {
	if ch == spec.X && u.mark == spec.MarkText {
		return u.config.Scale.TextXRangeStep
	}
	return u.config.Scale.RangeStep
}

// explicitSize returns the width or height the nearest enclosing unit or
// layer sets for ch.
func (m *Model) explicitSize(ch spec.Channel) *float64 {
	for n := m; n != nil && (n.kind == spec.KindUnit || n.kind == spec.KindLayer); n = n.parent {
		v := n.spec.Width
		if ch == spec.Y {
			v = n.spec.Height
		}
		if v != nil {
			return v
		}
	}
	return nil
}

// cellSize is the extent of a continuous position channel.
func (m *Model) cellSize(ch spec.Channel) float64 {
	if v := m.explicitSize(ch); v != nil {
		return *v
	}
	if ch == spec.Y {
		return m.config.Cell.Height
	}
	return m.config.Cell.Width
}

func sizeProp(ch spec.Channel) string {
	if ch == spec.Y {
		return "height"
	}
	return "width"
}

// scaleResolve returns how m shares the scale of ch with its children.
func (m *Model) scaleResolve(ch spec.Channel) spec.ResolveMode {
	if r := m.spec.Resolve; r != nil {
		if mode, ok := r.Scale[ch]; ok {
			return mode
		}
	}
	if (m.kind == spec.KindConcat || m.kind == spec.KindRepeat) && ch.IsSpatial() {
		return spec.Independent
	}
	return spec.Shared
}

// guideResolve returns how m shares the axis or legend of ch. Guides of
// independent scales are independent whatever the resolve says.
func (m *Model) guideResolve(ch spec.Channel) spec.ResolveMode {
	var modes map[spec.Channel]spec.ResolveMode
	if r := m.spec.Resolve; r != nil {
		modes = r.Legend
		if ch.IsSpatial() {
			modes = r.Axis
		}
	}
	mode, explicit := modes[ch]
	if m.scaleResolve(ch) == spec.Independent {
		if explicit && mode == spec.Shared {
			m.c.warn(WarnIndependentScaleSharedGuide, "%s: a shared guide needs a shared scale; using independent guides", ch)
		}
		return spec.Independent
	}
	if explicit {
		return mode
	}
	return spec.Shared
}

// mergeChildScales replaces the children's scales of each shared channel
// with one scale owned by m.
func mergeChildScales(m *Model) error {
	for _, ch := range spec.ScaleChannels {
		if ch.IsFacet() {
			continue
		}
		var found []*scaleComponent
		for _, child := range m.children {
			for _, sc := range child.component.scales {
				if sc.channel == ch {
					found = append(found, sc)
				}
			}
		}
		if len(found) == 0 || m.scaleResolve(ch) == spec.Independent {
			continue
		}
		merged := m.mergeScales(ch, found)
		for _, child := range m.children {
			child.component.scales = slices.DeleteFunc(child.component.scales, func(sc *scaleComponent) bool {
				return sc.channel == ch
			})
		}
		for _, sc := range found {
			m.scaleNames.rename(sc.name, merged.name)
		}
		m.component.scales = append(m.component.scales, merged)
	}
	return nil
}

// mergeScales unions the domains of in. For every other setting the first
// explicit value wins; explicit values that disagree are reported.
func (m *Model) mergeScales(ch spec.Channel, in []*scaleComponent) *scaleComponent {
	out := &scaleComponent{
		name:     m.getName(string(ch)),
		channel:  ch,
		typ:      in[0].typ,
		fd:       in[0].fd,
		rng:      in[0].rng,
		props:    make(map[string]any),
		explicit: make(map[string]bool),
	}
	out.rngExplicit = in[0].rngExplicit
	for k, v := range in[0].props {
		out.props[k] = v
	}
	for k, v := range in[0].explicit {
		out.explicit[k] = v
	}

	for i, sc := range in {
		if sc.typ != out.typ && positional(sc.typ) && positional(out.typ) {
			out.typ = spec.ScaleBand
		} else if sc.typ != out.typ {
			m.c.warn(WarnScaleConflict, "%s: scale types %s and %s conflict; using %s", ch, out.typ, sc.typ, out.typ)
		}
		switch {
		case sc.domain != nil && out.domain != nil:
			if !reflect.DeepEqual(sc.domain, out.domain) {
				m.c.warn(WarnScaleConflict, "%s: explicit domains conflict; using the first", ch)
			}
		case sc.domain != nil:
			out.domain = sc.domain
		}
		out.parts = append(out.parts, sc.parts...)
		if out.domainRaw == "" {
			out.domainRaw = sc.domainRaw
		}
		if i == 0 {
			continue
		}

		if sc.rngExplicit {
			if out.rngExplicit && !reflect.DeepEqual(sc.rng, out.rng) {
				m.c.warn(WarnScaleConflict, "%s: explicit ranges conflict; using the first", ch)
			} else if !out.rngExplicit {
				out.rng, out.rngExplicit = sc.rng, true
			}
		}
		for _, p := range scaleProperties {
			v, ok := sc.props[p.name]
			if !ok {
				continue
			}
			switch {
			case sc.explicit[p.name] && out.explicit[p.name]:
				if !reflect.DeepEqual(v, out.props[p.name]) {
					m.c.warn(WarnScaleConflict, "%s: explicit %s values conflict; using the first", ch, p.name)
				}
			case sc.explicit[p.name]:
				out.props[p.name] = v
				out.explicit[p.name] = true
			case out.props[p.name] == nil:
				out.props[p.name] = v
			}
		}
	}
	if out.domain != nil {
		out.parts = nil
	}
	if out.typ == spec.ScaleBand && !out.explicit["padding"] {
		delete(out.props, "padding")
	}
	return out
}

// positional reports whether t is a point or band scale. A layer mixing
// the two draws on the band scale.
func positional(t spec.ScaleType) bool {
	return t == spec.ScalePoint || t == spec.ScaleBand
}

// parseFacetScales merges the child's scales and adds the row and column
// scales that place the cells.
func parseFacetScales(f *Model) error {
	if err := mergeChildScales(f); err != nil {
		return err
	}
	for _, ch := range []spec.Channel{spec.Row, spec.Column} {
		fd := f.facet.Get(ch)
		if fd == nil {
			continue
		}
		sc := &scaleComponent{
			name:    f.getName(string(ch)),
			channel: ch,
			typ:     spec.ScaleOrdinal,
			fd:      fd,
			parts: []domainPart{{
				owner:  f,
				data:   f.layoutTable(ch),
				fields: []string{spec.FieldRef(fd, spec.FieldRefOptions{})},
				sort:   true,
			}},
			rng:      "height",
			props:    map[string]any{"round": boolPtr(true)},
			explicit: make(map[string]bool),
		}
		if ch == spec.Column {
			sc.rng = "width"
		}
		if fd.Sort.Descending() {
			sc.props["reverse"] = boolPtr(true)
		}
		f.component.scales = append(f.component.scales, sc)
	}
	return nil
}

func (sc *scaleComponent) assemble() *vega.Scale {
	s := &vega.Scale{Name: sc.name, Type: string(sc.typ), Range: sc.rng}
	if sc.domain != nil {
		s.Domain = sc.domain
	} else {
		s.Domain = assembleDomain(sc.parts)
	}
	if sc.domainRaw != "" {
		s.DomainRaw = &vega.SignalRef{Signal: sc.domainRaw}
	}
	for _, p := range scaleProperties {
		v, ok := sc.props[p.name]
		if !ok {
			continue
		}
		b, _ := v.(*bool)
		f, _ := v.(*float64)
		switch p.name {
		case "round":
			s.Round = b
		case "clamp":
			s.Clamp = b
		case "nice":
			s.Nice = b
		case "zero":
			s.Zero = b
		case "reverse":
			s.Reverse = b
		case "padding":
			s.Padding = f
		case "exponent":
			s.Exponent = f
		}
	}
	return s
}

// assembleDomain resolves the parts to a single data reference when they
// read one table and to a union otherwise.
func assembleDomain(parts []domainPart) any {
	var refs []*vega.DataRef
	for _, p := range parts {
		data := p.data
		if p.owner != nil {
			data = p.owner.resolveData(p.data)
		}
		ref := &vega.DataRef{Data: data, Sort: p.sort}
		if len(p.fields) == 1 {
			ref.Field = p.fields[0]
		} else {
			ref.Fields = p.fields
		}
		if !slices.ContainsFunc(refs, func(have *vega.DataRef) bool { return reflect.DeepEqual(have, ref) }) {
			refs = append(refs, ref)
		}
	}
	switch len(refs) {
	case 0:
		return nil
	case 1:
		return refs[0]
	}

	multi := &vega.MultiDataRef{Sort: refs[0].Sort}
	for _, r := range refs {
		fields := r.Fields
		if fields == nil {
			fields = []string{r.Field}
		}
		for _, f := range fields {
			ref := &vega.DataRef{Data: r.Data, Field: f}
			if !slices.ContainsFunc(multi.Fields, func(have *vega.DataRef) bool { return reflect.DeepEqual(have, ref) }) {
				multi.Fields = append(multi.Fields, ref)
			}
		}
	}
	return multi
}

func assembleScales(scs []*scaleComponent) []*vega.Scale {
	out := make([]*vega.Scale, len(scs))
	for i, sc := range scs {
		out[i] = sc.assemble()
	}
	return out
}
