package spec

import (
	"fmt"
	"strings"
)

// validateScope carries what a node inherits from its ancestors.
type validateScope struct {
	inFacet bool
	inLayer bool
	repeat  *RepeatMapping
}

// Validate checks s and all of its descendants. It returns the first
// violation as a *ValidationError.
func Validate(s *Spec) error {
	return validateNode(s, "$", validateScope{})
}

func validateNode(s *Spec, path string, scope validateScope) error {
	kind, err := s.Kind()
	if err != nil {
		return atPath(path, err)
	}

	if s.Transform != nil {
		for i, p := range s.Transform.Filter {
			if p.Field == "" {
				return newValidationError(fmt.Sprintf("%s.transform.filter[%d]", path, i), "predicate needs a field")
			}
			if p.Op == "" {
				return newValidationError(fmt.Sprintf("%s.transform.filter[%d]", path, i), "predicate needs an op")
			}
		}
		for i, c := range s.Transform.Calculate {
			if c.As == "" || c.Expr == "" {
				return newValidationError(fmt.Sprintf("%s.transform.calculate[%d]", path, i), "calculate needs as and expr")
			}
		}
	}

	for name, sel := range s.Selection {
		if sel == nil || sel.Type == "" {
			return newValidationError(path+".selection."+name, "selection needs a type")
		}
		if kind != KindUnit {
			return newValidationError(path+".selection."+name, "selections are declared on unit views")
		}
	}

	switch kind {
	case KindUnit:
		return validateUnit(s, path, scope)

	case KindLayer:
		if len(s.Layer) == 0 {
			return newValidationError(path+".layer", "layer needs at least one view")
		}
		inner := scope
		inner.inLayer = true
		for i, child := range s.Layer {
			cpath := fmt.Sprintf("%s.layer[%d]", path, i)
			if k, err := child.Kind(); err == nil && k != KindUnit && k != KindLayer {
				return newValidationError(cpath, "a layer can only contain unit or layer views, got %s", k)
			}
			if err := validateNode(child, cpath, inner); err != nil {
				return err
			}
		}
		return nil

	case KindFacet:
		if s.Facet.Row == nil && s.Facet.Column == nil {
			return newValidationError(path+".facet", "facet needs a row or a column")
		}
		if scope.inFacet {
			return newValidationError(path+".facet", "facets cannot be nested")
		}
		for _, ch := range []Channel{Row, Column} {
			if fd := s.Facet.Get(ch); fd != nil {
				if err := validateFieldDef(fd, ch, path+".facet."+string(ch), scope); err != nil {
					return err
				}
			}
		}
		if s.Spec == nil {
			return newValidationError(path+".spec", "facet needs a spec")
		}
		if k, err := s.Spec.Kind(); err == nil && k != KindUnit && k != KindLayer {
			return newValidationError(path+".spec", "a facet can only contain a unit or layer view, got %s", k)
		}
		inner := scope
		inner.inFacet = true
		return validateNode(s.Spec, path+".spec", inner)

	case KindConcat:
		if s.HConcat != nil && s.VConcat != nil {
			return newValidationError(path, "spec mixes hconcat and vconcat")
		}
		children, key := s.HConcat, "hconcat"
		if s.VConcat != nil {
			children, key = s.VConcat, "vconcat"
		}
		if len(children) == 0 {
			return newValidationError(path+"."+key, "%s needs at least one view", key)
		}
		for i, child := range children {
			if err := validateNode(child, fmt.Sprintf("%s.%s[%d]", path, key, i), scope); err != nil {
				return err
			}
		}
		return nil

	case KindRepeat:
		if len(s.Repeat.Row) == 0 && len(s.Repeat.Column) == 0 {
			return newValidationError(path+".repeat", "repeat needs row or column fields")
		}
		if s.Spec == nil {
			return newValidationError(path+".spec", "repeat needs a spec")
		}
		inner := scope
		inner.repeat = s.Repeat
		return validateNode(s.Spec, path+".spec", inner)
	}
	return nil
}

func validateUnit(s *Spec, path string, scope validateScope) error {
	if s.Mark == "" {
		return newValidationError(path+".mark", "unit view needs a mark")
	}
	meta := Marks.Lookup(s.Mark)
	if meta == nil {
		return newValidationError(path+".mark", "unknown mark %q", s.Mark)
	}
	enc := s.Encoding
	if enc == nil {
		enc = &Encoding{}
	}

	for _, group := range meta.Required {
		present := false
		for _, ch := range group {
			if enc.Get(ch) != nil {
				present = true
			}
		}
		if !present {
			names := make([]string, len(group))
			for i, ch := range group {
				names[i] = string(ch)
			}
			return newValidationError(path+".encoding", "mark %q requires channel %s", s.Mark, strings.Join(names, " or "))
		}
	}

	for _, ch := range enc.Channels() {
		cpath := path + ".encoding." + string(ch)
		if !meta.Supported(ch) {
			return &ValidationError{
				Path:    cpath,
				Message: fmt.Sprintf("channel %q is not supported by mark %q", ch, s.Mark),
				Err:     ErrUnsupportedChannelForMark,
			}
		}
		if scope.inFacet && ch.IsFacet() {
			return newValidationError(cpath, "%s cannot be encoded inside a facet", ch)
		}
		if scope.inLayer && ch.IsFacet() {
			return newValidationError(cpath, "%s cannot be encoded inside a layer; facet the layer instead", ch)
		}
		if err := validateFieldDef(enc.Get(ch), ch, cpath, scope); err != nil {
			return err
		}
	}
	return nil
}

func validateFieldDef(fd *FieldDef, ch Channel, path string, scope validateScope) error {
	if fd.Field == "" && fd.Repeat == "" && !fd.IsCount() {
		if fd.Value == nil {
			return newValidationError(path, "needs a field, a count aggregate or a value")
		}
		return nil
	}

	if fd.Repeat != "" {
		var fields []string
		if scope.repeat != nil {
			fields = scope.repeat.Row
			if fd.Repeat == "column" {
				fields = scope.repeat.Column
			}
		}
		if len(fields) == 0 {
			return newValidationError(path+".field", "repeat reference %q has no matching repeat", fd.Repeat)
		}
	}

	if fd.Type == "" {
		return newValidationError(path+".type", "field %q needs a type", fd.Field)
	}
	if fd.Aggregate != "" && !fd.Aggregate.ValidFor(fd.Type) {
		return newValidationError(path+".aggregate", "aggregate %q is not valid for %s fields", fd.Aggregate, fd.Type)
	}
	if fd.Bin != nil && fd.Type != Quantitative {
		return newValidationError(path+".bin", "bin requires a quantitative field, got %s", fd.Type)
	}
	if fd.TimeUnit != "" && fd.Type != Temporal {
		return newValidationError(path+".timeUnit", "timeUnit requires a temporal field, got %s", fd.Type)
	}
	if fd.Scale != nil && fd.Scale.Type != "" && !fd.Scale.Type.ValidFor(fd.Type) {
		return newValidationError(path+".scale.type", "scale type %q is not valid for %s fields", fd.Scale.Type, fd.Type)
	}
	if fd.Sort != nil && fd.Sort.Op != "" && fd.Sort.Op != AggCount && fd.Sort.Field == "" {
		return newValidationError(path+".sort", "sort by %q needs a field", fd.Sort.Op)
	}

	role, err := SupportedRole(ch)
	if err != nil {
		return &ValidationError{Path: path, Message: err.Error(), Err: ErrInvalidChannel}
	}
	if fd.IsDimension() && !role.Dimension {
		return newValidationError(path, "channel %q only accepts measures, got %s field %q", ch, fd.Type, fd.Field)
	}
	if fd.IsMeasure() && !role.Measure {
		return newValidationError(path, "channel %q only accepts dimensions, got %s field %q", ch, fd.Type, fd.Field)
	}
	return nil
}
