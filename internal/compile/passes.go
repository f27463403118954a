package compile

import (
	"fmt"

	"github.com/matthewbaird/vegalite/internal/spec"
)

const numKinds = int(spec.KindRepeat) + 1

type passFunc func(*Model) error

// pass is one compilation pass with a handler per node kind.
type pass struct {
	name string
	run  [numKinds]passFunc
}

// passes run in this order; each reads what the earlier ones produced.
var passes = [...]pass{
	{"data", [numKinds]passFunc{
		spec.KindUnit:   parseUnitData,
		spec.KindLayer:  mergeChildData,
		spec.KindFacet:  parseFacetData,
		spec.KindConcat: mergeChildData,
		spec.KindRepeat: mergeChildData,
	}},
	{"selection", [numKinds]passFunc{
		spec.KindUnit:   parseUnitSelection,
		spec.KindLayer:  collectSelections,
		spec.KindFacet:  collectSelections,
		spec.KindConcat: collectSelections,
		spec.KindRepeat: collectSelections,
	}},
	{"scale", [numKinds]passFunc{
		spec.KindUnit:   parseUnitScales,
		spec.KindLayer:  mergeChildScales,
		spec.KindFacet:  parseFacetScales,
		spec.KindConcat: mergeChildScales,
		spec.KindRepeat: mergeChildScales,
	}},
	{"layout", [numKinds]passFunc{
		spec.KindUnit:   parseUnitLayout,
		spec.KindLayer:  parseLayerLayout,
		spec.KindFacet:  parseFacetLayout,
		spec.KindConcat: parseGridLayout,
		spec.KindRepeat: parseGridLayout,
	}},
	{"axis", [numKinds]passFunc{
		spec.KindUnit:   parseUnitAxes,
		spec.KindLayer:  mergeChildAxes,
		spec.KindFacet:  parseFacetAxes,
		spec.KindConcat: mergeChildAxes,
		spec.KindRepeat: mergeChildAxes,
	}},
	{"legend", [numKinds]passFunc{
		spec.KindUnit:   parseUnitLegends,
		spec.KindLayer:  mergeChildLegends,
		spec.KindFacet:  mergeChildLegends,
		spec.KindConcat: mergeChildLegends,
		spec.KindRepeat: mergeChildLegends,
	}},
	{"mark", [numKinds]passFunc{
		spec.KindUnit:   parseUnitMarks,
		spec.KindLayer:  assembleLayer,
		spec.KindFacet:  assembleFacet,
		spec.KindConcat: assembleGrid,
		spec.KindRepeat: assembleGrid,
	}},
}

// run applies p to the subtree rooted at m, children first.
func (m *Model) run(p *pass) error {
	for _, child := range m.children {
		if err := child.run(p); err != nil {
			return err
		}
	}
	fn := p.run[m.kind]
	if fn == nil {
		return &InvariantError{Op: p.name, Err: fmt.Errorf("no handler for %s", m.kind)}
	}
	return fn(m)
}
