package vega

import (
	"encoding/json"
	"reflect"
)

// Transform is one step of a data pipeline. Implementations marshal with
// their "type" member.
type Transform interface {
	TransformType() string
}

// Formula derives a field from an expression.
type Formula struct {
	Expr string `json:"expr"`
	As   string `json:"as"`
}

// Filter keeps rows for which Expr is truthy.
type Filter struct {
	Expr string `json:"expr"`
}

// Bin discretizes Field into [start, end) columns. Extent is a
// []float64 pair or a *SignalRef naming an Extent signal.
type Bin struct {
	Field   string    `json:"field"`
	Extent  any       `json:"extent,omitempty"`
	MaxBins int       `json:"maxbins,omitempty"`
	Step    float64   `json:"step,omitempty"`
	As      [2]string `json:"as"`
}

// Extent publishes the [min, max] of Field as the signal Signal.
type Extent struct {
	Field  string `json:"field"`
	Signal string `json:"signal"`
}

// Aggregate groups rows and summarizes each group.
type Aggregate struct {
	Groupby []string `json:"groupby"`
	Fields  []string `json:"fields,omitempty"`
	Ops     []string `json:"ops,omitempty"`
	As      []string `json:"as,omitempty"`
}

// Stack computes stacked extents of Field within each group.
type Stack struct {
	Groupby []string  `json:"groupby"`
	Field   string    `json:"field"`
	Sort    *Compare  `json:"sort,omitempty"`
	Offset  string    `json:"offset,omitempty"`
	As      [2]string `json:"as"`
}

// Impute fills in missing Key values per group.
type Impute struct {
	Field   string   `json:"field"`
	Key     string   `json:"key"`
	Groupby []string `json:"groupby,omitempty"`
	Method  string   `json:"method"`
	Value   any      `json:"value,omitempty"`
}

func (*Formula) TransformType() string   { return "formula" }
func (*Filter) TransformType() string    { return "filter" }
func (*Bin) TransformType() string       { return "bin" }
func (*Extent) TransformType() string    { return "extent" }
func (*Aggregate) TransformType() string { return "aggregate" }
func (*Stack) TransformType() string     { return "stack" }
func (*Impute) TransformType() string    { return "impute" }

func (t *Formula) MarshalJSON() ([]byte, error) {
	type plain Formula
	return typed("formula", (*plain)(t))
}

func (t *Filter) MarshalJSON() ([]byte, error) {
	type plain Filter
	return typed("filter", (*plain)(t))
}

func (t *Bin) MarshalJSON() ([]byte, error) {
	type plain Bin
	return typed("bin", (*plain)(t))
}

func (t *Extent) MarshalJSON() ([]byte, error) {
	type plain Extent
	return typed("extent", (*plain)(t))
}

func (t *Aggregate) MarshalJSON() ([]byte, error) {
	type plain Aggregate
	return typed("aggregate", (*plain)(t))
}

func (t *Stack) MarshalJSON() ([]byte, error) {
	type plain Stack
	return typed("stack", (*plain)(t))
}

func (t *Impute) MarshalJSON() ([]byte, error) {
	type plain Impute
	return typed("impute", (*plain)(t))
}

// typed marshals v as an object with a leading "type" member.
func typed(kind string, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := []byte(`{"type":`)
	name, _ := json.Marshal(kind)
	out = append(out, name...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
	} else {
		out = append(out, '}')
	}
	return out, nil
}

// EqualTransforms reports whether two pipelines are identical.
func EqualTransforms(a, b []Transform) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// CommonPrefix returns the number of leading transforms a and b share.
func CommonPrefix(a, b []Transform) int {
	n := 0
	for n < len(a) && n < len(b) && reflect.DeepEqual(a[n], b[n]) {
		n++
	}
	return n
}
