package vega

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform_MarshalIncludesType(t *testing.T) {
	pipeline := []Transform{
		&Formula{Expr: `datum["a"] * 2`, As: "b"},
		&Filter{Expr: `datum["b"] > 0`},
		&Bin{Field: "a", MaxBins: 10, As: [2]string{"bin_a_start", "bin_a_end"}},
		&Aggregate{Groupby: []string{}, Fields: []string{"*"}, Ops: []string{"count"}, As: []string{"count"}},
	}
	b, err := json.Marshal(pipeline)
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"type": "formula", "expr": "datum[\"a\"] * 2", "as": "b"},
		{"type": "filter", "expr": "datum[\"b\"] > 0"},
		{"type": "bin", "field": "a", "maxbins": 10, "as": ["bin_a_start", "bin_a_end"]},
		{"type": "aggregate", "groupby": [], "fields": ["*"], "ops": ["count"], "as": ["count"]}
	]`, string(b))
}

func TestTransform_EmptyBody(t *testing.T) {
	b, err := typed("filter", struct{}{})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"filter"}`, string(b))
}

func TestCommonPrefix(t *testing.T) {
	a := []Transform{&Formula{Expr: "1", As: "x"}, &Filter{Expr: "true"}}
	b := []Transform{&Formula{Expr: "1", As: "x"}, &Filter{Expr: "false"}}
	assert.Equal(t, 1, CommonPrefix(a, b))
	assert.Equal(t, 2, CommonPrefix(a, a))
	assert.False(t, EqualTransforms(a, b))
	assert.True(t, EqualTransforms(a, []Transform{&Formula{Expr: "1", As: "x"}, &Filter{Expr: "true"}}))
}

func TestValueRef_KeepsZeroValue(t *testing.T) {
	b, err := json.Marshal(&ValueRef{Scale: "y", Value: 0.0})
	require.NoError(t, err)
	assert.JSONEq(t, `{"scale": "y", "value": 0}`, string(b))
}

func validSpec() *Spec {
	return &Spec{
		Schema: SchemaURL,
		Signals: []*Signal{
			{Name: "width", Update: "max(length(domain('x')), 1) * 21"},
		},
		Data: []*Data{
			{Name: "source", Values: []map[string]any{{"a": 1.0}}},
			{Name: "summary", Source: "source"},
		},
		Scales: []*Scale{
			{Name: "x", Type: "band", Domain: &DataRef{Data: "summary", Field: "a"}, Range: &RangeStep{Step: 21.0}},
			{Name: "y", Type: "linear", Domain: &MultiDataRef{Fields: []*DataRef{{Data: "source", Field: "a"}}}},
		},
		Axes: []*Axis{{Scale: "x", Orient: "bottom"}},
		Marks: []*Mark{
			{
				Type: "group",
				From: &From{Facet: &Facet{Name: "cell", Data: "summary", Groupby: []string{"a"}}},
				Scales: []*Scale{
					{Name: "inner", Type: "linear", Domain: &DataRef{Data: "cell", Field: "a"}},
				},
				Encode: &Encode{Update: Props{"width": {Signal: "width"}}},
				Marks: []*Mark{
					{
						Type: "rect",
						From: &From{Data: "cell"},
						Encode: &Encode{Update: Props{
							"x": {Scale: "x", Field: "a"},
							"y": {Scale: "inner", Field: "a"},
						}},
					},
				},
			},
		},
	}
}

func TestCheck_Valid(t *testing.T) {
	assert.NoError(t, Check(validSpec()))
}

func TestCheck_Violations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Spec)
		kind   string
		ref    string
	}{
		{"unknown source", func(s *Spec) { s.Data[1].Source = "nope" }, "data", "nope"},
		{"unknown domain data", func(s *Spec) { s.Scales[0].Domain = &DataRef{Data: "nope", Field: "a"} }, "data", "nope"},
		{"unknown axis scale", func(s *Spec) { s.Axes[0].Scale = "z" }, "scale", "z"},
		{"unknown legend scale", func(s *Spec) { s.Legends = []*Legend{{Fill: "color"}} }, "scale", "color"},
		{"unknown signal", func(s *Spec) { s.Scales[1].DomainRaw = &SignalRef{Signal: "brush_y"} }, "signal", "brush_y"},
		{"unknown scale in expression", func(s *Spec) { s.Signals[0].Update = "length(domain('q'))" }, "scale", "q"},
		{"unknown facet data", func(s *Spec) { s.Marks[0].From.Facet.Data = "gone" }, "data", "gone"},
		{"facet name used outside group", func(s *Spec) {
			s.Marks = append(s.Marks, &Mark{Type: "symbol", From: &From{Data: "cell"}})
		}, "data", "cell"},
		{"group scale used outside group", func(s *Spec) {
			s.Marks = append(s.Marks, &Mark{Type: "symbol", Encode: &Encode{Update: Props{"y": {Scale: "inner", Field: "a"}}}})
		}, "scale", "inner"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSpec()
			tt.mutate(s)
			err := Check(s)
			require.Error(t, err)

			var re *RefError
			require.True(t, errors.As(err, &re))
			assert.Equal(t, tt.kind, re.Kind)
			assert.Equal(t, tt.ref, re.Name)
		})
	}
}
