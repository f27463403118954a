package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/vegalite/internal/vega"
)

func filterExprs(out *vega.Spec) []string {
	var exprs []string
	for _, f := range transformsOf[*vega.Filter](out.Data) {
		exprs = append(exprs, f.Expr)
	}
	return exprs
}

func TestRawTransforms_LogScaleDropsNonPositive(t *testing.T) {
	tests := []struct {
		name  string
		scale string
		want  bool
	}{
		{"log", `, "scale": {"type": "log"}`, true},
		{"linear", `, "scale": {"type": "linear"}`, false},
		{"default", ``, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := mustCompile(t, `{"mark": "point", "encoding": {
				"x": {"field": "v", "type": "Q"`+tt.scale+`},
				"y": {"field": "w", "type": "Q"}
			}}`, Options{}).Spec

			exprs := filterExprs(out)
			if tt.want {
				assert.Contains(t, exprs, `datum["v"] > 0`)
			} else {
				assert.NotContains(t, exprs, `datum["v"] > 0`)
			}
			assert.NotContains(t, exprs, `datum["w"] > 0`)
		})
	}
}

func TestStack_AreaImputesMissingKeys(t *testing.T) {
	doc := func(mark string) string {
		return `{"mark": "` + mark + `", "encoding": {
			"x": {"field": "d", "type": "O"},
			"y": {"field": "v", "type": "Q", "aggregate": "sum"},
			"color": {"field": "g", "type": "N"}
		}}`
	}

	out := mustCompile(t, doc("area"), Options{}).Spec
	imputes := transformsOf[*vega.Impute](out.Data)
	require.Len(t, imputes, 1)
	assert.Equal(t, &vega.Impute{Field: "sum_v", Key: "d", Groupby: []string{"g"}, Method: "value", Value: 0}, imputes[0])

	var order []string
	for _, d := range out.Data {
		for _, tr := range d.Transform {
			switch tr.(type) {
			case *vega.Impute, *vega.Stack:
				order = append(order, tr.TransformType())
			}
		}
	}
	assert.Equal(t, []string{"impute", "stack"}, order)

	bars := mustCompile(t, doc("bar"), Options{}).Spec
	assert.Empty(t, transformsOf[*vega.Impute](bars.Data))
	assert.Len(t, transformsOf[*vega.Stack](bars.Data), 1)
}
