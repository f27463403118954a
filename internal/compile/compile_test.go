package compile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/vegalite/internal/spec"
	"github.com/matthewbaird/vegalite/internal/stats"
	"github.com/matthewbaird/vegalite/internal/vega"
)

func mustCompile(t *testing.T, doc string, opts Options) *Result {
	t.Helper()
	s, err := spec.Parse([]byte(doc))
	require.NoError(t, err)
	res, err := Compile(s, opts)
	require.NoError(t, err)
	return res
}

func marshal(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func findScale(scales []*vega.Scale, name string) *vega.Scale {
	for _, s := range scales {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// allScales lists the scales defined anywhere in out.
func allScales(out *vega.Spec) []*vega.Scale {
	scales := append([]*vega.Scale{}, out.Scales...)
	var walk func([]*vega.Mark)
	walk = func(marks []*vega.Mark) {
		for _, m := range marks {
			scales = append(scales, m.Scales...)
			walk(m.Marks)
		}
	}
	walk(out.Marks)
	return scales
}

func transformsOf[T vega.Transform](data []*vega.Data) []T {
	var out []T
	for _, d := range data {
		for _, tr := range d.Transform {
			if v, ok := tr.(T); ok {
				out = append(out, v)
			}
		}
	}
	return out
}

func warningCodes(ws []Warning) []string {
	var out []string
	for _, w := range ws {
		out = append(out, w.Code)
	}
	return out
}

func TestPasses_EveryKindHandled(t *testing.T) {
	for _, p := range passes {
		for k := range numKinds {
			assert.NotNil(t, p.run[k], "pass %s has no handler for %s", p.name, spec.Kind(k))
		}
	}
}

func TestCompile_AggregatedBar(t *testing.T) {
	res := mustCompile(t, `{
		"mark": "bar",
		"encoding": {
			"x": {"field": "age", "type": "ordinal"},
			"y": {"field": "people", "type": "quantitative", "aggregate": "sum"}
		}
	}`, Options{})
	out := res.Spec

	aggs := transformsOf[*vega.Aggregate](out.Data)
	require.Len(t, aggs, 1)
	assert.Equal(t, []string{"age"}, aggs[0].Groupby)
	assert.Equal(t, []string{"people"}, aggs[0].Fields)
	assert.Equal(t, []string{"sum"}, aggs[0].Ops)
	assert.Equal(t, []string{"sum_people"}, aggs[0].As)

	x := findScale(out.Scales, "x")
	require.NotNil(t, x)
	assert.Equal(t, "band", x.Type)
	assert.Equal(t, &vega.DataRef{Data: "aggregate", Field: "age", Sort: true}, x.Domain)
	assert.Equal(t, &vega.RangeStep{Step: 21.0}, x.Range)
	assert.Nil(t, x.Padding)

	y := findScale(out.Scales, "y")
	require.NotNil(t, y)
	assert.Equal(t, "linear", y.Type)
	assert.Equal(t, &vega.DataRef{Data: "aggregate", Field: "sum_people"}, y.Domain)
	require.NotNil(t, y.Zero)
	assert.True(t, *y.Zero)

	require.Len(t, out.Marks, 1)
	bar := out.Marks[0]
	assert.Equal(t, "rect", bar.Type)
	assert.Equal(t, "aggregate", bar.From.Data)
	assert.Equal(t, &vega.ValueRef{Scale: "x", Field: "age", Band: 0.5}, bar.Encode.Update["xc"])
	assert.Equal(t, &vega.ValueRef{Scale: "x", Band: true, Offset: -1}, bar.Encode.Update["width"])
	assert.Equal(t, "sum_people", bar.Encode.Update["y"].Field)

	require.Len(t, out.Signals, 1)
	assert.Equal(t, "width", out.Signals[0].Name)
	assert.Equal(t, "max(length(domain('x')), 1) * 21", out.Signals[0].Update)
	assert.Empty(t, res.Warnings)
}

func TestCompile_BinnedPoint(t *testing.T) {
	res := mustCompile(t, `{
		"mark": "point",
		"encoding": {
			"x": {"field": "a", "type": "quantitative"},
			"y": {"field": "b", "type": "quantitative", "bin": {"maxbins": 15}}
		}
	}`, Options{})

	y := findScale(res.Spec.Scales, "y")
	require.NotNil(t, y)
	assert.Equal(t, "linear", y.Type)
	ref, ok := y.Domain.(*vega.DataRef)
	require.True(t, ok)
	assert.Equal(t, []string{"bin_b_start", "bin_b_end"}, ref.Fields)
	require.NotNil(t, y.Zero)
	assert.False(t, *y.Zero)

	bins := transformsOf[*vega.Bin](res.Spec.Data)
	require.Len(t, bins, 1)
	assert.Equal(t, 15, bins[0].MaxBins)
	assert.Equal(t, &vega.SignalRef{Signal: "bin_b_extent"}, bins[0].Extent)
	assert.Len(t, transformsOf[*vega.Extent](res.Spec.Data), 1)
}

func TestCompile_BinStepsAreNice(t *testing.T) {
	for _, maxbins := range []int{3, 7, 10, 15, 40} {
		rows := make([]map[string]any, 50)
		for i := range rows {
			rows[i] = map[string]any{"v": float64(i)*3.7 - 12}
		}
		b, err := json.Marshal(map[string]any{
			"data": map[string]any{"values": rows},
			"mark": "bar",
			"encoding": map[string]any{
				"x": map[string]any{"field": "v", "type": "quantitative", "bin": map[string]any{"maxbins": maxbins}},
				"y": map[string]any{"aggregate": "count", "type": "quantitative"},
			},
		})
		require.NoError(t, err)
		res := mustCompile(t, string(b), Options{})

		bins := transformsOf[*vega.Bin](res.Spec.Data)
		require.Len(t, bins, 1)
		extent, ok := bins[0].Extent.([]float64)
		require.True(t, ok, "maxbins %d", maxbins)
		step := bins[0].Step
		require.Greater(t, step, 0.0)

		n := (extent[1] - extent[0]) / step
		assert.LessOrEqual(t, math.Round(n), float64(maxbins), "maxbins %d", maxbins)
		assert.InDelta(t, math.Round(n), n, 1e-6)

		mantissa := step / math.Pow(10, math.Floor(math.Log10(step)+1e-9))
		assert.Contains(t, []float64{1, 2, 5}, math.Round(mantissa*1e6)/1e6, "step %g", step)
	}
}

func TestCompile_LayerSharesSource(t *testing.T) {
	res := mustCompile(t, `{
		"layer": [
			{
				"data": {"url": "data/cars.json"},
				"transform": {"filter": [{"field": "hp", "op": ">", "value": 100}]},
				"mark": "point",
				"encoding": {"x": {"field": "hp", "type": "Q"}, "y": {"field": "mpg", "type": "Q"}}
			},
			{
				"data": {"url": "data/cars.json"},
				"transform": {"filter": [{"field": "hp", "op": ">", "value": 100}]},
				"mark": "line",
				"encoding": {"x": {"field": "hp", "type": "Q"}, "y": {"field": "mpg", "type": "Q"}}
			}
		]
	}`, Options{})
	out := res.Spec

	var loaded []*vega.Data
	for _, d := range out.Data {
		if d.URL != "" {
			loaded = append(loaded, d)
		}
	}
	require.Len(t, loaded, 1)
	assert.Len(t, out.Data, 2)
	assert.Len(t, transformsOf[*vega.Filter](out.Data), 1)

	require.Len(t, out.Marks, 2)
	assert.Equal(t, out.Marks[0].From.Data, out.Marks[1].From.Data)

	require.Len(t, out.Scales, 2)
	assert.Equal(t, &vega.DataRef{Data: out.Marks[0].From.Data, Field: "hp"}, findScale(out.Scales, "x").Domain)
	require.Len(t, out.Axes, 2)
	assert.Equal(t, "hp", out.Axes[0].Title)
}

func TestCompile_NominalSumFailsValidation(t *testing.T) {
	s, err := spec.Parse([]byte(`{
		"mark": "bar",
		"encoding": {
			"x": {"field": "a", "type": "nominal", "aggregate": "sum"},
			"y": {"field": "b", "type": "quantitative"}
		}
	}`))
	require.NoError(t, err)

	res, err := Compile(s, Options{})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, errors.Is(err, spec.ErrValidation))
	assert.False(t, IsInvariant(err))
}

const facetDoc = `{
	"data": {"values": [
		{"site": "Crookston", "variety": "Manchuria", "yield": 27, "year": "1931"},
		{"site": "Waseca", "variety": "Manchuria", "yield": 48.9, "year": "1931"},
		{"site": "Crookston", "variety": "Glabron", "yield": 33.5, "year": "1932"},
		{"site": "Waseca", "variety": "Glabron", "yield": 55.2, "year": "1932"}
	]},
	"mark": "bar",
	"encoding": {
		"row": {"field": "site", "type": "nominal"},
		"x": {"field": "variety", "type": "nominal"},
		"y": {"field": "yield", "type": "quantitative", "aggregate": "sum"},
		"color": {"field": "year", "type": "nominal"}
	}
}`

func TestCompile_FacetSharesScales(t *testing.T) {
	out := mustCompile(t, facetDoc, Options{}).Spec

	counts := make(map[string]int)
	for _, s := range allScales(out) {
		counts[s.Name]++
	}
	assert.Equal(t, map[string]int{"x": 1, "y": 1, "color": 1, "row": 1}, counts)
	for _, name := range []string{"x", "y", "color", "row"} {
		assert.NotNil(t, findScale(out.Scales, name), name)
	}

	require.Len(t, out.Marks, 1)
	cell := out.Marks[0]
	assert.Equal(t, "group", cell.Type)
	require.NotNil(t, cell.From.Facet)
	assert.Equal(t, []string{"site"}, cell.From.Facet.Groupby)
	assert.Empty(t, cell.Scales)
	assert.Len(t, cell.Axes, 2)
	require.Len(t, cell.Marks, 1)
	assert.Equal(t, cell.From.Facet.Name, cell.Marks[0].From.Data)

	require.Len(t, out.Axes, 1)
	assert.Equal(t, "row", out.Axes[0].Scale)
	assert.Equal(t, "right", out.Axes[0].Orient)
	require.Len(t, out.Legends, 1)
	assert.Equal(t, "color", out.Legends[0].Fill)

	stacks := transformsOf[*vega.Stack](out.Data)
	require.Len(t, stacks, 1)
	assert.Equal(t, []string{"variety", "site"}, stacks[0].Groupby)

	var names []string
	for _, d := range out.Data {
		names = append(names, d.Name)
	}
	assert.Contains(t, names, "row_domain")
	assert.Equal(t, &vega.RangeScheme{Scheme: "category10"}, findScale(out.Scales, "color").Range)
}

func TestCompile_Deterministic(t *testing.T) {
	for _, doc := range []string{facetDoc, concatDoc} {
		a := mustCompile(t, doc, Options{})
		b := mustCompile(t, doc, Options{})
		assert.Equal(t, marshal(t, a), marshal(t, b))
	}
}

const concatDoc = `{
	"data": {"values": [{"a": 1, "b": 2, "d": 3, "c": "u"}, {"a": 2, "b": 5, "d": 1, "c": "v"}]},
	"hconcat": [
		{"mark": "point", "encoding": {"x": {"field": "a", "type": "Q"}, "y": {"field": "b", "type": "Q"}, "color": {"field": "c", "type": "N"}}},
		{"mark": "point", "encoding": {"x": {"field": "a", "type": "Q"}, "y": {"field": "d", "type": "Q"}, "color": {"field": "c", "type": "N"}}}
	]
}`

func TestCompile_ConcatResolvesPositionsIndependently(t *testing.T) {
	out := mustCompile(t, concatDoc, Options{}).Spec

	require.Len(t, out.Scales, 1)
	assert.Equal(t, "color", out.Scales[0].Name)
	require.Len(t, out.Legends, 1)
	assert.Equal(t, "pad", out.Autosize)
	require.NotNil(t, out.Layout)
	assert.Equal(t, 2, out.Layout.Columns)

	require.Len(t, out.Marks, 2)
	for i, prefix := range []string{"concat_0_", "concat_1_"} {
		g := out.Marks[i]
		assert.Equal(t, "group", g.Type)
		require.Len(t, g.Scales, 2)
		assert.Equal(t, prefix+"x", g.Scales[0].Name)
		assert.Equal(t, prefix+"y", g.Scales[1].Name)
		assert.Len(t, g.Axes, 2)
		assert.Equal(t, prefix+"x", g.Marks[0].Encode.Update["x"].Scale)
		assert.Equal(t, "color", g.Marks[0].Encode.Update["stroke"].Scale)
	}
	assert.Equal(t, 200.0*2+20, out.Width)
}

func TestCompile_CountIgnoresField(t *testing.T) {
	docs := []string{
		`{"mark": "bar", "encoding": {"x": {"field": "a", "type": "N"}, "y": {"aggregate": "count", "type": "Q"}}}`,
		`{"mark": "bar", "encoding": {"x": {"field": "a", "type": "N"}, "y": {"aggregate": "count", "field": "*", "type": "Q"}}}`,
		`{"mark": "bar", "encoding": {"x": {"field": "a", "type": "N"}, "y": {"aggregate": "count", "field": "weight", "type": "Q"}}}`,
	}
	want := marshal(t, mustCompile(t, docs[0], Options{}))
	for _, doc := range docs[1:] {
		assert.Equal(t, want, marshal(t, mustCompile(t, doc, Options{})))
	}

	aggs := transformsOf[*vega.Aggregate](mustCompile(t, docs[2], Options{}).Spec.Data)
	require.Len(t, aggs, 1)
	assert.Equal(t, []string{"*"}, aggs[0].Fields)
	assert.Equal(t, []string{"count"}, aggs[0].As)
}

func TestCompile_Warnings(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want []string
	}{
		{
			name: "independent scale with shared axis",
			doc: `{
				"resolve": {"scale": {"x": "independent"}, "axis": {"x": "shared"}},
				"hconcat": [
					{"mark": "point", "encoding": {"x": {"field": "a", "type": "Q"}}},
					{"mark": "point", "encoding": {"x": {"field": "b", "type": "Q"}}}
				]
			}`,
			want: []string{WarnIndependentScaleSharedGuide},
		},
		{
			name: "padding on a linear scale",
			doc:  `{"mark": "point", "encoding": {"x": {"field": "a", "type": "Q", "scale": {"padding": 5}}}}`,
			want: []string{WarnScalePropertyUnsupported},
		},
		{
			name: "range step with explicit width",
			doc:  `{"mark": "bar", "width": 300, "encoding": {"x": {"field": "a", "type": "N", "scale": {"rangeStep": 30}}, "y": {"field": "b", "type": "Q"}}}`,
			want: []string{WarnRangeStepDropped},
		},
		{
			name: "zoom on a single selection",
			doc:  `{"mark": "point", "selection": {"pick": {"type": "single", "zoom": true}}, "encoding": {"x": {"field": "a", "type": "Q"}}}`,
			want: []string{WarnSelectionTransform},
		},
		{
			name: "conflicting explicit domains",
			doc: `{"layer": [
				{"mark": "point", "encoding": {"x": {"field": "a", "type": "Q", "scale": {"domain": [0, 10]}}}},
				{"mark": "point", "encoding": {"x": {"field": "a", "type": "Q", "scale": {"domain": [0, 20]}}}}
			]}`,
			want: []string{WarnScaleConflict},
		},
		{
			name: "no adjustments",
			doc:  `{"mark": "point", "encoding": {"x": {"field": "a", "type": "Q"}}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustCompile(t, tt.doc, Options{})
			assert.Equal(t, tt.want, warningCodes(res.Warnings))
		})
	}
}

func TestCompile_WarningsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	res := mustCompile(t, `{"mark": "point", "encoding": {"x": {"field": "a", "type": "Q", "scale": {"padding": 5}}}}`,
		Options{Logger: log.New(&buf, "", 0)})
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "warning: "+res.Warnings[0].String()+"\n", buf.String())
}

func TestCompile_RangeStepDropped(t *testing.T) {
	res := mustCompile(t, `{"mark": "bar", "width": 300, "encoding": {"x": {"field": "a", "type": "N", "scale": {"rangeStep": 30}}, "y": {"field": "b", "type": "Q"}}}`, Options{})
	x := findScale(res.Spec.Scales, "x")
	require.NotNil(t, x)
	assert.Equal(t, []any{0, 300.0}, x.Range)
	assert.Equal(t, 300.0, res.Spec.Width)
	assert.Empty(t, res.Spec.Signals)
}

func TestCompile_CyclicalTimeUnit(t *testing.T) {
	out := mustCompile(t, `{
		"mark": "line",
		"encoding": {
			"x": {"field": "date", "type": "temporal", "timeUnit": "month"},
			"y": {"field": "price", "type": "quantitative", "aggregate": "mean"}
		}
	}`, Options{}).Spec

	x := findScale(out.Scales, "x")
	require.NotNil(t, x)
	assert.Equal(t, "point", x.Type)
	assert.Equal(t, &vega.DataRef{Data: "month", Field: "date", Sort: true}, x.Domain)
	require.NotNil(t, x.Padding)
	assert.Equal(t, 0.5, *x.Padding)

	var month *vega.Data
	for _, d := range out.Data {
		if d.Name == "month" {
			month = d
		}
	}
	require.NotNil(t, month)
	assert.Len(t, month.Values, 12)
	assert.Equal(t, "%b", out.Axes[0].Format)
}

func TestCompile_Stats(t *testing.T) {
	provider := stats.Static{
		"v": {Count: 100, Distinct: 90, Min: 0, Max: 100, Numeric: true},
		"c": {Count: 100, Distinct: 12},
	}
	out := mustCompile(t, `{
		"data": {"url": "data/big.csv", "format": {"type": "csv"}},
		"mark": "point",
		"encoding": {
			"x": {"field": "v", "type": "Q", "bin": true},
			"color": {"field": "c", "type": "N"}
		}
	}`, Options{Stats: provider}).Spec

	bins := transformsOf[*vega.Bin](out.Data)
	require.Len(t, bins, 1)
	assert.Equal(t, []float64{0, 100}, bins[0].Extent)
	assert.Equal(t, 10.0, bins[0].Step)
	assert.Equal(t, &vega.RangeScheme{Scheme: "category20"}, findScale(out.Scales, "color").Range)
}

func TestCompile_Selection(t *testing.T) {
	out := mustCompile(t, `{
		"mark": "point",
		"selection": {"grid": {"type": "interval", "bind": "scales"}},
		"encoding": {"x": {"field": "a", "type": "Q"}, "y": {"field": "b", "type": "Q"}}
	}`, Options{}).Spec

	var signals []string
	for _, s := range out.Signals {
		signals = append(signals, s.Name)
	}
	assert.Equal(t, []string{"grid_tuple_fields", "grid_x", "grid_y"}, signals)
	assert.Equal(t, "grid_store", out.Data[len(out.Data)-1].Name)
	assert.Equal(t, &vega.SignalRef{Signal: "grid_x"}, findScale(out.Scales, "x").DomainRaw)
}

func TestSizeRange_UnsupportedMark(t *testing.T) {
	u := &Model{
		kind:     spec.KindUnit,
		spec:     &spec.Spec{},
		config:   spec.DefaultConfig(),
		mark:     spec.MarkLine,
		encoding: &spec.Encoding{},
	}
	_, err := u.sizeRange(&spec.FieldDef{Field: "s", Type: spec.Quantitative})
	require.Error(t, err)
	assert.True(t, IsInvariant(err))
	assert.True(t, errors.Is(err, spec.ErrUnsupportedChannelForMark))
}

func TestSizeRange(t *testing.T) {
	cfg := spec.DefaultConfig()
	tests := []struct {
		mark spec.Mark
		want []any
	}{
		{spec.MarkBar, []any{2.0, 20.0}},
		{spec.MarkTick, []any{2.0, 20.0}},
		{spec.MarkText, []any{8.0, 40.0}},
		{spec.MarkPoint, []any{9.0, 361.0}},
	}
	for _, tt := range tests {
		t.Run(string(tt.mark), func(t *testing.T) {
			u := &Model{kind: spec.KindUnit, spec: &spec.Spec{}, config: cfg, mark: tt.mark, encoding: &spec.Encoding{}}
			got, err := u.sizeRange(&spec.FieldDef{Field: "s", Type: spec.Quantitative})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCompile_RepeatOverFacet(t *testing.T) {
	out := mustCompile(t, `{
		"data": {"values": [{"a": 1, "b": 2, "r": "u"}, {"a": 3, "b": 5, "r": "v"}]},
		"repeat": {"column": ["a", "b"]},
		"spec": {
			"facet": {"row": {"field": "r", "type": "nominal"}},
			"spec": {"mark": "point", "encoding": {"x": {"field": {"repeat": "column"}, "type": "quantitative"}}}
		}
	}`, Options{}).Spec

	scales := allScales(out)
	var tables []string
	for i, field := range []string{"a", "b"} {
		x := findScale(scales, fmt.Sprintf("child_0_%d_x", i))
		require.NotNil(t, x, field)
		ref, ok := x.Domain.(*vega.DataRef)
		require.True(t, ok, "%T", x.Domain)
		assert.Equal(t, field, ref.Field)
		tables = append(tables, ref.Data)
	}
	assert.NotEqual(t, tables[0], tables[1])

	var filters []string
	for _, f := range transformsOf[*vega.Filter](out.Data) {
		filters = append(filters, f.Expr)
	}
	joined := strings.Join(filters, " ")
	assert.Contains(t, joined, `datum["a"] !== null`)
	assert.Contains(t, joined, `datum["b"] !== null`)
}

func TestCompile_DiscretePositionScales(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    string
		padding any
	}{
		{
			name:    "point mark",
			doc:     `{"mark": "point", "encoding": {"x": {"field": "a", "type": "N"}}}`,
			want:    "point",
			padding: 0.5,
		},
		{
			name: "bar mark",
			doc:  `{"mark": "bar", "encoding": {"y": {"field": "a", "type": "O"}, "x": {"field": "b", "type": "Q"}}}`,
			want: "band",
		},
		{
			name: "rect mark",
			doc:  `{"mark": "rect", "encoding": {"x": {"field": "a", "type": "N"}, "y": {"field": "b", "type": "N"}}}`,
			want: "band",
		},
		{
			name:    "explicit ordinal type",
			doc:     `{"mark": "tick", "encoding": {"x": {"field": "a", "type": "N", "scale": {"type": "ordinal"}}}}`,
			want:    "point",
			padding: 0.5,
		},
		{
			name: "layer of bars and points",
			doc: `{"layer": [
				{"mark": "point", "encoding": {"x": {"field": "a", "type": "N"}}},
				{"mark": "bar", "encoding": {"x": {"field": "a", "type": "N"}, "y": {"field": "b", "type": "Q"}}}
			]}`,
			want: "band",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustCompile(t, tt.doc, Options{})
			var discrete []*vega.Scale
			for _, s := range allScales(res.Spec) {
				if _, ok := s.Range.(*vega.RangeStep); ok {
					discrete = append(discrete, s)
				}
			}
			require.NotEmpty(t, discrete)
			for _, s := range discrete {
				assert.Equal(t, tt.want, s.Type, s.Name)
				if tt.padding == nil {
					assert.Nil(t, s.Padding, s.Name)
				} else {
					require.NotNil(t, s.Padding, s.Name)
					assert.Equal(t, tt.padding, *s.Padding, s.Name)
				}
			}
			assert.NotContains(t, marshal(t, res.Spec), `"points"`)
			assert.Empty(t, res.Warnings)
		})
	}
}

func TestCompile_LayerPointsCenterOnBands(t *testing.T) {
	out := mustCompile(t, `{"layer": [
		{"mark": "point", "encoding": {"x": {"field": "a", "type": "N"}, "y": {"field": "b", "type": "Q"}}},
		{"mark": "bar", "encoding": {"x": {"field": "a", "type": "N"}, "y": {"field": "b", "type": "Q"}}}
	]}`, Options{}).Spec

	require.Len(t, out.Marks, 2)
	assert.Equal(t, &vega.ValueRef{Scale: "x", Field: "a", Band: 0.5}, out.Marks[0].Encode.Update["x"])
	assert.Equal(t, &vega.ValueRef{Scale: "x", Field: "a", Band: 0.5}, out.Marks[1].Encode.Update["xc"])
}

func TestCompile_OrdinalColor(t *testing.T) {
	res := mustCompile(t, `{
		"data": {"values": [{"q": "low"}, {"q": "high"}]},
		"mark": "point",
		"encoding": {"color": {"field": "q", "type": "ordinal"}}
	}`, Options{})
	out := res.Spec

	color := findScale(out.Scales, "color")
	require.NotNil(t, color)
	assert.Equal(t, "ordinal", color.Type)
	ref, ok := color.Domain.(*vega.DataRef)
	require.True(t, ok, "%T", color.Domain)
	assert.Equal(t, "q", ref.Field)
	assert.Equal(t, true, ref.Sort)
	assert.Equal(t, "ordinal", color.Range)
	assert.Nil(t, color.Zero)
	assert.Nil(t, color.Nice)

	require.Len(t, out.Marks, 1)
	assert.Equal(t, &vega.ValueRef{Scale: "color", Field: "q"}, out.Marks[0].Encode.Update["stroke"])
	require.Len(t, out.Legends, 1)
	assert.Equal(t, "color", out.Legends[0].Stroke)
	assert.Empty(t, res.Warnings)
}

func TestCompile_BinExtentIsFinite(t *testing.T) {
	tests := []struct {
		name   string
		values string
	}{
		{"subnormal span", `[{"v": 0}, {"v": 1e-310}]`},
		{"min just below an edge", `[{"v": -4.5e-05}, {"v": 405341.5}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustCompile(t, `{
				"data": {"values": `+tt.values+`},
				"mark": "bar",
				"encoding": {
					"x": {"field": "v", "type": "quantitative", "bin": {"maxbins": 5}},
					"y": {"aggregate": "count", "type": "quantitative"}
				}
			}`, Options{})
			_, err := json.Marshal(res)
			require.NoError(t, err)

			bins := transformsOf[*vega.Bin](res.Spec.Data)
			require.Len(t, bins, 1)
			if extent, ok := bins[0].Extent.([]float64); ok {
				assert.Greater(t, bins[0].Step, 0.0)
				assert.LessOrEqual(t, (extent[1]-extent[0])/bins[0].Step, 5.0+1e-9)
			}
		})
	}
}
