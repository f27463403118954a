package spec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name: "valid bar",
			doc:  `{"mark": "bar", "encoding": {"x": {"field": "a", "type": "nominal"}, "y": {"field": "b", "type": "quantitative", "aggregate": "sum"}}}`,
		},
		{
			name:    "sum of nominal",
			doc:     `{"mark": "bar", "encoding": {"x": {"field": "a", "type": "nominal", "aggregate": "sum"}, "y": {"field": "b", "type": "quantitative"}}}`,
			wantErr: `$.encoding.x.aggregate: aggregate "sum" is not valid for nominal fields`,
		},
		{
			name:    "line without y",
			doc:     `{"mark": "line", "encoding": {"x": {"field": "d", "type": "temporal"}}}`,
			wantErr: `mark "line" requires channel y`,
		},
		{
			name:    "bar without position",
			doc:     `{"mark": "bar", "encoding": {"color": {"field": "c", "type": "nominal"}}}`,
			wantErr: `mark "bar" requires channel x or y`,
		},
		{
			name:    "text without text",
			doc:     `{"mark": "text", "encoding": {"x": {"field": "a", "type": "quantitative"}}}`,
			wantErr: `mark "text" requires channel text`,
		},
		{
			name:    "nominal text",
			doc:     `{"mark": "text", "encoding": {"text": {"field": "a", "type": "nominal"}}}`,
			wantErr: `channel "text" only accepts measures`,
		},
		{
			name:    "quantitative shape",
			doc:     `{"mark": "point", "encoding": {"shape": {"field": "a", "type": "quantitative"}}}`,
			wantErr: `channel "shape" only accepts dimensions`,
		},
		{
			name:    "bin on nominal",
			doc:     `{"mark": "point", "encoding": {"x": {"field": "a", "type": "nominal", "bin": true}}}`,
			wantErr: "bin requires a quantitative field",
		},
		{
			name:    "time unit on quantitative",
			doc:     `{"mark": "point", "encoding": {"x": {"field": "a", "type": "quantitative", "timeUnit": "month"}}}`,
			wantErr: "timeUnit requires a temporal field",
		},
		{
			name:    "log scale on nominal",
			doc:     `{"mark": "point", "encoding": {"x": {"field": "a", "type": "nominal", "scale": {"type": "log"}}}}`,
			wantErr: `scale type "log" is not valid for nominal fields`,
		},
		{
			name:    "missing type",
			doc:     `{"mark": "point", "encoding": {"x": {"field": "a"}}}`,
			wantErr: `field "a" needs a type`,
		},
		{
			name:    "missing field",
			doc:     `{"mark": "point", "encoding": {"x": {"type": "quantitative"}}}`,
			wantErr: "needs a field, a count aggregate or a value",
		},
		{
			name: "value only",
			doc:  `{"mark": "point", "encoding": {"color": {"value": "red"}}}`,
		},
		{
			name: "count without field",
			doc:  `{"mark": "bar", "encoding": {"y": {"aggregate": "count", "type": "quantitative"}}}`,
		},
		{
			name:    "row inside facet",
			doc:     `{"facet": {"row": {"field": "r", "type": "nominal"}}, "spec": {"mark": "point", "encoding": {"row": {"field": "q", "type": "nominal"}}}}`,
			wantErr: "row cannot be encoded inside a facet",
		},
		{
			name:    "facet of concat",
			doc:     `{"facet": {"row": {"field": "r", "type": "nominal"}}, "spec": {"hconcat": [{"mark": "point"}]}}`,
			wantErr: "a facet can only contain a unit or layer view, got concat",
		},
		{
			name:    "layer of facet",
			doc:     `{"layer": [{"facet": {"row": {"field": "r", "type": "nominal"}}, "spec": {"mark": "point"}}]}`,
			wantErr: "a layer can only contain unit or layer views, got facet",
		},
		{
			name:    "repeat reference outside repeat",
			doc:     `{"mark": "point", "encoding": {"x": {"field": {"repeat": "row"}, "type": "quantitative"}}}`,
			wantErr: `repeat reference "row" has no matching repeat`,
		},
		{
			name: "repeat reference inside repeat",
			doc:  `{"repeat": {"row": ["a", "b"]}, "spec": {"mark": "point", "encoding": {"x": {"field": {"repeat": "row"}, "type": "quantitative"}}}}`,
		},
		{
			name:    "repeat column without columns",
			doc:     `{"repeat": {"row": ["a"]}, "spec": {"mark": "point", "encoding": {"x": {"field": {"repeat": "column"}, "type": "quantitative"}}}}`,
			wantErr: `repeat reference "column" has no matching repeat`,
		},
		{
			name:    "mixed variants",
			doc:     `{"mark": "point", "hconcat": [{"mark": "point"}]}`,
			wantErr: "$: spec mixes unit and concat",
		},
		{
			name:    "selection without type",
			doc:     `{"mark": "point", "selection": {"brush": {}}}`,
			wantErr: "$.selection.brush: selection needs a type",
		},
		{
			name:    "filter without op",
			doc:     `{"mark": "point", "transform": {"filter": [{"field": "a"}]}}`,
			wantErr: "predicate needs an op",
		},
		{
			name:    "row inside layer",
			doc:     `{"layer": [{"mark": "point", "encoding": {"x": {"field": "a", "type": "Q"}, "row": {"field": "r", "type": "N"}}}]}`,
			wantErr: "$.layer[0].encoding.row: row cannot be encoded inside a layer",
		},
		{
			name: "nested concat",
			doc:  `{"vconcat": [{"hconcat": [{"mark": "point"}, {"mark": "tick"}]}, {"layer": [{"mark": "line", "encoding": {"x": {"field": "a", "type": "T"}, "y": {"field": "b", "type": "Q"}}}]}]}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(mustParse(t, tt.doc))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestValidate_UnsupportedChannel(t *testing.T) {
	err := Validate(mustParse(t, `{"mark": "bar", "encoding": {"x": {"field": "a", "type": "N"}, "shape": {"field": "s", "type": "N"}}}`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedChannelForMark))

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "$.encoding.shape", ve.Path)
}
