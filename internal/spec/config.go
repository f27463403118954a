package spec

import (
	"encoding/json"
	"fmt"
)

// Config holds style and layout defaults. Every value has a default from
// DefaultConfig; a spec's "config" object overlays only the keys it sets.
type Config struct {
	Cell          CellConfig       `json:"cell"`
	Padding       any              `json:"padding"`
	Background    string           `json:"background,omitempty"`
	NumberFormat  string           `json:"numberFormat"`
	TimeFormat    string           `json:"timeFormat"`
	FilterNull    FilterNullConfig `json:"filterNull"`
	Stack         StackConfig      `json:"stack"`
	Scale         ScaleConfig      `json:"scale"`
	Mark          MarkConfig       `json:"mark"`
	Bar           BarConfig        `json:"bar"`
	Point         SymbolConfig     `json:"point"`
	Circle        SymbolConfig     `json:"circle"`
	Square        SymbolConfig     `json:"square"`
	Tick          TickConfig       `json:"tick"`
	Text          TextConfig       `json:"text"`
	Axis          AxisConfig       `json:"axis"`
	Legend        LegendConfig     `json:"legend"`
	ConcatSpacing float64          `json:"concatSpacing"`
}

// CellConfig sizes and styles a single view.
type CellConfig struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Fill        string  `json:"fill,omitempty"`
	GridColor   string  `json:"gridColor,omitempty"`
	GridOpacity float64 `json:"gridOpacity,omitempty"`
}

// FilterNullConfig selects the field types whose null values are dropped.
type FilterNullConfig struct {
	Nominal      bool `json:"nominal"`
	Ordinal      bool `json:"ordinal"`
	Quantitative bool `json:"quantitative"`
	Temporal     bool `json:"temporal"`
}

// For reports whether nulls of type t are filtered.
func (f FilterNullConfig) For(t Type) bool {
	switch t {
	case Nominal:
		return f.Nominal
	case Ordinal:
		return f.Ordinal
	case Quantitative:
		return f.Quantitative
	case Temporal:
		return f.Temporal
	}
	return false
}

// StackConfig controls automatic stacking. `"stack": false` disables it.
type StackConfig struct {
	Disabled bool        `json:"disabled,omitempty"`
	Offset   StackOffset `json:"offset,omitempty"`
	Sort     SortOrder   `json:"sort,omitempty"`
}

func (s *StackConfig) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "false":
		s.Disabled = true
		return nil
	case "true":
		s.Disabled = false
		return nil
	}
	type plain StackConfig
	return json.Unmarshal(data, (*plain)(s))
}

// ScaleConfig holds scale defaults.
type ScaleConfig struct {
	RangeStep      float64 `json:"rangeStep"`
	TextXRangeStep float64 `json:"textXRangeStep"`
	Padding        float64 `json:"padding"` // outer padding of point scales, in steps
	UseRawDomain   bool    `json:"useRawDomain"`
	FacetSpacing   float64 `json:"facetSpacing"`
}

// MarkConfig holds defaults shared by every mark.
type MarkConfig struct {
	Color       string   `json:"color"`
	Opacity     *float64 `json:"opacity,omitempty"`
	StrokeWidth float64  `json:"strokeWidth"`
	MinOpacity  float64  `json:"minOpacity"`
	MaxOpacity  float64  `json:"maxOpacity"`
	Interpolate string   `json:"interpolate,omitempty"`
}

// BarConfig holds bar defaults.
type BarConfig struct {
	BinSpacing         float64  `json:"binSpacing"`
	ContinuousBandSize float64  `json:"continuousBandSize"`
	MinBandSize        *float64 `json:"minBandSize,omitempty"`
	MaxBandSize        *float64 `json:"maxBandSize,omitempty"`
	SingleBarOffset    float64  `json:"singleBarOffset"`
}

// SymbolConfig holds point, circle and square defaults.
type SymbolConfig struct {
	Size    float64  `json:"size"`
	Filled  bool     `json:"filled"`
	Shape   string   `json:"shape,omitempty"`
	MinSize float64  `json:"minSize"`
	MaxSize *float64 `json:"maxSize,omitempty"`
}

// TickConfig holds tick defaults.
type TickConfig struct {
	BandSize    *float64 `json:"bandSize,omitempty"`
	Thickness   float64  `json:"thickness"`
	MinBandSize float64  `json:"minBandSize"`
	MaxBandSize *float64 `json:"maxBandSize,omitempty"`
}

// TextConfig holds text defaults.
type TextConfig struct {
	FontSize    float64 `json:"fontSize"`
	MinFontSize float64 `json:"minFontSize"`
	MaxFontSize float64 `json:"maxFontSize"`
	Color       string  `json:"color"`
	Align       string  `json:"align,omitempty"`
	Baseline    string  `json:"baseline,omitempty"`
	Format      string  `json:"format,omitempty"`
}

// AxisConfig holds axis defaults.
type AxisConfig struct {
	CharacterWidth float64 `json:"characterWidth"`
	LabelMaxLength int     `json:"labelMaxLength"`
	TickCount      int     `json:"tickCount"`
}

// LegendConfig holds legend defaults.
type LegendConfig struct {
	Orient string `json:"orient"`
}

// DefaultConfig returns a fresh copy of the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Cell: CellConfig{
			Width:       200,
			Height:      200,
			Fill:        "rgba(0,0,0,0)",
			GridColor:   "#000000",
			GridOpacity: 0.4,
		},
		Padding:      "auto",
		NumberFormat: "s",
		TimeFormat:   "%Y-%m-%d",
		FilterNull: FilterNullConfig{
			Quantitative: true,
			Temporal:     true,
		},
		Stack: StackConfig{Offset: StackZero, Sort: Ascending},
		Scale: ScaleConfig{
			RangeStep:      21,
			TextXRangeStep: 90,
			Padding:        0.5,
			FacetSpacing:   16,
		},
		Mark: MarkConfig{
			Color:       "#4682b4",
			StrokeWidth: 2,
			MinOpacity:  0.3,
			MaxOpacity:  0.8,
		},
		Bar: BarConfig{
			BinSpacing:         1,
			ContinuousBandSize: 2,
			SingleBarOffset:    5,
		},
		Point:  SymbolConfig{Size: 30, Shape: "circle", MinSize: 9},
		Circle: SymbolConfig{Size: 30, Filled: true, MinSize: 9},
		Square: SymbolConfig{Size: 30, Filled: true, MinSize: 9},
		Tick: TickConfig{
			Thickness:   1,
			MinBandSize: 2,
		},
		Text: TextConfig{
			FontSize:    10,
			MinFontSize: 8,
			MaxFontSize: 40,
			Color:       "#000000",
			Align:       "right",
			Baseline:    "middle",
		},
		Axis: AxisConfig{
			CharacterWidth: 6,
			LabelMaxLength: 25,
			TickCount:      5,
		},
		Legend:        LegendConfig{Orient: "right"},
		ConcatSpacing: 20,
	}
}

// Overlay returns a copy of c with the JSON object raw applied on top.
// c is left untouched.
func (c *Config) Overlay(raw json.RawMessage) (*Config, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("copying config: %w", err)
	}
	out := &Config{}
	if err := json.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("copying config: %w", err)
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, atPath("config", asValidation(err))
	}
	return out, nil
}

// Symbol returns the symbol defaults for point, circle or square marks.
func (c *Config) Symbol(m Mark) SymbolConfig {
	switch m {
	case MarkCircle:
		return c.Circle
	case MarkSquare:
		return c.Square
	}
	return c.Point
}
