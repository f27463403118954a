package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/matthewbaird/vegalite/internal/timeunit"
)

// DefaultMaxBins is the bin-count target when a bin spec does not set one.
const DefaultMaxBins = 15

// CountField is the column name every count aggregate resolves to.
const CountField = "count"

// FieldDef binds a data field to a channel.
type FieldDef struct {
	Field     string
	Repeat    string // "row" or "column" when the field comes from a repeat
	Type      Type
	Aggregate AggregateOp
	Fn        string // custom derivation name; wins over every other prefix
	Bin       *BinSpec
	TimeUnit  timeunit.Unit
	Sort      *SortSpec
	Scale     *Scale
	Axis      *Axis
	Legend    *Legend
	Title     string
	Value     any
}

// BinSpec requests discretization of a quantitative field.
type BinSpec struct {
	MaxBins int `json:"maxbins,omitempty"`
}

// Bins returns the effective bin-count target.
func (b *BinSpec) Bins() int {
	if b == nil || b.MaxBins <= 0 {
		return DefaultMaxBins
	}
	return b.MaxBins
}

// SortSpec orders a discrete domain, either by the field itself or by an
// aggregate over another field.
type SortSpec struct {
	Order SortOrder   `json:"order,omitempty"`
	Op    AggregateOp `json:"op,omitempty"`
	Field string      `json:"field,omitempty"`
}

// Descending reports whether the sort reverses the domain.
func (s *SortSpec) Descending() bool {
	return s != nil && s.Order == Descending
}

// Scale holds the user-specified scale properties of a channel.
type Scale struct {
	Type         ScaleType `json:"type,omitempty"`
	Domain       []any     `json:"domain,omitempty"`
	Range        any       `json:"range,omitempty"`
	Scheme       string    `json:"scheme,omitempty"`
	RangeStep    *float64  `json:"rangeStep,omitempty"`
	Clamp        *bool     `json:"clamp,omitempty"`
	Nice         *bool     `json:"nice,omitempty"`
	Zero         *bool     `json:"zero,omitempty"`
	Round        *bool     `json:"round,omitempty"`
	Reverse      *bool     `json:"reverse,omitempty"`
	Padding      *float64  `json:"padding,omitempty"`
	Exponent     *float64  `json:"exponent,omitempty"`
	UseRawDomain *bool     `json:"useRawDomain,omitempty"`
}

// Axis holds user axis properties. A disabled axis is written `false`.
type Axis struct {
	Disabled       bool     `json:"-"`
	Title          string   `json:"title,omitempty"`
	Orient         string   `json:"orient,omitempty"`
	Format         string   `json:"format,omitempty"`
	Grid           *bool    `json:"grid,omitempty"`
	Ticks          *int     `json:"ticks,omitempty"`
	TickSize       *float64 `json:"tickSize,omitempty"`
	LabelAngle     *float64 `json:"labelAngle,omitempty"`
	LabelMaxLength *int     `json:"labelMaxLength,omitempty"`
	TitleMaxLength *int     `json:"titleMaxLength,omitempty"`
	Offset         *float64 `json:"offset,omitempty"`
}

func (a *Axis) UnmarshalJSON(data []byte) error {
	if isJSONFalse(data) {
		*a = Axis{Disabled: true}
		return nil
	}
	type plain Axis
	return json.Unmarshal(data, (*plain)(a))
}

// Legend holds user legend properties. A disabled legend is written `false`.
type Legend struct {
	Disabled bool   `json:"-"`
	Title    string `json:"title,omitempty"`
	Orient   string `json:"orient,omitempty"`
	Format   string `json:"format,omitempty"`
	Values   []any  `json:"values,omitempty"`
}

func (l *Legend) UnmarshalJSON(data []byte) error {
	if isJSONFalse(data) {
		*l = Legend{Disabled: true}
		return nil
	}
	type plain Legend
	return json.Unmarshal(data, (*plain)(l))
}

func isJSONFalse(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("false"))
}

// UnmarshalJSON decodes the polymorphic members of a field definition
// (field, bin, sort, timeUnit) into their typed optionals.
func (fd *FieldDef) UnmarshalJSON(data []byte) error {
	var raw struct {
		Field     json.RawMessage `json:"field"`
		Type      Type            `json:"type"`
		Aggregate AggregateOp     `json:"aggregate"`
		Fn        string          `json:"fn"`
		Bin       json.RawMessage `json:"bin"`
		TimeUnit  string          `json:"timeUnit"`
		Sort      json.RawMessage `json:"sort"`
		Scale     *Scale          `json:"scale"`
		Axis      *Axis           `json:"axis"`
		Legend    *Legend         `json:"legend"`
		Title     string          `json:"title"`
		Value     any             `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*fd = FieldDef{
		Type:      raw.Type,
		Aggregate: raw.Aggregate,
		Fn:        raw.Fn,
		Scale:     raw.Scale,
		Axis:      raw.Axis,
		Legend:    raw.Legend,
		Title:     raw.Title,
		Value:     raw.Value,
	}

	if len(raw.Field) > 0 {
		if raw.Field[0] == '{' {
			var ref struct {
				Repeat string `json:"repeat"`
			}
			if err := json.Unmarshal(raw.Field, &ref); err != nil {
				return err
			}
			if ref.Repeat != "row" && ref.Repeat != "column" {
				return &ValidationError{Path: "field.repeat", Message: fmt.Sprintf("unknown repeat direction %q", ref.Repeat)}
			}
			fd.Repeat = ref.Repeat
		} else if err := json.Unmarshal(raw.Field, &fd.Field); err != nil {
			return &ValidationError{Path: "field", Message: "expected a string or a repeat reference"}
		}
	}

	switch {
	case len(raw.Bin) == 0, isJSONFalse(raw.Bin), string(raw.Bin) == "null":
	case string(bytes.TrimSpace(raw.Bin)) == "true":
		fd.Bin = &BinSpec{}
	default:
		fd.Bin = &BinSpec{}
		if err := json.Unmarshal(raw.Bin, fd.Bin); err != nil {
			return &ValidationError{Path: "bin", Message: "expected a boolean or {maxbins}"}
		}
	}

	if raw.TimeUnit != "" {
		u, err := timeunit.Parse(raw.TimeUnit)
		if err != nil {
			return &ValidationError{
				Path:       "timeUnit",
				Message:    err.Error(),
				Suggestion: SuggestFrom(raw.TimeUnit, timeunit.Names(), 2),
			}
		}
		fd.TimeUnit = u
	}

	if len(raw.Sort) > 0 && string(raw.Sort) != "null" {
		fd.Sort = &SortSpec{}
		if raw.Sort[0] == '"' {
			if err := json.Unmarshal(raw.Sort, &fd.Sort.Order); err != nil {
				return atPath("sort", err)
			}
		} else if err := json.Unmarshal(raw.Sort, fd.Sort); err != nil {
			return atPath("sort", err)
		}
	}
	return nil
}

// IsCount reports whether the field definition is a count aggregate.
func (fd *FieldDef) IsCount() bool {
	return fd.Aggregate == AggCount
}

// IsDimension reports whether the field partitions data into categories:
// nominal or ordinal fields, binned fields and time-unit derived fields.
func (fd *FieldDef) IsDimension() bool {
	switch {
	case fd.Type == Nominal || fd.Type == Ordinal:
		return true
	case fd.Bin != nil:
		return true
	case fd.Type == Temporal && fd.TimeUnit != "":
		return true
	}
	return false
}

// IsMeasure reports whether the field carries a continuous measure.
func (fd *FieldDef) IsMeasure() bool {
	return !fd.IsDimension()
}

// FieldRefOptions adjust the reference FieldRef produces.
type FieldRefOptions struct {
	NoAggregate bool
	NoTimeUnit  bool
	BinSuffix   string // "_start" (default), "_end", "_mid" or "_range"
	Prefix      string // prepended after derivation, e.g. "sum_"
	Datum       bool   // wrap as a datum accessor expression
}

// Bin suffixes for derived bin columns.
const (
	BinStart = "_start"
	BinEnd   = "_end"
	BinMid   = "_mid"
	BinRange = "_range"
)

// FieldRef returns the canonical column name for fd. Precedence: count,
// custom fn, bin, aggregate, time unit, raw field.
func FieldRef(fd *FieldDef, opts FieldRefOptions) string {
	var name string
	switch {
	case fd.IsCount() && !opts.NoAggregate:
		name = CountField
	case fd.Fn != "":
		name = fd.Fn + "_" + fd.Field
	case fd.Bin != nil:
		suffix := opts.BinSuffix
		if suffix == "" {
			suffix = BinStart
		}
		name = "bin_" + fd.Field + suffix
	case fd.Aggregate != "" && !opts.NoAggregate:
		name = string(fd.Aggregate) + "_" + fd.Field
	case fd.TimeUnit != "" && !opts.NoTimeUnit:
		name = string(fd.TimeUnit) + "_" + fd.Field
	default:
		name = fd.Field
	}
	name = opts.Prefix + name
	if opts.Datum {
		return Datum(name)
	}
	return name
}

// Datum returns the expression accessing column name of the current datum.
func Datum(name string) string {
	return "datum[" + strconv.Quote(name) + "]"
}

// DefaultTitle returns the auto-generated title summarizing fd.
func DefaultTitle(fd *FieldDef) string {
	if fd.Title != "" {
		return fd.Title
	}
	switch {
	case fd.IsCount():
		return "Number of Records"
	case fd.Fn != "":
		return strings.ToUpper(fd.Fn) + "(" + fd.Field + ")"
	case fd.Bin != nil:
		return "BIN(" + fd.Field + ")"
	case fd.Aggregate != "":
		return strings.ToUpper(string(fd.Aggregate)) + "(" + fd.Field + ")"
	case fd.TimeUnit != "":
		return strings.ToUpper(string(fd.TimeUnit)) + "(" + fd.Field + ")"
	}
	return fd.Field
}
