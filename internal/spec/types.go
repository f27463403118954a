package spec

// Type is the measurement type of a field.
type Type string

const (
	Quantitative Type = "quantitative"
	Ordinal      Type = "ordinal"
	Nominal      Type = "nominal"
	Temporal     Type = "temporal"
)

var types = []Type{Quantitative, Ordinal, Nominal, Temporal}

// ParseType resolves a type name, accepting the one-letter abbreviations.
func ParseType(s string) (Type, error) {
	switch s {
	case "Q":
		return Quantitative, nil
	case "O":
		return Ordinal, nil
	case "N":
		return Nominal, nil
	case "T":
		return Temporal, nil
	}
	return parseEnum("type", s, types)
}

func (t *Type) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, t, ParseType)
}

// Short returns the one-letter abbreviation.
func (t Type) Short() string {
	switch t {
	case Quantitative:
		return "Q"
	case Ordinal:
		return "O"
	case Nominal:
		return "N"
	case Temporal:
		return "T"
	}
	return ""
}

// AggregateOp is a summary operation applied while grouping.
type AggregateOp string

const (
	AggValues    AggregateOp = "values"
	AggCount     AggregateOp = "count"
	AggValid     AggregateOp = "valid"
	AggMissing   AggregateOp = "missing"
	AggDistinct  AggregateOp = "distinct"
	AggSum       AggregateOp = "sum"
	AggMean      AggregateOp = "mean"
	AggAverage   AggregateOp = "average"
	AggVariance  AggregateOp = "variance"
	AggVarianceP AggregateOp = "variancep"
	AggStdev     AggregateOp = "stdev"
	AggStdevP    AggregateOp = "stdevp"
	AggMedian    AggregateOp = "median"
	AggQ1        AggregateOp = "q1"
	AggQ3        AggregateOp = "q3"
	AggModeSkew  AggregateOp = "modeskew"
	AggMin       AggregateOp = "min"
	AggMax       AggregateOp = "max"
	AggArgMin    AggregateOp = "argmin"
	AggArgMax    AggregateOp = "argmax"
)

var aggregateOps = []AggregateOp{
	AggValues, AggCount, AggValid, AggMissing, AggDistinct, AggSum, AggMean, AggAverage,
	AggVariance, AggVarianceP, AggStdev, AggStdevP, AggMedian, AggQ1, AggQ3, AggModeSkew,
	AggMin, AggMax, AggArgMin, AggArgMax,
}

// ParseAggregateOp resolves an aggregate operation name.
func ParseAggregateOp(s string) (AggregateOp, error) {
	return parseEnum("aggregate", s, aggregateOps)
}

func (a *AggregateOp) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, a, ParseAggregateOp)
}

// ValidFor reports whether op may summarize a field of type t.
func (a AggregateOp) ValidFor(t Type) bool {
	switch a {
	case AggCount, AggValid, AggMissing, AggDistinct, AggValues:
		return t == Quantitative || t == Ordinal || t == Temporal
	case AggSum, AggVariance, AggVarianceP, AggStdev, AggStdevP, AggModeSkew:
		return t == Quantitative
	case AggMean, AggAverage, AggMedian, AggQ1, AggQ3, AggMin, AggMax, AggArgMin, AggArgMax:
		return t == Quantitative || t == Temporal
	}
	return false
}

// PreservesDomain reports whether op yields values inside the range of its
// input, so the unaggregated data can stand in for the scale domain.
func (a AggregateOp) PreservesDomain() bool {
	switch a {
	case AggMean, AggAverage, AggStdev, AggStdevP, AggMedian, AggQ1, AggQ3, AggMin, AggMax:
		return true
	}
	return false
}

// ScaleType is the kind of mapping a scale performs.
type ScaleType string

const (
	ScaleLinear   ScaleType = "linear"
	ScaleLog      ScaleType = "log"
	ScalePow      ScaleType = "pow"
	ScaleSqrt     ScaleType = "sqrt"
	ScaleQuantile ScaleType = "quantile"
	ScaleQuantize ScaleType = "quantize"
	ScaleTime     ScaleType = "time"
	ScaleUTC      ScaleType = "utc"
	ScaleOrdinal  ScaleType = "ordinal"
	ScalePoint    ScaleType = "point"
	ScaleBand     ScaleType = "band"
)

var scaleTypes = []ScaleType{
	ScaleLinear, ScaleLog, ScalePow, ScaleSqrt, ScaleQuantile, ScaleQuantize,
	ScaleTime, ScaleUTC, ScaleOrdinal, ScalePoint, ScaleBand,
}

// ParseScaleType resolves a scale type name.
func ParseScaleType(s string) (ScaleType, error) {
	return parseEnum("scale type", s, scaleTypes)
}

func (s *ScaleType) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, ParseScaleType)
}

// IsDiscrete reports whether the scale maps a set of categories.
func (s ScaleType) IsDiscrete() bool {
	switch s {
	case ScaleOrdinal, ScalePoint, ScaleBand:
		return true
	}
	return false
}

// ValidFor reports whether a field of type t may use scale type s.
func (s ScaleType) ValidFor(t Type) bool {
	switch s {
	case ScaleLog, ScalePow, ScaleSqrt, ScaleQuantile, ScaleQuantize:
		return t == Quantitative
	case ScaleTime, ScaleUTC:
		return t == Temporal
	case ScaleLinear:
		return t != Nominal
	case ScaleOrdinal, ScalePoint, ScaleBand:
		return true
	}
	return false
}

// SupportsProperty reports whether a scale property applies to s.
func (s ScaleType) SupportsProperty(prop string) bool {
	switch prop {
	case "type", "domain", "range", "scheme", "round", "reverse":
		return true
	case "rangeStep", "padding":
		return s == ScalePoint || s == ScaleBand
	case "clamp", "nice":
		return !s.IsDiscrete() && s != ScaleQuantile && s != ScaleQuantize
	case "zero":
		switch s {
		case ScaleLinear, ScalePow, ScaleSqrt:
			return true
		}
		return false
	case "exponent":
		return s == ScalePow
	case "useRawDomain":
		return !s.IsDiscrete()
	}
	return false
}

// SortOrder is a sort direction.
type SortOrder string

const (
	Ascending  SortOrder = "ascending"
	Descending SortOrder = "descending"
)

// ParseSortOrder resolves a sort direction.
func ParseSortOrder(s string) (SortOrder, error) {
	return parseEnum("sort order", s, []SortOrder{Ascending, Descending})
}

func (o *SortOrder) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, o, ParseSortOrder)
}

// StackOffset selects the baseline of stacked bands.
type StackOffset string

const (
	StackZero      StackOffset = "zero"
	StackCenter    StackOffset = "center"
	StackNormalize StackOffset = "normalize"
)

// ParseStackOffset resolves a stack offset name.
func ParseStackOffset(s string) (StackOffset, error) {
	return parseEnum("stack offset", s, []StackOffset{StackZero, StackCenter, StackNormalize})
}

func (o *StackOffset) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, o, ParseStackOffset)
}

// ResolveMode says whether one scale or guide serves a whole composition.
type ResolveMode string

const (
	Shared      ResolveMode = "shared"
	Independent ResolveMode = "independent"
)

// ParseResolveMode resolves a resolution mode.
func ParseResolveMode(s string) (ResolveMode, error) {
	return parseEnum("resolve mode", s, []ResolveMode{Shared, Independent})
}

func (r *ResolveMode) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, r, ParseResolveMode)
}
