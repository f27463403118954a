package spec

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Data describes where rows come from.
type Data struct {
	Name   string           `json:"name,omitempty"`
	URL    string           `json:"url,omitempty"`
	Values []map[string]any `json:"values,omitempty"`
	Format *DataFormat      `json:"format,omitempty"`
}

// DataFormat describes how a source is decoded.
type DataFormat struct {
	Type  string            `json:"type,omitempty"`
	Parse map[string]string `json:"parse,omitempty"`
}

// Transform holds row-level transforms applied before encoding.
type Transform struct {
	Calculate []Calculate `json:"calculate,omitempty"`
	Filter    []Predicate `json:"filter,omitempty"`
}

// Calculate derives a new field from an expression.
type Calculate struct {
	As   string `json:"as"`
	Expr string `json:"expr"`
}

// FilterOp is a comparison used by a filter predicate.
type FilterOp string

const (
	OpGT      FilterOp = ">"
	OpGTE     FilterOp = ">="
	OpEQ      FilterOp = "="
	OpNEQ     FilterOp = "!="
	OpLT      FilterOp = "<"
	OpLTE     FilterOp = "<="
	OpNotNull FilterOp = "not null"
)

var filterOps = []FilterOp{OpGT, OpGTE, OpEQ, OpNEQ, OpLT, OpLTE, OpNotNull}

// ParseFilterOp resolves a filter operator. Anything outside the fixed set
// is a configuration error.
func ParseFilterOp(s string) (FilterOp, error) {
	if s == "notNull" {
		return OpNotNull, nil
	}
	op, err := parseEnum("filter operator", s, filterOps)
	if err != nil {
		err.(*ValidationError).Suggestion = ""
	}
	return op, err
}

func (o *FilterOp) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, o, ParseFilterOp)
}

// Predicate is one clause of a filter conjunction.
type Predicate struct {
	Field string   `json:"field"`
	Op    FilterOp `json:"op"`
	Value any      `json:"value,omitempty"`
}

// Expr renders the predicate as an expression over datum.
func (p Predicate) Expr() string {
	field := Datum(p.Field)
	switch p.Op {
	case OpNotNull:
		return field + " !== null && !isNaN(" + field + ")"
	case OpEQ:
		return field + " == " + literal(p.Value)
	}
	return field + " " + string(p.Op) + " " + literal(p.Value)
}

// NotNull returns a predicate rejecting null values of field.
func NotNull(field string) Predicate {
	return Predicate{Field: field, Op: OpNotNull}
}

func literal(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
