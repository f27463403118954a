// Package spec defines the declarative visualization specification: the
// input document the compiler consumes.
//
// Every enumerated value (marks, channels, types, aggregate ops, scale
// types, time units, filter operators, resolve modes) is a closed set
// decoded at the parse boundary, so later stages never see an unknown
// value. Parse decodes a document; Validate checks the cross-field rules
// (required and supported channels per mark, channel roles, aggregate and
// scale-type legality) before any compilation pass runs.
package spec

import (
	"encoding/json"
	"errors"
)

// Kind identifies which composition variant a spec node is.
type Kind int

const (
	KindUnit Kind = iota
	KindLayer
	KindFacet
	KindConcat
	KindRepeat
)

// String returns the document keyword of the variant.
func (k Kind) String() string {
	switch k {
	case KindUnit:
		return "unit"
	case KindLayer:
		return "layer"
	case KindFacet:
		return "facet"
	case KindConcat:
		return "concat"
	case KindRepeat:
		return "repeat"
	default:
		return "unknown"
	}
}

// Spec is one node of a specification tree. Exactly one of the variant
// groups is set: mark+encoding (unit), layer, facet+spec, hconcat/vconcat,
// or repeat+spec.
type Spec struct {
	Schema      string                `json:"$schema,omitempty"`
	Name        string                `json:"name,omitempty"`
	Description string                `json:"description,omitempty"`
	Data        *Data                 `json:"data,omitempty"`
	Transform   *Transform            `json:"transform,omitempty"`
	Width       *float64              `json:"width,omitempty"`
	Height      *float64              `json:"height,omitempty"`
	Config      json.RawMessage       `json:"config,omitempty"`
	Resolve     *Resolve              `json:"resolve,omitempty"`
	Selection   map[string]*Selection `json:"selection,omitempty"`

	Mark     Mark      `json:"mark,omitempty"`
	Encoding *Encoding `json:"encoding,omitempty"`

	Layer []*Spec `json:"layer,omitempty"`

	Facet *FacetMapping `json:"facet,omitempty"`
	Spec  *Spec         `json:"spec,omitempty"`

	HConcat []*Spec `json:"hconcat,omitempty"`
	VConcat []*Spec `json:"vconcat,omitempty"`

	Repeat *RepeatMapping `json:"repeat,omitempty"`
}

// Kind classifies the node. A node that sets none or several variant
// groups is a validation error.
func (s *Spec) Kind() (Kind, error) {
	var kinds []Kind
	if s.Mark != "" || s.Encoding != nil {
		kinds = append(kinds, KindUnit)
	}
	if s.Layer != nil {
		kinds = append(kinds, KindLayer)
	}
	if s.Facet != nil {
		kinds = append(kinds, KindFacet)
	}
	if s.HConcat != nil || s.VConcat != nil {
		kinds = append(kinds, KindConcat)
	}
	if s.Repeat != nil {
		kinds = append(kinds, KindRepeat)
	}
	switch len(kinds) {
	case 0:
		return 0, newValidationError("", "spec needs one of mark, layer, facet, hconcat, vconcat or repeat")
	case 1:
		return kinds[0], nil
	}
	return 0, newValidationError("", "spec mixes %s and %s", kinds[0], kinds[1])
}

// Parse decodes a specification document.
func Parse(data []byte) (*Spec, error) {
	var s Spec
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, asValidation(err)
	}
	return &s, nil
}

// asValidation wraps decoding errors so every parse failure satisfies
// errors.Is(err, ErrValidation).
func asValidation(err error) error {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) {
		return &ValidationError{Path: te.Field, Message: "expected " + te.Type.String() + ", got " + te.Value}
	}
	return &ValidationError{Message: err.Error()}
}
