package spec

import "encoding/json"

// SelectionType is the kind of interactive selection.
type SelectionType string

const (
	SelectSingle   SelectionType = "single"
	SelectMulti    SelectionType = "multi"
	SelectInterval SelectionType = "interval"
)

// ParseSelectionType resolves a selection type.
func ParseSelectionType(s string) (SelectionType, error) {
	return parseEnum("selection type", s, []SelectionType{SelectSingle, SelectMulti, SelectInterval})
}

func (s *SelectionType) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, s, ParseSelectionType)
}

// Selection declares a named selection on a unit view. Only its structure
// is compiled; event wiring belongs to the renderer.
type Selection struct {
	Type      SelectionType   `json:"type"`
	Project   *Projection     `json:"project,omitempty"`
	Bind      json.RawMessage `json:"bind,omitempty"`
	Translate json.RawMessage `json:"translate,omitempty"`
	Zoom      json.RawMessage `json:"zoom,omitempty"`
	Toggle    json.RawMessage `json:"toggle,omitempty"`
	Resolve   string          `json:"resolve,omitempty"`
}

// Projection restricts a selection to fields or encoded channels.
type Projection struct {
	Fields    []string  `json:"fields,omitempty"`
	Encodings []Channel `json:"encodings,omitempty"`
}

// BindsScales reports whether the selection drives its view's scales.
func (s *Selection) BindsScales() bool {
	var b string
	return json.Unmarshal(s.Bind, &b) == nil && b == "scales"
}

// Enabled reports whether an optional bool-or-string member is switched on.
func Enabled(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var b bool
	if json.Unmarshal(raw, &b) == nil {
		return b
	}
	return string(raw) != "null"
}
