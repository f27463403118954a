package spec

import "encoding/json"

// Encoding maps channels to field definitions.
type Encoding struct {
	X       *FieldDef
	Y       *FieldDef
	Row     *FieldDef
	Column  *FieldDef
	Size    *FieldDef
	Color   *FieldDef
	Shape   *FieldDef
	Text    *FieldDef
	Detail  *FieldDef
	Opacity *FieldDef
}

// Get returns the field definition bound to ch, or nil.
func (e *Encoding) Get(ch Channel) *FieldDef {
	if e == nil {
		return nil
	}
	switch ch {
	case X:
		return e.X
	case Y:
		return e.Y
	case Row:
		return e.Row
	case Column:
		return e.Column
	case Size:
		return e.Size
	case Color:
		return e.Color
	case Shape:
		return e.Shape
	case Text:
		return e.Text
	case Detail:
		return e.Detail
	case Opacity:
		return e.Opacity
	}
	return nil
}

// Set binds fd to ch.
func (e *Encoding) Set(ch Channel, fd *FieldDef) {
	switch ch {
	case X:
		e.X = fd
	case Y:
		e.Y = fd
	case Row:
		e.Row = fd
	case Column:
		e.Column = fd
	case Size:
		e.Size = fd
	case Color:
		e.Color = fd
	case Shape:
		e.Shape = fd
	case Text:
		e.Text = fd
	case Detail:
		e.Detail = fd
	case Opacity:
		e.Opacity = fd
	}
}

// Has reports whether ch is bound to a field (not just a literal value).
func (e *Encoding) Has(ch Channel) bool {
	fd := e.Get(ch)
	return fd != nil && (fd.Field != "" || fd.Repeat != "" || fd.IsCount())
}

// Channels returns the bound channels in canonical order.
func (e *Encoding) Channels() []Channel {
	var out []Channel
	for _, ch := range Channels {
		if e.Get(ch) != nil {
			out = append(out, ch)
		}
	}
	return out
}

func (e *Encoding) UnmarshalJSON(data []byte) error {
	m, err := channelMap[*FieldDef](data)
	if err != nil {
		return atPath("encoding", err)
	}
	*e = Encoding{}
	for ch, fd := range m {
		e.Set(ch, fd)
	}
	return nil
}

// FacetMapping partitions a view into rows and columns.
type FacetMapping struct {
	Row    *FieldDef `json:"row,omitempty"`
	Column *FieldDef `json:"column,omitempty"`
}

// Get returns the facet field for row or column.
func (f *FacetMapping) Get(ch Channel) *FieldDef {
	if f == nil {
		return nil
	}
	switch ch {
	case Row:
		return f.Row
	case Column:
		return f.Column
	}
	return nil
}

func (f *FacetMapping) UnmarshalJSON(data []byte) error {
	m, err := channelMap[*FieldDef](data)
	if err != nil {
		return atPath("facet", err)
	}
	*f = FacetMapping{}
	for ch, fd := range m {
		switch ch {
		case Row:
			f.Row = fd
		case Column:
			f.Column = fd
		default:
			return newValidationError("facet", "channel %q cannot facet a view", ch)
		}
	}
	return nil
}

// RepeatMapping lists the fields substituted into a repeated spec.
type RepeatMapping struct {
	Row    []string `json:"row,omitempty"`
	Column []string `json:"column,omitempty"`
}

var _ json.Unmarshaler = (*Encoding)(nil)
