package spec

import (
	"encoding/json"
	"fmt"
)

// Channel is a visual variable a field can be bound to.
type Channel string

const (
	X       Channel = "x"
	Y       Channel = "y"
	Row     Channel = "row"
	Column  Channel = "column"
	Size    Channel = "size"
	Color   Channel = "color"
	Shape   Channel = "shape"
	Text    Channel = "text"
	Detail  Channel = "detail"
	Opacity Channel = "opacity"
)

// Channels lists every channel in canonical iteration order. Everything that
// walks an encoding walks it in this order so output is deterministic.
var Channels = []Channel{X, Y, Row, Column, Size, Color, Shape, Text, Detail, Opacity}

// ScaleChannels lists the channels that are backed by a scale.
var ScaleChannels = []Channel{X, Y, Row, Column, Size, Color, Shape, Opacity}

// ParseChannel resolves a channel name.
func ParseChannel(s string) (Channel, error) {
	ch, err := parseEnum("channel", s, Channels)
	if err != nil {
		err.(*ValidationError).Err = ErrInvalidChannel
		return "", err
	}
	return ch, nil
}

func (c *Channel) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, c, ParseChannel)
}

// Role describes which kinds of fields a channel accepts.
type Role struct {
	Measure   bool
	Dimension bool
}

// SupportedRole returns the fixed role of ch. It fails with
// ErrInvalidChannel for anything outside the channel set.
func SupportedRole(ch Channel) (Role, error) {
	switch ch {
	case X, Y, Color, Opacity:
		return Role{Measure: true, Dimension: true}, nil
	case Row, Column, Shape, Detail:
		return Role{Dimension: true}, nil
	case Size, Text:
		return Role{Measure: true}, nil
	}
	return Role{}, fmt.Errorf("%w: %q", ErrInvalidChannel, string(ch))
}

// HasScale reports whether values on ch are mapped through a scale.
func (c Channel) HasScale() bool {
	switch c {
	case Text, Detail:
		return false
	}
	return true
}

// IsSpatial reports whether ch is a position channel.
func (c Channel) IsSpatial() bool {
	return c == X || c == Y
}

// IsFacet reports whether ch partitions the view into cells.
func (c Channel) IsFacet() bool {
	return c == Row || c == Column
}

// MarshalText lets channels key JSON objects.
func (c Channel) MarshalText() ([]byte, error) {
	return []byte(c), nil
}

// channelMap decodes an object keyed by channel names, rejecting unknown
// keys at the parse boundary.
func channelMap[V any](data []byte) (map[Channel]V, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make(map[Channel]V, len(raw))
	for k, v := range raw {
		ch, err := ParseChannel(k)
		if err != nil {
			return nil, err
		}
		var val V
		if err := json.Unmarshal(v, &val); err != nil {
			return nil, atPath(k, err)
		}
		out[ch] = val
	}
	return out, nil
}
