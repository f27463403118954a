package spec

// Mark is a graphical primitive type.
type Mark string

const (
	MarkBar    Mark = "bar"
	MarkLine   Mark = "line"
	MarkArea   Mark = "area"
	MarkPoint  Mark = "point"
	MarkCircle Mark = "circle"
	MarkSquare Mark = "square"
	MarkTick   Mark = "tick"
	MarkText   Mark = "text"
	MarkRect   Mark = "rect"
)

// ParseMark resolves a mark name against the default registry.
func ParseMark(s string) (Mark, error) {
	return parseEnum("mark", s, Marks.Names())
}

func (m *Mark) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, m, ParseMark)
}

// MarkMeta describes the channel rules of one mark type.
type MarkMeta struct {
	Mark     Mark
	Render   string      // rendering primitive ("rect", "symbol", ...)
	Required [][]Channel // each group needs at least one present channel
	Supports []Channel   // channels the mark can encode
	Filled   bool        // default for config.<mark>.filled
}

// Supported reports whether ch may be encoded on the mark.
func (mm *MarkMeta) Supported(ch Channel) bool {
	for _, c := range mm.Supports {
		if c == ch {
			return true
		}
	}
	return false
}

// MarkRegistry holds channel rules for all mark types. It is built once and
// is safe for concurrent read access.
type MarkRegistry struct {
	marks map[Mark]*MarkMeta
	order []Mark
}

// NewMarkRegistry creates an empty registry.
func NewMarkRegistry() *MarkRegistry {
	return &MarkRegistry{marks: make(map[Mark]*MarkMeta)}
}

// Register adds a mark to the registry.
func (r *MarkRegistry) Register(mm *MarkMeta) {
	r.marks[mm.Mark] = mm
	r.order = append(r.order, mm.Mark)
}

// Lookup returns the rules for a mark, or nil if not found.
func (r *MarkRegistry) Lookup(m Mark) *MarkMeta {
	return r.marks[m]
}

// Names returns all registered marks in registration order.
func (r *MarkRegistry) Names() []Mark {
	return r.order
}

// Marks is the registry of built-in mark types.
var Marks = defaultMarks()

func defaultMarks() *MarkRegistry {
	facet := []Channel{Row, Column}
	with := func(chs ...Channel) []Channel {
		return append(append([]Channel{}, facet...), chs...)
	}

	r := NewMarkRegistry()
	r.Register(&MarkMeta{
		Mark:     MarkBar,
		Render:   "rect",
		Required: [][]Channel{{X, Y}},
		Supports: with(X, Y, Size, Color, Opacity),
		Filled:   true,
	})
	r.Register(&MarkMeta{
		Mark:     MarkLine,
		Render:   "line",
		Required: [][]Channel{{X}, {Y}},
		Supports: with(X, Y, Color, Opacity, Detail),
	})
	r.Register(&MarkMeta{
		Mark:     MarkArea,
		Render:   "area",
		Required: [][]Channel{{X}, {Y}},
		Supports: with(X, Y, Color, Opacity, Detail),
		Filled:   true,
	})
	r.Register(&MarkMeta{
		Mark:     MarkPoint,
		Render:   "symbol",
		Supports: with(X, Y, Color, Opacity, Size, Detail, Shape),
	})
	r.Register(&MarkMeta{
		Mark:     MarkCircle,
		Render:   "symbol",
		Supports: with(X, Y, Color, Opacity, Size, Detail),
		Filled:   true,
	})
	r.Register(&MarkMeta{
		Mark:     MarkSquare,
		Render:   "symbol",
		Supports: with(X, Y, Color, Opacity, Size, Detail),
		Filled:   true,
	})
	r.Register(&MarkMeta{
		Mark:     MarkTick,
		Render:   "rect",
		Supports: with(X, Y, Color, Opacity, Detail),
		Filled:   true,
	})
	r.Register(&MarkMeta{
		Mark:     MarkText,
		Render:   "text",
		Required: [][]Channel{{Text}},
		Supports: with(X, Y, Size, Color, Opacity, Text),
		Filled:   true,
	})
	r.Register(&MarkMeta{
		Mark:     MarkRect,
		Render:   "rect",
		Supports: with(X, Y, Color, Opacity, Detail),
		Filled:   true,
	})
	return r
}
