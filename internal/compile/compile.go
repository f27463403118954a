// Package compile turns a visualization specification into a rendering
// specification.
//
// A compile builds a Model tree from the spec and runs a fixed sequence of
// passes over it (data, selection, scale, layout, axis, legend, mark). Each
// pass visits children before their parent and dispatches on the node
// kind through the passes table. The root's results are then assembled
// into a single vega.Spec, which is checked for dangling references before
// it is returned.
package compile

import (
	"errors"
	"fmt"
	"log"

	"github.com/matthewbaird/vegalite/internal/schema"
	"github.com/matthewbaird/vegalite/internal/spec"
	"github.com/matthewbaird/vegalite/internal/stats"
	"github.com/matthewbaird/vegalite/internal/timeunit"
	"github.com/matthewbaird/vegalite/internal/vega"
)

// Options configure a compile.
type Options struct {
	// Stats summarizes source fields. When nil, inline data values are
	// summarized directly and URL data is compiled without statistics.
	Stats stats.Provider

	// Config replaces the built-in defaults as the base configuration.
	Config *spec.Config

	// Logger, when set, receives every warning as it is recorded.
	Logger *log.Logger
}

// Result is a successful compile.
type Result struct {
	Spec     *vega.Spec `json:"spec"`
	Warnings []Warning  `json:"warnings,omitempty"`
}

// InvariantError reports a combination the compiler has no rule for. It
// points at a gap in the rule tables rather than at the input.
type InvariantError struct {
	Op  string
	Err error
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("compile: %s: %v", e.Op, e.Err)
}

func (e *InvariantError) Unwrap() error { return e.Err }

// compiler holds the state of one compile call.
type compiler struct {
	config   *spec.Config
	opts     Options
	warnings []Warning

	sharedStats *stats.Memo
	sourceStats map[*Model]*stats.Memo
	lookups     []timeunit.Unit
}

// Compile validates s and compiles it.
func Compile(s *spec.Spec, opts Options) (*Result, error) {
	if err := spec.Validate(s); err != nil {
		return nil, err
	}

	c := &compiler{
		config:      opts.Config,
		opts:        opts,
		sourceStats: make(map[*Model]*stats.Memo),
	}
	if c.config == nil {
		c.config = spec.DefaultConfig()
	}
	if opts.Stats != nil {
		c.sharedStats = stats.NewMemo(opts.Stats)
	}

	root, err := c.build(s, nil, "")
	if err != nil {
		return nil, err
	}
	for i := range passes {
		if err := root.run(&passes[i]); err != nil {
			return nil, err
		}
	}

	out := c.assemble(root)
	if err := vega.Check(out); err != nil {
		return nil, &InvariantError{Op: "assemble", Err: err}
	}
	return &Result{Spec: out, Warnings: c.warnings}, nil
}

// CompileJSON checks data against the schema, decodes it and compiles it.
func CompileJSON(data []byte, opts Options) (*Result, error) {
	s, err := decode(data)
	if err != nil {
		return nil, err
	}
	return Compile(s, opts)
}

// ValidateJSON runs every check CompileJSON runs before the passes.
func ValidateJSON(data []byte) (*spec.Spec, error) {
	s, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(s); err != nil {
		return nil, err
	}
	return s, nil
}

func decode(data []byte) (*spec.Spec, error) {
	if err := schema.Validate(data); err != nil {
		return nil, err
	}
	return spec.Parse(data)
}

// statsFor returns the field summaries of the data declared by owner.
func (c *compiler) statsFor(owner *Model) *stats.Memo {
	if c.sharedStats != nil {
		return c.sharedStats
	}
	if memo, ok := c.sourceStats[owner]; ok {
		return memo
	}
	var p stats.Provider
	if d := owner.spec.Data; d != nil && len(d.Values) > 0 {
		p = stats.FromRows(d.Values)
	}
	memo := stats.NewMemo(p)
	c.sourceStats[owner] = memo
	return memo
}

// useLookup requests the lookup table of a cyclical time unit.
func (c *compiler) useLookup(u timeunit.Unit) {
	for _, have := range c.lookups {
		if have == u {
			return
		}
	}
	c.lookups = append(c.lookups, u)
}

// IsInvariant reports whether err is an internal invariant violation.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
