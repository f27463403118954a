// Package schema checks the structural shape of a specification document
// against the embedded CUE schema before it is decoded.
package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/matthewbaird/vegalite/internal/spec"
)

//go:embed vegalite.cue
var source string

// Schema validates documents against the #Spec definition. A cue.Context
// is not safe for concurrent use, so Validate serializes callers.
type Schema struct {
	mu   sync.Mutex
	ctx  *cue.Context
	spec cue.Value
}

// New compiles the embedded schema.
func New() (*Schema, error) {
	ctx := cuecontext.New()
	val := ctx.CompileString(source, cue.Filename("vegalite.cue"))
	if val.Err() != nil {
		return nil, fmt.Errorf("compiling schema: %w", val.Err())
	}
	def := val.LookupPath(cue.ParsePath("#Spec"))
	if def.Err() != nil {
		return nil, fmt.Errorf("schema has no #Spec: %w", def.Err())
	}
	return &Schema{ctx: ctx, spec: def}, nil
}

// Validate checks data against #Spec. Violations are reported as a
// *spec.ValidationError carrying the path of the first offending value.
func (s *Schema) Validate(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.ctx.CompileBytes(data, cue.Filename("spec.json"))
	if err := doc.Err(); err != nil {
		return &spec.ValidationError{Message: "malformed document: " + firstMessage(err)}
	}
	if err := s.spec.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		errs := cueerrors.Errors(err)
		path := "$"
		if len(errs) > 0 && len(errs[0].Path()) > 0 {
			path += "." + strings.Join(errs[0].Path(), ".")
		}
		return &spec.ValidationError{Path: path, Message: firstMessage(err)}
	}
	return nil
}

func firstMessage(err error) string {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err.Error()
	}
	format, args := errs[0].Msg()
	return fmt.Sprintf(format, args...)
}

var defaultSchema = sync.OnceValues(New)

// Validate checks data against the embedded schema.
func Validate(data []byte) error {
	s, err := defaultSchema()
	if err != nil {
		return err
	}
	return s.Validate(data)
}
