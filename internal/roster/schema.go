package roster

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// SchemaError reports a response that does not satisfy the paged-query
// contract. Path is the CUE path of the first offending field.
type SchemaError struct {
	Path    string
	Message string
}

func (e *SchemaError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("response schema: %s: %s", e.Path, e.Message)
	}
	return "response schema: " + e.Message
}

// Schema validates raw paged-query responses against schema.cue.
//
// A cue.Context is not safe for concurrent use, so validation is serialized.
type Schema struct {
	mu       sync.Mutex
	ctx      *cue.Context
	response cue.Value
}

// NewSchema compiles the embedded response contract.
func NewSchema() (*Schema, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile response schema: %w", err)
	}
	response := root.LookupPath(cue.ParsePath("#Response"))
	if !response.Exists() {
		return nil, fmt.Errorf("compile response schema: #Response not defined")
	}
	return &Schema{ctx: ctx, response: response}, nil
}

// MustSchema is NewSchema for package-level initialization.
func MustSchema() *Schema {
	s, err := NewSchema()
	if err != nil {
		panic(err)
	}
	return s
}

// ValidateResponse checks a JSON document against #Response.
func (s *Schema) ValidateResponse(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.ctx.CompileBytes(data, cue.Filename("response.json"))
	if err := doc.Err(); err != nil {
		return schemaError(err)
	}
	if err := s.response.Unify(doc).Validate(cue.Concrete(true)); err != nil {
		return schemaError(err)
	}
	return nil
}

// schemaError keeps the first CUE error and its path.
func schemaError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &SchemaError{Message: err.Error()}
	}
	first := errs[0]
	format, args := first.Msg()
	return &SchemaError{
		Path:    strings.Join(first.Path(), "."),
		Message: fmt.Sprintf(format, args...),
	}
}
