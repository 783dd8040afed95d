package ingest

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

//go:embed schema.cue
var schemaSource string

// Document selects the schema definition a JSON document is checked against.
type Document string

const (
	DatasetDocument Document = "#Dataset"
	SetupDocument   Document = "#Setup"
)

var (
	schemaMu    sync.Mutex
	schemaOnce  sync.Once
	schemaCtx   *cue.Context
	schemaValue cue.Value
)

func schema() (*cue.Context, cue.Value) {
	schemaOnce.Do(func() {
		schemaCtx = cuecontext.New()
		schemaValue = schemaCtx.CompileString(schemaSource, cue.Filename("schema.cue"))
	})
	return schemaCtx, schemaValue
}

// Validate checks a JSON document against the embedded schema and returns the
// unified value. filename is used in error positions.
func Validate(doc Document, filename string, data []byte) (cue.Value, error) {
	schemaMu.Lock()
	defer schemaMu.Unlock()

	ctx, s := schema()
	if err := s.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile schema: %w", err)
	}
	def := s.LookupPath(cue.ParsePath(string(doc)))
	if !def.Exists() {
		return cue.Value{}, fmt.Errorf("schema has no definition %s", doc)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return cue.Value{}, formatSchemaError(err)
	}
	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, formatSchemaError(err)
	}
	return unified, nil
}

// formatSchemaError keeps the first CUE error and its position.
func formatSchemaError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &SchemaError{Message: err.Error()}
	}
	first := errs[0]
	se := &SchemaError{Message: first.Error()}
	if positions := errors.Positions(first); len(positions) > 0 {
		se.Pos = positions[0]
	}
	return se
}
