package ingest

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

var (
	// ErrMissingSetupFile is returned when a legacy directory lacks one of
	// v_c, distances.dat, norm.fac or a fit file.
	ErrMissingSetupFile = errors.New("ingest: missing setup file")

	// ErrNotDirectory is returned when the legacy root is not a directory.
	ErrNotDirectory = errors.New("ingest: not a directory")

	// ErrSchema is wrapped by every schema validation failure.
	ErrSchema = errors.New("ingest: schema validation failed")
)

// ParseError reports a malformed row in a legacy file.
type ParseError struct {
	File    string
	Line    int
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// SchemaError is a schema violation with its source position.
type SchemaError struct {
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	return e.Message
}

// Unwrap lets errors.Is match ErrSchema.
func (e *SchemaError) Unwrap() error {
	return ErrSchema
}

// IsParseError returns true if err wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
