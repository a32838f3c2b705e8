package versioning

import (
	"errors"
	"fmt"

	"github.com/simonhull/firebird-suite/falcon/pkg/schema"
)

// ErrMalformedSchema is schema.ErrMalformed, re-exported for callers that only
// import versioning.
var ErrMalformedSchema = schema.ErrMalformed

// SchemaError reports a schema/params inconsistency found while validating.
// It is fatal for the entry being validated.
type SchemaError struct {
	Trace   string // Dotted trace path where the problem was found
	Message string
}

// Error returns a formatted error message
func (e *SchemaError) Error() string {
	if e.Trace == "" {
		return fmt.Sprintf("malformed schema: %s", e.Message)
	}
	return fmt.Sprintf("malformed schema at %s: %s", e.Trace, e.Message)
}

// Unwrap allows errors.Is(err, schema.ErrMalformed)
func (e *SchemaError) Unwrap() error {
	return schema.ErrMalformed
}

func malformed(p Path, format string, args ...any) error {
	return &SchemaError{Trace: p.String(), Message: fmt.Sprintf(format, args...)}
}

// atPath attaches a trace to errors raised without one
func atPath(err error, p Path) error {
	var se *SchemaError
	if errors.As(err, &se) && se.Trace == "" {
		return &SchemaError{Trace: p.String(), Message: se.Message}
	}
	return err
}
