package record

import (
	"errors"
	"fmt"
)

// SchemaError reports a patch that names a field the record does not declare,
// or a value that cannot be stored in the named field.
type SchemaError struct {
	// Record is the schema name ("Change" or "Global").
	Record string

	// Field is the offending field name as written in the patch.
	Field string

	// Reason is empty for unknown fields.
	Reason string
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("schema: %s.%s: %s", e.Record, e.Field, e.Reason)
	}
	return fmt.Sprintf("schema: %s has no field %q", e.Record, e.Field)
}

// ShapeError reports a cursor that does not address a constructed Change.
type ShapeError struct {
	Cursor int
	Len    int
	Reason string
}

// Error implements the error interface.
func (e *ShapeError) Error() string {
	return fmt.Sprintf("shape: cursor %d (of %d changes): %s", e.Cursor, e.Len, e.Reason)
}

// IsSchemaError returns true if err wraps a *SchemaError.
func IsSchemaError(err error) bool {
	var se *SchemaError
	return errors.As(err, &se)
}

// IsShapeError returns true if err wraps a *ShapeError.
func IsShapeError(err error) bool {
	var se *ShapeError
	return errors.As(err, &se)
}

// Recover converts a panic carrying a *SchemaError or *ShapeError into an
// error stored in *errp. Any other panic is re-raised.
//
// Usage:
//
//	func build() (err error) {
//	    defer record.Recover(&err)
//	    ...
//	}
func Recover(errp *error) {
	r := recover()
	if r == nil {
		return
	}
	switch e := r.(type) {
	case *SchemaError:
		*errp = e
	case *ShapeError:
		*errp = e
	default:
		panic(r)
	}
}
