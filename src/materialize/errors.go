package materialize

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// RowParseError reports a line that could not be converted under the
// table's declared schema.
type RowParseError struct {
	Table  string
	File   string
	Line   int
	Column string
	Err    error
}

func (e *RowParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("parse %s (%s:%d): %v", e.Table, e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s.%s (%s:%d): %v", e.Table, e.Column, e.File, e.Line, e.Err)
}

func (e *RowParseError) Unwrap() error { return e.Err }

// SchemaMismatchError reports a value that does not fit a sampled schema.
type SchemaMismatchError struct {
	Table  string
	File   string
	Line   int
	Column string
	Want   arrow.DataType
	Value  string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s.%s (%s:%d): value %q does not match inferred type %s",
		e.Table, e.Column, e.File, e.Line, e.Value, e.Want)
}
