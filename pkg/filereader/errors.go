package filereader

import (
	"errors"
	"fmt"

	"github.com/ajitpratap0/filereader/pkg/coerce"
	"github.com/ajitpratap0/filereader/pkg/table"
	"github.com/ajitpratap0/filereader/pkg/tokenizer"
)

// ErrClosed is returned by Next after Close.
var ErrClosed = errors.New("filereader: stream closed")

// ShortRowError reports a row with fewer tokens than the schema expects.
type ShortRowError struct {
	Line     int
	Expected int
	Actual   int
}

func (e *ShortRowError) Error() string {
	return fmt.Sprintf("too few data elements in row: expected %d, got %d", e.Expected, e.Actual)
}

// LongRowError reports a row with more tokens than the schema expects.
type LongRowError struct {
	Line     int
	Expected int
	Actual   int
}

func (e *LongRowError) Error() string {
	return fmt.Sprintf("too many data elements in row: expected %d, got %d", e.Expected, e.Actual)
}

// DuplicateRowIDError reports a repeated row identifier while uniquification
// is off.
type DuplicateRowIDError struct {
	ID   string
	Line int
}

func (e *DuplicateRowIDError) Error() string {
	return fmt.Sprintf("duplicate row id %q", e.ID)
}

// InterruptedError is returned once a hard interrupt has been observed. The
// rows read so far must not be used.
type InterruptedError struct {
	Line     int
	RowsRead int64
}

func (e *InterruptedError) Error() string {
	return fmt.Sprintf("reading interrupted after %d rows (line %d)", e.RowsRead, e.Line)
}

// RowReadError is the single failure a stream raises for a bad row. Partial
// holds the cells that could be built, with missing cells for the rest.
type RowReadError struct {
	Message string
	Partial table.Row
	Line    int
	Source  string
	Cause   error
}

func (e *RowReadError) Error() string {
	return e.Message
}

func (e *RowReadError) Unwrap() error {
	return e.Cause
}

// Kind names the underlying failure for metrics and logs.
func (e *RowReadError) Kind() string {
	return errorKind(e.Cause)
}

func errorKind(err error) string {
	var (
		short *ShortRowError
		long  *LongRowError
		dup   *DuplicateRowIDError
		tc    *coerce.TypeCoercionError
		te    *tokenizer.TokenizeError
	)
	switch {
	case errors.As(err, &short):
		return "short_row"
	case errors.As(err, &long):
		return "long_row"
	case errors.As(err, &dup):
		return "duplicate_row_id"
	case errors.As(err, &tc):
		return "type_coercion"
	case errors.As(err, &te):
		return "tokenize"
	}
	return "other"
}

func newRowReadError(cause error, partial table.Row, line int, source string) *RowReadError {
	id := partial.ID
	if id == "" {
		id = "?"
	}
	return &RowReadError{
		Message: fmt.Sprintf("%v (line: %d (%s), source: '%s')", cause, line, id, source),
		Partial: partial,
		Line:    line,
		Source:  source,
		Cause:   cause,
	}
}
