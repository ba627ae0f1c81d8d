// Package table defines the typed row model produced by the reader: column
// descriptors, row schemas, cells, rows and per-column domains.
package table

import (
	"fmt"
	"strings"
)

// DataType names a column type. The built-in types are TypeInt, TypeDouble and
// TypeString; any other non-empty name refers to an extension type.
type DataType string

const (
	TypeInt    DataType = "int"
	TypeDouble DataType = "double"
	TypeString DataType = "string"
)

// IsNumeric reports whether domain bounds apply to the type.
func (t DataType) IsNumeric() bool {
	return t == TypeInt || t == TypeDouble
}

// IsBuiltin reports whether t is one of the three built-in types.
func (t DataType) IsBuiltin() bool {
	return t == TypeInt || t == TypeDouble || t == TypeString
}

// Cell is a typed value or a missing marker.
type Cell struct {
	Type    DataType
	Value   any
	Missing bool
}

// MissingCell returns a missing cell of type t.
func MissingCell(t DataType) Cell {
	return Cell{Type: t, Missing: true}
}

// String renders the cell value, "?" for missing cells.
func (c Cell) String() string {
	if c.Missing {
		return "?"
	}
	if s, ok := c.Value.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(c.Value)
}

// Row is one typed output row.
type Row struct {
	ID    string
	Cells []Cell
}

func (r Row) String() string {
	parts := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		parts[i] = c.String()
	}
	return r.ID + ": " + strings.Join(parts, ", ")
}

// Column describes one token position of the input.
type Column struct {
	Name string
	Type DataType
	// MissingPattern overrides the global pattern when non-nil. A pointer to
	// the empty string disables pattern substitution for the column.
	MissingPattern *string
	// Skip drops the column from output. It still occupies a token position.
	Skip bool
	// ReadPossibleValues enables domain accumulation from the file.
	ReadPossibleValues bool
	Domain             *Domain
}

// Schema is the ordered column layout of one ingestion run.
type Schema struct {
	// RowIDColumn is set when the first token of every row is its identifier.
	RowIDColumn bool
	Columns     []Column
}

// SchemaError reports a structurally invalid schema.
type SchemaError struct {
	Column int
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid schema: column %d: %s", e.Column, e.Reason)
}

// Validate checks that column names are unique and every type is set.
func (s Schema) Validate() error {
	seen := make(map[string]int, len(s.Columns))
	for i, c := range s.Columns {
		if c.Type == "" {
			return &SchemaError{Column: i, Reason: fmt.Sprintf("column %q has no type", c.Name)}
		}
		if prev, ok := seen[c.Name]; ok {
			return &SchemaError{Column: i, Reason: fmt.Sprintf("name %q already used by column %d", c.Name, prev)}
		}
		seen[c.Name] = i
	}
	return nil
}

// ExpectedTokens is the number of tokens a complete row carries.
func (s Schema) ExpectedTokens() int {
	n := len(s.Columns)
	if s.RowIDColumn {
		n++
	}
	return n
}

// OutputColumns returns the non-skipped columns in order.
func (s Schema) OutputColumns() []Column {
	out := make([]Column, 0, len(s.Columns))
	for _, c := range s.Columns {
		if !c.Skip {
			out = append(out, c)
		}
	}
	return out
}

// String returns a copy of v, for building MissingPattern pointers.
func String(v string) *string {
	return &v
}
