// Package coerce converts raw tokens into typed cells.
package coerce

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/ajitpratap0/filereader/pkg/table"
	"github.com/ajitpratap0/filereader/pkg/tokenizer"
)

// TypeCoercionError reports a token that is not a valid value of its column type.
type TypeCoercionError struct {
	Line    int
	Column  string
	RawText string
	Type    table.DataType
	Cause   error
}

func (e *TypeCoercionError) Error() string {
	return fmt.Sprintf("line %d: cannot convert %q to %s in column %q", e.Line, e.RawText, e.Type, e.Column)
}

func (e *TypeCoercionError) Unwrap() error {
	return e.Cause
}

// Options configures numeric parsing.
type Options struct {
	// DecimalSeparator defaults to '.'.
	DecimalSeparator rune
	// ThousandsSeparator is stripped before parsing; zero disables it.
	ThousandsSeparator rune
	// MissingPattern is the global missing value pattern.
	MissingPattern string
}

// Coercer turns tokens into cells. Create one per run.
type Coercer struct {
	opts      Options
	registry  *Registry
	degraded  map[table.DataType]bool
	onDegrade func(table.DataType)
}

// New creates a coercer. A nil registry means no extension types.
func New(opts Options, registry *Registry) *Coercer {
	if opts.DecimalSeparator == 0 {
		opts.DecimalSeparator = '.'
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Coercer{opts: opts, registry: registry, degraded: make(map[table.DataType]bool)}
}

// Resolve looks up the extension types used by schema once. Unknown or
// unavailable types degrade to string; the degraded types are returned so the
// caller can report them once.
func (c *Coercer) Resolve(schema table.Schema) []table.DataType {
	var out []table.DataType
	for _, col := range schema.Columns {
		if col.Type.IsBuiltin() || col.Skip {
			continue
		}
		if c.degraded[col.Type] {
			continue
		}
		ext, ok := c.registry.Lookup(col.Type)
		if !ok || !ext.Available() {
			c.degrade(col.Type)
			out = append(out, col.Type)
		}
	}
	return out
}

// EffectiveType is the type a column's cells are produced as.
func (c *Coercer) EffectiveType(t table.DataType) table.DataType {
	if t.IsBuiltin() || !c.degraded[t] {
		return t
	}
	return table.TypeString
}

// EffectivePattern returns the column pattern if set, otherwise the global one.
func (c *Coercer) EffectivePattern(col table.Column) string {
	if col.MissingPattern != nil {
		return *col.MissingPattern
	}
	return c.opts.MissingPattern
}

// Coerce converts tok for col. An unquoted empty token is always missing, and
// so is an unquoted token equal to a non-empty effective pattern. Quoted
// tokens are never missing.
func (c *Coercer) Coerce(tok tokenizer.Token, col table.Column) (table.Cell, error) {
	typ := c.EffectiveType(col.Type)
	if !tok.Quoted {
		pattern := c.EffectivePattern(col)
		if tok.Text == "" || (pattern != "" && tok.Text == pattern) {
			return table.MissingCell(typ), nil
		}
	}

	fail := func(cause error) (table.Cell, error) {
		return table.MissingCell(typ), &TypeCoercionError{
			Line:    tok.Line,
			Column:  col.Name,
			RawText: tok.Text,
			Type:    typ,
			Cause:   cause,
		}
	}

	switch typ {
	case table.TypeString:
		return table.Cell{Type: typ, Value: tok.Text}, nil
	case table.TypeInt:
		text, err := c.normalizeNumber(tok.Text, false)
		if err != nil {
			return fail(err)
		}
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return fail(err)
		}
		return table.Cell{Type: typ, Value: v}, nil
	case table.TypeDouble:
		text, err := c.normalizeNumber(tok.Text, true)
		if err != nil {
			return fail(err)
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return fail(err)
		}
		return table.Cell{Type: typ, Value: v}, nil
	}

	ext, ok := c.registry.Lookup(typ)
	if !ok || !ext.Available() {
		c.degrade(typ)
		return table.Cell{Type: table.TypeString, Value: tok.Text}, nil
	}
	v, err := ext.Construct(tok.Text)
	if errors.Is(err, ErrUnavailable) {
		// from now on the column is a string column
		c.degrade(typ)
		return table.Cell{Type: table.TypeString, Value: tok.Text}, nil
	}
	if err != nil {
		return fail(err)
	}
	return table.Cell{Type: typ, Value: v}, nil
}

// OnDegrade installs a callback invoked once for each extension type that
// falls back to string.
func (c *Coercer) OnDegrade(fn func(table.DataType)) {
	c.onDegrade = fn
}

func (c *Coercer) degrade(t table.DataType) {
	if c.degraded[t] {
		return
	}
	c.degraded[t] = true
	if c.onDegrade != nil {
		c.onDegrade(t)
	}
}

// Degraded reports whether t fell back to string during this run.
func (c *Coercer) Degraded(t table.DataType) bool {
	return c.degraded[t]
}

// DegradedTypes lists every extension type that fell back to string, sorted.
func (c *Coercer) DegradedTypes() []table.DataType {
	out := make([]table.DataType, 0, len(c.degraded))
	for t := range c.degraded {
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

var errCustomDecimalDot = errors.New("'.' is not a valid decimal separator here")

// normalizeNumber strips the thousands separator and rewrites the decimal
// separator to '.'. With a custom decimal separator a literal '.' is rejected.
func (c *Coercer) normalizeNumber(s string, allowDecimal bool) (string, error) {
	if c.opts.ThousandsSeparator != 0 {
		s = strings.ReplaceAll(s, string(c.opts.ThousandsSeparator), "")
	}
	if c.opts.DecimalSeparator != '.' {
		if strings.ContainsRune(s, '.') {
			return "", errCustomDecimalDot
		}
		if allowDecimal {
			s = strings.ReplaceAll(s, string(c.opts.DecimalSeparator), ".")
		}
	}
	return s, nil
}
