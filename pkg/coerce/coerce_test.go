package coerce

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/filereader/pkg/table"
	"github.com/ajitpratap0/filereader/pkg/tokenizer"
)

func tok(text string) tokenizer.Token {
	return tokenizer.Token{Text: text, Line: 7}
}

func quoted(text string) tokenizer.Token {
	return tokenizer.Token{Text: text, Line: 7, Quoted: true}
}

func TestCoerceBuiltins(t *testing.T) {
	c := New(Options{}, nil)

	cell, err := c.Coerce(tok("42"), table.Column{Name: "x", Type: table.TypeInt})
	require.NoError(t, err)
	assert.Equal(t, int64(42), cell.Value)

	cell, err = c.Coerce(tok("-2.5e1"), table.Column{Name: "y", Type: table.TypeDouble})
	require.NoError(t, err)
	assert.Equal(t, -25.0, cell.Value)

	cell, err = c.Coerce(tok("hello"), table.Column{Name: "s", Type: table.TypeString})
	require.NoError(t, err)
	assert.Equal(t, "hello", cell.Value)
	assert.False(t, cell.Missing)
}

func TestCoerceMissing(t *testing.T) {
	tests := []struct {
		name    string
		global  string
		column  *string
		token   tokenizer.Token
		missing bool
	}{
		{name: "unquoted empty", token: tok(""), missing: true},
		{name: "quoted empty", token: quoted(""), missing: false},
		{name: "global pattern", global: "NA", token: tok("NA"), missing: true},
		{name: "quoted pattern", global: "NA", token: quoted("NA"), missing: false},
		{name: "column overrides global", global: "NA", column: table.String("-"), token: tok("NA"), missing: false},
		{name: "column pattern", global: "NA", column: table.String("-"), token: tok("-"), missing: true},
		{name: "column disables pattern", global: "NA", column: table.String(""), token: tok("NA"), missing: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Options{MissingPattern: tt.global}, nil)
			cell, err := c.Coerce(tt.token, table.Column{Name: "s", Type: table.TypeString, MissingPattern: tt.column})
			require.NoError(t, err)
			assert.Equal(t, tt.missing, cell.Missing)
			if !tt.missing {
				assert.Equal(t, tt.token.Text, cell.Value)
			}
		})
	}
}

func TestCoerceSeparators(t *testing.T) {
	c := New(Options{ThousandsSeparator: '.', DecimalSeparator: ','}, nil)

	cell, err := c.Coerce(tok("1.234"), table.Column{Name: "x", Type: table.TypeInt})
	require.NoError(t, err)
	assert.Equal(t, int64(1234), cell.Value)

	cell, err = c.Coerce(tok("1.234,5"), table.Column{Name: "y", Type: table.TypeDouble})
	require.NoError(t, err)
	assert.Equal(t, 1234.5, cell.Value)

	_, err = c.Coerce(tok("5,6"), table.Column{Name: "x", Type: table.TypeInt})
	assert.Error(t, err)
}

func TestCustomDecimalRejectsDot(t *testing.T) {
	c := New(Options{DecimalSeparator: ','}, nil)
	_, err := c.Coerce(tok("1.5"), table.Column{Name: "y", Type: table.TypeDouble})
	var ce *TypeCoercionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "1.5", ce.RawText)
}

func TestCoerceFailure(t *testing.T) {
	c := New(Options{}, nil)
	cell, err := c.Coerce(tok("notanint"), table.Column{Name: "x", Type: table.TypeInt})

	var ce *TypeCoercionError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 7, ce.Line)
	assert.Equal(t, "x", ce.Column)
	assert.Equal(t, "notanint", ce.RawText)
	assert.True(t, cell.Missing)
	assert.Contains(t, err.Error(), `cannot convert "notanint" to int in column "x"`)
}

func TestBuiltinExtensions(t *testing.T) {
	c := New(Options{}, DefaultRegistry())
	schema := table.Schema{Columns: []table.Column{{Name: "d", Type: "decimal"}, {Name: "u", Type: "uuid"}}}
	assert.Empty(t, c.Resolve(schema))

	cell, err := c.Coerce(tok("12.50"), schema.Columns[0])
	require.NoError(t, err)
	want, err := decimal.NewFromString("12.5")
	require.NoError(t, err)
	assert.True(t, want.Equal(cell.Value.(decimal.Decimal)))

	id := uuid.New()
	cell, err = c.Coerce(tok(id.String()), schema.Columns[1])
	require.NoError(t, err)
	assert.Equal(t, id, cell.Value)

	_, err = c.Coerce(tok("not-a-uuid"), schema.Columns[1])
	assert.Error(t, err)
}

func TestUnknownExtensionDegradesOnce(t *testing.T) {
	c := New(Options{}, NewRegistry())
	var reported []table.DataType
	c.OnDegrade(func(dt table.DataType) { reported = append(reported, dt) })

	schema := table.Schema{Columns: []table.Column{{Name: "a", Type: "geo"}, {Name: "b", Type: "geo"}}}
	assert.Equal(t, []table.DataType{"geo"}, c.Resolve(schema))
	assert.Equal(t, []table.DataType{"geo"}, reported)

	cell, err := c.Coerce(tok("52.1,4.3"), schema.Columns[0])
	require.NoError(t, err)
	assert.Equal(t, table.TypeString, cell.Type)
	assert.Equal(t, "52.1,4.3", cell.Value)
}

func TestRuntimeUnavailableDegrades(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	reg.Register(FuncType{
		TypeName: "flaky",
		Build: func(text string) (any, error) {
			calls++
			return nil, ErrUnavailable
		},
	})
	c := New(Options{}, reg)
	count := 0
	c.OnDegrade(func(table.DataType) { count++ })

	col := table.Column{Name: "f", Type: "flaky"}
	assert.Empty(t, c.Resolve(table.Schema{Columns: []table.Column{col}}))

	for i := 0; i < 3; i++ {
		cell, err := c.Coerce(tok("v"), col)
		require.NoError(t, err)
		assert.Equal(t, table.TypeString, cell.Type)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, count)
	assert.True(t, c.Degraded("flaky"))
}

func TestUnresolvedExtensionDegrades(t *testing.T) {
	c := New(Options{}, nil)
	count := 0
	c.OnDegrade(func(table.DataType) { count++ })

	for _, typ := range []table.DataType{"uuid", "ipv4", "uuid"} {
		cell, err := c.Coerce(tok("x"), table.Column{Name: "c", Type: typ})
		require.NoError(t, err)
		assert.Equal(t, table.Cell{Type: table.TypeString, Value: "x"}, cell)
	}
	assert.Equal(t, 2, count)
	assert.True(t, c.Degraded("uuid"))
	assert.Equal(t, []table.DataType{"ipv4", "uuid"}, c.DegradedTypes())
}

func TestExtensionError(t *testing.T) {
	reg := NewRegistry()
	boom := errors.New("boom")
	reg.Register(FuncType{TypeName: "strict", Build: func(string) (any, error) { return nil, boom }})
	c := New(Options{}, reg)

	_, err := c.Coerce(tok("x"), table.Column{Name: "s", Type: "strict"})
	assert.ErrorIs(t, err, boom)
}
