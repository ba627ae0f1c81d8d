package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/filereader/pkg/compression"
	"github.com/ajitpratap0/filereader/pkg/table"
)

func TestDefaultsAreValid(t *testing.T) {
	require.NoError(t, NewIngestionConfig("x").Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *IngestionConfig)
		wantErr string
	}{
		{"empty delimiter", func(c *IngestionConfig) { c.Format.ColumnDelimiters = []string{""} }, "column_delimiters[0] is empty"},
		{"delimiter is quote", func(c *IngestionConfig) { c.Format.ColumnDelimiters = []string{`"`} }, "equals the quote"},
		{"no row delimiter", func(c *IngestionConfig) { c.Format.RowDelimiter = "" }, "row_delimiter is required"},
		{"long quote", func(c *IngestionConfig) { c.Format.Quote = `""` }, "quote must be a single character"},
		{"comment is quote", func(c *IngestionConfig) { c.Format.Comment = `"` }, "collides"},
		{"no decimal", func(c *IngestionConfig) { c.Format.DecimalSeparator = "" }, "decimal_separator"},
		{"bad policy", func(c *IngestionConfig) { c.Rows.ShortRows = "drop" }, "short_rows"},
		{"negative cap", func(c *IngestionConfig) { c.Rows.MaxRows = -1 }, "max_rows"},
		{"bad compression", func(c *IngestionConfig) { c.Source.Compression = "rar" }, "unsupported compression"},
		{"bad charset", func(c *IngestionConfig) { c.Source.Charset = "klingon" }, "unknown charset"},
		{"duplicate column", func(c *IngestionConfig) {
			c.Schema.Columns = []ColumnConfig{{Name: "a", Type: "int"}, {Name: "a", Type: "int"}}
		}, "already used"},
		{"untyped column", func(c *IngestionConfig) {
			c.Schema.Columns = []ColumnConfig{{Name: "a"}}
		}, "has no type"},
		{"string bounds", func(c *IngestionConfig) {
			lo := 1.0
			c.Schema.Columns = []ColumnConfig{{Name: "a", Type: "string", Lower: &lo}}
		}, "bounds need a numeric column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewIngestionConfig("x")
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadIngestion(t *testing.T) {
	t.Setenv("FILEREADER_TEST_MISSING", "n/a")
	path := filepath.Join(t.TempDir(), "orders.yaml")
	content := `
format:
  column_delimiters: [";", "|"]
  missing_pattern: ${FILEREADER_TEST_MISSING}
  decimal_separator: ","
rows:
  short_rows: pad
  max_rows: 10
schema:
  row_id_column: true
  columns:
    - name: qty
      type: int
      lower: 0
      upper: 5
    - name: state
      type: string
      missing_pattern: "-"
      possible_values: [a, b]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadIngestion(path)
	require.NoError(t, err)
	assert.Equal(t, "orders", cfg.Name)
	assert.Equal(t, []string{";", "|"}, cfg.Format.ColumnDelimiters)
	assert.Equal(t, "n/a", cfg.Format.MissingPattern)
	assert.Equal(t, ShortRowsPad, cfg.Rows.ShortRows)
	assert.Equal(t, int64(10), cfg.Rows.MaxRows)
	// untouched defaults survive
	assert.Equal(t, `"`, cfg.Format.Quote)
	assert.True(t, cfg.Rows.IgnoreEmptyLines)

	schema, err := cfg.Schema.Build()
	require.NoError(t, err)
	assert.True(t, schema.RowIDColumn)
	require.Len(t, schema.Columns, 2)
	assert.Equal(t, int64(0), schema.Columns[0].Domain.Lower)
	assert.Equal(t, int64(5), schema.Columns[0].Domain.Upper)
	assert.Equal(t, "-", *schema.Columns[1].MissingPattern)
	assert.Equal(t, []any{"a", "b"}, schema.Columns[1].Domain.Values())

	opts := cfg.CoerceOptions()
	assert.Equal(t, ',', opts.DecimalSeparator)
	assert.Equal(t, rune(0), opts.ThousandsSeparator)
}

func TestLoadIngestionRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rows:\n  short_rows: sometimes\n"), 0o600))
	_, err := LoadIngestion(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestSaveRoundTripsSchema(t *testing.T) {
	d := table.NewDomain("x")
	d.Lower, d.Upper = 1.5, 2.5
	schema := table.Schema{Columns: []table.Column{{Name: "v", Type: table.TypeDouble, Domain: d}}}

	cfg := NewIngestionConfig("saved")
	cfg.Schema = FromSchema(schema)
	path := filepath.Join(t.TempDir(), "saved.yaml")
	require.NoError(t, Save(path, cfg))

	loaded, err := LoadIngestion(path)
	require.NoError(t, err)
	rebuilt, err := loaded.Schema.Build()
	require.NoError(t, err)
	assert.Equal(t, 1.5, rebuilt.Columns[0].Domain.Lower)
	assert.Equal(t, 2.5, rebuilt.Columns[0].Domain.Upper)
}

func TestSourceOptions(t *testing.T) {
	cfg := NewIngestionConfig("x")
	cfg.Source.Compression = "gzip"
	cfg.Source.Charset = "utf-16le"
	opts := cfg.SourceOptions()
	assert.Equal(t, compression.Gzip, opts.Compression)
	assert.Equal(t, "utf-16le", opts.Charset)
	assert.Nil(t, opts.HTTPClient)
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("FR_A", "1")
	assert.Equal(t, "x=1 $y ${", expandEnv("x=${FR_A} $y ${"))
	assert.Equal(t, "", expandEnv("${FR_UNSET_VARIABLE}"))
}
